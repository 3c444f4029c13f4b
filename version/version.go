package version

import (
	"fmt"
	"runtime"
)

// Set via -ldflags at build time.
var (
	Version   = "dev"
	Revision  = "unknown"
	BuildTime = "unknown"
)

// String returns the version report printed by `appliance version`.
func String() string {
	return fmt.Sprintf("Version:    %s\nGit hash:   %s\nBuilt:      %s\nGo version: %s\nOS/Arch:    %s/%s\n",
		Version, Revision, BuildTime, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
