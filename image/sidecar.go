package image

import (
	"fmt"
	"os"
	"strings"

	"github.com/projecteru2/appliance/utils"
)

// SidecarSuffix is appended to an image path to name its checksum record.
const SidecarSuffix = ".md5sum"

// SidecarPath returns the checksum record path for the image at path.
func SidecarPath(path string) string {
	return path + SidecarSuffix
}

// readSidecar returns the digest stored next to path. An empty record is
// reported as missing so it gets recomputed.
func readSidecar(path string) (string, error) {
	data, err := os.ReadFile(SidecarPath(path)) //nolint:gosec // path derived from registry root
	if err != nil {
		return "", err
	}
	sum := strings.TrimSpace(string(data))
	if sum == "" {
		return "", os.ErrNotExist
	}
	return sum, nil
}

// writeSidecar records sum as the raw hex content of the sidecar file.
func writeSidecar(path, sum string) error {
	if err := utils.AtomicWriteFile(SidecarPath(path), []byte(sum), 0o644); err != nil { //nolint:gosec // checksum records are world-readable
		return fmt.Errorf("write checksum record: %w", err)
	}
	return nil
}
