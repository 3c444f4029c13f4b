package utils

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// WalkSuffix returns every regular file below root whose name ends with
// suffix. Unreadable subtrees are skipped. A missing root yields nil.
func WalkSuffix(root, suffix string) []string {
	var found []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && strings.HasSuffix(d.Name(), suffix) {
			found = append(found, path)
		}
		return nil
	})
	return found
}
