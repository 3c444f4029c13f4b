package image

import "errors"

// ErrNotFound reports that an image file (and, for checksums, its sidecar
// record) is absent.
var ErrNotFound = errors.New("image not found")
