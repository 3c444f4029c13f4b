// Package registry maps image filenames from appliance templates onto a
// local images directory.
package registry

import (
	"path/filepath"

	"github.com/projecteru2/appliance/image"
)

// Registry is an immutable images root. It does not track which images
// exist; that is left to the Image accessors.
type Registry struct {
	root string
}

// New creates a Registry over root.
func New(root string) *Registry {
	return &Registry{root: filepath.Clean(root)}
}

// Root returns the images directory.
func (r *Registry) Root() string { return r.root }

// Resolve returns the Image for rel under the root. Lookups are confined
// lexically to the root ("../x" resolves to <root>/x). No I/O is done.
func (r *Registry) Resolve(rel string, opts ...image.Option) *image.Image {
	return image.New(r.Path(rel), opts...)
}

// Path returns the absolute location rel resolves to.
func (r *Registry) Path(rel string) string {
	return filepath.Join(r.root, filepath.Join(string(filepath.Separator), rel))
}
