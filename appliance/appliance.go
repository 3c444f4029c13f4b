// Package appliance parses appliance templates and resolves their versions
// against the disk images available in a registry.
//
// A template declares a list of image files (with optional size and MD5)
// and a list of versions, each mapping image types such as hda_disk_image
// to one of those files. A version is installable when every file it names
// exists under the registry root and matches what the template declares.
package appliance

import (
	"context"
	"errors"
	"os"
	"slices"

	"github.com/mohae/deepcopy"
	"github.com/projecteru2/core/log"

	"github.com/projecteru2/appliance/registry"
)

// Appliance is a validated template bound to a registry. It is immutable
// after construction; queries can be repeated and run concurrently.
type Appliance struct {
	registry *registry.Registry
	tpl      *Template
	doc      map[string]any
	files    map[string]File
	versions map[string]int
}

// Load reads and validates the template at path.
func Load(ctx context.Context, reg *registry.Registry, path string) (*Appliance, error) {
	data, err := os.ReadFile(path) //nolint:gosec // template path from caller
	if err != nil {
		return nil, newError(KindUnreadable, err, "cannot read/parse %s", path)
	}
	a, err := Parse(reg, data, FormatFromPath(path))
	if err != nil {
		var ae *Error
		if errors.As(err, &ae) {
			ae.Msg = path + ": " + ae.Msg
		}
		return nil, err
	}
	log.WithFunc("appliance.Load").Infof(ctx, "loaded %s: %s (registry_version %d, %d versions)",
		path, a.tpl.Name, a.tpl.RegistryVersion, len(a.tpl.Versions))
	return a, nil
}

// Parse validates an in-memory template document.
func Parse(reg *registry.Registry, data []byte, format Format) (*Appliance, error) {
	tpl, raw, err := decode(data, format)
	if err != nil {
		return nil, err
	}
	a := &Appliance{
		registry: reg,
		tpl:      tpl,
		files:    make(map[string]File, len(tpl.Images)),
		versions: make(map[string]int, len(tpl.Versions)),
	}
	for _, f := range tpl.Images {
		a.files[f.Filename] = f
	}
	for i, v := range tpl.Versions {
		a.versions[v.Name] = i
	}
	a.doc = expandVersionImages(raw)
	return a, nil
}

// Name returns the appliance name.
func (a *Appliance) Name() string { return a.tpl.Name }

// RegistryVersion returns the template's schema marker.
func (a *Appliance) RegistryVersion() int { return a.tpl.RegistryVersion }

// Versions returns the declared version names in template order.
func (a *Appliance) Versions() []string {
	names := make([]string, 0, len(a.tpl.Versions))
	for _, v := range a.tpl.Versions {
		names = append(names, v.Name)
	}
	return names
}

// Template returns a copy of the typed template.
func (a *Appliance) Template() Template {
	return deepcopy.Copy(*a.tpl).(Template)
}

// Get returns a copy of the top-level document field key. Version image
// slots are expanded to the full image record they name.
func (a *Appliance) Get(key string) (any, bool) {
	v, ok := a.doc[key]
	if !ok {
		return nil, false
	}
	return deepcopy.Copy(v), true
}

// Keys returns the top-level document fields, sorted.
func (a *Appliance) Keys() []string {
	keys := make([]string, 0, len(a.doc))
	for k := range a.doc {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Document returns a copy of the whole document as Get sees it.
func (a *Appliance) Document() map[string]any {
	return deepcopy.Copy(a.doc).(map[string]any)
}

// expandVersionImages copies raw and replaces each versions[].images
// filename with the images[] record carrying that filename.
func expandVersionImages(raw map[string]any) map[string]any {
	doc := deepcopy.Copy(raw).(map[string]any)

	records := map[string]any{}
	list, _ := doc["images"].([]any)
	for _, rec := range list {
		if m, ok := rec.(map[string]any); ok {
			if name, ok := m["filename"].(string); ok {
				records[name] = m
			}
		}
	}

	versions, _ := doc["versions"].([]any)
	for _, v := range versions {
		vm, ok := v.(map[string]any)
		if !ok {
			continue
		}
		slots, ok := vm["images"].(map[string]any)
		if !ok {
			continue
		}
		for typ, filename := range slots {
			name, _ := filename.(string)
			if rec, ok := records[name]; ok {
				slots[typ] = deepcopy.Copy(rec)
			}
		}
	}
	return doc
}
