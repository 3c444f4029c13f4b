package appliance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mohae/deepcopy"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Supported range of the registry_version schema marker.
const (
	MinRegistryVersion = 1
	MaxRegistryVersion = 6
)

// Format is the encoding of a template document.
type Format int

const (
	// FormatJSON also accepts JSONC: comments and trailing commas.
	FormatJSON Format = iota
	FormatYAML
)

var md5Pattern = regexp.MustCompile(`^[0-9a-fA-F]{32}$`)

// FormatFromPath picks YAML for .yaml/.yml files and JSON for anything
// else (.gns3a, .json, .jsonc).
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// decode runs the four validation stages in order and returns the typed
// template together with the generic document it came from.
func decode(data []byte, format Format) (*Template, map[string]any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil, newError(KindUnreadable, nil, "cannot read/parse: empty document")
	}

	var (
		raw       any
		unmarshal func(any) error
	)
	switch format {
	case FormatYAML:
		unmarshal = func(v any) error { return yaml.Unmarshal(data, v) }
	default:
		stripped := jsonc.ToJSON(data)
		unmarshal = func(v any) error { return json.Unmarshal(stripped, v) }
	}

	if err := unmarshal(&raw); err != nil {
		return nil, nil, newError(KindUnreadable, err, "cannot read/parse")
	}
	doc, ok := raw.(map[string]any)
	if !ok {
		return nil, nil, newError(KindInvalidSchema, nil, "invalid schema: document is not a mapping")
	}
	marker, ok := doc["registry_version"]
	if !ok {
		return nil, nil, newError(KindInvalidSchema, nil, "invalid schema: registry_version is missing")
	}
	version, ok := asInt(marker)
	if !ok {
		return nil, nil, newError(KindInvalidSchema, nil, "invalid schema: registry_version %v is not an integer", marker)
	}
	if version < MinRegistryVersion || version > MaxRegistryVersion {
		return nil, nil, newError(KindUnsupportedVersion, nil,
			"unsupported schema version: registry_version %d (supported %d-%d)", version, MinRegistryVersion, MaxRegistryVersion)
	}

	var tpl Template
	if err := unmarshal(&tpl); err != nil {
		return nil, nil, newError(KindMalformed, err, "malformed content")
	}
	if err := validate(&tpl); err != nil {
		return nil, nil, newError(KindMalformed, err, "malformed content")
	}

	tpl.Metadata = make(map[string]any, len(doc))
	for k, v := range doc {
		if _, known := knownFields[k]; !known {
			tpl.Metadata[k] = deepcopy.Copy(v)
		}
	}
	return &tpl, doc, nil
}

// validate checks the images and versions sections after type decoding.
func validate(tpl *Template) error {
	if strings.TrimSpace(tpl.Name) == "" {
		return fmt.Errorf("name is required")
	}

	files := make(map[string]struct{}, len(tpl.Images))
	for i, f := range tpl.Images {
		switch {
		case f.Filename == "":
			return fmt.Errorf("images[%d]: filename is required", i)
		case f.Filesize < 0:
			return fmt.Errorf("images[%d] (%s): negative filesize %d", i, f.Filename, f.Filesize)
		case f.MD5Sum != "" && !md5Pattern.MatchString(f.MD5Sum):
			return fmt.Errorf("images[%d] (%s): md5sum %q is not an MD5 digest", i, f.Filename, f.MD5Sum)
		}
		if _, dup := files[f.Filename]; dup {
			return fmt.Errorf("images[%d]: duplicate filename %s", i, f.Filename)
		}
		files[f.Filename] = struct{}{}
	}

	names := make(map[string]struct{}, len(tpl.Versions))
	for i, v := range tpl.Versions {
		if v.Name == "" {
			return fmt.Errorf("versions[%d]: name is required", i)
		}
		if _, dup := names[v.Name]; dup {
			return fmt.Errorf("versions[%d]: duplicate version %s", i, v.Name)
		}
		names[v.Name] = struct{}{}
		if len(v.Images) == 0 {
			return fmt.Errorf("version %s: no images", v.Name)
		}
		slotTypes := make(map[string]struct{}, len(v.Images))
		for _, slot := range v.Images {
			if slot.Type == "" {
				return fmt.Errorf("version %s: empty image type", v.Name)
			}
			if _, dup := slotTypes[slot.Type]; dup {
				return fmt.Errorf("version %s: duplicate image type %s", v.Name, slot.Type)
			}
			slotTypes[slot.Type] = struct{}{}
			if _, ok := files[slot.Filename]; !ok {
				return fmt.Errorf("version %s: %s requires %q which is not listed in images", v.Name, slot.Type, slot.Filename)
			}
		}
	}
	return nil
}

// asInt accepts the integer encodings produced by the JSON and YAML decoders.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		if n > math.MaxInt32 {
			return 0, false
		}
		return int(n), true
	case float64:
		if n != math.Trunc(n) || math.Abs(n) > math.MaxInt32 {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}
