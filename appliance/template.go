package appliance

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Template is the typed part of an appliance document: the fields the
// resolver interprets. Everything else lands in Metadata untouched.
type Template struct {
	RegistryVersion int            `json:"registry_version" yaml:"registry_version"`
	Name            string         `json:"name" yaml:"name"`
	Images          []File         `json:"images" yaml:"images"`
	Versions        []Version      `json:"versions" yaml:"versions"`
	Metadata        map[string]any `json:"-" yaml:"-"`
}

// File is an entry of the template's images section: the requirements a
// local file must meet to stand in for it. Filesize and MD5Sum are only
// checked when non-zero.
type File struct {
	Filename          string `json:"filename" yaml:"filename"`
	Version           string `json:"version,omitempty" yaml:"version,omitempty"`
	MD5Sum            string `json:"md5sum,omitempty" yaml:"md5sum,omitempty"`
	Filesize          int64  `json:"filesize,omitempty" yaml:"filesize,omitempty"`
	DownloadURL       string `json:"download_url,omitempty" yaml:"download_url,omitempty"`
	DirectDownloadURL string `json:"direct_download_url,omitempty" yaml:"direct_download_url,omitempty"`
	Compression       string `json:"compression,omitempty" yaml:"compression,omitempty"`
}

// Version is a named, installable combination of images.
type Version struct {
	Name   string `json:"name" yaml:"name"`
	Images Slots  `json:"images" yaml:"images"`
}

// Slot binds an image type (hda_disk_image, kernel_image, ...) to a filename.
type Slot struct {
	Type     string
	Filename string
}

// Slots keeps the document order of a version's images mapping.
type Slots []Slot

// knownFields are the top-level keys decoded into Template.
var knownFields = map[string]struct{}{
	"registry_version": {},
	"name":             {},
	"images":           {},
	"versions":         {},
}

// UnmarshalJSON decodes a {"slot": "filename", ...} object in order.
func (s *Slots) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("images must map image types to filenames, got %s", bytes.TrimSpace(data))
	}
	out := Slots{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		typ, _ := tok.(string)
		var filename string
		if err := dec.Decode(&filename); err != nil {
			return fmt.Errorf("image %s: %w", typ, err)
		}
		out = append(out, Slot{Type: typ, Filename: filename})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*s = out
	return nil
}

// MarshalJSON encodes the slots back into an object, in order.
func (s Slots) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, slot := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(slot.Type)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(slot.Filename)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalYAML decodes a slot mapping in order.
func (s *Slots) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: images must map image types to filenames", node.Line)
	}
	out := make(Slots, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		if valNode.Kind != yaml.ScalarNode || valNode.ShortTag() != "!!str" {
			return fmt.Errorf("line %d: image %s: filename must be a string", valNode.Line, keyNode.Value)
		}
		out = append(out, Slot{Type: keyNode.Value, Filename: valNode.Value})
	}
	*s = out
	return nil
}
