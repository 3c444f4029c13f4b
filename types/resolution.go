package types

// ResolutionStatus is the outcome of resolving one appliance version.
type ResolutionStatus int

const (
	// StatusResolved: every image slot is backed by a verified local file.
	StatusResolved ResolutionStatus = iota
	// StatusUnresolved: the version exists but an image is missing or does
	// not match the template.
	StatusUnresolved
	// StatusUnknownVersion: the template declares no such version.
	StatusUnknownVersion
)

func (s ResolutionStatus) String() string {
	switch s {
	case StatusResolved:
		return "resolved"
	case StatusUnresolved:
		return "unresolved"
	case StatusUnknownVersion:
		return "unknown version"
	default:
		return "invalid"
	}
}

// ResolvedImage binds one image slot of a version to a local file.
type ResolvedImage struct {
	Type     string `json:"type"`
	Path     string `json:"path"`
	Filename string `json:"filename"`
	Checksum string `json:"md5sum"`
	Size     int64  `json:"filesize"`
}

// Resolution is the result of resolving one version. Images is only set
// for StatusResolved and keeps the slot order of the template; Err is only
// set otherwise.
type Resolution struct {
	Status  ResolutionStatus `json:"-"`
	Name    string           `json:"name"`
	Version string           `json:"version"`
	Images  []ResolvedImage  `json:"images"`
	Err     error            `json:"-"`
}

// Installable reports whether the version can be installed from local files.
func (r Resolution) Installable() bool {
	return r.Status == StatusResolved
}
