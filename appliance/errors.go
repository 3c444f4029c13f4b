package appliance

import (
	"errors"
	"fmt"
)

// Kind classifies an appliance Error.
type Kind int

const (
	// KindUnreadable: the template cannot be read or parsed.
	KindUnreadable Kind = iota + 1
	// KindInvalidSchema: the document carries no usable registry_version.
	KindInvalidSchema
	// KindUnsupportedVersion: registry_version is newer or older than supported.
	KindUnsupportedVersion
	// KindMalformed: the images or versions sections are structurally wrong.
	KindMalformed
	// KindUnknownVersion: a query named a version the template doesn't declare.
	KindUnknownVersion
	// KindMissingImage: a required image file is absent.
	KindMissingImage
	// KindMismatch: an image file exists but its size or checksum differs.
	KindMismatch
	// KindImageIO: an image exists but could not be read to completion.
	KindImageIO
)

var kindNames = map[Kind]string{
	KindUnreadable:         "cannot read/parse",
	KindInvalidSchema:      "invalid schema",
	KindUnsupportedVersion: "unsupported schema version",
	KindMalformed:          "malformed content",
	KindUnknownVersion:     "unknown version",
	KindMissingImage:       "missing image",
	KindMismatch:           "checksum/size mismatch",
	KindImageIO:            "image read error",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the single error type returned by Appliance construction and
// queries.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func newError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is an appliance Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}
