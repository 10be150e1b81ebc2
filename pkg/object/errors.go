package object

import "errors"

// Error kinds surfaced by the object layer. Callers match them with
// errors.Is; messages carry the details.
var (
	ErrObjectNotFound    = errors.New("object not found")
	ErrInvalidObjectName = errors.New("not a valid object name")
	ErrInvalidObjectType = errors.New("invalid object type")
	ErrMalformedObject   = errors.New("malformed object")
	ErrUnsupportedEntry  = errors.New("unsupported directory entry")
	ErrFileNotFound      = errors.New("could not open file for reading")
)
