package render

import "errors"

var (
	// ErrUnknownFormat is returned when an output format name is not recognised.
	ErrUnknownFormat = errors.New("unknown output format")
	// ErrUnknownKey is returned when a key path does not name a document field.
	ErrUnknownKey = errors.New("unknown configuration key")
	// ErrInvalidUTF8 is returned when JSON output would have to replace bytes of a value.
	ErrInvalidUTF8 = errors.New("value is not valid UTF-8")
)
