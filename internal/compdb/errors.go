package compdb

import "errors"

var (
	// ErrInvalidDatabase is returned when the input is not a JSON array of objects
	ErrInvalidDatabase = errors.New("invalid compilation database")
	// ErrNotObject is returned when a database entry is not a JSON object
	ErrNotObject = errors.New("entry is not a JSON object")
	// ErrMissingFile is returned when an entry has no "file" attribute
	ErrMissingFile = errors.New("entry has no \"file\" attribute")
	// ErrInvalidFile is returned when the "file" attribute is not a JSON string
	ErrInvalidFile = errors.New("\"file\" attribute is not a string")
)
