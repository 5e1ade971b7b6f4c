package importer

import "errors"

// Structural errors. They abort an import before any row is processed.
var (
	ErrMalformedInput = errors.New("malformed input")
	ErrUnknownFormat  = errors.New("unknown input format")
	ErrInvalidLayout  = errors.New("invalid column layout")
	ErrInvalidOptions = errors.New("invalid import options")
)
