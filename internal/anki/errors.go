package anki

import "errors"

// Configuration errors. These are fatal for the current build and propagate
// unmodified to the caller of a package write; fixing the input is the only
// remedy.
var (
	ErrInvalidTag           = errors.New("tag contains a space")
	ErrFieldCountMismatch   = errors.New("note field count does not match model field count")
	ErrUnsupportedModelType = errors.New("expected model type FRONT_BACK or CLOZE")
	ErrUnresolvableTemplate = errors.New("could not compute required fields for template")
)
