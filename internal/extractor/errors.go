package extractor

import "errors"

var (
	// ErrTraversalOverflow indicates a syntax tree nested deeper than Options.MaxDepth.
	ErrTraversalOverflow = errors.New("traversal depth exceeded")

	// ErrMissingParentLink indicates a method whose enclosing type could not be resolved.
	// It never escapes the selector: the method is skipped.
	ErrMissingParentLink = errors.New("missing parent link")

	// ErrExtractionPanic wraps a panic recovered while extracting a file.
	ErrExtractionPanic = errors.New("panic during extraction")
)
