package document

import "errors"

// Domain errors for the document package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, document.ErrNotFound) {
//	    // handle not found case
//	}
var (
	// ErrNotFound is returned when a document id does not exist.
	ErrNotFound = errors.New("document: not found")

	// ErrMissingID is returned when an upsert payload has no id field.
	ErrMissingID = errors.New("document: missing id")
)
