package audit

import "errors"

var (
	// ErrIncompleteRecord is returned by AppendExact when any of
	// identity, session, action, or ts is missing.
	ErrIncompleteRecord = errors.New("audit: incomplete record")
)
