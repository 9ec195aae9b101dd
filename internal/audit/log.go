package audit

import "context"

// Log defines the interface for audit trail appends.
type Log interface {
	// Append records a get, list, or set action. The item id is
	// preserved for get and stripped for every other action.
	Append(ctx context.Context, rec Record) error

	// AppendExact records a subscribe action. All of identity, session,
	// action, and ts must be present; ErrIncompleteRecord is returned
	// otherwise. Backends that mandate a key synthesise
	// "identity#subscribe#session".
	AppendExact(ctx context.Context, rec Record) error
}
