package protocol

// Validation failure messages, sent verbatim in the Error field of a
// failure response. Clients match on these strings, so they are part of
// the wire contract.
const (
	MsgInvalidIdentity = "invalid identity"
	MsgUnknownAction   = "unknown action"
	MsgMissingID       = "missing id"
	MsgDataNotObject   = "DATA must be an object"
	MsgNotFound        = "NotFound"
)

// ValidationError describes a request rejected before dispatch. A
// request that fails validation has zero side effects: no store
// mutation, no audit record, no broadcast.
type ValidationError struct {
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError with the given message.
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}
