package protocol

import (
	"regexp"
	"strconv"
	"strings"
)

// Action identifies one of the four supported operations.
type Action string

// Supported actions.
const (
	ActionSubscribe Action = "subscribe"
	ActionGet       Action = "get"
	ActionList      Action = "list"
	ActionSet       Action = "set"
)

// identityPattern is the required shape of a client identity:
// exactly 12 lowercase hexadecimal characters (a MAC address in hex).
var identityPattern = regexp.MustCompile(`^[0-9a-f]{12}$`)

// Request is one inbound protocol message. It is constructed from a
// single framed JSON object, validated once, and never mutated after
// dispatch.
type Request struct {
	UUID   string `json:"UUID"`
	Action string `json:"ACTION"`
	ID     string `json:"ID,omitempty"`
	Data   any    `json:"DATA,omitempty"`
}

// Command is the validated form of a Request. Identity and Action are
// normalised, and ItemID is resolved from either the top-level ID field
// or the id/ID field nested in DATA.
type Command struct {
	Identity string
	Action   Action
	ItemID   string
	Data     map[string]any
}

// ValidIdentity reports whether s is a well-formed client identity.
func ValidIdentity(s string) bool {
	return identityPattern.MatchString(s)
}

// NormaliseIdentity trims and lowercases a raw identity value. The
// result still has to pass ValidIdentity.
func NormaliseIdentity(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Validate checks the request and returns its validated Command form.
//
// Checks run in a fixed order:
//  1. Identity shape (12 lowercase hex chars)
//  2. Action membership
//  3. For get/set: presence of an item id (top-level ID, else DATA.id,
//     else DATA.ID)
//  4. For set: DATA must be a JSON object
//
// Every failure is a *ValidationError; the caller must not touch the
// store, the audit log, or the registry for an invalid request.
func (r *Request) Validate() (*Command, error) {
	identity := NormaliseIdentity(r.UUID)
	if !ValidIdentity(identity) {
		return nil, NewValidationError(MsgInvalidIdentity)
	}

	action := Action(strings.ToLower(strings.TrimSpace(r.Action)))
	switch action {
	case ActionSubscribe, ActionGet, ActionList, ActionSet:
	default:
		return nil, NewValidationError(MsgUnknownAction)
	}

	cmd := &Command{
		Identity: identity,
		Action:   action,
	}

	data, dataIsObject := r.Data.(map[string]any)
	if dataIsObject {
		cmd.Data = data
	}

	switch action {
	case ActionGet, ActionSet:
		cmd.ItemID = r.extractID()
		if cmd.ItemID == "" {
			return nil, NewValidationError(MsgMissingID)
		}
	case ActionList:
		// A stray ID is ignored; list never uses one.
		cmd.ItemID = ""
	case ActionSubscribe:
	}

	if action == ActionSet && !dataIsObject {
		return nil, NewValidationError(MsgDataNotObject)
	}

	return cmd, nil
}

// extractID resolves the item id from the top-level ID field or, when
// absent, from an "id" or "ID" field nested in DATA.
func (r *Request) extractID() string {
	if id := strings.TrimSpace(r.ID); id != "" {
		return id
	}
	data, ok := r.Data.(map[string]any)
	if !ok {
		return ""
	}
	if id := idString(data["id"]); id != "" {
		return id
	}
	return idString(data["ID"])
}

// idString converts a nested id value to its string form. Strings are
// trimmed; numbers are stringified so a numeric id works the same as its
// quoted form. Empty, zero, and non-scalar values resolve to "".
func idString(v any) string {
	switch id := v.(type) {
	case string:
		return strings.TrimSpace(id)
	case float64:
		if id == 0 {
			return ""
		}
		return strconv.FormatFloat(id, 'f', -1, 64)
	}
	return ""
}
