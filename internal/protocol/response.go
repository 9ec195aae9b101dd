package protocol

// Response is the single reply sent for every short-lived request, and
// the acknowledgement sent for subscribe.
//
// Success:       {"OK": true, "DATA": <document or list>}
// Subscribe ack: {"OK": true, "ACTION": "subscribe"}
// Failure:       {"OK": false, "Error": <message>}
type Response struct {
	OK     bool   `json:"OK"`
	Data   any    `json:"DATA,omitempty"`
	Action string `json:"ACTION,omitempty"`
	Error  string `json:"Error,omitempty"`
}

// OKData builds a success response carrying a payload.
func OKData(data any) Response {
	return Response{OK: true, Data: data}
}

// SubscribeAck builds the subscription acknowledgement.
func SubscribeAck() Response {
	return Response{OK: true, Action: string(ActionSubscribe)}
}

// Failure builds an error response.
func Failure(msg string) Response {
	return Response{OK: false, Error: msg}
}

// ChangeAction is the ACTION value of a server-initiated push event.
const ChangeAction = "change"

// Event is a server-initiated push delivered to every live subscriber
// after a successful set. No request precedes it on the subscriber's
// connection.
type Event struct {
	Action string `json:"ACTION"`
	Data   any    `json:"DATA"`
	TS     int64  `json:"ts"`
}

// NewChangeEvent builds a change event for the merged document.
func NewChangeEvent(doc any, ts int64) Event {
	return Event{Action: ChangeAction, Data: doc, TS: ts}
}
