package audit

// Record is one audit trail entry. Field names match the persisted JSON
// layout exactly.
type Record struct {
	Identity string `json:"UUID"`
	Session  string `json:"session"`
	Action   string `json:"action"`
	TS       int64  `json:"ts"`
	ItemID   string `json:"id,omitempty"`
}

// complete reports whether the record carries the full tuple AppendExact
// requires.
func (r Record) complete() bool {
	return r.Identity != "" && r.Session != "" && r.Action != "" && r.TS != 0
}
