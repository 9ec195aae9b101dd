package document

// KeyField is the document field holding the unique key.
const KeyField = "id"

// Document is one stored record: an arbitrary JSON object keyed by its
// "id" field.
type Document map[string]any

// ID returns the document's key, or "" if absent or not a string.
func (d Document) ID() string {
	id, _ := d[KeyField].(string)
	return id
}

// Clone returns a shallow copy of the document. Backends return clones
// so callers can never mutate stored state through a returned Document.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Merge returns the union of d and incoming, with incoming fields taking
// precedence. Neither input is modified.
func (d Document) Merge(incoming Document) Document {
	out := d.Clone()
	for k, v := range incoming {
		out[k] = v
	}
	return out
}
