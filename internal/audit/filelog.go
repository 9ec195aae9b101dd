package audit

import (
	"context"
	"fmt"
	"sync"

	"github.com/nerrad567/docstore-core/internal/jsonfile"
	"github.com/nerrad567/docstore-core/internal/protocol"
)

// FileLog persists the audit trail as a single JSON array file, fully
// rewritten on every append. Appends are serialised by one mutex per
// log instance.
type FileLog struct {
	path string
	mu   sync.Mutex
}

// NewFileLog opens (or initialises) the audit file at path.
func NewFileLog(path string) (*FileLog, error) {
	if err := jsonfile.EnsureArray(path); err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	return &FileLog{path: path}, nil
}

// Append records a get, list, or set action.
func (l *FileLog) Append(_ context.Context, rec Record) error {
	if rec.Action != string(protocol.ActionGet) {
		rec.ItemID = ""
	}
	return l.append(rec)
}

// AppendExact records a subscribe action.
func (l *FileLog) AppendExact(_ context.Context, rec Record) error {
	if !rec.complete() {
		return ErrIncompleteRecord
	}
	rec.ItemID = ""
	return l.append(rec)
}

func (l *FileLog) append(rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var records []Record
	if err := jsonfile.Read(l.path, &records); err != nil {
		return fmt.Errorf("loading audit log: %w", err)
	}
	records = append(records, rec)
	if err := jsonfile.Write(l.path, records); err != nil {
		return fmt.Errorf("persisting audit log: %w", err)
	}
	return nil
}

// Records returns every entry in append order. Used by tests and
// inspection tooling; not part of the Log interface.
func (l *FileLog) Records() ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var records []Record
	if err := jsonfile.Read(l.path, &records); err != nil {
		return nil, fmt.Errorf("loading audit log: %w", err)
	}
	return records, nil
}
