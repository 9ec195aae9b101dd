package document

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// TableStore persists documents one row per document in a SQLite table,
// with per-item reads and writes and paginated full scans for List.
//
// The table's JSON column decodes numbers as json.Number; values are
// normalised to native int64/float64 before they leave this package, so
// the service layer never sees a backend-specific numeric type.
type TableStore struct {
	db       *sql.DB
	pageSize int

	// mu serialises the read-merge-write cycle of Upsert. Per-item
	// reads and writes may otherwise run concurrently.
	mu sync.Mutex
}

// NewTableStore creates the documents table if needed and returns a
// store scanning List results in pages of pageSize rows.
func NewTableStore(db *sql.DB, pageSize int) (*TableStore, error) {
	const schema = `
		CREATE TABLE IF NOT EXISTS documents (
			id     TEXT PRIMARY KEY,
			fields TEXT NOT NULL
		)`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("creating documents table: %w", err)
	}
	if pageSize < 1 {
		pageSize = 100
	}
	return &TableStore{db: db, pageSize: pageSize}, nil
}

// Get retrieves a document by id.
func (s *TableStore) Get(ctx context.Context, id string) (Document, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT fields FROM documents WHERE id = ?`, id,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying document by id: %w", err)
	}
	return decodeDocument(raw)
}

// List retrieves all documents using a paginated full scan.
func (s *TableStore) List(ctx context.Context) ([]Document, error) {
	docs := []Document{}
	offset := 0
	for {
		page, err := s.scanPage(ctx, offset)
		if err != nil {
			return nil, err
		}
		docs = append(docs, page...)
		if len(page) < s.pageSize {
			return docs, nil
		}
		offset += s.pageSize
	}
}

// Upsert merges partial into the stored document with the same id,
// inserting when absent, and returns the merged result.
func (s *TableStore) Upsert(ctx context.Context, partial Document) (Document, error) {
	id := partial.ID()
	if id == "" {
		return nil, ErrMissingID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	merged := partial.Clone()
	existing, err := s.Get(ctx, id)
	switch {
	case err == nil:
		merged = existing.Merge(partial)
	case errors.Is(err, ErrNotFound):
	default:
		return nil, err
	}

	raw, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("encoding document %q: %w", id, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (id, fields) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET fields = excluded.fields`,
		id, string(raw),
	)
	if err != nil {
		return nil, fmt.Errorf("persisting document %q: %w", id, err)
	}
	return decodeDocument(string(raw))
}

// scanPage fetches one page of the full scan, ordered by id.
func (s *TableStore) scanPage(ctx context.Context, offset int) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT fields FROM documents ORDER BY id LIMIT ? OFFSET ?`,
		s.pageSize, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning documents: %w", err)
	}
	defer rows.Close()

	var page []Document
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning document row: %w", err)
		}
		doc, err := decodeDocument(raw)
		if err != nil {
			return nil, err
		}
		page = append(page, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return page, nil
}

// decodeDocument parses a stored JSON object and normalises its numbers.
func decodeDocument(raw string) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding stored document: %w", err)
	}
	return toNative(doc).(Document), nil
}

// toNative recursively converts json.Number values to int64 when
// integral and float64 otherwise, mirroring what the service expects
// from every backend.
func toNative(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case Document:
		for k, item := range val {
			val[k] = toNative(item)
		}
		return val
	case map[string]any:
		for k, item := range val {
			val[k] = toNative(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = toNative(item)
		}
		return val
	default:
		return v
	}
}
