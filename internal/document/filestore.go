package document

import (
	"context"
	"fmt"
	"sync"

	"github.com/nerrad567/docstore-core/internal/jsonfile"
)

// FileStore persists the whole collection as a single JSON array file.
//
// Every operation reads the file in full; every mutation rewrites it in
// full. The read-modify-write cycle of Upsert is globally serialised by
// one mutex per store instance, which is the correctness requirement for
// this layout and not a performance concern at this scale.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore opens (or initialises) the collection file at path.
func NewFileStore(path string) (*FileStore, error) {
	if err := jsonfile.EnsureArray(path); err != nil {
		return nil, fmt.Errorf("opening document store: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Get retrieves a document by id.
func (s *FileStore) Get(_ context.Context, id string) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.readAll()
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		if doc.ID() == id {
			return doc.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

// List retrieves all documents in stored order.
func (s *FileStore) List(_ context.Context) ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.readAll()
	if err != nil {
		return nil, err
	}
	out := make([]Document, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.Clone())
	}
	return out, nil
}

// Upsert merges partial into the matching document (by id), appending a
// new document when no match exists, and rewrites the file.
func (s *FileStore) Upsert(_ context.Context, partial Document) (Document, error) {
	id := partial.ID()
	if id == "" {
		return nil, ErrMissingID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.readAll()
	if err != nil {
		return nil, err
	}

	var merged Document
	found := false
	for i, doc := range docs {
		if doc.ID() == id {
			merged = doc.Merge(partial)
			docs[i] = merged
			found = true
			break
		}
	}
	if !found {
		merged = partial.Clone()
		docs = append(docs, merged)
	}

	if err := jsonfile.Write(s.path, docs); err != nil {
		return nil, fmt.Errorf("persisting document %q: %w", id, err)
	}
	return merged.Clone(), nil
}

// readAll loads the collection. Callers must hold the mutex.
func (s *FileStore) readAll() ([]Document, error) {
	var docs []Document
	if err := jsonfile.Read(s.path, &docs); err != nil {
		return nil, fmt.Errorf("loading document store: %w", err)
	}
	return docs, nil
}
