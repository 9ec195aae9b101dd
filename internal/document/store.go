package document

import "context"

// Store defines the interface for document persistence operations.
// This abstraction allows for different implementations (file, SQLite
// table, mock) and enables unit testing without real storage.
type Store interface {
	// Get retrieves a document by its unique id.
	// Returns ErrNotFound if the document does not exist.
	Get(ctx context.Context, id string) (Document, error)

	// List retrieves all documents.
	List(ctx context.Context) ([]Document, error)

	// Upsert merges partial into the document with the same id, creating
	// it if absent, and returns the merged result. The partial must carry
	// an id field; ErrMissingID is returned otherwise.
	Upsert(ctx context.Context, partial Document) (Document, error)
}
