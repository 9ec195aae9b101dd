// Package document provides the document store: a small keyed collection
// of JSON objects with merge-upsert semantics.
//
// # Architecture
//
//   - Document: a JSON object with a unique string "id" field
//   - Store: the three-operation interface the service depends on
//   - FileStore: whole-file JSON array backend (read fully, rewrite fully)
//   - TableStore: SQLite table backend (per-item reads/writes, paginated scans)
//
// Merge semantics: an upsert's incoming fields overwrite same-named
// existing fields; all other existing fields persist. Documents are never
// deleted.
//
// Backend selection happens once at startup in cmd/docstored; everything
// else depends only on Store.
//
// # Thread Safety
//
// Both backends serialise mutations internally. FileStore holds one
// mutex across its whole read-modify-write cycle; TableStore serialises
// the read-merge-write of Upsert so concurrent writers to the same id
// cannot lose updates.
package document
