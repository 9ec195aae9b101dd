// Package database provides the SQLite connection used by the table
// storage backend.
//
// It handles connection string construction (WAL mode, busy timeout,
// foreign keys), pool sizing for SQLite's single-writer model, and
// health checks.
package database
