package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/nerrad567/docstore-core/internal/protocol"
)

// TableLog persists the audit trail in a SQLite table that mandates a
// primary key distinct from any business id. Keys are synthesised:
//
//	subscribe:      identity#subscribe#session   (AppendExact)
//	list, set:      identity#action#ts           (Append)
//	get:            the requested item id        (Append)
//
// Like the remote tables this backend models, a key collision replaces
// the previous row rather than failing the append.
type TableLog struct {
	db *sql.DB
}

// NewTableLog creates the audit table if needed.
func NewTableLog(db *sql.DB) (*TableLog, error) {
	const schema = `
		CREATE TABLE IF NOT EXISTS audit_log (
			key      TEXT PRIMARY KEY,
			identity TEXT NOT NULL,
			session  TEXT NOT NULL,
			action   TEXT NOT NULL,
			ts       INTEGER NOT NULL,
			item_id  TEXT
		)`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("creating audit table: %w", err)
	}
	return &TableLog{db: db}, nil
}

// Append records a get, list, or set action.
func (l *TableLog) Append(ctx context.Context, rec Record) error {
	var key string
	if rec.Action == string(protocol.ActionGet) {
		key = rec.ItemID
		if key == "" {
			key = strconv.FormatInt(rec.TS, 10)
		}
	} else {
		rec.ItemID = ""
		key = fmt.Sprintf("%s#%s#%d", rec.Identity, rec.Action, rec.TS)
	}
	return l.insert(ctx, key, rec)
}

// AppendExact records a subscribe action under its technical key.
func (l *TableLog) AppendExact(ctx context.Context, rec Record) error {
	if !rec.complete() {
		return ErrIncompleteRecord
	}
	rec.ItemID = ""
	key := fmt.Sprintf("%s#%s#%s", rec.Identity, rec.Action, rec.Session)
	return l.insert(ctx, key, rec)
}

func (l *TableLog) insert(ctx context.Context, key string, rec Record) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO audit_log (key, identity, session, action, ts, item_id)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		   identity = excluded.identity,
		   session  = excluded.session,
		   action   = excluded.action,
		   ts       = excluded.ts,
		   item_id  = excluded.item_id`,
		key, rec.Identity, rec.Session, rec.Action, rec.TS, nullableString(rec.ItemID),
	)
	if err != nil {
		return fmt.Errorf("inserting audit record: %w", err)
	}
	return nil
}

// Records returns every entry ordered by timestamp. Used by tests and
// inspection tooling; not part of the Log interface.
func (l *TableLog) Records(ctx context.Context) ([]Record, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT identity, session, action, ts, item_id FROM audit_log ORDER BY ts, key`)
	if err != nil {
		return nil, fmt.Errorf("querying audit records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var itemID sql.NullString
		if err := rows.Scan(&rec.Identity, &rec.Session, &rec.Action, &rec.TS, &itemID); err != nil {
			return nil, fmt.Errorf("scanning audit record: %w", err)
		}
		if itemID.Valid {
			rec.ItemID = itemID.String
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit records: %w", err)
	}
	return records, nil
}

// nullableString returns nil for empty strings, or the string otherwise.
// Used for nullable TEXT columns in SQLite.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
