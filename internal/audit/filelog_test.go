package audit

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestFileLog(t *testing.T) (*FileLog, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "audit.json")
	log, err := NewFileLog(path)
	if err != nil {
		t.Fatalf("NewFileLog: %v", err)
	}
	return log, path
}

func TestFileLogAppendGetKeepsItemID(t *testing.T) {
	log, _ := newTestFileLog(t)

	rec := Record{Identity: "a1b2c3d4e5f6", Session: "s1", Action: "get", TS: 100, ItemID: "X1"}
	if err := log.Append(context.Background(), rec); err != nil {
		t.Fatalf("Append: %v", err)
	}

	records, err := log.Records()
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].ItemID != "X1" {
		t.Errorf("get record should keep id, got %q", records[0].ItemID)
	}
}

func TestFileLogAppendSetStripsItemID(t *testing.T) {
	log, path := newTestFileLog(t)

	rec := Record{Identity: "a1b2c3d4e5f6", Session: "s1", Action: "set", TS: 100, ItemID: "X1"}
	if err := log.Append(context.Background(), rec); err != nil {
		t.Fatalf("Append: %v", err)
	}

	records, err := log.Records()
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if records[0].ItemID != "" {
		t.Errorf("set record should not carry an id, got %q", records[0].ItemID)
	}

	// The id key must be absent from the serialised form, not empty.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading audit file: %v", err)
	}
	if strings.Contains(string(data), `"id"`) {
		t.Error("serialised set record should omit the id key")
	}
}

func TestFileLogAppendListStripsItemID(t *testing.T) {
	log, _ := newTestFileLog(t)

	rec := Record{Identity: "a1b2c3d4e5f6", Session: "s1", Action: "list", TS: 100, ItemID: "stray"}
	if err := log.Append(context.Background(), rec); err != nil {
		t.Fatalf("Append: %v", err)
	}

	records, err := log.Records()
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if records[0].ItemID != "" {
		t.Errorf("list record should not carry an id, got %q", records[0].ItemID)
	}
}

func TestFileLogAppendExactRequiresCompleteRecord(t *testing.T) {
	log, _ := newTestFileLog(t)
	ctx := context.Background()

	tests := []struct {
		name string
		rec  Record
	}{
		{"missing identity", Record{Session: "s1", Action: "subscribe", TS: 100}},
		{"missing session", Record{Identity: "a1b2c3d4e5f6", Action: "subscribe", TS: 100}},
		{"missing action", Record{Identity: "a1b2c3d4e5f6", Session: "s1", TS: 100}},
		{"missing ts", Record{Identity: "a1b2c3d4e5f6", Session: "s1", Action: "subscribe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := log.AppendExact(ctx, tt.rec); !errors.Is(err, ErrIncompleteRecord) {
				t.Errorf("got %v, want ErrIncompleteRecord", err)
			}
		})
	}

	complete := Record{Identity: "a1b2c3d4e5f6", Session: "s1", Action: "subscribe", TS: 100}
	if err := log.AppendExact(ctx, complete); err != nil {
		t.Errorf("complete record: %v", err)
	}
}

func TestFileLogAppendOrderPreserved(t *testing.T) {
	log, _ := newTestFileLog(t)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		rec := Record{Identity: "a1b2c3d4e5f6", Session: "s1", Action: "list", TS: i}
		if err := log.Append(ctx, rec); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}

	records, err := log.Records()
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for i, rec := range records {
		if rec.TS != int64(i+1) {
			t.Errorf("record %d: ts %d, want %d", i, rec.TS, i+1)
		}
	}
}

func TestFileLogSerialisedFieldNames(t *testing.T) {
	log, path := newTestFileLog(t)

	rec := Record{Identity: "a1b2c3d4e5f6", Session: "s1", Action: "get", TS: 100, ItemID: "X1"}
	if err := log.Append(context.Background(), rec); err != nil {
		t.Fatalf("Append: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading audit file: %v", err)
	}
	var parsed []map[string]any
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got := parsed[0]
	for _, key := range []string{"UUID", "session", "action", "ts", "id"} {
		if _, ok := got[key]; !ok {
			t.Errorf("serialised record missing key %q", key)
		}
	}
}
