package client

import (
	"strings"
	"testing"

	"github.com/nerrad567/docstore-core/internal/protocol"
)

func TestLocalIdentityShape(t *testing.T) {
	identity := LocalIdentity()
	if !protocol.ValidIdentity(identity) {
		t.Errorf("LocalIdentity returned %q, want 12 lowercase hex characters", identity)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		raw     map[string]any
		want    protocol.Request
		wantErr string
	}{
		{
			name: "get with explicit fields",
			raw:  map[string]any{"UUID": "a1b2c3d4e5f6", "ACTION": "get", "ID": "X1"},
			want: protocol.Request{UUID: "a1b2c3d4e5f6", Action: "get", ID: "X1"},
		},
		{
			name: "action lowercased",
			raw:  map[string]any{"UUID": "a1b2c3d4e5f6", "ACTION": "GET", "ID": "X1"},
			want: protocol.Request{UUID: "a1b2c3d4e5f6", Action: "get", ID: "X1"},
		},
		{
			name: "identity normalised",
			raw:  map[string]any{"UUID": " A1B2C3D4E5F6 ", "ACTION": "list"},
			want: protocol.Request{UUID: "a1b2c3d4e5f6", Action: "list"},
		},
		{
			name: "set with nested data",
			raw: map[string]any{
				"UUID": "a1b2c3d4e5f6", "ACTION": "set",
				"DATA": map[string]any{"id": "X1", "nombre": "Foo"},
			},
			want: protocol.Request{
				UUID: "a1b2c3d4e5f6", Action: "set", ID: "X1",
				Data: map[string]any{"id": "X1", "nombre": "Foo"},
			},
		},
		{
			name: "flat set folds fields into data",
			raw: map[string]any{
				"UUID": "a1b2c3d4e5f6", "ACTION": "set", "ID": "X1",
				"nombre": "Foo", "n": 7,
			},
			want: protocol.Request{
				UUID: "a1b2c3d4e5f6", Action: "set", ID: "X1",
				Data: map[string]any{"nombre": "Foo", "n": 7},
			},
		},
		{
			name: "nested numeric id stringified",
			raw: map[string]any{
				"UUID": "a1b2c3d4e5f6", "ACTION": "get",
				"DATA": map[string]any{"id": float64(42)},
			},
			want: protocol.Request{UUID: "a1b2c3d4e5f6", Action: "get", ID: "42"},
		},
		{
			name: "list drops stray id",
			raw:  map[string]any{"UUID": "a1b2c3d4e5f6", "ACTION": "list", "ID": "stray"},
			want: protocol.Request{UUID: "a1b2c3d4e5f6", Action: "list"},
		},
		{
			name:    "subscribe is not a one-shot action",
			raw:     map[string]any{"UUID": "a1b2c3d4e5f6", "ACTION": "subscribe"},
			wantErr: "ACTION must be",
		},
		{
			name:    "unknown action",
			raw:     map[string]any{"UUID": "a1b2c3d4e5f6", "ACTION": "delete"},
			wantErr: "ACTION must be",
		},
		{
			name:    "invalid identity",
			raw:     map[string]any{"UUID": "nope", "ACTION": "list"},
			wantErr: "invalid UUID",
		},
		{
			name:    "get without id",
			raw:     map[string]any{"UUID": "a1b2c3d4e5f6", "ACTION": "get"},
			wantErr: "missing ID",
		},
		{
			name:    "set without id anywhere",
			raw:     map[string]any{"UUID": "a1b2c3d4e5f6", "ACTION": "set", "nombre": "Foo"},
			wantErr: "missing ID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.raw)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error: got %q, want substring %q", err.Error(), tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if got.UUID != tt.want.UUID || got.Action != tt.want.Action || got.ID != tt.want.ID {
				t.Errorf("request: got %+v, want %+v", got, tt.want)
			}
			if tt.want.Data != nil {
				data, ok := got.Data.(map[string]any)
				if !ok {
					t.Fatalf("data: got %T", got.Data)
				}
				want := tt.want.Data.(map[string]any)
				if len(data) != len(want) {
					t.Errorf("data: got %v, want %v", data, want)
				}
				for k, v := range want {
					if data[k] != v {
						t.Errorf("data[%s]: got %v, want %v", k, data[k], v)
					}
				}
			}
		})
	}
}

func TestNormalizeDefaultsIdentity(t *testing.T) {
	got, err := Normalize(map[string]any{"ACTION": "list"})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if !protocol.ValidIdentity(got.UUID) {
		t.Errorf("defaulted identity %q is not valid", got.UUID)
	}
}

func TestNormalizeIDResolutionOrder(t *testing.T) {
	// Top-level ID wins; nested lowercase id beats uppercase ID.
	got, err := Normalize(map[string]any{
		"UUID": "a1b2c3d4e5f6", "ACTION": "get", "ID": "top",
		"DATA": map[string]any{"id": "nested"},
	})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got.ID != "top" {
		t.Errorf("id: got %q, want top", got.ID)
	}

	got, err = Normalize(map[string]any{
		"UUID": "a1b2c3d4e5f6", "ACTION": "get",
		"DATA": map[string]any{"id": "lower", "ID": "UPPER"},
	})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got.ID != "lower" {
		t.Errorf("id: got %q, want lower", got.ID)
	}
}
