package protocol

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestValidateIdentity(t *testing.T) {
	tests := []struct {
		name    string
		uuid    string
		wantErr string
	}{
		{"valid", "a1b2c3d4e5f6", ""},
		{"uppercase normalised", "A1B2C3D4E5F6", ""},
		{"surrounding whitespace", "  a1b2c3d4e5f6 ", ""},
		{"too short", "a1b2c3", MsgInvalidIdentity},
		{"too long", "a1b2c3d4e5f6a1", MsgInvalidIdentity},
		{"non-hex", "not-hex-here", MsgInvalidIdentity},
		{"empty", "", MsgInvalidIdentity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := Request{UUID: tt.uuid, Action: "list"}
			cmd, err := req.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: unexpected error %v", err)
				}
				if cmd.Identity != "a1b2c3d4e5f6" {
					t.Errorf("identity: got %q, want %q", cmd.Identity, "a1b2c3d4e5f6")
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate: expected error %q, got nil", tt.wantErr)
			}
			if err.Error() != tt.wantErr {
				t.Errorf("error: got %q, want %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateAction(t *testing.T) {
	tests := []struct {
		name    string
		action  string
		wantErr bool
	}{
		{"subscribe", "subscribe", false},
		{"list", "list", false},
		{"case insensitive", "LIST", false},
		{"unknown", "delete", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := Request{UUID: "a1b2c3d4e5f6", Action: tt.action}
			_, err := req.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if err.Error() != MsgUnknownAction {
					t.Errorf("error: got %q, want %q", err.Error(), MsgUnknownAction)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate: %v", err)
			}
		})
	}
}

func TestValidateIdentityCheckedBeforeAction(t *testing.T) {
	req := Request{UUID: "bogus", Action: "delete"}
	_, err := req.Validate()
	if err == nil || err.Error() != MsgInvalidIdentity {
		t.Fatalf("error: got %v, want %q", err, MsgInvalidIdentity)
	}
}

func TestValidateIDExtraction(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantID  string
		wantErr string
	}{
		{
			name:   "top-level id",
			req:    Request{UUID: "a1b2c3d4e5f6", Action: "get", ID: "X1"},
			wantID: "X1",
		},
		{
			name:   "top-level id trimmed",
			req:    Request{UUID: "a1b2c3d4e5f6", Action: "get", ID: " X1 "},
			wantID: "X1",
		},
		{
			name:   "nested lowercase id",
			req:    Request{UUID: "a1b2c3d4e5f6", Action: "set", Data: map[string]any{"id": "X2", "nombre": "Foo"}},
			wantID: "X2",
		},
		{
			name:   "nested uppercase id",
			req:    Request{UUID: "a1b2c3d4e5f6", Action: "set", Data: map[string]any{"ID": "X3"}},
			wantID: "X3",
		},
		{
			name:   "top-level wins over nested",
			req:    Request{UUID: "a1b2c3d4e5f6", Action: "set", Data: map[string]any{"id": "nested"}, ID: "top"},
			wantID: "top",
		},
		{
			name:   "nested numeric id stringified",
			req:    Request{UUID: "a1b2c3d4e5f6", Action: "set", Data: map[string]any{"id": float64(42)}},
			wantID: "42",
		},
		{
			name:   "nested fractional id stringified",
			req:    Request{UUID: "a1b2c3d4e5f6", Action: "set", Data: map[string]any{"ID": float64(4.5)}},
			wantID: "4.5",
		},
		{
			name:    "nested zero id is no id",
			req:     Request{UUID: "a1b2c3d4e5f6", Action: "set", Data: map[string]any{"id": float64(0)}},
			wantErr: MsgMissingID,
		},
		{
			name:    "nested non-scalar id is no id",
			req:     Request{UUID: "a1b2c3d4e5f6", Action: "set", Data: map[string]any{"id": map[string]any{"x": 1}}},
			wantErr: MsgMissingID,
		},
		{
			name:    "get without id",
			req:     Request{UUID: "a1b2c3d4e5f6", Action: "get"},
			wantErr: MsgMissingID,
		},
		{
			name:    "set without id",
			req:     Request{UUID: "a1b2c3d4e5f6", Action: "set", Data: map[string]any{"nombre": "Foo"}},
			wantErr: MsgMissingID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := tt.req.Validate()
			if tt.wantErr != "" {
				if err == nil || err.Error() != tt.wantErr {
					t.Fatalf("error: got %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if cmd.ItemID != tt.wantID {
				t.Errorf("item id: got %q, want %q", cmd.ItemID, tt.wantID)
			}
		})
	}
}

func TestValidateSetRequiresObjectData(t *testing.T) {
	req := Request{UUID: "a1b2c3d4e5f6", Action: "set", ID: "X1", Data: "not an object"}
	_, err := req.Validate()
	if err == nil || err.Error() != MsgDataNotObject {
		t.Fatalf("error: got %v, want %q", err, MsgDataNotObject)
	}

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("expected *ValidationError, got %T", err)
	}
}

func TestValidateListIgnoresStrayID(t *testing.T) {
	req := Request{UUID: "a1b2c3d4e5f6", Action: "list", ID: "stray"}
	cmd, err := req.Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cmd.ItemID != "" {
		t.Errorf("item id: got %q, want empty", cmd.ItemID)
	}
}

func TestRequestFromJSON(t *testing.T) {
	raw := `{"UUID":"a1b2c3d4e5f6","ACTION":"set","ID":"X1","DATA":{"nombre":"Foo","n":7}}`
	var req Request
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	cmd, err := req.Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cmd.Action != ActionSet {
		t.Errorf("action: got %q, want %q", cmd.Action, ActionSet)
	}
	if cmd.Data["nombre"] != "Foo" {
		t.Errorf("data nombre: got %v, want Foo", cmd.Data["nombre"])
	}
}
