package client

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/nerrad567/docstore-core/internal/protocol"
	"github.com/nerrad567/docstore-core/internal/wire"
)

// maxFrameBytes bounds responses the client tools will accept.
const maxFrameBytes = 1 << 20

// dialTimeout bounds connection establishment and the one-shot exchange.
const dialTimeout = 10 * time.Second

// Do performs one request/response exchange: dial, send, receive, close.
func Do(addr string, req protocol.Request) (protocol.Response, error) {
	var resp protocol.Response

	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return resp, fmt.Errorf("connecting to %s: %w", addr, err)
	}
	defer conn.Close() //nolint:errcheck // Read side already drained

	_ = conn.SetDeadline(time.Now().Add(dialTimeout)) //nolint:errcheck // Best-effort deadline

	codec := wire.NewCodec(conn, maxFrameBytes)
	if err := codec.Send(req); err != nil {
		return resp, err
	}
	if err := codec.Receive(&resp); err != nil {
		return resp, fmt.Errorf("reading response: %w", err)
	}
	return resp, nil
}

// Normalize prepares a raw request map for sending, mirroring what the
// server will accept:
//
//   - defaults a missing UUID to the local identity, then checks shape
//   - lowercases and checks ACTION (subscribe is not a one-shot action)
//   - for set without DATA, folds every non-control field into DATA so
//     flat input files work
//   - resolves the item id for get/set from ID or DATA.id/DATA.ID
//   - drops a stray ID from list
func Normalize(raw map[string]any) (protocol.Request, error) {
	var req protocol.Request

	identity := ""
	if v, ok := raw["UUID"].(string); ok {
		identity = protocol.NormaliseIdentity(v)
	}
	if identity == "" {
		identity = LocalIdentity()
	}
	if !protocol.ValidIdentity(identity) {
		return req, fmt.Errorf("invalid UUID %q: must be 12 lowercase hex characters", identity)
	}
	req.UUID = identity

	action, _ := raw["ACTION"].(string)
	action = strings.ToLower(strings.TrimSpace(action))
	switch protocol.Action(action) {
	case protocol.ActionGet, protocol.ActionList, protocol.ActionSet:
	default:
		return req, fmt.Errorf("ACTION must be get, list, or set (got %q)", action)
	}
	req.Action = action

	if v, ok := raw["ID"].(string); ok {
		req.ID = strings.TrimSpace(v)
	}

	data, hasData := raw["DATA"].(map[string]any)

	if action == string(protocol.ActionSet) {
		if !hasData {
			// Flat input file: everything except the control fields is
			// the payload.
			data = make(map[string]any)
			for k, v := range raw {
				switch k {
				case "UUID", "ACTION", "ID", "DATA":
					continue
				}
				data[k] = v
			}
		}
		req.Data = data
	} else if hasData {
		req.Data = data
	}

	switch protocol.Action(action) {
	case protocol.ActionGet, protocol.ActionSet:
		if req.ID == "" {
			if id := idString(data["id"]); id != "" {
				req.ID = id
			} else {
				req.ID = idString(data["ID"])
			}
		}
		if req.ID == "" {
			return req, fmt.Errorf("missing ID for ACTION %q", action)
		}
	case protocol.ActionList:
		req.ID = ""
	}

	return req, nil
}

// idString converts a nested id value to its string form, matching the
// server's resolution rules: strings are trimmed, numbers stringified,
// everything else unusable.
func idString(v any) string {
	switch id := v.(type) {
	case string:
		return strings.TrimSpace(id)
	case float64:
		if id == 0 {
			return ""
		}
		return strconv.FormatFloat(id, 'f', -1, 64)
	}
	return ""
}
