package wire

import (
	"encoding/json"
	"fmt"
)

// DecodeInbound parses a raw agent frame and returns the typed body
// alongside its discriminant. Unknown types are a ClientProtocol-kind
// error at the caller's discretion (see internal/transport).
func DecodeInbound(raw []byte) (kind string, body interface{}, err error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return "", nil, fmt.Errorf("decode frame: %w", err)
	}

	switch probe.Type {
	case "identify":
		var m Identify
		if err := json.Unmarshal(raw, &m); err != nil {
			return probe.Type, nil, err
		}
		return probe.Type, m, nil
	case "orders":
		var m OrdersIn
		if err := json.Unmarshal(raw, &m); err != nil {
			return probe.Type, nil, err
		}
		return probe.Type, m, nil
	case "get_state":
		var m GetState
		if err := json.Unmarshal(raw, &m); err != nil {
			return probe.Type, nil, err
		}
		return probe.Type, m, nil
	case "chat":
		var m ChatIn
		if err := json.Unmarshal(raw, &m); err != nil {
			return probe.Type, nil, err
		}
		return probe.Type, m, nil
	case "surrender":
		return probe.Type, Surrender{}, nil
	default:
		return probe.Type, nil, fmt.Errorf("unknown inbound frame type %q", probe.Type)
	}
}

// EncodeOutbound marshals a typed outbound body with its "type"
// discriminant merged in, so a receiver can decode with one
// json.Unmarshal using the corresponding struct plus Type string.
func EncodeOutbound(kind string, body interface{}) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode %s body: %w", kind, err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, fmt.Errorf("flatten %s body: %w", kind, err)
	}
	typeJSON, _ := json.Marshal(kind)
	fields["type"] = typeJSON
	return json.Marshal(fields)
}
