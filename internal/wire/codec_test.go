package wire

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeInbound_Identify(t *testing.T) {
	kind, body, err := DecodeInbound([]byte(`{"type":"identify","agent_id":"a1","api_key":"k"}`))
	require.NoError(t, err)
	assert.Equal(t, "identify", kind)
	ident, ok := body.(Identify)
	require.True(t, ok)
	assert.Equal(t, "a1", ident.AgentID)
	assert.Equal(t, "k", ident.APIKey)
}

func TestDecodeInbound_Orders(t *testing.T) {
	raw := []byte(`{"type":"orders","agent_id":"a1","orders":[{"kind":"move","subject":["u1","u2"],"target":{"cell":{"x":3,"y":4}},"queued":true}]}`)
	kind, body, err := DecodeInbound(raw)
	require.NoError(t, err)
	assert.Equal(t, "orders", kind)
	msg, ok := body.(OrdersIn)
	require.True(t, ok)
	require.Len(t, msg.Orders, 1)

	order := msg.Orders[0].ToDomainOrder()
	assert.Equal(t, "move", string(order.Kind))
	require.Len(t, order.Subject, 2)
	require.NotNil(t, order.Target.Cell)
	assert.Equal(t, 3, order.Target.Cell.X)
	assert.True(t, order.Queued)
}

func TestDecodeInbound_Surrender(t *testing.T) {
	kind, body, err := DecodeInbound([]byte(`{"type":"surrender"}`))
	require.NoError(t, err)
	assert.Equal(t, "surrender", kind)
	_, ok := body.(Surrender)
	assert.True(t, ok)
}

func TestDecodeInbound_UnknownType(t *testing.T) {
	_, _, err := DecodeInbound([]byte(`{"type":"teleport_home"}`))
	assert.Error(t, err)
}

func TestDecodeInbound_MalformedJSON(t *testing.T) {
	_, _, err := DecodeInbound([]byte(`{"type":`))
	assert.Error(t, err)
}

func TestEncodeOutbound_MergesTypeDiscriminant(t *testing.T) {
	payload, err := EncodeOutbound("match_cancelled", MatchCancelled{Reason: "agent connect timeout"})
	require.NoError(t, err)

	var decoded struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	}
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "match_cancelled", decoded.Type)
	assert.Equal(t, "agent connect timeout", decoded.Reason)
}

func TestEncodeOutbound_GameEndOmitsAbsentEloChange(t *testing.T) {
	payload, err := EncodeOutbound("game_end", GameEnd{Result: "draw", Reason: "game_timeout", DurationSecs: 1800})
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(payload, &fields))
	_, present := fields["elo_change"]
	assert.False(t, present)
	_, present = fields["winner_id"]
	assert.False(t, present)
}
