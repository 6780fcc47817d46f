// Package wire defines the agent and spectator wire protocol: one
// frame, one JSON object, discriminated by a "type" field, where a
// symbol table maps a wire discriminant to a concrete Go type.
package wire

import "github.com/jediswimmer/ironcurtain/internal/domain"

// Frame is the envelope every inbound and outbound message shares.
type Frame struct {
	Type string `json:"type"`
}

// Inbound message bodies.

type Identify struct {
	AgentID string `json:"agent_id"`
	APIKey  string `json:"api_key"`
}

type WireOrder struct {
	Kind    string     `json:"kind"`
	Subject []string   `json:"subject"`
	Target  WireTarget `json:"target"`
	Queued  bool       `json:"queued,omitempty"`
	Count   int        `json:"count,omitempty"`
}

type WireTarget struct {
	Cell     *WireCell `json:"cell,omitempty"`
	EntityID string    `json:"entity_id,omitempty"`
	TypeName string    `json:"type_name,omitempty"`
}

type WireCell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type OrdersIn struct {
	AgentID string      `json:"agent_id"`
	Orders  []WireOrder `json:"orders"`
}

type GetState struct {
	AgentID string `json:"agent_id"`
}

type ChatIn struct {
	Message string `json:"message"`
}

type Surrender struct{}

// Outbound message bodies.

type Connected struct {
	MatchID  string         `json:"match_id"`
	Map      string         `json:"map"`
	Faction  string         `json:"faction"`
	Opponent string         `json:"opponent"`
	Settings map[string]any `json:"settings"`
}

type GameStart struct {
	MatchID  string         `json:"match_id"`
	Map      string         `json:"map"`
	Settings map[string]any `json:"settings"`
}

type StateUpdate struct {
	State domain.FilteredView `json:"state"`
}

type StateResponse struct {
	State domain.FilteredView `json:"state"`
}

type OrderViolations struct {
	Violations []string `json:"violations"`
}

type GameEnd struct {
	Result       string  `json:"result"` // "victory" | "defeat" | "draw"
	WinnerID     string  `json:"winner_id,omitempty"`
	Reason       string  `json:"reason"`
	DurationSecs float64 `json:"duration_secs"`
	EloChange    *int    `json:"elo_change,omitempty"`
}

type MatchCancelled struct {
	Reason string `json:"reason"`
}

type ChatOut struct {
	From    string `json:"from"`
	Message string `json:"message"`
}

// SpectatorStateUpdate carries the unfiltered snapshot the spectator
// protocol's state_update frame sends.
type SpectatorStateUpdate struct {
	State domain.SpectatorView `json:"state"`
}

type Commentary struct {
	Text string `json:"text"`
}

// ToDomainOrder converts a wire order into the internal domain.Order
// representation the validator operates on.
func (w WireOrder) ToDomainOrder() domain.Order {
	subjects := make([]domain.EntityID, len(w.Subject))
	for i, s := range w.Subject {
		subjects[i] = domain.EntityID(s)
	}
	target := domain.Target{TypeName: w.Target.TypeName, EntityID: domain.EntityID(w.Target.EntityID)}
	if w.Target.Cell != nil {
		target.Cell = &domain.Cell{X: w.Target.Cell.X, Y: w.Target.Cell.Y}
	}
	return domain.Order{
		Kind:    domain.OrderKind(w.Kind),
		Subject: subjects,
		Target:  target,
		Queued:  w.Queued,
		Count:   w.Count,
	}
}
