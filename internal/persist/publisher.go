// Package persist defines the persistence collaborator boundary: the
// core emits events here and never stores matches itself.
package persist

import "context"

// MatchEndedEvent is the per-match completion record written to
// durable storage.
type MatchEndedEvent struct {
	MatchID           string         `json:"match_id"`
	Mode              string         `json:"mode"`
	AgentA            string         `json:"agent_a"`
	AgentB            string         `json:"agent_b"`
	FactionA          string         `json:"faction_a"`
	FactionB          string         `json:"faction_b"`
	Map               string         `json:"map"`
	WinnerID          string         `json:"winner_id,omitempty"` // empty for a draw
	Draw              bool           `json:"draw"`
	DurationSeconds   float64        `json:"duration_seconds"`
	RatingDeltas      map[string]int `json:"rating_deltas,omitempty"`
	TerminationReason string         `json:"termination_reason"`
}

// TickEvent is an optional per-tick event record.
type TickEvent struct {
	MatchID    string         `json:"match_id"`
	Tick       uint64         `json:"tick"`
	EventKind  string         `json:"event_kind"`
	SubjectIDs []string       `json:"subject_ids,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// Publisher is the interface the Match Session Manager emits events
// through. Implementations are external collaborators: a Kafka
// producer for production, a no-op for tests.
type Publisher interface {
	PublishMatchEnded(ctx context.Context, ev MatchEndedEvent) error
	PublishTick(ctx context.Context, ev TickEvent) error
	Close() error
}
