// Package agent models the external identity collaborator: an opaque
// identifier, display name, persistent rating, and status flag the
// core treats as a read-only record.
package agent

import "context"

// Status is the agent's activity flag.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

// Agent is the read-only identity record the core consumes.
type Agent struct {
	ID          string
	DisplayName string
	Rating      int
	Status      Status
}

// Registry looks up agents by id. It is a read-only view onto an
// external collaborator: the core never writes through it.
type Registry interface {
	Lookup(ctx context.Context, agentID string) (Agent, error)
}
