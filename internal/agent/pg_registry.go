package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRegistry is a pgx-backed read-only implementation of
// Registry, reading the agent's identity record from a table the
// identity collaborator owns. The core never writes to it.
type PostgresRegistry struct {
	pool *pgxpool.Pool
}

// NewPostgresRegistry connects to dsn and returns a Registry. The pool
// is shared across lookups; callers are responsible for Close.
func NewPostgresRegistry(ctx context.Context, dsn string) (*PostgresRegistry, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect agent registry: %w", err)
	}
	return &PostgresRegistry{pool: pool}, nil
}

var ErrAgentNotFound = errors.New("agent: not found")

// Lookup fetches the agent's display name, persistent rating, and
// status by id.
func (r *PostgresRegistry) Lookup(ctx context.Context, agentID string) (Agent, error) {
	const query = `SELECT display_name, rating, status FROM agents WHERE agent_id = $1`

	var a Agent
	a.ID = agentID
	row := r.pool.QueryRow(ctx, query, agentID)
	if err := row.Scan(&a.DisplayName, &a.Rating, &a.Status); err != nil {
		return Agent{}, fmt.Errorf("%w: %s", ErrAgentNotFound, agentID)
	}
	return a, nil
}

func (r *PostgresRegistry) Close() {
	r.pool.Close()
}
