// Package simulator models the boundary to the external game
// simulator: authoritative state_snapshot inbound, order_forward
// outbound. The match session manager never talks to a simulator
// process directly; it depends on this package's Client interface,
// whose calls are always context-scoped with their own timeout, never
// the caller's.
package simulator

import (
	"context"
	"time"

	"github.com/jediswimmer/ironcurtain/internal/arenaerr"
	"github.com/jediswimmer/ironcurtain/internal/domain"
)

// Client is the per-match handle to a provisioned simulator instance.
// Every method is a request/response IPC call bounded by the caller's
// context; a caller that wants the default 10s per-call timeout passes
// a context built with that deadline.
type Client interface {
	// Provision starts (or attaches to) the simulator instance backing
	// matchID and returns once it is ready to accept orders and emit
	// snapshots.
	Provision(ctx context.Context, matchID, mapName string, settings map[string]any) error

	// ForwardOrders sends admitted orders, tagged by owning agent, to
	// the simulator for the next tick it processes.
	ForwardOrders(ctx context.Context, matchID string, byAgent map[string][]domain.Order) error

	// Snapshots returns the channel of authoritative state snapshots
	// the simulator emits for matchID, one per tick, in tick order.
	// The channel closes when the simulator instance is torn down.
	Snapshots(matchID string) (<-chan domain.StateSnapshot, error)

	// Terminate tears down the simulator instance for matchID.
	Terminate(ctx context.Context, matchID string) error
}

// CallWithTimeout wraps ctx with the per-IPC-call deadline (default
// 10s) and runs fn, converting a context deadline into arenaerr's
// SimulatorFault kind so callers can escalate the session to error
// uniformly regardless of which call timed out.
func CallWithTimeout(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn(cctx) }()

	select {
	case err := <-done:
		return err
	case <-cctx.Done():
		return arenaerr.New(arenaerr.KindSimulatorFault, "simulator call timed out after %s", timeout)
	}
}
