package simulator

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/jediswimmer/ironcurtain/internal/domain"
)

// instance is the per-match simulator handle this registry tracks: the
// outbound channel of snapshots it emits and whatever transport would,
// in a full deployment, carry ForwardOrders to the actual simulator
// process. Swapping this registry for a gRPC- or socket-backed Client
// does not touch any caller.
type instance struct {
	snapshots chan domain.StateSnapshot
	forward   chan<- forwardedBatch
}

type forwardedBatch struct {
	matchID string
	byAgent map[string][]domain.Order
}

// Registry is an in-process Client implementation: it tracks one
// instance per match and exposes the channel the match session manager
// consumes for tick fan-out, plus a Publish hook a real simulator
// adapter (or a test) uses to push snapshots in. It is the seam this
// service owns; a production deployment runs a separate adapter that
// bridges an actual simulator process's wire protocol onto this same
// Client interface.
type Registry struct {
	mu        sync.Mutex
	instances map[string]*instance
	log       *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{instances: make(map[string]*instance), log: log}
}

func (r *Registry) Provision(ctx context.Context, matchID, mapName string, settings map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.instances[matchID]; exists {
		return nil
	}
	r.instances[matchID] = &instance{
		snapshots: make(chan domain.StateSnapshot, 4),
	}
	r.log.Info("simulator provisioned", zap.String("match_id", matchID), zap.String("map", mapName))
	return nil
}

// ForwardOrders hands admitted orders to the simulator instance for
// matchID. The registry itself does not interpret them; a real
// deployment's adapter goroutine (not modeled here) would drain a
// forwarding channel and relay onto the simulator's own wire format.
func (r *Registry) ForwardOrders(ctx context.Context, matchID string, byAgent map[string][]domain.Order) error {
	r.mu.Lock()
	inst, ok := r.instances[matchID]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("simulator: no instance for match %s", matchID)
	}
	if inst.forward == nil {
		return nil
	}
	select {
	case inst.forward <- forwardedBatch{matchID: matchID, byAgent: byAgent}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Registry) Snapshots(matchID string) (<-chan domain.StateSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inst, ok := r.instances[matchID]
	if !ok {
		return nil, fmt.Errorf("simulator: no instance for match %s", matchID)
	}
	return inst.snapshots, nil
}

// Publish pushes one authoritative snapshot into matchID's stream,
// dropping it if the consumer is behind: snapshots supersede one
// another, so a stale one is not worth blocking on.
func (r *Registry) Publish(matchID string, snap domain.StateSnapshot) {
	r.mu.Lock()
	inst, ok := r.instances[matchID]
	r.mu.Unlock()
	if !ok {
		return
	}
	select {
	case inst.snapshots <- snap:
	default:
		r.log.Warn("dropping simulator snapshot, consumer behind", zap.String("match_id", matchID), zap.Uint64("tick", snap.Tick))
	}
}

func (r *Registry) Terminate(ctx context.Context, matchID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	inst, ok := r.instances[matchID]
	if !ok {
		return nil
	}
	close(inst.snapshots)
	delete(r.instances, matchID)
	return nil
}
