package fog

import (
	"sync"

	"github.com/jediswimmer/ironcurtain/internal/domain"
)

// Store is the per-agent frozen-actor memory: a relation "agent
// remembers entity", not ownership. It never keeps an entity alive in
// any storage sense, only ids plus last-observed tuples.
//
// Writes come from the session's intake task; Store carries its own
// mutex rather than relying on single-writer discipline upstream.
type Store struct {
	mu      sync.Mutex
	records map[domain.EntityID]domain.FrozenActor
}

func NewStore() *Store {
	return &Store{records: make(map[domain.EntityID]domain.FrozenActor)}
}

// Snapshot returns a stable copy of the current frozen records, safe to
// hand to the filtered-view builder without holding the lock.
func (s *Store) Snapshot() map[domain.EntityID]domain.FrozenActor {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.EntityID]domain.FrozenActor, len(s.records))
	for k, v := range s.records {
		out[k] = v
	}
	return out
}

// Upsert writes or overwrites the frozen record for an entity currently
// visible to the owning agent.
func (s *Store) Upsert(rec domain.FrozenActor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec
}

// Remove deletes the frozen record for id, used only when its
// last-known cell is currently visible and the entity is confirmed
// gone.
func (s *Store) Remove(id domain.EntityID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
}

// Len reports the number of frozen records currently held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
