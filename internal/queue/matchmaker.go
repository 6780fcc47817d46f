package queue

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/jediswimmer/ironcurtain/internal/arenaerr"
	"github.com/jediswimmer/ironcurtain/internal/config"
	"github.com/jediswimmer/ironcurtain/internal/telemetry"
	"go.uber.org/zap"
)

// PositionCache is the read-through cache the Matchmaker keeps queue
// positions in, so query(agent) works from any instance sharing one
// logical queue. A Redis-backed implementation lives in
// internal/queue/rediscache.go; nil is a valid no-op cache for tests
// and single-instance deployments.
type PositionCache interface {
	SetPosition(ctx context.Context, mode config.Mode, agentID string, position int, estimatedWait time.Duration)
	Remove(ctx context.Context, mode config.Mode, agentID string)
}

// TimeoutNotifier is invoked when an entry is promoted to cancellation
// by the queue-wide wait timeout, so the session layer can tell the
// agent why it left the queue.
type TimeoutNotifier func(agentID string, mode config.Mode)

// PairingHandler consumes a produced Pairing, handing it to the Match
// Session Manager. It is invoked from the pairing-pass goroutine, so it
// must not block for long.
type PairingHandler func(Pairing)

// Matchmaker is the skill-banded queue. Its queue state is mutated
// only from enqueue/cancel handlers and its own pairing-pass goroutine,
// serialized on one mutex.
type Matchmaker struct {
	mu     sync.Mutex
	queues map[config.Mode][]*Entry

	cfg       config.Matchmaker
	modes     map[config.Mode]config.ModeSettings
	logger    *zap.Logger
	metrics   telemetry.Metrics
	cache     PositionCache
	onPairing PairingHandler
	onTimeout TimeoutNotifier

	rng *rand.Rand
}

// NewMatchmaker constructs a Matchmaker and starts its periodic
// pairing pass as a background goroutine owned by the constructor,
// cancelled when ctx is done.
func NewMatchmaker(ctx context.Context, cfg config.Matchmaker, modes map[config.Mode]config.ModeSettings, logger *zap.Logger, metrics telemetry.Metrics, cache PositionCache, onPairing PairingHandler, onTimeout TimeoutNotifier) *Matchmaker {
	m := &Matchmaker{
		queues:    make(map[config.Mode][]*Entry),
		cfg:       cfg,
		modes:     modes,
		logger:    logger,
		metrics:   metrics,
		cache:     cache,
		onPairing: onPairing,
		onTimeout: onTimeout,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	interval := cfg.PairingInterval
	if interval <= 0 {
		interval = time.Second
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				m.runPairingPass(ctx, now)
			}
		}
	}()

	return m
}

// Enqueue adds a new entry. It fails with AlreadyQueued if the agent
// already holds an active entry in the same mode, and with
// MatchmakerFull if the mode's configured queue cap is reached.
func (m *Matchmaker) Enqueue(ctx context.Context, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.queues[e.Mode] {
		if existing.AgentID == e.AgentID {
			return arenaerr.ErrAlreadyQueued
		}
	}

	if settings, ok := m.modes[e.Mode]; ok && settings.MaxQueueDepth > 0 {
		if len(m.queues[e.Mode]) >= settings.MaxQueueDepth {
			return arenaerr.ErrMatchmakerFull
		}
	}

	if e.InitialRadius == 0 {
		e.InitialRadius = m.cfg.InitialRadius
	}
	if e.WideningStep == 0 {
		e.WideningStep = m.cfg.WideningStep
	}
	if e.WideningInterval == 0 {
		e.WideningInterval = m.cfg.WideningInterval
	}
	if e.MaxRadius == 0 {
		e.MaxRadius = m.cfg.MaxRadius
	}
	if e.EnqueuedAt.IsZero() {
		e.EnqueuedAt = time.Now()
	}

	m.queues[e.Mode] = append(m.queues[e.Mode], e)
	m.metrics.CustomGauge("matchmaker_queue_depth", map[string]string{"mode": string(e.Mode)}, float64(len(m.queues[e.Mode])))
	if m.cache != nil {
		m.cache.SetPosition(ctx, e.Mode, e.AgentID, len(m.queues[e.Mode])-1, m.estimateWait(e.Mode, len(m.queues[e.Mode])-1))
	}
	return nil
}

// Cancel removes an agent's entry from mode's queue. It is idempotent:
// calling it on an absent entry succeeds silently.
func (m *Matchmaker) Cancel(ctx context.Context, agentID string, mode config.Mode) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.queues[mode]
	for i, e := range entries {
		if e.AgentID == agentID {
			m.queues[mode] = append(entries[:i], entries[i+1:]...)
			if m.cache != nil {
				m.cache.Remove(ctx, mode, agentID)
			}
			return
		}
	}
}

// Query returns an agent's zero-based position and a rough wait
// estimate, or found=false if the agent has no active entry.
func (m *Matchmaker) Query(agentID string, mode config.Mode) (position int, estimatedWait time.Duration, found bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, e := range m.queues[mode] {
		if e.AgentID == agentID {
			return i, m.estimateWait(mode, i), true
		}
	}
	return 0, 0, false
}

// Depth reports the current number of waiting entries in mode's queue,
// for the ops /queue/{mode} endpoint.
func (m *Matchmaker) Depth(mode config.Mode) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queues[mode])
}

// estimateWait is a rough linear estimate based on queue depth; callers
// must hold m.mu.
func (m *Matchmaker) estimateWait(mode config.Mode, position int) time.Duration {
	interval := m.cfg.PairingInterval
	if interval <= 0 {
		interval = time.Second
	}
	return time.Duration(position) * interval * 2
}

// runPairingPass groups entries by mode and runs the pairing policy
// against each, best-effort: entries with no admissible partner this
// pass remain queued.
func (m *Matchmaker) runPairingPass(ctx context.Context, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for mode, entries := range m.queues {
		remaining := m.expireTimeouts(ctx, mode, entries, now)
		remaining, pairings := scanForPairings(remaining, now)
		m.queues[mode] = remaining

		for _, p := range pairings {
			if m.cache != nil {
				m.cache.Remove(ctx, mode, p.A.AgentID)
				m.cache.Remove(ctx, mode, p.B.AgentID)
			}
			p.Map = chooseMap(m.mapPool(mode), m.rng)
			if m.onPairing != nil {
				m.onPairing(p)
			}
			m.metrics.CustomCounter("matchmaker_pairings", map[string]string{"mode": string(mode)}, 1)
			if m.logger != nil {
				m.logger.Info("pairing produced",
					zap.String("mode", string(mode)),
					zap.String("agent_a", p.A.AgentID),
					zap.String("agent_b", p.B.AgentID),
					zap.String("map", p.Map),
				)
			}
		}

		if m.cache != nil {
			for i, e := range remaining {
				m.cache.SetPosition(ctx, mode, e.AgentID, i, m.estimateWait(mode, i))
			}
		}
	}
}

// expireTimeouts removes and notifies entries that have exceeded the
// queue-wide wait timeout, returning the rest.
func (m *Matchmaker) expireTimeouts(ctx context.Context, mode config.Mode, entries []*Entry, now time.Time) []*Entry {
	timeout := m.cfg.QueueTimeout
	if timeout <= 0 {
		return entries
	}
	kept := entries[:0:0]
	for _, e := range entries {
		if e.Waited(now) >= timeout {
			if m.cache != nil {
				m.cache.Remove(ctx, mode, e.AgentID)
			}
			if m.onTimeout != nil {
				m.onTimeout(e.AgentID, mode)
			}
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

func (m *Matchmaker) mapPool(mode config.Mode) []string {
	if settings, ok := m.modes[mode]; ok {
		return settings.MapPool
	}
	return nil
}

// scanForPairings implements the pairing policy: for the oldest
// unpaired entry, scan the rest in order and accept the first
// admissible partner, preferring a deterministically-resolvable
// faction combination among equally-admissible candidates. It returns
// the entries left unpaired (order preserved) and the pairings made.
func scanForPairings(entries []*Entry, now time.Time) ([]*Entry, []Pairing) {
	paired := make(map[int]bool, len(entries))
	var pairings []Pairing

	for i, a := range entries {
		if paired[i] {
			continue
		}
		bestJ := -1
		bestScore := 2
		for j := i + 1; j < len(entries); j++ {
			if paired[j] {
				continue
			}
			b := entries[j]
			radius := a.Radius(now)
			if br := b.Radius(now); br > radius {
				radius = br
			}
			if abs(a.Rating-b.Rating) > radius {
				continue
			}
			score := factionResolvable(a.FactionPreference, b.FactionPreference)
			if score < bestScore {
				bestScore = score
				bestJ = j
				if score == 0 {
					break
				}
			}
		}
		if bestJ == -1 {
			continue
		}
		b := entries[bestJ]
		factionA, factionB := resolveFactions(a, b)
		pairings = append(pairings, Pairing{
			Mode: a.Mode, A: a, B: b, FactionA: factionA, FactionB: factionB,
		})
		paired[i] = true
		paired[bestJ] = true
	}

	remaining := make([]*Entry, 0, len(entries)-2*len(pairings))
	for i, e := range entries {
		if !paired[i] {
			remaining = append(remaining, e)
		}
	}
	return remaining, pairings
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
