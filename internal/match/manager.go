package match

import (
	"context"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/jediswimmer/ironcurtain/internal/agent"
	"github.com/jediswimmer/ironcurtain/internal/config"
	"github.com/jediswimmer/ironcurtain/internal/domain"
	"github.com/jediswimmer/ironcurtain/internal/fog"
	"github.com/jediswimmer/ironcurtain/internal/orders"
	"github.com/jediswimmer/ironcurtain/internal/persist"
	"github.com/jediswimmer/ironcurtain/internal/queue"
	"github.com/jediswimmer/ironcurtain/internal/rating"
	"github.com/jediswimmer/ironcurtain/internal/simulator"
	"github.com/jediswimmer/ironcurtain/internal/telemetry"
	"github.com/jediswimmer/ironcurtain/internal/transport"
	"github.com/jediswimmer/ironcurtain/internal/wire"
)

// Manager owns every live Session. It is the long-lived, reference-held
// root object, constructed once in cmd/arenad and passed by reference
// into the matchmaker's pairing handler and the transport server.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	cfg       *config.Config
	log       *zap.Logger
	metrics   telemetry.Metrics
	sim       simulator.Client
	enforcer  *fog.Enforcer
	validator *orders.Validator
	audit     *orders.AuditLog
	ratingEng *rating.Engine
	publisher persist.Publisher
	registry  agent.Registry
	verifier  *agent.TokenVerifier
}

func NewManager(
	cfg *config.Config,
	log *zap.Logger,
	metrics telemetry.Metrics,
	sim simulator.Client,
	audit *orders.AuditLog,
	publisher persist.Publisher,
	registry agent.Registry,
	verifier *agent.TokenVerifier,
) *Manager {
	return &Manager{
		sessions:  make(map[string]*Session),
		cfg:       cfg,
		log:       log,
		metrics:   metrics,
		sim:       sim,
		enforcer:  fog.NewEnforcer(),
		validator: orders.NewValidator(),
		audit:     audit,
		ratingEng: rating.NewEngine(),
		publisher: publisher,
		registry:  registry,
		verifier:  verifier,
	}
}

// OnPairing is a queue.PairingHandler: it creates and starts a new
// Session for a matchmaker-produced pairing. It must not block for
// long, so provisioning and the watchdog run on their own goroutine.
func (m *Manager) OnPairing(p queue.Pairing) {
	id, err := uuid.NewV4()
	if err != nil {
		m.log.Error("failed to allocate match id", zap.Error(err))
		return
	}
	matchID := id.String()

	settings := m.cfg.Modes[p.Mode]

	preA := rating.Profile{AgentID: p.A.AgentID, GlobalRating: p.A.Rating, GlobalPeak: p.A.Rating, ModeRating: p.A.Rating, ModePeak: p.A.Rating}
	preB := rating.Profile{AgentID: p.B.AgentID, GlobalRating: p.B.Rating, GlobalPeak: p.B.Rating, ModeRating: p.B.Rating, ModePeak: p.B.Rating}

	sess := &Session{
		ID:         matchID,
		Mode:       p.Mode,
		Map:        p.Map,
		Settings:   settings,
		CreatedAt:  time.Now(),
		status:     StatusPending,
		spectators: make(map[*transport.Conn]struct{}),
	}
	sess.seats[SideA] = newSeat(p.A.AgentID, p.A.DisplayName, p.FactionA, preA, settings.APMProfile)
	sess.seats[SideB] = newSeat(p.B.AgentID, p.B.DisplayName, p.FactionB, preB, settings.APMProfile)

	m.mu.Lock()
	m.sessions[matchID] = sess
	live := len(m.sessions)
	m.mu.Unlock()
	m.metrics.CustomGauge("live_sessions", nil, float64(live))

	go m.runSession(sess)
}

// runSession provisions the simulator and drives the session through
// its connect-deadline and tick-fanout watchdogs until termination.
func (m *Manager) runSession(sess *Session) {
	ctx, cancel := context.WithCancel(context.Background())
	sess.mu.Lock()
	sess.cancelWatchdog = cancel
	sess.mu.Unlock()

	settingsMap := map[string]any{
		"apm_profile":   string(sess.Settings.APMProfile),
		"game_speed":    string(sess.Settings.GameSpeed),
		"tech_level":    string(sess.Settings.TechLevel),
		"starting_cash": sess.Settings.StartingCash,
		"fog_of_war":    sess.Settings.FogOfWar,
		"shroud":        sess.Settings.Shroud,
	}

	err := simulator.CallWithTimeout(ctx, m.cfg.Session.SimulatorIPCTimeout, func(cctx context.Context) error {
		return m.sim.Provision(cctx, sess.ID, sess.Map, settingsMap)
	})
	if err != nil {
		m.log.Error("simulator provision failed", zap.String("match_id", sess.ID), zap.Error(err))
		m.terminate(sess, StatusError, "simulator provision failed", "", false)
		return
	}

	sess.mu.Lock()
	if isTerminal(sess.status) {
		sess.mu.Unlock()
		return
	}
	sess.status = StatusConnecting
	sess.mu.Unlock()

	// Both agents may have identified while the simulator was still
	// provisioning; promote immediately rather than wait for a third
	// identify that will never come.
	m.maybeStart(sess)

	go m.watchConnectDeadline(ctx, sess)
	go m.pumpSnapshots(ctx, sess)
}

func (m *Manager) watchConnectDeadline(ctx context.Context, sess *Session) {
	deadline := m.cfg.Session.ConnectDeadline
	if deadline <= 0 {
		return
	}
	timer := time.NewTimer(deadline)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
		sess.mu.Lock()
		stillConnecting := sess.status == StatusConnecting
		sess.mu.Unlock()
		if stillConnecting {
			m.terminate(sess, StatusCancelled, "agent connect timeout", "", false)
		}
	}
}

// pumpSnapshots is the session's authoritative-state intake task: one
// message in, one fan-out out.
func (m *Manager) pumpSnapshots(ctx context.Context, sess *Session) {
	snaps, err := m.sim.Snapshots(sess.ID)
	if err != nil {
		m.log.Error("no snapshot stream for match", zap.String("match_id", sess.ID), zap.Error(err))
		m.terminate(sess, StatusError, "simulator snapshot stream unavailable", "", false)
		return
	}

	gameTimeout := m.cfg.Session.GameTimeout
	var timeoutC <-chan time.Time
	if gameTimeout > 0 {
		timer := time.NewTimer(gameTimeout)
		defer timer.Stop()
		timeoutC = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-timeoutC:
			m.terminate(sess, StatusCompleted, "game_timeout", "", true)
			return
		case snap, ok := <-snaps:
			if !ok {
				return
			}
			m.fanOut(sess, snap)
		}
	}
}

// fanOut implements the tick fan-out: filter twice, send to each
// agent, broadcast to spectators. A send failure evicts only its
// recipient (handled inside transport.Conn.Send) and never blocks this
// loop.
func (m *Manager) fanOut(sess *Session, snap domain.StateSnapshot) {
	sess.mu.Lock()
	running := sess.status == StatusRunning
	seats := sess.seats
	spectators := make([]*transport.Conn, 0, len(sess.spectators))
	for c := range sess.spectators {
		spectators = append(spectators, c)
	}
	sess.mu.Unlock()

	if !running {
		return
	}

	for _, seat := range seats {
		if seat == nil || seat.conn.Load() == nil {
			continue
		}
		view, err := m.enforcer.Filter(snap, seat.AgentID, seat.fogStore)
		if err != nil {
			m.log.Error("fog filter failed", zap.String("match_id", sess.ID), zap.String("agent_id", seat.AgentID), zap.Error(err))
			m.terminate(sess, StatusError, "unknown agent in snapshot", "", false)
			return
		}
		sess.mu.Lock()
		seat.lastView = view
		sess.mu.Unlock()
		m.sendAgent(seat, "state_update", wire.StateUpdate{State: view})
	}

	if len(spectators) > 0 {
		specView := fog.Spectate(snap)
		payload, err := wire.EncodeOutbound("state_update", wire.SpectatorStateUpdate{State: specView})
		if err != nil {
			m.log.Error("encode spectator state failed", zap.Error(err))
			return
		}
		for _, c := range spectators {
			c.Send(payload)
		}
	}

	if m.publisher != nil {
		_ = m.publisher.PublishTick(context.Background(), persist.TickEvent{
			MatchID: sess.ID, Tick: snap.Tick, EventKind: "state_snapshot",
		})
	}
}

func (m *Manager) sendAgent(seat *Seat, kind string, body interface{}) {
	conn := seat.conn.Load()
	if conn == nil {
		return
	}
	payload, err := wire.EncodeOutbound(kind, body)
	if err != nil {
		m.log.Error("encode outbound frame failed", zap.String("kind", kind), zap.Error(err))
		return
	}
	conn.Send(payload)
}

// sessionByID is a small helper the transport Hub methods use.
func (m *Manager) sessionByID(matchID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[matchID]
	return sess, ok
}

// removeSession drops a terminated session after its grace window, so
// that late result queries made just before the window closes still
// succeed.
func (m *Manager) removeSession(matchID string) {
	m.mu.Lock()
	delete(m.sessions, matchID)
	live := len(m.sessions)
	m.mu.Unlock()
	m.metrics.CustomGauge("live_sessions", nil, float64(live))
}

// CancelPreMatch cancels every not-yet-running session agentID
// participates in, used when an agent withdraws after a pairing was
// already produced for its queue entry but before the match started.
// It reports whether any session was cancelled.
func (m *Manager) CancelPreMatch(agentID string) bool {
	m.mu.Lock()
	candidates := make([]*Session, 0, 1)
	for _, sess := range m.sessions {
		if _, _, ok := sess.seatFor(agentID); ok {
			candidates = append(candidates, sess)
		}
	}
	m.mu.Unlock()

	cancelled := false
	for _, sess := range candidates {
		sess.mu.Lock()
		preMatch := sess.status == StatusPending || sess.status == StatusConnecting
		sess.mu.Unlock()
		if preMatch {
			m.terminate(sess, StatusCancelled, "agent cancelled pre-match", "", false)
			cancelled = true
		}
	}
	return cancelled
}

// Status reports a session's current lifecycle status and terminal
// details, for a result-query endpoint the REST layer (out of core
// scope) can expose.
func (m *Manager) Status(matchID string) (status Status, winnerID, reason string, draw, found bool) {
	sess, ok := m.sessionByID(matchID)
	if !ok {
		return "", "", "", false, false
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.status, sess.winnerID, sess.terminationReason, sess.draw, true
}
