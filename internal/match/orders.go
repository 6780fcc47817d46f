package match

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jediswimmer/ironcurtain/internal/arenaerr"
	"github.com/jediswimmer/ironcurtain/internal/domain"
	"github.com/jediswimmer/ironcurtain/internal/orders"
	"github.com/jediswimmer/ironcurtain/internal/persist"
	"github.com/jediswimmer/ironcurtain/internal/simulator"
	"github.com/jediswimmer/ironcurtain/internal/transport"
	"github.com/jediswimmer/ironcurtain/internal/wire"
)

// handleOrders is the per-agent inbound order pipeline. The session's
// own mutex plus each seat's private Tracker give the guarantee that
// two successive batches from the same agent never race on the APM
// tracker: the caller (transport's ReadLoop) already serializes one
// agent's frames, so this never runs concurrently with itself for a
// given seat.
func (m *Manager) handleOrders(sess *Session, agentID string, msg wire.OrdersIn) {
	sess.mu.Lock()
	if sess.status != StatusRunning {
		sess.mu.Unlock()
		return
	}
	seat, _, ok := sess.seatFor(agentID)
	if !ok {
		sess.mu.Unlock()
		return
	}
	view := seat.lastView
	tracker := seat.tracker
	sess.mu.Unlock()

	batch := domain.OrderBatch{AgentID: agentID, Orders: make([]domain.Order, len(msg.Orders))}
	for i, o := range msg.Orders {
		batch.Orders[i] = o.ToDomainOrder()
	}

	limits := orders.Profiles[sess.Settings.APMProfile]
	result := m.validator.Validate(batch, view, limits, tracker, time.Now())

	if len(result.Violations) > 0 {
		reasons := make([]string, len(result.Violations))
		highSeverityCount := 0
		for i, v := range result.Violations {
			reasons[i] = v.Reason
			if v.HighSeverity {
				highSeverityCount++
				m.audit.Record(orders.SuspiciousEvent{
					AgentID: agentID, MatchID: sess.ID, Reason: v.Reason, Tick: view.Tick, Timestamp: time.Now(),
				})
			}
		}
		m.sendAgent(seat, "order_violations", wire.OrderViolations{Violations: reasons})

		if highSeverityCount > 0 {
			sess.mu.Lock()
			seat.highSeverity += highSeverityCount
			exceeded := seat.highSeverity >= m.cfg.Session.MaxHighSeverityCount
			opponent := sess.other(sideOf(sess, agentID))
			sess.mu.Unlock()

			if exceeded {
				winnerID := ""
				if opponent != nil {
					winnerID = opponent.AgentID
				}
				m.terminate(sess, StatusCompleted, "order_violation_forfeit", winnerID, false)
				return
			}
		}
	}

	if len(result.Admitted) == 0 {
		return
	}

	// One monotonically increasing sequence number per agent per
	// session covers every forwarded batch.
	sess.mu.Lock()
	seat.orderSeq++
	seq := seat.orderSeq
	sess.mu.Unlock()

	ctx := context.Background()
	err := simulator.CallWithTimeout(ctx, m.cfg.Session.SimulatorIPCTimeout, func(cctx context.Context) error {
		return m.sim.ForwardOrders(cctx, sess.ID, map[string][]domain.Order{agentID: result.Admitted})
	})
	if err != nil {
		m.log.Error("forward orders failed", zap.String("match_id", sess.ID), zap.String("agent_id", agentID), zap.Error(err))
		if arenaerr.Is(err, arenaerr.KindSimulatorFault) {
			m.terminate(sess, StatusError, "simulator fault", "", false)
		}
		return
	}

	if m.publisher != nil {
		subjects := make([]string, 0, len(result.Admitted))
		for _, o := range result.Admitted {
			for _, id := range o.Subject {
				subjects = append(subjects, string(id))
			}
		}
		_ = m.publisher.PublishTick(context.Background(), persist.TickEvent{
			MatchID: sess.ID, Tick: view.Tick, EventKind: "orders_forwarded",
			SubjectIDs: subjects,
			Payload:    map[string]any{"agent_id": agentID, "seq": seq, "count": len(result.Admitted)},
		})
	}
}

// handleGetState answers an agent's optional pull with its most
// recently fanned-out filtered view.
func (m *Manager) handleGetState(sess *Session, agentID string) {
	sess.mu.Lock()
	seat, _, ok := sess.seatFor(agentID)
	if !ok {
		sess.mu.Unlock()
		return
	}
	view := seat.lastView
	sess.mu.Unlock()

	m.sendAgent(seat, "state_response", wire.StateResponse{State: view})
}

// handleChat fans an inbound chat message, length-capped, verbatim to
// both agents and all spectators. Chat bypasses APM.
func (m *Manager) handleChat(sess *Session, agentID, message string) {
	limit := m.cfg.Session.MaxChatLength
	if limit > 0 && len(message) > limit {
		message = message[:limit]
	}

	sess.mu.Lock()
	seats := sess.seats
	spectators := make([]*transport.Conn, 0, len(sess.spectators))
	for c := range sess.spectators {
		spectators = append(spectators, c)
	}
	sess.mu.Unlock()

	payload, err := wire.EncodeOutbound("chat", wire.ChatOut{From: agentID, Message: message})
	if err != nil {
		m.log.Error("encode chat frame failed", zap.Error(err))
		return
	}

	for _, seat := range seats {
		if seat == nil {
			continue
		}
		if conn := seat.conn.Load(); conn != nil {
			conn.Send(payload)
		}
	}
	for _, c := range spectators {
		c.Send(payload)
	}
}

// handleSurrender ends the match immediately with the surrendering
// agent's opponent as winner.
func (m *Manager) handleSurrender(sess *Session, agentID string) {
	sess.mu.Lock()
	if sess.status != StatusRunning {
		sess.mu.Unlock()
		return
	}
	opponent := sess.other(sideOf(sess, agentID))
	sess.mu.Unlock()

	winnerID := ""
	if opponent != nil {
		winnerID = opponent.AgentID
	}
	m.terminate(sess, StatusCompleted, "surrender", winnerID, false)
}

// terminate drives the five-step termination sequence: finalize
// status, compute rating (unless error/cancelled), emit the
// persistence event, send an ordered farewell to every recipient, and
// schedule self-removal after the grace window. It is idempotent: a
// session already in a terminal status is left alone.
func (m *Manager) terminate(sess *Session, status Status, reason, winnerID string, draw bool) {
	sess.mu.Lock()
	if isTerminal(sess.status) {
		sess.mu.Unlock()
		return
	}
	sess.status = status
	sess.terminationReason = reason
	sess.winnerID = winnerID
	sess.draw = draw
	sess.finishedAt = time.Now()
	if sess.cancelWatchdog != nil {
		sess.cancelWatchdog()
	}
	seats := sess.seats
	spectators := make([]*transport.Conn, 0, len(sess.spectators))
	for c := range sess.spectators {
		spectators = append(spectators, c)
	}
	startedAt := sess.startedAt
	if startedAt.IsZero() {
		startedAt = sess.CreatedAt
	}
	duration := sess.finishedAt.Sub(startedAt).Seconds()
	sess.mu.Unlock()

	deltas := map[string]int{}
	if status == StatusCompleted && sess.Settings.Ranked && seats[SideA] != nil && seats[SideB] != nil {
		winnerSeat, loserSeat := seats[SideA], seats[SideB]
		if !draw && winnerID == seats[SideB].AgentID {
			winnerSeat, loserSeat = seats[SideB], seats[SideA]
		}
		result := m.ratingEng.Compute(sess.Mode, winnerSeat.RatingPre, loserSeat.RatingPre, winnerSeat.Faction, loserSeat.Faction, draw)
		deltas[winnerSeat.AgentID] = result.WinnerGlobal.Change
		deltas[loserSeat.AgentID] = result.LoserGlobal.Change
	}

	if m.publisher != nil {
		ev := persist.MatchEndedEvent{
			MatchID: sess.ID, Mode: string(sess.Mode), Map: sess.Map,
			WinnerID: winnerID, Draw: draw, DurationSeconds: duration,
			RatingDeltas: deltas, TerminationReason: reason,
		}
		if seats[SideA] != nil {
			ev.AgentA, ev.FactionA = seats[SideA].AgentID, string(seats[SideA].Faction)
		}
		if seats[SideB] != nil {
			ev.AgentB, ev.FactionB = seats[SideB].AgentID, string(seats[SideB].Faction)
		}
		_ = m.publisher.PublishMatchEnded(context.Background(), ev)
	}

	for _, seat := range seats {
		if seat != nil {
			m.sendFarewell(seat, status, winnerID, reason, duration, deltas)
		}
	}
	for _, c := range spectators {
		var payload []byte
		var err error
		if status == StatusCompleted {
			result := "victory"
			if draw {
				result = "draw"
			}
			payload, err = wire.EncodeOutbound("game_end", wire.GameEnd{
				Result: result, WinnerID: winnerID, Reason: reason, DurationSecs: duration,
			})
		} else {
			payload, err = wire.EncodeOutbound("match_cancelled", wire.MatchCancelled{Reason: reason})
		}
		if err == nil {
			c.Send(payload)
		}
	}

	termCtx := context.Background()
	if err := simulator.CallWithTimeout(termCtx, m.cfg.Session.SimulatorIPCTimeout, func(cctx context.Context) error {
		return m.sim.Terminate(cctx, sess.ID)
	}); err != nil {
		m.log.Warn("simulator teardown failed", zap.String("match_id", sess.ID), zap.Error(err))
	}

	m.metrics.CustomCounter("matches_terminated", map[string]string{"mode": string(sess.Mode), "status": string(status)}, 1)
	m.log.Info("match terminated",
		zap.String("match_id", sess.ID), zap.String("status", string(status)),
		zap.String("reason", reason), zap.String("winner_id", winnerID), zap.Bool("draw", draw),
	)

	grace := m.cfg.Session.GraceWindow
	sess.mu.Lock()
	sess.removeTimer = time.AfterFunc(grace, func() { m.removeSession(sess.ID) })
	sess.mu.Unlock()
}

func isTerminal(s Status) bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusError
}

// sendFarewell sends the ordered close message: a game_end for a
// completed match, a match_cancelled otherwise, then closes the
// connection.
func (m *Manager) sendFarewell(seat *Seat, status Status, winnerID, reason string, duration float64, deltas map[string]int) {
	conn := seat.conn.Load()
	if conn == nil {
		return
	}

	if status == StatusCompleted {
		result := "defeat"
		if winnerID == "" {
			result = "draw"
		} else if winnerID == seat.AgentID {
			result = "victory"
		}
		var eloChange *int
		if d, ok := deltas[seat.AgentID]; ok {
			v := d
			eloChange = &v
		}
		m.sendAgent(seat, "game_end", wire.GameEnd{
			Result: result, WinnerID: winnerID, Reason: reason, DurationSecs: duration, EloChange: eloChange,
		})
	} else {
		m.sendAgent(seat, "match_cancelled", wire.MatchCancelled{Reason: reason})
	}

	conn.Close("match terminated: " + reason)
}
