package match

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jediswimmer/ironcurtain/internal/agent"
	"github.com/jediswimmer/ironcurtain/internal/arenaerr"
	"github.com/jediswimmer/ironcurtain/internal/transport"
	"github.com/jediswimmer/ironcurtain/internal/wire"
)

// Manager implements transport.Hub. This file is the transport-facing
// half of the session lifecycle: connect/disconnect and frame routing.
var _ transport.Hub = (*Manager)(nil)

// ConnectAgent verifies apiKey against agentID, and on success
// registers conn as that seat's connection. A session accepts an
// identify only while pending/connecting or already running; a
// reconnect attempt is rejected, there is no running → connecting
// resume.
func (m *Manager) ConnectAgent(matchID, agentID, apiKey string, conn *transport.Conn) error {
	sess, ok := m.sessionByID(matchID)
	if !ok {
		return fmt.Errorf("match: unknown match id %s", matchID)
	}

	if m.verifier != nil {
		if err := m.verifier.Verify(apiKey, agentID); err != nil {
			return arenaerr.New(arenaerr.KindClientProtocol, "identify rejected: %v", err)
		}
	}

	if m.registry != nil {
		rec, err := m.registry.Lookup(context.Background(), agentID)
		if err != nil {
			return arenaerr.New(arenaerr.KindClientProtocol, "identify rejected: agent lookup failed: %v", err)
		}
		if rec.Status == agent.StatusSuspended {
			return arenaerr.New(arenaerr.KindClientProtocol, "identify rejected: agent %s is suspended", agentID)
		}
	}

	sess.mu.Lock()
	if isTerminal(sess.status) {
		sess.mu.Unlock()
		return fmt.Errorf("match: match %s is already %s", matchID, sess.status)
	}
	seat, _, ok := sess.seatFor(agentID)
	if !ok {
		sess.mu.Unlock()
		return fmt.Errorf("match: agent %s is not a participant in %s", agentID, matchID)
	}
	if seat.conn.Load() != nil {
		sess.mu.Unlock()
		return fmt.Errorf("match: agent %s already connected", agentID)
	}
	seat.conn.Store(conn)
	seat.connectedAt = time.Now()
	sess.mu.Unlock()

	opponent := sess.other(sideOf(sess, agentID))
	opponentName := ""
	if opponent != nil {
		opponentName = opponent.DisplayName
	}

	m.sendAgent(seat, "connected", wire.Connected{
		MatchID:  matchID,
		Map:      sess.Map,
		Faction:  string(seat.Faction),
		Opponent: opponentName,
		Settings: map[string]any{
			"apm_profile":   string(sess.Settings.APMProfile),
			"game_speed":    string(sess.Settings.GameSpeed),
			"tech_level":    string(sess.Settings.TechLevel),
			"starting_cash": sess.Settings.StartingCash,
		},
	})

	m.maybeStart(sess)

	return nil
}

// maybeStart promotes a session to running once both seats hold a live
// connection. The transition is only legal out of connecting: a second
// identify that lands while the simulator is still provisioning waits
// for runSession to call back in here, and a session the connect
// deadline already cancelled stays cancelled.
func (m *Manager) maybeStart(sess *Session) {
	sess.mu.Lock()
	if sess.status != StatusConnecting || sess.connectedCount() != 2 {
		sess.mu.Unlock()
		return
	}
	sess.status = StatusRunning
	sess.startedAt = time.Now()
	seats := sess.seats
	sess.mu.Unlock()

	for _, s := range seats {
		m.sendAgent(s, "game_start", wire.GameStart{
			MatchID: sess.ID, Map: sess.Map,
			Settings: map[string]any{"apm_profile": string(sess.Settings.APMProfile)},
		})
	}
	m.metrics.CustomCounter("matches_started", map[string]string{"mode": string(sess.Mode)}, 1)
	m.log.Info("match started", zap.String("match_id", sess.ID))
}

func sideOf(sess *Session, agentID string) Side {
	_, side, _ := sess.seatFor(agentID)
	return side
}

// DisconnectAgent handles a seat's connection going away for any
// reason. If the match is running, the opponent wins by default; if
// still connecting, the seat simply waits for a reconnect until the
// connect deadline watchdog fires.
func (m *Manager) DisconnectAgent(matchID, agentID, reason string) {
	sess, ok := m.sessionByID(matchID)
	if !ok {
		return
	}

	sess.mu.Lock()
	seat, side, ok := sess.seatFor(agentID)
	if !ok {
		sess.mu.Unlock()
		return
	}
	seat.conn.Store(nil)
	running := sess.status == StatusRunning
	opponent := sess.other(side)
	sess.mu.Unlock()

	m.log.Info("agent disconnected", zap.String("match_id", matchID), zap.String("agent_id", agentID), zap.String("reason", reason))

	if running {
		winnerID := ""
		if opponent != nil {
			winnerID = opponent.AgentID
		}
		m.terminate(sess, StatusCompleted, "opponent_disconnect", winnerID, false)
	}
}

// HandleAgentFrame routes one decoded inbound frame into the session's
// order, state-pull, chat, or surrender pipeline.
func (m *Manager) HandleAgentFrame(matchID, agentID, kind string, body interface{}) {
	sess, ok := m.sessionByID(matchID)
	if !ok {
		return
	}

	switch kind {
	case "orders":
		msg, ok := body.(wire.OrdersIn)
		if !ok {
			return
		}
		m.handleOrders(sess, agentID, msg)
	case "get_state":
		m.handleGetState(sess, agentID)
	case "chat":
		msg, ok := body.(wire.ChatIn)
		if !ok {
			return
		}
		m.handleChat(sess, agentID, msg.Message)
	case "surrender":
		m.handleSurrender(sess, agentID)
	default:
		m.log.Debug("unhandled agent frame kind", zap.String("kind", kind), zap.String("match_id", matchID))
	}
}

// ConnectSpectator registers conn for this match's spectator fan-out.
func (m *Manager) ConnectSpectator(matchID string, conn *transport.Conn) error {
	sess, ok := m.sessionByID(matchID)
	if !ok {
		return fmt.Errorf("match: unknown match id %s", matchID)
	}
	sess.mu.Lock()
	sess.spectators[conn] = struct{}{}
	sess.mu.Unlock()
	return nil
}

func (m *Manager) DisconnectSpectator(matchID string, conn *transport.Conn) {
	sess, ok := m.sessionByID(matchID)
	if !ok {
		return
	}
	sess.mu.Lock()
	delete(sess.spectators, conn)
	sess.mu.Unlock()
}

// BroadcastCommentary forwards one commentary line from the
// commentary collaborator to every spectator of matchID. Agents never
// receive commentary.
func (m *Manager) BroadcastCommentary(matchID, text string) error {
	sess, ok := m.sessionByID(matchID)
	if !ok {
		return fmt.Errorf("match: unknown match id %s", matchID)
	}

	sess.mu.Lock()
	spectators := make([]*transport.Conn, 0, len(sess.spectators))
	for c := range sess.spectators {
		spectators = append(spectators, c)
	}
	sess.mu.Unlock()

	payload, err := wire.EncodeOutbound("commentary", wire.Commentary{Text: text})
	if err != nil {
		return err
	}
	for _, c := range spectators {
		c.Send(payload)
	}
	return nil
}
