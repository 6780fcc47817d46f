package transport

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/jediswimmer/ironcurtain/internal/wire"
)

// Hub is the match-session side of the transport boundary. The match
// manager implements it; transport never reaches into session
// internals beyond this interface, matching the handler/hub split in
// replay-api-replay-api's lobby_ws_handler.go and websocket/hub.go.
type Hub interface {
	// ConnectAgent authenticates apiKey against agentID and, on
	// success, registers conn as that agent's outbound channel for
	// matchID. An error leaves conn unregistered; the caller closes it.
	ConnectAgent(matchID, agentID, apiKey string, conn *Conn) error
	// DisconnectAgent notifies the session that agentID's connection
	// is gone, for whatever reason.
	DisconnectAgent(matchID, agentID, reason string)
	// HandleAgentFrame routes one decoded inbound frame to the
	// session's intake pipeline for agentID.
	HandleAgentFrame(matchID, agentID, kind string, body interface{})

	// ConnectSpectator registers conn to receive unfiltered state
	// broadcasts for matchID.
	ConnectSpectator(matchID string, conn *Conn) error
	// DisconnectSpectator unregisters a spectator connection.
	DisconnectSpectator(matchID string, conn *Conn)
}

// Server upgrades incoming HTTP connections into agent or spectator
// websockets and hands them to a Hub.
type Server struct {
	hub        Hub
	upgrader   websocket.Upgrader
	queueDepth int
	log        *zap.Logger
}

func NewServer(hub Hub, queueDepth int, log *zap.Logger) *Server {
	return &Server{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		queueDepth: queueDepth,
		log:        log,
	}
}

// Router returns the mux the caller mounts (directly or alongside ops
// endpoints) at WSAddr.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ws/agent/{match_id}", s.serveAgent)
	r.HandleFunc("/ws/spectator/{match_id}", s.serveSpectator)
	return r
}

func (s *Server) serveAgent(w http.ResponseWriter, r *http.Request) {
	matchID := mux.Vars(r)["match_id"]
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("agent upgrade failed", zap.Error(err), zap.String("match_id", matchID))
		return
	}

	var agentID string
	conn := NewConn(ws, s.queueDepth, s.log, func(reason string) {
		if agentID != "" {
			s.hub.DisconnectAgent(matchID, agentID, reason)
		}
	})

	identified := false
	conn.ReadLoop(func(raw []byte) bool {
		kind, body, err := wire.DecodeInbound(raw)
		if err != nil {
			// A malformed frame is a protocol error: close the
			// offending channel rather than keep reading from a peer
			// speaking something else.
			s.log.Info("malformed agent frame, closing", zap.Error(err), zap.String("match_id", matchID))
			return false
		}
		if !identified {
			ident, ok := body.(wire.Identify)
			if kind != "identify" || !ok {
				return false
			}
			if err := s.hub.ConnectAgent(matchID, ident.AgentID, ident.APIKey, conn); err != nil {
				s.log.Info("agent identify rejected", zap.Error(err), zap.String("match_id", matchID))
				return false
			}
			agentID = ident.AgentID
			identified = true
			return true
		}
		s.hub.HandleAgentFrame(matchID, agentID, kind, body)
		return true
	})
}

func (s *Server) serveSpectator(w http.ResponseWriter, r *http.Request) {
	matchID := mux.Vars(r)["match_id"]
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("spectator upgrade failed", zap.Error(err), zap.String("match_id", matchID))
		return
	}

	var conn *Conn
	conn = NewConn(ws, s.queueDepth, s.log, func(reason string) {
		s.hub.DisconnectSpectator(matchID, conn)
	})

	if err := s.hub.ConnectSpectator(matchID, conn); err != nil {
		s.log.Info("spectator connect rejected", zap.Error(err), zap.String("match_id", matchID))
		conn.Close("rejected")
		return
	}

	// Spectators are read-only; the read loop exists only to notice
	// disconnects and to discard whatever a client sends.
	conn.ReadLoop(func(raw []byte) bool { return true })
}
