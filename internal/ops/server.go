// Package ops exposes the operational HTTP surface alongside the
// agent/spectator websocket protocol: health, Prometheus metrics, and
// matchmaker queue depth. It never touches the wire protocol in
// internal/transport, keeping game traffic and ops traffic on separate
// routers.
package ops

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jediswimmer/ironcurtain/internal/config"
	"github.com/jediswimmer/ironcurtain/internal/queue"
)

// QueueInspector is the narrow slice of Matchmaker the queue endpoints
// need.
type QueueInspector interface {
	Query(agentID string, mode config.Mode) (position int, estimatedWait time.Duration, found bool)
	Depth(mode config.Mode) int
	Cancel(ctx context.Context, agentID string, mode config.Mode)
}

var _ QueueInspector = (*queue.Matchmaker)(nil)

// MatchAdmin is the slice of the session manager the ops surface
// drives: commentary ingest and pre-match withdrawal.
type MatchAdmin interface {
	BroadcastCommentary(matchID, text string) error
	CancelPreMatch(agentID string) bool
}

// Server is the ops-only HTTP surface: readiness, metrics, queue depth
// inspection, queue withdrawal, and the commentary collaborator's
// ingest endpoint.
type Server struct {
	registry *prometheus.Registry
	mm       QueueInspector
	matches  MatchAdmin
	started  time.Time
}

func NewServer(registry *prometheus.Registry, mm QueueInspector, matches MatchAdmin) *Server {
	return &Server{registry: registry, mm: mm, matches: matches, started: time.Now()}
}

// Router returns the mux the caller mounts at the ops listen address,
// separate from the agent/spectator websocket router.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.HandleFunc("/queue/{mode}", s.handleQueueDepth).Methods(http.MethodGet)
	r.HandleFunc("/queue/{mode}/{agent_id}", s.handleQueueCancel).Methods(http.MethodDelete)
	r.HandleFunc("/commentary/{match_id}", s.handleCommentary).Methods(http.MethodPost)
	return r
}

// handleQueueCancel withdraws an agent: it removes any waiting queue
// entry and, if a pairing was already produced for the entry, cancels
// the not-yet-running session it fed.
func (s *Server) handleQueueCancel(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	mode := config.Mode(vars["mode"])
	agentID := vars["agent_id"]

	s.mm.Cancel(r.Context(), agentID, mode)
	sessionCancelled := false
	if s.matches != nil {
		sessionCancelled = s.matches.CancelPreMatch(agentID)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"agent_id":          agentID,
		"mode":              mode,
		"session_cancelled": sessionCancelled,
	})
}

func (s *Server) handleCommentary(w http.ResponseWriter, r *http.Request) {
	matchID := mux.Vars(r)["match_id"]
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Text == "" {
		http.Error(w, "invalid commentary body", http.StatusBadRequest)
		return
	}
	if s.matches == nil {
		http.Error(w, "commentary not wired", http.StatusServiceUnavailable)
		return
	}
	if err := s.matches.BroadcastCommentary(matchID, body.Text); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":     "ok",
		"uptime_sec": time.Since(s.started).Seconds(),
	})
}

func (s *Server) handleQueueDepth(w http.ResponseWriter, r *http.Request) {
	mode := config.Mode(mux.Vars(r)["mode"])
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"mode":  mode,
		"depth": s.mm.Depth(mode),
	})
}
