// Package match implements the Match Session Manager: the state
// machine, tick fan-out, order intake, and termination sequence that
// owns one running match for its entire lifecycle. One long-lived
// object per match is driven by its own loop plus per-connection
// reader tasks, coordinated through goroutines and channels rather
// than a single callback invoked on every tick.
package match

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/jediswimmer/ironcurtain/internal/config"
	"github.com/jediswimmer/ironcurtain/internal/domain"
	"github.com/jediswimmer/ironcurtain/internal/fog"
	"github.com/jediswimmer/ironcurtain/internal/orders"
	"github.com/jediswimmer/ironcurtain/internal/rating"
	"github.com/jediswimmer/ironcurtain/internal/transport"
)

// Status is one node in the session's lifecycle state graph.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConnecting Status = "connecting"
	StatusRunning    Status = "running"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusError      Status = "error"
)

// Side identifies one of the two seats in a 1v1 session.
type Side int

const (
	SideA Side = iota
	SideB
)

// Seat is one side's full per-session state: identity, faction,
// connection, and the fog/APM state that must never race across the
// two tasks (intake and this agent's inbound pipeline) that touch it.
type Seat struct {
	AgentID     string
	DisplayName string
	Faction     domain.Faction
	RatingPre   rating.Profile

	conn         atomic.Pointer[transport.Conn]
	fogStore     *fog.Store
	tracker      *orders.Tracker
	lastView     domain.FilteredView
	highSeverity int
	orderSeq     uint64
	connectedAt  time.Time
}

// Session is one match's entire lifecycle.
type Session struct {
	ID       string
	Mode     config.Mode
	Map      string
	Settings config.ModeSettings

	CreatedAt time.Time

	mu                sync.Mutex
	status            Status
	seats             [2]*Seat
	spectators        map[*transport.Conn]struct{}
	terminationReason string
	winnerID          string
	draw              bool
	startedAt         time.Time
	finishedAt        time.Time

	cancelWatchdog func()
	removeTimer    *time.Timer
}

func newSeat(agentID, displayName string, faction domain.Faction, pre rating.Profile, apmProfile config.APMProfile) *Seat {
	return &Seat{
		AgentID:     agentID,
		DisplayName: displayName,
		Faction:     faction,
		RatingPre:   pre,
		fogStore:    fog.NewStore(),
		tracker:     orders.NewTracker(orders.Profiles[apmProfile]),
	}
}

// seatFor returns the seat for agentID and its Side, or (nil, 0,
// false) if agentID names neither seat.
func (s *Session) seatFor(agentID string) (*Seat, Side, bool) {
	for i, seat := range s.seats {
		if seat != nil && seat.AgentID == agentID {
			return seat, Side(i), true
		}
	}
	return nil, 0, false
}

func (s *Session) other(side Side) *Seat {
	if side == SideA {
		return s.seats[SideB]
	}
	return s.seats[SideA]
}

// Status reports the session's current state under lock.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// connectedCount reports how many seats currently hold a live
// connection.
func (s *Session) connectedCount() int {
	n := 0
	for _, seat := range s.seats {
		if seat != nil && seat.conn.Load() != nil {
			n++
		}
	}
	return n
}
