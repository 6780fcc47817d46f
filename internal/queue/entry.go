// Package queue implements the Matchmaker: a skill-banded queue that
// pairs agents with bounded wait-time and fairness guarantees. A
// mutex-guarded cache is rebuilt on a ticker, with enqueue/cancel/query
// handlers serialized against the same lock.
package queue

import (
	"time"

	"github.com/jediswimmer/ironcurtain/internal/config"
	"github.com/jediswimmer/ironcurtain/internal/domain"
)

// Entry is a single agent's place in a mode's queue.
type Entry struct {
	AgentID           string
	DisplayName       string
	Rating            int
	Mode              config.Mode
	FactionPreference domain.Faction
	InitialRadius     int
	EnqueuedAt        time.Time
	WideningStep      int
	WideningInterval  time.Duration
	MaxRadius         int
}

// Radius returns the entry's current rating-window radius at instant
// now: it widens linearly with wait time at WideningStep per
// WideningInterval, capped at MaxRadius.
func (e *Entry) Radius(now time.Time) int {
	elapsed := now.Sub(e.EnqueuedAt)
	steps := int(elapsed / e.WideningInterval)
	radius := e.InitialRadius + steps*e.WideningStep
	if radius > e.MaxRadius {
		return e.MaxRadius
	}
	return radius
}

// Waited returns how long the entry has been queued as of now.
func (e *Entry) Waited(now time.Time) time.Duration {
	return now.Sub(e.EnqueuedAt)
}

// Pairing is two queue entries bound together with resolved factions,
// a chosen map, and the shared mode.
type Pairing struct {
	Mode     config.Mode
	Map      string
	A        *Entry
	B        *Entry
	FactionA domain.Faction
	FactionB domain.Faction
}
