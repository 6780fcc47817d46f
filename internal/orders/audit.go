package orders

import (
	"sync"
	"time"
)

// SuspiciousEvent is one high-severity violation recorded for an
// anomaly-detection collaborator outside this service's scope.
type SuspiciousEvent struct {
	AgentID   string
	MatchID   string
	Reason    string
	Tick      uint64
	Timestamp time.Time
}

// Archiver receives suspicious events dropped off the ring buffer on
// overflow. The sqlite-backed implementation lives in the audit
// sub-package so the driver import stays out of callers (like unit
// tests) that only need the in-memory log.
type Archiver interface {
	Append(ev SuspiciousEvent)
}

// AuditLog is the bounded suspicious-event log: cap 10,000 entries,
// drop-oldest on overflow. The ring buffer is the
// source of truth for that invariant; an optional archive receives
// everything that falls off the end so offline anomaly detection has
// more than 10,000 entries of history, but it is never read back
// in-process.
type AuditLog struct {
	mu      sync.Mutex
	cap     int
	events  []SuspiciousEvent
	head    int // index of the oldest event when full
	size    int
	archive Archiver
}

const DefaultAuditCap = 10000

func NewAuditLog(capacity int, archive Archiver) *AuditLog {
	if capacity <= 0 {
		capacity = DefaultAuditCap
	}
	return &AuditLog{cap: capacity, events: make([]SuspiciousEvent, capacity), archive: archive}
}

// Record appends an event, dropping the oldest one on overflow and
// archiving it first if an archive is configured.
func (a *AuditLog) Record(ev SuspiciousEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.size < a.cap {
		idx := (a.head + a.size) % a.cap
		a.events[idx] = ev
		a.size++
		return
	}

	dropped := a.events[a.head]
	if a.archive != nil {
		a.archive.Append(dropped)
	}
	a.events[a.head] = ev
	a.head = (a.head + 1) % a.cap
}

// Len returns the number of events currently held (never exceeds cap).
func (a *AuditLog) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.size
}

// Snapshot returns events in insertion order, oldest first.
func (a *AuditLog) Snapshot() []SuspiciousEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]SuspiciousEvent, a.size)
	for i := 0; i < a.size; i++ {
		out[i] = a.events[(a.head+i)%a.cap]
	}
	return out
}
