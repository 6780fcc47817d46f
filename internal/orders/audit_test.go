package orders

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureArchiver struct {
	events []SuspiciousEvent
}

func (c *captureArchiver) Append(ev SuspiciousEvent) { c.events = append(c.events, ev) }

func TestAuditLog_DropOldestOnOverflow(t *testing.T) {
	archive := &captureArchiver{}
	log := NewAuditLog(3, archive)

	for i := 0; i < 5; i++ {
		log.Record(SuspiciousEvent{
			AgentID: "a1", MatchID: "m1",
			Reason:    fmt.Sprintf("violation-%d", i),
			Timestamp: time.Now(),
		})
	}

	assert.Equal(t, 3, log.Len())

	snap := log.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "violation-2", snap[0].Reason)
	assert.Equal(t, "violation-4", snap[2].Reason)

	// The two dropped events went to the archive, oldest first.
	require.Len(t, archive.events, 2)
	assert.Equal(t, "violation-0", archive.events[0].Reason)
	assert.Equal(t, "violation-1", archive.events[1].Reason)
}

func TestAuditLog_NilArchiveIsFine(t *testing.T) {
	log := NewAuditLog(2, nil)
	for i := 0; i < 10; i++ {
		log.Record(SuspiciousEvent{Reason: fmt.Sprintf("v%d", i)})
	}
	assert.Equal(t, 2, log.Len())
}

func TestAuditLog_DefaultCapacity(t *testing.T) {
	log := NewAuditLog(0, nil)
	log.Record(SuspiciousEvent{Reason: "x"})
	assert.Equal(t, 1, log.Len())
}
