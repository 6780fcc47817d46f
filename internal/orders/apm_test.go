package orders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Competitive profile, 75 batches of 8 orders at 15ms intervals (all
// within gap and per-tick caps), 600 total admitted, the 601st order
// in the window rejected.
func TestTracker_ApmCeilingScenario(t *testing.T) {
	tracker := NewTracker(Profiles["competitive"])
	start := time.Now()

	admittedOrders := 0
	for i := 0; i < 75; i++ {
		now := start.Add(time.Duration(i) * 15 * time.Millisecond)
		rejection, _ := tracker.CheckBatch(now, 8)
		assert.Equal(t, RejectNone, rejection, "batch %d should admit", i)
		admittedOrders += 8
	}
	assert.Equal(t, 600, admittedOrders)

	// A 76th batch of one order (the 601st) lands well within 60s of the
	// first and must be rejected on the ceiling.
	now := start.Add(75 * 15 * time.Millisecond)
	rejection, _ := tracker.CheckBatch(now, 1)
	assert.Equal(t, RejectApmCeiling, rejection)
}

func TestTracker_TooFast(t *testing.T) {
	tracker := NewTracker(Profiles["competitive"]) // min gap 10ms
	now := time.Now()
	rejection, _ := tracker.CheckBatch(now, 1)
	assert.Equal(t, RejectNone, rejection)

	rejection, cooldown := tracker.CheckBatch(now.Add(1*time.Millisecond), 1)
	assert.Equal(t, RejectTooFast, rejection)
	assert.Greater(t, cooldown, time.Duration(0))
}

func TestTracker_BatchTooLarge(t *testing.T) {
	tracker := NewTracker(Profiles["human_like"]) // max 3 orders/tick
	now := time.Now()
	rejection, _ := tracker.CheckBatch(now, 4)
	assert.Equal(t, RejectBatchTooLarge, rejection)
}

func TestTracker_WindowPrunesOldEntries(t *testing.T) {
	tracker := NewTracker(Profiles["human_like"])
	now := time.Now()
	rejection, _ := tracker.CheckBatch(now, 3)
	assert.Equal(t, RejectNone, rejection)
	assert.Equal(t, 3, tracker.WindowCount(now))

	// 61 seconds later the window should have pruned to zero.
	assert.Equal(t, 0, tracker.WindowCount(now.Add(61*time.Second)))
}

func TestTracker_Unlimited(t *testing.T) {
	tracker := NewTracker(Profiles["unlimited"])
	now := time.Now()
	rejection, _ := tracker.CheckBatch(now, 100000)
	assert.Equal(t, RejectNone, rejection)
}
