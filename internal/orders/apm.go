// Package orders implements admission control for submitted order
// batches: semantic legality (the Validator) and rate legality (the
// APM Limiter).
package orders

import (
	"math"
	"sync"
	"time"

	"github.com/jediswimmer/ironcurtain/internal/config"
)

// ProfileLimits is the resolved set of caps for one APM profile.
type ProfileLimits struct {
	MaxAPM           int
	MaxOrdersPerTick int
	MinInterBatchGap time.Duration
	MaxUnitsPerOrder int
}

// Profiles maps the three enumerated profiles to their concrete caps.
var Profiles = map[config.APMProfile]ProfileLimits{
	config.APMHumanLike: {
		MaxAPM: 200, MaxOrdersPerTick: 3, MinInterBatchGap: 50 * time.Millisecond, MaxUnitsPerOrder: 12,
	},
	config.APMCompetitive: {
		MaxAPM: 600, MaxOrdersPerTick: 8, MinInterBatchGap: 10 * time.Millisecond, MaxUnitsPerOrder: 50,
	},
	config.APMUnlimited: {
		MaxAPM: math.MaxInt32, MaxOrdersPerTick: math.MaxInt32, MinInterBatchGap: 0, MaxUnitsPerOrder: math.MaxInt32,
	},
}

const slidingWindow = 60 * time.Second

// BatchRejection names why a batch was refused by the APM limiter.
type BatchRejection string

const (
	RejectNone          BatchRejection = ""
	RejectTooFast       BatchRejection = "TooFast"
	RejectBatchTooLarge BatchRejection = "BatchTooLarge"
	RejectApmCeiling    BatchRejection = "ApmCeiling"
)

// Tracker is the per-agent-session APM state: a sliding list of
// admitted-action timestamps within the last 60s, plus the timestamp
// of the last batch. Two successive batches from the same agent never
// race on it: it has its own mutex rather than relying on upstream
// serialization.
type Tracker struct {
	mu         sync.Mutex
	profile    ProfileLimits
	timestamps []time.Time
	lastBatch  time.Time
}

func NewTracker(profile ProfileLimits) *Tracker {
	return &Tracker{profile: profile}
}

// prune discards timestamps older than now-60s. This runs on every
// query, not lazily per-tick, so the APM invariant holds under bursty
// clocks.
func (t *Tracker) prune(now time.Time) {
	cutoff := now.Add(-slidingWindow)
	i := 0
	for i < len(t.timestamps) && !t.timestamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		t.timestamps = t.timestamps[i:]
	}
}

// CheckBatch runs the four-step admission algorithm and, on
// admission, mutates the sliding window. cooldown is only meaningful
// when rejection is RejectTooFast.
func (t *Tracker) CheckBatch(now time.Time, batchSize int) (rejection BatchRejection, cooldown time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.lastBatch.IsZero() {
		elapsed := now.Sub(t.lastBatch)
		if elapsed < t.profile.MinInterBatchGap {
			return RejectTooFast, t.profile.MinInterBatchGap - elapsed
		}
	}

	if batchSize > t.profile.MaxOrdersPerTick {
		return RejectBatchTooLarge, 0
	}

	t.prune(now)
	if len(t.timestamps)+batchSize > t.profile.MaxAPM {
		return RejectApmCeiling, 0
	}

	for i := 0; i < batchSize; i++ {
		t.timestamps = append(t.timestamps, now)
	}
	t.lastBatch = now
	return RejectNone, 0
}

// WindowCount returns the number of admitted actions in the trailing
// 60s window as of now, pruning first.
func (t *Tracker) WindowCount(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.prune(now)
	return len(t.timestamps)
}
