package queue

import (
	"context"
	"testing"
	"time"

	"github.com/jediswimmer/ironcurtain/internal/config"
	"github.com/jediswimmer/ironcurtain/internal/domain"
	"github.com/jediswimmer/ironcurtain/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCfg() config.Matchmaker {
	return config.Matchmaker{
		InitialRadius: 50, MaxRadius: 400, WideningStep: 10,
		WideningInterval: 5 * time.Second, QueueTimeout: 5 * time.Minute,
		PairingInterval: time.Hour, // disable the background ticker in tests
	}
}

// Two entries, ratings 1200 and 1500, radius 50, widening 10/5s. The
// 300-point gap is inadmissible while both radii are 210 (at 80s) and
// becomes admissible exactly when a radius reaches 300 (at 125s).
func TestScanForPairings_WideningFairness(t *testing.T) {
	start := time.Now()
	a := &Entry{AgentID: "a", Rating: 1200, Mode: config.ModeRanked1v1, FactionPreference: domain.FactionRandom,
		InitialRadius: 50, MaxRadius: 400, WideningStep: 10, WideningInterval: 5 * time.Second, EnqueuedAt: start}
	b := &Entry{AgentID: "b", Rating: 1500, Mode: config.ModeRanked1v1, FactionPreference: domain.FactionSoviet,
		InitialRadius: 50, MaxRadius: 400, WideningStep: 10, WideningInterval: 5 * time.Second, EnqueuedAt: start}

	early := start.Add(80 * time.Second)
	assert.Equal(t, 210, a.Radius(early))
	assert.Equal(t, 210, b.Radius(early))
	remaining, pairings := scanForPairings([]*Entry{a, b}, early)
	assert.Empty(t, pairings, "a 300-point gap exceeds both 210 radii")
	assert.Len(t, remaining, 2)

	now := start.Add(125 * time.Second)
	assert.Equal(t, 300, a.Radius(now))

	remaining, pairings = scanForPairings([]*Entry{a, b}, now)
	assert.Empty(t, remaining)
	require.Len(t, pairings, 1)

	p := pairings[0]
	// The soviet-preferrer gets soviet; the other (random) gets allies.
	if p.A.AgentID == "b" {
		assert.Equal(t, domain.FactionSoviet, p.FactionA)
		assert.Equal(t, domain.FactionAllies, p.FactionB)
	} else {
		assert.Equal(t, domain.FactionAllies, p.FactionA)
		assert.Equal(t, domain.FactionSoviet, p.FactionB)
	}
}

func TestScanForPairings_OutOfRangeStaysQueued(t *testing.T) {
	start := time.Now()
	a := &Entry{AgentID: "a", Rating: 1000, FactionPreference: domain.FactionRandom,
		InitialRadius: 50, MaxRadius: 400, WideningStep: 10, WideningInterval: 5 * time.Second, EnqueuedAt: start}
	b := &Entry{AgentID: "b", Rating: 2000, FactionPreference: domain.FactionRandom,
		InitialRadius: 50, MaxRadius: 400, WideningStep: 10, WideningInterval: 5 * time.Second, EnqueuedAt: start}

	remaining, pairings := scanForPairings([]*Entry{a, b}, start)
	assert.Empty(t, pairings)
	assert.Len(t, remaining, 2)
}

func TestMatchmaker_EnqueueAlreadyQueued(t *testing.T) {
	mm := NewMatchmaker(context.Background(), testCfg(), nil, nil, telemetry.Noop{}, nil, nil, nil)
	e1 := &Entry{AgentID: "a", Mode: config.ModeRanked1v1, Rating: 1200, FactionPreference: domain.FactionRandom}
	require.NoError(t, mm.Enqueue(context.Background(), e1))

	e2 := &Entry{AgentID: "a", Mode: config.ModeRanked1v1, Rating: 1200, FactionPreference: domain.FactionRandom}
	err := mm.Enqueue(context.Background(), e2)
	assert.Error(t, err)
}

func TestMatchmaker_CancelIsIdempotent(t *testing.T) {
	mm := NewMatchmaker(context.Background(), testCfg(), nil, nil, telemetry.Noop{}, nil, nil, nil)
	mm.Cancel(context.Background(), "ghost", config.ModeRanked1v1)
	mm.Cancel(context.Background(), "ghost", config.ModeRanked1v1)

	e := &Entry{AgentID: "a", Mode: config.ModeRanked1v1, Rating: 1200, FactionPreference: domain.FactionRandom}
	require.NoError(t, mm.Enqueue(context.Background(), e))
	mm.Cancel(context.Background(), "a", config.ModeRanked1v1)
	mm.Cancel(context.Background(), "a", config.ModeRanked1v1)

	_, _, found := mm.Query("a", config.ModeRanked1v1)
	assert.False(t, found)
}

func TestMatchmaker_MatchmakerFull(t *testing.T) {
	modes := map[config.Mode]config.ModeSettings{
		config.ModeRanked1v1: {MaxQueueDepth: 1},
	}
	mm := NewMatchmaker(context.Background(), testCfg(), modes, nil, telemetry.Noop{}, nil, nil, nil)
	require.NoError(t, mm.Enqueue(context.Background(), &Entry{AgentID: "a", Mode: config.ModeRanked1v1, FactionPreference: domain.FactionRandom}))
	err := mm.Enqueue(context.Background(), &Entry{AgentID: "b", Mode: config.ModeRanked1v1, FactionPreference: domain.FactionRandom})
	assert.Error(t, err)
}
