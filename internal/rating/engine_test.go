package rating

import (
	"testing"

	"github.com/jediswimmer/ironcurtain/internal/config"
	"github.com/jediswimmer/ironcurtain/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestEngine_ComputeUpdatesBothDimensions(t *testing.T) {
	e := NewEngine()
	winner := Profile{AgentID: "w", GlobalRating: 1600, GlobalPeak: 1600, GlobalGames: 40, ModeRating: 1550, ModePeak: 1550, ModeGames: 40}
	loser := Profile{AgentID: "l", GlobalRating: 1400, GlobalPeak: 1450, GlobalGames: 40, ModeRating: 1500, ModePeak: 1500, ModeGames: 40}

	result := e.Compute(config.ModeRanked1v1, winner, loser, domain.FactionAllies, domain.FactionSoviet, false)

	assert.Equal(t, 5, result.WinnerGlobal.Change)
	assert.Equal(t, -5, result.LoserGlobal.Change)
	// Mode ratings are closer, so the mode delta is larger than the
	// global one.
	assert.Greater(t, result.WinnerMode.Change, result.WinnerGlobal.Change)
	assert.Equal(t, 1605, result.WinnerGlobal.NewPeak)
	assert.Equal(t, 1450, result.LoserGlobal.NewPeak)
}

func TestEngine_ComputeAdvancesStats(t *testing.T) {
	e := NewEngine()
	winner := Profile{AgentID: "w", GlobalRating: 1500, Stats: Stats{Wins: 2, Streak: 2}}
	loser := Profile{AgentID: "l", GlobalRating: 1500, Stats: Stats{Wins: 4, Streak: 4}}

	result := e.Compute(config.ModeRanked1v1, winner, loser, domain.FactionSoviet, domain.FactionAllies, false)

	assert.Equal(t, 3, result.WinnerStats.Wins)
	assert.Equal(t, 3, result.WinnerStats.Streak)
	assert.Equal(t, 1, result.WinnerStats.ByFaction[domain.FactionSoviet].Wins)

	// The loser's win streak flips to a one-loss streak.
	assert.Equal(t, 1, result.LoserStats.Losses)
	assert.Equal(t, -1, result.LoserStats.Streak)
	assert.Equal(t, 1, result.LoserStats.ByFaction[domain.FactionAllies].Losses)
}

func TestEngine_DrawZeroesStreaksAndFactionRecords(t *testing.T) {
	e := NewEngine()
	winner := Profile{AgentID: "w", GlobalRating: 1500, Stats: Stats{Streak: -3}}
	loser := Profile{AgentID: "l", GlobalRating: 1500, Stats: Stats{Streak: 5}}

	result := e.Compute(config.ModeRanked1v1, winner, loser, domain.FactionAllies, domain.FactionSoviet, true)

	assert.Equal(t, 0, result.WinnerStats.Streak)
	assert.Equal(t, 0, result.LoserStats.Streak)
	assert.Equal(t, 1, result.WinnerStats.Draws)
	assert.Equal(t, 1, result.LoserStats.Draws)
	assert.Empty(t, result.WinnerStats.ByFaction)
	assert.Empty(t, result.LoserStats.ByFaction)
}

func TestStats_AdvanceDoesNotMutateInput(t *testing.T) {
	s := Stats{Wins: 1, Streak: 1, ByFaction: map[domain.Faction]WinLoss{domain.FactionAllies: {Wins: 1}}}
	after := s.AfterWin(domain.FactionAllies)

	assert.Equal(t, 1, s.Wins)
	assert.Equal(t, 1, s.ByFaction[domain.FactionAllies].Wins)
	assert.Equal(t, 2, after.Wins)
	assert.Equal(t, 2, after.ByFaction[domain.FactionAllies].Wins)
}
