package rating

import (
	"github.com/jediswimmer/ironcurtain/internal/config"
	"github.com/jediswimmer/ironcurtain/internal/domain"
)

// Profile is the subset of an agent's rating record the engine needs:
// current global and per-mode rating, peak, games played, and the
// win/loss/streak/faction tallies the update advances alongside the
// rating itself.
type Profile struct {
	AgentID      string
	GlobalRating int
	GlobalPeak   int
	GlobalGames  int
	ModeRating   int
	ModePeak     int
	ModeGames    int
	Stats        Stats
}

// Result is the engine's full contract output: four deltas plus the
// new monotonic-peak values and advanced per-player stats.
type Result struct {
	Mode config.Mode

	WinnerGlobal Delta
	LoserGlobal  Delta
	WinnerMode   Delta
	LoserMode    Delta

	WinnerStats Stats
	LoserStats  Stats
}

// Engine computes rating changes for a completed match outcome. It
// holds no state; every call is pure given its arguments.
type Engine struct{}

func NewEngine() *Engine { return &Engine{} }

// Compute applies the Elo update independently to the global and
// per-mode rating dimensions, and advances each side's stats record.
// draw indicates a drawn match: both sides are scored 0.5 on both
// dimensions and neither faction record moves.
func (e *Engine) Compute(mode config.Mode, winner, loser Profile, winnerFaction, loserFaction domain.Faction, draw bool) Result {
	globalOutcome := Outcome{
		WinnerPreRating: winner.GlobalRating,
		LoserPreRating:  loser.GlobalRating,
		WinnerGames:     winner.GlobalGames,
		LoserGames:      loser.GlobalGames,
		Draw:            draw,
	}
	modeOutcome := Outcome{
		WinnerPreRating: winner.ModeRating,
		LoserPreRating:  loser.ModeRating,
		WinnerGames:     winner.ModeGames,
		LoserGames:      loser.ModeGames,
		Draw:            draw,
	}

	winnerGlobal, loserGlobal := Apply(globalOutcome, winner.GlobalPeak, loser.GlobalPeak)
	winnerMode, loserMode := Apply(modeOutcome, winner.ModePeak, loser.ModePeak)

	winnerStats, loserStats := winner.Stats.AfterWin(winnerFaction), loser.Stats.AfterLoss(loserFaction)
	if draw {
		winnerStats, loserStats = winner.Stats.AfterDraw(), loser.Stats.AfterDraw()
	}

	return Result{
		Mode:         mode,
		WinnerGlobal: winnerGlobal,
		LoserGlobal:  loserGlobal,
		WinnerMode:   winnerMode,
		LoserMode:    loserMode,
		WinnerStats:  winnerStats,
		LoserStats:   loserStats,
	}
}
