package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpected_Symmetric(t *testing.T) {
	e := Expected(1600, 1600)
	assert.InDelta(t, 0.5, e, 1e-9)
}

func TestApply_KnownDeltaExample(t *testing.T) {
	// Pre-ratings 1600 (winner), 1400 (loser), both past the 30-game
	// bucket so K=20. Expected winner score ≈ 0.7597, delta ≈
	// round(20*(1-0.7597)) = 5.
	o := Outcome{WinnerPreRating: 1600, LoserPreRating: 1400, WinnerGames: 40, LoserGames: 40}
	winner, loser := Apply(o, 1600, 1400)

	assert.Equal(t, 5, winner.Change)
	assert.Equal(t, 1605, winner.NewRating)
	assert.Equal(t, -5, loser.Change)
	assert.Equal(t, 1395, loser.NewRating)
}

func TestApply_PeakIsMonotonic(t *testing.T) {
	o := Outcome{WinnerPreRating: 1000, LoserPreRating: 1200, WinnerGames: 5, LoserGames: 5}
	winner, _ := Apply(o, 1100, 1200)
	// winner's rating after the match may exceed their recorded peak.
	assert.GreaterOrEqual(t, winner.NewPeak, winner.NewRating)
	assert.GreaterOrEqual(t, winner.NewPeak, 1100)
}

func TestApply_DrawSymmetricWhenRatingsEqual(t *testing.T) {
	o := Outcome{WinnerPreRating: 1500, LoserPreRating: 1500, WinnerGames: 40, LoserGames: 40, Draw: true}
	winner, loser := Apply(o, 1500, 1500)
	assert.Equal(t, 0, winner.Change)
	assert.Equal(t, 0, loser.Change)
}

func TestApply_DrawAsymmetricWhenKFactorsDiffer(t *testing.T) {
	// Invariant (1): asymmetric K only produces equal-magnitude opposite
	// deltas when pre-ratings are equal. Here pre-ratings differ (so
	// expected scores aren't both exactly 0.5) and games-played differ
	// too, giving each side a different K-factor bucket; an otherwise
	// even draw produces unequal-magnitude deltas on the two sides.
	o := Outcome{WinnerPreRating: 1600, LoserPreRating: 1400, WinnerGames: 5, LoserGames: 40, Draw: true}
	winner, loser := Apply(o, 1600, 1400)
	assert.NotEqual(t, -winner.Change, loser.Change)
}

func TestApply_FloorPreventsUnderflow(t *testing.T) {
	o := Outcome{WinnerPreRating: 2000, LoserPreRating: 105, WinnerGames: 100, LoserGames: 100}
	_, loser := Apply(o, 2000, 105)
	assert.GreaterOrEqual(t, loser.NewRating, RatingFloor)
}

func TestKFactor_Buckets(t *testing.T) {
	assert.Equal(t, 40, KFactor(0, 1000))
	assert.Equal(t, 40, KFactor(29, 1000))
	assert.Equal(t, 20, KFactor(30, 1000))
	assert.Equal(t, 20, KFactor(500, 2000))
	assert.Equal(t, 10, KFactor(500, PlateauRating))
}
