package queue

import (
	"testing"

	"github.com/jediswimmer/ironcurtain/internal/domain"
	"github.com/stretchr/testify/assert"
)

func entryWithPref(id string, pref domain.Faction) *Entry {
	return &Entry{AgentID: id, FactionPreference: pref}
}

func TestResolveFactions_OneRandomGetsComplement(t *testing.T) {
	a := entryWithPref("a", domain.FactionRandom)
	b := entryWithPref("b", domain.FactionSoviet)

	fa, fb := resolveFactions(a, b)
	assert.Equal(t, domain.FactionAllies, fa)
	assert.Equal(t, domain.FactionSoviet, fb)

	fa, fb = resolveFactions(b, a)
	assert.Equal(t, domain.FactionSoviet, fa)
	assert.Equal(t, domain.FactionAllies, fb)
}

func TestResolveFactions_DistinctPreferencesHonored(t *testing.T) {
	a := entryWithPref("a", domain.FactionAllies)
	b := entryWithPref("b", domain.FactionSoviet)
	fa, fb := resolveFactions(a, b)
	assert.Equal(t, domain.FactionAllies, fa)
	assert.Equal(t, domain.FactionSoviet, fb)
}

func TestResolveFactions_SameSpecificRerollIsDeterministic(t *testing.T) {
	a := entryWithPref("a", domain.FactionSoviet)
	b := entryWithPref("b", domain.FactionSoviet)

	fa1, fb1 := resolveFactions(a, b)
	for i := 0; i < 10; i++ {
		fa, fb := resolveFactions(a, b)
		assert.Equal(t, fa1, fa)
		assert.Equal(t, fb1, fb)
	}
	// Exactly one side kept soviet, the other was re-rolled.
	assert.NotEqual(t, fa1, fb1)
}

func TestResolveFactions_BothRandomIsDeterministicPerPair(t *testing.T) {
	a := entryWithPref("a", domain.FactionRandom)
	b := entryWithPref("b", domain.FactionRandom)

	fa1, fb1 := resolveFactions(a, b)
	for i := 0; i < 10; i++ {
		fa, fb := resolveFactions(a, b)
		assert.Equal(t, fa1, fa)
		assert.Equal(t, fb1, fb)
	}
	assert.NotEqual(t, fa1, fb1)
}

func TestFactionResolvable_PrefersNoCoinFlip(t *testing.T) {
	assert.Equal(t, 0, factionResolvable(domain.FactionAllies, domain.FactionSoviet))
	assert.Equal(t, 0, factionResolvable(domain.FactionRandom, domain.FactionSoviet))
	assert.Equal(t, 1, factionResolvable(domain.FactionSoviet, domain.FactionSoviet))
	assert.Equal(t, 1, factionResolvable(domain.FactionRandom, domain.FactionRandom))
}
