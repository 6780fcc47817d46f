package queue

import (
	"hash/fnv"
	"math/rand"

	"github.com/jediswimmer/ironcurtain/internal/domain"
)

// factionResolvable scores how deterministically a pairing's faction
// preferences resolve: 0 when no coin-flip is needed (complementary
// specific preferences, or exactly one side random), 1 when a
// tie-break re-roll is required (both same specific faction, or both
// random). scanForPairings prefers score-0 candidates.
func factionResolvable(a, b domain.Faction) int {
	switch {
	case a == domain.FactionRandom && b == domain.FactionRandom:
		return 1
	case a == domain.FactionRandom || b == domain.FactionRandom:
		return 0
	case a != b:
		return 0
	default:
		return 1
	}
}

// resolveFactions assigns concrete factions to a pairing. The
// coin-flip cases are made deterministic by hashing the ordered pair
// of agent ids, so replaying the same pairing identity always yields
// the same assignment.
func resolveFactions(a, b *Entry) (domain.Faction, domain.Faction) {
	prefA, prefB := a.FactionPreference, b.FactionPreference

	switch {
	case prefA == domain.FactionRandom && prefB == domain.FactionRandom:
		if pairHashBit(a.AgentID, b.AgentID) {
			return domain.FactionAllies, domain.FactionSoviet
		}
		return domain.FactionSoviet, domain.FactionAllies

	case prefA == domain.FactionRandom:
		return prefB.Opposite(), prefB

	case prefB == domain.FactionRandom:
		return prefA, prefA.Opposite()

	case prefA == prefB:
		// Both want the same specific faction: re-roll uniformly,
		// deterministic given pairing identity.
		if pairHashBit(a.AgentID, b.AgentID) {
			return prefA, prefA.Opposite()
		}
		return prefA.Opposite(), prefA

	default:
		// Different specific factions: direct assignment.
		return prefA, prefB
	}
}

// pairHashBit derives a deterministic boolean from the ordered pair of
// agent ids, used as the tie-break coin for faction re-rolls.
func pairHashBit(a, b string) bool {
	h := fnv.New64a()
	_, _ = h.Write([]byte(a))
	_, _ = h.Write([]byte("|"))
	_, _ = h.Write([]byte(b))
	return h.Sum64()%2 == 0
}

// chooseMap picks uniformly from pool. An empty pool yields "".
func chooseMap(pool []string, rng *rand.Rand) string {
	if len(pool) == 0 {
		return ""
	}
	return pool[rng.Intn(len(pool))]
}
