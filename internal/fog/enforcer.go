// Package fog projects the authoritative per-tick state into
// per-recipient, visibility-limited views. It is the core's strictest
// correctness surface: every field present in an enemy view must be
// derivable from information an observer at a visible cell can see.
package fog

import (
	"github.com/jediswimmer/ironcurtain/internal/arenaerr"
	"github.com/jediswimmer/ironcurtain/internal/domain"
)

// Enforcer is a pure function of (snapshot, agent identity,
// per-agent frozen store); it has no state of its own beyond the
// Store it is handed.
type Enforcer struct{}

func NewEnforcer() *Enforcer { return &Enforcer{} }

// Filter projects snapshot into agentID's filtered view, updating
// store in place per the frozen-actor algorithm. If snapshot has no
// player record for agentID, it fails with
// arenaerr.ErrUnknownAgentInSnapshot.
func (e *Enforcer) Filter(snapshot domain.StateSnapshot, agentID string, store *Store) (domain.FilteredView, error) {
	player, ok := snapshot.Players[agentID]
	if !ok {
		return domain.FilteredView{}, arenaerr.ErrUnknownAgentInSnapshot
	}

	view := domain.FilteredView{
		Tick:      snapshot.Tick,
		GameTime:  snapshot.GameTime,
		AgentID:   agentID,
		MapWidth:  snapshot.MapWidth,
		MapHeight: snapshot.MapHeight,
	}

	// Own entities: full detail, no filtering.
	for _, u := range snapshot.Units {
		if u.OwnerAgentID == agentID {
			view.OwnUnits = append(view.OwnUnits, domain.OwnUnitView{Unit: u})
		}
	}
	for _, b := range snapshot.Buildings {
		if b.OwnerAgentID == agentID {
			view.OwnBuildings = append(view.OwnBuildings, domain.OwnBuildingView{Building: b})
		}
	}

	// Enemy entities currently visible: restricted projection, and the
	// frozen record is refreshed for each one observed this tick.
	liveEnemyIDs := make(map[domain.EntityID]struct{})

	for _, u := range snapshot.Units {
		if u.OwnerAgentID == agentID {
			continue
		}
		if !player.VisibleCells.Has(u.Position) {
			continue
		}
		view.EnemyUnits = append(view.EnemyUnits, domain.EnemyActorView{
			ID:            u.ID,
			Type:          u.Type,
			Position:      u.Position,
			HealthPercent: u.HealthPercent(),
		})
		liveEnemyIDs[u.ID] = struct{}{}
		store.Upsert(domain.FrozenActor{
			ID:           u.ID,
			Type:         u.Type,
			LastPosition: u.Position,
			LastSeenTick: snapshot.Tick,
		})
	}
	for _, b := range snapshot.Buildings {
		if b.OwnerAgentID == agentID {
			continue
		}
		if !player.VisibleCells.Has(b.Position) {
			continue
		}
		view.EnemyBuildings = append(view.EnemyBuildings, domain.EnemyActorView{
			ID:            b.ID,
			Type:          b.Type,
			Position:      b.Position,
			HealthPercent: b.HealthPercent(),
		})
		liveEnemyIDs[b.ID] = struct{}{}
		store.Upsert(domain.FrozenActor{
			ID:           b.ID,
			Type:         b.Type,
			LastPosition: b.Position,
			LastSeenTick: snapshot.Tick,
		})
	}

	// Frozen actors: a record is removed only when its last-known cell
	// is currently visible AND the actor is confirmed gone from that
	// cell. It is never removed merely because the actor died
	// somewhere in the fog.
	for id, rec := range store.Snapshot() {
		if _, stillLive := liveEnemyIDs[id]; stillLive {
			// already refreshed above; nothing to do.
			continue
		}
		if player.VisibleCells.Has(rec.LastPosition) {
			store.Remove(id)
			continue
		}
		view.FrozenActors = append(view.FrozenActors, rec)
	}

	// Ore fields: only those whose center cell has been explored.
	for _, ore := range snapshot.OreFields {
		if player.ExploredCells.Has(ore.Center) {
			view.OreFields = append(view.OreFields, ore)
		}
	}

	if snapshot.TotalCells > 0 {
		view.ExplorationPercent = (float64(len(player.ExploredCells)) / float64(snapshot.TotalCells)) * 100
	}

	return view, nil
}

// Spectate builds the unfiltered spectator projection of a snapshot;
// no visibility restriction applies.
func Spectate(snapshot domain.StateSnapshot) domain.SpectatorView {
	return domain.SpectatorView{
		Tick:      snapshot.Tick,
		GameTime:  snapshot.GameTime,
		Units:     snapshot.Units,
		Buildings: snapshot.Buildings,
		OreFields: snapshot.OreFields,
	}
}
