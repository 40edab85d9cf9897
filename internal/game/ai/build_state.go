package ai

import (
	"fmt"
	"sort"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/roster"
)

// BuildWorldState snapshots state for the participant actorID. Combatants
// follow the turn order; participants outside it are appended by id.
//
// Precondition: every participant in state has a profile (its side).
// Postcondition: ws.Actor.ID == actorID; all participants are represented.
func BuildWorldState(state combat.State, profiles map[string]roster.Profile, actorID string) (*WorldState, error) {
	if _, ok := state.Participants[actorID]; !ok {
		return nil, fmt.Errorf("ai.BuildWorldState: participant %q not found", actorID)
	}

	ids := make([]string, 0, len(state.Participants))
	seen := make(map[string]bool, len(state.Participants))
	for _, id := range state.TurnOrder {
		if _, ok := state.Participants[id]; ok && !seen[id] {
			ids = append(ids, id)
			seen[id] = true
		}
	}
	var rest []string
	for id := range state.Participants {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	ids = append(ids, rest...)

	ws := &WorldState{Round: state.Round}
	for _, id := range ids {
		p := state.Participants[id]
		c := &CombatantState{
			ID:         p.ID,
			Name:       p.Name,
			Side:       profiles[id].Side,
			HP:         p.HP,
			MaxHP:      p.MaxHP,
			AC:         p.ArmorClass,
			Down:       p.IsDown(),
			Conditions: condition.Names(p.Conditions),
		}
		ws.Combatants = append(ws.Combatants, c)
		if id == actorID {
			ws.Actor = c
		}
	}
	return ws, nil
}
