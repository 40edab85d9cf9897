package ai_test

import (
	"testing"

	"github.com/cory-johannsen/skirmish/internal/game/ai"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/roster"
)

func encounter() (combat.State, map[string]roster.Profile) {
	s := combat.NewState(
		combat.Participant{ID: "a", Name: "Aria", MaxHP: 20, HP: 20, ArmorClass: 16},
		combat.Participant{ID: "g", Name: "Ghoul", MaxHP: 10, HP: 0, ArmorClass: 12},
		combat.Participant{ID: "z", Name: "Zombie", MaxHP: 15, HP: 15, ArmorClass: 8,
			Conditions: []condition.Instance{condition.Build("prone", nil, "")}},
	)
	s.TurnOrder = []string{"z", "a"}
	s.Round = 2
	profiles := map[string]roster.Profile{
		"a": {ID: "a", Side: "party"},
		"g": {ID: "g", Side: "monsters"},
		"z": {ID: "z", Side: "monsters"},
	}
	return s, profiles
}

func TestBuildWorldState_PopulatesCombatants(t *testing.T) {
	s, profiles := encounter()
	ws, err := ai.BuildWorldState(s, profiles, "a")
	if err != nil {
		t.Fatalf("BuildWorldState: %v", err)
	}
	if ws.Actor == nil || ws.Actor.ID != "a" || ws.Actor.Side != "party" {
		t.Fatalf("unexpected actor %+v", ws.Actor)
	}
	if ws.Round != 2 {
		t.Fatalf("expected round 2, got %d", ws.Round)
	}
	var ids []string
	for _, c := range ws.Combatants {
		ids = append(ids, c.ID)
	}
	if len(ids) != 3 || ids[0] != "z" || ids[1] != "a" || ids[2] != "g" {
		t.Fatalf("expected turn order then the rest, got %v", ids)
	}
	if !ws.Combatant("g").Down {
		t.Fatal("expected downed ghoul to be marked Down")
	}
	if c := ws.Combatant("z").Conditions; len(c) != 1 || c[0] != "prone" {
		t.Fatalf("expected prone zombie, got %v", c)
	}
}

func TestBuildWorldState_UnknownActor(t *testing.T) {
	s, profiles := encounter()
	if _, err := ai.BuildWorldState(s, profiles, "nobody"); err == nil {
		t.Fatal("expected error for unknown actor")
	}
}
