package combat_test

import (
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
)

// seqSource replays values in order and repeats the last one when exhausted.
type seqSource struct {
	values []float64
	i      int
}

func (s *seqSource) Float64() float64 {
	v := s.values[min(s.i, len(s.values)-1)]
	s.i++
	return v
}

func seq(values ...float64) *seqSource { return &seqSource{values: values} }

// face returns the Source value that makes a die with sides land on n.
func face(n, sides int) float64 {
	return (float64(n) - 0.5) / float64(sides)
}

func d20(n int) float64 { return face(n, 20) }

func fighter(id string) combat.Participant {
	return combat.Participant{
		ID:               id,
		Name:             "Fighter " + id,
		MaxHP:            30,
		HP:               30,
		ArmorClass:       15,
		InitiativeBonus:  2,
		Speed:            30,
		Abilities:        combat.Abilities{Str: 16, Dex: 14, Con: 14, Int: 10, Wis: 10, Cha: 8},
		ProficiencyBonus: 2,
	}
}

func wizard(id string) combat.Participant {
	p := fighter(id)
	p.Name = "Wizard " + id
	p.ArmorClass = 12
	p.Abilities = combat.Abilities{Str: 8, Dex: 14, Con: 12, Int: 16, Wis: 12, Cha: 10}
	p.Spellcasting = &combat.Spellcasting{
		SaveDC:      13,
		AttackBonus: 5,
		Slots: map[int]combat.SlotPool{
			1: {Max: 2, Used: 0},
			2: {Max: 1, Used: 1},
		},
	}
	return p
}

func withConditions(p combat.Participant, names ...string) combat.Participant {
	for _, n := range names {
		p.Conditions = append(p.Conditions, condition.Build(n, nil, ""))
	}
	return p
}

func conditionNames(p combat.Participant) []string {
	return condition.Names(p.Conditions)
}
