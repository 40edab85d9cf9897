package combat

import (
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

// BuildCondition creates a condition instance with a fresh id and a lower-cased name.
func BuildCondition(name string, remainingRounds *int, sourceID string) condition.Instance {
	return condition.Build(name, remainingRounds, sourceID)
}

// HasCondition reports whether p carries a condition named name, ignoring case.
func HasCondition(p Participant, name string) bool {
	return condition.Has(p.Conditions, name)
}

// RemoveCondition returns a copy of p without any condition named name.
func RemoveCondition(p Participant, name string) Participant {
	out := p.Clone()
	out.Conditions = condition.Remove(p.Conditions, name)
	return out
}

// TickEndOfTurn returns a copy of p with one round elapsed on each timed
// condition; conditions that run out are dropped.
func TickEndOfTurn(p Participant) Participant {
	out := p.Clone()
	out.Conditions, _ = condition.Tick(p.Conditions)
	return out
}

// DeriveAttackAdvantage returns the roll mode for an attack by attacker on
// target, composing base with both combatants' conditions.
func DeriveAttackAdvantage(attacker, target Participant, base dice.Advantage, melee bool) dice.Advantage {
	return condition.DeriveAttackAdvantage(attacker.Conditions, target.Conditions, base, melee)
}
