package condition

import "github.com/cory-johannsen/skirmish/internal/game/dice"

// Fixed vocabularies consulted by the attack and action-economy rules.
var (
	attackerAdvantage    = []string{Hidden, Invisible, Helped}
	attackerDisadvantage = []string{Blinded, Poisoned, Restrained}
	targetAdvantage      = []string{Paralyzed, Stunned, Unconscious}
	targetDisadvantage   = []string{Dodging}
	incapacitating       = []string{Incapacitated, Paralyzed, Stunned, Unconscious}
)

// AttackVotes lists the advantage votes an attack receives from base and from
// the conditions on both combatants, in a fixed order.
func AttackVotes(attacker, target []Instance, base dice.Advantage, melee bool) []dice.Advantage {
	votes := []dice.Advantage{base}
	if HasAny(attacker, attackerAdvantage...) {
		votes = append(votes, dice.WithAdvantage)
	}
	if HasAny(attacker, attackerDisadvantage...) {
		votes = append(votes, dice.WithDisadvantage)
	}
	if HasAny(target, targetAdvantage...) {
		votes = append(votes, dice.WithAdvantage)
	}
	if HasAny(target, targetDisadvantage...) {
		votes = append(votes, dice.WithDisadvantage)
	}
	if Has(target, Prone) {
		if melee {
			votes = append(votes, dice.WithAdvantage)
		} else {
			votes = append(votes, dice.WithDisadvantage)
		}
	}
	return votes
}

// DeriveAttackAdvantage returns the net roll mode for an attack by a combatant
// carrying attacker against one carrying target.
//
// Postcondition: equivalent to dice.NormalizeAdvantage(AttackVotes(...)...).
func DeriveAttackAdvantage(attacker, target []Instance, base dice.Advantage, melee bool) dice.Advantage {
	return dice.NormalizeAdvantage(AttackVotes(attacker, target, base, melee)...)
}

// Incapacitating reports whether list contains a condition that prevents acting.
func Incapacitating(list []Instance) bool {
	return HasAny(list, incapacitating...)
}
