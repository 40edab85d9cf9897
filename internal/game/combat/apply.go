package combat

import (
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

// ApplyEffects folds effects over state, left to right, and returns the result.
// Effects naming an unknown participant are skipped.
//
// src drives concentration checks after damage. When src is nil no check is
// rolled and concentration is left alone, which suits damage applied outside
// of combat.
//
// Postcondition: state is not modified; every participant's HP stays within
// [0, MaxHP] and every slot's Used within [0, Max] for any effect sequence.
func ApplyEffects(state State, effects []Effect, src dice.Source) State {
	s := state.Clone()
	for _, e := range effects {
		applyEffect(&s, e, src)
	}
	return s
}

func applyEffect(s *State, e Effect, src dice.Source) {
	switch e := e.(type) {
	case DamageEffect:
		p, ok := s.Participants[e.TargetID]
		if !ok {
			return
		}
		amount := max(0, e.Amount)
		p.HP = max(0, min(p.MaxHP, p.HP-amount))
		if p.Concentration != nil && amount > 0 && src != nil {
			p = concentrationCheck(s, p, amount, src)
		}
		s.Participants[p.ID] = p

	case HealEffect:
		p, ok := s.Participants[e.TargetID]
		if !ok {
			return
		}
		p.HP = max(0, min(p.MaxHP, p.HP+max(0, e.Amount)))
		s.Participants[p.ID] = p

	case AddConditionEffect:
		p, ok := s.Participants[e.TargetID]
		if !ok {
			return
		}
		p.Conditions = append(p.Conditions, condition.Normalize(e.Condition))
		s.Participants[p.ID] = p

	case RemoveConditionEffect:
		p, ok := s.Participants[e.TargetID]
		if !ok {
			return
		}
		p.Conditions = condition.Remove(p.Conditions, e.Name)
		s.Participants[p.ID] = p

	case ConsumeSpellSlotEffect:
		p, ok := s.Participants[e.CasterID]
		if !ok || p.Spellcasting == nil {
			return
		}
		pool, ok := p.Spellcasting.Slots[e.Level]
		if !ok {
			return
		}
		pool.Used = max(0, min(pool.Max, pool.Used+1))
		p.Spellcasting.Slots[e.Level] = pool
		s.Participants[p.ID] = p

	case SetConcentrationEffect:
		p, ok := s.Participants[e.CasterID]
		if !ok {
			return
		}
		p.Concentration = &Concentration{SpellID: e.SpellID, StartedRound: s.Round}
		s.Participants[p.ID] = p

	case ClearConcentrationEffect:
		p, ok := s.Participants[e.CasterID]
		if !ok {
			return
		}
		p.Concentration = nil
		s.Participants[p.ID] = p

	case LogEffect:
		s.Log = append(s.Log, e.Message)
	}
}

// concentrationCheck rolls a CON save against max(10, amount/2) and returns p
// with concentration cleared on a failure. The outcome is logged either way.
func concentrationCheck(s *State, p Participant, amount int, src dice.Source) Participant {
	dc := max(10, amount/2)
	d20 := dice.RollD20WithAdvantage(src, dice.Normal)
	if d20.Chosen+SavingThrowBonus(p, Con) >= dc {
		s.Log = append(s.Log, fmt.Sprintf("%s maintains concentration (DC %d succeeded).", p.Name, dc))
		return p
	}
	p.Concentration = nil
	s.Log = append(s.Log, fmt.Sprintf("%s loses concentration (DC %d failed).", p.Name, dc))
	return p
}
