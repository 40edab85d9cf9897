package combat

import "fmt"

// ValidateAction checks action against state without rolling anything.
// Pointer variants such as *DodgeAction are treated as their values.
//
// Postcondition: OK is true iff Errors is empty.
func ValidateAction(action Action, state State) ActionValidation {
	var errs []string
	action = valueOf(action)
	switch a := action.(type) {
	case AttackAction:
		attacker, ok := state.Participants[a.AttackerID]
		if !ok {
			errs = append(errs, fmt.Sprintf("Attacker not found: %s", a.AttackerID))
		} else if !attacker.CanAct() {
			errs = append(errs, fmt.Sprintf("%s cannot act", attacker.Name))
		}
		if _, ok := state.Participants[a.TargetID]; !ok {
			errs = append(errs, fmt.Sprintf("Target not found: %s", a.TargetID))
		}

	case CastAction:
		caster, ok := state.Participants[a.CasterID]
		if !ok {
			errs = append(errs, fmt.Sprintf("Caster not found: %s", a.CasterID))
		} else {
			if !caster.CanAct() {
				errs = append(errs, fmt.Sprintf("%s cannot act", caster.Name))
			}
			if a.SlotLevel > 0 {
				errs = append(errs, slotErrors(caster, a.SlotLevel)...)
			}
		}
		if len(a.TargetIDs) == 0 {
			errs = append(errs, "Spell requires at least one target")
		}

	case DashAction, DodgeAction, DisengageAction, HideAction, HelpAction, ReadyAction, UseObjectAction:
		actor, ok := state.Participants[action.Actor()]
		if !ok {
			errs = append(errs, fmt.Sprintf("Actor not found: %s", action.Actor()))
		} else if !actor.CanAct() {
			errs = append(errs, fmt.Sprintf("%s cannot act", actor.Name))
		}

	default:
		errs = append(errs, "Unknown action type")
	}
	return ActionValidation{OK: len(errs) == 0, Errors: errs}
}

func slotErrors(caster Participant, level int) []string {
	if caster.Spellcasting == nil {
		return []string{fmt.Sprintf("%s cannot cast spells", caster.Name)}
	}
	pool, ok := caster.Spellcasting.Slots[level]
	if !ok || !pool.Available() {
		return []string{fmt.Sprintf("No level %d spell slot available", level)}
	}
	return nil
}
