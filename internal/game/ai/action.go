package ai

import (
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/roster"
)

// ToAction converts planned into a combat action for ws.Actor using the
// actor's profile. It returns false when the plan step cannot be expressed:
// no target matched, the named attack or spell is unknown, or an attack step
// has no attack to use.
//
// Precondition: ws.Actor must not be nil.
func ToAction(planned PlannedAction, ws *WorldState, profile roster.Profile) (combat.Action, bool) {
	actor := ws.Actor.ID
	var op Operator
	if planned.Operator != nil {
		op = *planned.Operator
	}

	switch combat.ActionKind(planned.Action) {
	case combat.KindAttack:
		if planned.Target == "" {
			return nil, false
		}
		atk, ok := findAttack(profile.Attacks, op.Attack)
		if !ok {
			return nil, false
		}
		return atk.Action(actor, planned.Target), true

	case combat.KindCast:
		if planned.Target == "" {
			return nil, false
		}
		for _, s := range profile.Spells {
			if s.ID == op.Spell {
				return s.Action(actor, []string{planned.Target}), true
			}
		}
		return nil, false

	case combat.KindHelp:
		if planned.Target == "" || planned.Target == actor {
			return nil, false
		}
		return combat.HelpAction{ActorID: actor, TargetID: planned.Target}, true

	case combat.KindDash:
		return combat.DashAction{ActorID: actor}, true
	case combat.KindDodge:
		return combat.DodgeAction{ActorID: actor}, true
	case combat.KindDisengage:
		return combat.DisengageAction{ActorID: actor}, true
	case combat.KindHide:
		return combat.HideAction{ActorID: actor}, true
	case combat.KindReady:
		return combat.ReadyAction{ActorID: actor, Trigger: op.Trigger}, true
	case combat.KindUseObject:
		return combat.UseObjectAction{ActorID: actor, Object: op.Object}, true
	default:
		return nil, false
	}
}

func findAttack(attacks []roster.Attack, name string) (roster.Attack, bool) {
	if len(attacks) == 0 {
		return roster.Attack{}, false
	}
	if name == "" {
		return attacks[0], true
	}
	for _, a := range attacks {
		if a.Name == name {
			return a, true
		}
	}
	return roster.Attack{}, false
}

// Choose returns the first step of plan that converts to an action valid in
// state. When none does, the actor takes the Dodge action.
//
// Postcondition: the returned action is never nil.
func Choose(plan []PlannedAction, state combat.State, ws *WorldState, profile roster.Profile) combat.Action {
	for _, step := range plan {
		a, ok := ToAction(step, ws, profile)
		if !ok {
			continue
		}
		if combat.ValidateAction(a, state).OK {
			return a
		}
	}
	return combat.DodgeAction{ActorID: ws.Actor.ID}
}
