package combat

import (
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

// ResolveAction validates action against state and, when valid, rolls it and
// returns the effects it produces. State is not modified; apply the returned
// effects with ApplyEffects.
//
// The returned error is non-nil only when the action carries a malformed dice
// expression. Game-state problems are reported through OK and Errors.
//
// Precondition: src must be non-nil.
// Postcondition: when OK is false, Effects and Rolls are empty.
func ResolveAction(action Action, state State, src dice.Source) (ActionResolution, error) {
	action = valueOf(action)
	v := ValidateAction(action, state)
	if !v.OK {
		return ActionResolution{OK: false, Action: action, Errors: v.Errors}, nil
	}

	r := &resolution{ActionResolution: ActionResolution{OK: true, Action: action}}
	var err error
	switch a := action.(type) {
	case AttackAction:
		err = r.attack(a, state, src)
	case CastAction:
		err = r.cast(a, state, src)
	case DashAction:
		r.logf("%s dashes.", r.selfCondition(a, state))
	case DodgeAction:
		r.logf("%s takes the Dodge action.", r.selfCondition(a, state))
	case DisengageAction:
		r.logf("%s disengages.", r.selfCondition(a, state))
	case HideAction:
		r.logf("%s hides.", r.selfCondition(a, state))
	case ReadyAction:
		name := r.selfCondition(a, state)
		if a.Trigger != "" {
			r.logf("%s readies an action (%s).", name, a.Trigger)
		} else {
			r.logf("%s readies an action.", name)
		}
	case HelpAction:
		r.help(a, state)
	case UseObjectAction:
		actor := state.Participants[a.ActorID]
		if a.Object != "" {
			r.logf("%s uses %s.", actor.Name, a.Object)
		} else {
			r.logf("%s uses an object.", actor.Name)
		}
	}
	if err != nil {
		return ActionResolution{}, err
	}
	return r.ActionResolution, nil
}

// resolution accumulates effects, rolls, and log lines for one action.
type resolution struct {
	ActionResolution
}

func (r *resolution) emit(e Effect) { r.Effects = append(r.Effects, e) }

func (r *resolution) roll(s RollSummary) { r.Rolls = append(r.Rolls, s) }

func (r *resolution) logf(format string, args ...any) {
	r.Log = append(r.Log, fmt.Sprintf(format, args...))
}

func (r *resolution) attack(a AttackAction, state State, src dice.Source) error {
	expr, err := dice.Parse(a.Damage)
	if err != nil {
		return fmt.Errorf("resolving attack by %s: %w", a.AttackerID, err)
	}
	attacker := state.Participants[a.AttackerID]
	target := state.Participants[a.TargetID]

	mode := DeriveAttackAdvantage(attacker, target, a.Advantage, !a.Ranged)
	d20 := dice.RollD20WithAdvantage(src, mode)
	total := d20.Chosen + a.AttackBonus
	r.roll(d20Summary(fmt.Sprintf("Attack: %s vs %s", attacker.Name, target.Name), d20, a.AttackBonus))

	check := fmt.Sprintf("roll %d%+d=%d vs AC %d", d20.Chosen, a.AttackBonus, total, target.ArmorClass)
	if total >= target.ArmorClass {
		dmg := r.rollDamage("Damage: "+target.Name, expr, d20.Critical, src)
		r.emit(DamageEffect{TargetID: target.ID, Amount: dmg, DamageType: a.DamageType})
		prefix := ""
		if d20.Critical {
			prefix = "Critical hit! "
		}
		r.logf("%s%s hits %s%s for %s (%s).", prefix, attacker.Name, target.Name, withWeapon(a.Weapon), damageText(dmg, a.DamageType), check)
	} else {
		r.logf("%s misses %s%s (%s).", attacker.Name, target.Name, withWeapon(a.Weapon), check)
	}

	for _, name := range []string{condition.Helped, condition.Hidden} {
		if HasCondition(attacker, name) {
			r.emit(RemoveConditionEffect{TargetID: attacker.ID, Name: name})
		}
	}
	return nil
}

func (r *resolution) cast(a CastAction, state State, src dice.Source) error {
	var expr *dice.Expression
	if a.Damage != "" {
		e, err := dice.Parse(a.Damage)
		if err != nil {
			return fmt.Errorf("resolving spell %q by %s: %w", a.SpellID, a.CasterID, err)
		}
		expr = &e
	}
	caster := state.Participants[a.CasterID]
	spell := a.SpellName
	if spell == "" {
		spell = a.SpellID
	}

	if a.SlotLevel > 0 {
		r.emit(ConsumeSpellSlotEffect{CasterID: caster.ID, Level: a.SlotLevel})
		r.logf("%s casts %s at level %d.", caster.Name, spell, a.SlotLevel)
	} else {
		r.logf("%s casts %s.", caster.Name, spell)
	}
	if a.Concentration {
		if caster.Concentration != nil {
			r.emit(ClearConcentrationEffect{CasterID: caster.ID})
		}
		r.emit(SetConcentrationEffect{CasterID: caster.ID, SpellID: a.SpellID})
	}

	attackBonus, saveDC := 0, 10
	if caster.Spellcasting != nil {
		attackBonus = caster.Spellcasting.AttackBonus
		saveDC = caster.Spellcasting.SaveDC
	}
	if a.Save != nil && a.Save.DC > 0 {
		saveDC = a.Save.DC
	}

	for _, id := range a.TargetIDs {
		target, ok := state.Participants[id]
		if !ok {
			r.logf("%s is not a valid target for %s.", id, spell)
			continue
		}

		critical := false
		if a.Attack != nil {
			mode := DeriveAttackAdvantage(caster, target, a.Attack.Advantage, !a.Attack.Ranged)
			d20 := dice.RollD20WithAdvantage(src, mode)
			total := d20.Chosen + attackBonus
			r.roll(d20Summary(fmt.Sprintf("Spell attack: %s vs %s", spell, target.Name), d20, attackBonus))
			if total < target.ArmorClass {
				r.logf("%s misses %s (roll %d%+d=%d vs AC %d).", spell, target.Name, d20.Chosen, attackBonus, total, target.ArmorClass)
				continue
			}
			critical = d20.Critical
			r.logf("%s hits %s (roll %d%+d=%d vs AC %d).", spell, target.Name, d20.Chosen, attackBonus, total, target.ArmorClass)
		}

		saved := false
		if a.Save != nil {
			bonus := SavingThrowBonus(target, a.Save.Ability)
			d20 := dice.RollD20WithAdvantage(src, dice.Normal)
			total := d20.Chosen + bonus
			saved = total >= saveDC
			r.roll(RollSummary{
				Label:  fmt.Sprintf("%s save: %s", abilityLabel(a.Save.Ability), target.Name),
				Rolls:  d20.Rolls,
				Total:  total,
				Detail: fmt.Sprintf("d20 %d%+d vs DC %d", d20.Chosen, bonus, saveDC),
			})
			outcome := "fails"
			if saved {
				outcome = "succeeds on"
			}
			r.logf("%s %s a DC %d %s save (%d).", target.Name, outcome, saveDC, abilityLabel(a.Save.Ability), total)
		}

		if expr != nil {
			switch {
			case saved && !a.Save.HalfOnSave:
				r.logf("%s takes no damage from %s.", target.Name, spell)
			default:
				dmg := r.rollDamage("Damage: "+target.Name, *expr, critical, src)
				if saved {
					dmg /= 2
				}
				r.emit(DamageEffect{TargetID: target.ID, Amount: dmg, DamageType: a.DamageType})
				r.logf("%s takes %s from %s.", target.Name, damageText(dmg, a.DamageType), spell)
			}
		}

		if a.Condition != nil && (a.Save == nil || !saved) {
			inst := BuildCondition(a.Condition.Name, a.Condition.RemainingRounds, caster.ID)
			r.emit(AddConditionEffect{TargetID: target.ID, Condition: inst})
			r.logf("%s is %s.", target.Name, inst.Name)
		}
	}
	return nil
}

// selfCondition emits the condition a basic action leaves on its actor and
// returns the actor's name.
func (r *resolution) selfCondition(a Action, state State) string {
	actor := state.Participants[a.Actor()]
	grant := selfConditions[a.Kind()]
	r.emit(AddConditionEffect{TargetID: actor.ID, Condition: BuildCondition(grant.name, grant.rounds, actor.ID)})
	return actor.Name
}

func (r *resolution) help(a HelpAction, state State) {
	actor := state.Participants[a.ActorID]
	targetName := a.TargetID
	if t, ok := state.Participants[a.TargetID]; ok {
		targetName = t.Name
	}
	r.emit(AddConditionEffect{TargetID: a.TargetID, Condition: BuildCondition(condition.Helped, condition.Rounds(1), actor.ID)})
	r.logf("%s helps %s.", actor.Name, targetName)
}

// rollDamage rolls expr, doubling the number of dice (not the modifier) on a
// critical. Negative totals count as zero damage.
func (r *resolution) rollDamage(label string, expr dice.Expression, critical bool, src dice.Source) int {
	if critical {
		expr = expr.WithCount(expr.Count * 2)
	}
	res := dice.Roll(expr, src)
	detail := fmt.Sprintf("%dd%d%+d", expr.Count, expr.Sides, expr.Modifier)
	if critical {
		detail += " (critical)"
	}
	total := max(0, res.Total())
	r.roll(RollSummary{Label: label, Rolls: res.Dice, Total: total, Detail: detail})
	return total
}

func d20Summary(label string, d20 dice.D20Roll, bonus int) RollSummary {
	detail := fmt.Sprintf("d20 %d%+d", d20.Chosen, bonus)
	if d20.Mode != dice.Normal {
		detail += " (" + string(d20.Mode) + ")"
	}
	if d20.Critical {
		detail += " critical"
	}
	return RollSummary{Label: label, Rolls: d20.Rolls, Total: d20.Chosen + bonus, Detail: detail}
}

func damageText(amount int, damageType string) string {
	if damageType == "" {
		return fmt.Sprintf("%d damage", amount)
	}
	return fmt.Sprintf("%d %s damage", amount, damageType)
}

func withWeapon(weapon string) string {
	if weapon == "" {
		return ""
	}
	return " with " + weapon
}

func abilityLabel(a Ability) string {
	switch a {
	case Str:
		return "STR"
	case Dex:
		return "DEX"
	case Con:
		return "CON"
	case Int:
		return "INT"
	case Wis:
		return "WIS"
	case Cha:
		return "CHA"
	default:
		return string(a)
	}
}
