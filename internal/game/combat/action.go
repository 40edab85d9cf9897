package combat

import (
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

// ActionKind identifies an Action variant.
type ActionKind string

const (
	KindAttack    ActionKind = "attack"
	KindCast      ActionKind = "cast"
	KindDash      ActionKind = "dash"
	KindDodge     ActionKind = "dodge"
	KindDisengage ActionKind = "disengage"
	KindHide      ActionKind = "hide"
	KindHelp      ActionKind = "help"
	KindReady     ActionKind = "ready"
	KindUseObject ActionKind = "use-object"
)

// Action is a declared action. The set of variants is closed: only the types
// in this file implement it.
type Action interface {
	// Kind names the variant.
	Kind() ActionKind
	// Actor returns the id of the participant taking the action.
	Actor() string

	isAction()
}

// AttackAction is a weapon attack against one target.
type AttackAction struct {
	AttackerID  string
	TargetID    string
	AttackBonus int
	Damage      string // dice expression, e.g. "1d8+3"
	DamageType  string
	Advantage   dice.Advantage // caller-supplied base mode; zero value is normal
	Ranged      bool           // false = melee
	Weapon      string         // optional, for the log
}

// SpellAttack makes a spell roll an attack against each target.
type SpellAttack struct {
	Advantage dice.Advantage
	Ranged    bool
}

// SpellSave makes each target roll a saving throw.
type SpellSave struct {
	Ability    Ability
	DC         int // 0 = the caster's spell save DC
	HalfOnSave bool
}

// ConditionSpec describes a condition a spell inflicts.
type ConditionSpec struct {
	Name            string
	RemainingRounds *int // nil = until removed
}

// CastAction casts a spell at one or more targets.
type CastAction struct {
	CasterID      string
	SpellID       string
	SpellName     string // optional, for the log; defaults to SpellID
	SlotLevel     int    // 0 = cantrip, no slot consumed
	TargetIDs     []string
	Concentration bool
	Attack        *SpellAttack
	Save          *SpellSave
	Damage        string // optional dice expression
	DamageType    string
	Condition     *ConditionSpec
}

// DashAction doubles movement for the turn.
type DashAction struct{ ActorID string }

// DodgeAction imposes disadvantage on attacks against the actor.
type DodgeAction struct{ ActorID string }

// DisengageAction lets the actor move away without provoking.
type DisengageAction struct{ ActorID string }

// HideAction makes the actor hidden until it attacks.
type HideAction struct{ ActorID string }

// HelpAction grants the target advantage on its next attack.
type HelpAction struct {
	ActorID  string
	TargetID string
}

// ReadyAction holds the actor's action until Trigger happens.
type ReadyAction struct {
	ActorID string
	Trigger string
}

// UseObjectAction interacts with an object. It changes no state.
type UseObjectAction struct {
	ActorID string
	Object  string
}

func (AttackAction) Kind() ActionKind    { return KindAttack }
func (CastAction) Kind() ActionKind      { return KindCast }
func (DashAction) Kind() ActionKind      { return KindDash }
func (DodgeAction) Kind() ActionKind     { return KindDodge }
func (DisengageAction) Kind() ActionKind { return KindDisengage }
func (HideAction) Kind() ActionKind      { return KindHide }
func (HelpAction) Kind() ActionKind      { return KindHelp }
func (ReadyAction) Kind() ActionKind     { return KindReady }
func (UseObjectAction) Kind() ActionKind { return KindUseObject }

func (a AttackAction) Actor() string    { return a.AttackerID }
func (a CastAction) Actor() string      { return a.CasterID }
func (a DashAction) Actor() string      { return a.ActorID }
func (a DodgeAction) Actor() string     { return a.ActorID }
func (a DisengageAction) Actor() string { return a.ActorID }
func (a HideAction) Actor() string      { return a.ActorID }
func (a HelpAction) Actor() string      { return a.ActorID }
func (a ReadyAction) Actor() string     { return a.ActorID }
func (a UseObjectAction) Actor() string { return a.ActorID }

func (AttackAction) isAction()    {}
func (CastAction) isAction()      {}
func (DashAction) isAction()      {}
func (DodgeAction) isAction()     {}
func (DisengageAction) isAction() {}
func (HideAction) isAction()      {}
func (HelpAction) isAction()      {}
func (ReadyAction) isAction()     {}
func (UseObjectAction) isAction() {}

// selfConditions maps the basic actions to the condition they leave on the
// actor, and how many of the actor's end-of-turn ticks it survives.
var selfConditions = map[ActionKind]struct {
	name   string
	rounds *int
}{
	KindDash:      {condition.Dashing, condition.Rounds(2)},
	KindDodge:     {condition.Dodging, condition.Rounds(2)},
	KindDisengage: {condition.Disengaged, condition.Rounds(2)},
	KindHide:      {condition.Hidden, nil},
	KindReady:     {condition.Readying, condition.Rounds(2)},
}

// ActionValidation is the outcome of ValidateAction.
type ActionValidation struct {
	OK     bool
	Errors []string
}

// ActionResolution is the outcome of ResolveAction.
//
// Invariant: when OK is false, Effects and Rolls are empty.
type ActionResolution struct {
	OK      bool
	Action  Action
	Errors  []string
	Effects []Effect
	Rolls   []RollSummary
	Log     []string
}

// valueOf returns the value form of a pointer variant, so *DodgeAction and
// DodgeAction are handled alike. A nil pointer yields nil.
func valueOf(action Action) Action {
	switch a := action.(type) {
	case *AttackAction:
		return deref(a)
	case *CastAction:
		return deref(a)
	case *DashAction:
		return deref(a)
	case *DodgeAction:
		return deref(a)
	case *DisengageAction:
		return deref(a)
	case *HideAction:
		return deref(a)
	case *HelpAction:
		return deref(a)
	case *ReadyAction:
		return deref(a)
	case *UseObjectAction:
		return deref(a)
	}
	return action
}

func deref[T Action](p *T) Action {
	if p == nil {
		return nil
	}
	return *p
}
