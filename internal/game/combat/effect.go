package combat

import "github.com/cory-johannsen/skirmish/internal/game/condition"

// Effect is one atomic state change produced by ResolveAction and consumed by
// ApplyEffects. The set of variants is closed.
type Effect interface {
	isEffect()
}

// DamageEffect removes hit points; a concentrating target may lose concentration.
type DamageEffect struct {
	TargetID   string
	Amount     int
	DamageType string
}

// HealEffect restores hit points up to the target's maximum.
type HealEffect struct {
	TargetID string
	Amount   int
}

// AddConditionEffect appends a condition instance to the target.
type AddConditionEffect struct {
	TargetID  string
	Condition condition.Instance
}

// RemoveConditionEffect removes every condition with the given name from the target.
type RemoveConditionEffect struct {
	TargetID string
	Name     string
}

// ConsumeSpellSlotEffect spends one slot of Level.
type ConsumeSpellSlotEffect struct {
	CasterID string
	Level    int
}

// SetConcentrationEffect starts concentration on SpellID in the current round.
type SetConcentrationEffect struct {
	CasterID string
	SpellID  string
}

// ClearConcentrationEffect ends the caster's concentration.
type ClearConcentrationEffect struct {
	CasterID string
}

// LogEffect appends Message to the state log.
type LogEffect struct {
	Message string
}

func (DamageEffect) isEffect()             {}
func (HealEffect) isEffect()               {}
func (AddConditionEffect) isEffect()       {}
func (RemoveConditionEffect) isEffect()    {}
func (ConsumeSpellSlotEffect) isEffect()   {}
func (SetConcentrationEffect) isEffect()   {}
func (ClearConcentrationEffect) isEffect() {}
func (LogEffect) isEffect()                {}
