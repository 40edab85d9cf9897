// Package combat implements the turn-based combat rules: action validation and
// resolution, effect application, initiative, and round progression.
//
// Every operation is pure. A State goes in and a new State comes out; inputs
// are never modified and the only nondeterminism is the injected dice.Source.
package combat

import (
	"github.com/cory-johannsen/skirmish/internal/game/condition"
)

// Ability names one of the six ability scores.
type Ability string

const (
	Str Ability = "str"
	Dex Ability = "dex"
	Con Ability = "con"
	Int Ability = "int"
	Wis Ability = "wis"
	Cha Ability = "cha"
)

// Abilities holds the six ability scores.
type Abilities struct {
	Str int `json:"str"`
	Dex int `json:"dex"`
	Con int `json:"con"`
	Int int `json:"int"`
	Wis int `json:"wis"`
	Cha int `json:"cha"`
}

// Score returns the score for a. Unknown abilities score 10.
func (a Abilities) Score(ab Ability) int {
	switch ab {
	case Str:
		return a.Str
	case Dex:
		return a.Dex
	case Con:
		return a.Con
	case Int:
		return a.Int
	case Wis:
		return a.Wis
	case Cha:
		return a.Cha
	default:
		return 10
	}
}

// SlotPool is the spell slot budget for one spell level.
//
// Invariant: 0 <= Used <= Max once maintained by ApplyEffects.
type SlotPool struct {
	Max  int `json:"max"`
	Used int `json:"used"`
}

// Available reports whether at least one slot is unused.
func (p SlotPool) Available() bool { return p.Used < p.Max }

// Spellcasting holds a caster's spell statistics.
type Spellcasting struct {
	SaveDC      int              `json:"saveDc"`
	AttackBonus int              `json:"attackBonus"`
	Slots       map[int]SlotPool `json:"slots,omitempty"`
}

// Concentration records the one spell a caster is currently maintaining.
type Concentration struct {
	SpellID      string `json:"spellId"`
	StartedRound int    `json:"startedRound"`
}

// Participant is one combatant.
//
// Invariant: 0 <= HP <= MaxHP once maintained by ApplyEffects.
type Participant struct {
	ID               string               `json:"id"`
	Name             string               `json:"name"`
	MaxHP            int                  `json:"maxHp"`
	HP               int                  `json:"hp"`
	ArmorClass       int                  `json:"armorClass"`
	InitiativeBonus  int                  `json:"initiativeBonus"`
	Speed            int                  `json:"speed"`
	Abilities        Abilities            `json:"abilities"`
	SavingThrows     map[Ability]int      `json:"savingThrows,omitempty"`
	ProficiencyBonus int                  `json:"proficiencyBonus"`
	Conditions       []condition.Instance `json:"conditions"`
	Spellcasting     *Spellcasting        `json:"spellcasting,omitempty"`
	Concentration    *Concentration       `json:"concentration,omitempty"`
}

// IsDown reports whether the participant has no hit points left.
func (p Participant) IsDown() bool { return p.HP <= 0 }

// CanAct reports whether the participant has hit points and carries no
// incapacitating condition.
func (p Participant) CanAct() bool {
	return p.HP > 0 && !condition.Incapacitating(p.Conditions)
}

// Clone returns a deep copy of p.
func (p Participant) Clone() Participant {
	if p.SavingThrows != nil {
		saves := make(map[Ability]int, len(p.SavingThrows))
		for k, v := range p.SavingThrows {
			saves[k] = v
		}
		p.SavingThrows = saves
	}
	p.Conditions = condition.Clone(p.Conditions)
	if p.Spellcasting != nil {
		sc := *p.Spellcasting
		if sc.Slots != nil {
			slots := make(map[int]SlotPool, len(sc.Slots))
			for k, v := range sc.Slots {
				slots[k] = v
			}
			sc.Slots = slots
		}
		p.Spellcasting = &sc
	}
	if p.Concentration != nil {
		c := *p.Concentration
		p.Concentration = &c
	}
	return p
}

// State is the whole rules state of one encounter.
//
// Invariant: every id in TurnOrder is a key of Participants (maintained by
// the caller); ActiveTurnIndex indexes TurnOrder when it is non-empty.
type State struct {
	Round           int                    `json:"round"`
	TurnOrder       []string               `json:"turnOrder"`
	ActiveTurnIndex int                    `json:"activeTurnIndex"`
	Participants    map[string]Participant `json:"participants"`
	Log             []string               `json:"log"`
}

// NewState builds a State holding participants, before initiative is rolled.
func NewState(participants ...Participant) State {
	s := State{Participants: make(map[string]Participant, len(participants))}
	for _, p := range participants {
		s.Participants[p.ID] = p.Clone()
	}
	return s
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := State{
		Round:           s.Round,
		ActiveTurnIndex: s.ActiveTurnIndex,
		TurnOrder:       append([]string(nil), s.TurnOrder...),
		Log:             append([]string(nil), s.Log...),
		Participants:    make(map[string]Participant, len(s.Participants)),
	}
	for id, p := range s.Participants {
		out.Participants[id] = p.Clone()
	}
	return out
}

// Participant returns the participant with id.
func (s State) Participant(id string) (Participant, bool) {
	p, ok := s.Participants[id]
	return p, ok
}

// ActiveID returns the id whose turn it is, or "" before initiative.
func (s State) ActiveID() string {
	if len(s.TurnOrder) == 0 || s.ActiveTurnIndex < 0 || s.ActiveTurnIndex >= len(s.TurnOrder) {
		return ""
	}
	return s.TurnOrder[s.ActiveTurnIndex]
}

// ActiveParticipant returns the participant whose turn it is.
func (s State) ActiveParticipant() (Participant, bool) {
	return s.Participant(s.ActiveID())
}

// RollSummary describes one roll for display. Nothing in the engine reads it back.
type RollSummary struct {
	Label  string `json:"label"`
	Rolls  []int  `json:"rolls"`
	Total  int    `json:"total"`
	Detail string `json:"detail,omitempty"`
}

// AbilityMod computes the standard ability modifier using floor division: floor((score - 10) / 2).
// Postcondition: Returns floor((score - 10) / 2).
func AbilityMod(score int) int {
	diff := score - 10
	if diff < 0 {
		return (diff - 1) / 2
	}
	return diff / 2
}

// SavingThrowBonus returns p's explicit saving throw bonus for ab, falling
// back to the ability modifier when none is recorded.
func SavingThrowBonus(p Participant, ab Ability) int {
	if v, ok := p.SavingThrows[ab]; ok {
		return v
	}
	return AbilityMod(p.Abilities.Score(ab))
}
