// Package roster loads encounter rosters from YAML into a combat.State plus
// the per-participant profiles the tactics planner draws actions from.
package roster

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

// Attack is a weapon attack a participant can make.
type Attack struct {
	Name       string `yaml:"name"`
	Bonus      int    `yaml:"bonus"`
	Damage     string `yaml:"damage"`
	DamageType string `yaml:"damage_type"`
	Ranged     bool   `yaml:"ranged"`
}

// Action builds the AttackAction for this attack.
func (a Attack) Action(attackerID, targetID string) combat.AttackAction {
	return combat.AttackAction{
		AttackerID:  attackerID,
		TargetID:    targetID,
		AttackBonus: a.Bonus,
		Damage:      a.Damage,
		DamageType:  a.DamageType,
		Ranged:      a.Ranged,
		Weapon:      a.Name,
	}
}

// SpellSave describes a saving throw a spell forces.
type SpellSave struct {
	Ability    string `yaml:"ability"`
	DC         int    `yaml:"dc"`
	HalfOnSave bool   `yaml:"half_on_save"`
}

// SpellCondition describes a condition a spell inflicts.
type SpellCondition struct {
	Name   string `yaml:"name"`
	Rounds *int   `yaml:"rounds"`
}

// Spell is a spell a participant knows.
type Spell struct {
	ID            string          `yaml:"id"`
	Name          string          `yaml:"name"`
	Level         int             `yaml:"level"`
	Concentration bool            `yaml:"concentration"`
	Attack        bool            `yaml:"attack"`
	Ranged        bool            `yaml:"ranged"`
	Save          *SpellSave      `yaml:"save"`
	Damage        string          `yaml:"damage"`
	DamageType    string          `yaml:"damage_type"`
	Condition     *SpellCondition `yaml:"condition"`
}

// Action builds the CastAction for this spell at its own level.
func (s Spell) Action(casterID string, targetIDs []string) combat.CastAction {
	a := combat.CastAction{
		CasterID:      casterID,
		SpellID:       s.ID,
		SpellName:     s.Name,
		SlotLevel:     s.Level,
		TargetIDs:     append([]string(nil), targetIDs...),
		Concentration: s.Concentration,
		Damage:        s.Damage,
		DamageType:    s.DamageType,
	}
	if s.Attack {
		a.Attack = &combat.SpellAttack{Ranged: s.Ranged}
	}
	if s.Save != nil {
		a.Save = &combat.SpellSave{Ability: combat.Ability(s.Save.Ability), DC: s.Save.DC, HalfOnSave: s.Save.HalfOnSave}
	}
	if s.Condition != nil {
		var rounds *int
		if s.Condition.Rounds != nil {
			rounds = condition.Rounds(*s.Condition.Rounds)
		}
		a.Condition = &combat.ConditionSpec{Name: s.Condition.Name, RemainingRounds: rounds}
	}
	return a
}

// Abilities holds the six ability scores as written in a roster file.
type Abilities struct {
	Str int `yaml:"str"`
	Dex int `yaml:"dex"`
	Con int `yaml:"con"`
	Int int `yaml:"int"`
	Wis int `yaml:"wis"`
	Cha int `yaml:"cha"`
}

// Slots is one spell level's slot budget.
type Slots struct {
	Max  int `yaml:"max"`
	Used int `yaml:"used"`
}

// Spellcasting holds a caster's spell statistics.
type Spellcasting struct {
	SaveDC      int           `yaml:"save_dc"`
	AttackBonus int           `yaml:"attack_bonus"`
	Slots       map[int]Slots `yaml:"slots"`
}

// StartingCondition is a condition a participant enters the encounter with.
type StartingCondition struct {
	Name   string `yaml:"name"`
	Rounds *int   `yaml:"rounds"`
}

// Entry is one participant in a roster file.
type Entry struct {
	ID               string              `yaml:"id"`
	Name             string              `yaml:"name"`
	Side             string              `yaml:"side"`
	HP               *int                `yaml:"hp"` // nil = max_hp
	MaxHP            int                 `yaml:"max_hp"`
	AC               int                 `yaml:"ac"`
	InitiativeBonus  int                 `yaml:"initiative_bonus"`
	Speed            int                 `yaml:"speed"`
	Abilities        Abilities           `yaml:"abilities"`
	Saves            map[string]int      `yaml:"saves"`
	ProficiencyBonus int                 `yaml:"proficiency_bonus"`
	Spellcasting     *Spellcasting       `yaml:"spellcasting"`
	Conditions       []StartingCondition `yaml:"conditions"`
	Attacks          []Attack            `yaml:"attacks"`
	Spells           []Spell             `yaml:"spells"`
	Tactics          string              `yaml:"tactics"` // tactics domain id; empty = planner default
}

// File is the top-level shape of a roster YAML document.
type File struct {
	Name         string  `yaml:"name"`
	Participants []Entry `yaml:"participants"`
}

// Profile is the non-rules data the planner needs about a participant.
type Profile struct {
	ID      string
	Side    string
	Attacks []Attack
	Spells  []Spell
	Tactics string
}

// Roster is a loaded encounter: the starting state and a profile per participant.
type Roster struct {
	Name     string
	State    combat.State
	Profiles map[string]Profile
}

var abilities = map[string]bool{
	string(combat.Str): true, string(combat.Dex): true, string(combat.Con): true,
	string(combat.Int): true, string(combat.Wis): true, string(combat.Cha): true,
}

// Validate checks the entry's invariants.
//
// Postcondition: Returns nil iff ID, Name, and Side are non-empty, MaxHP >= 1,
// 0 <= HP <= MaxHP, every dice string parses, every save key is an ability,
// and every slot level is 1..9 with 0 <= used <= max.
func (e Entry) Validate() error {
	if e.ID == "" {
		return errors.New("participant: id must not be empty")
	}
	if e.Name == "" {
		return fmt.Errorf("participant %q: name must not be empty", e.ID)
	}
	if e.Side == "" {
		return fmt.Errorf("participant %q: side must not be empty", e.ID)
	}
	if e.MaxHP < 1 {
		return fmt.Errorf("participant %q: max_hp must be >= 1", e.ID)
	}
	if e.HP != nil && (*e.HP < 0 || *e.HP > e.MaxHP) {
		return fmt.Errorf("participant %q: hp must be within 0..%d, got %d", e.ID, e.MaxHP, *e.HP)
	}
	for ab := range e.Saves {
		if !abilities[ab] {
			return fmt.Errorf("participant %q: unknown save ability %q", e.ID, ab)
		}
	}
	for _, a := range e.Attacks {
		if _, err := dice.Parse(a.Damage); err != nil {
			return fmt.Errorf("participant %q: attack %q: %w", e.ID, a.Name, err)
		}
	}
	for _, s := range e.Spells {
		if s.ID == "" {
			return fmt.Errorf("participant %q: spell id must not be empty", e.ID)
		}
		if s.Damage != "" {
			if _, err := dice.Parse(s.Damage); err != nil {
				return fmt.Errorf("participant %q: spell %q: %w", e.ID, s.ID, err)
			}
		}
		if s.Save != nil && !abilities[s.Save.Ability] {
			return fmt.Errorf("participant %q: spell %q: unknown save ability %q", e.ID, s.ID, s.Save.Ability)
		}
		if s.Level < 0 || s.Level > 9 {
			return fmt.Errorf("participant %q: spell %q: level must be within 0..9", e.ID, s.ID)
		}
	}
	if e.Spellcasting != nil {
		for level, slots := range e.Spellcasting.Slots {
			if level < 1 || level > 9 {
				return fmt.Errorf("participant %q: slot level must be within 1..9, got %d", e.ID, level)
			}
			if slots.Used < 0 || slots.Used > slots.Max {
				return fmt.Errorf("participant %q: level %d slots used %d exceeds max %d", e.ID, level, slots.Used, slots.Max)
			}
		}
	}
	return nil
}

// Participant converts the entry to a combat.Participant.
//
// Precondition: e.Validate() returned nil.
func (e Entry) Participant() combat.Participant {
	hp := e.MaxHP
	if e.HP != nil {
		hp = *e.HP
	}
	p := combat.Participant{
		ID:               e.ID,
		Name:             e.Name,
		MaxHP:            e.MaxHP,
		HP:               hp,
		ArmorClass:       e.AC,
		InitiativeBonus:  e.InitiativeBonus,
		Speed:            e.Speed,
		Abilities:        combat.Abilities(e.Abilities),
		ProficiencyBonus: e.ProficiencyBonus,
	}
	if len(e.Saves) > 0 {
		p.SavingThrows = make(map[combat.Ability]int, len(e.Saves))
		for ab, v := range e.Saves {
			p.SavingThrows[combat.Ability(ab)] = v
		}
	}
	for _, c := range e.Conditions {
		var rounds *int
		if c.Rounds != nil {
			rounds = condition.Rounds(*c.Rounds)
		}
		p.Conditions = append(p.Conditions, condition.Build(c.Name, rounds, ""))
	}
	if e.Spellcasting != nil {
		sc := &combat.Spellcasting{SaveDC: e.Spellcasting.SaveDC, AttackBonus: e.Spellcasting.AttackBonus}
		if len(e.Spellcasting.Slots) > 0 {
			sc.Slots = make(map[int]combat.SlotPool, len(e.Spellcasting.Slots))
			for level, s := range e.Spellcasting.Slots {
				sc.Slots[level] = combat.SlotPool{Max: s.Max, Used: s.Used}
			}
		}
		p.Spellcasting = sc
	}
	return p
}

// Parse decodes and validates a roster document.
//
// Postcondition: Returns a Roster whose State holds every participant, or an
// error naming the first invalid entry. Unknown YAML keys are rejected.
func Parse(data []byte) (*Roster, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing roster YAML: %w", err)
	}
	if len(f.Participants) == 0 {
		return nil, errors.New("roster has no participants")
	}

	participants := make([]combat.Participant, 0, len(f.Participants))
	profiles := make(map[string]Profile, len(f.Participants))
	for _, e := range f.Participants {
		if err := e.Validate(); err != nil {
			return nil, err
		}
		if _, dup := profiles[e.ID]; dup {
			return nil, fmt.Errorf("participant %q: duplicate id", e.ID)
		}
		participants = append(participants, e.Participant())
		profiles[e.ID] = Profile{ID: e.ID, Side: e.Side, Attacks: e.Attacks, Spells: e.Spells, Tactics: e.Tactics}
	}
	return &Roster{Name: f.Name, State: combat.NewState(participants...), Profiles: profiles}, nil
}

// Load reads and parses the roster file at path.
func Load(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading roster %q: %w", path, err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("loading roster %q: %w", path, err)
	}
	return r, nil
}

// Sides returns the distinct sides in the roster, sorted.
func (r *Roster) Sides() []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range r.Profiles {
		if !seen[p.Side] {
			seen[p.Side] = true
			out = append(out, p.Side)
		}
	}
	sort.Strings(out)
	return out
}

// Standing returns the number of participants per side that still have hit points.
func Standing(state combat.State, profiles map[string]Profile) map[string]int {
	out := map[string]int{}
	for id, prof := range profiles {
		if _, ok := out[prof.Side]; !ok {
			out[prof.Side] = 0
		}
		if p, ok := state.Participants[id]; ok && !p.IsDown() {
			out[prof.Side]++
		}
	}
	return out
}

// Winner returns the only side left standing. decided is false while two or
// more sides still stand; it is true with an empty side when nobody does.
func Winner(state combat.State, profiles map[string]Profile) (side string, decided bool) {
	var standing []string
	for s, n := range Standing(state, profiles) {
		if n > 0 {
			standing = append(standing, s)
		}
	}
	switch len(standing) {
	case 0:
		return "", true
	case 1:
		return standing[0], true
	default:
		return "", false
	}
}
