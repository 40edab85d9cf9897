// Package condition implements named, possibly time-limited status effects on
// combat participants. Names are compared case-insensitively and duplicates by
// name are allowed: the same condition may be applied more than once.
package condition

import (
	"strings"

	"github.com/google/uuid"
)

// Condition names the rules engine reacts to.
const (
	Blinded       = "blinded"
	Dashing       = "dashing"
	Disengaged    = "disengaged"
	Dodging       = "dodging"
	Helped        = "helped"
	Hidden        = "hidden"
	Incapacitated = "incapacitated"
	Invisible     = "invisible"
	Paralyzed     = "paralyzed"
	Poisoned      = "poisoned"
	Prone         = "prone"
	Readying      = "readying"
	Restrained    = "restrained"
	Stunned       = "stunned"
	Unconscious   = "unconscious"
)

// Instance is one applied condition.
//
// Invariant: Name is lower-case. A nil RemainingRounds means the condition
// lasts until removed.
type Instance struct {
	ID              string `json:"id" yaml:"id"`
	Name            string `json:"name" yaml:"name"`
	RemainingRounds *int   `json:"remainingRounds,omitempty" yaml:"remaining_rounds,omitempty"`
	SourceID        string `json:"sourceId,omitempty" yaml:"source_id,omitempty"`
}

// Rounds returns a pointer to n, for use as Instance.RemainingRounds.
func Rounds(n int) *int { return &n }

// Permanent reports whether the instance never expires on its own.
func (i Instance) Permanent() bool { return i.RemainingRounds == nil }

// Build creates a new Instance with a fresh unique ID and a lower-cased name.
//
// Postcondition: result.Name == strings.ToLower(name); result.ID is unique.
func Build(name string, remainingRounds *int, sourceID string) Instance {
	var rounds *int
	if remainingRounds != nil {
		rounds = Rounds(*remainingRounds)
	}
	return Instance{
		ID:              uuid.NewString(),
		Name:            strings.ToLower(name),
		RemainingRounds: rounds,
		SourceID:        sourceID,
	}
}

// Has reports whether any instance in list is named name, ignoring case.
func Has(list []Instance, name string) bool {
	name = strings.ToLower(name)
	for _, c := range list {
		if strings.ToLower(c.Name) == name {
			return true
		}
	}
	return false
}

// HasAny reports whether list contains any of names.
func HasAny(list []Instance, names ...string) bool {
	for _, n := range names {
		if Has(list, n) {
			return true
		}
	}
	return false
}

// Remove returns a copy of list without any instance named name, ignoring case.
// Every duplicate is removed.
func Remove(list []Instance, name string) []Instance {
	name = strings.ToLower(name)
	out := make([]Instance, 0, len(list))
	for _, c := range list {
		if strings.ToLower(c.Name) != name {
			out = append(out, c)
		}
	}
	return out
}

// Tick applies one end-of-turn to list. Every timed instance loses one round;
// those left at zero or below are returned in expired instead of kept.
// Permanent instances are always kept unchanged.
//
// Postcondition: list is not modified; len(kept)+len(expired) == len(list).
func Tick(list []Instance) (kept, expired []Instance) {
	kept = make([]Instance, 0, len(list))
	for _, c := range list {
		if c.RemainingRounds == nil {
			kept = append(kept, c)
			continue
		}
		c.RemainingRounds = Rounds(*c.RemainingRounds - 1)
		if *c.RemainingRounds <= 0 {
			expired = append(expired, c)
			continue
		}
		kept = append(kept, c)
	}
	return kept, expired
}

// Clone returns a deep copy of list.
func Clone(list []Instance) []Instance {
	if list == nil {
		return nil
	}
	out := make([]Instance, len(list))
	for i, c := range list {
		if c.RemainingRounds != nil {
			c.RemainingRounds = Rounds(*c.RemainingRounds)
		}
		out[i] = c
	}
	return out
}

// Names returns the name of each instance in order.
func Names(list []Instance) []string {
	out := make([]string, len(list))
	for i, c := range list {
		out[i] = c.Name
	}
	return out
}

// Normalize returns inst with its name lower-cased and an ID assigned when
// missing, so instances built by hand satisfy the Instance invariant.
func Normalize(inst Instance) Instance {
	inst.Name = strings.ToLower(inst.Name)
	if inst.ID == "" {
		inst.ID = uuid.NewString()
	}
	if inst.RemainingRounds != nil {
		inst.RemainingRounds = Rounds(*inst.RemainingRounds)
	}
	return inst
}
