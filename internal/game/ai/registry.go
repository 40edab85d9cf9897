package ai

import (
	"fmt"
	"maps"
	"slices"
)

// DefaultDomain is the domain used for participants with no tactics set.
const DefaultDomain = "default"

// Registry holds one Planner per tactics domain, all sharing a script caller
// and scope.
//
// Invariant: each domain ID maps to exactly one Planner.
type Registry struct {
	caller   ScriptCaller
	scope    string
	planners map[string]*Planner
}

// NewRegistry returns an empty Registry whose planners call caller in scope.
//
// Precondition: caller must not be nil.
func NewRegistry(caller ScriptCaller, scope string) *Registry {
	return &Registry{caller: caller, scope: scope, planners: make(map[string]*Planner)}
}

// Add builds a Planner for each domain in order.
//
// Postcondition: on a duplicate ID the error names it and the domains before
// it stay registered.
func (r *Registry) Add(domains ...*Domain) error {
	for _, d := range domains {
		if _, dup := r.planners[d.ID]; dup {
			return fmt.Errorf("ai.Registry: domain %q already registered", d.ID)
		}
		r.planners[d.ID] = NewPlanner(d, r.caller, r.scope)
	}
	return nil
}

// PlannerFor returns the Planner registered under tactics. An empty tactics
// selects DefaultDomain.
func (r *Registry) PlannerFor(tactics string) (*Planner, bool) {
	if tactics == "" {
		tactics = DefaultDomain
	}
	p, ok := r.planners[tactics]
	return p, ok
}

// Resolve is PlannerFor with a fallback to DefaultDomain for unknown tactics.
func (r *Registry) Resolve(tactics string) (*Planner, bool) {
	if p, ok := r.PlannerFor(tactics); ok {
		return p, true
	}
	return r.PlannerFor(DefaultDomain)
}

// IDs returns the registered domain IDs, sorted.
func (r *Registry) IDs() []string {
	return slices.Sorted(maps.Keys(r.planners))
}
