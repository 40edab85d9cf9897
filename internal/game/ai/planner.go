package ai

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// RootTask is the task every plan starts from.
const RootTask = "behave"

// ScriptCaller is the interface required by the Planner to evaluate Lua preconditions.
type ScriptCaller interface {
	// CallHook calls a named Lua function in the given scope's VM.
	// Returns (LNil, nil) if the function is not defined.
	CallHook(scope, hook string, args ...lua.LValue) (lua.LValue, error)
}

// PlannedAction is one primitive action produced by the planner.
type PlannedAction struct {
	Operator *Operator
	Action   string // a combat.ActionKind
	Target   string // resolved participant id; empty when the token matched nobody
}

// Planner evaluates an HTN domain for one participant and produces an ordered
// action plan for the current turn.
//
// Invariant: domain and caller must not be nil.
type Planner struct {
	domain *Domain
	caller ScriptCaller
	scope  string
}

// NewPlanner constructs a Planner whose preconditions run in scope.
//
// Precondition: domain and caller must not be nil.
func NewPlanner(domain *Domain, caller ScriptCaller, scope string) *Planner {
	if domain == nil {
		panic("ai.NewPlanner: domain must not be nil")
	}
	if caller == nil {
		panic("ai.NewPlanner: caller must not be nil")
	}
	return &Planner{domain: domain, caller: caller, scope: scope}
}

// Domain returns the planner's domain.
func (p *Planner) Domain() *Domain { return p.domain }

// MaxPlanSteps bounds how many tasks and operators one Plan call may visit.
const MaxPlanSteps = 32

// Plan decomposes RootTask depth-first for state.Actor. Each visited task or
// operator costs one step; once MaxPlanSteps are spent the plan is cut short.
//
// Precondition: state and state.Actor must not be nil.
// Postcondition: returns a non-nil slice, possibly empty. A failing or
// missing precondition hook counts as false rather than an error.
func (p *Planner) Plan(state *WorldState) ([]PlannedAction, error) {
	if state == nil || state.Actor == nil {
		return nil, fmt.Errorf("ai.Planner.Plan: state and state.Actor must not be nil")
	}
	d := decomposition{planner: p, state: state, budget: MaxPlanSteps, plan: []PlannedAction{}}
	d.expand(RootTask)
	return d.plan, nil
}

type decomposition struct {
	planner *Planner
	state   *WorldState
	budget  int
	plan    []PlannedAction
}

func (d *decomposition) expand(task string) {
	if d.budget == 0 {
		return
	}
	d.budget--

	if op, ok := d.planner.domain.OperatorByID(task); ok {
		d.plan = append(d.plan, PlannedAction{
			Operator: op,
			Action:   op.Action,
			Target:   d.state.ResolveTarget(op.Target),
		})
		return
	}
	m := d.planner.method(task, d.state.Actor.ID)
	if m == nil {
		return
	}
	for _, sub := range m.Subtasks {
		d.expand(sub)
	}
}

// method returns the first of task's methods, in declaration order, whose
// precondition hook returns true for actorID. An empty precondition passes.
func (p *Planner) method(task, actorID string) *Method {
	for _, m := range p.domain.MethodsForTask(task) {
		if m.Precondition == "" {
			return m
		}
		if val, _ := p.caller.CallHook(p.scope, m.Precondition, lua.LString(actorID)); val == lua.LTrue {
			return m
		}
	}
	return nil
}
