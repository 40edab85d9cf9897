package ai_test

import (
	"testing"

	lua "github.com/yuin/gopher-lua"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/ai"
)

// mockScriptCaller always returns the given value for any hook call.
type mockScriptCaller struct {
	returnVal lua.LValue
	calls     []string
}

func (m *mockScriptCaller) CallHook(scope, hook string, args ...lua.LValue) (lua.LValue, error) {
	m.calls = append(m.calls, hook)
	if m.returnVal == nil {
		return lua.LNil, nil
	}
	return m.returnVal, nil
}

func bruteDomain() *ai.Domain {
	return &ai.Domain{
		ID: "brute",
		Tasks: []*ai.Task{
			{ID: "behave"},
			{ID: "fight"},
		},
		Methods: []*ai.Method{
			{TaskID: "behave", ID: "combat_mode", Precondition: "has_enemy", Subtasks: []string{"fight"}},
			{TaskID: "behave", ID: "idle_mode", Precondition: "", Subtasks: []string{"do_dodge"}},
			{TaskID: "fight", ID: "attack_any", Precondition: "", Subtasks: []string{"attack_enemy", "do_dodge"}},
		},
		Operators: []*ai.Operator{
			{ID: "attack_enemy", Action: "attack", Target: "nearest_enemy"},
			{ID: "do_dodge", Action: "dodge", Target: "self"},
		},
	}
}

func duel() *ai.WorldState {
	ws := &ai.WorldState{
		Combatants: []*ai.CombatantState{
			{ID: "n1", Side: "monsters", Name: "Brute", HP: 20, MaxHP: 20},
			{ID: "p1", Side: "party", Name: "Player", HP: 20, MaxHP: 20},
		},
	}
	ws.Actor = ws.Combatants[0]
	return ws
}

func TestPlanner_Plan_ProducesAttackWhenPreconditionTrue(t *testing.T) {
	caller := &mockScriptCaller{returnVal: lua.LTrue}
	planner := ai.NewPlanner(bruteDomain(), caller, "tactics")

	actions, err := planner.Plan(duel())
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(actions) != 2 {
		t.Fatalf("expected attack then dodge, got %v", actions)
	}
	if actions[0].Action != "attack" || actions[0].Target != "p1" {
		t.Fatalf("expected attack on p1, got %+v", actions[0])
	}
	if actions[0].Operator == nil || actions[0].Operator.ID != "attack_enemy" {
		t.Fatalf("expected operator attack_enemy, got %+v", actions[0].Operator)
	}
	if len(caller.calls) != 1 || caller.calls[0] != "has_enemy" {
		t.Fatalf("expected one has_enemy call, got %v", caller.calls)
	}
}

func TestPlanner_Plan_FallsBackWhenPreconditionFalse(t *testing.T) {
	planner := ai.NewPlanner(bruteDomain(), &mockScriptCaller{returnVal: lua.LFalse}, "tactics")

	actions, err := planner.Plan(duel())
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(actions) != 1 || actions[0].Action != "dodge" || actions[0].Target != "n1" {
		t.Fatalf("expected dodge fallback, got %v", actions)
	}
}

func TestPlanner_Plan_DoesNotMutateDomain(t *testing.T) {
	domain := bruteDomain()
	planner := ai.NewPlanner(domain, &mockScriptCaller{returnVal: lua.LTrue}, "tactics")
	for i := 0; i < 3; i++ {
		if _, err := planner.Plan(duel()); err != nil {
			t.Fatalf("Plan: %v", err)
		}
	}
	subtasks := domain.MethodsForTask("fight")[0].Subtasks
	if len(subtasks) != 2 || subtasks[0] != "attack_enemy" || subtasks[1] != "do_dodge" {
		t.Fatalf("domain subtasks changed: %v", subtasks)
	}
}

func TestPlanner_Plan_RequiresActor(t *testing.T) {
	planner := ai.NewPlanner(bruteDomain(), &mockScriptCaller{}, "tactics")
	if _, err := planner.Plan(&ai.WorldState{}); err == nil {
		t.Fatal("expected error without actor")
	}
}

func TestPlanner_Plan_EmptyDomainReturnsEmpty(t *testing.T) {
	domain := &ai.Domain{
		ID:    "empty",
		Tasks: []*ai.Task{{ID: "behave"}},
	}
	planner := ai.NewPlanner(domain, &mockScriptCaller{}, "tactics")
	actions, err := planner.Plan(duel())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if actions == nil || len(actions) != 0 {
		t.Fatalf("expected empty non-nil plan, got %v", actions)
	}
}

func TestPlanner_Plan_StepBudget(t *testing.T) {
	// behave -> behave behave: unbounded without the step budget.
	loop := &ai.Domain{
		ID:      "loop",
		Tasks:   []*ai.Task{{ID: "behave"}},
		Methods: []*ai.Method{{TaskID: "behave", ID: "again", Subtasks: []string{"behave", "behave"}}},
	}
	actions, err := ai.NewPlanner(loop, &mockScriptCaller{}, "tactics").Plan(duel())
	if err != nil || len(actions) != 0 {
		t.Fatalf("Plan = %v, %v", actions, err)
	}

	wide := make([]string, 50)
	for i := range wide {
		wide[i] = "do_dodge"
	}
	flood := &ai.Domain{
		ID:        "flood",
		Tasks:     []*ai.Task{{ID: "behave"}},
		Methods:   []*ai.Method{{TaskID: "behave", ID: "all", Subtasks: wide}},
		Operators: []*ai.Operator{{ID: "do_dodge", Action: "dodge", Target: "self"}},
	}
	actions, err = ai.NewPlanner(flood, &mockScriptCaller{}, "tactics").Plan(duel())
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	// The root task spends the first step.
	if len(actions) != ai.MaxPlanSteps-1 {
		t.Fatalf("expected %d actions, got %d", ai.MaxPlanSteps-1, len(actions))
	}
}

func TestPlanner_Plan_PreconditionGetsActorID(t *testing.T) {
	caller := &recordingCaller{}
	ws := duel()
	if _, err := ai.NewPlanner(bruteDomain(), caller, "tactics").Plan(ws); err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if caller.scope != "tactics" || caller.arg != lua.LString("n1") {
		t.Fatalf("hook called with scope %q arg %v", caller.scope, caller.arg)
	}
}

type recordingCaller struct {
	scope string
	arg   lua.LValue
}

func (r *recordingCaller) CallHook(scope, _ string, args ...lua.LValue) (lua.LValue, error) {
	r.scope, r.arg = scope, args[0]
	return lua.LFalse, nil
}

func TestNewPlanner_PanicsOnNil(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	ai.NewPlanner(nil, &mockScriptCaller{}, "tactics")
}

func TestProperty_Planner_NeverReturnsNilSlice(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		returnTrue := rapid.Bool().Draw(rt, "precond")
		var lv lua.LValue = lua.LFalse
		if returnTrue {
			lv = lua.LTrue
		}
		planner := ai.NewPlanner(bruteDomain(), &mockScriptCaller{returnVal: lv}, "tactics")
		actions, err := planner.Plan(duel())
		if err != nil {
			rt.Fatalf("unexpected error: %v", err)
		}
		if actions == nil {
			rt.Fatal("Plan must return non-nil slice")
		}
	})
}
