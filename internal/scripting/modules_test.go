package scripting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/scripting"
)

// eval loads src as the only script of a fresh scope and calls hook.
func (h harness) eval(t testing.TB, src, hook string, args ...lua.LValue) lua.LValue {
	t.Helper()
	require.NoError(t, h.Load("modtest", scriptDir(t, map[string]string{"m.lua": src}), 0))
	return h.call(t, "modtest", hook, args...)
}

func TestEngineLog_Levels(t *testing.T) {
	h := newHarness(t)
	h.eval(t, `
		function speak()
			engine.log.debug("d")
			engine.log.info("i")
			engine.log.warn("w")
			engine.log.error("e")
		end
	`, "speak")

	got := map[string]string{}
	for _, e := range h.logs.FilterField(zap.String("source", "lua")).All() {
		got[e.Level.String()] = e.Message
	}
	assert.Equal(t, map[string]string{"debug": "d", "info": "i", "warn": "w", "error": "e"}, got)
}

func TestEngineDice_RollTable(t *testing.T) {
	h := newHarness(t)
	ret := h.eval(t, `
		function roll()
			local r = engine.dice.roll("3d4+2")
			local sum = 0
			for _, v in ipairs(r.rolls) do sum = sum + v end
			return #r.rolls == 3 and sum == r.dice and r.modifier == 2 and r.total
		end
	`, "roll")
	n, ok := ret.(lua.LNumber)
	require.True(t, ok, "expected LNumber, got %v", ret)
	assert.True(t, n >= 5 && n <= 14, "3d4+2 out of range: %v", n)
}

func TestEngineDice_SeededIsDeterministic(t *testing.T) {
	logger := zap.NewNop()
	h := harness{Manager: scripting.NewManager(dice.NewLoggedRoller(dice.NewSeededSource(42), logger), logger)}
	t.Cleanup(h.Close)
	// First seed-42 d20 is 13.
	assert.Equal(t, lua.LNumber(13), h.eval(t, `function d20() return engine.dice.roll("1d20").total end`, "d20"))
}

func TestEngineDice_BadExpressionRaises(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, lua.LNil, h.eval(t, `function bad() return engine.dice.roll("lots") end`, "bad"))
	assert.True(t, h.logged(zap.WarnLevel))
}

func TestEngineDice_HugeCountRaises(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, lua.LNil, h.eval(t, `function flood() return engine.dice.roll("1000000000d6").total end`, "flood"))
	assert.True(t, h.logged(zap.WarnLevel))
}

func TestEngineDice_PropertyTotalIsDicePlusModifier(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.Load("inv", scriptDir(t, map[string]string{"inv.lua": `
		function holds(expr)
			local r = engine.dice.roll(expr)
			return r.total == r.dice + r.modifier
		end
	`}), 0))
	rapid.Check(t, func(rt *rapid.T) {
		expr := rapid.SampledFrom([]string{"1d6", "2d6+1", "1d4-1", "3d8+2", "d20"}).Draw(rt, "expr")
		ret, err := h.CallHook("inv", "holds", lua.LString(expr))
		if err != nil || ret != lua.LTrue {
			rt.Fatalf("%s: %v, %v", expr, ret, err)
		}
	})
}

func TestEngineCombat_WithoutCallbacks(t *testing.T) {
	h := newHarness(t)
	ret := h.eval(t, `
		function probe()
			return tostring(engine.combat.participant("a")) .. ","
				.. tostring(engine.combat.has_condition("a", "prone")) .. ","
				.. #engine.combat.allies("a") .. "," .. #engine.combat.enemies("a")
		end
	`, "probe")
	assert.Equal(t, lua.LString("nil,false,0,0"), ret)
}

func TestEngineCombat_Participant(t *testing.T) {
	h := newHarness(t)
	h.GetParticipant = func(id string) *scripting.ParticipantInfo {
		if id != "a" {
			return nil
		}
		return &scripting.ParticipantInfo{
			ID: "a", Name: "Aria", Side: "party", HP: 12, MaxHP: 24, AC: 16,
			Conditions: []string{"prone", "poisoned"}, Concentrating: true,
		}
	}
	ret := h.eval(t, `
		function describe()
			local p = engine.combat.participant("a")
			return string.format("%s/%s %d/%d ac%d [%s] %s %s",
				p.id, p.side, p.hp, p.max_hp, p.ac, table.concat(p.conditions, "+"),
				tostring(p.concentrating), tostring(engine.combat.participant("zz")))
		end
	`, "describe")
	assert.Equal(t, lua.LString("a/party 12/24 ac16 [prone+poisoned] true nil"), ret)
}

func TestEngineCombat_HasCondition(t *testing.T) {
	h := newHarness(t)
	h.GetParticipant = func(id string) *scripting.ParticipantInfo {
		return &scripting.ParticipantInfo{ID: id, Conditions: []string{"prone"}}
	}
	require.NoError(t, h.Load("conds", scriptDir(t, map[string]string{
		"c.lua": `function has(id, name) return engine.combat.has_condition(id, name) end`,
	}), 0))
	assert.Equal(t, lua.LTrue, h.call(t, "conds", "has", lua.LString("a"), lua.LString("prone")))
	assert.Equal(t, lua.LFalse, h.call(t, "conds", "has", lua.LString("a"), lua.LString("stunned")))
	assert.Equal(t, lua.LTrue, h.call(t, "conds", "has", lua.LString("a"), lua.LString("Prone")))
}

func TestEngineCombat_Sides(t *testing.T) {
	h := newHarness(t)
	h.Enemies = func(string) []string { return []string{"g1", "g2"} }
	h.Allies = func(string) []string { return []string{"b"} }
	ret := h.eval(t, `
		function sides()
			return table.concat(engine.combat.enemies("a"), ",") .. "|" .. table.concat(engine.combat.allies("a"), ",")
		end
	`, "sides")
	assert.Equal(t, lua.LString("g1,g2|b"), ret)
}
