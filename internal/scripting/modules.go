package scripting

import (
	"slices"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers the engine table and its submodules into L:
//
//	engine.log.debug|info|warn|error(msg)
//	engine.dice.roll(expr)            -> {total, dice, modifier, rolls}
//	engine.combat.participant(id)     -> table or nil
//	engine.combat.has_condition(id, name) -> bool, name case-insensitive
//	engine.combat.allies(id)          -> array of ids
//	engine.combat.enemies(id)         -> array of ids
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetField(engine, "log", m.logModule(L))
	L.SetField(engine, "dice", m.diceModule(L))
	L.SetField(engine, "combat", m.combatModule(L))
	L.SetGlobal("engine", engine)
}

func (m *Manager) logModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	levels := map[string]func(string, ...zap.Field){
		"debug": m.logger.Debug,
		"info":  m.logger.Info,
		"warn":  m.logger.Warn,
		"error": m.logger.Error,
	}
	for name, fn := range levels {
		L.SetField(mod, name, L.NewFunction(func(L *lua.LState) int {
			fn(L.CheckString(1), zap.String("source", "lua"))
			return 0
		}))
	}
	return mod
}

func (m *Manager) diceModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	L.SetField(mod, "roll", L.NewFunction(func(L *lua.LState) int {
		expr := L.CheckString(1)
		res, err := m.roller.RollExpr(expr)
		if err != nil {
			L.RaiseError("engine.dice.roll: %s", err.Error())
			return 0
		}
		sum := 0
		rolls := L.NewTable()
		for _, d := range res.Dice {
			sum += d
			rolls.Append(lua.LNumber(d))
		}
		t := L.NewTable()
		t.RawSetString("total", lua.LNumber(res.Total()))
		t.RawSetString("dice", lua.LNumber(sum))
		t.RawSetString("modifier", lua.LNumber(res.Modifier))
		t.RawSetString("rolls", rolls)
		L.Push(t)
		return 1
	}))
	return mod
}

func (m *Manager) combatModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	L.SetField(mod, "participant", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		if m.GetParticipant == nil {
			L.Push(lua.LNil)
			return 1
		}
		info := m.GetParticipant(id)
		if info == nil {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(participantToTable(L, info))
		return 1
	}))
	L.SetField(mod, "has_condition", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		name := L.CheckString(2)
		if m.GetParticipant == nil {
			L.Push(lua.LFalse)
			return 1
		}
		info := m.GetParticipant(id)
		found := info != nil && slices.ContainsFunc(info.Conditions, func(c string) bool {
			return strings.EqualFold(c, name)
		})
		L.Push(lua.LBool(found))
		return 1
	}))
	L.SetField(mod, "allies", L.NewFunction(func(L *lua.LState) int {
		L.Push(idList(L, m.Allies, L.CheckString(1)))
		return 1
	}))
	L.SetField(mod, "enemies", L.NewFunction(func(L *lua.LState) int {
		L.Push(idList(L, m.Enemies, L.CheckString(1)))
		return 1
	}))
	return mod
}

func idList(L *lua.LState, fn func(string) []string, id string) *lua.LTable {
	t := L.NewTable()
	if fn == nil {
		return t
	}
	for _, v := range fn(id) {
		t.Append(lua.LString(v))
	}
	return t
}

func participantToTable(L *lua.LState, p *ParticipantInfo) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("id", lua.LString(p.ID))
	t.RawSetString("name", lua.LString(p.Name))
	t.RawSetString("side", lua.LString(p.Side))
	t.RawSetString("hp", lua.LNumber(p.HP))
	t.RawSetString("max_hp", lua.LNumber(p.MaxHP))
	t.RawSetString("ac", lua.LNumber(p.AC))
	t.RawSetString("concentrating", lua.LBool(p.Concentrating))
	conds := L.NewTable()
	for _, c := range p.Conditions {
		conds.Append(lua.LString(c))
	}
	t.RawSetString("conditions", conds)
	return t
}
