// Package scripting provides a sandboxed GopherLua execution environment for
// tactics preconditions and other data-driven hooks. It has no dependency on
// the combat rules; encounter lookups are injected via Manager callback fields.
package scripting

import (
	"context"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the opcode budget used when none is configured.
const DefaultInstructionLimit = 100_000

// budget is a context that cancels itself once Done has been polled n times.
// With a context set, GopherLua polls Done once per opcode, so n bounds the
// opcodes a call may execute.
type budget struct {
	context.Context
	cancel context.CancelFunc
	left   atomic.Int64
}

func newBudget(n int) *budget {
	ctx, cancel := context.WithCancel(context.Background())
	b := &budget{Context: ctx, cancel: cancel}
	b.left.Store(int64(n))
	return b
}

func (b *budget) Done() <-chan struct{} {
	if b.left.Add(-1) <= 0 {
		b.cancel()
	}
	return b.Context.Done()
}

func limitFor(instLimit int) int {
	if instLimit <= 0 {
		return DefaultInstructionLimit
	}
	return instLimit
}

// arm gives L a fresh budget of instLimit opcodes and returns its release func.
func arm(L *lua.LState, instLimit int) context.CancelFunc {
	b := newBudget(limitFor(instLimit))
	L.SetContext(b)
	return b.cancel
}

// safeLibs are the only standard libraries opened in a sandbox.
var safeLibs = []struct {
	name string
	open lua.LGFunction
}{
	{lua.BaseLibName, lua.OpenBase},
	{lua.TabLibName, lua.OpenTable},
	{lua.StringLibName, lua.OpenString},
	{lua.MathLibName, lua.OpenMath},
}

// strippedGlobals are base-library functions that reach outside the sandbox
// or around its environment.
var strippedGlobals = []string{
	"dofile", "loadfile", "load", "loadstring", "require", "module",
	"collectgarbage", "setfenv", "getfenv", "rawequal", "rawset", "rawget",
}

// NewSandboxedState returns an LState with only the base, table, string and
// math libraries, strippedGlobals removed, and an opcode budget of instLimit
// (0 = DefaultInstructionLimit) shared by everything run on it until the next
// arm.
//
// Postcondition: the caller owns the LState and must Close it.
func NewSandboxedState(instLimit int) *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range safeLibs {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	for _, name := range strippedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	arm(L, instLimit)
	return L
}
