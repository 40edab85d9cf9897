package scripting_test

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/scripting"
)

// harness is a Manager plus the log it writes to.
type harness struct {
	*scripting.Manager
	logs *observer.ObservedLogs
}

func newHarness(t testing.TB) harness {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	mgr := scripting.NewManager(dice.NewLoggedRoller(dice.NewSeededSource(7), logger), logger)
	t.Cleanup(mgr.Close)
	return harness{Manager: mgr, logs: logs}
}

// scriptDir writes files (name to source) into a fresh directory.
func scriptDir(t testing.TB, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
	}
	return dir
}

func (h harness) call(t testing.TB, scope, hook string, args ...lua.LValue) lua.LValue {
	t.Helper()
	ret, err := h.CallHook(scope, hook, args...)
	require.NoError(t, err)
	return ret
}

func (h harness) logged(level zapcore.Level) bool {
	return h.logs.FilterLevelExact(level).Len() > 0
}

func TestManager_HookResults(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.Load("tactics", scriptDir(t, map[string]string{
		"a_base.lua": `reach = 5`,
		"b_hooks.lua": `
			function sum(a, b) return a + b end
			function get_reach() return reach end
			function nothing() end
		`,
	}), 0))

	cases := []struct {
		hook string
		args []lua.LValue
		want lua.LValue
	}{
		{"sum", []lua.LValue{lua.LNumber(3), lua.LNumber(4)}, lua.LNumber(7)},
		{"get_reach", nil, lua.LNumber(5)},
		{"nothing", nil, lua.LNil},
		{"undefined_hook", nil, lua.LNil},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, h.call(t, "tactics", tc.hook, tc.args...), tc.hook)
	}
}

func TestManager_UnknownScopeLogsInfo(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, lua.LNil, h.call(t, "nowhere", "anything"))
	assert.True(t, h.logged(zap.InfoLevel))
}

func TestManager_RuntimeErrorIsSwallowed(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.Load("tactics", scriptDir(t, map[string]string{
		"bad.lua": `function explode() error("kaboom") end`,
	}), 0))
	assert.Equal(t, lua.LNil, h.call(t, "tactics", "explode"))
	assert.True(t, h.logged(zap.WarnLevel))
}

func TestManager_GlobalFallback(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.LoadGlobal(scriptDir(t, map[string]string{
		"shared.lua": `function answer() return 42 end`,
	}), 0))
	require.NoError(t, h.Load("own", scriptDir(t, map[string]string{
		"own.lua": `function answer() return 1 end`,
	}), 0))

	assert.Equal(t, lua.LNumber(42), h.call(t, "unloaded", "answer"))
	assert.Equal(t, lua.LNumber(1), h.call(t, "own", "answer"), "a loaded scope shadows the global VM")
}

func TestManager_LoadFailures(t *testing.T) {
	h := newHarness(t)
	assert.Error(t, h.Load("broken", scriptDir(t, map[string]string{"x.lua": `not lua @@`}), 0))
	assert.Error(t, h.Load("absent", filepath.Join(t.TempDir(), "missing"), 0))
	assert.Equal(t, lua.LNil, h.call(t, "broken", "anything"), "failed load registers nothing")
}

func TestManager_EmptyDirAndNonLuaFiles(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.Load("quiet", scriptDir(t, map[string]string{
		"README.md": `function trap() return 1 end`,
	}), 0))
	assert.Equal(t, lua.LNil, h.call(t, "quiet", "trap"))
}

func TestManager_ReloadReplacesScope(t *testing.T) {
	h := newHarness(t)
	for v := 1; v <= 2; v++ {
		src := map[string]string{"v.lua": "function version() return " + strconv.Itoa(v) + " end"}
		require.NoError(t, h.Load("tactics", scriptDir(t, src), 0))
	}
	assert.Equal(t, lua.LNumber(2), h.call(t, "tactics", "version"))
}

func TestManager_CloseDropsScopes(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.Load("gone", scriptDir(t, map[string]string{
		"init.lua": `function ping() return 1 end`,
	}), 0))
	h.Close()
	assert.Equal(t, lua.LNil, h.call(t, "gone", "ping"))
}

func TestManager_PerCallBudget(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.Load("budget", scriptDir(t, map[string]string{
		"loop.lua": `
			function count_to(n)
				local x = 0
				for i = 1, n do x = x + 1 end
				return x
			end
		`,
	}), 500))

	for i := 0; i < 20; i++ {
		assert.Equal(t, lua.LNumber(10), h.call(t, "budget", "count_to", lua.LNumber(10)))
	}
	assert.Equal(t, lua.LNil, h.call(t, "budget", "count_to", lua.LNumber(100000)))
	assert.True(t, h.logged(zap.WarnLevel))
	assert.Equal(t, lua.LNumber(3), h.call(t, "budget", "count_to", lua.LNumber(3)), "VM usable after cut-off")
}

func TestManager_ConcurrentCallsSameScope(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.Load("shared", scriptDir(t, map[string]string{
		"hooks.lua": `function double(n) return n * 2 end`,
	}), 0))

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				ret, err := h.CallHook("shared", "double", lua.LNumber(g))
				assert.NoError(t, err)
				assert.Equal(t, lua.LNumber(2*g), ret)
			}
		}(g)
	}
	wg.Wait()
}

func TestNewManager_RequiresCollaborators(t *testing.T) {
	roller := dice.NewLoggedRoller(dice.NewSeededSource(1), zap.NewNop())
	assert.Panics(t, func() { scripting.NewManager(nil, zap.NewNop()) })
	assert.Panics(t, func() { scripting.NewManager(roller, nil) })
}

func TestManager_PropertyMissingHooksAreNil(t *testing.T) {
	h := newHarness(t)
	rapid.Check(t, func(rt *rapid.T) {
		scope := rapid.StringMatching(`[a-z]{1,10}`).Draw(rt, "scope")
		hook := rapid.StringMatching(`[a-z]{1,10}`).Draw(rt, "hook")
		ret, err := h.CallHook(scope, hook)
		if err != nil || ret != lua.LNil {
			rt.Fatalf("CallHook(%q, %q) = %v, %v", scope, hook, ret, err)
		}
	})
}
