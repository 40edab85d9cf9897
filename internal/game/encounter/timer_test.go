package encounter_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/skirmish/internal/game/encounter"
)

// fired returns a callback that reports tag on ch without blocking.
func fired(ch chan<- string, tag string) func() {
	return func() {
		select {
		case ch <- tag:
		default:
		}
	}
}

func TestTurnTimer_FiresOnce(t *testing.T) {
	ch := make(chan string, 4)
	encounter.NewTurnTimer(10*time.Millisecond, fired(ch, "turn"))

	select {
	case got := <-ch:
		assert.Equal(t, "turn", got)
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}
	assert.Never(t, func() bool { return len(ch) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestTurnTimer_StopSilences(t *testing.T) {
	ch := make(chan string, 1)
	tt := encounter.NewTurnTimer(20*time.Millisecond, fired(ch, "turn"))
	tt.Stop()
	tt.Stop()
	assert.Never(t, func() bool { return len(ch) > 0 }, 60*time.Millisecond, 5*time.Millisecond)
}

func TestTurnTimer_ResetReplacesCallback(t *testing.T) {
	ch := make(chan string, 4)
	tt := encounter.NewTurnTimer(30*time.Millisecond, fired(ch, "old"))
	tt.Reset(60*time.Millisecond, fired(ch, "new"))

	select {
	case got := <-ch:
		require.Equal(t, "new", got)
	case <-time.After(time.Second):
		t.Fatal("reset timer never fired")
	}
	assert.Empty(t, ch, "superseded callback must not run")
}

func TestTurnTimer_ResetAfterStopRearms(t *testing.T) {
	ch := make(chan string, 1)
	tt := encounter.NewTurnTimer(time.Hour, fired(ch, "never"))
	tt.Stop()
	tt.Reset(10*time.Millisecond, fired(ch, "again"))
	select {
	case got := <-ch:
		assert.Equal(t, "again", got)
	case <-time.After(time.Second):
		t.Fatal("re-armed timer never fired")
	}
}
