package encounter

import (
	"sync"
	"time"
)

// TurnTimer fires a callback after a configurable duration unless stopped.
// It is safe for concurrent use.
type TurnTimer struct {
	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
	gen     uint64
}

// NewTurnTimer creates and starts a timer that calls onFire after duration.
// onFire is called in a separate goroutine.
//
// Precondition: duration > 0; onFire must not be nil.
// Postcondition: Returns a running TurnTimer; onFire will be called unless Stop or Reset is called first.
func NewTurnTimer(duration time.Duration, onFire func()) *TurnTimer {
	tt := &TurnTimer{}
	tt.Reset(duration, onFire)
	return tt
}

// Reset cancels the pending callback and schedules onFire after duration from now.
//
// Precondition: duration > 0; onFire must not be nil.
// Postcondition: only the callback scheduled by the latest Reset can fire.
func (tt *TurnTimer) Reset(duration time.Duration, onFire func()) {
	tt.mu.Lock()
	defer tt.mu.Unlock()
	if tt.timer != nil {
		tt.timer.Stop()
	}
	tt.stopped = false
	tt.gen++
	gen := tt.gen
	tt.timer = time.AfterFunc(duration, func() {
		tt.mu.Lock()
		live := !tt.stopped && tt.gen == gen
		tt.mu.Unlock()
		if live {
			onFire()
		}
	})
}

// Stop prevents the callback from firing. Safe to call multiple times.
//
// Postcondition: onFire will not be called after Stop returns, unless it was already running.
func (tt *TurnTimer) Stop() {
	tt.mu.Lock()
	defer tt.mu.Unlock()
	tt.stopped = true
	if tt.timer != nil {
		tt.timer.Stop()
	}
}
