// Package encounter hosts live encounters on top of the pure combat rules. It
// owns each encounter's current State and dice.Source, enforces turn order,
// snapshots every step through a SnapshotStore, and can auto-advance idle turns.
package encounter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

var (
	// ErrEncounterNotFound is returned for an id with no live encounter.
	ErrEncounterNotFound = errors.New("encounter not found")
	// ErrEncounterExists is returned by Start and Resume for an id already live.
	ErrEncounterExists = errors.New("encounter already exists")
	// ErrNotYourTurn is returned by Submit when the actor is not the active participant.
	ErrNotYourTurn = errors.New("not the actor's turn")
	// ErrNoSnapshot is returned when the store holds nothing to restore.
	ErrNoSnapshot = errors.New("no snapshot available")
	// ErrNoStore is returned by Undo and Resume on a Service without a store.
	ErrNoStore = errors.New("no snapshot store configured")
)

// Snapshot is one persisted State of an encounter.
type Snapshot struct {
	Seq         int64
	EncounterID string
	Round       int
	TurnIndex   int
	State       combat.State
	CreatedAt   time.Time
}

// SnapshotStore persists encounter states.
type SnapshotStore interface {
	// Save appends state as the newest snapshot and returns its sequence number.
	Save(ctx context.Context, encounterID string, state combat.State) (int64, error)
	// Latest returns the newest snapshot, or ErrNoSnapshot.
	Latest(ctx context.Context, encounterID string) (Snapshot, error)
	// Previous returns the snapshot before the newest, or ErrNoSnapshot.
	Previous(ctx context.Context, encounterID string) (Snapshot, error)
	// DeleteAfter removes every snapshot newer than seq.
	DeleteAfter(ctx context.Context, encounterID string, seq int64) error
	// Delete removes every snapshot of the encounter.
	Delete(ctx context.Context, encounterID string) error
}

// live is one running encounter. All fields are guarded by mu.
type live struct {
	mu    sync.Mutex
	id    string
	state combat.State
	src   dice.Source
	timer *TurnTimer
	// turn counts armTimer calls; a timeout armed for an older turn is ignored.
	turn  uint64
	ended bool
}

// Service manages live encounters keyed by id. All methods are safe for
// concurrent use; calls against the same encounter are serialized.
type Service struct {
	mu          sync.RWMutex
	encounters  map[string]*live
	store       SnapshotStore
	logger      *zap.Logger
	turnTimeout time.Duration

	// OnTimeout, when set, is called after a timed-out turn has been advanced.
	OnTimeout func(id string, state combat.State)
}

// NewService creates a Service. store may be nil to disable snapshots; a
// turnTimeout of zero disables auto-advance.
//
// Precondition: logger must be non-nil.
func NewService(logger *zap.Logger, store SnapshotStore, turnTimeout time.Duration) *Service {
	if logger == nil {
		panic("encounter.NewService: logger must not be nil")
	}
	return &Service{
		encounters:  make(map[string]*live),
		store:       store,
		logger:      logger,
		turnTimeout: turnTimeout,
	}
}

// NewID returns a fresh encounter id.
func NewID() string { return uuid.NewString() }

// Start rolls initiative for state and registers it as encounter id.
//
// Precondition: src must be non-nil and must not be shared with another encounter.
// Postcondition: the encounter is live at round 1; the initial state is snapshotted.
func (s *Service) Start(ctx context.Context, id string, state combat.State, src dice.Source) ([]combat.RollSummary, error) {
	started, rolls := combat.StartEncounter(state, src)
	if err := s.register(ctx, id, started, src); err != nil {
		return nil, err
	}
	s.logger.Info("encounter started",
		zap.String("encounter", id),
		zap.Strings("turn_order", started.TurnOrder),
	)
	return rolls, nil
}

// Resume registers encounter id from its latest snapshot.
//
// Postcondition: the encounter is live with the stored State; nothing is snapshotted.
func (s *Service) Resume(ctx context.Context, id string, src dice.Source) (combat.State, error) {
	if s.store == nil {
		return combat.State{}, ErrNoStore
	}
	snap, err := s.store.Latest(ctx, id)
	if err != nil {
		return combat.State{}, fmt.Errorf("resuming encounter %s: %w", id, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.encounters[id]; exists {
		return combat.State{}, fmt.Errorf("resuming encounter %s: %w", id, ErrEncounterExists)
	}
	e := &live{id: id, state: snap.State, src: src}
	e.mu.Lock()
	s.armTimer(e)
	e.mu.Unlock()
	s.encounters[id] = e
	s.logger.Info("encounter resumed",
		zap.String("encounter", id),
		zap.Int64("seq", snap.Seq),
		zap.Int("round", snap.Round),
	)
	return snap.State.Clone(), nil
}

func (s *Service) register(ctx context.Context, id string, state combat.State, src dice.Source) error {
	s.mu.Lock()
	if _, exists := s.encounters[id]; exists {
		s.mu.Unlock()
		return fmt.Errorf("starting encounter %s: %w", id, ErrEncounterExists)
	}
	e := &live{id: id, state: state, src: src}
	s.encounters[id] = e
	s.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := s.snapshot(ctx, e); err != nil {
		s.mu.Lock()
		delete(s.encounters, id)
		s.mu.Unlock()
		return err
	}
	s.armTimer(e)
	return nil
}

func (s *Service) get(id string) (*live, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.encounters[id]
	if !ok {
		return nil, fmt.Errorf("encounter %s: %w", id, ErrEncounterNotFound)
	}
	return e, nil
}

// Submit resolves action for the active participant and applies its effects.
// An invalid action comes back with OK false and leaves the encounter as it was.
//
// Postcondition: on a valid action the new State, with the resolution's log
// appended, is current and snapshotted. The error is non-nil for an unknown
// encounter, an out-of-turn actor, a malformed dice expression, or a failed
// snapshot.
func (s *Service) Submit(ctx context.Context, id string, action combat.Action) (combat.ActionResolution, error) {
	e, err := s.get(id)
	if err != nil {
		return combat.ActionResolution{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ended {
		return combat.ActionResolution{}, fmt.Errorf("encounter %s: %w", id, ErrEncounterNotFound)
	}

	if action != nil && action.Actor() != e.state.ActiveID() {
		return combat.ActionResolution{}, fmt.Errorf("encounter %s: %s acting on %s's turn: %w",
			id, action.Actor(), e.state.ActiveID(), ErrNotYourTurn)
	}

	res, err := combat.ResolveAction(action, e.state, e.src)
	if err != nil {
		return combat.ActionResolution{}, fmt.Errorf("encounter %s: %w", id, err)
	}
	if !res.OK {
		s.logger.Debug("action rejected",
			zap.String("encounter", id),
			zap.Strings("errors", res.Errors),
		)
		return res, nil
	}

	next := combat.ApplyEffects(e.state, res.Effects, e.src)
	next.Log = append(next.Log, res.Log...)
	prev := e.state
	e.state = next
	if err := s.snapshot(ctx, e); err != nil {
		e.state = prev
		return combat.ActionResolution{}, err
	}
	s.armTimer(e)
	s.logger.Debug("action resolved",
		zap.String("encounter", id),
		zap.String("kind", string(action.Kind())),
		zap.String("actor", action.Actor()),
		zap.Int("effects", len(res.Effects)),
	)
	return res, nil
}

// Advance ends the active participant's turn.
//
// Postcondition: the advanced State is current and snapshotted.
func (s *Service) Advance(ctx context.Context, id string) (combat.State, error) {
	e, err := s.get(id)
	if err != nil {
		return combat.State{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return s.advanceLocked(ctx, e)
}

func (s *Service) advanceLocked(ctx context.Context, e *live) (combat.State, error) {
	if e.ended {
		return combat.State{}, fmt.Errorf("encounter %s: %w", e.id, ErrEncounterNotFound)
	}
	prev := e.state
	e.state = combat.AdvanceTurn(e.state)
	if err := s.snapshot(ctx, e); err != nil {
		e.state = prev
		return combat.State{}, err
	}
	s.armTimer(e)
	return e.state.Clone(), nil
}

// State returns a copy of encounter id's current State.
func (s *Service) State(id string) (combat.State, error) {
	e, err := s.get(id)
	if err != nil {
		return combat.State{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone(), nil
}

// IDs returns the ids of all live encounters.
func (s *Service) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.encounters))
	for id := range s.encounters {
		out = append(out, id)
	}
	return out
}

// Undo restores the snapshot before the current one and discards the newer.
//
// Postcondition: the restored State is current; on error nothing changes.
func (s *Service) Undo(ctx context.Context, id string) (combat.State, error) {
	if s.store == nil {
		return combat.State{}, ErrNoStore
	}
	e, err := s.get(id)
	if err != nil {
		return combat.State{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	snap, err := s.store.Previous(ctx, id)
	if err != nil {
		return combat.State{}, fmt.Errorf("undoing encounter %s: %w", id, err)
	}
	if err := s.store.DeleteAfter(ctx, id, snap.Seq); err != nil {
		return combat.State{}, fmt.Errorf("undoing encounter %s: %w", id, err)
	}
	e.state = snap.State
	s.armTimer(e)
	s.logger.Info("encounter undone",
		zap.String("encounter", id),
		zap.Int64("seq", snap.Seq),
	)
	return e.state.Clone(), nil
}

// End stops encounter id and returns its final State. Stored snapshots are kept.
func (s *Service) End(ctx context.Context, id string) (combat.State, error) {
	s.mu.Lock()
	e, ok := s.encounters[id]
	if ok {
		delete(s.encounters, id)
	}
	s.mu.Unlock()
	if !ok {
		return combat.State{}, fmt.Errorf("encounter %s: %w", id, ErrEncounterNotFound)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.ended = true
	if e.timer != nil {
		e.timer.Stop()
	}
	s.logger.Info("encounter ended",
		zap.String("encounter", id),
		zap.Int("round", e.state.Round),
	)
	return e.state.Clone(), nil
}

// snapshot saves e.state when a store is configured.
//
// Precondition: e.mu is held.
func (s *Service) snapshot(ctx context.Context, e *live) error {
	if s.store == nil {
		return nil
	}
	if _, err := s.store.Save(ctx, e.id, e.state); err != nil {
		return fmt.Errorf("snapshotting encounter %s: %w", e.id, err)
	}
	return nil
}

// armTimer restarts e's turn timer when auto-advance is enabled.
//
// Precondition: e.mu is held.
func (s *Service) armTimer(e *live) {
	if s.turnTimeout <= 0 || len(e.state.TurnOrder) == 0 {
		return
	}
	e.turn++
	turn := e.turn
	onFire := func() { s.timeout(e, turn) }
	if e.timer == nil {
		e.timer = NewTurnTimer(s.turnTimeout, onFire)
		return
	}
	e.timer.Reset(s.turnTimeout, onFire)
}

// timeout advances e when the turn armed as turn is still current.
func (s *Service) timeout(e *live, turn uint64) {
	e.mu.Lock()
	if e.ended || e.turn != turn {
		e.mu.Unlock()
		return
	}
	idle := e.state.ActiveID()
	state, err := s.advanceLocked(context.Background(), e)
	e.mu.Unlock()
	if err != nil {
		s.logger.Warn("turn timeout advance failed", zap.String("encounter", e.id), zap.Error(err))
		return
	}
	s.logger.Info("turn timed out",
		zap.String("encounter", e.id),
		zap.String("participant", idle),
		zap.Int("round", state.Round),
	)
	if s.OnTimeout != nil {
		s.OnTimeout(e.id, state)
	}
}
