// Package sim plays whole encounters from a roster with every participant
// driven by its tactics domain.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cory-johannsen/skirmish/internal/game/ai"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/encounter"
	"github.com/cory-johannsen/skirmish/internal/game/roster"
	"github.com/cory-johannsen/skirmish/internal/scripting"
)

// Content is the shared, read-only material every simulated encounter uses.
type Content struct {
	Domains          []*ai.Domain
	ScriptsDir       string // empty = no precondition scripts
	InstructionLimit int
	Catalog          *condition.Catalog // optional
}

// Result summarizes one finished encounter.
type Result struct {
	EncounterID string
	Seed        uint32
	Winner      string // empty on a draw or when undecided
	Decided     bool
	Rounds      int
	Standing    map[string]int
	Initiative  []combat.RollSummary
	Final       combat.State
}

// Simulator runs encounters through an encounter.Service.
//
// Simulator is safe for concurrent Run calls.
type Simulator struct {
	svc       *encounter.Service
	logger    *zap.Logger
	content   Content
	maxRounds int
}

// New creates a Simulator. store may be nil to skip snapshots.
//
// Precondition: logger must be non-nil; maxRounds must be >= 1.
func New(logger *zap.Logger, store encounter.SnapshotStore, content Content, maxRounds int) *Simulator {
	if logger == nil {
		panic("sim.New: logger must not be nil")
	}
	if maxRounds < 1 {
		maxRounds = 1
	}
	return &Simulator{
		svc:       encounter.NewService(logger, store, 0),
		logger:    logger,
		content:   content,
		maxRounds: maxRounds,
	}
}

// Service returns the encounter service the Simulator plays through.
func (s *Simulator) Service() *encounter.Service { return s.svc }

// Describe returns the catalog description of a condition name.
func (s *Simulator) Describe(name string) string {
	if s.content.Catalog == nil {
		return name
	}
	return s.content.Catalog.Describe(name)
}

// source returns the deterministic source for seed, or the cryptographic
// source when seed is zero.
func source(seed uint32) dice.Source {
	if seed == 0 {
		return dice.NewCryptoSource()
	}
	return dice.NewSeededSource(seed)
}

// Run plays one encounter of r to completion: until at most one side stands
// or the round cap passes.
//
// Postcondition: the encounter is ended in the service; its snapshots remain.
func (s *Simulator) Run(ctx context.Context, r *roster.Roster, seed uint32) (Result, error) {
	id := encounter.NewID()
	src := source(seed)
	logger := s.logger.With(zap.String("encounter", id))

	t := &table{profiles: r.Profiles}
	mgr, err := s.scripts(src, logger, t)
	if err != nil {
		return Result{}, err
	}
	defer mgr.Close()

	registry := ai.NewRegistry(mgr, scripting.GlobalScope)
	if err := registry.Add(s.content.Domains...); err != nil {
		return Result{}, err
	}

	rolls, err := s.svc.Start(ctx, id, r.State, src)
	if err != nil {
		return Result{}, err
	}
	ended := false
	defer func() {
		if !ended {
			_, _ = s.svc.End(context.Background(), id)
		}
	}()

	state, err := s.svc.State(id)
	if err != nil {
		return Result{}, err
	}
	for state.Round <= s.maxRounds {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if _, decided := roster.Winner(state, r.Profiles); decided {
			break
		}
		t.state = state

		if actor, ok := state.ActiveParticipant(); ok && actor.CanAct() {
			action := s.choose(registry, state, r.Profiles, actor.ID, logger)
			res, err := s.svc.Submit(ctx, id, action)
			if err != nil {
				return Result{}, err
			}
			if !res.OK {
				logger.Debug("planned action rejected",
					zap.String("actor", actor.ID),
					zap.Strings("errors", res.Errors),
				)
			}
			after, err := s.svc.State(id)
			if err != nil {
				return Result{}, err
			}
			if _, decided := roster.Winner(after, r.Profiles); decided {
				break
			}
		}
		if state, err = s.svc.Advance(ctx, id); err != nil {
			return Result{}, err
		}
	}

	final, err := s.svc.End(ctx, id)
	if err != nil {
		return Result{}, err
	}
	ended = true

	winner, decided := roster.Winner(final, r.Profiles)
	rounds := final.Round
	if rounds > s.maxRounds {
		rounds = s.maxRounds
	}
	logger.Info("encounter finished",
		zap.String("winner", winner),
		zap.Bool("decided", decided),
		zap.Int("round", rounds),
	)
	return Result{
		EncounterID: id,
		Seed:        seed,
		Winner:      winner,
		Decided:     decided,
		Rounds:      rounds,
		Standing:    roster.Standing(final, r.Profiles),
		Initiative:  rolls,
		Final:       final,
	}, nil
}

// choose plans for actorID with its tactics domain, falling back to the
// default domain and then to the Dodge action.
func (s *Simulator) choose(registry *ai.Registry, state combat.State, profiles map[string]roster.Profile, actorID string, logger *zap.Logger) combat.Action {
	profile := profiles[actorID]
	planner, ok := registry.Resolve(profile.Tactics)
	if !ok {
		return combat.DodgeAction{ActorID: actorID}
	}
	ws, err := ai.BuildWorldState(state, profiles, actorID)
	if err != nil {
		logger.Warn("building world state", zap.String("actor", actorID), zap.Error(err))
		return combat.DodgeAction{ActorID: actorID}
	}
	plan, err := planner.Plan(ws)
	if err != nil {
		logger.Warn("planning", zap.String("actor", actorID), zap.Error(err))
	}
	return ai.Choose(plan, state, ws, profile)
}

// scripts builds the encounter's scripting Manager with callbacks reading t.
func (s *Simulator) scripts(src dice.Source, logger *zap.Logger, t *table) (*scripting.Manager, error) {
	mgr := scripting.NewManager(dice.NewLoggedRoller(src, logger), logger)
	mgr.GetParticipant = t.participant
	mgr.Allies = func(id string) []string { return t.sideOf(id, true) }
	mgr.Enemies = func(id string) []string { return t.sideOf(id, false) }
	if s.content.ScriptsDir != "" {
		if err := mgr.LoadGlobal(s.content.ScriptsDir, s.content.InstructionLimit); err != nil {
			mgr.Close()
			return nil, fmt.Errorf("loading tactic scripts: %w", err)
		}
	}
	return mgr, nil
}

// RunMany plays n encounters of r concurrently. Encounter i uses seed
// baseSeed+i, or the cryptographic source when baseSeed is zero.
//
// Postcondition: results are in encounter order; the first error cancels the rest.
func (s *Simulator) RunMany(ctx context.Context, r *roster.Roster, baseSeed uint32, n, workers int) ([]Result, error) {
	if n < 1 {
		return nil, errors.New("sim.RunMany: n must be >= 1")
	}
	results := make([]Result, n)
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i := 0; i < n; i++ {
		seed := uint32(0)
		if baseSeed != 0 {
			seed = baseSeed + uint32(i)
		}
		g.Go(func() error {
			res, err := s.Run(gctx, r, seed)
			if err != nil {
				return fmt.Errorf("encounter %d: %w", i+1, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// table exposes the encounter's current State to Lua callbacks. It is only
// touched by the goroutine running the encounter.
type table struct {
	state    combat.State
	profiles map[string]roster.Profile
}

func (t *table) participant(id string) *scripting.ParticipantInfo {
	p, ok := t.state.Participants[id]
	if !ok {
		return nil
	}
	return &scripting.ParticipantInfo{
		ID:            p.ID,
		Name:          p.Name,
		Side:          t.profiles[id].Side,
		HP:            p.HP,
		MaxHP:         p.MaxHP,
		AC:            p.ArmorClass,
		Conditions:    condition.Names(p.Conditions),
		Concentrating: p.Concentration != nil,
	}
}

// sideOf lists living participants other than id on id's side (allies) or
// on any other side (enemies), sorted by id.
func (t *table) sideOf(id string, allies bool) []string {
	self, ok := t.profiles[id]
	if !ok {
		return nil
	}
	var out []string
	for other, prof := range t.profiles {
		if other == id || (prof.Side == self.Side) != allies {
			continue
		}
		if p, ok := t.state.Participants[other]; ok && !p.IsDown() {
			out = append(out, other)
		}
	}
	sort.Strings(out)
	return out
}
