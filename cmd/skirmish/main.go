// Package main provides the skirmish simulator: it plays seeded encounters
// from a roster file with tactics-driven participants and prints each
// encounter's log and a summary.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/config"
	"github.com/cory-johannsen/skirmish/internal/game/ai"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/encounter"
	"github.com/cory-johannsen/skirmish/internal/game/roster"
	"github.com/cory-johannsen/skirmish/internal/observability"
	"github.com/cory-johannsen/skirmish/internal/sim"
	"github.com/cory-johannsen/skirmish/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	rosterPath := flag.String("roster", "content/rosters/crypt.yaml", "path to the roster YAML file")
	seed := flag.Uint("seed", 0, "base seed; overrides engine.seed when set (0 = cryptographic source)")
	encounters := flag.Int("encounters", 1, "number of encounters to simulate")
	workers := flag.Int("workers", runtime.NumCPU(), "encounters simulated concurrently")
	persist := flag.Bool("persist", false, "snapshot every step to PostgreSQL")
	listConditions := flag.Bool("conditions", false, "list the condition catalog and exit")
	quiet := flag.Bool("quiet", false, "print only the summary")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	catalog, err := condition.LoadCatalog(cfg.Content.ConditionsDir)
	if err != nil {
		logger.Fatal("loading condition catalog", zap.Error(err))
	}
	if *listConditions {
		printCatalog(os.Stdout, catalog)
		return
	}

	domains, err := ai.LoadDomains(cfg.Content.TacticsDir)
	if err != nil {
		logger.Fatal("loading tactics", zap.Error(err))
	}
	logger.Info("content loaded",
		zap.Int("conditions", len(catalog.All())),
		zap.Int("tactics", len(domains)),
	)

	r, err := roster.Load(*rosterPath)
	if err != nil {
		logger.Fatal("loading roster", zap.Error(err))
	}

	var store encounter.SnapshotStore
	if *persist {
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		defer pool.Close()
		store = pool.Snapshots()
		logger.Info("persisting snapshots", zap.String("host", cfg.Database.Host))
	}

	baseSeed := cfg.Engine.Seed
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			baseSeed = uint32(*seed)
		}
	})

	simulator := sim.New(logger, store, sim.Content{
		Domains:          domains,
		ScriptsDir:       cfg.Content.ScriptsDir,
		InstructionLimit: cfg.Content.ScriptInstructionLimit,
		Catalog:          catalog,
	}, cfg.Engine.MaxRounds)

	results, err := simulator.RunMany(ctx, r, baseSeed, *encounters, *workers)
	if err != nil {
		logger.Fatal("simulating", zap.Error(err))
	}

	if !*quiet {
		for i, res := range results {
			printEncounter(os.Stdout, i+1, res, simulator)
		}
	}
	printSummary(os.Stdout, r, results)
	logger.Info("simulation complete",
		zap.Int("encounters", len(results)),
		zap.Duration("elapsed", time.Since(start)),
	)
}

func printCatalog(w io.Writer, catalog *condition.Catalog) {
	for _, d := range catalog.All() {
		rounds := "until removed"
		if d.DefaultRounds != nil {
			rounds = fmt.Sprintf("%d rounds", *d.DefaultRounds)
		}
		fmt.Fprintf(w, "%-14s %-14s %s\n", d.Name, rounds, d.Description)
	}
}

func printEncounter(w io.Writer, n int, res sim.Result, simulator *sim.Simulator) {
	fmt.Fprintf(w, "=== Encounter %d (%s, seed %d) ===\n", n, res.EncounterID, res.Seed)
	for _, roll := range res.Initiative {
		fmt.Fprintf(w, "  %s: %d (%s)\n", roll.Label, roll.Total, roll.Detail)
	}
	for _, line := range res.Final.Log {
		fmt.Fprintf(w, "  %s\n", line)
	}

	ids := make([]string, 0, len(res.Final.Participants))
	for id := range res.Final.Participants {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	fmt.Fprintln(w, "  --")
	for _, id := range ids {
		p := res.Final.Participants[id]
		fmt.Fprintf(w, "  %-16s %3d/%-3d", p.Name, p.HP, p.MaxHP)
		if names := condition.Names(p.Conditions); len(names) > 0 {
			described := make([]string, len(names))
			for i, name := range names {
				described[i] = name + ": " + simulator.Describe(name)
			}
			fmt.Fprintf(w, "  [%s]", strings.Join(described, "; "))
		}
		fmt.Fprintln(w)
	}
	switch {
	case !res.Decided:
		fmt.Fprintf(w, "  No winner after %d rounds.\n\n", res.Rounds)
	case res.Winner == "":
		fmt.Fprintf(w, "  Nobody left standing after %d rounds.\n\n", res.Rounds)
	default:
		fmt.Fprintf(w, "  %s wins in %d rounds.\n\n", res.Winner, res.Rounds)
	}
}

func printSummary(w io.Writer, r *roster.Roster, results []sim.Result) {
	wins := map[string]int{}
	draws := 0
	rounds := 0
	for _, res := range results {
		rounds += res.Rounds
		if res.Decided && res.Winner != "" {
			wins[res.Winner]++
		} else {
			draws++
		}
	}
	fmt.Fprintf(w, "%s: %d encounters, %.1f rounds on average\n",
		r.Name, len(results), float64(rounds)/float64(len(results)))
	for _, side := range r.Sides() {
		fmt.Fprintf(w, "  %-12s %d wins\n", side, wins[side])
	}
	if draws > 0 {
		fmt.Fprintf(w, "  %-12s %d\n", "undecided", draws)
	}
}
