package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/talgya/crossroads-diplomacy/internal/config"
	"github.com/talgya/crossroads-diplomacy/internal/diplomacy"
	"github.com/talgya/crossroads-diplomacy/internal/engine"
	"github.com/talgya/crossroads-diplomacy/internal/persistence"
	"github.com/talgya/crossroads-diplomacy/internal/sandbox"
)

var (
	seed         int64
	days         int
	radius       int
	factionCount int
	minorCount   int
	perFaction   int
	follow       bool
	pace         time.Duration
	showSkipped  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Advance the world and print each diplomatic decision",
	RunE:  runSim,
}

func init() {
	gen := sandbox.DefaultGenConfig()
	runCmd.Flags().Int64Var(&seed, "seed", 42, "World seed (ignored when resuming)")
	runCmd.Flags().IntVarP(&days, "days", "n", 365, "Days to simulate")
	runCmd.Flags().IntVar(&radius, "radius", gen.Radius, "Hex map radius")
	runCmd.Flags().IntVar(&factionCount, "factions", gen.Factions, "Major factions")
	runCmd.Flags().IntVar(&minorCount, "minor", gen.MinorFactions, "Minor factions")
	runCmd.Flags().IntVar(&perFaction, "territories", gen.PerFaction, "Territories per major faction")
	runCmd.Flags().BoolVarP(&follow, "follow", "f", false, "Run paced until interrupted instead of for --days")
	runCmd.Flags().DurationVar(&pace, "pace", time.Second, "Wall time per sim-day with --follow")
	runCmd.Flags().BoolVar(&showSkipped, "show-skipped", false, "Also print evaluations that led to no action")
}

// sim bundles what one run needs.
type sim struct {
	db      *persistence.DB
	world   *sandbox.World
	session *diplomacy.Session
	start   uint64
}

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

// openSim resumes from --db when it holds a session, otherwise generates a fresh world.
func openSim() (*sim, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	s := &sim{}
	var state *diplomacy.State
	var id string
	worldSeed := seed

	if dbPath != "" {
		if s.db, err = persistence.Open(dbPath); err != nil {
			return nil, err
		}
		has, err := s.db.HasSession()
		if err != nil {
			s.db.Close()
			return nil, fmt.Errorf("check session: %w", err)
		}
		if has {
			info, err := s.db.LoadSessionInfo()
			if err != nil {
				s.db.Close()
				return nil, err
			}
			saved, err := s.db.LoadWorld(info.Seed, info.LastDay)
			if err != nil {
				s.db.Close()
				return nil, err
			}
			if state, err = s.db.LoadState(); err != nil {
				s.db.Close()
				return nil, err
			}
			s.world = sandbox.Restore(saved)
			id, worldSeed, s.start = info.ID, info.Seed, info.LastDay
			slog.Info("session resumed", "session", id, "day", s.start, "date", engine.SimDate(s.start))
		}
	}

	if s.world == nil {
		s.world, err = sandbox.Generate(sandbox.GenConfig{
			Seed:          seed,
			Radius:        radius,
			Factions:      factionCount,
			MinorFactions: minorCount,
			PerFaction:    perFaction,
		})
		if err != nil {
			s.close()
			return nil, fmt.Errorf("generate world: %w", err)
		}
	}

	s.session, err = diplomacy.NewSession(diplomacy.SessionConfig{
		ID:      id,
		Seed:    worldSeed,
		Config:  cfg,
		Facts:   s.world,
		Mutator: s.world,
		State:   state,
		Logger:  slog.Default(),
	})
	if err != nil {
		s.close()
		return nil, err
	}
	return s, nil
}

func (s *sim) save(day uint64) {
	if s.db == nil {
		return
	}
	if err := s.db.SaveCheckpoint(s.world.Save(), s.session, day); err != nil {
		slog.Error("checkpoint failed", "day", day, "error", err)
	}
}

func (s *sim) close() {
	if s.session != nil {
		s.session.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
}

func runSim(cmd *cobra.Command, args []string) error {
	s, err := openSim()
	if err != nil {
		return err
	}
	defer s.close()

	out := cmd.OutOrStdout()
	actions := 0

	clock := engine.NewClock(s.start)
	clock.Interval = pace
	clock.OnDay = func(day uint64) {
		events := s.world.AdvanceDay(day)
		outcomes, err := s.session.Tick(day)
		if err != nil {
			slog.Error("tick failed", "day", day, "error", err)
			return
		}
		for _, e := range events {
			if e.Category == "conquest" || e.Category == "elimination" {
				fmt.Fprintf(out, "[%s] %s\n", engine.SimDate(day), e.Description)
			}
		}
		for _, o := range outcomes {
			switch {
			case o.Executed:
				actions++
				fmt.Fprintf(out, "[%s] %s\n", engine.SimDate(day), o.Reason)
			case showSkipped:
				fmt.Fprintf(out, "[%s]   %s considered %s (%s, priority %.1f): %s\n",
					engine.SimDate(day), s.world.Name(o.Faction), o.Goal, o.Posture, o.Priority, o.Skipped)
			}
		}
		if s.db != nil {
			if err := s.db.SaveEvents(s.world.DrainEvents()); err != nil {
				slog.Error("event save failed", "error", err)
			}
		} else {
			s.world.DrainEvents()
		}
	}
	clock.OnWeek = s.save

	if follow {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := clock.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	} else {
		clock.RunDays(days)
	}

	s.save(clock.Day)
	fmt.Fprintf(out, "\n%d diplomatic actions over %d days.\n\n", actions, clock.Day-s.start)
	printSummary(out, s.world)
	return nil
}
