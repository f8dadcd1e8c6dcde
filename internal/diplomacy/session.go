package diplomacy

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/talgya/crossroads-diplomacy/internal/config"
)

// ErrClosed is returned by a session after Close.
var ErrClosed = errors.New("session closed")

// SessionConfig describes a session to build. Facts and Mutator are required.
type SessionConfig struct {
	ID       string // Empty generates a new one
	Seed     int64
	Config   *config.Config // nil uses config.Default()
	Facts    FactBase
	Mutator  Mutator
	State    *State    // nil starts fresh
	Registry *Registry // nil uses DefaultRegistry()
	Logger   *slog.Logger
}

// Session is one running world's diplomacy context. Everything the engine mutates
// hangs off it; there is no package-level state.
type Session struct {
	ID   string
	Seed int64

	cfg    *config.Config
	facts  FactBase
	state  *State
	loop   *DecisionLoop
	log    *slog.Logger
	closed bool
}

// NewSession validates sc and wires the engine.
func NewSession(sc SessionConfig) (*Session, error) {
	if sc.Facts == nil {
		return nil, errors.New("session: no fact base")
	}
	if sc.Mutator == nil {
		return nil, errors.New("session: no mutator")
	}
	cfg := sc.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("session config: %w", err)
	}
	id := sc.ID
	if id == "" {
		id = uuid.NewString()
	} else if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("session id %q: %w", id, err)
	}
	state := sc.State
	if state == nil {
		state = NewState()
	}
	state.Normalize()

	log := sc.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("session", id)

	s := &Session{
		ID:    id,
		Seed:  sc.Seed,
		cfg:   cfg,
		facts: sc.Facts,
		state: state,
		log:   log,
	}
	s.loop = NewDecisionLoop(cfg, sc.Facts, sc.Mutator, state, NewGoalSystem(sc.Registry), NewSeeder(sc.Seed), log)
	return s, nil
}

// Tick runs the decision loop for day.
func (s *Session) Tick(day uint64) ([]Outcome, error) {
	if s.closed {
		return nil, ErrClosed
	}
	return s.loop.Tick(day), nil
}

// Snapshot builds a read-only view of day for inspection. It does not advance state.
func (s *Session) Snapshot(day uint64) *Snapshot {
	return NewSnapshot(day, s.cfg, s.facts, s.loop.cache, s.state, s.log)
}

// Config returns the session's tunables.
func (s *Session) Config() *config.Config { return s.cfg }

// State returns the live cooldown and timer store.
func (s *Session) State() *State { return s.state }

// Loop returns the decision loop.
func (s *Session) Loop() *DecisionLoop { return s.loop }

// Close tears the session down. Further ticks fail with ErrClosed.
func (s *Session) Close() error {
	if s.closed {
		return ErrClosed
	}
	s.closed = true
	s.log.Debug("session closed", "last_refresh", s.state.LastRefresh)
	return nil
}
