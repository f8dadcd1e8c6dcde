package diplomacy

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/talgya/crossroads-diplomacy/internal/config"
	"github.com/talgya/crossroads-diplomacy/internal/social"
)

// Outcome records one faction's evaluation on one day.
type Outcome struct {
	Day       uint64
	Faction   social.FactionID
	Posture   StrategicState
	Goal      GoalKind
	HasGoal   bool
	Action    ActionKind
	Target    social.FactionID
	HasTarget bool
	Priority  float64
	Threshold float64
	Executed  bool
	Skipped   string // Why nothing was applied; empty when Executed
	Reason    string
	Score     ExplainedScore
}

// salt for the initial desire draw.
const saltInitialDesire = 0xD351

// DecisionLoop is the per-tick driver: refresh, then let each faction that is due
// pick a goal and act on it.
type DecisionLoop struct {
	cfg      *config.Config
	facts    FactBase
	mutator  Mutator
	cache    *NeighborCache
	state    *State
	goals    *GoalSystem
	seeder   *Seeder
	reasoner *Reasoner
	log      *slog.Logger
}

// NewDecisionLoop wires a loop. All arguments except log are required.
func NewDecisionLoop(cfg *config.Config, facts FactBase, mutator Mutator, state *State,
	goals *GoalSystem, seeder *Seeder, log *slog.Logger) *DecisionLoop {
	if log == nil {
		log = slog.Default()
	}
	l := &DecisionLoop{
		cfg:     cfg,
		facts:   facts,
		mutator: mutator,
		cache:   NewNeighborCache(cfg.Neighbors.BorderDistance),
		state:   state,
		goals:   goals,
		seeder:  seeder,
		log:     log,
	}
	l.reasoner = NewReasoner(l.name)
	return l
}

func (l *DecisionLoop) name(id social.FactionID) string {
	if f, ok := l.facts.Faction(id); ok && f.Name != "" {
		return f.Name
	}
	return fmt.Sprintf("faction %d", id)
}

// Neighbors returns the geography cache.
func (l *DecisionLoop) Neighbors() *NeighborCache { return l.cache }

// Reasoner returns the justification generator.
func (l *DecisionLoop) Reasoner() *Reasoner { return l.reasoner }

// Refresh builds the day's snapshot and brings derived state up to date. Exhaustion
// and war bookkeeping advance at most once per day, so calling it twice is harmless.
func (l *DecisionLoop) Refresh(day uint64) *Snapshot {
	s := NewSnapshot(day, l.cfg, l.facts, l.cache, l.state, l.log)
	l.cache.Refresh(day, s.IDs(), s.TerritoryList, l.facts.Distance)

	if !l.state.Refreshed || day > l.state.LastRefresh {
		l.state.Prune(s.Active, day)
		l.state.syncWars(s)
		l.state.advanceExhaustion(s)
		l.state.LastRefresh = day
		l.state.Refreshed = true
	}
	return s
}

// Tick runs one decision day. Outcomes are returned for every faction that reached
// an evaluation, in ascending faction order.
func (l *DecisionLoop) Tick(day uint64) []Outcome {
	s := l.Refresh(day)
	var out []Outcome
	for _, id := range s.IDs() {
		if s.Minor(id) {
			continue
		}
		if o, ok := l.evaluate(s, id); ok {
			out = append(out, o)
		}
	}
	return out
}

// timers returns id's timers, creating them with a drawn period and a small
// random starting desire the first time a faction is seen.
func (l *DecisionLoop) timers(s *Snapshot, id social.FactionID) *FactionTimers {
	if t := l.state.Timers(id); t != nil {
		return t
	}
	d := l.cfg.Desire
	t := &FactionTimers{
		Desire: l.seeder.Rand(id, s.Day, saltInitialDesire).Float64() * d.PeaceGain * float64(d.PeriodMin),
		Period: l.seeder.Period(id, s.Day, d.PeriodMin, d.PeriodMax),
	}
	l.state.Factions[id] = t
	return t
}

// DesireDelta is id's desire change for one day.
func (l *DecisionLoop) DesireDelta(s *Snapshot, id social.FactionID) float64 {
	d := l.cfg.Desire
	bias := l.seeder.Bias(id, d.BiasMin, d.BiasMax)
	noise := l.seeder.Noise(id, s.Day) * d.NoiseAmplitude
	wealth := s.Wealth(id) / l.cfg.Scoring.WealthReference

	if s.Wars(id) > 0 {
		econ := clamp(d.EconomyWeight*(1-wealth), -d.EconomyMax, d.EconomyMax)
		pressure := d.PressureWeight * s.MaxExhaustion(id)
		return -d.WarLoss*bias + econ + noise + pressure
	}
	econ := clamp(d.EconomyWeight*(wealth-1), -d.EconomyMax, d.EconomyMax)
	return d.PeaceGain*bias + econ + noise
}

// Gate is the desire id needs before it evaluates at all.
func (l *DecisionLoop) Gate(s *Snapshot, id social.FactionID) float64 {
	wars := s.Wars(id)
	if wars == 0 {
		return l.cfg.WarThreshold(0)
	}
	return min(l.cfg.WarThreshold(wars), l.cfg.PeaceThreshold(wars))
}

// ActionThreshold is the priority a goal needs before its action is attempted.
func (l *DecisionLoop) ActionThreshold(s *Snapshot, id social.FactionID, kind ActionKind) float64 {
	t := l.cfg.Thresholds
	switch kind {
	case ActionDeclareWar:
		return l.cfg.WarThreshold(s.Wars(id))
	case ActionMakePeace:
		return l.cfg.PeaceThreshold(s.Wars(id))
	case ActionFormAlliance:
		return t.Alliance
	case ActionFormPact:
		return t.Pact
	case ActionBreakAlliance:
		return t.BreakAlliance
	case ActionBreakPact:
		return t.BreakPact
	default:
		return 0
	}
}

// evaluate runs one faction. A panic anywhere inside is logged and that faction is
// skipped for the day; the rest of the tick proceeds.
func (l *DecisionLoop) evaluate(s *Snapshot, id social.FactionID) (o Outcome, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("faction evaluation failed", "faction", id, "day", s.Day, "panic", r)
			o, ok = Outcome{}, false
		}
	}()

	t := l.timers(s, id)
	t.Timer++
	t.Desire = clamp(t.Desire+l.DesireDelta(s, id), 0, 100)
	if t.Timer < t.Period || t.Desire < l.Gate(s, id) {
		return Outcome{}, false
	}
	t.Timer = 0
	t.Period = l.seeder.Period(id, s.Day, l.cfg.Desire.PeriodMin, l.cfg.Desire.PeriodMax)

	posture := Classify(s, id)
	o = Outcome{Day: s.Day, Faction: id, Posture: posture}
	goal, found := l.goals.Choose(s, id, posture)
	if !found {
		o.Skipped = "no eligible goal"
		return o, true
	}
	o.Goal, o.HasGoal = goal.Kind, true
	o.Target, o.HasTarget = goal.Target, goal.HasTarget
	o.Priority = goal.Priority
	o.Score = goal.Score
	o.Action = goal.Action(l.goals.Registry())

	act := Action{Kind: o.Action, Actor: id, Target: goal.Target}
	if act.Kind == ActionMakePeace {
		act.Tribute = Tribute(s, id, goal.Target)
	}
	o.Reason = l.reasoner.Explain(act, goal.Score)

	if act.Kind == ActionNone {
		o.Skipped = "no world action"
		l.log.Debug("faction consolidates", "faction", s.Name(id), "goal", goal.Kind, "posture", posture)
		return o, true
	}

	o.Threshold = l.ActionThreshold(s, id, act.Kind)
	if goal.Priority < o.Threshold {
		o.Skipped = "below threshold"
		return o, true
	}

	if !l.accepts(s, act, o.Threshold) {
		l.state.SetCooldown(act.Kind, id, act.Target, s.Day, l.cfg.Cooldowns.Rejected)
		o.Skipped = "rejected by target"
		l.log.Info("proposal rejected",
			"day", s.Day, "faction", s.Name(id), "action", act.Kind, "target", s.Name(act.Target))
		return o, true
	}

	if err := l.execute(s, act, o.Reason); err != nil {
		o.Skipped = err.Error()
		if errors.Is(err, ErrStalePrecondition) {
			l.log.Debug("action aborted", "faction", s.Name(id), "action", act.Kind, "error", err)
		} else {
			l.log.Warn("action failed", "faction", s.Name(id), "action", act.Kind, "error", err)
		}
		return o, true
	}

	o.Executed = true
	l.settle(s, t, act)
	l.log.Info("diplomatic action",
		"day", s.Day,
		"faction", s.Name(id),
		"action", act.Kind,
		"target", s.Name(act.Target),
		"priority", fmt.Sprintf("%.1f", goal.Priority),
		"posture", posture,
		"reason", o.Reason,
	)
	return o, true
}

// accepts asks the target whether it would agree to a treaty from the actor.
// Unilateral actions always pass.
func (l *DecisionLoop) accepts(s *Snapshot, act Action, threshold float64) bool {
	switch act.Kind {
	case ActionFormAlliance:
		sc := AllianceScore(s, act.Target, act.Actor)
		return !sc.Ineligible && sc.Total() >= threshold
	case ActionFormPact:
		sc := NonAggressionPactScore(s, act.Target, act.Actor)
		return !sc.Ineligible && sc.Total() >= threshold
	}
	return true
}

func (l *DecisionLoop) execute(s *Snapshot, act Action, reason string) error {
	if err := checkPreconditions(s, act); err != nil {
		return err
	}
	if err := apply(l.mutator, act, reason); err != nil {
		return fmt.Errorf("applying %s: %w", act.Kind, err)
	}
	return nil
}

// settle updates timers and cooldowns after a successful action.
func (l *DecisionLoop) settle(s *Snapshot, t *FactionTimers, act Action) {
	l.state.SetCooldown(act.Kind, act.Actor, act.Target, s.Day, cooldownDays(l.cfg, act.Kind))
	key := social.MakePair(act.Actor, act.Target)

	switch act.Kind {
	case ActionDeclareWar:
		t.Desire = 0
		t.WarLockUntil = s.Day + l.cfg.Cooldowns.WarLock
		if other := l.state.Timers(act.Target); other != nil {
			other.Desire = 0
		}
		l.state.Wars[key] = WarOpening{
			Pair:          key,
			Start:         s.Day,
			TerritoriesLo: s.Territories(key.Lo),
			TerritoriesHi: s.Territories(key.Hi),
		}
	case ActionMakePeace:
		t.Desire = 0
		delete(l.state.Wars, key)
	default:
		t.Desire *= l.cfg.Desire.DecayOnAction
	}
}
