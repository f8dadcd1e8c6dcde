package diplomacy

import (
	"fmt"
	"math"
	"sort"

	"github.com/talgya/crossroads-diplomacy/internal/social"
)

// GoalKind tags a goal. The numeric order is also the tie-break order: when two
// goals share a priority, the lower kind wins, then the lower target ID.
type GoalKind uint8

const (
	GoalSurvive GoalKind = iota
	GoalFormPact
	GoalFormAlliance
	GoalStrengthen
	GoalBreakPact
	GoalBreakAlliance
	GoalExpand
)

var goalNames = map[GoalKind]string{
	GoalSurvive:       "survive",
	GoalFormPact:      "form_pact",
	GoalFormAlliance:  "form_alliance",
	GoalStrengthen:    "strengthen",
	GoalBreakPact:     "break_pact",
	GoalBreakAlliance: "break_alliance",
	GoalExpand:        "expand",
}

func (k GoalKind) String() string {
	if n, ok := goalNames[k]; ok {
		return n
	}
	return fmt.Sprintf("goal(%d)", uint8(k))
}

// Goal is one candidate course of action for a faction this cycle. Never persisted.
type Goal struct {
	Kind      GoalKind
	Owner     social.FactionID
	Target    social.FactionID
	HasTarget bool
	Score     ExplainedScore
	Bias      float64 // Posture adjustment
	Priority  float64 // Score total + Bias
}

// Action returns the world mutation this goal calls for, if any.
func (g Goal) Action(r *Registry) ActionKind {
	if def, ok := r.Def(g.Kind); ok {
		return def.Action
	}
	return ActionNone
}

// GoalDef is a registry entry: how to enumerate and score one goal kind.
type GoalDef struct {
	Kind   GoalKind
	Action ActionKind
	// Single keeps only the best-scoring target instead of one goal per target.
	Single bool
	// Targets lists candidates; nil means the goal has no target.
	Targets func(s *Snapshot, owner social.FactionID) []social.FactionID
	Score   func(s *Snapshot, owner, target social.FactionID) ExplainedScore
	// Boost appends owner-level terms after the target is chosen.
	Boost func(s *Snapshot, owner social.FactionID, sc *ExplainedScore)
}

// Registry maps goal kinds to their defs.
type Registry struct {
	defs map[GoalKind]GoalDef
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[GoalKind]GoalDef)}
}

// Register adds def. A kind may only be registered once.
func (r *Registry) Register(def GoalDef) error {
	if def.Score == nil {
		return fmt.Errorf("goal %s: no score function", def.Kind)
	}
	if _, dup := r.defs[def.Kind]; dup {
		return fmt.Errorf("goal %s already registered", def.Kind)
	}
	r.defs[def.Kind] = def
	return nil
}

// Def looks up the entry for kind.
func (r *Registry) Def(kind GoalKind) (GoalDef, bool) {
	def, ok := r.defs[kind]
	return def, ok
}

// Defs returns every entry ordered by kind.
func (r *Registry) Defs() []GoalDef {
	out := make([]GoalDef, 0, len(r.defs))
	for _, def := range r.defs {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

// DefaultRegistry holds the seven stock goals.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, def := range []GoalDef{
		{Kind: GoalSurvive, Action: ActionMakePeace, Single: true, Targets: enemyTargets, Score: PeaceDesireScore, Boost: surviveBoost},
		{Kind: GoalFormPact, Action: ActionFormPact, Targets: pactTargets, Score: NonAggressionPactScore},
		{Kind: GoalFormAlliance, Action: ActionFormAlliance, Targets: allianceTargets, Score: AllianceScore},
		{Kind: GoalStrengthen, Action: ActionNone, Score: StrengthenScore},
		{Kind: GoalBreakPact, Action: ActionBreakPact, Targets: pactPartners, Score: BreakPactScore},
		{Kind: GoalBreakAlliance, Action: ActionBreakAlliance, Targets: allyTargets, Score: BreakAllianceScore},
		{Kind: GoalExpand, Action: ActionDeclareWar, Single: true, Targets: expandTargets, Score: WarDesireScore},
	} {
		if err := r.Register(def); err != nil {
			panic(err) // Stock table is static; a duplicate is a programming error.
		}
	}
	return r
}

func enemyTargets(s *Snapshot, owner social.FactionID) []social.FactionID { return s.Enemies(owner) }
func allyTargets(s *Snapshot, owner social.FactionID) []social.FactionID  { return s.Allies(owner) }
func pactPartners(s *Snapshot, owner social.FactionID) []social.FactionID { return s.Pacts(owner) }

func expandTargets(s *Snapshot, owner social.FactionID) []social.FactionID {
	if s.WarLocked(owner) {
		return nil
	}
	var out []social.FactionID
	for _, id := range s.IDs() {
		if id != owner && !s.AtWar(owner, id) && !s.Allied(owner, id) && !s.Pacted(owner, id) {
			out = append(out, id)
		}
	}
	return out
}

func allianceTargets(s *Snapshot, owner social.FactionID) []social.FactionID {
	var out []social.FactionID
	for _, id := range s.IDs() {
		if id != owner && !s.Minor(id) && !s.AtWar(owner, id) && !s.Allied(owner, id) {
			out = append(out, id)
		}
	}
	return out
}

func pactTargets(s *Snapshot, owner social.FactionID) []social.FactionID {
	var out []social.FactionID
	for _, id := range s.IDs() {
		if id != owner && !s.Minor(id) && !s.AtWar(owner, id) && !s.Pacted(owner, id) && !s.Allied(owner, id) {
			out = append(out, id)
		}
	}
	return out
}

func surviveBoost(s *Snapshot, owner social.FactionID, sc *ExplainedScore) {
	g := s.cfg.Goals
	if r := s.EnemyRatio(owner); r < s.cfg.Posture.DefensiveRatio {
		sc.Addf("outmatched", g.SurviveWeakBoost, "it stands at %.0f%% of its enemies' strength", r*100)
	}
	if s.Territories(owner) == 0 {
		sc.Add("landless", g.SurviveLandlessBoost, "it has lost every territory")
	}
}

// StrengthenScore rates turning inward to rebuild. It maps to no world action.
func StrengthenScore(s *Snapshot, owner, _ social.FactionID) ExplainedScore {
	g := s.cfg.Goals
	var sc ExplainedScore
	sc.Add("base", g.StrengthenBase, "its lands need tending")
	if ex := s.PeakExhaustion(owner); ex > 0 {
		sc.Addf("recovery", ex*g.StrengthenExhaustW, "war weariness stands at %.0f", ex)
	}
	if poor := math.Max(0, 1-s.Wealth(owner)/s.cfg.Scoring.WealthReference); poor > 0 {
		sc.Add("treasury", poor*g.StrengthenPoorW, "its treasury needs refilling")
	}
	return sc
}

// GoalSystem enumerates, scores and arbitrates goals through a registry.
type GoalSystem struct {
	registry *Registry
}

// NewGoalSystem creates a goal system over r; nil uses DefaultRegistry.
func NewGoalSystem(r *Registry) *GoalSystem {
	if r == nil {
		r = DefaultRegistry()
	}
	return &GoalSystem{registry: r}
}

// Registry returns the goal table in use.
func (g *GoalSystem) Registry() *Registry { return g.registry }

// Goals returns every eligible goal for owner with posture bias applied, sorted by
// priority (highest first) and then by the stable tie-break order.
func (g *GoalSystem) Goals(s *Snapshot, owner social.FactionID, posture StrategicState) []Goal {
	if !s.Active(owner) || s.Minor(owner) {
		return nil
	}
	var goals []Goal
	for _, def := range g.registry.Defs() {
		goals = append(goals, g.enumerate(s, owner, def)...)
	}
	for i := range goals {
		goals[i].Bias = postureBias(s, posture, goals[i].Kind)
		goals[i].Priority = goals[i].Score.Total() + goals[i].Bias
	}
	sortGoals(goals)
	return goals
}

func (g *GoalSystem) enumerate(s *Snapshot, owner social.FactionID, def GoalDef) []Goal {
	if def.Targets == nil {
		sc := def.Score(s, owner, 0)
		if sc.Ineligible {
			return nil
		}
		if def.Boost != nil {
			def.Boost(s, owner, &sc)
		}
		return []Goal{{Kind: def.Kind, Owner: owner, Score: sc}}
	}

	var out []Goal
	for _, target := range def.Targets(s, owner) {
		if def.Action != ActionNone && s.OnCooldown(def.Action, owner, target) {
			continue
		}
		sc := def.Score(s, owner, target)
		if sc.Ineligible {
			continue
		}
		goal := Goal{Kind: def.Kind, Owner: owner, Target: target, HasTarget: true, Score: sc}
		if def.Single {
			// Targets arrive ascending, so strict > keeps the lowest ID on ties.
			if len(out) == 0 || sc.Total() > out[0].Score.Total() {
				out = []Goal{goal}
			}
			continue
		}
		out = append(out, goal)
	}
	if def.Boost != nil {
		for i := range out {
			def.Boost(s, owner, &out[i].Score)
		}
	}
	return out
}

// Choose returns the single highest-priority goal for owner.
func (g *GoalSystem) Choose(s *Snapshot, owner social.FactionID, posture StrategicState) (Goal, bool) {
	goals := g.Goals(s, owner, posture)
	if len(goals) == 0 {
		return Goal{}, false
	}
	return goals[0], true
}

func sortGoals(goals []Goal) {
	sort.SliceStable(goals, func(i, j int) bool {
		a, b := goals[i], goals[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Target < b.Target
	})
}
