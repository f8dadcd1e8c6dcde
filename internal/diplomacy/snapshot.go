package diplomacy

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/talgya/crossroads-diplomacy/internal/config"
	"github.com/talgya/crossroads-diplomacy/internal/social"
	"github.com/talgya/crossroads-diplomacy/internal/world"
)

// Snapshot is the per-tick view every scoring model reads from. Faction facts,
// territory and aggregates are frozen at creation; stance queries go to the live
// FactBase so mutations earlier in the tick are visible to later evaluations.
type Snapshot struct {
	Day uint64

	cfg   *config.Config
	facts FactBase
	cache *NeighborCache
	state *State
	log   *slog.Logger

	ids         []social.FactionID // Active factions, ascending
	factions    map[social.FactionID]social.Faction
	territories map[social.FactionID][]world.Territory

	avgStrength    float64
	avgTerritories float64

	warned map[string]bool
}

// NewSnapshot freezes faction facts for one tick. Unknown or eliminated factions
// in the roster are dropped here, so stale references never reach scoring.
func NewSnapshot(day uint64, cfg *config.Config, facts FactBase, cache *NeighborCache, state *State, log *slog.Logger) *Snapshot {
	if log == nil {
		log = slog.Default()
	}
	s := &Snapshot{
		Day:         day,
		cfg:         cfg,
		facts:       facts,
		cache:       cache,
		state:       state,
		log:         log,
		factions:    make(map[social.FactionID]social.Faction),
		territories: make(map[social.FactionID][]world.Territory),
		warned:      make(map[string]bool),
	}

	totalStrength, totalTerritories := 0.0, 0.0
	for _, id := range facts.Factions() {
		f, ok := facts.Faction(id)
		if !ok || !f.Active() {
			continue
		}
		if _, dup := s.factions[id]; dup {
			continue
		}
		s.factions[id] = f
		s.territories[id] = facts.Territories(id)
		s.ids = append(s.ids, id)
		totalStrength += f.Strength
		totalTerritories += float64(len(s.territories[id]))
	}
	social.SortIDs(s.ids)

	if n := float64(len(s.ids)); n > 0 {
		s.avgStrength = totalStrength / n
		s.avgTerritories = totalTerritories / n
	}
	return s
}

// Config returns the tunables in force for this tick.
func (s *Snapshot) Config() *config.Config { return s.cfg }

// Neighbors returns the geography cache.
func (s *Snapshot) Neighbors() *NeighborCache { return s.cache }

// IDs returns the active factions in ascending order.
func (s *Snapshot) IDs() []social.FactionID { return s.ids }

// Faction returns the frozen facts for id.
func (s *Snapshot) Faction(id social.FactionID) (social.Faction, bool) {
	f, ok := s.factions[id]
	return f, ok
}

// Active reports whether id is a known, non-eliminated faction.
func (s *Snapshot) Active(id social.FactionID) bool {
	_, ok := s.factions[id]
	return ok
}

// Minor reports whether id is a minor faction.
func (s *Snapshot) Minor(id social.FactionID) bool {
	return s.factions[id].Minor
}

// Name returns a display name, falling back to the numeric ID.
func (s *Snapshot) Name(id social.FactionID) string {
	if f, ok := s.factions[id]; ok && f.Name != "" {
		return f.Name
	}
	if f, ok := s.facts.Faction(id); ok && f.Name != "" {
		return f.Name
	}
	return fmt.Sprintf("faction %d", id)
}

func (s *Snapshot) Strength(id social.FactionID) float64 { return math.Max(0, s.factions[id].Strength) }
func (s *Snapshot) Wealth(id social.FactionID) float64   { return math.Max(0, s.factions[id].Wealth) }
func (s *Snapshot) Traits(id social.FactionID) social.Traits {
	return s.factions[id].Traits
}

// Territories returns how many territories id holds.
func (s *Snapshot) Territories(id social.FactionID) int { return len(s.territories[id]) }

// TerritoryList returns the territories id holds.
func (s *Snapshot) TerritoryList(id social.FactionID) []world.Territory { return s.territories[id] }

// AvgStrength is the mean strength of all active factions.
func (s *Snapshot) AvgStrength() float64 { return s.avgStrength }

// AvgTerritories is the mean territory count of all active factions.
func (s *Snapshot) AvgTerritories() float64 { return s.avgTerritories }

// Relation returns the relation between a and b clamped to [-100, 100].
func (s *Snapshot) Relation(a, b social.FactionID) float64 {
	return clamp(s.facts.Relation(a, b), -100, 100)
}

// AtWar reports a symmetric war between a and b.
func (s *Snapshot) AtWar(a, b social.FactionID) bool {
	return s.symmetric("war", a, b, s.facts.IsAtWar)
}

// Allied reports a symmetric alliance between a and b.
func (s *Snapshot) Allied(a, b social.FactionID) bool {
	return s.symmetric("alliance", a, b, s.facts.IsAllied)
}

// Pacted reports a symmetric non-aggression pact between a and b.
func (s *Snapshot) Pacted(a, b social.FactionID) bool {
	return s.symmetric("pact", a, b, s.facts.HasPact)
}

// symmetric resolves one-sided stance data to "not in that relation".
func (s *Snapshot) symmetric(kind string, a, b social.FactionID, query func(a, b social.FactionID) bool) bool {
	if a == b {
		return false
	}
	ab, ba := query(a, b), query(b, a)
	if ab == ba {
		return ab
	}
	key := kind + ":" + social.MakePair(a, b).String()
	if !s.warned[key] {
		s.warned[key] = true
		s.log.Warn("asymmetric stance data, treating as absent",
			"stance", kind, "a", a, "b", b, "a_to_b", ab, "b_to_a", ba)
	}
	return false
}

// WarStart returns the day the war between a and b began.
func (s *Snapshot) WarStart(a, b social.FactionID) (uint64, bool) {
	if !s.AtWar(a, b) {
		return 0, false
	}
	if d, ok := s.facts.WarStart(a, b); ok {
		return d, true
	}
	if s.state != nil {
		if w, ok := s.state.Wars[social.MakePair(a, b)]; ok {
			return w.Start, true
		}
	}
	return 0, false
}

// partners lists active factions for which match(id, other) holds.
func (s *Snapshot) partners(id social.FactionID, match func(a, b social.FactionID) bool) []social.FactionID {
	var out []social.FactionID
	for _, other := range s.ids {
		if other != id && match(id, other) {
			out = append(out, other)
		}
	}
	return out
}

func (s *Snapshot) Enemies(id social.FactionID) []social.FactionID { return s.partners(id, s.AtWar) }
func (s *Snapshot) Allies(id social.FactionID) []social.FactionID  { return s.partners(id, s.Allied) }
func (s *Snapshot) Pacts(id social.FactionID) []social.FactionID   { return s.partners(id, s.Pacted) }

// Wars returns the number of active wars id is fighting.
func (s *Snapshot) Wars(id social.FactionID) int { return len(s.Enemies(id)) }

// SharedEnemies returns factions at war with both a and b.
func (s *Snapshot) SharedEnemies(a, b social.FactionID) []social.FactionID {
	var out []social.FactionID
	for _, e := range s.Enemies(a) {
		if e != b && s.AtWar(b, e) {
			out = append(out, e)
		}
	}
	return out
}

// CoalitionStrength is a faction's own strength plus a share of its allies'.
func (s *Snapshot) CoalitionStrength(id social.FactionID) float64 {
	total := s.Strength(id)
	for _, ally := range s.Allies(id) {
		total += s.cfg.Coalition.AllyShare * s.Strength(ally)
	}
	return total
}

// EnemyCoalition is the summed strength of every faction at war with id.
func (s *Snapshot) EnemyCoalition(id social.FactionID) float64 {
	total := 0.0
	for _, e := range s.Enemies(id) {
		total += s.Strength(e)
	}
	return total
}

// EnemyRatio is own strength over the enemy coalition; +Inf with no enemies.
func (s *Snapshot) EnemyRatio(id social.FactionID) float64 {
	return ratio(s.Strength(id), s.EnemyCoalition(id), math.Inf(1))
}

// Snowballing reports a runaway faction: well above average in both strength and land.
func (s *Snapshot) Snowballing(id social.FactionID) bool {
	r := s.cfg.War.SnowballRatio
	return s.avgStrength > 0 && s.avgTerritories > 0 &&
		s.Strength(id) > r*s.avgStrength &&
		float64(s.Territories(id)) > r*s.avgTerritories
}

// Exhaustion returns of's war fatigue against against.
func (s *Snapshot) Exhaustion(of, against social.FactionID) float64 {
	if s.state == nil {
		return 0
	}
	return s.state.ExhaustionOf(of, against)
}

// MaxExhaustion is of's highest fatigue against any current enemy.
func (s *Snapshot) MaxExhaustion(of social.FactionID) float64 {
	m := 0.0
	for _, e := range s.Enemies(of) {
		m = math.Max(m, s.Exhaustion(of, e))
	}
	return m
}

// TerritoriesLost returns how many territories id has lost since its war with enemy began.
func (s *Snapshot) TerritoriesLost(id, enemy social.FactionID) int {
	if s.state == nil {
		return 0
	}
	w, ok := s.state.Wars[social.MakePair(id, enemy)]
	if !ok {
		return 0
	}
	start := w.TerritoriesHi
	if id == w.Pair.Lo {
		start = w.TerritoriesLo
	}
	return max(0, start-s.Territories(id))
}

// Borders reports whether a and b share a border in the cached geography.
func (s *Snapshot) Borders(a, b social.FactionID) bool {
	return s.cache != nil && s.cache.Borders(a, b)
}

// Proximity returns the cached border count between a and b.
func (s *Snapshot) Proximity(a, b social.FactionID) int {
	if s.cache == nil {
		return 0
	}
	return s.cache.Proximity(a, b)
}

// MinDistance returns the cached closest territory distance between a and b.
func (s *Snapshot) MinDistance(a, b social.FactionID) float64 {
	if s.cache == nil {
		return math.Inf(1)
	}
	return s.cache.MinDistance(a, b)
}

// OnCooldown reports whether action between a and b is still suppressed.
func (s *Snapshot) OnCooldown(action ActionKind, a, b social.FactionID) bool {
	return s.state != nil && s.state.OnCooldown(action, a, b, s.Day)
}

// PeakExhaustion is of's highest fatigue against anyone, including wars that
// already ended and are still recovering.
func (s *Snapshot) PeakExhaustion(of social.FactionID) float64 {
	if s.state == nil {
		return 0
	}
	m := 0.0
	for key, v := range s.state.Exhaustion {
		if key.Of == of && s.Active(key.Against) {
			m = math.Max(m, v)
		}
	}
	return m
}

// WarLocked reports whether id recently declared a war and may not declare another yet.
func (s *Snapshot) WarLocked(id social.FactionID) bool {
	if s.state == nil {
		return false
	}
	t := s.state.Timers(id)
	return t != nil && s.Day < t.WarLockUntil
}
