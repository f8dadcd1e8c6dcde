package diplomacy

import (
	"sort"

	"github.com/talgya/crossroads-diplomacy/internal/social"
)

// FactionTimers is the persisted per-faction decision state.
type FactionTimers struct {
	Desire       float64 `json:"desire" db:"desire"`
	Period       int     `json:"period" db:"period"`
	Timer        int     `json:"timer" db:"timer"`
	WarLockUntil uint64  `json:"war_lock_until" db:"war_lock_until"` // No new declarations before this day
}

// CooldownKey identifies a suppressed (action, pair) combination.
type CooldownKey struct {
	Action ActionKind
	Pair   social.PairKey
}

// Cooldown records when an action last happened for a pair and for how long it is suppressed.
type Cooldown struct {
	Since uint64 `json:"since"`
	Days  uint64 `json:"days"`
}

// DirectedPair keys one side's exhaustion in a war.
type DirectedPair struct {
	Of      social.FactionID
	Against social.FactionID
}

// WarOpening remembers territory counts at the start of a war.
type WarOpening struct {
	Pair          social.PairKey `json:"pair"`
	Start         uint64         `json:"start"`
	TerritoriesLo int            `json:"territories_lo"`
	TerritoriesHi int            `json:"territories_hi"`
}

// State is the cooldown and timer store: everything the engine must carry across a save.
// All time values are sim-days, so elapsed windows survive a reload unchanged.
type State struct {
	Factions   map[social.FactionID]*FactionTimers
	Cooldowns  map[CooldownKey]Cooldown
	Exhaustion map[DirectedPair]float64
	Wars       map[social.PairKey]WarOpening

	LastRefresh uint64
	Refreshed   bool // LastRefresh is meaningful
}

// NewState creates an empty store.
func NewState() *State {
	st := &State{}
	st.Normalize()
	return st
}

// Normalize replaces missing collections after a load. Never fails.
func (st *State) Normalize() {
	if st.Factions == nil {
		st.Factions = make(map[social.FactionID]*FactionTimers)
	}
	if st.Cooldowns == nil {
		st.Cooldowns = make(map[CooldownKey]Cooldown)
	}
	if st.Exhaustion == nil {
		st.Exhaustion = make(map[DirectedPair]float64)
	}
	if st.Wars == nil {
		st.Wars = make(map[social.PairKey]WarOpening)
	}
	for id, t := range st.Factions {
		if t == nil {
			delete(st.Factions, id)
		}
	}
}

// Timers returns id's timers, or nil if the faction has not been seen yet.
func (st *State) Timers(id social.FactionID) *FactionTimers {
	return st.Factions[id]
}

// SetCooldown suppresses action between a and b for days starting at day.
func (st *State) SetCooldown(action ActionKind, a, b social.FactionID, day, days uint64) {
	if days == 0 {
		return
	}
	st.Cooldowns[CooldownKey{Action: action, Pair: social.MakePair(a, b)}] = Cooldown{Since: day, Days: days}
}

// OnCooldown reports whether action between a and b is still suppressed on day.
func (st *State) OnCooldown(action ActionKind, a, b social.FactionID, day uint64) bool {
	cd, ok := st.Cooldowns[CooldownKey{Action: action, Pair: social.MakePair(a, b)}]
	return ok && day < cd.Since+cd.Days
}

// ExhaustionOf returns of's fatigue against against.
func (st *State) ExhaustionOf(of, against social.FactionID) float64 {
	return st.Exhaustion[DirectedPair{Of: of, Against: against}]
}

// addExhaustion moves of's fatigue by delta, bounded to [0, ceiling]. Zeroes are dropped.
func (st *State) addExhaustion(of, against social.FactionID, delta, ceiling float64) {
	key := DirectedPair{Of: of, Against: against}
	v := clamp(st.Exhaustion[key]+delta, 0, ceiling)
	if v <= 1e-9 {
		delete(st.Exhaustion, key)
		return
	}
	st.Exhaustion[key] = v
}

// Prune drops entries referencing factions that are no longer active, and cooldowns
// that expired before day.
func (st *State) Prune(active func(social.FactionID) bool, day uint64) {
	for id := range st.Factions {
		if !active(id) {
			delete(st.Factions, id)
		}
	}
	for key, cd := range st.Cooldowns {
		if !active(key.Pair.Lo) || !active(key.Pair.Hi) || day >= cd.Since+cd.Days {
			delete(st.Cooldowns, key)
		}
	}
	for key := range st.Exhaustion {
		if !active(key.Of) || !active(key.Against) {
			delete(st.Exhaustion, key)
		}
	}
	for key := range st.Wars {
		if !active(key.Lo) || !active(key.Hi) {
			delete(st.Wars, key)
		}
	}
}

// Clone returns a deep copy.
func (st *State) Clone() *State {
	c := &State{
		Factions:    make(map[social.FactionID]*FactionTimers, len(st.Factions)),
		Cooldowns:   make(map[CooldownKey]Cooldown, len(st.Cooldowns)),
		Exhaustion:  make(map[DirectedPair]float64, len(st.Exhaustion)),
		Wars:        make(map[social.PairKey]WarOpening, len(st.Wars)),
		LastRefresh: st.LastRefresh,
		Refreshed:   st.Refreshed,
	}
	for k, v := range st.Factions {
		t := *v
		c.Factions[k] = &t
	}
	for k, v := range st.Cooldowns {
		c.Cooldowns[k] = v
	}
	for k, v := range st.Exhaustion {
		c.Exhaustion[k] = v
	}
	for k, v := range st.Wars {
		c.Wars[k] = v
	}
	return c
}

// FactionIDs returns the IDs with timers, ascending.
func (st *State) FactionIDs() []social.FactionID {
	ids := make([]social.FactionID, 0, len(st.Factions))
	for id := range st.Factions {
		ids = append(ids, id)
	}
	return social.SortIDs(ids)
}

// CooldownKeys returns cooldown keys in a stable order.
func (st *State) CooldownKeys() []CooldownKey {
	keys := make([]CooldownKey, 0, len(st.Cooldowns))
	for k := range st.Cooldowns {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Pair != b.Pair {
			if a.Pair.Lo != b.Pair.Lo {
				return a.Pair.Lo < b.Pair.Lo
			}
			return a.Pair.Hi < b.Pair.Hi
		}
		return a.Action < b.Action
	})
	return keys
}

// syncWars records openings for wars the engine has not seen yet and forgets ended ones.
func (st *State) syncWars(s *Snapshot) {
	live := make(map[social.PairKey]bool)
	ids := s.IDs()
	for i, a := range ids {
		for _, b := range ids[i+1:] {
			if !s.AtWar(a, b) {
				continue
			}
			key := social.MakePair(a, b)
			live[key] = true
			if _, ok := st.Wars[key]; ok {
				continue
			}
			start, ok := s.facts.WarStart(a, b)
			if !ok {
				start = s.Day
			}
			st.Wars[key] = WarOpening{
				Pair:          key,
				Start:         start,
				TerritoriesLo: s.Territories(key.Lo),
				TerritoriesHi: s.Territories(key.Hi),
			}
		}
	}
	for key := range st.Wars {
		if !live[key] {
			delete(st.Wars, key)
		}
	}
}

// advanceExhaustion applies one day of war fatigue and peacetime recovery.
// Losing sides tire faster: the daily gain scales with enemy/own strength.
func (st *State) advanceExhaustion(s *Snapshot) {
	cfg := s.cfg.Exhaustion
	for key := range st.Exhaustion {
		if !s.AtWar(key.Of, key.Against) {
			st.addExhaustion(key.Of, key.Against, -cfg.PeaceDecay, cfg.Max)
		}
	}
	ids := s.IDs()
	for _, a := range ids {
		for _, b := range s.Enemies(a) {
			r := clamp(ratio(s.Strength(b), s.Strength(a), cfg.RatioMax), cfg.RatioMin, cfg.RatioMax)
			st.addExhaustion(a, b, cfg.DailyBase*r, cfg.Max)
		}
	}
}
