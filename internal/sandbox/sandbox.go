// Package sandbox is a small in-memory world the diplomacy engine can run against.
// It generates territory from simplex noise, answers FactBase queries and applies
// Mutator calls, and resolves wars with a coarse daily skirmish.
package sandbox

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"

	"github.com/talgya/crossroads-diplomacy/internal/social"
	"github.com/talgya/crossroads-diplomacy/internal/world"
)

var (
	// ErrUnknownFaction is returned for IDs the world has never held.
	ErrUnknownFaction = errors.New("unknown faction")
	// ErrStale is returned when a mutation's precondition no longer holds.
	ErrStale = errors.New("stale mutation")
)

// Event is something that happened in the world, kept for the log and the database.
type Event struct {
	Day         uint64 `json:"day" db:"day"`
	Description string `json:"description" db:"description"`
	Category    string `json:"category" db:"category"` // "war", "peace", "treaty", "conquest", "elimination"
}

// GenConfig holds sandbox generation parameters.
type GenConfig struct {
	Seed          int64
	Radius        int // Hex grid radius
	Factions      int // Major factions
	MinorFactions int // Single-territory factions that never initiate
	PerFaction    int // Territories per major faction, on average
}

// DefaultGenConfig returns a mid-sized world.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Radius:        14,
		Factions:      6,
		MinorFactions: 2,
		PerFaction:    6,
	}
}

// World is the sandbox. It is not safe for concurrent use.
type World struct {
	Seed int64
	Day  uint64

	factions    map[social.FactionID]*social.Faction
	territories map[world.TerritoryID]*world.Territory
	morale      map[social.FactionID]float64 // 0.5–1.0; scales strength
	ledger      *social.Ledger
	events      []Event
}

var factionNames = []string{
	"Kingdom of Aldmere", "Duchy of Varn", "Free Cities of Osk", "Thessaly Compact",
	"Empire of Kesh", "March of Dunhold", "Republic of Liria", "Principality of Sorn",
	"Horde of the Red Steppe", "Isles of Caddan", "Theocracy of Umbral", "League of Brask",
}

var minorNames = []string{
	"Greywolf Clan", "Iron Company", "Marsh Folk", "Hill Tribes", "Salt Brotherhood", "Pale Riders",
}

// Generate builds a deterministic world: the same config always yields the same world.
func Generate(cfg GenConfig) (*World, error) {
	if cfg.Factions < 2 {
		return nil, fmt.Errorf("need at least 2 factions, got %d", cfg.Factions)
	}
	if cfg.PerFaction < 1 {
		cfg.PerFaction = 1
	}
	gen := world.DefaultGenConfig()
	gen.Seed = cfg.Seed
	if cfg.Radius > 0 {
		gen.Radius = cfg.Radius
	}
	m := world.Generate(gen)

	want := cfg.Factions*cfg.PerFaction + cfg.MinorFactions
	sites := world.PlaceSites(m, cfg.Seed, want, 2)
	if len(sites) < cfg.Factions+cfg.MinorFactions {
		return nil, fmt.Errorf("map radius %d holds only %d sites for %d factions",
			gen.Radius, len(sites), cfg.Factions+cfg.MinorFactions)
	}

	slog.Debug("sandbox map generated", "map", m.String(), "sites", len(sites))

	rng := rand.New(rand.NewSource(cfg.Seed + 300))
	w := newWorld(cfg.Seed)

	// Minor factions take the least desirable sites, one each.
	major := sites[:len(sites)-cfg.MinorFactions]
	minor := sites[len(sites)-cfg.MinorFactions:]

	capitals := spreadCapitals(major, cfg.Factions)
	nextID := social.FactionID(1)
	for i := range capitals {
		w.factions[nextID] = newFaction(rng, nextID, pickName(factionNames, i, "Realm"), false)
		nextID++
	}
	for i := range minor {
		w.factions[nextID] = newFaction(rng, nextID, pickName(minorNames, i, "Band"), true)
		nextID++
	}

	tid := world.TerritoryID(1)
	for _, site := range major {
		owner := social.FactionID(nearestCapital(site.Coord, major, capitals) + 1)
		w.addTerritory(tid, site, owner)
		tid++
	}
	for i, site := range minor {
		w.addTerritory(tid, site, social.FactionID(len(capitals)+i+1))
		tid++
	}

	ids := w.Factions()
	for i, a := range ids {
		for _, b := range ids[i+1:] {
			rel := rng.Float64()*80 - 40
			w.factions[a].Relations[b] = rel
			w.factions[b].Relations[a] = rel
		}
	}

	w.recompute()
	return w, nil
}

// Saved is everything needed to rebuild a world.
type Saved struct {
	Seed        int64
	Day         uint64
	Factions    []social.Faction
	Territories []world.Territory
	Stances     []social.StanceRecord
	Morale      map[social.FactionID]float64
}

// Save captures the world's current state.
func (w *World) Save() Saved {
	morale := make(map[social.FactionID]float64, len(w.morale))
	for id, m := range w.morale {
		morale[id] = m
	}
	return Saved{
		Seed:        w.Seed,
		Day:         w.Day,
		Factions:    w.AllFactions(),
		Territories: w.AllTerritories(),
		Stances:     w.ledger.Records(),
		Morale:      morale,
	}
}

// Restore rebuilds a world from saved records. Missing morale defaults to full.
func Restore(sv Saved) *World {
	w := newWorld(sv.Seed)
	w.Day = sv.Day
	for _, f := range sv.Factions {
		if f.Relations == nil {
			f.Relations = make(map[social.FactionID]float64)
		}
		w.factions[f.ID] = &f
		w.morale[f.ID] = 1
		if m, ok := sv.Morale[f.ID]; ok {
			w.morale[f.ID] = m
		}
	}
	for _, t := range sv.Territories {
		w.territories[t.ID] = &t
	}
	w.ledger.Restore(sv.Stances)
	return w
}

func newWorld(seed int64) *World {
	return &World{
		Seed:        seed,
		factions:    make(map[social.FactionID]*social.Faction),
		territories: make(map[world.TerritoryID]*world.Territory),
		morale:      make(map[social.FactionID]float64),
		ledger:      social.NewLedger(),
	}
}

func newFaction(rng *rand.Rand, id social.FactionID, name string, minor bool) *social.Faction {
	return &social.Faction{
		ID:     id,
		Name:   name,
		Wealth: 250_000 + rng.Float64()*500_000,
		Traits: social.Traits{
			Honor:       rng.Float64(),
			Calculating: rng.Float64(),
			Militarism:  rng.Float64(),
		},
		Minor:     minor,
		Relations: make(map[social.FactionID]float64),
	}
}

func pickName(names []string, i int, fallback string) string {
	if i < len(names) {
		return names[i]
	}
	return fmt.Sprintf("%s %d", fallback, i+1)
}

// spreadCapitals picks n site indices by farthest-point sampling, starting with the best site.
func spreadCapitals(sites []world.Site, n int) []int {
	n = min(n, len(sites))
	capitals := []int{0}
	for len(capitals) < n {
		best, bestDist := -1, -1
		for i, s := range sites {
			d := 1 << 30
			for _, c := range capitals {
				d = min(d, world.Distance(s.Coord, sites[c].Coord))
			}
			if d > bestDist {
				best, bestDist = i, d
			}
		}
		capitals = append(capitals, best)
	}
	return capitals
}

// nearestCapital returns the index into capitals closest to coord; ties go to the earlier capital.
func nearestCapital(coord world.HexCoord, sites []world.Site, capitals []int) int {
	best, bestDist := 0, 1<<30
	for i, c := range capitals {
		if d := world.Distance(coord, sites[c].Coord); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func (w *World) addTerritory(id world.TerritoryID, site world.Site, owner social.FactionID) {
	w.territories[id] = &world.Territory{
		ID:        id,
		Name:      site.Name,
		Coord:     site.Coord,
		Owner:     owner,
		Culture:   owner,
		Fertility: site.Fertility,
	}
}

// territoryValue is what one territory contributes to its owner's strength.
func territoryValue(t *world.Territory) float64 {
	return 40 + 80*t.Fertility
}

// recompute derives strength from held territory and morale, and eliminates
// factions that hold nothing.
func (w *World) recompute() {
	// Summed in territory order so float rounding never depends on map iteration.
	strength := make(map[social.FactionID]float64)
	for _, t := range w.AllTerritories() {
		strength[t.Owner] += territoryValue(&t)
	}
	for _, id := range w.Factions() {
		f := w.factions[id]
		if f.Eliminated {
			continue
		}
		m, ok := w.morale[id]
		if !ok {
			m = 1
			w.morale[id] = m
		}
		f.Strength = strength[id] * m
		if strength[id] == 0 {
			f.Eliminated = true
			f.Strength = 0
			w.ledger.ClearFaction(id)
			w.record("elimination", fmt.Sprintf("%s has been wiped from the map", f.Name))
		}
	}
}

func (w *World) record(category, desc string) {
	w.events = append(w.events, Event{Day: w.Day, Description: desc, Category: category})
}

// Events returns everything recorded since the last DrainEvents.
func (w *World) Events() []Event { return w.events }

// DrainEvents returns and clears the pending events.
func (w *World) DrainEvents() []Event {
	out := w.events
	w.events = nil
	return out
}

// Ledger returns the stance ledger.
func (w *World) Ledger() *social.Ledger { return w.ledger }

// AllFactions returns copies of every faction, eliminated ones included, by ID.
func (w *World) AllFactions() []social.Faction {
	out := make([]social.Faction, 0, len(w.factions))
	for _, id := range w.Factions() {
		f, _ := w.Faction(id)
		out = append(out, f)
	}
	return out
}

// AllTerritories returns copies of every territory by ID.
func (w *World) AllTerritories() []world.Territory {
	out := make([]world.Territory, 0, len(w.territories))
	for _, t := range w.territories {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Clone returns an independent deep copy, pending events included.
func (w *World) Clone() *World {
	c := newWorld(w.Seed)
	c.Day = w.Day
	for id, f := range w.factions {
		cp := *f
		cp.Relations = make(map[social.FactionID]float64, len(f.Relations))
		for k, v := range f.Relations {
			cp.Relations[k] = v
		}
		c.factions[id] = &cp
	}
	for id, t := range w.territories {
		cp := *t
		c.territories[id] = &cp
	}
	for id, m := range w.morale {
		c.morale[id] = m
	}
	c.ledger = w.ledger.Clone()
	c.events = append([]Event(nil), w.events...)
	return c
}
