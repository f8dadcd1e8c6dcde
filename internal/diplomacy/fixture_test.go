package diplomacy

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/talgya/crossroads-diplomacy/internal/config"
	"github.com/talgya/crossroads-diplomacy/internal/social"
	"github.com/talgya/crossroads-diplomacy/internal/world"
)

// testWorld is a hand-built FactBase and Mutator for scenario tests.
type testWorld struct {
	factions map[social.FactionID]social.Faction
	terr     map[social.FactionID][]world.Territory
	ledger   *social.Ledger
	day      uint64
	nextTerr world.TerritoryID

	// oneSided makes IsAtWar answer true for (a, b) only, never (b, a).
	oneSided map[[2]social.FactionID]bool
	failWith error
	calls    []string
}

func newTestWorld() *testWorld {
	return &testWorld{
		factions: make(map[social.FactionID]social.Faction),
		terr:     make(map[social.FactionID][]world.Territory),
		ledger:   social.NewLedger(),
		oneSided: make(map[[2]social.FactionID]bool),
		nextTerr: 1,
	}
}

// add creates a faction holding n territories in a row starting at hex (q, r).
func (w *testWorld) add(id social.FactionID, strength, wealth float64, n, q, r int) *testWorld {
	w.factions[id] = social.Faction{
		ID:        id,
		Name:      fmt.Sprintf("F%d", id),
		Strength:  strength,
		Wealth:    wealth,
		Relations: make(map[social.FactionID]float64),
	}
	for i := 0; i < n; i++ {
		w.terr[id] = append(w.terr[id], world.Territory{
			ID:      w.nextTerr,
			Name:    fmt.Sprintf("T%d", w.nextTerr),
			Coord:   world.HexCoord{Q: q + i, R: r},
			Owner:   id,
			Culture: id,
		})
		w.nextTerr++
	}
	return w
}

func (w *testWorld) edit(id social.FactionID, fn func(f *social.Faction)) *testWorld {
	f := w.factions[id]
	fn(&f)
	w.factions[id] = f
	return w
}

func (w *testWorld) relate(a, b social.FactionID, v float64) *testWorld {
	w.factions[a].Relations[b] = v
	w.factions[b].Relations[a] = v
	return w
}

func (w *testWorld) war(a, b social.FactionID, since uint64) *testWorld {
	w.ledger.Set(a, b, social.StanceWar, since, "")
	return w
}

func (w *testWorld) ally(a, b social.FactionID) *testWorld {
	w.ledger.Set(a, b, social.StanceAlliance, 0, "")
	return w
}

func (w *testWorld) pact(a, b social.FactionID) *testWorld {
	w.ledger.Set(a, b, social.StancePact, 0, "")
	return w
}

func (w *testWorld) Factions() []social.FactionID {
	var ids []social.FactionID
	for id := range w.factions {
		ids = append(ids, id)
	}
	return social.SortIDs(ids)
}

func (w *testWorld) Faction(id social.FactionID) (social.Faction, bool) {
	f, ok := w.factions[id]
	return f, ok
}

func (w *testWorld) Territories(id social.FactionID) []world.Territory { return w.terr[id] }

func (w *testWorld) Relation(a, b social.FactionID) float64 { return w.factions[a].Relations[b] }

func (w *testWorld) IsAtWar(a, b social.FactionID) bool {
	if w.oneSided[[2]social.FactionID{a, b}] {
		return true
	}
	return w.ledger.Stance(a, b) == social.StanceWar
}

func (w *testWorld) IsAllied(a, b social.FactionID) bool {
	return w.ledger.Stance(a, b) == social.StanceAlliance
}

func (w *testWorld) HasPact(a, b social.FactionID) bool {
	return w.ledger.Stance(a, b) == social.StancePact
}

func (w *testWorld) WarStart(a, b social.FactionID) (uint64, bool) {
	rec, ok := w.ledger.Record(a, b)
	if !ok || rec.Stance != social.StanceWar {
		return 0, false
	}
	return rec.Since, true
}

func (w *testWorld) Distance(a, b world.Territory) float64 { return world.HexDistance(a, b) }

func (w *testWorld) mutate(name string, a, b social.FactionID, fn func()) error {
	w.calls = append(w.calls, fmt.Sprintf("%s %d %d", name, a, b))
	if w.failWith != nil {
		return w.failWith
	}
	fn()
	return nil
}

func (w *testWorld) DeclareWar(a, b social.FactionID) error {
	return w.mutate("war", a, b, func() { w.ledger.Set(a, b, social.StanceWar, w.day, "") })
}

func (w *testWorld) MakePeace(a, b social.FactionID, tribute float64) error {
	return w.mutate("peace", a, b, func() { w.ledger.Clear(a, b) })
}

func (w *testWorld) FormAlliance(a, b social.FactionID, reason string) error {
	return w.mutate("ally", a, b, func() { w.ledger.Set(a, b, social.StanceAlliance, w.day, reason) })
}

func (w *testWorld) BreakAlliance(a, b social.FactionID, reason string) error {
	return w.mutate("unally", a, b, func() { w.ledger.Clear(a, b) })
}

func (w *testWorld) FormPact(a, b social.FactionID, reason string) error {
	return w.mutate("pact", a, b, func() { w.ledger.Set(a, b, social.StancePact, w.day, reason) })
}

func (w *testWorld) BreakPact(a, b social.FactionID) error {
	return w.mutate("unpact", a, b, func() { w.ledger.Clear(a, b) })
}

var errRefused = errors.New("refused")

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// snapshotOf builds a snapshot with a fresh neighbor cache over w.
func snapshotOf(w *testWorld, day uint64, st *State) *Snapshot {
	cfg := config.Default()
	if st == nil {
		st = NewState()
	}
	cache := NewNeighborCache(cfg.Neighbors.BorderDistance)
	s := NewSnapshot(day, cfg, w, cache, st, quietLogger())
	cache.Refresh(day, s.IDs(), s.TerritoryList, w.Distance)
	return s
}
