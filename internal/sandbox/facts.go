package sandbox

import (
	"fmt"
	"sort"

	"github.com/talgya/crossroads-diplomacy/internal/social"
	"github.com/talgya/crossroads-diplomacy/internal/world"
)

// Factions lists every faction ID, eliminated ones included, ascending.
func (w *World) Factions() []social.FactionID {
	ids := make([]social.FactionID, 0, len(w.factions))
	for id := range w.factions {
		ids = append(ids, id)
	}
	return social.SortIDs(ids)
}

// Faction returns a copy of the faction record.
func (w *World) Faction(id social.FactionID) (social.Faction, bool) {
	f, ok := w.factions[id]
	if !ok {
		return social.Faction{}, false
	}
	cp := *f
	cp.Relations = make(map[social.FactionID]float64, len(f.Relations))
	for k, v := range f.Relations {
		cp.Relations[k] = v
	}
	return cp, true
}

// Territories returns what id holds, by territory ID.
func (w *World) Territories(id social.FactionID) []world.Territory {
	var out []world.Territory
	for _, t := range w.territories {
		if t.Owner == id {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Relation returns a's opinion of b.
func (w *World) Relation(a, b social.FactionID) float64 {
	if f, ok := w.factions[a]; ok {
		return f.Relations[b]
	}
	return 0
}

func (w *World) IsAtWar(a, b social.FactionID) bool {
	return w.ledger.Stance(a, b) == social.StanceWar
}

func (w *World) IsAllied(a, b social.FactionID) bool {
	return w.ledger.Stance(a, b) == social.StanceAlliance
}

func (w *World) HasPact(a, b social.FactionID) bool {
	return w.ledger.Stance(a, b) == social.StancePact
}

// WarStart returns the day the war between a and b began.
func (w *World) WarStart(a, b social.FactionID) (uint64, bool) {
	rec, ok := w.ledger.Record(a, b)
	if !ok || rec.Stance != social.StanceWar {
		return 0, false
	}
	return rec.Since, true
}

// Distance is hex steps between territory centers.
func (w *World) Distance(a, b world.Territory) float64 {
	return world.HexDistance(a, b)
}

// Name returns the faction's display name, or its ID when unknown.
func (w *World) Name(id social.FactionID) string {
	if f, ok := w.factions[id]; ok {
		return f.Name
	}
	return fmt.Sprintf("faction %d", id)
}
