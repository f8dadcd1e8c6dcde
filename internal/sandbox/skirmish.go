package sandbox

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/talgya/crossroads-diplomacy/internal/social"
	"github.com/talgya/crossroads-diplomacy/internal/world"
)

// Daily economy and war constants.
const (
	skirmishChance = 0.08 // Per war per day
	incomeBase     = 200.0
	incomeFertile  = 800.0 // Extra income at full fertility
	warUpkeep      = 1500.0
	moraleLoss     = 0.01 // Per war per day
	moraleGain     = 0.01 // Per peaceful day
	moraleFloor    = 0.5
)

// AdvanceDay moves the world to day: wars skirmish, treasuries collect income and pay
// upkeep, morale drifts, and strength is rederived. Returns the events of the day.
// Results depend only on the world and day, so clones advance identically.
func (w *World) AdvanceDay(day uint64) []Event {
	w.Day = day
	start := len(w.events)

	for _, rec := range w.ledger.Records() {
		if rec.Stance == social.StanceWar {
			w.skirmish(rec.Pair, day)
		}
	}

	for _, id := range w.Factions() {
		f := w.factions[id]
		if f.Eliminated {
			continue
		}
		wars := len(w.ledger.Partners(id, social.StanceWar))
		income := 0.0
		for _, t := range w.Territories(id) {
			income += incomeBase + incomeFertile*t.Fertility
		}
		f.Wealth = math.Max(0, f.Wealth+income-warUpkeep*float64(wars))

		m := w.morale[id]
		if wars > 0 {
			m -= moraleLoss * float64(wars)
		} else {
			m += moraleGain
		}
		w.morale[id] = math.Max(moraleFloor, math.Min(1, m))
	}

	w.recompute()
	return append([]Event(nil), w.events[start:]...)
}

// skirmish may move one border territory from the losing side to the winner.
// The stronger side is more likely to win.
func (w *World) skirmish(p social.PairKey, day uint64) {
	rng := rand.New(rand.NewSource(w.Seed ^ int64(day)*7919 ^ int64(p.Lo)*104729 ^ int64(p.Hi)*1299709))
	if rng.Float64() >= skirmishChance {
		return
	}
	lo, hi := w.factions[p.Lo], w.factions[p.Hi]
	if lo == nil || hi == nil || lo.Eliminated || hi.Eliminated {
		return
	}
	winner, loser := lo, hi
	total := lo.Strength + hi.Strength
	if total > 0 && rng.Float64() >= lo.Strength/total {
		winner, loser = hi, lo
	}

	t := w.frontier(loser.ID, winner.ID)
	if t == nil {
		return
	}
	t.Owner = winner.ID
	w.record("conquest", fmt.Sprintf("%s takes %s from %s", winner.Name, t.Name, loser.Name))
}

// frontier is the loser's territory closest to anything the winner holds; ties go to the lower ID.
func (w *World) frontier(loser, winner social.FactionID) *world.Territory {
	var best *world.Territory
	bestDist := math.Inf(1)
	held := w.Territories(winner)
	for _, lt := range w.Territories(loser) {
		for _, wt := range held {
			d := world.HexDistance(lt, wt)
			if d < bestDist || (d == bestDist && best != nil && lt.ID < best.ID) {
				best, bestDist = w.territories[lt.ID], d
			}
		}
	}
	return best
}
