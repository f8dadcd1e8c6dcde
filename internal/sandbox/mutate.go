package sandbox

import (
	"fmt"
	"math"

	"github.com/talgya/crossroads-diplomacy/internal/social"
)

// Relation shifts applied by each mutation, to both sides.
const (
	relWar          = -30
	relPeace        = 10
	relAlliance     = 15
	relBreakAlly    = -25
	relPact         = 5
	relBreakPact    = -20
	relationCeiling = 100
)

// pair resolves both factions and rejects self-pairs and eliminated factions.
func (w *World) pair(a, b social.FactionID) (*social.Faction, *social.Faction, error) {
	fa, ok := w.factions[a]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %d", ErrUnknownFaction, a)
	}
	fb, ok := w.factions[b]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %d", ErrUnknownFaction, b)
	}
	if a == b {
		return nil, nil, fmt.Errorf("%w: faction %d paired with itself", ErrStale, a)
	}
	if fa.Eliminated || fb.Eliminated {
		return nil, nil, fmt.Errorf("%w: %s or %s is eliminated", ErrStale, fa.Name, fb.Name)
	}
	return fa, fb, nil
}

func (w *World) shiftRelation(fa, fb *social.Faction, delta float64) {
	fa.Relations[fb.ID] = math.Max(-relationCeiling, math.Min(relationCeiling, fa.Relations[fb.ID]+delta))
	fb.Relations[fa.ID] = math.Max(-relationCeiling, math.Min(relationCeiling, fb.Relations[fa.ID]+delta))
}

func (w *World) DeclareWar(a, b social.FactionID) error {
	fa, fb, err := w.pair(a, b)
	if err != nil {
		return err
	}
	if st := w.ledger.Stance(a, b); st != social.StanceNone {
		return fmt.Errorf("%w: %s and %s already hold %s", ErrStale, fa.Name, fb.Name, st)
	}
	w.ledger.Set(a, b, social.StanceWar, w.Day, "war")
	w.shiftRelation(fa, fb, relWar)
	w.record("war", fmt.Sprintf("%s declares war on %s", fa.Name, fb.Name))
	return nil
}

// MakePeace ends the war; a pays b the tribute, capped at a's treasury.
func (w *World) MakePeace(a, b social.FactionID, tribute float64) error {
	fa, fb, err := w.pair(a, b)
	if err != nil {
		return err
	}
	if !w.IsAtWar(a, b) {
		return fmt.Errorf("%w: %s and %s are not at war", ErrStale, fa.Name, fb.Name)
	}
	w.ledger.Clear(a, b)
	paid := math.Max(0, math.Min(tribute, fa.Wealth))
	fa.Wealth -= paid
	fb.Wealth += paid
	w.shiftRelation(fa, fb, relPeace)
	w.record("peace", fmt.Sprintf("%s and %s make peace", fa.Name, fb.Name))
	return nil
}

func (w *World) FormAlliance(a, b social.FactionID, reason string) error {
	fa, fb, err := w.pair(a, b)
	if err != nil {
		return err
	}
	if st := w.ledger.Stance(a, b); st == social.StanceWar || st == social.StanceAlliance {
		return fmt.Errorf("%w: %s and %s hold %s", ErrStale, fa.Name, fb.Name, st)
	}
	// An alliance supersedes a pact.
	w.ledger.Set(a, b, social.StanceAlliance, w.Day, reason)
	w.shiftRelation(fa, fb, relAlliance)
	w.record("treaty", fmt.Sprintf("%s and %s form an alliance", fa.Name, fb.Name))
	return nil
}

func (w *World) BreakAlliance(a, b social.FactionID, reason string) error {
	fa, fb, err := w.pair(a, b)
	if err != nil {
		return err
	}
	if !w.IsAllied(a, b) {
		return fmt.Errorf("%w: %s and %s are not allied", ErrStale, fa.Name, fb.Name)
	}
	w.ledger.Clear(a, b)
	w.shiftRelation(fa, fb, relBreakAlly)
	w.record("treaty", fmt.Sprintf("%s breaks its alliance with %s", fa.Name, fb.Name))
	return nil
}

func (w *World) FormPact(a, b social.FactionID, reason string) error {
	fa, fb, err := w.pair(a, b)
	if err != nil {
		return err
	}
	if st := w.ledger.Stance(a, b); st != social.StanceNone {
		return fmt.Errorf("%w: %s and %s already hold %s", ErrStale, fa.Name, fb.Name, st)
	}
	w.ledger.Set(a, b, social.StancePact, w.Day, reason)
	w.shiftRelation(fa, fb, relPact)
	w.record("treaty", fmt.Sprintf("%s and %s sign a non-aggression pact", fa.Name, fb.Name))
	return nil
}

func (w *World) BreakPact(a, b social.FactionID) error {
	fa, fb, err := w.pair(a, b)
	if err != nil {
		return err
	}
	if !w.HasPact(a, b) {
		return fmt.Errorf("%w: %s and %s hold no pact", ErrStale, fa.Name, fb.Name)
	}
	w.ledger.Clear(a, b)
	w.shiftRelation(fa, fb, relBreakPact)
	w.record("treaty", fmt.Sprintf("%s repudiates its pact with %s", fa.Name, fb.Name))
	return nil
}
