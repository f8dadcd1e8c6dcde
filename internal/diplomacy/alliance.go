package diplomacy

import (
	"math"

	"github.com/talgya/crossroads-diplomacy/internal/social"
)

// AllianceScore rates how much p wants a defensive alliance with o.
func AllianceScore(s *Snapshot, p, o social.FactionID) ExplainedScore {
	cfg := s.cfg.Alliance
	switch {
	case p == o:
		return Ineligible(s.cfg.Scoring.Ineligible, "cannot ally with itself")
	case !s.Active(p) || !s.Active(o):
		return Ineligible(s.cfg.Scoring.Ineligible, "faction eliminated")
	case s.Minor(p) || s.Minor(o):
		return Ineligible(s.cfg.Scoring.Ineligible, "minor factions do not sign alliances")
	case s.AtWar(p, o):
		return Ineligible(s.cfg.Scoring.Ineligible, "already at war")
	case s.Allied(p, o):
		return Ineligible(s.cfg.Scoring.Ineligible, "already allied")
	}

	var sc ExplainedScore
	sc.Add("base", cfg.Base, "")

	shared := s.SharedEnemies(p, o)
	if n := len(shared); n > 0 {
		bonus := math.Min(float64(n)*cfg.SharedEnemyBonus, cfg.SharedEnemyMax)
		if n == 1 {
			sc.Addf("shared enemy", bonus, "both are at war with %s", s.Name(shared[0]))
		} else {
			sc.Addf("shared enemy", bonus, "they share %d enemies", n)
		}
	}

	rival := strongestRival(s, p, o)
	synergy := clamp(ratio(s.Strength(p)+s.Strength(o), rival, cfg.SynergyMax), 0, cfg.SynergyMax)
	sc.Addf("synergy", synergy*cfg.SynergyWeight, "together they field %.1f× the strongest rival", synergy)

	rel := s.Relation(p, o)
	sc.Addf("relation", (rel+100)/2*cfg.RelationWeight, "relations stand at %+.0f", rel)

	for _, ally := range s.Allies(p) {
		if s.AtWar(ally, o) {
			sc.Addf("allied to enemy", cfg.AlliedToEnemyMalus, "%s is already allied to %s, an enemy of %s", s.Name(p), s.Name(ally), s.Name(o))
			break
		}
	}

	sc.Clamp(0, 100)
	return sc
}

// strongestRival is the strongest enemy of either side, or the strongest third
// party when neither side is at war.
func strongestRival(s *Snapshot, p, o social.FactionID) float64 {
	best := 0.0
	for _, id := range append(s.Enemies(p), s.Enemies(o)...) {
		best = math.Max(best, s.Strength(id))
	}
	if best > 0 {
		return best
	}
	for _, id := range s.IDs() {
		if id != p && id != o {
			best = math.Max(best, s.Strength(id))
		}
	}
	return best
}

// BreakAllianceScore rates how much p wants to abandon its alliance with ally.
func BreakAllianceScore(s *Snapshot, p, ally social.FactionID) ExplainedScore {
	cfg := s.cfg.BreakAlliance
	switch {
	case p == ally:
		return Ineligible(s.cfg.Scoring.Ineligible, "cannot leave an alliance with itself")
	case !s.Active(p) || !s.Active(ally):
		return Ineligible(s.cfg.Scoring.Ineligible, "faction eliminated")
	case !s.Allied(p, ally):
		return Ineligible(s.cfg.Scoring.Ineligible, "not allied")
	}

	var sc ExplainedScore
	sc.Add("inertia", cfg.Inertia, "")

	if rel := s.Relation(p, ally); rel < 0 {
		sc.Addf("poor relation", -rel*cfg.PoorRelationW, "relations have soured to %+.0f", rel)
	}
	if len(s.SharedEnemies(p, ally)) == 0 {
		sc.Add("no shared enemy", cfg.NoSharedEnemy, "the alliance no longer faces a common foe")
	}
	if s.Strength(ally) < cfg.WeakAllyRatio*s.Strength(p) {
		sc.Addf("weak ally", cfg.WeakAllyBonus, "%s has become a burden", s.Name(ally))
	}
	if prey, ok := vulnerableNeighbor(s, p, ally, cfg.OpportunityRatio); ok {
		sc.Addf("opportunity", cfg.OpportunityBonus, "unprotected %s lies on the border", s.Name(prey))
	}

	tr := s.Traits(p)
	if tr.Honor > 0 {
		sc.Add("honor", -tr.Honor*cfg.HonorWeight, "")
	}
	if tr.Calculating > 0 {
		sc.Add("calculating", tr.Calculating*cfg.CalculatingW, "its rulers weigh every bond by its use")
	}

	sc.Clamp(0, 100)
	return sc
}

// vulnerableNeighbor finds the first bordering faction (other than skip) that has
// no allies and is weaker than maxRatio × p's strength.
func vulnerableNeighbor(s *Snapshot, p, skip social.FactionID, maxRatio float64) (social.FactionID, bool) {
	if s.cache == nil {
		return 0, false
	}
	for _, n := range s.cache.NeighborsOf(p) {
		if n == skip || !s.Active(n) || s.Allied(p, n) || s.AtWar(p, n) {
			continue
		}
		if len(s.Allies(n)) == 0 && s.Strength(n) < maxRatio*s.Strength(p) {
			return n, true
		}
	}
	return 0, false
}
