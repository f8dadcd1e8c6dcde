package diplomacy

import (
	"math"

	"github.com/talgya/crossroads-diplomacy/internal/social"
)

// NonAggressionPactScore rates how much p wants a non-aggression pact with o.
func NonAggressionPactScore(s *Snapshot, p, o social.FactionID) ExplainedScore {
	cfg := s.cfg.Pact
	switch {
	case p == o:
		return Ineligible(s.cfg.Scoring.Ineligible, "cannot sign a pact with itself")
	case !s.Active(p) || !s.Active(o):
		return Ineligible(s.cfg.Scoring.Ineligible, "faction eliminated")
	case s.Minor(p) || s.Minor(o):
		return Ineligible(s.cfg.Scoring.Ineligible, "minor factions do not sign pacts")
	case s.AtWar(p, o):
		return Ineligible(s.cfg.Scoring.Ineligible, "already at war")
	case s.Pacted(p, o):
		return Ineligible(s.cfg.Scoring.Ineligible, "pact already in force")
	case s.Allied(p, o):
		return Ineligible(s.cfg.Scoring.Ineligible, "already allied")
	}

	var sc ExplainedScore

	threat := clamp(ratio(s.Strength(o), s.Strength(p), cfg.ThreatMax), 0, cfg.ThreatMax)
	sc.Addf("threat", threat*cfg.ThreatWeight, "%s is %.1f× its strength", s.Name(o), threat)

	if borders := s.Proximity(p, o); borders > 0 {
		sc.Addf("border", math.Min(float64(borders)*cfg.BorderWeight, cfg.BorderMax),
			"they share %d border crossings", borders)
	}

	wars := s.Wars(p)
	recovery := math.Min(cfg.RecoveryMax, s.PeakExhaustion(p)*cfg.RecoveryExhaustW+float64(wars)*cfg.RecoveryPerWar)
	if recovery > 0 {
		if wars > 0 {
			sc.Addf("war recovery", recovery, "it is fighting %d other war(s)", wars)
		} else {
			sc.Add("war recovery", recovery, "it is still recovering from war")
		}
	}

	if s.Strength(p) >= cfg.PreyRatio*s.Strength(o) {
		sc.Addf("prey", cfg.PreyPenalty, "%s looks more like prey than a threat", s.Name(o))
	}

	sc.Clamp(0, 100)
	return sc
}

// BreakPactScore rates how much p wants to end its pact with o.
func BreakPactScore(s *Snapshot, p, o social.FactionID) ExplainedScore {
	cfg := s.cfg.BreakPact
	switch {
	case p == o:
		return Ineligible(s.cfg.Scoring.Ineligible, "cannot break a pact with itself")
	case !s.Active(p) || !s.Active(o):
		return Ineligible(s.cfg.Scoring.Ineligible, "faction eliminated")
	case !s.Pacted(p, o):
		return Ineligible(s.cfg.Scoring.Ineligible, "no pact in force")
	}

	var sc ExplainedScore
	sc.Add("inertia", cfg.Inertia, "")

	r := ratio(s.Strength(o), s.Strength(p), 1)
	if r < cfg.VulnerableRatio {
		sc.Addf("vulnerable target", (1-r)*cfg.VulnerableWeight, "%s has fallen to %.0f%% of its strength", s.Name(o), r*100)
	}
	if wars := s.Wars(o); wars > 0 {
		sc.Addf("distracted target", cfg.DistractedBonus, "%s is tied down in %d war(s)", s.Name(o), wars)
	}

	for _, c := range s.Enemies(o) {
		if c == p || s.Minor(c) {
			continue
		}
		if AllianceScore(s, p, c).Total() >= s.cfg.Thresholds.Alliance {
			sc.Addf("better alliance", cfg.BetterAllianceBonus, "%s would make a better partner against it", s.Name(c))
			break
		}
	}

	rel := s.Relation(p, o)
	sc.Addf("relation", -rel*cfg.RelationWeight, "relations stand at %+.0f", rel)

	econ := clamp((ratio(s.Wealth(p), s.cfg.Scoring.WealthReference, 0)-1)*cfg.EconomyWeight, -cfg.EconomyMax, cfg.EconomyMax)
	sc.Add("economy", econ, "its treasury can carry a war")

	sc.Clamp(0, 100)
	return sc
}
