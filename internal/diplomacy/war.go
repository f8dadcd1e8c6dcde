package diplomacy

import (
	"math"

	"github.com/talgya/crossroads-diplomacy/internal/config"
	"github.com/talgya/crossroads-diplomacy/internal/social"
)

// MultiWarPenalty is the war-score penalty for a faction already fighting wars.
// Its magnitude grows strictly with each tier.
func MultiWarPenalty(cfg *config.Config, wars int) float64 {
	return tier(cfg.War.MultiWarPenalty, wars)
}

// WarDesireScore rates how much p wants to declare war on t.
func WarDesireScore(s *Snapshot, p, t social.FactionID) ExplainedScore {
	cfg := s.cfg.War
	switch {
	case p == t:
		return Ineligible(s.cfg.Scoring.Ineligible, "cannot declare war on itself")
	case !s.Active(p) || !s.Active(t):
		return Ineligible(s.cfg.Scoring.Ineligible, "faction eliminated")
	case s.Territories(p) == 0:
		return Ineligible(s.cfg.Scoring.Ineligible, "holds no territory to wage war from")
	case s.AtWar(p, t):
		return Ineligible(s.cfg.Scoring.Ineligible, "already at war")
	case s.Allied(p, t):
		return Ineligible(s.cfg.Scoring.Ineligible, "allied")
	case s.Pacted(p, t):
		return Ineligible(s.cfg.Scoring.Ineligible, "bound by a non-aggression pact")
	}

	var sc ExplainedScore
	sp, st := s.Strength(p), s.Strength(t)
	terrT := s.Territories(t)

	// Threat: a rival coalition close to our own, holding wide lands, provokes war.
	threatRatio := math.Min(ratio(s.CoalitionStrength(t), s.CoalitionStrength(p), cfg.ThreatRatioMax), cfg.ThreatRatioMax)
	threat := threatRatio*cfg.ThreatRatioWeight + float64(min(terrT, cfg.ThreatTerritoryMax))*cfg.ThreatTerritoryW
	sc.Addf("threat", threat, "%s's coalition stands at %.1f× its own across %d territories", s.Name(t), threatRatio, terrT)

	balance := ratio(sp-st, sp+st, 0) * cfg.BalanceWeight
	if balance >= 0 {
		sc.Addf("power balance", balance, "it outmatches %s", s.Name(t))
	} else {
		sc.Addf("power balance", balance, "%s outmatches it", s.Name(t))
	}

	wars := s.Wars(p)
	if pen := MultiWarPenalty(s.cfg, wars); pen != 0 {
		sc.Addf("multi-war", pen, "it is already fighting %d war(s)", wars)
	}

	if d := s.MinDistance(p, t); !math.IsInf(d, 1) {
		if over := d - s.cfg.Neighbors.BorderDistance; over > 0 {
			sc.Addf("distance", -over*cfg.DistanceWeight, "%s lies %.0f hexes away", s.Name(t), d)
		}
	} else {
		sc.Add("distance", -float64(cfg.ThreatTerritoryMax)*cfg.DistanceWeight, "no road leads to it")
	}

	if s.Snowballing(t) {
		sc.Addf("runaway", cfg.RunawayBonus, "%s is growing out of control", s.Name(t))
		if tw := s.Wars(t); tw >= cfg.DogpileMinWars {
			sc.Addf("dogpile", cfg.DogpileBonus, "%s is already beset by %d enemies", s.Name(t), tw)
		}
	}

	ref := s.cfg.Scoring.WealthReference
	own := clamp((s.Wealth(p)/ref-1)*cfg.OwnEconomyWeight, cfg.OwnEconomyMin, cfg.OwnEconomyMax)
	sc.Add("own economy", own, "its treasury is full")
	target := clamp((1-s.Wealth(t)/ref)*cfg.TargetEconomyWeight, -cfg.TargetEconomyMax, cfg.TargetEconomyMax)
	sc.Addf("target economy", target, "%s's coffers are thin", s.Name(t))

	if v, note := conquestOpportunity(s, p, t); v > 0 {
		sc.Add("conquest", v, note)
	}

	if m := s.Traits(p).Militarism; m > 0 {
		sc.Add("militarism", m*cfg.MilitarismWeight, "its rulers are warlike")
	}

	sc.Clamp(0, 100)
	return sc
}

// conquestOpportunity sums the weak-neighbor, near-elimination and cultural-reclaim bonuses.
// The note names the largest contributor.
func conquestOpportunity(s *Snapshot, p, t social.FactionID) (float64, string) {
	cfg := s.cfg.War
	total, best := 0.0, 0.0
	note := ""
	consider := func(v float64, n string) {
		total += v
		if v > best {
			best, note = v, n
		}
	}

	if s.Borders(p, t) && s.Strength(t) < cfg.WeakNeighborRatio*s.Strength(p) {
		consider(cfg.WeakNeighborBonus, "a weak neighbor sits on its border")
	}
	if n := s.Territories(t); n > 0 && n <= cfg.NearEliminationAt {
		consider(cfg.NearEliminationBonus, "the enemy is one blow from collapse")
	}
	reclaim := 0
	for _, terr := range s.TerritoryList(t) {
		if terr.Culture == p {
			reclaim++
		}
	}
	if reclaim > 0 {
		consider(math.Min(float64(reclaim)*cfg.ReclaimPerTerritory, cfg.ReclaimMax), "ancestral lands lie under foreign rule")
	}
	return total, note
}
