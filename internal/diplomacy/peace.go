package diplomacy

import (
	"math"

	"github.com/talgya/crossroads-diplomacy/internal/config"
	"github.com/talgya/crossroads-diplomacy/internal/social"
)

// EliminationResistance is the peace-score penalty for letting an enemy holding
// the given number of territories escape. It is most negative at one territory.
func EliminationResistance(cfg *config.Config, territories int) float64 {
	table := cfg.Peace.EliminationResist
	if territories < 0 || territories >= len(table) {
		return 0
	}
	return table[territories]
}

// CommitmentTerm scores elapsed war time against the commitment window. Inside the
// window it is negative and proportional to the days remaining; emergencies halve it.
// After the window it turns slightly positive.
func CommitmentTerm(cfg *config.Config, elapsed uint64, emergency bool) float64 {
	pc := cfg.Peace
	if elapsed < pc.CommitmentDays {
		v := -pc.CommitmentRate * float64(pc.CommitmentDays-elapsed)
		if emergency {
			v /= 2
		}
		return v
	}
	return math.Min(pc.CommitmentAfterMax, pc.CommitmentAfterRate*float64(elapsed-pc.CommitmentDays))
}

// Tribute is what p would pay e to end their war: a share of p's treasury that grows
// with e's strength advantage. It is zero when p is the stronger side.
func Tribute(s *Snapshot, p, e social.FactionID) float64 {
	return tributeShare(s, p, e) * s.Wealth(p)
}

func tributeShare(s *Snapshot, p, e social.FactionID) float64 {
	sp, se := s.Strength(p), s.Strength(e)
	return clamp(ratio(se-sp, se+sp, 0), 0, 1) * s.cfg.Peace.TributeShare
}

// PeaceDesireScore rates how much p wants to end its war with e.
func PeaceDesireScore(s *Snapshot, p, e social.FactionID) ExplainedScore {
	cfg := s.cfg.Peace
	switch {
	case p == e:
		return Ineligible(s.cfg.Scoring.Ineligible, "cannot make peace with itself")
	case !s.Active(p) || !s.Active(e):
		return Ineligible(s.cfg.Scoring.Ineligible, "faction eliminated")
	case !s.AtWar(p, e):
		return Ineligible(s.cfg.Scoring.Ineligible, "not at war")
	}

	var sc ExplainedScore
	sp, se := s.Strength(p), s.Strength(e)
	terrP := s.Territories(p)
	wars := s.Wars(p)

	danger := clamp(ratio(s.EnemyCoalition(p), sp, cfg.DangerMax), 0, cfg.DangerMax) * cfg.DangerWeight
	danger += float64(max(0, cfg.DangerTerritoryRef-terrP)) * cfg.DangerTerritoryW
	sc.Addf("danger", danger, "its enemies field %.1f× its strength", ratio(s.EnemyCoalition(p), sp, cfg.DangerMax))

	if ex := s.Exhaustion(p, e); ex > 0 {
		sc.Addf("exhaustion", ex*cfg.ExhaustionWeight, "war weariness has reached %.0f", ex)
	}

	if share := tributeShare(s, p, e); share > 0 {
		sc.Addf("tribute", -share*cfg.TributeWeight, "peace would cost %.0f%% of its treasury", share*100)
	}

	disparity := ratio(se, sp, math.Inf(1))
	switch {
	case disparity >= 2:
		sc.Addf("disparity", 20, "%s is more than twice as strong", s.Name(e))
	case disparity >= 1.5:
		sc.Addf("disparity", 12, "%s is half again as strong", s.Name(e))
	case disparity >= 1.1:
		sc.Addf("disparity", 5, "%s holds the upper hand", s.Name(e))
	case disparity <= 0.5:
		sc.Addf("disparity", -10, "%s is losing badly", s.Name(e))
	}

	if lost := s.TerritoriesLost(p, e); lost > 0 {
		sc.Addf("territorial loss", math.Min(float64(lost)*cfg.LossPerTerritory, cfg.LossMax),
			"it has lost %d territories since the war began", lost)
	}

	if pressure := tier(cfg.MultiWarPressure, wars); pressure > 0 {
		sc.Addf("multi-war pressure", pressure, "it is fighting on %d fronts", wars)
	}

	for _, other := range s.Enemies(p) {
		if other != e && s.Strength(other) < cfg.OpportunityRatio*sp {
			sc.Addf("strategic opportunity", cfg.OpportunityBonus, "peace frees it to finish %s", s.Name(other))
			break
		}
	}

	if v := EliminationResistance(s.cfg, s.Territories(e)); v != 0 {
		sc.Addf("elimination resistance", v, "%s is down to %d territories", s.Name(e), s.Territories(e))
	}

	if !s.Borders(p, e) {
		sc.Add("geography", cfg.GeographyBonus, "the war is fought far from home")
	}

	if start, ok := s.WarStart(p, e); ok && s.Day >= start {
		elapsed := s.Day - start
		emergency := terrP <= cfg.EmergencyTerritories || wars >= cfg.EmergencyWars
		v := CommitmentTerm(s.cfg, elapsed, emergency)
		sc.Addf("war commitment", v, "the war has run %d days", elapsed)
	}

	sc.Clamp(0, 100)
	return sc
}
