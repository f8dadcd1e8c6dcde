package diplomacy

import "github.com/talgya/crossroads-diplomacy/internal/social"

// StrategicState is a faction's posture for the current cycle.
type StrategicState uint8

const (
	StateOpportunistic StrategicState = iota
	StateDefensive
	StateExpansionist
	StateDesperate
)

func (st StrategicState) String() string {
	switch st {
	case StateDefensive:
		return "defensive"
	case StateExpansionist:
		return "expansionist"
	case StateDesperate:
		return "desperate"
	default:
		return "opportunistic"
	}
}

// Classify returns id's posture. Rules are checked in order; the first match wins.
// Recomputed every cycle from the snapshot and never stored.
func Classify(s *Snapshot, id social.FactionID) StrategicState {
	cfg := s.cfg.Posture
	terr := s.Territories(id)
	enemies := s.Wars(id)
	r := s.EnemyRatio(id)

	if terr == 0 ||
		s.MaxExhaustion(id) > cfg.CriticalExhaustion ||
		(enemies > 0 && r < cfg.DesperateRatio && terr < cfg.DesperateTerritories) {
		return StateDesperate
	}
	if enemies > 0 && r < cfg.DefensiveRatio {
		return StateDefensive
	}
	if enemies == 0 &&
		s.Strength(id) > cfg.ExpansionistRatio*s.AvgStrength() &&
		s.Wealth(id) > cfg.ExpansionistWealth {
		return StateExpansionist
	}
	return StateOpportunistic
}

// postureBias is the additive priority delta a posture applies to a goal kind.
func postureBias(s *Snapshot, st StrategicState, kind GoalKind) float64 {
	g := s.cfg.Goals
	switch st {
	case StateDesperate:
		if kind == GoalSurvive {
			return g.DesperateSurvive
		}
		return g.DesperateOther
	case StateDefensive:
		switch kind {
		case GoalStrengthen:
			return g.DefensiveStrengthen
		case GoalExpand:
			return g.DefensiveExpand
		}
	case StateExpansionist:
		if kind == GoalExpand {
			return g.ExpansionistExpand
		}
	}
	return 0
}
