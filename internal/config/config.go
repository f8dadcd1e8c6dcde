// Package config holds every named tunable of the diplomacy engine.
// Defaults live in Default(); a YAML file may override any subset of them.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the complete set of engine tunables.
type Config struct {
	Neighbors     NeighborConfig      `yaml:"neighbors"`
	Coalition     CoalitionConfig     `yaml:"coalition"`
	Scoring       ScoringConfig       `yaml:"scoring"`
	Alliance      AllianceConfig      `yaml:"alliance"`
	Pact          PactConfig          `yaml:"pact"`
	BreakAlliance BreakAllianceConfig `yaml:"break_alliance"`
	BreakPact     BreakPactConfig     `yaml:"break_pact"`
	War           WarConfig           `yaml:"war"`
	Peace         PeaceConfig         `yaml:"peace"`
	Posture       PostureConfig       `yaml:"posture"`
	Goals         GoalConfig          `yaml:"goals"`
	Desire        DesireConfig        `yaml:"desire"`
	Thresholds    ThresholdConfig     `yaml:"thresholds"`
	Cooldowns     CooldownConfig      `yaml:"cooldowns"`
	Exhaustion    ExhaustionConfig    `yaml:"exhaustion"`
}

// NeighborConfig controls border detection.
type NeighborConfig struct {
	BorderDistance float64 `yaml:"border_distance"` // Territory pairs closer than this share a border
}

// CoalitionConfig controls how allies count toward a faction's weight.
type CoalitionConfig struct {
	AllyShare float64 `yaml:"ally_share"`
}

// ScoringConfig holds values shared by every model.
type ScoringConfig struct {
	Ineligible      float64 `yaml:"ineligible"`       // Sentinel total for impossible candidates
	WealthReference float64 `yaml:"wealth_reference"` // Treasury considered "ready"
}

type AllianceConfig struct {
	Base               float64 `yaml:"base"`
	SharedEnemyBonus   float64 `yaml:"shared_enemy_bonus"`
	SharedEnemyMax     float64 `yaml:"shared_enemy_max"`
	SynergyWeight      float64 `yaml:"synergy_weight"`
	SynergyMax         float64 `yaml:"synergy_max"`
	RelationWeight     float64 `yaml:"relation_weight"`
	AlliedToEnemyMalus float64 `yaml:"allied_to_enemy_malus"`
}

type PactConfig struct {
	ThreatWeight     float64 `yaml:"threat_weight"`
	ThreatMax        float64 `yaml:"threat_max"`
	BorderWeight     float64 `yaml:"border_weight"`
	BorderMax        float64 `yaml:"border_max"`
	RecoveryExhaustW float64 `yaml:"recovery_exhaustion_weight"`
	RecoveryPerWar   float64 `yaml:"recovery_per_war"`
	RecoveryMax      float64 `yaml:"recovery_max"`
	PreyRatio        float64 `yaml:"prey_ratio"`
	PreyPenalty      float64 `yaml:"prey_penalty"`
}

type BreakAllianceConfig struct {
	Inertia          float64 `yaml:"inertia"`
	PoorRelationW    float64 `yaml:"poor_relation_weight"`
	NoSharedEnemy    float64 `yaml:"no_shared_enemy"`
	WeakAllyRatio    float64 `yaml:"weak_ally_ratio"`
	WeakAllyBonus    float64 `yaml:"weak_ally_bonus"`
	OpportunityRatio float64 `yaml:"opportunity_ratio"`
	OpportunityBonus float64 `yaml:"opportunity_bonus"`
	HonorWeight      float64 `yaml:"honor_weight"`
	CalculatingW     float64 `yaml:"calculating_weight"`
}

type BreakPactConfig struct {
	Inertia             float64 `yaml:"inertia"`
	VulnerableRatio     float64 `yaml:"vulnerable_ratio"`
	VulnerableWeight    float64 `yaml:"vulnerable_weight"`
	DistractedBonus     float64 `yaml:"distracted_bonus"`
	BetterAllianceBonus float64 `yaml:"better_alliance_bonus"`
	RelationWeight      float64 `yaml:"relation_weight"`
	EconomyWeight       float64 `yaml:"economy_weight"`
	EconomyMax          float64 `yaml:"economy_max"`
}

type WarConfig struct {
	ThreatRatioWeight    float64   `yaml:"threat_ratio_weight"`
	ThreatRatioMax       float64   `yaml:"threat_ratio_max"`
	ThreatTerritoryW     float64   `yaml:"threat_territory_weight"`
	ThreatTerritoryMax   int       `yaml:"threat_territory_max"`
	BalanceWeight        float64   `yaml:"balance_weight"`
	MultiWarPenalty      []float64 `yaml:"multi_war_penalty"` // Indexed by active wars; last entry covers the rest
	DistanceWeight       float64   `yaml:"distance_weight"`
	SnowballRatio        float64   `yaml:"snowball_ratio"`
	RunawayBonus         float64   `yaml:"runaway_bonus"`
	DogpileBonus         float64   `yaml:"dogpile_bonus"`
	DogpileMinWars       int       `yaml:"dogpile_min_wars"`
	OwnEconomyWeight     float64   `yaml:"own_economy_weight"`
	OwnEconomyMin        float64   `yaml:"own_economy_min"`
	OwnEconomyMax        float64   `yaml:"own_economy_max"`
	TargetEconomyWeight  float64   `yaml:"target_economy_weight"`
	TargetEconomyMax     float64   `yaml:"target_economy_max"`
	WeakNeighborRatio    float64   `yaml:"weak_neighbor_ratio"`
	WeakNeighborBonus    float64   `yaml:"weak_neighbor_bonus"`
	NearEliminationAt    int       `yaml:"near_elimination_at"`
	NearEliminationBonus float64   `yaml:"near_elimination_bonus"`
	ReclaimPerTerritory  float64   `yaml:"reclaim_per_territory"`
	ReclaimMax           float64   `yaml:"reclaim_max"`
	MilitarismWeight     float64   `yaml:"militarism_weight"`
}

type PeaceConfig struct {
	DangerWeight         float64   `yaml:"danger_weight"`
	DangerMax            float64   `yaml:"danger_max"`
	DangerTerritoryRef   int       `yaml:"danger_territory_ref"`
	DangerTerritoryW     float64   `yaml:"danger_territory_weight"`
	ExhaustionWeight     float64   `yaml:"exhaustion_weight"`
	TributeShare         float64   `yaml:"tribute_share"`
	TributeWeight        float64   `yaml:"tribute_weight"`
	LossPerTerritory     float64   `yaml:"loss_per_territory"`
	LossMax              float64   `yaml:"loss_max"`
	MultiWarPressure     []float64 `yaml:"multi_war_pressure"` // Indexed by active wars; last entry covers the rest
	OpportunityRatio     float64   `yaml:"opportunity_ratio"`
	OpportunityBonus     float64   `yaml:"opportunity_bonus"`
	EliminationResist    []float64 `yaml:"elimination_resistance"` // Indexed by target territories; beyond the end is 0
	GeographyBonus       float64   `yaml:"geography_bonus"`
	CommitmentDays       uint64    `yaml:"commitment_days"`
	CommitmentRate       float64   `yaml:"commitment_rate"`
	CommitmentAfterRate  float64   `yaml:"commitment_after_rate"`
	CommitmentAfterMax   float64   `yaml:"commitment_after_max"`
	EmergencyTerritories int       `yaml:"emergency_territories"`
	EmergencyWars        int       `yaml:"emergency_wars"`
}

type PostureConfig struct {
	CriticalExhaustion   float64 `yaml:"critical_exhaustion"`
	DesperateRatio       float64 `yaml:"desperate_ratio"`
	DesperateTerritories int     `yaml:"desperate_territories"`
	DefensiveRatio       float64 `yaml:"defensive_ratio"`
	ExpansionistRatio    float64 `yaml:"expansionist_ratio"`
	ExpansionistWealth   float64 `yaml:"expansionist_wealth"`
}

type GoalConfig struct {
	DesperateSurvive     float64 `yaml:"desperate_survive"`
	DesperateOther       float64 `yaml:"desperate_other"`
	DefensiveStrengthen  float64 `yaml:"defensive_strengthen"`
	DefensiveExpand      float64 `yaml:"defensive_expand"`
	ExpansionistExpand   float64 `yaml:"expansionist_expand"`
	SurviveWeakBoost     float64 `yaml:"survive_weak_boost"`
	SurviveLandlessBoost float64 `yaml:"survive_landless_boost"`
	StrengthenBase       float64 `yaml:"strengthen_base"`
	StrengthenExhaustW   float64 `yaml:"strengthen_exhaustion_weight"`
	StrengthenPoorW      float64 `yaml:"strengthen_poor_weight"`
}

type DesireConfig struct {
	PeaceGain      float64 `yaml:"peace_gain"`
	WarLoss        float64 `yaml:"war_loss"`
	EconomyWeight  float64 `yaml:"economy_weight"`
	EconomyMax     float64 `yaml:"economy_max"`
	PressureWeight float64 `yaml:"pressure_weight"`
	NoiseAmplitude float64 `yaml:"noise_amplitude"`
	BiasMin        float64 `yaml:"bias_min"`
	BiasMax        float64 `yaml:"bias_max"`
	PeriodMin      int     `yaml:"period_min"`
	PeriodMax      int     `yaml:"period_max"`
	DecayOnAction  float64 `yaml:"decay_on_action"` // Multiplier for treaty actions; war/peace reset to 0
}

type ThresholdConfig struct {
	WarBase       float64 `yaml:"war_base"`
	WarPerWar     float64 `yaml:"war_per_war"`
	PeaceBase     float64 `yaml:"peace_base"`
	PeacePerEnemy float64 `yaml:"peace_per_enemy"`
	PeaceFloor    float64 `yaml:"peace_floor"`
	Alliance      float64 `yaml:"alliance"`
	Pact          float64 `yaml:"pact"`
	BreakAlliance float64 `yaml:"break_alliance"`
	BreakPact     float64 `yaml:"break_pact"`
}

// CooldownConfig is in sim-days.
type CooldownConfig struct {
	War           uint64 `yaml:"war"`
	Peace         uint64 `yaml:"peace"`
	Alliance      uint64 `yaml:"alliance"`
	BreakAlliance uint64 `yaml:"break_alliance"`
	Pact          uint64 `yaml:"pact"`
	BreakPact     uint64 `yaml:"break_pact"`
	Rejected      uint64 `yaml:"rejected"`
	WarLock       uint64 `yaml:"war_lock"`
}

type ExhaustionConfig struct {
	DailyBase  float64 `yaml:"daily_base"`
	RatioMin   float64 `yaml:"ratio_min"`
	RatioMax   float64 `yaml:"ratio_max"`
	PeaceDecay float64 `yaml:"peace_decay"`
	Max        float64 `yaml:"max"`
}

// Default returns the stock tunables.
func Default() *Config {
	return &Config{
		Neighbors: NeighborConfig{BorderDistance: 3},
		Coalition: CoalitionConfig{AllyShare: 0.5},
		Scoring:   ScoringConfig{Ineligible: -100, WealthReference: 500_000},
		Alliance: AllianceConfig{
			Base:               10,
			SharedEnemyBonus:   15,
			SharedEnemyMax:     30,
			SynergyWeight:      10,
			SynergyMax:         2,
			RelationWeight:     0.2,
			AlliedToEnemyMalus: -60,
		},
		Pact: PactConfig{
			ThreatWeight:     15,
			ThreatMax:        2,
			BorderWeight:     8,
			BorderMax:        32,
			RecoveryExhaustW: 0.2,
			RecoveryPerWar:   8,
			RecoveryMax:      20,
			PreyRatio:        1.5,
			PreyPenalty:      -25,
		},
		BreakAlliance: BreakAllianceConfig{
			Inertia:          -30,
			PoorRelationW:    0.4,
			NoSharedEnemy:    10,
			WeakAllyRatio:    0.5,
			WeakAllyBonus:    15,
			OpportunityRatio: 0.6,
			OpportunityBonus: 15,
			HonorWeight:      25,
			CalculatingW:     15,
		},
		BreakPact: BreakPactConfig{
			Inertia:             -25,
			VulnerableRatio:     0.7,
			VulnerableWeight:    40,
			DistractedBonus:     10,
			BetterAllianceBonus: 20,
			RelationWeight:      0.2,
			EconomyWeight:       10,
			EconomyMax:          10,
		},
		War: WarConfig{
			ThreatRatioWeight:    8,
			ThreatRatioMax:       1.5,
			ThreatTerritoryW:     0.8,
			ThreatTerritoryMax:   10,
			BalanceWeight:        30,
			MultiWarPenalty:      []float64{0, -15, -40, -100},
			DistanceWeight:       1.5,
			SnowballRatio:        1.5,
			RunawayBonus:         10,
			DogpileBonus:         20,
			DogpileMinWars:       2,
			OwnEconomyWeight:     10,
			OwnEconomyMin:        -15,
			OwnEconomyMax:        10,
			TargetEconomyWeight:  5,
			TargetEconomyMax:     5,
			WeakNeighborRatio:    0.6,
			WeakNeighborBonus:    15,
			NearEliminationAt:    2,
			NearEliminationBonus: 10,
			ReclaimPerTerritory:  5,
			ReclaimMax:           15,
			MilitarismWeight:     10,
		},
		Peace: PeaceConfig{
			DangerWeight:         10,
			DangerMax:            3,
			DangerTerritoryRef:   5,
			DangerTerritoryW:     3,
			ExhaustionWeight:     0.4,
			TributeShare:         0.2,
			TributeWeight:        50,
			LossPerTerritory:     5,
			LossMax:              20,
			MultiWarPressure:     []float64{0, 0, 10, 20},
			OpportunityRatio:     0.7,
			OpportunityBonus:     8,
			EliminationResist:    []float64{-60, -60, -35, -15, -5},
			GeographyBonus:       10,
			CommitmentDays:       20,
			CommitmentRate:       3,
			CommitmentAfterRate:  0.5,
			CommitmentAfterMax:   5,
			EmergencyTerritories: 2,
			EmergencyWars:        3,
		},
		Posture: PostureConfig{
			CriticalExhaustion:   80,
			DesperateRatio:       0.5,
			DesperateTerritories: 3,
			DefensiveRatio:       0.8,
			ExpansionistRatio:    1.4,
			ExpansionistWealth:   750_000,
		},
		Goals: GoalConfig{
			DesperateSurvive:     30,
			DesperateOther:       -20,
			DefensiveStrengthen:  15,
			DefensiveExpand:      -20,
			ExpansionistExpand:   15,
			SurviveWeakBoost:     10,
			SurviveLandlessBoost: 30,
			StrengthenBase:       15,
			StrengthenExhaustW:   0.2,
			StrengthenPoorW:      10,
		},
		Desire: DesireConfig{
			PeaceGain:      2.0,
			WarLoss:        1.5,
			EconomyWeight:  2,
			EconomyMax:     2,
			PressureWeight: 0.08,
			NoiseAmplitude: 1.5,
			BiasMin:        0.75,
			BiasMax:        1.25,
			PeriodMin:      5,
			PeriodMax:      10,
			DecayOnAction:  0.5,
		},
		Thresholds: ThresholdConfig{
			WarBase:       35,
			WarPerWar:     10,
			PeaceBase:     40,
			PeacePerEnemy: 5,
			PeaceFloor:    15,
			Alliance:      50,
			Pact:          45,
			BreakAlliance: 40,
			BreakPact:     40,
		},
		Cooldowns: CooldownConfig{
			War:           30,
			Peace:         20,
			Alliance:      30,
			BreakAlliance: 60,
			Pact:          30,
			BreakPact:     60,
			Rejected:      15,
			WarLock:       10,
		},
		Exhaustion: ExhaustionConfig{
			DailyBase:  1,
			RatioMin:   0.5,
			RatioMax:   2,
			PeaceDecay: 2,
			Max:        100,
		},
	}
}

// Load reads a YAML file and overlays it on Default(). Missing keys keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Desire.PeriodMin <= 0 || c.Desire.PeriodMax < c.Desire.PeriodMin {
		errs = append(errs, fmt.Errorf("desire period range [%d,%d] is empty", c.Desire.PeriodMin, c.Desire.PeriodMax))
	}
	if c.Desire.BiasMax < c.Desire.BiasMin {
		errs = append(errs, fmt.Errorf("desire bias range [%g,%g] is empty", c.Desire.BiasMin, c.Desire.BiasMax))
	}
	if c.Neighbors.BorderDistance <= 0 {
		errs = append(errs, errors.New("neighbors.border_distance must be positive"))
	}
	if len(c.War.MultiWarPenalty) == 0 {
		errs = append(errs, errors.New("war.multi_war_penalty needs at least one tier"))
	}
	if len(c.Peace.MultiWarPressure) == 0 {
		errs = append(errs, errors.New("peace.multi_war_pressure needs at least one tier"))
	}
	if c.Scoring.WealthReference <= 0 {
		errs = append(errs, errors.New("scoring.wealth_reference must be positive"))
	}
	if c.Thresholds.PeaceFloor > c.Thresholds.PeaceBase {
		errs = append(errs, errors.New("thresholds.peace_floor exceeds peace_base"))
	}
	return errors.Join(errs...)
}

// WarThreshold is the priority an Expand goal needs given the faction's active wars.
func (c *Config) WarThreshold(wars int) float64 {
	return c.Thresholds.WarBase + c.Thresholds.WarPerWar*float64(wars)
}

// PeaceThreshold is the priority a Survive goal needs; it falls with enemy count.
func (c *Config) PeaceThreshold(enemies int) float64 {
	return max(c.Thresholds.PeaceFloor, c.Thresholds.PeaceBase-c.Thresholds.PeacePerEnemy*float64(enemies))
}
