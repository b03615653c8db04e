package openforest

import (
	"encoding/json"
	"fmt"
	"os"
)

// MatchConfig holds every knob a match is played under. It is loaded
// once at startup and never mutated; two engines built from equal
// configs and fed equal action streams produce identical worlds.
type MatchConfig struct {
	Seed                     int64   `json:"seed"`
	TickMs                   int     `json:"tick_ms"`
	MatchTicks               int     `json:"match_ticks"`
	PlanetCount              int     `json:"planet_count"`
	ArtifactCount            int     `json:"artifact_count"`
	MaxActionsPerTick        int     `json:"max_actions_per_tick"`
	SpeedConst               float64 `json:"speed_const"`
	CaptureThresholdFraction float64 `json:"capture_threshold_fraction"`
	DefenseMultiplier        float64 `json:"defense_multiplier"`
	PingTTLTicks             int     `json:"ping_ttl_ticks"`
	PingJitter               float64 `json:"ping_jitter"`
	PingBaseRadius           float64 `json:"ping_base_radius"`
	PingBaseStrength         float64 `json:"ping_base_strength"`
	ArtifactPingRadius       float64 `json:"artifact_ping_radius"`
	ArtifactPingStrength     float64 `json:"artifact_ping_strength"`
	ArtifactPointsPerTick    float64 `json:"artifact_points_per_tick"`
	ScoreTopN                int     `json:"score_top_n"`
	CommitTimeoutMs          int     `json:"commit_timeout_ms"`
	RevealTimeoutMs          int     `json:"reveal_timeout_ms"`
	PlayerHomeMinDistance    float64 `json:"player_home_min_distance"`
}

// DefaultConfig returns the standard match parameters used when no
// config file is supplied.
func DefaultConfig() MatchConfig {
	return MatchConfig{
		Seed:                     1,
		TickMs:                   500,
		MatchTicks:               300,
		PlanetCount:              220,
		ArtifactCount:            6,
		MaxActionsPerTick:        5,
		SpeedConst:               0.08,
		CaptureThresholdFraction: 0.15,
		DefenseMultiplier:        0.2,
		PingTTLTicks:             3,
		PingJitter:               0.03,
		PingBaseRadius:           0.05,
		PingBaseStrength:         0.4,
		ArtifactPingRadius:       0.08,
		ArtifactPingStrength:     0.25,
		ArtifactPointsPerTick:    1.5,
		ScoreTopN:                10,
		CommitTimeoutMs:          2000,
		RevealTimeoutMs:          2000,
		PlayerHomeMinDistance:    0.7,
	}
}

// LoadConfig reads a MatchConfig from a JSON file.
func LoadConfig(path string) (MatchConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return MatchConfig{}, fmt.Errorf("reading match config: %w", err)
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return MatchConfig{}, fmt.Errorf("parsing match config %s: %w", path, err)
	}
	return cfg, nil
}

// LevelStats are the base attributes a planet derives from its level.
type LevelStats struct {
	EnergyCap    float64
	EnergyGrowth float64
	SilverCap    float64
	SilverGrowth float64
	Defense      float64
	Speed        float64
	SensorRange  float64
}

// StatsForLevel computes base planet attributes for a level in [1,5].
func StatsForLevel(level int) LevelStats {
	l := float64(level)
	return LevelStats{
		EnergyCap:    40 + l*40,
		EnergyGrowth: 1.0 + l*0.6,
		SilverCap:    30 + l*30,
		SilverGrowth: 0.6 + l*0.35,
		Defense:      0.8 + l*0.25,
		Speed:        0.6 + l*0.08,
		SensorRange:  0.18 + l*0.06,
	}
}
