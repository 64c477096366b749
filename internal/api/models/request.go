package models

import (
	"time"

	"grid-planner/internal/config"
	"grid-planner/internal/export"
	"grid-planner/internal/optimize"
)

// OptimizeRequest is the body of POST /api/v1/optimize and /api/v1/compare.
// Exactly one of Network and Scenario must be set.
type OptimizeRequest struct {
	Network  *export.Document `json:"network,omitempty"`
	Scenario *ScenarioRequest `json:"scenario,omitempty"`
	Options  OptimizeOptions  `json:"options"`
}

// ScenarioRequest selects a bundled scenario instead of an uploaded network
type ScenarioRequest struct {
	Name               string  `json:"name" binding:"required"`
	Seed               int64   `json:"seed"`
	SnapshotsPerPeriod int     `json:"snapshots_per_period"`
	FreqHours          int     `json:"freq_hours"`
	DiscountRate       float64 `json:"discount_rate"`
}

func (s ScenarioRequest) ToConfig() config.ScenarioConfig {
	return config.ScenarioConfig{
		Name:               s.Name,
		Seed:               s.Seed,
		SnapshotsPerPeriod: s.SnapshotsPerPeriod,
		FreqHours:          s.FreqHours,
		DiscountRate:       s.DiscountRate,
	}
}

// OptimizeOptions mirrors the optimizer section of a YAML config
type OptimizeOptions struct {
	Mode             string  `json:"mode"` // "multi_period" (default) or "rolling_horizon"
	Solver           string  `json:"solver"`
	TimeoutSeconds   float64 `json:"timeout_seconds"`
	Tolerance        float64 `json:"tolerance"`
	CapitalWeighting string  `json:"capital_weighting"`
	Horizon          int     `json:"horizon"`
	Overlap          int     `json:"overlap"`
	SeedPolicy       string  `json:"seed_policy"`
}

// DefaultTimeout bounds API solves that do not set timeout_seconds.
const DefaultTimeout = 5 * time.Minute

// ToConfig converts the options and applies the config defaults. The result still
// needs Validate.
func (o OptimizeOptions) ToConfig() config.OptimizerConfig {
	timeout := time.Duration(o.TimeoutSeconds * float64(time.Second))
	if o.TimeoutSeconds == 0 {
		timeout = DefaultTimeout
	}
	c := config.OptimizerConfig{
		Mode:             optimize.Mode(o.Mode),
		Solver:           o.Solver,
		Timeout:          timeout,
		Tolerance:        o.Tolerance,
		CapitalWeighting: optimize.CapitalWeighting(o.CapitalWeighting),
		Horizon:          o.Horizon,
		Overlap:          o.Overlap,
		SeedPolicy:       optimize.SeedPolicy(o.SeedPolicy),
	}
	c.ApplyDefaults()
	return c
}
