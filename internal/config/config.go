package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"grid-planner/internal/export"
	"grid-planner/internal/model"
	"grid-planner/internal/optimize"
	"grid-planner/internal/scenario"
	"grid-planner/internal/solver"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk run configuration (YAML).
type Config struct {
	// Optional: start from a saved network document (see internal/export) or from a
	// bundled scenario. Components in Network are merged over it by name.
	NetworkFile string          `yaml:"network_file"`
	Scenario    ScenarioConfig  `yaml:"scenario"`
	Network     NetworkConfig   `yaml:"network"`
	Horizon     HorizonConfig   `yaml:"horizon"`
	Optimizer   OptimizerConfig `yaml:"optimizer"`
}

type ScenarioConfig struct {
	Name               string  `yaml:"name"`
	Seed               int64   `yaml:"seed"`
	SnapshotsPerPeriod int     `yaml:"snapshots_per_period"`
	FreqHours          int     `yaml:"freq_hours"`
	DiscountRate       float64 `yaml:"discount_rate"`
}

type NetworkConfig struct {
	Name         string              `yaml:"name"`
	Buses        []model.Bus         `yaml:"buses"`
	Lines        []model.Line        `yaml:"lines"`
	Generators   []model.Generator   `yaml:"generators"`
	StorageUnits []model.StorageUnit `yaml:"storage_units"`
	Loads        []model.Load        `yaml:"loads"`
	Series       []SeriesConfig      `yaml:"series"`
}

type SeriesConfig struct {
	Kind   model.ComponentKind `yaml:"kind"`
	Name   string              `yaml:"name"`
	Attr   string              `yaml:"attr"`
	Values []float64           `yaml:"values"`
}

// HorizonConfig describes the temporal index of a network built from scratch.
type HorizonConfig struct {
	Periods            []int         `yaml:"periods"`
	LastPeriodYears    int           `yaml:"last_period_years"`
	DiscountRate       float64       `yaml:"discount_rate"`
	SnapshotsPerPeriod int           `yaml:"snapshots_per_period"`
	Freq               time.Duration `yaml:"freq"`
}

type OptimizerConfig struct {
	Mode             optimize.Mode             `yaml:"mode"`
	Solver           string                    `yaml:"solver"`
	Timeout          time.Duration             `yaml:"timeout"`
	Tolerance        float64                   `yaml:"tolerance"`
	CapitalWeighting optimize.CapitalWeighting `yaml:"capital_weighting"`
	Horizon          int                       `yaml:"horizon"`
	Overlap          int                       `yaml:"overlap"`
	SeedPolicy       optimize.SeedPolicy       `yaml:"seed_policy"`
}

const (
	ScenarioRing            = "ring"
	ScenarioMultiInvestment = "multi_investment"
)

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked reads a config and resolves network_file relative to the config file,
// but does not validate it. Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	if c.NetworkFile != "" && !filepath.IsAbs(c.NetworkFile) {
		// Prefer interpreting relative paths as relative to the config file directory,
		// but fall back to the provided path (relative to cwd) if that doesn't exist.
		cand := filepath.Join(filepath.Dir(path), c.NetworkFile)
		if _, err := os.Stat(cand); err == nil {
			c.NetworkFile = cand
		}
	}
	return c, nil
}

func Parse(raw []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &c, nil
}

func (c *Config) ApplyDefaults() {
	c.Optimizer.ApplyDefaults()
	if c.Horizon.LastPeriodYears == 0 {
		c.Horizon.LastPeriodYears = 10
	}
	if c.Horizon.SnapshotsPerPeriod == 0 {
		c.Horizon.SnapshotsPerPeriod = 24
	}
	if c.Horizon.Freq == 0 {
		c.Horizon.Freq = time.Hour
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	sources := 0
	if c.NetworkFile != "" {
		sources++
	}
	if c.Scenario.Name != "" {
		sources++
		switch c.Scenario.Name {
		case ScenarioRing, ScenarioMultiInvestment:
		default:
			return model.ConfigErrorf("config", "unknown scenario %q", c.Scenario.Name)
		}
	}
	if sources > 1 {
		return model.ConfigErrorf("config", "network_file and scenario are mutually exclusive")
	}
	if sources == 0 && len(c.Horizon.Periods) == 0 {
		return model.ConfigErrorf("config", "horizon.periods is required without network_file or scenario")
	}
	return c.Optimizer.Validate()
}

func (c *Config) ToOptions() optimize.RollingOptions {
	return c.Optimizer.ToOptions()
}

func (o *OptimizerConfig) ApplyDefaults() {
	if o.Mode == "" {
		o.Mode = optimize.ModeMultiPeriod
	}
	if o.Solver == "" {
		o.Solver = "simplex"
	}
	if o.CapitalWeighting == "" {
		o.CapitalWeighting = optimize.CapitalByYears
	}
	if o.SeedPolicy == "" {
		o.SeedPolicy = optimize.SeedLastCommitted
	}
}

func (o OptimizerConfig) Validate() error {
	switch o.Mode {
	case optimize.ModeMultiPeriod:
	case optimize.ModeRollingHorizon:
		if _, err := optimize.PlanWindows(1, o.Horizon, o.Overlap); err != nil {
			return err
		}
		switch o.SeedPolicy {
		case optimize.SeedLastCommitted, optimize.SeedOverlapStart:
		default:
			return model.ConfigErrorf("config", "unknown seed policy %q", o.SeedPolicy)
		}
	default:
		return model.ConfigErrorf("config", "unknown optimizer mode %q", o.Mode)
	}
	if _, err := solver.New(o.Solver, solver.Options{}); err != nil {
		return model.ConfigErrorf("config", "%w", err)
	}
	switch o.CapitalWeighting {
	case optimize.CapitalByYears, optimize.CapitalByObjective:
	default:
		return model.ConfigErrorf("config", "unknown capital weighting %q", o.CapitalWeighting)
	}
	if o.Timeout < 0 {
		return model.ConfigErrorf("config", "optimizer.timeout must be >= 0")
	}
	return nil
}

// ToOptions converts the optimizer section.
func (o OptimizerConfig) ToOptions() optimize.RollingOptions {
	return optimize.RollingOptions{
		Options: optimize.Options{
			SolverName:       o.Solver,
			SolverOptions:    solver.Options{Timeout: o.Timeout, Tolerance: o.Tolerance},
			CapitalWeighting: o.CapitalWeighting,
		},
		Horizon: o.Horizon,
		Overlap: o.Overlap,
		Seed:    o.SeedPolicy,
	}
}

// ToNetwork builds the network: the base (network file, scenario or empty horizon)
// with the inline components merged over it.
func (c *Config) ToNetwork() (*model.Network, error) {
	n, err := c.baseNetwork()
	if err != nil {
		return nil, err
	}
	if c.Network.Name != "" {
		n.Name = c.Network.Name
	}
	if err := MergeNetwork(n, c.Network); err != nil {
		return nil, err
	}
	return n, nil
}

func (c *Config) baseNetwork() (*model.Network, error) {
	switch {
	case c.NetworkFile != "":
		return export.LoadNetwork(c.NetworkFile)
	case c.Scenario.Name != "":
		return c.Scenario.Build()
	}
	return c.Horizon.emptyNetwork(c.Network.Name)
}

// Build generates the named bundled scenario.
func (s ScenarioConfig) Build() (*model.Network, error) {
	opts := scenario.Options{
		Seed:               s.Seed,
		SnapshotsPerPeriod: s.SnapshotsPerPeriod,
		FreqHours:          s.FreqHours,
		DiscountRate:       s.DiscountRate,
	}
	switch s.Name {
	case ScenarioRing:
		return scenario.Ring(opts)
	case ScenarioMultiInvestment:
		return scenario.MultiInvestment(opts)
	}
	return nil, model.ConfigErrorf("config", "unknown scenario %q", s.Name)
}

func (h HorizonConfig) emptyNetwork(name string) (*model.Network, error) {
	specs := make([]model.PeriodSpec, 0, len(h.Periods))
	for _, p := range h.Periods {
		specs = append(specs, model.PeriodSpec{
			Period: p,
			Start:  time.Date(p, 1, 1, 0, 0, 0, 0, time.UTC),
			Freq:   h.Freq,
			Count:  h.SnapshotsPerPeriod,
		})
	}
	sns, err := model.BuildSnapshots(specs)
	if err != nil {
		return nil, err
	}
	n, err := model.NewNetwork(name, sns)
	if err != nil {
		return nil, err
	}
	w, err := model.Weightings(h.DiscountRate, model.SpansFromPeriods(h.Periods, h.LastPeriodYears))
	if err != nil {
		return nil, err
	}
	if err := n.SetWeightings(w); err != nil {
		return nil, err
	}
	return n, nil
}
