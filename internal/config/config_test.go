package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"grid-planner/internal/export"
	"grid-planner/internal/model"
	"grid-planner/internal/optimize"
	"grid-planner/internal/scenario"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const inlineConfig = `
network:
  name: inline
  buses:
    - name: a
    - name: b
  lines:
    - name: ab
      bus0: a
      bus1: b
      s_nom: 50
  generators:
    - name: gas
      bus: a
      p_nom: 40
      marginal_cost: 30
      build_year: 2030
      lifetime: 20
  storage_units:
    - name: battery
      bus: b
      p_nom: 5
      max_hours: 4
      cyclic: per_period
  loads:
    - name: demand
      bus: b
      p_set: 10
  series:
    - kind: Load
      name: demand
      attr: p_set
      values: [10, 12, 14, 16]
horizon:
  periods: [2030, 2040]
  snapshots_per_period: 2
  freq: 2h
  discount_rate: 0.05
optimizer:
  mode: rolling_horizon
  horizon: 2
  overlap: 1
  timeout: 30s
  seed_policy: overlap_start
`

func TestLoadInline(t *testing.T) {
	path := writeFile(t, t.TempDir(), "plan.yaml", inlineConfig)
	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, optimize.ModeRollingHorizon, c.Optimizer.Mode)
	assert.Equal(t, 30*time.Second, c.Optimizer.Timeout)
	assert.Equal(t, "simplex", c.Optimizer.Solver)
	assert.Equal(t, optimize.CapitalByYears, c.Optimizer.CapitalWeighting)
	assert.Equal(t, 10, c.Horizon.LastPeriodYears)

	n, err := c.ToNetwork()
	require.NoError(t, err)
	assert.Equal(t, "inline", n.Name)
	require.Len(t, n.Snapshots, 4)
	assert.Equal(t, 2040, n.Snapshots[2].Period)
	assert.Equal(t, 2*time.Hour, n.Snapshots[1].Time.Sub(n.Snapshots[0].Time))
	assert.Equal(t, []int{2030, 2040}, n.Periods())
	assert.Equal(t, 10.0, n.Weighting(2030).Years)

	require.Len(t, n.Generators, 1)
	assert.Equal(t, 2030, n.Generators[0].BuildYear)
	assert.Equal(t, 1.0, n.Generators[0].PMaxPU)
	assert.Equal(t, model.CyclicPerPeriod, n.StorageUnits[0].Cyclic)
	assert.Equal(t, 1.0, n.StorageUnits[0].EfficiencyStore)
	assert.Equal(t, 14.0, n.Series.At(model.SeriesKey{Kind: model.KindLoad, Name: "demand", Attr: model.AttrPSet}, 2, 0))

	o := c.ToOptions()
	assert.Equal(t, 2, o.Horizon)
	assert.Equal(t, 1, o.Overlap)
	assert.Equal(t, optimize.SeedOverlapStart, o.Seed)
	assert.Equal(t, 30*time.Second, o.SolverOptions.Timeout)
}

func TestLoadNetworkFile(t *testing.T) {
	dir := t.TempDir()
	ring, err := scenario.Ring(scenario.Options{})
	require.NoError(t, err)
	require.NoError(t, export.SaveNetwork(filepath.Join(dir, "nets", "ring.json"), ring))

	path := writeFile(t, dir, "plan.yaml", `
network_file: nets/ring.json
network:
  generators:
    - name: thermal
      marginal_cost: 35
    - name: peaker
      bus: bus 2
      p_nom: 5
      marginal_cost: 100
`)
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "nets", "ring.json"), c.NetworkFile)

	n, err := c.ToNetwork()
	require.NoError(t, err)
	require.Len(t, n.Generators, 3)
	thermal := n.Generators[1]
	assert.Equal(t, "thermal", thermal.Name)
	assert.Equal(t, 35.0, thermal.MarginalCost)
	assert.Equal(t, 50.0, thermal.PNom)
	assert.Equal(t, 2040, thermal.BuildYear)
	assert.Equal(t, "peaker", n.Generators[2].Name)
}

func TestScenarioConfig(t *testing.T) {
	c, err := Parse([]byte(`
scenario:
  name: multi_investment
  seed: 3
  snapshots_per_period: 4
network:
  lines:
    - name: line 0->1
      s_nom_max: 80
`))
	require.NoError(t, err)
	c.ApplyDefaults()
	require.NoError(t, c.Validate())

	n, err := c.ToNetwork()
	require.NoError(t, err)
	assert.Len(t, n.Snapshots, 16)
	assert.Equal(t, 80.0, n.Lines[0].SNomMax)
	assert.True(t, n.Lines[0].SNomExtendable)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		c := &Config{Horizon: HorizonConfig{Periods: []int{2030}}}
		c.ApplyDefaults()
		return c
	}
	require.NoError(t, base().Validate())

	cases := map[string]func(c *Config){
		"unknown scenario":  func(c *Config) { c.Scenario.Name = "atlantis" },
		"two sources":       func(c *Config) { c.Scenario.Name = ScenarioRing; c.NetworkFile = "x.json" },
		"no source":         func(c *Config) { c.Horizon.Periods = nil },
		"unknown mode":      func(c *Config) { c.Optimizer.Mode = "greedy" },
		"bad window":        func(c *Config) { c.Optimizer.Mode = optimize.ModeRollingHorizon; c.Optimizer.Horizon = 2; c.Optimizer.Overlap = 2 },
		"unknown solver":    func(c *Config) { c.Optimizer.Solver = "cplex" },
		"negative timeout":  func(c *Config) { c.Optimizer.Timeout = -time.Second },
		"capital weighting": func(c *Config) { c.Optimizer.CapitalWeighting = "npv" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := base()
			mutate(c)
			assert.ErrorIs(t, c.Validate(), model.ErrConfiguration)
		})
	}

	var nilConfig *Config
	assert.Error(t, nilConfig.Validate())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := writeFile(t, t.TempDir(), "bad.yaml", "optimizer: [1, 2")
	_, err = Load(path)
	assert.Error(t, err)

	path = writeFile(t, t.TempDir(), "dangling.yaml", `
horizon:
  periods: [2030]
network:
  generators:
    - name: g
      bus: nowhere
`)
	c, err := Load(path)
	require.NoError(t, err)
	_, err = c.ToNetwork()
	assert.ErrorIs(t, err, model.ErrConfiguration)
}

func TestMergeGenerator(t *testing.T) {
	base := model.Generator{Name: "g", Bus: "a", PNom: 10, MarginalCost: 5, Lifecycle: model.Lifecycle{BuildYear: 2020, Lifetime: 25}}
	got := MergeGenerator(base, model.Generator{PNomExtendable: true, CapitalCost: 7, Lifecycle: model.Lifecycle{Lifetime: 30}})
	assert.Equal(t, "a", got.Bus)
	assert.Equal(t, 10.0, got.PNom)
	assert.True(t, got.PNomExtendable)
	assert.Equal(t, 7.0, got.CapitalCost)
	assert.Equal(t, 2020, got.BuildYear)
	assert.Equal(t, 30, got.Lifetime)

	s := MergeStorageUnit(model.StorageUnit{Name: "s", MaxHours: 2, Cyclic: model.CyclicNone}, model.StorageUnit{Cyclic: model.CyclicGlobal})
	assert.Equal(t, 2.0, s.MaxHours)
	assert.Equal(t, model.CyclicGlobal, s.Cyclic)
}
