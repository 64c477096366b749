package analysis

import (
	"testing"
	"time"

	"grid-planner/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// solvedNetwork is a two-period network with hand-written results.
func solvedNetwork(t *testing.T) *model.Network {
	t.Helper()
	sns, err := model.BuildSnapshots([]model.PeriodSpec{
		{Period: 2020, Start: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), Freq: 2 * time.Hour, Count: 2},
		{Period: 2030, Start: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), Freq: 2 * time.Hour, Count: 2},
	})
	require.NoError(t, err)
	n, err := model.NewNetwork("solved", sns)
	require.NoError(t, err)
	require.NoError(t, n.AddBus(model.Bus{Name: "a"}))
	require.NoError(t, n.AddGenerator(model.Generator{
		Name: "solar", Bus: "a", Carrier: "solar", PNomExtendable: true,
		Lifecycle: model.Lifecycle{BuildYear: 2020, Lifetime: 10},
	}))
	require.NoError(t, n.AddGenerator(model.Generator{
		Name: "gas", Bus: "a", Carrier: "OCGT", PNom: 30,
		Lifecycle: model.Lifecycle{BuildYear: 2030},
	}))
	require.NoError(t, n.AddStorageUnit(model.StorageUnit{Name: "battery", Bus: "a", PNom: 5}))

	res := model.NewResults(n)
	res.Status = model.StatusOptimal
	res.Mode = "multi_period"
	res.Objective = 100
	copy(res.Committed, []bool{true, true, true, true})
	res.GeneratorPNom["solar"] = 12
	res.GeneratorP["solar"] = []float64{4, 12, 0, 0}
	res.GeneratorP["gas"] = []float64{0, 0, 10, 20}
	res.StorageDispatch["battery"] = []float64{0, 5, 0, 1}
	res.StorageStore["battery"] = []float64{3, 0, 2, 0}
	n.Results = res
	return n
}

func TestComputeStats(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		s := ComputeStats(model.KindGenerator, "g", nil)
		assert.Zero(t, s.Count)
	})

	t.Run("percentiles interpolate", func(t *testing.T) {
		vals := make([]float64, 0, 21)
		for i := 20; i >= 0; i-- {
			vals = append(vals, float64(i))
		}
		s := ComputeStats(model.KindLine, "l", vals)
		assert.Equal(t, 21, s.Count)
		assert.Equal(t, 0.0, s.Min)
		assert.Equal(t, 20.0, s.Max)
		assert.Equal(t, 10.0, s.Mean)
		assert.InDelta(t, 1.0, s.P05, 1e-12)
		assert.InDelta(t, 19.0, s.P95, 1e-12)
		assert.InDelta(t, 18.0, s.SpreadP95P05, 1e-12)
		// input order is preserved
		assert.Equal(t, 20.0, vals[0])
	})
}

func TestDispatchStats(t *testing.T) {
	n := solvedNetwork(t)
	stats := DispatchStats(n)
	require.Len(t, stats, 3)

	assert.Equal(t, "solar", stats[0].Name)
	assert.Equal(t, 2, stats[0].Count)
	assert.Equal(t, 8.0, stats[0].Mean)

	assert.Equal(t, "gas", stats[1].Name)
	assert.Equal(t, 2, stats[1].Count)

	assert.Equal(t, model.KindStorageUnit, stats[2].Kind)
	assert.Equal(t, -3.0, stats[2].Min)
	assert.Equal(t, 5.0, stats[2].Max)

	assert.Nil(t, DispatchStats(&model.Network{}))
}

func TestCapacityByPeriod(t *testing.T) {
	n := solvedNetwork(t)

	gens, err := CapacityByPeriod(n, model.KindGenerator)
	require.NoError(t, err)
	require.Len(t, gens, 2)
	assert.Equal(t, 2020, gens[0].Period)
	assert.Equal(t, 12.0, gens[0].Values["solar"])
	assert.Equal(t, 0.0, gens[0].Values["gas"])
	assert.Equal(t, 0.0, gens[1].Values["solar"])
	assert.Equal(t, 30.0, gens[1].Values["gas"])
	assert.Equal(t, 30.0, gens[1].Total)

	_, err = CapacityByPeriod(n, model.KindLoad)
	assert.ErrorIs(t, err, model.ErrConfiguration)
}

func TestGenerationByPeriod(t *testing.T) {
	n := solvedNetwork(t)
	gen, err := GenerationByPeriod(n)
	require.NoError(t, err)
	require.Len(t, gen, 2)
	// two-hour snapshots
	assert.Equal(t, 32.0, gen[0].Values["solar"])
	assert.Equal(t, 60.0, gen[1].Values["gas"])
	assert.Equal(t, 60.0, gen[1].Total)

	ranked, err := RankByGeneration(n)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "gas", ranked[0].Name)
	assert.InDelta(t, 60.0/92.0, ranked[0].Share, 1e-12)
}

func TestCompareRuns(t *testing.T) {
	base := solvedNetwork(t)
	other := base.Clone()
	other.Results.Mode = "rolling_horizon"
	other.Results.Objective = 110
	other.Results.GeneratorPNom["solar"] = 15

	c, err := CompareRuns(base, other)
	require.NoError(t, err)
	assert.Equal(t, 10.0, c.Gap)
	assert.InDelta(t, 0.1, c.RelativeGap, 1e-12)
	assert.Equal(t, 3.0, c.MaxCapacityDelta)
	assert.Equal(t, "rolling_horizon", c.OtherMode)

	other.Results = nil
	_, err = CompareRuns(base, other)
	assert.ErrorIs(t, err, model.ErrConfiguration)
}
