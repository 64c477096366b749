package optimize

import (
	"fmt"
	"testing"
	"time"

	"grid-planner/internal/model"
	"grid-planner/internal/scenario"
	"grid-planner/internal/solver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findRow(p *solver.Problem, name string) *solver.Row {
	for i := range p.Rows {
		if p.Rows[i].Name == name {
			return &p.Rows[i]
		}
	}
	return nil
}

func hasTerm(r *solver.Row, col int) bool {
	for _, t := range r.Terms {
		if t.Col == col {
			return true
		}
	}
	return false
}

func termCoef(r *solver.Row, col int) float64 {
	for _, t := range r.Terms {
		if t.Col == col {
			return t.Coef
		}
	}
	return 0
}

// twoPeriodStorageNetwork is one bus with a generator, a load and a battery over two
// periods of three hourly snapshots.
func twoPeriodStorageNetwork(t *testing.T, mode model.CyclicMode) *model.Network {
	t.Helper()
	var specs []model.PeriodSpec
	for _, p := range []int{2020, 2030} {
		specs = append(specs, model.PeriodSpec{
			Period: p,
			Start:  time.Date(p, 1, 1, 0, 0, 0, 0, time.UTC),
			Freq:   time.Hour,
			Count:  3,
		})
	}
	sns, err := model.BuildSnapshots(specs)
	require.NoError(t, err)
	n, err := model.NewNetwork("storage", sns)
	require.NoError(t, err)
	w, err := model.Weightings(0, model.SpansFromPeriods([]int{2020, 2030}, 10))
	require.NoError(t, err)
	require.NoError(t, n.SetWeightings(w))

	require.NoError(t, n.AddBus(model.Bus{Name: "bus"}))
	require.NoError(t, n.AddGenerator(model.Generator{Name: "gen", Bus: "bus", PNom: 100}))
	require.NoError(t, n.SetSeries(model.KindGenerator, "gen", model.AttrMarginalCost, []float64{1, 5, 10, 10, 5, 1}))
	require.NoError(t, n.AddStorageUnit(model.StorageUnit{
		Name: "battery", Bus: "bus", PNom: 10, MaxHours: 2, SOCInitial: 5, Cyclic: mode,
	}))
	require.NoError(t, n.AddLoad(model.Load{Name: "load", Bus: "bus", PSet: 20}))
	return n
}

func TestBuild(t *testing.T) {
	t.Run("inactive assets get no variables", func(t *testing.T) {
		n, err := scenario.Ring(scenario.Options{})
		require.NoError(t, err)

		m, err := Build(n, nil, Options{})
		require.NoError(t, err)

		for i, s := range n.Snapshots {
			_, ok := m.DispatchVar(model.KindGenerator, "solar", i)
			assert.Equal(t, s.Period < 2050, ok, "solar at snapshot %d", i)
			_, ok = m.DispatchVar(model.KindGenerator, "thermal", i)
			assert.Equal(t, s.Period >= 2040, ok, "thermal at snapshot %d", i)
		}
	})

	t.Run("capacity variables only for extendable assets", func(t *testing.T) {
		n, err := scenario.Ring(scenario.Options{})
		require.NoError(t, err)

		m, err := Build(n, nil, Options{})
		require.NoError(t, err)

		_, ok := m.CapacityVar(model.KindGenerator, "solar")
		assert.True(t, ok)
		_, ok = m.CapacityVar(model.KindLine, "line 1->2")
		assert.True(t, ok)
		_, ok = m.CapacityVar(model.KindGenerator, "thermal")
		assert.False(t, ok)
		_, ok = m.CapacityVar(model.KindLine, "line 0->1")
		assert.False(t, ok)
	})

	t.Run("capital cost weighted by active years", func(t *testing.T) {
		n, err := scenario.Ring(scenario.Options{})
		require.NoError(t, err)

		m, err := Build(n, nil, Options{})
		require.NoError(t, err)
		j, ok := m.CapacityVar(model.KindGenerator, "solar")
		require.True(t, ok)
		// 2020, 2030 and 2040 at ten years each.
		assert.InDelta(t, 30.0, m.Problem.Cols[j].Cost, 1e-12)

		j, ok = m.CapacityVar(model.KindLine, "line 1->2")
		require.True(t, ok)
		assert.InDelta(t, 400.0, m.Problem.Cols[j].Cost, 1e-12)
	})

	t.Run("capital cost weighted by objective weight", func(t *testing.T) {
		n, err := scenario.Ring(scenario.Options{DiscountRate: 0.05})
		require.NoError(t, err)

		m, err := Build(n, nil, Options{CapitalWeighting: CapitalByObjective})
		require.NoError(t, err)
		j, _ := m.CapacityVar(model.KindGenerator, "solar")
		want := 0.0
		for _, p := range []int{2020, 2030, 2040} {
			want += n.Weighting(p).Objective
		}
		assert.InDelta(t, want, m.Problem.Cols[j].Cost, 1e-9)
		assert.Less(t, m.Problem.Cols[j].Cost, 30.0)
	})

	t.Run("per-period cyclic storage closes each period on itself", func(t *testing.T) {
		n := twoPeriodStorageNetwork(t, model.CyclicPerPeriod)
		m, err := Build(n, nil, Options{})
		require.NoError(t, err)

		last0, _ := m.SOCVar("battery", 2)
		last1, _ := m.SOCVar("battery", 5)

		first0 := findRow(m.Problem, "soc-balance[battery,0]")
		require.NotNil(t, first0)
		assert.True(t, hasTerm(first0, last0))
		assert.False(t, hasTerm(first0, last1))

		first1 := findRow(m.Problem, "soc-balance[battery,3]")
		require.NotNil(t, first1)
		assert.True(t, hasTerm(first1, last1))
		assert.False(t, hasTerm(first1, last0))
	})

	t.Run("global cyclic storage closes over the whole horizon", func(t *testing.T) {
		n := twoPeriodStorageNetwork(t, model.CyclicGlobal)
		m, err := Build(n, nil, Options{})
		require.NoError(t, err)

		last, _ := m.SOCVar("battery", 5)
		prev, _ := m.SOCVar("battery", 2)
		assert.True(t, hasTerm(findRow(m.Problem, "soc-balance[battery,0]"), last))
		assert.True(t, hasTerm(findRow(m.Problem, "soc-balance[battery,3]"), prev))
	})

	t.Run("non-cyclic storage starts from the initial level", func(t *testing.T) {
		n := twoPeriodStorageNetwork(t, model.CyclicNone)
		m, err := Build(n, nil, Options{})
		require.NoError(t, err)

		row := findRow(m.Problem, "soc-balance[battery,0]")
		require.NotNil(t, row)
		assert.InDelta(t, 5.0, row.RHS, 1e-12)
		assert.Len(t, row.Terms, 3)
	})

	t.Run("snapshot subset", func(t *testing.T) {
		n := twoPeriodStorageNetwork(t, model.CyclicPerPeriod)
		m, err := Build(n, []int{3, 4}, Options{})
		require.NoError(t, err)

		_, ok := m.DispatchVar(model.KindGenerator, "gen", 0)
		assert.False(t, ok)
		_, ok = m.DispatchVar(model.KindGenerator, "gen", 4)
		assert.True(t, ok)

		// cyclic conditions are dropped for a partial horizon
		row := findRow(m.Problem, "soc-balance[battery,3]")
		require.NotNil(t, row)
		assert.Len(t, row.Terms, 3)
	})

	t.Run("voltage law around lines with reactance", func(t *testing.T) {
		n, err := scenario.MultiInvestment(scenario.Options{SnapshotsPerPeriod: 2})
		require.NoError(t, err)
		n.Lines[2].X = 2 * n.Lines[0].X

		m, err := Build(n, nil, Options{})
		require.NoError(t, err)

		// line 1->2 is built in 2030, so 2020 has no loop
		assert.Nil(t, findRow(m.Problem, "kvl[0,0]"))
		assert.Nil(t, findRow(m.Problem, "kvl[0,1]"))
		for ts := 2; ts < len(n.Snapshots); ts++ {
			row := findRow(m.Problem, fmt.Sprintf("kvl[0,%d]", ts))
			require.NotNil(t, row, "snapshot %d", ts)
			assert.Equal(t, solver.EQ, row.Sense)
			assert.Zero(t, row.RHS)
			require.Len(t, row.Terms, 3)
			want := map[string]float64{"line 0->1": 0.5, "line 1->2": 0.5, "line 2->0": 1}
			for name, coef := range want {
				col, ok := m.DispatchVar(model.KindLine, name, ts)
				require.True(t, ok)
				assert.InDelta(t, coef, termCoef(row, col), 1e-12, "%s at %d", name, ts)
			}
			assert.Nil(t, findRow(m.Problem, fmt.Sprintf("kvl[1,%d]", ts)))
		}
	})

	t.Run("lines without reactance form no loop rows", func(t *testing.T) {
		n, err := scenario.Ring(scenario.Options{})
		require.NoError(t, err)
		m, err := Build(n, nil, Options{})
		require.NoError(t, err)
		for _, r := range m.Problem.Rows {
			assert.NotContains(t, r.Name, "kvl")
		}
	})

	t.Run("invalid snapshot subset", func(t *testing.T) {
		n := twoPeriodStorageNetwork(t, model.CyclicNone)
		_, err := Build(n, []int{2, 1}, Options{})
		assert.ErrorIs(t, err, model.ErrConfiguration)

		_, err = Build(n, []int{99}, Options{})
		assert.ErrorIs(t, err, model.ErrConfiguration)
	})

	t.Run("unknown capital weighting", func(t *testing.T) {
		n := twoPeriodStorageNetwork(t, model.CyclicNone)
		_, err := Build(n, nil, Options{CapitalWeighting: "bogus"})
		assert.ErrorIs(t, err, model.ErrConfiguration)
	})
}
