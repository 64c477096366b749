package optimize

import (
	"context"
	"errors"
	"testing"
	"time"

	"grid-planner/internal/model"
	"grid-planner/internal/scenario"
	"grid-planner/internal/solver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSolver struct {
	sol *solver.Solution
	err error
}

func (s *stubSolver) Name() string { return "stub" }

func (s *stubSolver) Solve(ctx context.Context, p *solver.Problem) (*solver.Solution, error) {
	return s.sol, s.err
}

// lapsedGeneratorNetwork has a single generator that retires before the second period.
func lapsedGeneratorNetwork(t *testing.T) *model.Network {
	t.Helper()
	sns, err := model.BuildSnapshots([]model.PeriodSpec{
		{Period: 2020, Start: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), Freq: time.Hour, Count: 2},
		{Period: 2030, Start: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), Freq: time.Hour, Count: 2},
	})
	require.NoError(t, err)
	n, err := model.NewNetwork("lapsed", sns)
	require.NoError(t, err)
	require.NoError(t, n.AddBus(model.Bus{Name: "bus"}))
	require.NoError(t, n.AddGenerator(model.Generator{
		Name: "gen", Bus: "bus", PNom: 100, MarginalCost: 1,
		Lifecycle: model.Lifecycle{BuildYear: 2020, Lifetime: 10},
	}))
	require.NoError(t, n.AddLoad(model.Load{Name: "load", Bus: "bus", PSet: 5}))
	return n
}

func TestOptimizeMultiPeriod(t *testing.T) {
	ctx := context.Background()

	t.Run("ring scenario respects asset lifecycles", func(t *testing.T) {
		n, err := scenario.Ring(scenario.Options{})
		require.NoError(t, err)

		out, err := OptimizeMultiPeriod(ctx, n, Options{})
		require.NoError(t, err)
		assert.Equal(t, model.StatusOptimal, out.Status)
		assert.Equal(t, ModeMultiPeriod, out.Mode)
		assert.NotEmpty(t, out.RunID.String())

		res := n.Results
		require.NotNil(t, res)
		assert.True(t, res.AllCommitted())
		for i, s := range n.Snapshots {
			switch {
			case s.Period < 2040:
				assert.Zero(t, res.GeneratorP["thermal"][i], "thermal before 2040")
			case s.Period == 2050:
				assert.Zero(t, res.GeneratorP["solar"][i], "solar after retirement")
				assert.InDelta(t, 10.0, res.GeneratorP["thermal"][i], 1e-6)
			}
		}
		// 10 MW at 50% availability.
		assert.InDelta(t, 20.0, res.GeneratorPNom["solar"], 1e-6)
		assert.InDelta(t, 0.0, res.LineSNom["line 1->2"], 1e-6)
		assert.InDelta(t, 50.0, res.GeneratorPNom["thermal"], 1e-12)

		// capital 20 MW * 30 years + thermal 2 * 24 h * 10 MW * 20 * 10 years
		assert.InDelta(t, 96600.0, out.Objective, 1e-3)
		assert.InDelta(t, out.Objective, res.Objective, 1e-12)
	})

	t.Run("stored objective matches evaluated objective", func(t *testing.T) {
		n, err := scenario.Ring(scenario.Options{DiscountRate: 0.02})
		require.NoError(t, err)

		out, err := OptimizeMultiPeriod(ctx, n, Options{})
		require.NoError(t, err)
		got, err := EvaluateObjective(n, Options{})
		require.NoError(t, err)
		assert.InDelta(t, out.Objective, got, 1e-6)
	})

	t.Run("per-period cyclic storage", func(t *testing.T) {
		n := twoPeriodStorageNetwork(t, model.CyclicPerPeriod)
		_, err := OptimizeMultiPeriod(ctx, n, Options{})
		require.NoError(t, err)

		res := n.Results
		for _, p := range [][2]int{{0, 2}, {3, 5}} {
			first, last := p[0], p[1]
			// level before the first snapshot is the level at the period's last snapshot
			want := res.StorageSOC["battery"][last] + res.StorageStore["battery"][first] - res.StorageDispatch["battery"][first]
			assert.InDelta(t, want, res.StorageSOC["battery"][first], 1e-6)
		}
		// the battery shifts cheap energy into the expensive hours
		assert.Greater(t, res.StorageDispatch["battery"][2], 0.0)
	})

	t.Run("generator missing for a period is infeasible", func(t *testing.T) {
		n := lapsedGeneratorNetwork(t)

		out, err := OptimizeMultiPeriod(ctx, n, Options{})
		assert.Nil(t, out)
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrInfeasible)
		assert.Equal(t, model.KindInfeasible, model.KindOf(err))

		require.NotNil(t, n.Results)
		assert.Equal(t, model.StatusFailed, n.Results.Status)
		require.NotNil(t, n.Results.Failure)
		assert.Equal(t, model.KindInfeasible, n.Results.Failure.Kind)
		assert.Equal(t, -1, n.Results.Failure.Window)
	})

	t.Run("solver failure is not infeasibility", func(t *testing.T) {
		n, err := scenario.Ring(scenario.Options{})
		require.NoError(t, err)

		_, err = OptimizeMultiPeriod(ctx, n, Options{Solver: &stubSolver{err: errors.New("backend crashed")}})
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrSolver)
		assert.NotErrorIs(t, err, model.ErrInfeasible)
		assert.Contains(t, err.Error(), "backend crashed")
	})

	t.Run("solver error status", func(t *testing.T) {
		n, err := scenario.Ring(scenario.Options{})
		require.NoError(t, err)

		stub := &stubSolver{sol: &solver.Solution{Status: solver.StatusError, Message: "numerical trouble"}}
		_, err = OptimizeMultiPeriod(ctx, n, Options{Solver: stub})
		assert.ErrorIs(t, err, model.ErrSolver)
	})

	t.Run("unbounded status matches infeasible", func(t *testing.T) {
		n, err := scenario.Ring(scenario.Options{})
		require.NoError(t, err)

		stub := &stubSolver{sol: &solver.Solution{Status: solver.StatusUnbounded}}
		_, err = OptimizeMultiPeriod(ctx, n, Options{Solver: stub})
		assert.ErrorIs(t, err, model.ErrUnbounded)
		assert.ErrorIs(t, err, model.ErrInfeasible)
	})

	t.Run("network being solved", func(t *testing.T) {
		n, err := scenario.Ring(scenario.Options{})
		require.NoError(t, err)
		done, err := n.BeginSolve()
		require.NoError(t, err)
		defer done()

		_, err = OptimizeMultiPeriod(ctx, n, Options{})
		assert.ErrorIs(t, err, model.ErrNetworkBusy)
	})

	t.Run("unknown solver", func(t *testing.T) {
		n, err := scenario.Ring(scenario.Options{})
		require.NoError(t, err)

		_, err = OptimizeMultiPeriod(ctx, n, Options{SolverName: "cplex"})
		assert.ErrorIs(t, err, model.ErrConfiguration)
	})

	t.Run("cancelled context", func(t *testing.T) {
		n, err := scenario.Ring(scenario.Options{})
		require.NoError(t, err)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err = OptimizeMultiPeriod(cctx, n, Options{})
		assert.ErrorIs(t, err, model.ErrSolver)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
