package optimize

import (
	"context"
	"errors"
	"fmt"
	"time"

	"grid-planner/internal/model"
	"grid-planner/internal/solver"

	"github.com/google/uuid"
)

// OptimizeMultiPeriod co-optimizes investment and dispatch over every snapshot of n
// in one problem and writes the solution into n.Results.
func OptimizeMultiPeriod(ctx context.Context, n *model.Network, opts Options) (*Outcome, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	slv, err := opts.solver()
	if err != nil {
		return nil, err
	}
	done, err := n.BeginSolve()
	if err != nil {
		return nil, err
	}
	defer done()

	start := time.Now()
	out := &Outcome{RunID: uuid.New(), Mode: ModeMultiPeriod}
	log := opts.Logger.With("run_id", out.RunID.String(), "mode", out.Mode)
	out.Warnings = auditWarnings(n, log)

	res := model.NewResults(n)
	res.Mode = string(ModeMultiPeriod)
	n.Results = res

	m, err := build(n, fullSpec(n, opts.CapitalWeighting))
	if err != nil {
		res.Status = model.StatusFailed
		return nil, err
	}
	log.Info("model built", "snapshots", len(m.Snapshots), "columns", len(m.Problem.Cols), "rows", len(m.Problem.Rows))

	sol, err := solveModel(ctx, slv, m, "")
	if err != nil {
		res.Status = model.StatusFailed
		res.Failure = failureOf(err, -1, 0, len(n.Snapshots)-1)
		log.Error("optimization failed", "error", err)
		return nil, err
	}

	all := make([]int, len(n.Snapshots))
	for i := range all {
		all[i] = i
	}
	m.writeDispatch(res, sol.Values, all)
	writeCapacities(n, res, m.capacities(sol.Values))
	res.Objective = sol.Objective
	res.Status = model.StatusOptimal

	out.Status = res.Status
	out.Objective = res.Objective
	out.Elapsed = time.Since(start)
	log.Info("optimization finished", "objective", out.Objective, "elapsed", out.Elapsed)
	return out, nil
}

// solveModel runs the solver and classifies everything but an optimal answer.
func solveModel(ctx context.Context, slv solver.Solver, m *Model, scope string) (*solver.Solution, error) {
	sol, err := slv.Solve(ctx, m.Problem)
	if err != nil {
		return nil, &model.PlanError{Kind: model.KindSolver, Op: "solve", Scope: scope, Err: err}
	}
	switch sol.Status {
	case solver.StatusOptimal:
		return sol, nil
	case solver.StatusInfeasible:
		return nil, &model.PlanError{Kind: model.KindInfeasible, Op: "solve", Scope: scope, Err: errors.New(sol.Message)}
	case solver.StatusUnbounded:
		return nil, &model.PlanError{Kind: model.KindUnbounded, Op: "solve", Scope: scope, Err: errors.New(sol.Message)}
	default:
		return nil, &model.PlanError{Kind: model.KindSolver, Op: "solve", Scope: scope,
			Err: fmt.Errorf("%s: %s", slv.Name(), sol.Message)}
	}
}

func failureOf(err error, window, start, end int) *model.Failure {
	f := &model.Failure{Kind: model.KindOf(err), Message: err.Error(), Window: window, Start: start, End: end}
	var pe *model.PlanError
	if errors.As(err, &pe) {
		f.Scope = pe.Scope
	}
	return f
}
