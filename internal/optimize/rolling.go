package optimize

import (
	"context"
	"fmt"
	"sync"
	"time"

	"grid-planner/internal/logger"
	"grid-planner/internal/model"

	"github.com/google/uuid"
)

// Window is one rolling-horizon sub-problem over snapshots [Start, End). Only
// [Start, CommitEnd) is written back to the network.
type Window struct {
	Index     int `json:"index"`
	Start     int `json:"start"`
	End       int `json:"end"`
	CommitEnd int `json:"commit_end"`
}

func (w Window) snapshots() []int {
	out := make([]int, 0, w.End-w.Start)
	for t := w.Start; t < w.End; t++ {
		out = append(out, t)
	}
	return out
}

func (w Window) committed() []int {
	return w.snapshots()[:w.CommitEnd-w.Start]
}

// PlanWindows partitions total snapshots into windows of length horizon that advance
// by horizon-overlap. The committed ranges of the windows cover every snapshot exactly once.
func PlanWindows(total, horizon, overlap int) ([]Window, error) {
	switch {
	case total <= 0:
		return nil, model.ConfigErrorf("plan windows", "no snapshots")
	case horizon <= 0:
		return nil, model.ConfigErrorf("plan windows", "horizon must be > 0, got %d", horizon)
	case overlap < 0:
		return nil, model.ConfigErrorf("plan windows", "overlap must be >= 0, got %d", overlap)
	case overlap >= horizon:
		return nil, model.ConfigErrorf("plan windows", "overlap %d must be smaller than horizon %d", overlap, horizon)
	}
	step := horizon - overlap
	var out []Window
	for start := 0; start < total; start += step {
		out = append(out, Window{
			Index:     len(out),
			Start:     start,
			End:       min(start+horizon, total),
			CommitEnd: min(start+step, total),
		})
	}
	return out, nil
}

// SeedPolicy selects how storage levels carry over from one window to the next.
type SeedPolicy string

const (
	// SeedLastCommitted starts a window from the level at the previous window's last
	// committed snapshot.
	SeedLastCommitted SeedPolicy = "last_committed"
	// SeedOverlapStart additionally pins the level at the window's first snapshot to the
	// value the previous window solved there.
	SeedOverlapStart SeedPolicy = "overlap_start"
)

type RollingOptions struct {
	Options
	Horizon int
	Overlap int
	Seed    SeedPolicy
}

func (o RollingOptions) withDefaults() RollingOptions {
	o.Options = o.Options.withDefaults()
	if o.Seed == "" {
		o.Seed = SeedLastCommitted
	}
	return o
}

func (o RollingOptions) validate() error {
	if err := o.Options.validate(); err != nil {
		return err
	}
	switch o.Seed {
	case SeedLastCommitted, SeedOverlapStart:
	default:
		return model.ConfigErrorf("rolling horizon", "unknown seed policy %q", o.Seed)
	}
	return nil
}

// State is the progress of a rolling-horizon run.
type State string

const (
	StatePending        State = "pending"
	StateWindowPrepared State = "window_prepared"
	StateWindowSolved   State = "window_solved"
	// StateDone means every window is committed and the stitched objective is pending.
	StateDone     State = "done"
	StateFinished State = "finished"
	StateFailed   State = "failed"
)

// WindowReport describes one solved (or failed) window.
type WindowReport struct {
	Window
	Objective float64 `json:"objective"`
	// Seeds holds the storage level entering the window, per seeded storage unit.
	Seeds map[string]float64 `json:"seeds,omitempty"`
	// Pinned holds the level fixed at the window's first snapshot under SeedOverlapStart.
	Pinned  map[string]float64 `json:"pinned,omitempty"`
	Elapsed time.Duration      `json:"elapsed"`
	Error   string             `json:"error,omitempty"`
}

// Runner drives a rolling-horizon run over one network. Windows are solved strictly in
// order; State and Reports may be read concurrently with Run.
type Runner struct {
	net     *model.Network
	opts    RollingOptions
	windows []Window

	mu      sync.Mutex
	state   State
	reports []WindowReport
}

func NewRunner(n *model.Network, opts RollingOptions) (*Runner, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	windows, err := PlanWindows(len(n.Snapshots), opts.Horizon, opts.Overlap)
	if err != nil {
		return nil, err
	}
	return &Runner{net: n, opts: opts, windows: windows, state: StatePending}, nil
}

func (r *Runner) Windows() []Window {
	return append([]Window(nil), r.windows...)
}

func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Runner) Reports() []WindowReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]WindowReport(nil), r.reports...)
}

func (r *Runner) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

func (r *Runner) addReport(rep WindowReport) {
	r.mu.Lock()
	r.reports = append(r.reports, rep)
	r.mu.Unlock()
}

// Run solves every window and stitches the committed dispatch into n.Results. When a
// window fails after earlier windows were committed, Run returns both the partial
// Outcome and the error.
func (r *Runner) Run(ctx context.Context) (*Outcome, error) {
	if r.State() != StatePending {
		return nil, model.ConfigErrorf("rolling horizon", "runner already used")
	}
	n := r.net
	slv, err := r.opts.solver()
	if err != nil {
		r.setState(StateFailed)
		return nil, err
	}
	done, err := n.BeginSolve()
	if err != nil {
		r.setState(StateFailed)
		return nil, err
	}
	defer done()

	start := time.Now()
	out := &Outcome{RunID: uuid.New(), Mode: ModeRollingHorizon}
	log := r.opts.Logger.With("run_id", out.RunID.String(), "mode", out.Mode)
	out.Warnings = auditWarnings(n, log)

	res := model.NewResults(n)
	res.Mode = string(ModeRollingHorizon)
	n.Results = res
	caps := map[capKey]float64{}

	var prev *Model
	var prevValues []float64
	for _, w := range r.windows {
		r.setState(StateWindowPrepared)
		wstart := time.Now()
		spec := buildSpec{
			snapshots:    w.snapshots(),
			seeds:        r.seeds(w, res, prev, prevValues),
			capitalShare: periodShares(n, w.snapshots()),
			weighting:    r.opts.CapitalWeighting,
		}
		rep := WindowReport{Window: w}
		rep.Seeds, rep.Pinned = seedValues(n, spec.seeds)
		wlog := log.With("window", w.Index, "start", w.Start, "end", w.End)

		m, err := build(n, spec)
		if err == nil {
			scope := fmt.Sprintf("window %d, snapshots %d-%d", w.Index, w.Start, w.End-1)
			var values []float64
			if sol, serr := solveModel(ctx, slv, m, scope); serr == nil {
				values = sol.Values
				rep.Objective = sol.Objective
			} else {
				err = serr
			}
			if err == nil {
				m.writeDispatch(res, values, w.committed())
				for k, v := range m.capacities(values) {
					if v > caps[k] {
						caps[k] = v
					}
				}
				prev, prevValues = m, values
			}
		}
		rep.Elapsed = time.Since(wstart)
		if err != nil {
			rep.Error = err.Error()
			r.addReport(rep)
			return r.fail(out, res, caps, w, err, wlog)
		}
		r.addReport(rep)
		r.setState(StateWindowSolved)
		wlog.Debug("window committed", "objective", rep.Objective, "elapsed", rep.Elapsed)
	}

	r.setState(StateDone)
	writeCapacities(n, res, caps)
	obj, err := EvaluateObjective(n, r.opts.Options)
	if err != nil {
		r.setState(StateFailed)
		return nil, err
	}
	res.Objective = obj
	res.Status = model.StatusOptimal

	out.Status = res.Status
	out.Objective = obj
	out.Elapsed = time.Since(start)
	out.Windows = r.Reports()
	r.setState(StateFinished)
	log.Info("rolling horizon finished", "windows", len(r.windows), "objective", obj, "elapsed", out.Elapsed)
	return out, nil
}

func (r *Runner) fail(out *Outcome, res *model.Results, caps map[capKey]float64, w Window, err error, log *logger.Logger) (*Outcome, error) {
	r.setState(StateFailed)
	res.Failure = failureOf(err, w.Index, w.Start, w.End-1)
	log.Error("window failed", "error", err)
	if w.Index == 0 {
		res.Status = model.StatusFailed
		return nil, err
	}
	writeCapacities(r.net, res, caps)
	res.Status = model.StatusPartial
	out.Status = res.Status
	out.Windows = r.Reports()
	return out, err
}

// seeds computes the storage levels entering window w from the committed results.
func (r *Runner) seeds(w Window, res *model.Results, prev *Model, prevValues []float64) map[int]storageSeed {
	if w.Index == 0 {
		return nil
	}
	n := r.net
	out := map[int]storageSeed{}
	for i := range n.StorageUnits {
		s := &n.StorageUnits[i]
		if !n.ActiveAt(s, w.Start-1) || !n.ActiveAt(s, w.Start) {
			continue
		}
		seed := storageSeed{before: res.StorageSOC[s.Name][w.Start-1]}
		if r.opts.Seed == SeedOverlapStart && prev != nil {
			if j, ok := prev.soc[varKey{model.KindStorageUnit, i, w.Start}]; ok {
				v := clean(prevValues[j])
				seed.start = &v
			}
		}
		out[i] = seed
	}
	return out
}

func seedValues(n *model.Network, seeds map[int]storageSeed) (before, pinned map[string]float64) {
	for i, s := range seeds {
		name := n.StorageUnits[i].Name
		if before == nil {
			before = make(map[string]float64, len(seeds))
		}
		before[name] = s.before
		if s.start != nil {
			if pinned == nil {
				pinned = map[string]float64{}
			}
			pinned[name] = *s.start
		}
	}
	return before, pinned
}

// OptimizeRollingHorizon solves n window by window. See Runner.Run.
func OptimizeRollingHorizon(ctx context.Context, n *model.Network, opts RollingOptions) (*Outcome, error) {
	r, err := NewRunner(n, opts)
	if err != nil {
		return nil, err
	}
	return r.Run(ctx)
}
