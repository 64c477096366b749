package optimize

import (
	"fmt"
	"time"

	"grid-planner/internal/logger"
	"grid-planner/internal/model"
	"grid-planner/internal/solver"

	"github.com/google/uuid"
)

// Mode names an optimization strategy. Values appear in results and API payloads.
type Mode string

const (
	ModeMultiPeriod    Mode = "multi_period"
	ModeRollingHorizon Mode = "rolling_horizon"
)

// CapitalWeighting selects how annualized capital cost is weighted per period.
type CapitalWeighting string

const (
	// CapitalByYears weights capital cost by the years the capacity is in service.
	CapitalByYears CapitalWeighting = "years"
	// CapitalByObjective weights it by the discounted objective weight of each period.
	CapitalByObjective CapitalWeighting = "objective"
)

// Options shared by both optimizers.
type Options struct {
	// Solver overrides SolverName when set.
	Solver           solver.Solver
	SolverName       string
	SolverOptions    solver.Options
	CapitalWeighting CapitalWeighting
	Logger           *logger.Logger
}

func (o Options) withDefaults() Options {
	if o.SolverName == "" {
		o.SolverName = "simplex"
	}
	if o.CapitalWeighting == "" {
		o.CapitalWeighting = CapitalByYears
	}
	o.Logger = logger.OrNop(o.Logger)
	return o
}

func (o Options) validate() error {
	switch o.CapitalWeighting {
	case CapitalByYears, CapitalByObjective:
	default:
		return model.ConfigErrorf("optimize", "unknown capital weighting %q", o.CapitalWeighting)
	}
	return nil
}

func (o Options) solver() (solver.Solver, error) {
	if o.Solver != nil {
		return o.Solver, nil
	}
	s, err := solver.New(o.SolverName, o.SolverOptions)
	if err != nil {
		return nil, model.ConfigErrorf("optimize", "%w", err)
	}
	return s, nil
}

// Outcome is the solved-state token returned to the caller. The detailed values live
// in the network's Results.
type Outcome struct {
	RunID     uuid.UUID       `json:"run_id"`
	Mode      Mode            `json:"mode"`
	Status    model.RunStatus `json:"status"`
	Objective float64         `json:"objective"`
	Elapsed   time.Duration   `json:"elapsed"`
	Windows   []WindowReport  `json:"windows,omitempty"`
	Warnings  []string        `json:"warnings,omitempty"`
}

func (o *Outcome) String() string {
	return fmt.Sprintf("%s run %s: %s, objective %.4f", o.Mode, o.RunID, o.Status, o.Objective)
}

func auditWarnings(n *model.Network, log *logger.Logger) []string {
	var out []string
	for _, w := range n.AuditActivity() {
		log.Warn("asset inactive in every snapshot", "kind", w.Kind, "name", w.Name, "detail", w.Message)
		out = append(out, w.String())
	}
	return out
}
