package solver

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Status is the outcome of a solve.
type Status int

const (
	StatusOptimal Status = iota
	StatusInfeasible
	StatusUnbounded
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	default:
		return "error"
	}
}

// Solution is what a solver returns. Values has one entry per problem column and is
// only meaningful when Status is StatusOptimal.
type Solution struct {
	Status    Status
	Values    []float64
	Objective float64
	// Message explains non-optimal statuses.
	Message string
}

func (s *Solution) IsOptimal() bool    { return s.Status == StatusOptimal }
func (s *Solution) IsInfeasible() bool { return s.Status == StatusInfeasible }
func (s *Solution) IsUnbounded() bool  { return s.Status == StatusUnbounded }

// Solver is the narrow contract the optimizers depend on. Solve returns an error
// only when the solver could not answer (crash, timeout, cancellation); a definite
// "infeasible" or "unbounded" answer is a Solution status, not an error.
type Solver interface {
	Name() string
	Solve(ctx context.Context, p *Problem) (*Solution, error)
}

// Options configure a backend.
type Options struct {
	// Timeout bounds a single Solve call. Zero means no limit.
	Timeout time.Duration
	// Tolerance is the numeric tolerance handed to the backend.
	Tolerance float64
}

// Factory creates a configured backend.
type Factory func(Options) Solver

var registry = map[string]Factory{
	"simplex": func(o Options) Solver { return NewSimplex(o) },
	"gonum":   func(o Options) Solver { return NewDense(o) },
}

// New returns the backend registered under name.
func New(name string, opts Options) (Solver, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown solver %q (available: %v)", name, Names())
	}
	return f(opts), nil
}

// Names lists the registered backends.
func Names() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// WithTimeout runs a backend that cannot be interrupted under the timeout policy of
// opts. The backend keeps running in its goroutine after a timeout and its result is
// discarded, so callers should only use it for solves that are known to terminate.
func WithTimeout(ctx context.Context, opts Options, solve func() (*Solution, error)) (*Solution, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	type result struct {
		sol *Solution
		err error
	}
	done := make(chan result, 1)
	go func() {
		sol, err := solve()
		done <- result{sol, err}
	}()
	select {
	case r := <-done:
		return r.sol, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("solve aborted: %w", ctx.Err())
	}
}
