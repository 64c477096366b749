package solver

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	defaultTolerance = 1e-9
	pivotTolerance   = 1e-9
	// stallLimit is the number of consecutive degenerate pivots after which pricing
	// switches to Bland's rule until the objective moves again.
	stallLimit = 50
	// refreshEvery recomputes basic values and reduced costs from the tableau.
	refreshEvery = 256
)

// Simplex is a bounded-variable primal simplex on a dense tableau. Column bounds stay
// out of the rows and free columns stay free. Redundant equality rows are carried by
// artificial columns that are fixed at zero after phase one, so the rows need not
// have full rank. The context is checked between pivots.
type Simplex struct {
	opts Options
}

func NewSimplex(opts Options) *Simplex {
	if opts.Tolerance <= 0 {
		opts.Tolerance = defaultTolerance
	}
	return &Simplex{opts: opts}
}

func (s *Simplex) Name() string { return "simplex" }

func (s *Simplex) Solve(ctx context.Context, p *Problem) (*Solution, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid problem: %w", err)
	}
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("solve aborted: %w", err)
	}
	red, sol := presolve(p, s.opts.Tolerance)
	if sol != nil {
		return sol, nil
	}
	if len(red.rows) == 0 {
		return red.finish(nil, 1), nil
	}
	return newTableau(red, s.opts.Tolerance).solve(ctx)
}

// reduced is a problem with its fixed columns and its columns outside every row
// substituted out.
type reduced struct {
	p *Problem
	// values holds the substituted columns, indexed like p.Cols.
	values []float64
	// cols maps kept columns to problem columns.
	cols []int
	rows []reducedRow
}

type reducedRow struct {
	terms []Term
	sense Sense
	rhs   float64
}

func presolve(p *Problem, tol float64) (*reduced, *Solution) {
	inRow := make([]bool, len(p.Cols))
	for _, r := range p.Rows {
		for _, t := range r.Terms {
			if t.Coef != 0 {
				inRow[t.Col] = true
			}
		}
	}
	red := &reduced{p: p, values: make([]float64, len(p.Cols))}
	kept := make([]int, len(p.Cols))
	for j, c := range p.Cols {
		kept[j] = -1
		switch {
		case c.Upper-c.Lower <= tol:
			red.values[j] = c.Lower
		case !inRow[j]:
			v, ok := cheapestBound(c)
			if !ok {
				return nil, &Solution{Status: StatusUnbounded,
					Message: fmt.Sprintf("column %s is unbounded in its improving direction", c.Name)}
			}
			red.values[j] = v
		default:
			kept[j] = len(red.cols)
			red.cols = append(red.cols, j)
		}
	}
	for _, r := range p.Rows {
		rhs := r.RHS
		var terms []Term
		for _, t := range r.Terms {
			if t.Coef == 0 {
				continue
			}
			if k := kept[t.Col]; k >= 0 {
				terms = append(terms, Term{Col: k, Coef: t.Coef})
			} else {
				rhs -= t.Coef * red.values[t.Col]
			}
		}
		if len(terms) == 0 {
			if !rowHolds(r.Sense, rhs, tol) {
				return nil, &Solution{Status: StatusInfeasible,
					Message: fmt.Sprintf("row %s has no free variables and cannot hold", r.Name)}
			}
			continue
		}
		red.rows = append(red.rows, reducedRow{terms: terms, sense: r.Sense, rhs: rhs})
	}
	return red, nil
}

func cheapestBound(c Column) (float64, bool) {
	switch {
	case c.Cost > 0:
		return c.Lower, !math.IsInf(c.Lower, -1)
	case c.Cost < 0:
		return c.Upper, !math.IsInf(c.Upper, 1)
	case !math.IsInf(c.Lower, -1):
		return c.Lower, true
	case !math.IsInf(c.Upper, 1):
		return c.Upper, true
	}
	return 0, true
}

// rowHolds reports whether 0 (sense) rhs.
func rowHolds(s Sense, rhs, tol float64) bool {
	switch s {
	case LE:
		return rhs >= -tol
	case GE:
		return rhs <= tol
	}
	return math.Abs(rhs) <= tol
}

// finish expands kept column values x into a full solution and checks it.
func (r *reduced) finish(x []float64, scale float64) *Solution {
	values := append([]float64(nil), r.values...)
	for k, j := range r.cols {
		c := r.p.Cols[j]
		values[j] = math.Min(math.Max(x[k], c.Lower), c.Upper)
	}
	if v := r.p.MaxViolation(values); v > 1e-6*scale {
		return &Solution{Status: StatusError,
			Message: fmt.Sprintf("numerical trouble: solution violates its rows by %.3g", v)}
	}
	return &Solution{Status: StatusOptimal, Values: values, Objective: r.p.Evaluate(values)}
}

type colState uint8

const (
	atLower colState = iota
	atUpper
	// atZero is a free column held at zero outside the basis.
	atZero
	inBasis
)

// tableau holds B⁻¹A for the kept columns, one slack per inequality row and the
// artificial columns from index art on.
type tableau struct {
	red  *reduced
	m, n int
	art  int

	a      *mat.Dense
	beta   []float64
	lo, up []float64
	cost   []float64
	x      []float64
	state  []colState
	basis  []int
	d      []float64

	tol   float64
	scale float64
	bland bool
}

func newTableau(red *reduced, tol float64) *tableau {
	p := red.p
	m := len(red.rows)
	t := &tableau{red: red, m: m, tol: tol, scale: 1}

	for _, j := range red.cols {
		c := p.Cols[j]
		t.lo = append(t.lo, c.Lower)
		t.up = append(t.up, c.Upper)
		t.cost = append(t.cost, c.Cost)
		v, st := startValue(c.Lower, c.Upper)
		t.x = append(t.x, v)
		t.state = append(t.state, st)
		for _, b := range []float64{c.Lower, c.Upper} {
			if !math.IsInf(b, 0) {
				t.scale = math.Max(t.scale, 1+math.Abs(b))
			}
		}
	}
	slack := make([]int, m)
	for i, r := range red.rows {
		slack[i] = -1
		if r.sense != EQ {
			slack[i] = t.addColumn(0, math.Inf(1))
		}
		t.scale = math.Max(t.scale, 1+math.Abs(r.rhs))
	}
	t.art = len(t.lo)

	// Start from the slack basis where the slack can absorb the residual, and from
	// an artificial column elsewhere.
	t.basis = make([]int, m)
	sign := make([]float64, m)
	for i, r := range red.rows {
		res := r.rhs
		for _, tm := range r.terms {
			res -= tm.Coef * t.x[tm.Col]
		}
		switch {
		case r.sense == LE && res >= 0:
			t.basis[i], sign[i] = slack[i], 1
		case r.sense == GE && res <= 0:
			t.basis[i], sign[i] = slack[i], -1
		default:
			t.basis[i], sign[i] = t.addColumn(0, math.Inf(1)), 1
			if res < 0 {
				sign[i] = -1
			}
		}
	}

	t.n = len(t.lo)
	t.a = mat.NewDense(m, t.n, nil)
	t.beta = make([]float64, m)
	for i, r := range red.rows {
		row := t.a.RawRowView(i)
		for _, tm := range r.terms {
			row[tm.Col] += tm.Coef
		}
		switch r.sense {
		case LE:
			row[slack[i]] = 1
		case GE:
			row[slack[i]] = -1
		}
		if b := t.basis[i]; b >= t.art {
			row[b] = sign[i]
		}
		t.beta[i] = r.rhs
		if sign[i] < 0 {
			floats.Scale(-1, row)
			t.beta[i] = -t.beta[i]
		}
		t.state[t.basis[i]] = inBasis
	}
	t.recomputeBasics()
	return t
}

func (t *tableau) addColumn(lo, up float64) int {
	t.lo = append(t.lo, lo)
	t.up = append(t.up, up)
	t.cost = append(t.cost, 0)
	t.x = append(t.x, 0)
	t.state = append(t.state, atLower)
	return len(t.lo) - 1
}

func startValue(lo, up float64) (float64, colState) {
	switch {
	case !math.IsInf(lo, -1):
		return lo, atLower
	case !math.IsInf(up, 1):
		return up, atUpper
	}
	return 0, atZero
}

func (t *tableau) solve(ctx context.Context) (*Solution, error) {
	if t.art < t.n {
		phase1 := make([]float64, t.n)
		for j := t.art; j < t.n; j++ {
			phase1[j] = 1
		}
		st, msg, err := t.iterate(ctx, phase1)
		if err != nil {
			return nil, err
		}
		if st != StatusOptimal {
			return &Solution{Status: StatusError, Message: "phase one: " + msg}, nil
		}
		t.recomputeBasics()
		infeas := 0.0
		for j := t.art; j < t.n; j++ {
			infeas += math.Abs(t.x[j])
		}
		if infeas > 1e3*t.tol*t.scale {
			return &Solution{Status: StatusInfeasible,
				Message: fmt.Sprintf("no point satisfies every row (residual %.3g)", infeas)}, nil
		}
		for j := t.art; j < t.n; j++ {
			t.lo[j], t.up[j] = 0, 0
			if t.state[j] != inBasis {
				t.x[j], t.state[j] = 0, atLower
			}
		}
	}
	st, msg, err := t.iterate(ctx, t.cost)
	if err != nil {
		return nil, err
	}
	if st != StatusOptimal {
		return &Solution{Status: st, Message: msg}, nil
	}
	t.recomputeBasics()
	return t.red.finish(t.x, t.scale), nil
}

// iterate pivots until no column prices out under costs c.
func (t *tableau) iterate(ctx context.Context, c []float64) (Status, string, error) {
	t.reducedCosts(c)
	dtol := t.tol * (1 + floats.Norm(c, math.Inf(1)))
	limit := 50*(t.m+t.n) + 1000
	stalled := 0
	t.bland = false
	for it := 0; ; it++ {
		if err := ctx.Err(); err != nil {
			return StatusError, "", fmt.Errorf("solve aborted after %d pivots: %w", it, err)
		}
		if it == limit {
			return StatusError, fmt.Sprintf("iteration limit %d reached", limit), nil
		}
		if it > 0 && it%refreshEvery == 0 {
			t.recomputeBasics()
			t.reducedCosts(c)
		}
		j, dir := t.price(dtol)
		if j < 0 {
			return StatusOptimal, "", nil
		}
		r, theta := t.ratio(j, dir)
		if math.IsInf(theta, 1) {
			return StatusUnbounded, fmt.Sprintf("column %s improves the objective without limit", t.colName(j)), nil
		}
		t.step(j, dir, r, theta)
		if theta <= t.tol {
			stalled++
			t.bland = stalled > stallLimit
		} else {
			stalled, t.bland = 0, false
		}
	}
}

func (t *tableau) colName(j int) string {
	switch {
	case j < len(t.red.cols):
		return t.red.p.Cols[t.red.cols[j]].Name
	case j < t.art:
		return "slack"
	}
	return "artificial"
}

func (t *tableau) reducedCosts(c []float64) {
	t.d = append(t.d[:0], c...)
	for i, b := range t.basis {
		if cb := c[b]; cb != 0 {
			floats.AddScaled(t.d, -cb, t.a.RawRowView(i))
		}
	}
	for _, b := range t.basis {
		t.d[b] = 0
	}
}

func (t *tableau) recomputeBasics() {
	for i, b := range t.basis {
		row := t.a.RawRowView(i)
		v := t.beta[i]
		for j, xj := range t.x {
			if xj != 0 && t.state[j] != inBasis {
				v -= row[j] * xj
			}
		}
		t.x[b] = v
	}
}

// price picks the entering column and its direction: Dantzig's largest reduced cost,
// or the lowest eligible index while stalled.
func (t *tableau) price(dtol float64) (int, float64) {
	best, bestJ, bestDir := dtol, -1, 0.0
	for j := 0; j < t.n; j++ {
		dj := t.d[j]
		dir := 0.0
		switch t.state[j] {
		case atLower:
			if dj < -dtol && t.up[j] > t.lo[j] {
				dir = 1
			}
		case atUpper:
			if dj > dtol {
				dir = -1
			}
		case atZero:
			if dj < -dtol {
				dir = 1
			} else if dj > dtol {
				dir = -1
			}
		}
		if dir == 0 {
			continue
		}
		if t.bland {
			return j, dir
		}
		if score := math.Abs(dj); score > best {
			best, bestJ, bestDir = score, j, dir
		}
	}
	return bestJ, bestDir
}

// limit is how far the entering column may move before basic row i reaches a bound,
// when the basic value changes by delta per unit step. relax widens the bounds.
func (t *tableau) limit(i int, delta, relax float64) float64 {
	b := t.basis[i]
	switch {
	case delta < 0 && !math.IsInf(t.lo[b], -1):
		return (t.x[b] - t.lo[b] + relax) / -delta
	case delta > 0 && !math.IsInf(t.up[b], 1):
		return (t.up[b] - t.x[b] + relax) / delta
	}
	return math.Inf(1)
}

// ratio returns the leaving row for entering column j and the step length. Row -1
// means the entering column moves to its opposite bound instead.
func (t *tableau) ratio(j int, dir float64) (int, float64) {
	raw := t.a.RawMatrix()
	col := func(i int) float64 { return raw.Data[i*raw.Stride+j] }
	flip := t.up[j] - t.lo[j]

	if t.bland {
		row, theta := -1, flip
		for i := 0; i < t.m; i++ {
			alpha := col(i)
			if math.Abs(alpha) <= pivotTolerance {
				continue
			}
			lim := t.limit(i, -alpha*dir, 0)
			if lim < theta || (lim == theta && row >= 0 && t.basis[i] < t.basis[row]) {
				row, theta = i, lim
			}
		}
		return row, math.Max(theta, 0)
	}

	// Harris: bound the step with relaxed bounds, then take the largest pivot among
	// the rows that block within it.
	bound := flip
	for i := 0; i < t.m; i++ {
		alpha := col(i)
		if math.Abs(alpha) <= pivotTolerance {
			continue
		}
		if lim := t.limit(i, -alpha*dir, t.tol); lim < bound {
			bound = lim
		}
	}
	if math.IsInf(bound, 1) {
		return -1, bound
	}
	row, theta, best := -1, 0.0, 0.0
	for i := 0; i < t.m; i++ {
		alpha := col(i)
		if math.Abs(alpha) <= pivotTolerance {
			continue
		}
		lim := t.limit(i, -alpha*dir, 0)
		if lim > bound {
			continue
		}
		if a := math.Abs(alpha); a > best {
			row, theta, best = i, lim, a
		}
	}
	if row < 0 || flip <= theta {
		return -1, flip
	}
	return row, math.Max(theta, 0)
}

func (t *tableau) step(j int, dir float64, r int, theta float64) {
	raw := t.a.RawMatrix()
	if theta != 0 {
		for i := 0; i < t.m; i++ {
			if alpha := raw.Data[i*raw.Stride+j]; alpha != 0 {
				t.x[t.basis[i]] -= alpha * dir * theta
			}
		}
		t.x[j] += dir * theta
	}
	if r < 0 {
		if dir > 0 {
			t.x[j], t.state[j] = t.up[j], atUpper
		} else {
			t.x[j], t.state[j] = t.lo[j], atLower
		}
		return
	}
	leave := t.basis[r]
	if raw.Data[r*raw.Stride+j]*dir > 0 {
		t.x[leave], t.state[leave] = t.lo[leave], atLower
	} else {
		t.x[leave], t.state[leave] = t.up[leave], atUpper
	}
	if leave >= t.art {
		// artificials never come back
		t.lo[leave], t.up[leave], t.x[leave], t.state[leave] = 0, 0, 0, atLower
	}
	t.pivot(r, j)
}

func (t *tableau) pivot(r, j int) {
	rowR := t.a.RawRowView(r)
	inv := 1 / rowR[j]
	floats.Scale(inv, rowR)
	rowR[j] = 1
	t.beta[r] *= inv
	for i := 0; i < t.m; i++ {
		if i == r {
			continue
		}
		row := t.a.RawRowView(i)
		f := row[j]
		if f == 0 {
			continue
		}
		floats.AddScaled(row, -f, rowR)
		row[j] = 0
		t.beta[i] -= f * t.beta[r]
	}
	if f := t.d[j]; f != 0 {
		floats.AddScaled(t.d, -f, rowR)
	}
	t.d[j] = 0
	t.basis[r], t.state[j] = j, inBasis
}
