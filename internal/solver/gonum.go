package solver

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// Dense hands problems to gonum's lp.Simplex. The standard form needs full row rank,
// so it suits small problems without redundant equality rows. lp.Simplex cannot be
// interrupted: after a timeout the call returns but the solve finishes in the background.
type Dense struct {
	opts Options
}

func NewDense(opts Options) *Dense {
	if opts.Tolerance <= 0 {
		opts.Tolerance = defaultTolerance
	}
	return &Dense{opts: opts}
}

func (s *Dense) Name() string { return "gonum" }

func (s *Dense) Solve(ctx context.Context, p *Problem) (*Solution, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid problem: %w", err)
	}
	return WithTimeout(ctx, s.opts, func() (*Solution, error) {
		return s.solve(p)
	})
}

// colMap expresses an original column as offset + y[pos] - y[neg] over
// non-negative standard-form columns. -1 means "absent".
type colMap struct {
	offset   float64
	pos, neg int
}

// standardForm is min c·y s.t. A y = b, y >= 0.
type standardForm struct {
	cols []colMap
	c    []float64
	rows []map[int]float64
	b    []float64
}

func (sf *standardForm) newCol(cost float64) int {
	sf.c = append(sf.c, cost)
	return len(sf.c) - 1
}

func (s *Dense) solve(p *Problem) (sol *Solution, err error) {
	defer func() {
		if r := recover(); r != nil {
			sol = &Solution{Status: StatusError, Message: fmt.Sprintf("simplex panic: %v", r)}
			err = nil
		}
	}()

	tol := s.opts.Tolerance
	sf, status, msg := buildStandardForm(p, tol)
	if status != StatusOptimal {
		return &Solution{Status: status, Message: msg}, nil
	}

	// Columns that appear in no row sit at their lower bound of 0 unless that pays.
	used := make([]bool, len(sf.c))
	for _, row := range sf.rows {
		for k := range row {
			used[k] = true
		}
	}
	keep := make([]int, len(sf.c))
	n := 0
	for k := range sf.c {
		if used[k] {
			keep[k] = n
			n++
			continue
		}
		if sf.c[k] < 0 {
			return &Solution{Status: StatusUnbounded, Message: "unbounded column with negative cost"}, nil
		}
		keep[k] = -1
	}

	y := make([]float64, len(sf.c))
	m := len(sf.rows)
	if m > 0 {
		if m > n {
			return &Solution{Status: StatusError,
				Message: fmt.Sprintf("%d independent equality rows required but only %d columns", m, n)}, nil
		}
		A := mat.NewDense(m, n, nil)
		b := make([]float64, m)
		c := make([]float64, n)
		for k, cost := range sf.c {
			if keep[k] >= 0 {
				c[keep[k]] = cost
			}
		}
		for i, row := range sf.rows {
			sign := 1.0
			if sf.b[i] < 0 {
				sign = -1
			}
			b[i] = sign * sf.b[i]
			for k, v := range row {
				A.Set(i, keep[k], sign*v)
			}
		}
		_, x, err := lp.Simplex(c, A, b, tol, nil)
		switch {
		case errors.Is(err, lp.ErrInfeasible):
			return &Solution{Status: StatusInfeasible, Message: err.Error()}, nil
		case errors.Is(err, lp.ErrUnbounded):
			return &Solution{Status: StatusUnbounded, Message: err.Error()}, nil
		case err != nil:
			return &Solution{Status: StatusError, Message: err.Error()}, nil
		}
		for k := range y {
			if keep[k] >= 0 {
				y[k] = x[keep[k]]
			}
		}
	}

	values := make([]float64, len(p.Cols))
	for j, cm := range sf.cols {
		v := cm.offset
		if cm.pos >= 0 {
			v += y[cm.pos]
		}
		if cm.neg >= 0 {
			v -= y[cm.neg]
		}
		values[j] = v
	}
	return &Solution{Status: StatusOptimal, Values: values, Objective: p.Evaluate(values)}, nil
}

func buildStandardForm(p *Problem, tol float64) (*standardForm, Status, string) {
	sf := &standardForm{cols: make([]colMap, len(p.Cols))}

	for j, col := range p.Cols {
		cm := colMap{pos: -1, neg: -1}
		loFinite := !math.IsInf(col.Lower, -1)
		upFinite := !math.IsInf(col.Upper, 1)
		switch {
		case loFinite && upFinite && col.Upper-col.Lower <= tol:
			cm.offset = col.Lower
		case loFinite:
			cm.offset = col.Lower
			cm.pos = sf.newCol(col.Cost)
			if upFinite {
				slack := sf.newCol(0)
				sf.rows = append(sf.rows, map[int]float64{cm.pos: 1, slack: 1})
				sf.b = append(sf.b, col.Upper-col.Lower)
			}
		case upFinite:
			cm.offset = col.Upper
			cm.neg = sf.newCol(-col.Cost)
		default:
			cm.pos = sf.newCol(col.Cost)
			cm.neg = sf.newCol(-col.Cost)
		}
		sf.cols[j] = cm
	}

	for _, r := range p.Rows {
		row := make(map[int]float64, len(r.Terms)+1)
		rhs := r.RHS
		for _, t := range r.Terms {
			cm := sf.cols[t.Col]
			rhs -= t.Coef * cm.offset
			if cm.pos >= 0 {
				row[cm.pos] += t.Coef
			}
			if cm.neg >= 0 {
				row[cm.neg] -= t.Coef
			}
		}
		for k, v := range row {
			if v == 0 {
				delete(row, k)
			}
		}
		if len(row) == 0 {
			ok := true
			switch r.Sense {
			case EQ:
				ok = math.Abs(rhs) <= tol
			case LE:
				ok = rhs >= -tol
			case GE:
				ok = rhs <= tol
			}
			if !ok {
				return nil, StatusInfeasible, fmt.Sprintf("row %s has no free variables and cannot hold", r.Name)
			}
			continue
		}
		switch r.Sense {
		case LE:
			row[sf.newCol(0)] = 1
		case GE:
			row[sf.newCol(0)] = -1
		}
		sf.rows = append(sf.rows, row)
		sf.b = append(sf.b, rhs)
	}
	return sf, StatusOptimal, ""
}
