package solver

import (
	"fmt"
	"math"
)

// Sense is the relation of a constraint row to its right-hand side.
type Sense int

const (
	LE Sense = iota
	GE
	EQ
)

func (s Sense) String() string {
	switch s {
	case LE:
		return "<="
	case GE:
		return ">="
	default:
		return "=="
	}
}

// Column is one decision variable. Lower may be -Inf and Upper +Inf.
type Column struct {
	Name  string
	Lower float64
	Upper float64
	Cost  float64
}

type Term struct {
	Col  int
	Coef float64
}

type Row struct {
	Name  string
	Terms []Term
	Sense Sense
	RHS   float64
}

// Problem is a linear minimization problem: min cost·x s.t. rows, lower <= x <= upper.
type Problem struct {
	Cols []Column
	Rows []Row
}

// AddColumn appends a variable and returns its index.
func (p *Problem) AddColumn(name string, lower, upper, cost float64) int {
	p.Cols = append(p.Cols, Column{Name: name, Lower: lower, Upper: upper, Cost: cost})
	return len(p.Cols) - 1
}

// AddRow appends a constraint. Zero coefficients are dropped; repeated columns are summed.
func (p *Problem) AddRow(name string, sense Sense, rhs float64, terms ...Term) int {
	merged := make([]Term, 0, len(terms))
	pos := make(map[int]int, len(terms))
	for _, t := range terms {
		if t.Coef == 0 {
			continue
		}
		if i, ok := pos[t.Col]; ok {
			merged[i].Coef += t.Coef
			continue
		}
		pos[t.Col] = len(merged)
		merged = append(merged, t)
	}
	p.Rows = append(p.Rows, Row{Name: name, Terms: merged, Sense: sense, RHS: rhs})
	return len(p.Rows) - 1
}

// AddCost adds c to the objective coefficient of column j.
func (p *Problem) AddCost(j int, c float64) {
	p.Cols[j].Cost += c
}

// Validate checks indices and bounds.
func (p *Problem) Validate() error {
	for j, c := range p.Cols {
		if math.IsNaN(c.Lower) || math.IsNaN(c.Upper) || math.IsNaN(c.Cost) {
			return fmt.Errorf("column %d (%s): NaN bound or cost", j, c.Name)
		}
		if c.Lower > c.Upper {
			return fmt.Errorf("column %d (%s): lower %v > upper %v", j, c.Name, c.Lower, c.Upper)
		}
		if math.IsInf(c.Cost, 0) {
			return fmt.Errorf("column %d (%s): infinite cost", j, c.Name)
		}
	}
	for i, r := range p.Rows {
		if math.IsNaN(r.RHS) || math.IsInf(r.RHS, 0) {
			return fmt.Errorf("row %d (%s): rhs must be finite", i, r.Name)
		}
		for _, t := range r.Terms {
			if t.Col < 0 || t.Col >= len(p.Cols) {
				return fmt.Errorf("row %d (%s): column %d out of range", i, r.Name, t.Col)
			}
			if math.IsNaN(t.Coef) || math.IsInf(t.Coef, 0) {
				return fmt.Errorf("row %d (%s): coefficient must be finite", i, r.Name)
			}
		}
	}
	return nil
}

// Evaluate returns the objective value of x.
func (p *Problem) Evaluate(x []float64) float64 {
	v := 0.0
	for j, c := range p.Cols {
		v += c.Cost * x[j]
	}
	return v
}

// MaxViolation returns the largest bound or row violation of x.
func (p *Problem) MaxViolation(x []float64) float64 {
	worst := 0.0
	for j, c := range p.Cols {
		worst = math.Max(worst, c.Lower-x[j])
		worst = math.Max(worst, x[j]-c.Upper)
	}
	for _, r := range p.Rows {
		lhs := 0.0
		for _, t := range r.Terms {
			lhs += t.Coef * x[t.Col]
		}
		switch r.Sense {
		case LE:
			worst = math.Max(worst, lhs-r.RHS)
		case GE:
			worst = math.Max(worst, r.RHS-lhs)
		default:
			worst = math.Max(worst, math.Abs(lhs-r.RHS))
		}
	}
	return worst
}
