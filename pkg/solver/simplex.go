package solver

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// relaxStatus is the outcome of one LP relaxation solve
type relaxStatus int

const (
	relaxOptimal relaxStatus = iota
	relaxInfeasible
	relaxUnbounded
)

// varBound overrides the bounds of a single variable for one relaxation.
// Branch-and-bound uses these to tighten integer variables per node.
type varBound struct {
	idx   int
	lower float64
	upper float64
}

// solveRelaxation solves the LP relaxation of the model with the given bound
// overrides applied. All variables are assumed to have finite lower bounds;
// the model is converted to standard form (Ax = b, x >= 0) by shifting each
// variable by its lower bound and adding one slack per inequality row and per
// finite upper bound.
func solveRelaxation(m *Model, overrides []varBound, simplexTol float64) (relaxStatus, []float64, float64, error) {
	n := len(m.Vars)

	lower := make([]float64, n)
	upper := make([]float64, n)
	for i, v := range m.Vars {
		lower[i] = v.Lower
		upper[i] = v.Upper
	}
	for _, ob := range overrides {
		if ob.lower > lower[ob.idx] {
			lower[ob.idx] = ob.lower
		}
		if ob.upper < upper[ob.idx] {
			upper[ob.idx] = ob.upper
		}
	}
	for i := 0; i < n; i++ {
		if lower[i] > upper[i]+1e-12 {
			return relaxInfeasible, nil, 0, nil
		}
		if math.IsInf(upper[i], 1) {
			return relaxInfeasible, nil, 0, fmt.Errorf("variable %s has no finite upper bound", m.Vars[i].Name)
		}
	}

	// Count rows: one per model constraint plus one upper-bound row per
	// variable. Inequality rows get a slack column each.
	numRows := len(m.Cons) + n
	numSlacks := n
	for _, c := range m.Cons {
		if c.Op != Equal {
			numSlacks++
		}
	}
	cols := n + numSlacks

	a := mat.NewDense(numRows, cols, nil)
	b := make([]float64, numRows)
	c := make([]float64, cols)
	for i := 0; i < n; i++ {
		c[i] = m.Objective[i]
	}

	// Substituting x = lower + x' moves lower bounds into the RHS.
	slack := n
	row := 0
	for _, con := range m.Cons {
		rhs := con.RHS
		sign := 1.0
		if con.Op == GreaterEq {
			sign = -1.0
			rhs = -rhs
		}
		for _, t := range con.Terms {
			a.Set(row, t.Var, a.At(row, t.Var)+sign*t.Coeff)
			rhs -= sign * t.Coeff * lower[t.Var]
		}
		if con.Op != Equal {
			a.Set(row, slack, 1)
			slack++
		}
		b[row] = rhs
		row++
	}
	for i := 0; i < n; i++ {
		a.Set(row, i, 1)
		a.Set(row, slack, 1)
		b[row] = upper[i] - lower[i]
		slack++
		row++
	}

	xStd, err := runSimplex(c, a, b, simplexTol)
	if err != nil {
		switch {
		case errors.Is(err, lp.ErrInfeasible):
			return relaxInfeasible, nil, 0, nil
		case errors.Is(err, lp.ErrUnbounded):
			return relaxUnbounded, nil, 0, nil
		default:
			return relaxInfeasible, nil, 0, fmt.Errorf("simplex failed: %w", err)
		}
	}

	x := make([]float64, n)
	obj := 0.0
	for i := 0; i < n; i++ {
		x[i] = xStd[i] + lower[i]
		obj += m.Objective[i] * x[i]
	}
	return relaxOptimal, x, obj, nil
}

// runSimplex calls lp.Simplex and converts its panics on degenerate systems,
// such as more equality rows than columns, into ordinary errors so they never
// escape through a backend call.
func runSimplex(c []float64, a mat.Matrix, b []float64, tol float64) (x []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			x, err = nil, fmt.Errorf("simplex panicked: %v", r)
		}
	}()
	_, x, err = lp.Simplex(c, a, b, tol, nil)
	return x, err
}
