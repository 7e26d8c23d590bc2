package solver

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultIntTol  = 1e-6
	defaultSimplex = 1e-10
	// pruneSlack guards incumbent comparisons against floating-point noise
	pruneSlack = 1e-9
)

// branchBound is the default Backend. It solves the LP relaxation with
// simplex and branches on fractional integer variables. The search order is
// fully deterministic: depth-first, lowest-index fractional variable, floor
// branch explored before the ceil branch, so identical models always produce
// identical solutions.
type branchBound struct {
	simplexTol float64
}

// NewBackend returns the default branch-and-bound backend
func NewBackend() Backend {
	return &branchBound{simplexTol: defaultSimplex}
}

// bbNode is one node of the branch-and-bound search tree
type bbNode struct {
	bounds []varBound
	// parentBound is the relaxation objective of the node that spawned this
	// one; a valid lower bound on any solution in this subtree
	parentBound float64
}

func (bb *branchBound) Solve(ctx context.Context, m *Model, opts Options) (Solution, error) {
	start := time.Now()
	intTol := opts.IntTol
	if intTol <= 0 {
		intTol = defaultIntTol
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	var deadline time.Time
	if opts.TimeLimit > 0 {
		deadline = start.Add(opts.TimeLimit)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}

	stats := Stats{}
	finish := func(s Solution) Solution {
		s.Stats = stats
		s.Stats.Elapsed = time.Since(start)
		log.Debug().
			Str("status", s.Status.String()).
			Int("nodes", s.Stats.Nodes).
			Int("relaxations", s.Stats.Relaxations).
			Dur("elapsed", s.Stats.Elapsed).
			Msg("solve finished")
		return s
	}

	if len(m.Vars) == 0 {
		return finish(solveEmpty(m, intTol)), nil
	}

	var (
		incumbent    []float64
		incumbentObj = math.Inf(1)
		haveIncum    bool
	)

	var stack []bbNode

	stop := func(cause Status) Solution {
		s := Solution{Status: cause}
		if haveIncum {
			s.Values = incumbent
			s.Objective = incumbentObj
			bound := math.Inf(1)
			for _, n := range stack {
				if n.parentBound < bound {
					bound = n.parentBound
				}
			}
			if !math.IsInf(bound, 0) {
				s.GapBound = incumbentObj - bound
			}
			if cause == StatusTimedOut {
				// A best-known solution exists; report it as feasible
				// with the remaining optimality gap.
				s.Status = StatusFeasible
			}
		}
		return s
	}

	stack = []bbNode{{parentBound: math.Inf(-1)}}
	rootNode := true

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return finish(stop(StatusCancelled)), nil
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return finish(stop(StatusTimedOut)), nil
		}

		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		stats.Nodes++

		// Prune by bound before paying for a relaxation solve.
		if haveIncum && node.parentBound >= incumbentObj-pruneSlack {
			continue
		}

		status, x, obj, err := solveRelaxation(m, node.bounds, bb.simplexTol)
		stats.Relaxations++
		if err != nil {
			return finish(Solution{Status: StatusUnknown}), err
		}

		switch status {
		case relaxInfeasible:
			if rootNode {
				return finish(Solution{Status: StatusInfeasible}), nil
			}
			rootNode = false
			continue
		case relaxUnbounded:
			if rootNode {
				return finish(Solution{Status: StatusUnbounded}), nil
			}
			rootNode = false
			continue
		}
		rootNode = false

		if haveIncum && obj >= incumbentObj-pruneSlack {
			continue
		}

		frac := firstFractional(m, x, intTol)
		if frac < 0 {
			incumbent = x
			incumbentObj = obj
			haveIncum = true
			log.Debug().Float64("objective", obj).Int("node", stats.Nodes).Msg("new incumbent")
			continue
		}

		floor := math.Floor(x[frac])
		// Push ceil first so the floor branch is explored first.
		ceilBounds := append(append([]varBound{}, node.bounds...), varBound{idx: frac, lower: floor + 1, upper: math.Inf(1)})
		floorBounds := append(append([]varBound{}, node.bounds...), varBound{idx: frac, lower: math.Inf(-1), upper: floor})
		stack = append(stack,
			bbNode{bounds: ceilBounds, parentBound: obj},
			bbNode{bounds: floorBounds, parentBound: obj},
		)
	}

	if !haveIncum {
		return finish(Solution{Status: StatusInfeasible}), nil
	}
	return finish(Solution{Status: StatusOptimal, Values: incumbent, Objective: incumbentObj}), nil
}

// firstFractional returns the lowest-index integer variable whose relaxation
// value is not within tol of an integer, or -1 if the point is integral
func firstFractional(m *Model, x []float64, tol float64) int {
	for i, v := range m.Vars {
		if v.Type == Continuous {
			continue
		}
		if math.Abs(x[i]-math.Round(x[i])) > tol {
			return i
		}
	}
	return -1
}

// solveEmpty evaluates a model with no variables: every row is a constant
// and the model is either trivially feasible or trivially infeasible
func solveEmpty(m *Model, tol float64) Solution {
	for _, con := range m.Cons {
		switch con.Op {
		case Equal:
			if math.Abs(con.RHS) > tol {
				return Solution{Status: StatusInfeasible}
			}
		case LessEq:
			if con.RHS < -tol {
				return Solution{Status: StatusInfeasible}
			}
		case GreaterEq:
			if con.RHS > tol {
				return Solution{Status: StatusInfeasible}
			}
		}
	}
	return Solution{Status: StatusOptimal, Values: []float64{}}
}
