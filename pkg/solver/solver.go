// Package solver defines a solver-agnostic linear model and the backend
// interface used to solve it. The default backend solves LP relaxations with
// gonum's simplex implementation and closes integrality gaps with a
// deterministic branch-and-bound search.
package solver

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// VarType represents the domain of a decision variable
type VarType int

const (
	Continuous VarType = iota
	Integer
	Binary
)

// String method for VarType enum
func (v VarType) String() string {
	switch v {
	case Continuous:
		return "Continuous"
	case Integer:
		return "Integer"
	case Binary:
		return "Binary"
	default:
		return "Unknown"
	}
}

// RelOp represents the relational operator of a constraint row
type RelOp int

const (
	LessEq RelOp = iota
	GreaterEq
	Equal
)

// String method for RelOp enum
func (r RelOp) String() string {
	switch r {
	case LessEq:
		return "<="
	case GreaterEq:
		return ">="
	case Equal:
		return "="
	default:
		return "?"
	}
}

// Variable is a single decision variable with its bounds and domain
type Variable struct {
	Name  string
	Lower float64
	Upper float64
	Type  VarType
}

// Term is one coefficient of a constraint row
type Term struct {
	Var   int
	Coeff float64
}

// Constraint is a single linear row: sum(Terms) Op RHS
type Constraint struct {
	Name  string
	Terms []Term
	Op    RelOp
	RHS   float64
}

// Model is a complete linear program in minimize form. The objective slice is
// indexed by variable; constant offsets are not represented because callers
// recompute reported objectives from the solution values.
type Model struct {
	Vars      []Variable
	Cons      []Constraint
	Objective []float64
}

// NumIntegerVars returns the number of integer and binary variables
func (m *Model) NumIntegerVars() int {
	n := 0
	for _, v := range m.Vars {
		if v.Type != Continuous {
			n++
		}
	}
	return n
}

// Status represents the outcome of a solve
type Status int

const (
	StatusUnknown Status = iota
	StatusOptimal
	StatusFeasible
	StatusInfeasible
	StatusUnbounded
	StatusTimedOut
	StatusCancelled
)

// String method for Status enum
func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "Optimal"
	case StatusFeasible:
		return "Feasible"
	case StatusInfeasible:
		return "Infeasible"
	case StatusUnbounded:
		return "Unbounded"
	case StatusTimedOut:
		return "TimedOut"
	case StatusCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// HasValues reports whether the solution carries usable variable values
func (s Status) HasValues() bool {
	return s == StatusOptimal || s == StatusFeasible
}

// Stats carries solve statistics for reporting and logging
type Stats struct {
	Nodes       int
	Relaxations int
	Elapsed     time.Duration
}

// Solution contains the raw results of solving a model. Infeasible, Unbounded,
// TimedOut and Cancelled are ordinary statuses, not errors: business constraint
// combinations can legitimately have no solution and callers must branch on
// Status. Values is nil unless Status.HasValues() or a timed-out search kept a
// best-known incumbent.
type Solution struct {
	Status    Status
	Values    []float64
	Objective float64
	GapBound  float64
	Stats     Stats
}

// Options are per-solve options passed to a backend
type Options struct {
	// TimeLimit bounds the solve wall time; zero means no limit beyond ctx
	TimeLimit time.Duration
	// IntTol is the integrality tolerance; values this close to an integer
	// are accepted as integral
	IntTol float64
	// Logger receives solve progress; nil disables logging
	Logger *zerolog.Logger
}

// Backend abstracts a concrete LP/MILP solver. Implementations must be safe
// for concurrent use and must not keep state between calls. A non-nil error
// signals a backend failure; expected outcomes are reported via Solution.Status.
type Backend interface {
	Solve(ctx context.Context, model *Model, opts Options) (Solution, error)
}
