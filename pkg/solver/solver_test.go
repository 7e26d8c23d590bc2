package solver

import (
	"context"
	"math"
	"testing"
	"time"
)

// knapsackModel is a small pure-LP transport model: two sources with
// capacities 80 and 50 covering a demand of 100 at prices 10 and 12.
func knapsackModel() *Model {
	return &Model{
		Vars: []Variable{
			{Name: "x_a", Lower: 0, Upper: 80, Type: Continuous},
			{Name: "x_b", Lower: 0, Upper: 50, Type: Continuous},
		},
		Cons: []Constraint{
			{Name: "demand", Terms: []Term{{Var: 0, Coeff: 1}, {Var: 1, Coeff: 1}}, Op: Equal, RHS: 100},
		},
		Objective: []float64{10, 12},
	}
}

func TestBranchBound_SolveLP(t *testing.T) {
	sol, err := NewBackend().Solve(context.Background(), knapsackModel(), Options{})
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if sol.Status != StatusOptimal {
		t.Fatalf("expected Optimal, got %s", sol.Status)
	}
	if math.Abs(sol.Values[0]-80) > 1e-6 || math.Abs(sol.Values[1]-20) > 1e-6 {
		t.Errorf("values = %v, want [80 20]", sol.Values)
	}
	if math.Abs(sol.Objective-1040) > 1e-6 {
		t.Errorf("objective = %v, want 1040", sol.Objective)
	}
	if sol.Stats.Relaxations != 1 {
		t.Errorf("relaxations = %d, want 1", sol.Stats.Relaxations)
	}
}

func TestBranchBound_Infeasible(t *testing.T) {
	m := knapsackModel()
	m.Cons[0].RHS = 200 // beyond total capacity

	sol, err := NewBackend().Solve(context.Background(), m, Options{})
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if sol.Status != StatusInfeasible {
		t.Errorf("expected Infeasible, got %s", sol.Status)
	}
	if sol.Values != nil {
		t.Errorf("infeasible solution carries values: %v", sol.Values)
	}
}

func TestBranchBound_IntegerSolve(t *testing.T) {
	// min -x - 1.1y subject to 2x + 3y <= 12, x,y integer in [0,4].
	// The LP relaxation sits at the fractional vertex (4, 4/3); branching
	// must find the integer optimum (3, 2).
	m := &Model{
		Vars: []Variable{
			{Name: "x", Lower: 0, Upper: 4, Type: Integer},
			{Name: "y", Lower: 0, Upper: 4, Type: Integer},
		},
		Cons: []Constraint{
			{Name: "cap", Terms: []Term{{Var: 0, Coeff: 2}, {Var: 1, Coeff: 3}}, Op: LessEq, RHS: 12},
		},
		Objective: []float64{-1, -1.1},
	}

	sol, err := NewBackend().Solve(context.Background(), m, Options{})
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if sol.Status != StatusOptimal {
		t.Fatalf("expected Optimal, got %s", sol.Status)
	}
	for i, v := range sol.Values {
		if math.Abs(v-math.Round(v)) > 1e-6 {
			t.Errorf("variable %d value %v is not integral", i, v)
		}
	}
	// Best integer points: (4,1) gives -5.1, (3,2) gives -5.2, (0,4) gives -4.4.
	if math.Abs(sol.Values[0]-3) > 1e-6 || math.Abs(sol.Values[1]-2) > 1e-6 {
		t.Errorf("values = %v, want [3 2]", sol.Values)
	}
	if math.Abs(sol.Objective-(-5.2)) > 1e-6 {
		t.Errorf("objective = %v, want -5.2", sol.Objective)
	}
}

func TestBranchBound_BinaryLink(t *testing.T) {
	// A big-M selection model: y=1 must be paid for (cost 5) before x may
	// be positive. Covering the demand of 10 at price 1 plus the fixed 5
	// beats leaving demand to the expensive fallback at price 3.
	m := &Model{
		Vars: []Variable{
			{Name: "x", Lower: 0, Upper: 10, Type: Continuous},
			{Name: "fallback", Lower: 0, Upper: 10, Type: Continuous},
			{Name: "y", Lower: 0, Upper: 1, Type: Binary},
		},
		Cons: []Constraint{
			{Name: "demand", Terms: []Term{{Var: 0, Coeff: 1}, {Var: 1, Coeff: 1}}, Op: Equal, RHS: 10},
			{Name: "link", Terms: []Term{{Var: 0, Coeff: 1}, {Var: 2, Coeff: -10}}, Op: LessEq},
		},
		Objective: []float64{1, 3, 5},
	}

	sol, err := NewBackend().Solve(context.Background(), m, Options{})
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if sol.Status != StatusOptimal {
		t.Fatalf("expected Optimal, got %s", sol.Status)
	}
	if math.Abs(sol.Values[2]-1) > 1e-6 {
		t.Errorf("selection binary = %v, want 1", sol.Values[2])
	}
	if math.Abs(sol.Objective-15) > 1e-6 {
		t.Errorf("objective = %v, want 15", sol.Objective)
	}
}

func TestBranchBound_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sol, err := NewBackend().Solve(ctx, knapsackModel(), Options{})
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if sol.Status != StatusCancelled {
		t.Errorf("expected Cancelled, got %s", sol.Status)
	}
}

func TestBranchBound_TimedOut(t *testing.T) {
	sol, err := NewBackend().Solve(context.Background(), knapsackModel(), Options{TimeLimit: time.Nanosecond})
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if sol.Status != StatusTimedOut {
		t.Errorf("expected TimedOut, got %s", sol.Status)
	}
}

func TestBranchBound_EmptyModel(t *testing.T) {
	tests := []struct {
		name string
		cons []Constraint
		want Status
	}{
		{
			name: "trivially_feasible",
			cons: []Constraint{{Name: "ok", Op: LessEq, RHS: 5}},
			want: StatusOptimal,
		},
		{
			name: "constant_equality_violated",
			cons: []Constraint{{Name: "demand", Op: Equal, RHS: 100}},
			want: StatusInfeasible,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Model{Cons: tt.cons}
			sol, err := NewBackend().Solve(context.Background(), m, Options{})
			if err != nil {
				t.Fatalf("Solve failed: %v", err)
			}
			if sol.Status != tt.want {
				t.Errorf("status = %s, want %s", sol.Status, tt.want)
			}
		})
	}
}

func TestBranchBound_DegenerateSystemReturnsError(t *testing.T) {
	// A constraint row with no variable terms gives the standard form more
	// equality rows than columns. gonum panics on such systems; the backend
	// must surface an error instead.
	m := &Model{
		Vars:      []Variable{{Name: "x", Lower: 0, Upper: 1, Type: Continuous}},
		Objective: []float64{1},
		Cons: []Constraint{
			{Name: "half", Terms: []Term{{Var: 0, Coeff: 1}}, Op: Equal, RHS: 0.5},
			{Name: "empty", Op: Equal, RHS: 1},
		},
	}
	_, err := NewBackend().Solve(context.Background(), m, Options{})
	if err == nil {
		t.Fatal("expected an error for a degenerate constraint system")
	}
}

func TestBranchBound_InfiniteBoundRejected(t *testing.T) {
	m := &Model{
		Vars:      []Variable{{Name: "x", Lower: 0, Upper: math.Inf(1), Type: Continuous}},
		Objective: []float64{-1},
	}
	_, err := NewBackend().Solve(context.Background(), m, Options{})
	if err == nil {
		t.Fatal("expected an error for a variable without a finite upper bound")
	}
}
