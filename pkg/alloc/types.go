// Package alloc implements the supplier bid allocation engine: it normalizes
// bid data into a catalog, translates business constraints into a linear
// model, solves the model through a pluggable backend and interprets the raw
// solution into an allocation report.
package alloc

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/openprocure/allocator/pkg/solver"
)

// ItemID represents a unique demand line identifier
type ItemID string

// SupplierID represents a unique supplier identifier
type SupplierID string

// BidID represents a unique bid identifier
type BidID string

// Item represents a single line of demand to be fulfilled by one or more bids
type Item struct {
	ID            ItemID
	Demand        float64
	UnitOfMeasure string
}

// Bid represents a supplier's offer to fulfill some quantity of an item at a
// unit price. ValueScore is optional and only consulted in maximize-value
// runs; ValidFrom/ValidUntil bound the bid's validity window when set.
type Bid struct {
	ID          BidID
	ItemID      ItemID
	SupplierID  SupplierID
	UnitPrice   decimal.Decimal
	ValueScore  *decimal.Decimal
	MinOrderQty float64
	MaxQty      float64
	ValidFrom   *time.Time
	ValidUntil  *time.Time
}

// ObjectiveMode selects the optimization objective for a run
type ObjectiveMode int

const (
	// ModeUnspecified is invalid; a run must pick exactly one objective
	ModeUnspecified ObjectiveMode = iota
	MinimizeCost
	MaximizeValue
)

// String method for ObjectiveMode enum
func (m ObjectiveMode) String() string {
	switch m {
	case MinimizeCost:
		return "MinimizeCost"
	case MaximizeValue:
		return "MaximizeValue"
	default:
		return "Unspecified"
	}
}

const (
	// Tolerance is the single numeric tolerance used across a run: objective
	// coefficients are rounded to this grid before submission and solution
	// values within it of an integer are rounded when interpreting results.
	Tolerance = 1e-6

	// DefaultUnmetDemandPenalty is the per-unit shortfall penalty applied
	// when partial fulfillment is allowed. It is large enough that full
	// allocation is always preferred whenever it is feasible.
	DefaultUnmetDemandPenalty = 1e6

	// DefaultTimeLimit bounds the solve step when the caller does not set one
	DefaultTimeLimit = 30 * time.Second
)

// Config holds the run-level configuration for an allocation
type Config struct {
	// ObjectiveMode must be MinimizeCost or MaximizeValue
	ObjectiveMode ObjectiveMode
	// AllowPartialFulfillment relaxes demand satisfaction from an equality
	// to an upper bound, charging UnmetDemandPenalty per unfulfilled unit
	AllowPartialFulfillment bool
	// UnmetDemandPenalty is the objective penalty per unit of unmet demand;
	// zero selects DefaultUnmetDemandPenalty
	UnmetDemandPenalty float64
	// TimeLimit bounds the solve wall time; zero selects DefaultTimeLimit
	TimeLimit time.Duration
	// IntegerLots forces all awarded quantities to whole numbers
	IntegerLots bool
	// EnableCache caches results per engine, keyed on a content hash of the
	// catalog, constraint set and configuration
	EnableCache bool
}

// withDefaults returns a copy of the config with zero values filled in
func (c Config) withDefaults() Config {
	if c.UnmetDemandPenalty == 0 {
		c.UnmetDemandPenalty = DefaultUnmetDemandPenalty
	}
	if c.TimeLimit == 0 {
		c.TimeLimit = DefaultTimeLimit
	}
	return c
}

// Status classifies the final outcome of an allocation run
type Status int

const (
	StatusUnknown Status = iota
	// StatusOptimal means a proven-optimal allocation with all demand met
	StatusOptimal
	// StatusOptimalWithUnmetDemand means proven optimal, but some demand is
	// unfulfilled under partial fulfillment
	StatusOptimalWithUnmetDemand
	// StatusFeasibleNotProven means the time limit stopped the search with a
	// feasible allocation whose optimality is not proven
	StatusFeasibleNotProven
	StatusInfeasible
	StatusUnbounded
	// StatusTimedOut means the time limit expired before any feasible
	// allocation was found
	StatusTimedOut
	StatusCancelled
	// StatusSolverError mirrors a backend failure for callers that persist
	// or display outcomes; Engine.Run additionally returns the typed error
	StatusSolverError
)

// String method for Status enum
func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "Optimal"
	case StatusOptimalWithUnmetDemand:
		return "OptimalWithUnmetDemand"
	case StatusFeasibleNotProven:
		return "FeasibleNotProven"
	case StatusInfeasible:
		return "Infeasible"
	case StatusUnbounded:
		return "Unbounded"
	case StatusTimedOut:
		return "TimedOut"
	case StatusCancelled:
		return "Cancelled"
	case StatusSolverError:
		return "SolverError"
	default:
		return "Unknown"
	}
}

// HasAllocation reports whether the status carries awarded quantities
func (s Status) HasAllocation() bool {
	switch s {
	case StatusOptimal, StatusOptimalWithUnmetDemand, StatusFeasibleNotProven:
		return true
	default:
		return false
	}
}

// Award is one bid-level line of the allocation: the quantity awarded to a
// bid and its exact extended cost
type Award struct {
	BidID      BidID
	ItemID     ItemID
	SupplierID SupplierID
	Quantity   float64
	Cost       decimal.Decimal
}

// ItemFulfillment summarizes how one item's demand was covered
type ItemFulfillment struct {
	ItemID   ItemID
	Demand   float64
	Awarded  float64
	Unmet    float64
	Ratio    float64
}

// SupplierTotal aggregates the allocation per supplier
type SupplierTotal struct {
	SupplierID SupplierID
	Quantity   float64
	Spend      decimal.Decimal
	// SpendShare is this supplier's fraction of the total awarded spend
	SpendShare float64
}

// Result is the immutable outcome of one allocation run. Objective is
// recomputed exactly from awarded quantities and decimal unit prices, so
// solver-internal tie-breaking terms never appear in reported totals.
type Result struct {
	RunID         string
	Status        Status
	Objective     decimal.Decimal
	Awards        []Award
	Items         []ItemFulfillment
	Suppliers     []SupplierTotal
	SupplierCount int
	UnmetDemand   float64
	// Savings is the objective improvement over the naive baseline of
	// sourcing each item entirely from its cheapest bid (cost mode only)
	Savings  decimal.Decimal
	GapBound float64
	Stats    solver.Stats
	Elapsed  time.Duration
}
