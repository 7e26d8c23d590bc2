package alloc

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/openprocure/allocator/pkg/solver"
)

// interpret converts raw solver values into an immutable allocation Result.
// It rounds integer-domain values within tolerance, clamps sub-tolerance dust
// to zero and recomputes all monetary totals exactly with decimal arithmetic.
func interpret(c *Catalog, cfg Config, m *solver.Model, idx *varIndex, sol solver.Solution) *Result {
	r := &Result{
		Status:   classify(c, cfg, idx, sol),
		GapBound: sol.GapBound,
		Stats:    sol.Stats,
	}
	if !r.Status.HasAllocation() {
		return r
	}

	values := cleanValues(m, sol.Values)

	awarded := make(map[ItemID]float64)
	supQty := make(map[SupplierID]float64)
	supSpend := make(map[SupplierID]decimal.Decimal)
	total := decimal.Zero

	for _, bid := range c.bids {
		q := values[idx.qty[bid.ID]]
		if q <= Tolerance {
			continue
		}
		qd := decimal.NewFromFloat(q)
		var cost decimal.Decimal
		if cfg.ObjectiveMode == MinimizeCost {
			cost = bid.UnitPrice.Mul(qd)
		} else {
			cost = bid.ValueScore.Mul(qd)
		}
		r.Awards = append(r.Awards, Award{
			BidID:      bid.ID,
			ItemID:     bid.ItemID,
			SupplierID: bid.SupplierID,
			Quantity:   q,
			Cost:       cost,
		})
		awarded[bid.ItemID] += q
		supQty[bid.SupplierID] += q
		supSpend[bid.SupplierID] = supSpend[bid.SupplierID].Add(cost)
		total = total.Add(cost)
	}
	r.Objective = total

	for _, item := range c.items {
		got := awarded[item.ID]
		unmet := item.Demand - got
		if unmet < Tolerance {
			unmet = 0
		}
		ratio := 1.0
		if item.Demand > 0 {
			ratio = got / item.Demand
			if ratio > 1 {
				ratio = 1
			}
		}
		r.Items = append(r.Items, ItemFulfillment{
			ItemID:  item.ID,
			Demand:  item.Demand,
			Awarded: got,
			Unmet:   unmet,
			Ratio:   ratio,
		})
		r.UnmetDemand += unmet
	}

	for _, sup := range c.suppliers {
		q, ok := supQty[sup]
		if !ok {
			continue
		}
		share := 0.0
		if total.IsPositive() {
			share, _ = supSpend[sup].Div(total).Float64()
		}
		r.Suppliers = append(r.Suppliers, SupplierTotal{
			SupplierID: sup,
			Quantity:   q,
			Spend:      supSpend[sup],
			SpendShare: share,
		})
	}
	r.SupplierCount = len(r.Suppliers)

	if cfg.ObjectiveMode == MinimizeCost {
		r.Savings = naiveBaseline(c).Sub(total)
	}
	return r
}

// classify maps the solver status onto the run-level status, folding in
// whether any demand went unmet
func classify(c *Catalog, cfg Config, idx *varIndex, sol solver.Solution) Status {
	switch sol.Status {
	case solver.StatusOptimal:
		if cfg.AllowPartialFulfillment && hasShortfall(idx, sol.Values) {
			return StatusOptimalWithUnmetDemand
		}
		return StatusOptimal
	case solver.StatusFeasible:
		return StatusFeasibleNotProven
	case solver.StatusInfeasible:
		return StatusInfeasible
	case solver.StatusUnbounded:
		return StatusUnbounded
	case solver.StatusTimedOut:
		return StatusTimedOut
	case solver.StatusCancelled:
		return StatusCancelled
	default:
		return StatusSolverError
	}
}

func hasShortfall(idx *varIndex, values []float64) bool {
	for _, v := range idx.short {
		if values[v] > Tolerance {
			return true
		}
	}
	return false
}

// cleanValues rounds integer-domain variables to exact integers when their
// value is within tolerance, and clamps everything into its bounds
func cleanValues(m *solver.Model, values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if m.Vars[i].Type != solver.Continuous {
			if r := math.Round(v); math.Abs(v-r) <= Tolerance*10 {
				v = r
			}
		}
		if math.Abs(v) <= Tolerance {
			v = 0
		}
		if v < m.Vars[i].Lower {
			v = m.Vars[i].Lower
		}
		if v > m.Vars[i].Upper {
			v = m.Vars[i].Upper
		}
		out[i] = v
	}
	return out
}

// naiveBaseline prices the plan a buyer would reach without optimization:
// each item sourced entirely from its cheapest bid, capacity ignored.
// The delta against the solved objective is the reported savings.
func naiveBaseline(c *Catalog) decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.items {
		bids := c.BidsOf(item.ID)
		if len(bids) == 0 {
			continue
		}
		best := bids[0].UnitPrice
		for _, bid := range bids[1:] {
			if bid.UnitPrice.LessThan(best) {
				best = bid.UnitPrice
			}
		}
		total = total.Add(best.Mul(decimal.NewFromFloat(item.Demand)))
	}
	return total
}
