package alloc

import (
	"fmt"
	"math"

	"github.com/openprocure/allocator/pkg/solver"
)

// selKey identifies the binary selection variable for an (item, supplier)
// pair used by single-source and max-suppliers constraints
type selKey struct {
	item ItemID
	sup  SupplierID
}

// varIndex maps catalog entities to variable positions in the built model.
// It lives only for one run and carries the information the interpreter
// needs to map raw solution values back to bid-level awards.
type varIndex struct {
	qty   map[BidID]int
	use   map[BidID]int
	sel   map[selKey]int
	short map[ItemID]int
}

// buildModel assembles the solver-agnostic model for one run: decision
// variables, demand-satisfaction rows, constraint rows and an objective with
// deterministic tie-breaking terms. The inputs must already have passed
// validation; buildModel only fails on configuration problems.
func buildModel(c *Catalog, cfg Config, specs []ConstraintSpec) (*solver.Model, *varIndex, error) {
	switch cfg.ObjectiveMode {
	case MinimizeCost, MaximizeValue:
	default:
		return nil, nil, &ConfigurationError{Reason: "objective mode must be MinimizeCost or MaximizeValue"}
	}
	if cfg.ObjectiveMode == MaximizeValue {
		for _, bid := range c.bids {
			if bid.ValueScore == nil {
				return nil, nil, &ConfigurationError{
					Reason: fmt.Sprintf("maximize-value run requires a value score on every bid; bid %q has none", bid.ID),
				}
			}
		}
	}

	m := &solver.Model{}
	idx := &varIndex{
		qty:   make(map[BidID]int),
		use:   make(map[BidID]int),
		sel:   make(map[selKey]int),
		short: make(map[ItemID]int),
	}

	addVar := func(v solver.Variable) int {
		m.Vars = append(m.Vars, v)
		m.Objective = append(m.Objective, 0)
		return len(m.Vars) - 1
	}

	qtyType := solver.Continuous
	if cfg.IntegerLots {
		qtyType = solver.Integer
	}

	// Fold per-bid exclusions and mandatory lower bounds into the variable
	// bounds directly; conflict detection has already rejected
	// contradictory pairs.
	excluded := make(map[BidID]bool)
	mandatory := make(map[BidID]float64)
	for _, s := range specs {
		switch s.Kind {
		case ExcludedBid:
			excluded[s.Bid] = true
		case MandatoryBid:
			bid, _ := c.Bid(s.Bid)
			q := mandatoryQty(bid, s)
			if q > mandatory[s.Bid] {
				mandatory[s.Bid] = q
			}
		}
	}

	// Quantity variable per bid, in catalog order.
	for _, bid := range c.bids {
		lower := 0.0
		upper := roundTol(bid.MaxQty)
		if excluded[bid.ID] {
			upper = 0
		}
		if q, ok := mandatory[bid.ID]; ok {
			lower = roundTol(q)
		}
		idx.qty[bid.ID] = addVar(solver.Variable{
			Name:  "qty_" + string(bid.ID),
			Lower: lower,
			Upper: upper,
			Type:  qtyType,
		})
	}

	// Usage binary per bid with a minimum order quantity: awarding anything
	// at all means awarding at least the MOQ.
	for _, bid := range c.bids {
		if bid.MinOrderQty <= 0 || excluded[bid.ID] {
			continue
		}
		lower := 0.0
		if mandatory[bid.ID] > 0 {
			lower = 1
		}
		u := addVar(solver.Variable{Name: "use_" + string(bid.ID), Lower: lower, Upper: 1, Type: solver.Binary})
		idx.use[bid.ID] = u
		q := idx.qty[bid.ID]
		moq := roundTol(bid.MinOrderQty)
		max := roundTol(bid.MaxQty)
		m.Cons = append(m.Cons,
			solver.Constraint{
				Name:  "moq_upper_" + string(bid.ID),
				Terms: []solver.Term{{Var: q, Coeff: 1}, {Var: u, Coeff: -max}},
				Op:    solver.LessEq,
			},
			solver.Constraint{
				Name:  "moq_lower_" + string(bid.ID),
				Terms: []solver.Term{{Var: q, Coeff: 1}, {Var: u, Coeff: -moq}},
				Op:    solver.GreaterEq,
			},
		)
	}

	// Items that need selection binaries; value is the supplier cardinality
	// limit (1 for single sourcing).
	supplierLimit := make(map[ItemID]int)
	applyLimit := func(item ItemID, limit int) {
		if cur, ok := supplierLimit[item]; !ok || limit < cur {
			supplierLimit[item] = limit
		}
	}
	for _, s := range specs {
		var limit int
		switch s.Kind {
		case SingleSourcePerItem:
			limit = 1
		case MaxSuppliersPerItem:
			limit = s.Limit
		default:
			continue
		}
		if s.Item != "" {
			applyLimit(s.Item, limit)
			continue
		}
		for _, item := range c.items {
			applyLimit(item.ID, limit)
		}
	}

	for _, item := range c.items {
		limit, ok := supplierLimit[item.ID]
		if !ok {
			continue
		}
		var card []solver.Term
		for _, sup := range c.Suppliers() {
			bids := supplierBidsOn(c, item.ID, sup)
			if len(bids) == 0 {
				continue
			}
			s := addVar(solver.Variable{
				Name:  fmt.Sprintf("sel_%s_%s", item.ID, sup),
				Lower: 0,
				Upper: 1,
				Type:  solver.Binary,
			})
			idx.sel[selKey{item: item.ID, sup: sup}] = s
			card = append(card, solver.Term{Var: s, Coeff: 1})

			// Link each of the supplier's bids on this item to the
			// selection binary with a big-M bound.
			for _, bid := range bids {
				bigM := roundTol(math.Min(bid.MaxQty, item.Demand))
				m.Cons = append(m.Cons, solver.Constraint{
					Name:  "sel_link_" + string(bid.ID),
					Terms: []solver.Term{{Var: idx.qty[bid.ID], Coeff: 1}, {Var: s, Coeff: -bigM}},
					Op:    solver.LessEq,
				})
			}
		}
		if len(card) > 0 {
			m.Cons = append(m.Cons, solver.Constraint{
				Name:  fmt.Sprintf("suppliers_%s", item.ID),
				Terms: card,
				Op:    solver.LessEq,
				RHS:   float64(limit),
			})
		}
	}

	// Demand satisfaction per item: an equality, or an upper bound plus a
	// penalized shortfall variable when partial fulfillment is allowed.
	for _, item := range c.items {
		terms := make([]solver.Term, 0, len(c.byItem[item.ID])+1)
		for _, bi := range c.byItem[item.ID] {
			terms = append(terms, solver.Term{Var: idx.qty[c.bids[bi].ID], Coeff: 1})
		}
		demand := roundTol(item.Demand)
		if len(terms) == 0 && !cfg.AllowPartialFulfillment {
			// A bid-less item produces a row with no variables, which the
			// LP layer cannot represent. Run prechecks item coverage, so a
			// row skipped here is always the vacuous zero-demand case.
			continue
		}
		if cfg.AllowPartialFulfillment {
			sv := addVar(solver.Variable{
				Name:  "short_" + string(item.ID),
				Lower: 0,
				Upper: demand,
				Type:  solver.Continuous,
			})
			idx.short[item.ID] = sv
			terms = append(terms, solver.Term{Var: sv, Coeff: 1})
		}
		m.Cons = append(m.Cons, solver.Constraint{
			Name:  "demand_" + string(item.ID),
			Terms: terms,
			Op:    solver.Equal,
			RHS:   demand,
		})
	}

	// Remaining constraint kinds become plain rows.
	for _, s := range specs {
		switch s.Kind {
		case SupplierCapacity:
			var terms []solver.Term
			for _, bid := range c.BidsBySupplier(s.Supplier) {
				terms = append(terms, solver.Term{Var: idx.qty[bid.ID], Coeff: 1})
			}
			m.Cons = append(m.Cons, solver.Constraint{
				Name:  "capacity_" + string(s.Supplier),
				Terms: terms,
				Op:    solver.LessEq,
				RHS:   roundTol(s.Capacity),
			})
		case MinAwardShare, MaxAwardShare:
			bid, _ := c.Bid(s.Bid)
			item, _ := c.Item(bid.ItemID)
			op := solver.GreaterEq
			name := "min_share_"
			if s.Kind == MaxAwardShare {
				op = solver.LessEq
				name = "max_share_"
			}
			m.Cons = append(m.Cons, solver.Constraint{
				Name:  name + string(s.Bid),
				Terms: []solver.Term{{Var: idx.qty[s.Bid], Coeff: 1}},
				Op:    op,
				RHS:   roundTol(s.Fraction * item.Demand),
			})
		case SingleSourcePerItem, MaxSuppliersPerItem, ExcludedBid, MandatoryBid:
			// Handled above via binaries and variable bounds.
		}
	}

	buildObjective(c, cfg, m, idx)
	return m, idx, nil
}

// buildObjective fills in the primary objective (cost or negated value) and
// the deterministic tie-breaking terms. Coefficients are rounded to the
// tolerance grid first; the tie-breaking epsilons are sized from the catalog
// so they can never displace a strictly better primary optimum, only select
// among equal ones (lowest supplier identifier first, and fewer distinct
// suppliers where selection binaries exist).
func buildObjective(c *Catalog, cfg Config, m *solver.Model, idx *varIndex) {
	numSup := float64(len(c.suppliers))
	scale := c.TotalDemand() + 1
	tieEps := Tolerance / (10 * scale * (numSup + 1))
	selEps := tieEps * (numSup + 1) * (numSup + 1)

	for _, bid := range c.bids {
		var coeff float64
		if cfg.ObjectiveMode == MinimizeCost {
			coeff = roundTol(bid.UnitPrice.InexactFloat64())
		} else {
			coeff = -roundTol(bid.ValueScore.InexactFloat64())
		}
		ord := float64(c.supplierOrdinal(bid.SupplierID))
		m.Objective[idx.qty[bid.ID]] = coeff + tieEps*(ord+1)
	}
	for key, v := range idx.sel {
		ord := float64(c.supplierOrdinal(key.sup))
		m.Objective[v] = selEps + tieEps*(ord+1)
	}
	penalty := cfg.UnmetDemandPenalty
	for _, v := range idx.short {
		m.Objective[v] = penalty
	}
}

// supplierBidsOn returns one supplier's bids on one item, in catalog order
func supplierBidsOn(c *Catalog, item ItemID, sup SupplierID) []Bid {
	var out []Bid
	for _, bi := range c.byItem[item] {
		if c.bids[bi].SupplierID == sup {
			out = append(out, c.bids[bi])
		}
	}
	return out
}

// roundTol rounds a coefficient to the fixed tolerance grid before it is
// submitted to the solver, avoiding floating-point infeasibility
// false-negatives from ingested data
func roundTol(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return v
	}
	return math.Round(v/Tolerance) * Tolerance
}
