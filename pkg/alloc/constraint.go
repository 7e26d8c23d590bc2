package alloc

import (
	"fmt"
	"sort"
)

// ConstraintKind enumerates the closed set of supported constraint variants.
// The set is deliberately closed (a tagged variant, not open dispatch) so the
// model builder can match exhaustively.
type ConstraintKind int

const (
	// SupplierCapacity bounds the total quantity awarded to one supplier
	// across all items
	SupplierCapacity ConstraintKind = iota + 1
	// MinAwardShare forces a bid to receive at least a fraction of its
	// item's demand
	MinAwardShare
	// MaxAwardShare caps a bid at a fraction of its item's demand
	MaxAwardShare
	// SingleSourcePerItem allows at most one supplier to be awarded per item
	SingleSourcePerItem
	// MaxSuppliersPerItem caps the number of distinct suppliers awarded per
	// item
	MaxSuppliersPerItem
	// ExcludedBid forces a bid's award to zero
	ExcludedBid
	// MandatoryBid forces a bid to receive a positive award
	MandatoryBid
)

// String method for ConstraintKind enum
func (k ConstraintKind) String() string {
	switch k {
	case SupplierCapacity:
		return "SupplierCapacity"
	case MinAwardShare:
		return "MinAwardShare"
	case MaxAwardShare:
		return "MaxAwardShare"
	case SingleSourcePerItem:
		return "SingleSourcePerItem"
	case MaxSuppliersPerItem:
		return "MaxSuppliersPerItem"
	case ExcludedBid:
		return "ExcludedBid"
	case MandatoryBid:
		return "MandatoryBid"
	default:
		return "Unknown"
	}
}

// ConstraintSpec is one constraint selection for a run. Which fields apply
// depends on Kind; constraint sets are additive and order-independent.
type ConstraintSpec struct {
	Kind ConstraintKind

	// Supplier scopes SupplierCapacity
	Supplier SupplierID
	// Item scopes SingleSourcePerItem and MaxSuppliersPerItem; empty means
	// every item
	Item ItemID
	// Bid scopes MinAwardShare, MaxAwardShare, ExcludedBid and MandatoryBid
	Bid BidID

	// Fraction of item demand for the share kinds, in [0,1]
	Fraction float64
	// Capacity for SupplierCapacity
	Capacity float64
	// Limit for MaxSuppliersPerItem
	Limit int
	// MinQty for MandatoryBid; zero falls back to the bid's minimum order
	// quantity, or one unit when the bid has none
	MinQty float64
}

// validateSpecs checks every constraint specification against the catalog and
// then searches the set for contradictory pairs. All failures surface before
// model construction; a half-built model is never submitted to the solver.
func validateSpecs(c *Catalog, specs []ConstraintSpec) error {
	for _, s := range specs {
		if err := validateSpec(c, s); err != nil {
			return err
		}
	}
	return detectConflicts(c, specs)
}

func validateSpec(c *Catalog, s ConstraintSpec) error {
	switch s.Kind {
	case SupplierCapacity:
		if _, ok := c.supplierOrd[s.Supplier]; !ok {
			return &ConstraintError{Kind: s.Kind, Reason: fmt.Sprintf("unknown supplier %q", s.Supplier)}
		}
		if s.Capacity < 0 {
			return &ConstraintError{Kind: s.Kind, Reason: fmt.Sprintf("negative capacity %v", s.Capacity)}
		}
	case MinAwardShare, MaxAwardShare:
		if _, ok := c.Bid(s.Bid); !ok {
			return &ConstraintError{Kind: s.Kind, Reason: fmt.Sprintf("unknown bid %q", s.Bid)}
		}
		if s.Fraction < 0 || s.Fraction > 1 {
			return &ConstraintError{Kind: s.Kind, Reason: fmt.Sprintf("fraction %v outside [0,1]", s.Fraction)}
		}
	case SingleSourcePerItem:
		if err := checkItemScope(c, s); err != nil {
			return err
		}
	case MaxSuppliersPerItem:
		if err := checkItemScope(c, s); err != nil {
			return err
		}
		if s.Limit < 1 {
			return &ConstraintError{Kind: s.Kind, Reason: fmt.Sprintf("limit %d must be at least 1", s.Limit)}
		}
	case ExcludedBid:
		if _, ok := c.Bid(s.Bid); !ok {
			return &ConstraintError{Kind: s.Kind, Reason: fmt.Sprintf("unknown bid %q", s.Bid)}
		}
	case MandatoryBid:
		bid, ok := c.Bid(s.Bid)
		if !ok {
			return &ConstraintError{Kind: s.Kind, Reason: fmt.Sprintf("unknown bid %q", s.Bid)}
		}
		if s.MinQty < 0 {
			return &ConstraintError{Kind: s.Kind, Reason: fmt.Sprintf("negative minimum quantity %v", s.MinQty)}
		}
		if minQty := mandatoryQty(bid, s); minQty > bid.MaxQty {
			return &ConstraintError{
				Kind:   s.Kind,
				Reason: fmt.Sprintf("minimum quantity %v exceeds bid %q maximum %v", minQty, bid.ID, bid.MaxQty),
			}
		}
	default:
		return &ConstraintError{Kind: s.Kind, Reason: "unknown constraint kind"}
	}
	return nil
}

func checkItemScope(c *Catalog, s ConstraintSpec) error {
	if s.Item == "" {
		return nil
	}
	if _, ok := c.Item(s.Item); !ok {
		return &ConstraintError{Kind: s.Kind, Reason: fmt.Sprintf("unknown item %q", s.Item)}
	}
	return nil
}

// mandatoryQty resolves the lower bound a MandatoryBid constraint imposes
func mandatoryQty(bid Bid, s ConstraintSpec) float64 {
	if s.MinQty > 0 {
		return s.MinQty
	}
	if bid.MinOrderQty > 0 {
		return bid.MinOrderQty
	}
	return 1
}

// detectConflicts reports pairs of specifications whose combined scope forces
// an empty feasible region by construction
func detectConflicts(c *Catalog, specs []ConstraintSpec) error {
	for i, a := range specs {
		for _, b := range specs[i+1:] {
			if err := conflictPair(c, a, b); err != nil {
				return err
			}
		}
	}
	if err := conflictSingleSourceMandatory(c, specs); err != nil {
		return err
	}

	// Min-award shares on one item must not promise more than the whole
	// demand between them.
	shareByItem := make(map[ItemID]float64)
	firstShare := make(map[ItemID]ConstraintSpec)
	for _, s := range specs {
		if s.Kind != MinAwardShare {
			continue
		}
		bid, _ := c.Bid(s.Bid)
		shareByItem[bid.ItemID] += s.Fraction
		if _, ok := firstShare[bid.ItemID]; !ok {
			firstShare[bid.ItemID] = s
		} else if shareByItem[bid.ItemID] > 1+Tolerance {
			return &ConstraintConflictError{
				First:  firstShare[bid.ItemID],
				Second: s,
				Reason: fmt.Sprintf("minimum award shares for item %q sum to %v", bid.ItemID, shareByItem[bid.ItemID]),
			}
		}
	}
	return nil
}

func conflictPair(c *Catalog, a, b ConstraintSpec) error {
	// Mandatory and excluded on the same bid.
	if a.Kind == MandatoryBid && b.Kind == ExcludedBid || a.Kind == ExcludedBid && b.Kind == MandatoryBid {
		if a.Bid == b.Bid {
			return &ConstraintConflictError{
				First:  a,
				Second: b,
				Reason: fmt.Sprintf("bid %q is both mandatory and excluded", a.Bid),
			}
		}
	}

	// A positive minimum share on an excluded bid.
	if a.Kind == ExcludedBid && b.Kind == MinAwardShare || a.Kind == MinAwardShare && b.Kind == ExcludedBid {
		if a.Bid == b.Bid {
			share := a
			if share.Kind != MinAwardShare {
				share = b
			}
			if share.Fraction > Tolerance {
				return &ConstraintConflictError{
					First:  a,
					Second: b,
					Reason: fmt.Sprintf("bid %q is excluded but requires a minimum share of %v", a.Bid, share.Fraction),
				}
			}
		}
	}

	// Min share above a max share on the same bid.
	if a.Kind == MinAwardShare && b.Kind == MaxAwardShare || a.Kind == MaxAwardShare && b.Kind == MinAwardShare {
		if a.Bid == b.Bid {
			min, max := a, b
			if min.Kind != MinAwardShare {
				min, max = b, a
			}
			if min.Fraction > max.Fraction+Tolerance {
				return &ConstraintConflictError{
					First:  a,
					Second: b,
					Reason: fmt.Sprintf("bid %q minimum share %v exceeds maximum share %v", a.Bid, min.Fraction, max.Fraction),
				}
			}
		}
	}

	return nil
}

// conflictSingleSourceMandatory checks, across the whole set, for two
// mandatory bids from different suppliers on an item covered by a
// single-source constraint
func conflictSingleSourceMandatory(c *Catalog, specs []ConstraintSpec) error {
	var singles []ConstraintSpec
	for _, s := range specs {
		if s.Kind == SingleSourcePerItem {
			singles = append(singles, s)
		}
	}
	if len(singles) == 0 {
		return nil
	}

	type mand struct {
		spec ConstraintSpec
		bid  Bid
	}
	byItem := make(map[ItemID][]mand)
	for _, s := range specs {
		if s.Kind != MandatoryBid {
			continue
		}
		bid, _ := c.Bid(s.Bid)
		byItem[bid.ItemID] = append(byItem[bid.ItemID], mand{spec: s, bid: bid})
	}

	for _, single := range singles {
		for _, item := range itemKeys(byItem) {
			mands := byItem[item]
			if single.Item != "" && single.Item != item {
				continue
			}
			for i := 0; i < len(mands); i++ {
				for j := i + 1; j < len(mands); j++ {
					if mands[i].bid.SupplierID != mands[j].bid.SupplierID {
						return &ConstraintConflictError{
							First:  mands[i].spec,
							Second: mands[j].spec,
							Reason: fmt.Sprintf("item %q is single-sourced but bids %q and %q from different suppliers are both mandatory",
								item, mands[i].bid.ID, mands[j].bid.ID),
						}
					}
				}
			}
		}
	}
	return nil
}

// itemKeys returns the map's item IDs in ascending order so conflict
// reporting is deterministic
func itemKeys[V any](m map[ItemID]V) []ItemID {
	keys := make([]ItemID, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
