package alloc

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"time"
)

// contentHash computes a stable digest of everything that influences a run's
// outcome: the catalog, the configuration and the constraint set. Cached
// results are keyed strictly on this hash so runs with different inputs can
// never share a result. Catalog iteration is already deterministic, so the
// encoding is too.
func contentHash(c *Catalog, cfg Config, specs []ConstraintSpec) string {
	h := sha256.New()

	for _, item := range c.items {
		fmt.Fprintf(h, "item|%s|%v|%s\n", item.ID, item.Demand, item.UnitOfMeasure)
	}
	for _, bid := range c.bids {
		fmt.Fprintf(h, "bid|%s|%s|%s|%s|%v|%v", bid.ID, bid.ItemID, bid.SupplierID,
			bid.UnitPrice.String(), bid.MinOrderQty, bid.MaxQty)
		if bid.ValueScore != nil {
			fmt.Fprintf(h, "|v=%s", bid.ValueScore.String())
		}
		writeWindow(h, bid.ValidFrom, bid.ValidUntil)
		fmt.Fprintln(h)
	}

	fmt.Fprintf(h, "cfg|%s|%v|%v|%v|%v\n", cfg.ObjectiveMode, cfg.AllowPartialFulfillment,
		cfg.UnmetDemandPenalty, cfg.TimeLimit, cfg.IntegerLots)

	// Constraint order is irrelevant to the model, but the hash must be
	// order-insensitive too, so encode the set in a canonical order.
	for _, s := range sortedSpecs(specs) {
		fmt.Fprintf(h, "spec|%d|%s|%s|%s|%v|%v|%d|%v\n", s.Kind, s.Supplier, s.Item, s.Bid,
			s.Fraction, s.Capacity, s.Limit, s.MinQty)
	}

	return hex.EncodeToString(h.Sum(nil))
}

func writeWindow(w io.Writer, from, until *time.Time) {
	if from != nil {
		fmt.Fprintf(w, "|from=%d", from.UnixNano())
	}
	if until != nil {
		fmt.Fprintf(w, "|until=%d", until.UnixNano())
	}
}

// sortedSpecs returns a canonically ordered copy of the constraint set
func sortedSpecs(specs []ConstraintSpec) []ConstraintSpec {
	out := make([]ConstraintSpec, len(specs))
	copy(out, specs)
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Supplier != b.Supplier {
			return a.Supplier < b.Supplier
		}
		if a.Item != b.Item {
			return a.Item < b.Item
		}
		if a.Bid != b.Bid {
			return a.Bid < b.Bid
		}
		if a.Fraction != b.Fraction {
			return a.Fraction < b.Fraction
		}
		if a.Capacity != b.Capacity {
			return a.Capacity < b.Capacity
		}
		if a.Limit != b.Limit {
			return a.Limit < b.Limit
		}
		return a.MinQty < b.MinQty
	})
	return out
}
