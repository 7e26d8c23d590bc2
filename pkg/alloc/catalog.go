package alloc

import (
	"fmt"
	"sort"
	"time"
)

// Catalog holds the validated, normalized bid and item data for one
// allocation run. Iteration order is deterministic (items by ID ascending,
// bids by item, supplier, bid ID) so that model construction, and therefore
// solver behavior and tie-breaking, is reproducible for identical input.
// A Catalog is immutable once loaded.
type Catalog struct {
	items     []Item
	bids      []Bid
	suppliers []SupplierID

	itemIdx     map[ItemID]int
	bidIdx      map[BidID]int
	byItem      map[ItemID][]int
	bySupplier  map[SupplierID][]int
	supplierOrd map[SupplierID]int
}

// LoadCatalog validates and indexes the given items and bids, using the
// current time as the reference for bid validity windows
func LoadCatalog(items []Item, bids []Bid) (*Catalog, error) {
	return LoadCatalogAt(time.Now(), items, bids)
}

// LoadCatalogAt is LoadCatalog with an explicit reference time for validity
// window checks
func LoadCatalogAt(ref time.Time, items []Item, bids []Bid) (*Catalog, error) {
	if len(items) == 0 {
		return nil, &ValidationError{Record: "items", Reason: "at least one item is required"}
	}

	c := &Catalog{
		items:       make([]Item, len(items)),
		bids:        make([]Bid, len(bids)),
		itemIdx:     make(map[ItemID]int, len(items)),
		bidIdx:      make(map[BidID]int, len(bids)),
		byItem:      make(map[ItemID][]int),
		bySupplier:  make(map[SupplierID][]int),
		supplierOrd: make(map[SupplierID]int),
	}
	copy(c.items, items)
	copy(c.bids, bids)

	sort.Slice(c.items, func(i, j int) bool { return c.items[i].ID < c.items[j].ID })
	sort.Slice(c.bids, func(i, j int) bool {
		a, b := c.bids[i], c.bids[j]
		if a.ItemID != b.ItemID {
			return a.ItemID < b.ItemID
		}
		if a.SupplierID != b.SupplierID {
			return a.SupplierID < b.SupplierID
		}
		return a.ID < b.ID
	})

	for i, item := range c.items {
		if item.ID == "" {
			return nil, &ValidationError{Record: "item", Reason: "empty item ID"}
		}
		if _, dup := c.itemIdx[item.ID]; dup {
			return nil, &ValidationError{Record: string(item.ID), Reason: "duplicate item ID"}
		}
		if item.Demand < 0 {
			return nil, &ValidationError{Record: string(item.ID), Reason: fmt.Sprintf("negative demand %v", item.Demand)}
		}
		c.itemIdx[item.ID] = i
	}

	for i, bid := range c.bids {
		if bid.ID == "" {
			return nil, &ValidationError{Record: "bid", Reason: "empty bid ID"}
		}
		if _, dup := c.bidIdx[bid.ID]; dup {
			return nil, &ValidationError{Record: string(bid.ID), Reason: "duplicate bid ID"}
		}
		if bid.SupplierID == "" {
			return nil, &ValidationError{Record: string(bid.ID), Reason: "empty supplier ID"}
		}
		if _, ok := c.itemIdx[bid.ItemID]; !ok {
			return nil, &ValidationError{Record: string(bid.ID), Reason: fmt.Sprintf("references unknown item %q", bid.ItemID)}
		}
		if bid.UnitPrice.IsNegative() {
			return nil, &ValidationError{Record: string(bid.ID), Reason: "negative unit price"}
		}
		if bid.MinOrderQty < 0 || bid.MinOrderQty > bid.MaxQty {
			return nil, &ValidationError{
				Record: string(bid.ID),
				Reason: fmt.Sprintf("order quantity bounds violated: 0 <= %v <= %v", bid.MinOrderQty, bid.MaxQty),
			}
		}
		if bid.ValidFrom != nil && ref.Before(*bid.ValidFrom) {
			return nil, &ValidationError{Record: string(bid.ID), Reason: fmt.Sprintf("not valid before %s", bid.ValidFrom.Format(time.RFC3339))}
		}
		if bid.ValidUntil != nil && ref.After(*bid.ValidUntil) {
			return nil, &ValidationError{Record: string(bid.ID), Reason: fmt.Sprintf("expired at %s", bid.ValidUntil.Format(time.RFC3339))}
		}

		c.bidIdx[bid.ID] = i
		c.byItem[bid.ItemID] = append(c.byItem[bid.ItemID], i)
		c.bySupplier[bid.SupplierID] = append(c.bySupplier[bid.SupplierID], i)
	}

	for sup := range c.bySupplier {
		c.suppliers = append(c.suppliers, sup)
	}
	sort.Slice(c.suppliers, func(i, j int) bool { return c.suppliers[i] < c.suppliers[j] })
	for ord, sup := range c.suppliers {
		c.supplierOrd[sup] = ord
	}

	return c, nil
}

// Items returns all items in deterministic order
func (c *Catalog) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Bids returns all bids in deterministic order
func (c *Catalog) Bids() []Bid {
	out := make([]Bid, len(c.bids))
	copy(out, c.bids)
	return out
}

// Suppliers returns all supplier IDs in ascending order
func (c *Catalog) Suppliers() []SupplierID {
	out := make([]SupplierID, len(c.suppliers))
	copy(out, c.suppliers)
	return out
}

// Item looks up an item by ID
func (c *Catalog) Item(id ItemID) (Item, bool) {
	i, ok := c.itemIdx[id]
	if !ok {
		return Item{}, false
	}
	return c.items[i], true
}

// Bid looks up a bid by ID
func (c *Catalog) Bid(id BidID) (Bid, bool) {
	i, ok := c.bidIdx[id]
	if !ok {
		return Bid{}, false
	}
	return c.bids[i], true
}

// BidsOf returns the bids for an item in deterministic order
func (c *Catalog) BidsOf(item ItemID) []Bid {
	idxs := c.byItem[item]
	out := make([]Bid, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, c.bids[i])
	}
	return out
}

// BidsBySupplier returns a supplier's bids in deterministic order
func (c *Catalog) BidsBySupplier(sup SupplierID) []Bid {
	idxs := c.bySupplier[sup]
	out := make([]Bid, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, c.bids[i])
	}
	return out
}

// ItemsOf returns the distinct items a supplier bids on, in ascending order
func (c *Catalog) ItemsOf(sup SupplierID) []ItemID {
	seen := make(map[ItemID]bool)
	var out []ItemID
	for _, i := range c.bySupplier[sup] {
		id := c.bids[i].ItemID
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// TotalDemand sums required quantity across all items
func (c *Catalog) TotalDemand() float64 {
	total := 0.0
	for _, item := range c.items {
		total += item.Demand
	}
	return total
}

// TotalCapacity sums the maximum available quantity across an item's bids
func (c *Catalog) TotalCapacity(item ItemID) float64 {
	total := 0.0
	for _, i := range c.byItem[item] {
		total += c.bids[i].MaxQty
	}
	return total
}

// supplierOrdinal returns the supplier's rank in ascending ID order; it
// drives the deterministic tie-breaking terms in the model objective
func (c *Catalog) supplierOrdinal(sup SupplierID) int {
	return c.supplierOrd[sup]
}
