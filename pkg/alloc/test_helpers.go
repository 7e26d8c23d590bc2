package alloc

import (
	"testing"

	"github.com/shopspring/decimal"
)

// testItem builds an item with the given demand
func testItem(id ItemID, demand float64) Item {
	return Item{ID: id, Demand: demand, UnitOfMeasure: "EA"}
}

// testBid builds a bid with no minimum order quantity or validity window
func testBid(id BidID, item ItemID, sup SupplierID, price string, maxQty float64) Bid {
	return Bid{
		ID:         id,
		ItemID:     item,
		SupplierID: sup,
		UnitPrice:  decimal.RequireFromString(price),
		MaxQty:     maxQty,
	}
}

// testCatalog loads a catalog and fails the test on validation errors
func testCatalog(t *testing.T, items []Item, bids []Bid) *Catalog {
	t.Helper()
	c, err := LoadCatalog(items, bids)
	if err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}
	return c
}

// testConfig returns a minimize-cost configuration with defaults suitable
// for fast tests
func testConfig() Config {
	return Config{ObjectiveMode: MinimizeCost}
}

// awardFor finds the award for a bid, returning zero quantity when the bid
// received nothing
func awardFor(r *Result, id BidID) Award {
	for _, a := range r.Awards {
		if a.BidID == id {
			return a
		}
	}
	return Award{BidID: id}
}

// fulfillmentFor finds the fulfillment record for an item
func fulfillmentFor(t *testing.T, r *Result, id ItemID) ItemFulfillment {
	t.Helper()
	for _, f := range r.Items {
		if f.ItemID == id {
			return f
		}
	}
	t.Fatalf("no fulfillment record for item %s", id)
	return ItemFulfillment{}
}

// approxEqual reports whether two quantities agree within the run tolerance
func approxEqual(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff <= Tolerance*10
}
