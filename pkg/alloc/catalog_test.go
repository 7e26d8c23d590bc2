package alloc

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestLoadCatalog_DeterministicOrder(t *testing.T) {
	// Load with deliberately shuffled input; iteration must come back
	// sorted regardless.
	items := []Item{testItem("WIDGET_B", 50), testItem("WIDGET_A", 100)}
	bids := []Bid{
		testBid("BID_3", "WIDGET_B", "SUP_C", "5", 50),
		testBid("BID_2", "WIDGET_A", "SUP_B", "12", 50),
		testBid("BID_1", "WIDGET_A", "SUP_A", "10", 80),
	}

	c := testCatalog(t, items, bids)

	gotItems := c.Items()
	if gotItems[0].ID != "WIDGET_A" || gotItems[1].ID != "WIDGET_B" {
		t.Errorf("items not sorted by ID: %v, %v", gotItems[0].ID, gotItems[1].ID)
	}

	gotBids := c.BidsOf("WIDGET_A")
	if len(gotBids) != 2 {
		t.Fatalf("expected 2 bids for WIDGET_A, got %d", len(gotBids))
	}
	if gotBids[0].ID != "BID_1" || gotBids[1].ID != "BID_2" {
		t.Errorf("bids not sorted: %v, %v", gotBids[0].ID, gotBids[1].ID)
	}

	sups := c.Suppliers()
	if len(sups) != 3 || sups[0] != "SUP_A" || sups[2] != "SUP_C" {
		t.Errorf("unexpected supplier order: %v", sups)
	}

	if got := c.ItemsOf("SUP_A"); len(got) != 1 || got[0] != "WIDGET_A" {
		t.Errorf("unexpected ItemsOf(SUP_A): %v", got)
	}
}

func TestLoadCatalog_Validation(t *testing.T) {
	validItems := []Item{testItem("ITEM_1", 100)}

	tests := []struct {
		name  string
		items []Item
		bids  []Bid
	}{
		{
			name:  "no_items",
			items: nil,
			bids:  nil,
		},
		{
			name:  "duplicate_item",
			items: []Item{testItem("ITEM_1", 100), testItem("ITEM_1", 50)},
		},
		{
			name:  "negative_demand",
			items: []Item{testItem("ITEM_1", -5)},
		},
		{
			name:  "unknown_item_reference",
			items: validItems,
			bids:  []Bid{testBid("BID_1", "NO_SUCH_ITEM", "SUP_A", "10", 80)},
		},
		{
			name:  "duplicate_bid",
			items: validItems,
			bids: []Bid{
				testBid("BID_1", "ITEM_1", "SUP_A", "10", 80),
				testBid("BID_1", "ITEM_1", "SUP_B", "12", 50),
			},
		},
		{
			name:  "negative_price",
			items: validItems,
			bids:  []Bid{testBid("BID_1", "ITEM_1", "SUP_A", "-1", 80)},
		},
		{
			name:  "min_above_max",
			items: validItems,
			bids: []Bid{{
				ID: "BID_1", ItemID: "ITEM_1", SupplierID: "SUP_A",
				UnitPrice: decimal.NewFromInt(10), MinOrderQty: 90, MaxQty: 80,
			}},
		},
		{
			name:  "empty_supplier",
			items: validItems,
			bids:  []Bid{testBid("BID_1", "ITEM_1", "", "10", 80)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCatalog(tt.items, tt.bids)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("expected *ValidationError, got %T: %v", err, err)
			}
		})
	}
}

func TestLoadCatalogAt_ValidityWindow(t *testing.T) {
	ref := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	past := ref.Add(-30 * 24 * time.Hour)
	future := ref.Add(30 * 24 * time.Hour)

	items := []Item{testItem("ITEM_1", 100)}

	valid := testBid("BID_OK", "ITEM_1", "SUP_A", "10", 80)
	valid.ValidFrom = &past
	valid.ValidUntil = &future
	if _, err := LoadCatalogAt(ref, items, []Bid{valid}); err != nil {
		t.Fatalf("bid inside its window rejected: %v", err)
	}

	expired := testBid("BID_OLD", "ITEM_1", "SUP_A", "10", 80)
	expired.ValidUntil = &past
	if _, err := LoadCatalogAt(ref, items, []Bid{expired}); err == nil {
		t.Error("expected expired bid to be rejected")
	}

	early := testBid("BID_SOON", "ITEM_1", "SUP_A", "10", 80)
	early.ValidFrom = &future
	if _, err := LoadCatalogAt(ref, items, []Bid{early}); err == nil {
		t.Error("expected not-yet-valid bid to be rejected")
	}
}

func TestCatalog_Totals(t *testing.T) {
	c := testCatalog(t,
		[]Item{testItem("ITEM_1", 100), testItem("ITEM_2", 50)},
		[]Bid{
			testBid("BID_1", "ITEM_1", "SUP_A", "10", 80),
			testBid("BID_2", "ITEM_1", "SUP_B", "12", 50),
			testBid("BID_3", "ITEM_2", "SUP_C", "5", 50),
		},
	)

	if got := c.TotalDemand(); got != 150 {
		t.Errorf("TotalDemand = %v, want 150", got)
	}
	if got := c.TotalCapacity("ITEM_1"); got != 130 {
		t.Errorf("TotalCapacity(ITEM_1) = %v, want 130", got)
	}
}
