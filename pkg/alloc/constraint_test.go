package alloc

import (
	"errors"
	"testing"
)

func conflictTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	return testCatalog(t,
		[]Item{testItem("ITEM_1", 100), testItem("ITEM_2", 50)},
		[]Bid{
			testBid("BID_A1", "ITEM_1", "SUP_A", "10", 100),
			testBid("BID_B1", "ITEM_1", "SUP_B", "12", 100),
			testBid("BID_C2", "ITEM_2", "SUP_C", "5", 50),
		},
	)
}

func TestValidateSpecs_InvalidSpecs(t *testing.T) {
	c := conflictTestCatalog(t)

	tests := []struct {
		name string
		spec ConstraintSpec
	}{
		{
			name: "unknown_supplier",
			spec: ConstraintSpec{Kind: SupplierCapacity, Supplier: "NOBODY", Capacity: 10},
		},
		{
			name: "negative_capacity",
			spec: ConstraintSpec{Kind: SupplierCapacity, Supplier: "SUP_A", Capacity: -1},
		},
		{
			name: "fraction_above_one",
			spec: ConstraintSpec{Kind: MaxAwardShare, Bid: "BID_A1", Fraction: 1.5},
		},
		{
			name: "fraction_negative",
			spec: ConstraintSpec{Kind: MinAwardShare, Bid: "BID_A1", Fraction: -0.1},
		},
		{
			name: "unknown_bid",
			spec: ConstraintSpec{Kind: ExcludedBid, Bid: "NO_SUCH_BID"},
		},
		{
			name: "unknown_item_scope",
			spec: ConstraintSpec{Kind: SingleSourcePerItem, Item: "NO_SUCH_ITEM"},
		},
		{
			name: "supplier_limit_zero",
			spec: ConstraintSpec{Kind: MaxSuppliersPerItem, Item: "ITEM_1", Limit: 0},
		},
		{
			name: "mandatory_above_bid_max",
			spec: ConstraintSpec{Kind: MandatoryBid, Bid: "BID_C2", MinQty: 500},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateSpecs(c, []ConstraintSpec{tt.spec})
			if err == nil {
				t.Fatal("expected constraint error, got nil")
			}
			var cerr *ConstraintError
			if !errors.As(err, &cerr) {
				t.Errorf("expected *ConstraintError, got %T: %v", err, err)
			}
		})
	}
}

func TestValidateSpecs_Conflicts(t *testing.T) {
	c := conflictTestCatalog(t)

	tests := []struct {
		name  string
		specs []ConstraintSpec
	}{
		{
			name: "mandatory_and_excluded_same_bid",
			specs: []ConstraintSpec{
				{Kind: MandatoryBid, Bid: "BID_A1"},
				{Kind: ExcludedBid, Bid: "BID_A1"},
			},
		},
		{
			name: "excluded_then_mandatory",
			specs: []ConstraintSpec{
				{Kind: ExcludedBid, Bid: "BID_A1"},
				{Kind: MandatoryBid, Bid: "BID_A1"},
			},
		},
		{
			name: "excluded_bid_with_min_share",
			specs: []ConstraintSpec{
				{Kind: ExcludedBid, Bid: "BID_A1"},
				{Kind: MinAwardShare, Bid: "BID_A1", Fraction: 0.3},
			},
		},
		{
			name: "min_share_above_max_share",
			specs: []ConstraintSpec{
				{Kind: MinAwardShare, Bid: "BID_A1", Fraction: 0.8},
				{Kind: MaxAwardShare, Bid: "BID_A1", Fraction: 0.5},
			},
		},
		{
			name: "min_shares_sum_above_one",
			specs: []ConstraintSpec{
				{Kind: MinAwardShare, Bid: "BID_A1", Fraction: 0.7},
				{Kind: MinAwardShare, Bid: "BID_B1", Fraction: 0.6},
			},
		},
		{
			name: "single_source_with_two_mandatory_suppliers",
			specs: []ConstraintSpec{
				{Kind: SingleSourcePerItem, Item: "ITEM_1"},
				{Kind: MandatoryBid, Bid: "BID_A1"},
				{Kind: MandatoryBid, Bid: "BID_B1"},
			},
		},
		{
			name: "global_single_source_with_two_mandatory_suppliers",
			specs: []ConstraintSpec{
				{Kind: SingleSourcePerItem},
				{Kind: MandatoryBid, Bid: "BID_A1"},
				{Kind: MandatoryBid, Bid: "BID_B1"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateSpecs(c, tt.specs)
			if err == nil {
				t.Fatal("expected conflict error, got nil")
			}
			var conflict *ConstraintConflictError
			if !errors.As(err, &conflict) {
				t.Errorf("expected *ConstraintConflictError, got %T: %v", err, err)
			}
		})
	}
}

func TestValidateSpecs_CompatibleSetPasses(t *testing.T) {
	c := conflictTestCatalog(t)

	specs := []ConstraintSpec{
		{Kind: SupplierCapacity, Supplier: "SUP_A", Capacity: 60},
		{Kind: MinAwardShare, Bid: "BID_B1", Fraction: 0.2},
		{Kind: MaxAwardShare, Bid: "BID_B1", Fraction: 0.6},
		{Kind: MaxSuppliersPerItem, Item: "ITEM_1", Limit: 2},
		{Kind: MandatoryBid, Bid: "BID_C2", MinQty: 10},
	}
	if err := validateSpecs(c, specs); err != nil {
		t.Errorf("compatible constraint set rejected: %v", err)
	}
}
