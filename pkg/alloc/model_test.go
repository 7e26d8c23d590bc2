package alloc

import (
	"math"
	"testing"

	"github.com/openprocure/allocator/pkg/solver"
)

func TestBuildModel_VariableLayout(t *testing.T) {
	moqBid := testBid("BID_B", "ITEM_1", "SUP_B", "12", 50)
	moqBid.MinOrderQty = 10
	c := testCatalog(t,
		[]Item{testItem("ITEM_1", 100)},
		[]Bid{
			testBid("BID_A", "ITEM_1", "SUP_A", "10", 80),
			moqBid,
		},
	)
	cfg := testConfig().withDefaults()
	specs := []ConstraintSpec{{Kind: SingleSourcePerItem, Item: "ITEM_1"}}

	m, idx, err := buildModel(c, cfg, specs)
	if err != nil {
		t.Fatalf("buildModel failed: %v", err)
	}

	// Two quantity variables, one MOQ usage binary, two selection binaries.
	if len(m.Vars) != 5 {
		t.Fatalf("expected 5 variables, got %d", len(m.Vars))
	}
	if len(idx.qty) != 2 || len(idx.use) != 1 || len(idx.sel) != 2 {
		t.Errorf("index sizes qty=%d use=%d sel=%d, want 2/1/2", len(idx.qty), len(idx.use), len(idx.sel))
	}
	if m.NumIntegerVars() != 3 {
		t.Errorf("integer variables = %d, want 3 binaries", m.NumIntegerVars())
	}

	qa := m.Vars[idx.qty["BID_A"]]
	if qa.Lower != 0 || qa.Upper != 80 || qa.Type != solver.Continuous {
		t.Errorf("unexpected BID_A variable: %+v", qa)
	}
}

func TestBuildModel_ExclusionAndMandatoryBounds(t *testing.T) {
	c := testCatalog(t,
		[]Item{testItem("ITEM_1", 100)},
		[]Bid{
			testBid("BID_A", "ITEM_1", "SUP_A", "10", 80),
			testBid("BID_B", "ITEM_1", "SUP_B", "12", 50),
		},
	)
	cfg := testConfig().withDefaults()
	specs := []ConstraintSpec{
		{Kind: ExcludedBid, Bid: "BID_A"},
		{Kind: MandatoryBid, Bid: "BID_B", MinQty: 30},
	}

	m, idx, err := buildModel(c, cfg, specs)
	if err != nil {
		t.Fatalf("buildModel failed: %v", err)
	}
	if got := m.Vars[idx.qty["BID_A"]].Upper; got != 0 {
		t.Errorf("excluded bid upper bound = %v, want 0", got)
	}
	if got := m.Vars[idx.qty["BID_B"]].Lower; got != 30 {
		t.Errorf("mandatory bid lower bound = %v, want 30", got)
	}
}

func TestBuildModel_TieBreakStaysBelowTolerance(t *testing.T) {
	c := threeSupplierCatalog(t)
	cfg := testConfig().withDefaults()

	m, idx, err := buildModel(c, cfg, nil)
	if err != nil {
		t.Fatalf("buildModel failed: %v", err)
	}

	for _, bid := range c.Bids() {
		coeff := m.Objective[idx.qty[bid.ID]]
		price, _ := bid.UnitPrice.Float64()
		eps := math.Abs(coeff - price)
		if eps == 0 {
			t.Errorf("bid %s has no tie-breaking term", bid.ID)
		}
		// The perturbation over the whole demand must stay inside the
		// tolerance grid so it can never override a real price difference.
		if eps*c.TotalDemand() >= Tolerance {
			t.Errorf("bid %s tie-break term %v too large", bid.ID, eps)
		}
	}
}

func TestRoundTol(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{name: "exact", in: 10, want: 10},
		{name: "snaps_down", in: 10.0000004, want: 10},
		{name: "snaps_up", in: 9.9999996, want: 10},
		{name: "keeps_grid_values", in: 0.000002, want: 0.000002},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := roundTol(tt.in); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("roundTol(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestContentHash(t *testing.T) {
	c := threeSupplierCatalog(t)
	cfg := testConfig().withDefaults()

	specs := []ConstraintSpec{
		{Kind: SupplierCapacity, Supplier: "SUP_A", Capacity: 70},
		{Kind: ExcludedBid, Bid: "BID_B"},
	}
	reversed := []ConstraintSpec{specs[1], specs[0]}

	h1 := contentHash(c, cfg, specs)
	h2 := contentHash(c, cfg, reversed)
	if h1 != h2 {
		t.Error("hash must not depend on constraint order")
	}

	other := cfg
	other.AllowPartialFulfillment = true
	if contentHash(c, other, specs) == h1 {
		t.Error("hash must change with configuration")
	}

	c2 := testCatalog(t,
		[]Item{testItem("ITEM_1", 100), testItem("ITEM_2", 51)},
		[]Bid{
			testBid("BID_A", "ITEM_1", "SUP_A", "10", 80),
			testBid("BID_B", "ITEM_1", "SUP_B", "12", 50),
			testBid("BID_C", "ITEM_2", "SUP_C", "5", 50),
		},
	)
	if contentHash(c2, cfg, specs) == h1 {
		t.Error("hash must change with catalog content")
	}
}
