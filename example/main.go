package main

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/openprocure/allocator/pkg/alloc"
)

func main() {
	ctx := context.Background()

	// A small sourcing event: two items, three competing suppliers
	items := []alloc.Item{
		{ID: "VALVE_ASSY", Demand: 100, UnitOfMeasure: "ea"},
		{ID: "SEAL_KIT", Demand: 50, UnitOfMeasure: "ea"},
	}
	bids := []alloc.Bid{
		{ID: "BID_ACME_VALVE", ItemID: "VALVE_ASSY", SupplierID: "ACME", UnitPrice: decimal.RequireFromString("10.00"), MaxQty: 80},
		{ID: "BID_BOLT_VALVE", ItemID: "VALVE_ASSY", SupplierID: "BOLTCO", UnitPrice: decimal.RequireFromString("12.50"), MaxQty: 100},
		{ID: "BID_ACME_SEAL", ItemID: "SEAL_KIT", SupplierID: "ACME", UnitPrice: decimal.RequireFromString("4.75"), MaxQty: 50},
		{ID: "BID_CRANE_SEAL", ItemID: "SEAL_KIT", SupplierID: "CRANE", UnitPrice: decimal.RequireFromString("4.20"), MaxQty: 30},
	}

	catalog, err := alloc.LoadCatalog(items, bids)
	if err != nil {
		fmt.Printf("catalog rejected: %v\n", err)
		return
	}

	// Cap ACME's overall volume and keep BOLTCO below 70% of valve demand
	specs := []alloc.ConstraintSpec{
		{Kind: alloc.SupplierCapacity, Supplier: "ACME", Capacity: 110},
		{Kind: alloc.MaxAwardShare, Bid: "BID_BOLT_VALVE", Fraction: 0.7},
	}

	engine := alloc.NewEngine(alloc.Config{ObjectiveMode: alloc.MinimizeCost})

	fmt.Println("Running bid allocation...")
	fmt.Printf("Demand: %d items, %d bids from %d suppliers\n\n",
		len(catalog.Items()), len(catalog.Bids()), len(catalog.Suppliers()))

	result, err := engine.Run(ctx, catalog, specs)
	if err != nil {
		fmt.Printf("allocation failed: %v\n", err)
		return
	}

	fmt.Printf("Status:    %s\n", result.Status)
	fmt.Printf("Objective: %s\n", result.Objective.StringFixed(2))
	fmt.Printf("Savings:   %s vs cheapest-bid baseline\n\n", result.Savings.StringFixed(2))

	fmt.Println("Awards:")
	for _, award := range result.Awards {
		fmt.Printf("  %-16s %-12s %-8s qty %6.1f  cost %s\n",
			award.BidID, award.ItemID, award.SupplierID, award.Quantity, award.Cost.StringFixed(2))
	}

	fmt.Println("\nSupplier totals:")
	for _, sup := range result.Suppliers {
		fmt.Printf("  %-8s qty %6.1f  spend %10s  share %5.1f%%\n",
			sup.SupplierID, sup.Quantity, sup.Spend.StringFixed(2), sup.SpendShare*100)
	}
}
