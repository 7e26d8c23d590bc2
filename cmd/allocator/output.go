package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/openprocure/allocator/pkg/alloc"
)

// OutputConfig controls how a run's result is rendered
type OutputConfig struct {
	Format     string
	OutputFile string
}

// generateOutput generates formatted output based on configuration
func generateOutput(result *alloc.Result, config OutputConfig) error {
	switch config.Format {
	case "text":
		return generateTextOutput(result, config)
	case "json":
		return generateJSONOutput(result, config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// generateTextOutput generates human-readable text output
func generateTextOutput(result *alloc.Result, config OutputConfig) error {
	var output string

	output += "═══════════════════════════════════════════════════════════════\n"
	output += "                   BID ALLOCATION RESULTS\n"
	output += "═══════════════════════════════════════════════════════════════\n\n"

	output += "SUMMARY\n"
	output += fmt.Sprintf("  Run ID:    %s\n", result.RunID)
	output += fmt.Sprintf("  Status:    %s\n", result.Status)
	output += fmt.Sprintf("  Elapsed:   %v\n", result.Elapsed)
	output += fmt.Sprintf("  Nodes:     %d\n", result.Stats.Nodes)
	output += "\n"

	if !result.Status.HasAllocation() {
		output += "No allocation produced.\n"
		output += "═══════════════════════════════════════════════════════════════\n"
		return writeOutput(output, config)
	}

	output += fmt.Sprintf("  Objective: %s\n", result.Objective.StringFixed(2))
	if !result.Savings.IsZero() {
		output += fmt.Sprintf("  Savings:   %s vs cheapest-bid baseline\n", result.Savings.StringFixed(2))
	}
	if result.UnmetDemand > 0 {
		output += fmt.Sprintf("  Unmet:     %.2f units\n", result.UnmetDemand)
	}
	if result.GapBound > 0 {
		output += fmt.Sprintf("  Gap:       %.6f\n", result.GapBound)
	}
	output += "\n"

	output += "AWARDS\n"
	output += "────────────────────────────────────────────────────────────────\n"
	for _, award := range result.Awards {
		output += fmt.Sprintf("Bid: %-16s Item: %-12s Supplier: %-10s Qty: %10.2f  Cost: %s\n",
			award.BidID, award.ItemID, award.SupplierID, award.Quantity, award.Cost.StringFixed(2))
	}
	output += "\n"

	output += "ITEM FULFILLMENT\n"
	output += "────────────────────────────────────────────────────────────────\n"
	for _, item := range result.Items {
		output += fmt.Sprintf("Item: %-12s Demand: %10.2f  Awarded: %10.2f  Ratio: %5.1f%%\n",
			item.ItemID, item.Demand, item.Awarded, item.Ratio*100)
	}
	output += "\n"

	output += fmt.Sprintf("SUPPLIERS (%d awarded)\n", result.SupplierCount)
	output += "────────────────────────────────────────────────────────────────\n"
	for _, sup := range result.Suppliers {
		output += fmt.Sprintf("Supplier: %-10s Qty: %10.2f  Spend: %12s  Share: %5.1f%%\n",
			sup.SupplierID, sup.Quantity, sup.Spend.StringFixed(2), sup.SpendShare*100)
	}

	output += "═══════════════════════════════════════════════════════════════\n"

	return writeOutput(output, config)
}

// generateJSONOutput generates JSON output
func generateJSONOutput(result *alloc.Result, config OutputConfig) error {
	jsonResult := struct {
		Metadata struct {
			RunID       string `json:"run_id"`
			GeneratedAt string `json:"generated_at"`
			Elapsed     string `json:"elapsed"`
		} `json:"metadata"`
		Summary struct {
			Status        string  `json:"status"`
			Objective     string  `json:"objective"`
			Savings       string  `json:"savings"`
			UnmetDemand   float64 `json:"unmet_demand"`
			SupplierCount int     `json:"supplier_count"`
			Nodes         int     `json:"nodes"`
		} `json:"summary"`
		Awards    []alloc.Award           `json:"awards"`
		Items     []alloc.ItemFulfillment `json:"items"`
		Suppliers []alloc.SupplierTotal   `json:"suppliers"`
	}{
		Awards:    result.Awards,
		Items:     result.Items,
		Suppliers: result.Suppliers,
	}

	jsonResult.Metadata.RunID = result.RunID
	jsonResult.Metadata.GeneratedAt = time.Now().Format(time.RFC3339)
	jsonResult.Metadata.Elapsed = result.Elapsed.String()

	jsonResult.Summary.Status = result.Status.String()
	jsonResult.Summary.Objective = result.Objective.String()
	jsonResult.Summary.Savings = result.Savings.String()
	jsonResult.Summary.UnmetDemand = result.UnmetDemand
	jsonResult.Summary.SupplierCount = result.SupplierCount
	jsonResult.Summary.Nodes = result.Stats.Nodes

	jsonBytes, err := json.MarshalIndent(jsonResult, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return writeOutput(string(jsonBytes)+"\n", config)
}

func writeOutput(output string, config OutputConfig) error {
	if config.OutputFile != "" {
		if err := os.WriteFile(config.OutputFile, []byte(output), 0644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	fmt.Print(output)
	return nil
}
