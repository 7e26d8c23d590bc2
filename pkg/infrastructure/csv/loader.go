// Package csv loads bid catalogs and constraint selections from CSV files.
package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openprocure/allocator/pkg/alloc"
)

// dateLayout is the accepted format for bid validity columns.
const dateLayout = "2006-01-02"

// Loader reads allocation inputs from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadItems loads demand items from a CSV file
func (l *Loader) LoadItems(filename string) ([]alloc.Item, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open items file %s: %w", filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read items CSV: %w", err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("items CSV must have header and at least one data row")
	}

	expectedHeader := []string{"item_id", "demand", "unit_of_measure"}
	header := records[0]
	if !validateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("items CSV header mismatch. Expected: %v, Got: %v", expectedHeader, header)
	}

	var items []alloc.Item
	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("items CSV row %d: expected %d columns, got %d", i+2, len(expectedHeader), len(record))
		}

		item, err := parseItem(record)
		if err != nil {
			return nil, fmt.Errorf("items CSV row %d: %w", i+2, err)
		}

		items = append(items, item)
	}

	return items, nil
}

// LoadBids loads supplier bids from a CSV file
func (l *Loader) LoadBids(filename string) ([]alloc.Bid, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open bids file %s: %w", filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read bids CSV: %w", err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("bids CSV must have header and at least one data row")
	}

	expectedHeader := []string{"bid_id", "item_id", "supplier_id", "unit_price", "value_score", "min_order_qty", "max_qty", "valid_from", "valid_until"}
	header := records[0]
	if !validateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("bids CSV header mismatch. Expected: %v, Got: %v", expectedHeader, header)
	}

	var bids []alloc.Bid
	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("bids CSV row %d: expected %d columns, got %d", i+2, len(expectedHeader), len(record))
		}

		bid, err := parseBid(record)
		if err != nil {
			return nil, fmt.Errorf("bids CSV row %d: %w", i+2, err)
		}

		bids = append(bids, bid)
	}

	return bids, nil
}

// LoadConstraints loads constraint selections from a CSV file. The file is
// optional input; callers pass an empty filename to run unconstrained.
func (l *Loader) LoadConstraints(filename string) ([]alloc.ConstraintSpec, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open constraints file %s: %w", filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read constraints CSV: %w", err)
	}

	if len(records) < 1 {
		return nil, fmt.Errorf("constraints CSV must have a header row")
	}

	expectedHeader := []string{"kind", "supplier_id", "item_id", "bid_id", "fraction", "capacity", "limit", "min_qty"}
	header := records[0]
	if !validateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("constraints CSV header mismatch. Expected: %v, Got: %v", expectedHeader, header)
	}

	var specs []alloc.ConstraintSpec
	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("constraints CSV row %d: expected %d columns, got %d", i+2, len(expectedHeader), len(record))
		}

		spec, err := parseConstraint(record)
		if err != nil {
			return nil, fmt.Errorf("constraints CSV row %d: %w", i+2, err)
		}

		specs = append(specs, spec)
	}

	return specs, nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range expected {
		if strings.ToLower(strings.TrimSpace(actual[i])) != col {
			return false
		}
	}

	return true
}

func parseItem(record []string) (alloc.Item, error) {
	itemID := alloc.ItemID(record[0])

	demand, err := strconv.ParseFloat(record[1], 64)
	if err != nil {
		return alloc.Item{}, fmt.Errorf("invalid demand: %s", record[1])
	}

	unitOfMeasure := record[2]

	return alloc.Item{
		ID:            itemID,
		Demand:        demand,
		UnitOfMeasure: unitOfMeasure,
	}, nil
}

func parseBid(record []string) (alloc.Bid, error) {
	bidID := alloc.BidID(record[0])
	itemID := alloc.ItemID(record[1])
	supplierID := alloc.SupplierID(record[2])

	unitPrice, err := decimal.NewFromString(record[3])
	if err != nil {
		return alloc.Bid{}, fmt.Errorf("invalid unit_price: %s", record[3])
	}

	var valueScore *decimal.Decimal
	if record[4] != "" {
		v, err := decimal.NewFromString(record[4])
		if err != nil {
			return alloc.Bid{}, fmt.Errorf("invalid value_score: %s", record[4])
		}
		valueScore = &v
	}

	minOrderQty := 0.0
	if record[5] != "" {
		minOrderQty, err = strconv.ParseFloat(record[5], 64)
		if err != nil {
			return alloc.Bid{}, fmt.Errorf("invalid min_order_qty: %s", record[5])
		}
	}

	maxQty, err := strconv.ParseFloat(record[6], 64)
	if err != nil {
		return alloc.Bid{}, fmt.Errorf("invalid max_qty: %s", record[6])
	}

	validFrom, err := parseDate(record[7])
	if err != nil {
		return alloc.Bid{}, fmt.Errorf("invalid valid_from: %s", record[7])
	}
	validUntil, err := parseDate(record[8])
	if err != nil {
		return alloc.Bid{}, fmt.Errorf("invalid valid_until: %s", record[8])
	}

	return alloc.Bid{
		ID:          bidID,
		ItemID:      itemID,
		SupplierID:  supplierID,
		UnitPrice:   unitPrice,
		ValueScore:  valueScore,
		MinOrderQty: minOrderQty,
		MaxQty:      maxQty,
		ValidFrom:   validFrom,
		ValidUntil:  validUntil,
	}, nil
}

func parseConstraint(record []string) (alloc.ConstraintSpec, error) {
	kind, err := parseKind(record[0])
	if err != nil {
		return alloc.ConstraintSpec{}, err
	}

	spec := alloc.ConstraintSpec{
		Kind:     kind,
		Supplier: alloc.SupplierID(record[1]),
		Item:     alloc.ItemID(record[2]),
		Bid:      alloc.BidID(record[3]),
	}

	if record[4] != "" {
		spec.Fraction, err = strconv.ParseFloat(record[4], 64)
		if err != nil {
			return alloc.ConstraintSpec{}, fmt.Errorf("invalid fraction: %s", record[4])
		}
	}
	if record[5] != "" {
		spec.Capacity, err = strconv.ParseFloat(record[5], 64)
		if err != nil {
			return alloc.ConstraintSpec{}, fmt.Errorf("invalid capacity: %s", record[5])
		}
	}
	if record[6] != "" {
		spec.Limit, err = strconv.Atoi(record[6])
		if err != nil {
			return alloc.ConstraintSpec{}, fmt.Errorf("invalid limit: %s", record[6])
		}
	}
	if record[7] != "" {
		spec.MinQty, err = strconv.ParseFloat(record[7], 64)
		if err != nil {
			return alloc.ConstraintSpec{}, fmt.Errorf("invalid min_qty: %s", record[7])
		}
	}

	return spec, nil
}

func parseKind(s string) (alloc.ConstraintKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "supplier_capacity":
		return alloc.SupplierCapacity, nil
	case "min_award_share":
		return alloc.MinAwardShare, nil
	case "max_award_share":
		return alloc.MaxAwardShare, nil
	case "single_source_per_item":
		return alloc.SingleSourcePerItem, nil
	case "max_suppliers_per_item":
		return alloc.MaxSuppliersPerItem, nil
	case "excluded_bid":
		return alloc.ExcludedBid, nil
	case "mandatory_bid":
		return alloc.MandatoryBid, nil
	default:
		return 0, fmt.Errorf("invalid constraint kind: %s", s)
	}
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
