// Package rules implements tier-1 deterministic parsing: retailer-specific
// structural rules that turn an export line into a candidate without any
// external call.
package rules

import (
	"encoding/csv"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pantryops/restock/internal/model"
)

// RuleConfidence is the fixed confidence assigned to a complete rule match.
const RuleConfidence = 0.9

// AmazonRow is one line of an Amazon order-history export:
// date,title,category,asin,quantity,unit price.
type AmazonRow struct {
	OrderDate time.Time
	Title     string
	Category  string
	ASIN      string
	Quantity  float64
	UnitPrice float64
}

// CostcoRow is one line of a Costco receipt: a numeric item code, an
// abbreviated description, and a trailing price.
type CostcoRow struct {
	SKU         string
	Description string
	Price       float64
}

// GenericRow is a vendor-neutral CSV line: date,description,quantity,price.
type GenericRow struct {
	Date        time.Time
	Description string
	Quantity    float64
	Price       float64
}

// Parse attempts a deterministic parse of one raw line. ok is false when
// the retailer has no structural rule for the line or the rule matched only
// partially; partial matches fall through to the later cascade tiers rather
// than returning default-filled candidates. fallbackDate is used for
// formats that carry no date of their own.
func Parse(rawText, retailer string, fallbackDate time.Time) (*model.ParsedCandidate, bool) {
	switch strings.ToLower(retailer) {
	case "amazon":
		row, ok := parseAmazonRow(rawText)
		if !ok {
			return nil, false
		}
		return row.candidate(rawText, retailer)
	case "costco":
		row, ok := parseCostcoRow(rawText)
		if !ok {
			return nil, false
		}
		return row.candidate(rawText, retailer, fallbackDate)
	default:
		row, ok := parseGenericRow(rawText)
		if !ok {
			return nil, false
		}
		return row.candidate(rawText, retailer, fallbackDate)
	}
}

func parseAmazonRow(raw string) (*AmazonRow, bool) {
	fields, err := csv.NewReader(strings.NewReader(raw)).Read()
	if err != nil || len(fields) < 6 {
		return nil, false
	}

	date, err := time.Parse("2006-01-02", strings.TrimSpace(fields[0]))
	if err != nil {
		return nil, false
	}

	quantity, err := strconv.ParseFloat(strings.TrimSpace(fields[4]), 64)
	if err != nil || quantity <= 0 {
		return nil, false
	}

	price, err := strconv.ParseFloat(strings.TrimPrefix(strings.TrimSpace(fields[5]), "$"), 64)
	if err != nil {
		return nil, false
	}

	title := strings.TrimSpace(fields[1])
	if title == "" {
		return nil, false
	}

	return &AmazonRow{
		OrderDate: date,
		Title:     title,
		Category:  strings.TrimSpace(fields[2]),
		ASIN:      strings.TrimSpace(fields[3]),
		Quantity:  quantity,
		UnitPrice: price,
	}, true
}

func (r *AmazonRow) candidate(rawText, retailer string) (*model.ParsedCandidate, bool) {
	size, unit, ok := extractPackageSize(r.Title)
	if !ok {
		// Missing package size means the rule matched only partially.
		return nil, false
	}

	return &model.ParsedCandidate{
		RawText:      rawText,
		Retailer:     retailer,
		Name:         canonicalName(r.Title),
		Category:     r.Category,
		SKU:          r.ASIN,
		Quantity:     r.Quantity,
		Unit:         unit,
		PackageSize:  size,
		PackageUnit:  unit,
		Price:        r.UnitPrice,
		PurchaseDate: r.OrderDate,
		Confidence:   RuleConfidence,
		Method:       model.MethodRule,
	}, true
}

// costcoLinePattern: item code, description, trailing price.
var costcoLinePattern = regexp.MustCompile(`^(\d{5,7})\s+(.+?)\s+(\d+\.\d{2})$`)

func parseCostcoRow(raw string) (*CostcoRow, bool) {
	match := costcoLinePattern.FindStringSubmatch(strings.TrimSpace(raw))
	if match == nil {
		return nil, false
	}

	price, err := strconv.ParseFloat(match[3], 64)
	if err != nil {
		return nil, false
	}

	return &CostcoRow{
		SKU:         match[1],
		Description: match[2],
		Price:       price,
	}, true
}

func (r *CostcoRow) candidate(rawText, retailer string, fallbackDate time.Time) (*model.ParsedCandidate, bool) {
	size, unit, ok := extractPackageSize(r.Description)
	if !ok {
		return nil, false
	}

	description := r.Description
	brand := ""
	// Costco prefixes its house brand as "KS".
	if rest, found := strings.CutPrefix(description, "KS "); found {
		brand = "Kirkland Signature"
		description = rest
	}

	return &model.ParsedCandidate{
		RawText:      rawText,
		Retailer:     retailer,
		Name:         canonicalName(description),
		Brand:        brand,
		SKU:          r.SKU,
		Quantity:     1,
		Unit:         unit,
		PackageSize:  size,
		PackageUnit:  unit,
		Price:        r.Price,
		PurchaseDate: fallbackDate,
		Confidence:   RuleConfidence,
		Method:       model.MethodRule,
	}, true
}

func parseGenericRow(raw string) (*GenericRow, bool) {
	fields, err := csv.NewReader(strings.NewReader(raw)).Read()
	if err != nil || len(fields) < 4 {
		return nil, false
	}

	date, err := time.Parse("2006-01-02", strings.TrimSpace(fields[0]))
	if err != nil {
		return nil, false
	}

	quantity, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
	if err != nil || quantity <= 0 {
		return nil, false
	}

	price, err := strconv.ParseFloat(strings.TrimPrefix(strings.TrimSpace(fields[3]), "$"), 64)
	if err != nil {
		return nil, false
	}

	description := strings.TrimSpace(fields[1])
	if description == "" {
		return nil, false
	}

	return &GenericRow{
		Date:        date,
		Description: description,
		Quantity:    quantity,
		Price:       price,
	}, true
}

func (r *GenericRow) candidate(rawText, retailer string, fallbackDate time.Time) (*model.ParsedCandidate, bool) {
	size, unit, ok := extractPackageSize(r.Description)
	if !ok {
		return nil, false
	}

	date := r.Date
	if date.IsZero() {
		date = fallbackDate
	}

	return &model.ParsedCandidate{
		RawText:      rawText,
		Retailer:     retailer,
		Name:         canonicalName(r.Description),
		Quantity:     r.Quantity,
		Unit:         unit,
		PackageSize:  size,
		PackageUnit:  unit,
		Price:        r.Price,
		PurchaseDate: date,
		Confidence:   RuleConfidence,
		Method:       model.MethodRule,
	}, true
}
