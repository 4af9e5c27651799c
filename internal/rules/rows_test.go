package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantryops/restock/internal/model"
)

var batchDate = time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

func TestParseAmazonRow(t *testing.T) {
	raw := `2026-08-15,"Bounty Paper Towels, 12 Rolls",Household,B00ARQVM5O,1,24.99`

	candidate, ok := Parse(raw, "amazon", batchDate)
	require.True(t, ok)

	assert.Equal(t, "Bounty Paper Towels", candidate.Name)
	assert.Equal(t, "B00ARQVM5O", candidate.SKU)
	assert.Equal(t, "Household", candidate.Category)
	assert.InDelta(t, 12.0, candidate.PackageSize, 1e-9)
	assert.Equal(t, "roll", candidate.PackageUnit)
	assert.InDelta(t, 24.99, candidate.Price, 1e-9)
	assert.Equal(t, time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC), candidate.PurchaseDate)
	assert.InDelta(t, RuleConfidence, candidate.Confidence, 1e-9)
	assert.Equal(t, model.MethodRule, candidate.Method)
	assert.False(t, candidate.NeedsReview)
}

func TestParseAmazonRowPartialMatchFallsThrough(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "no package size in title", raw: `2026-08-15,"USB-C Charging Cable",Electronics,B0EXAMPLE,1,12.99`},
		{name: "bad date", raw: `yesterday,"Bounty Paper Towels, 12 Rolls",Household,B00ARQVM5O,1,24.99`},
		{name: "zero quantity", raw: `2026-08-15,"Bounty Paper Towels, 12 Rolls",Household,B00ARQVM5O,0,24.99`},
		{name: "too few fields", raw: `2026-08-15,"Bounty Paper Towels, 12 Rolls"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Parse(tt.raw, "amazon", batchDate)
			assert.False(t, ok, "partial rule match must be treated as no result")
		})
	}
}

func TestParseCostcoRow(t *testing.T) {
	candidate, ok := Parse("1234567 KS PAPER TOWEL 12 ROLLS 19.99", "costco", batchDate)
	require.True(t, ok)

	assert.Equal(t, "Paper Towel", candidate.Name)
	assert.Equal(t, "Kirkland Signature", candidate.Brand)
	assert.Equal(t, "1234567", candidate.SKU)
	assert.InDelta(t, 12.0, candidate.PackageSize, 1e-9)
	assert.Equal(t, "roll", candidate.PackageUnit)
	assert.InDelta(t, 19.99, candidate.Price, 1e-9)
	assert.Equal(t, batchDate, candidate.PurchaseDate, "costco lines carry no date and use the batch date")
}

func TestParseCostcoRowNonHouseBrand(t *testing.T) {
	candidate, ok := Parse("555123 DAWN ULTRA 56 OZ 11.49", "costco", batchDate)
	require.True(t, ok)

	assert.Equal(t, "Dawn Ultra", candidate.Name)
	assert.Empty(t, candidate.Brand)
	assert.InDelta(t, 56.0, candidate.PackageSize, 1e-9)
	assert.Equal(t, "oz", candidate.PackageUnit)
}

func TestParseGenericRow(t *testing.T) {
	candidate, ok := Parse("2026-08-10,Laundry Detergent 100 oz,2,15.49", "target", batchDate)
	require.True(t, ok)

	assert.Equal(t, "Laundry Detergent", candidate.Name)
	assert.InDelta(t, 2.0, candidate.Quantity, 1e-9)
	assert.InDelta(t, 100.0, candidate.PackageSize, 1e-9)
	assert.Equal(t, "oz", candidate.PackageUnit)
	assert.Equal(t, "target", candidate.Retailer)
}

func TestParseGenericRowWithoutSizeFallsThrough(t *testing.T) {
	_, ok := Parse("2026-08-10,Mystery Grocery Item,1,3.99", "target", batchDate)
	assert.False(t, ok)
}

func TestExtractPackageSize(t *testing.T) {
	tests := []struct {
		text     string
		wantUnit string
		wantSize float64
		wantOK   bool
	}{
		{text: "Bounty Paper Towels, 12 Rolls", wantSize: 12, wantUnit: "roll", wantOK: true},
		{text: "DAWN ULTRA 56OZ", wantSize: 56, wantUnit: "oz", wantOK: true},
		{text: "Organic Eggs 12ct", wantSize: 12, wantUnit: "count", wantOK: true},
		{text: "Sparkling Water 1.5 L", wantSize: 1.5, wantUnit: "l", wantOK: true},
		{text: "Coffee Pods 96 pods", wantSize: 96, wantUnit: "pod", wantOK: true},
		{text: "USB-C Charging Cable", wantOK: false},
		{text: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			size, unit, ok := extractPackageSize(tt.text)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.wantSize, size, 1e-9)
				assert.Equal(t, tt.wantUnit, unit)
			}
		})
	}
}

func TestCanonicalName(t *testing.T) {
	assert.Equal(t, "Paper Towel", canonicalName("PAPER TOWEL 12 ROLLS"))
	assert.Equal(t, "Dawn Ultra", canonicalName("DAWN  ULTRA 56OZ"))
}
