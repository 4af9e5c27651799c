package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantryops/restock/internal/model"
)

func existingItems() []model.Item {
	return []model.Item{
		{
			ID:    "item-milk",
			Name:  "Milk",
			Brand: "Horizon",
		},
		{
			ID:    "item-towels",
			Name:  "Paper Towels",
			Brand: "Bounty",
			SKUs:  map[string]string{"costco": "1234567"},
		},
	}
}

func TestResolveSKUMatch(t *testing.T) {
	candidate := &model.ParsedCandidate{
		Name:     "Towels Of Paper", // name disagrees; SKU wins anyway
		Retailer: "Costco",
		SKU:      "1234567",
	}

	outcome := Resolve(candidate, existingItems())

	assert.Equal(t, model.DecisionMerge, outcome.Decision)
	assert.Equal(t, "item-towels", outcome.ItemID)
	assert.Equal(t, ReasonSKUMatch, outcome.Reason)
	assert.True(t, outcome.Auto)
}

func TestResolveNameBrandMatchIsCaseInsensitive(t *testing.T) {
	candidate := &model.ParsedCandidate{Name: "milk", Brand: "Horizon"}

	outcome := Resolve(candidate, existingItems())

	assert.Equal(t, model.DecisionMerge, outcome.Decision)
	assert.Equal(t, "item-milk", outcome.ItemID)
	assert.True(t, outcome.Auto)
}

func TestResolveDifferentBrandIsAmbiguous(t *testing.T) {
	candidate := &model.ParsedCandidate{Name: "milk", Brand: "Kirkland"}

	outcome := Resolve(candidate, existingItems())

	assert.Equal(t, model.DecisionReview, outcome.Decision)
	assert.Equal(t, "item-milk", outcome.ItemID)
	assert.Equal(t, ReasonBrandDiffers, outcome.Reason)
	assert.False(t, outcome.Auto)
}

func TestResolveMissingBrandIsAmbiguous(t *testing.T) {
	candidate := &model.ParsedCandidate{Name: "Milk"}

	outcome := Resolve(candidate, existingItems())

	assert.Equal(t, model.DecisionReview, outcome.Decision)
}

func TestResolveNoMatchCreates(t *testing.T) {
	candidate := &model.ParsedCandidate{Name: "Dish Soap", Brand: "Dawn"}

	outcome := Resolve(candidate, existingItems())

	assert.Equal(t, model.DecisionCreate, outcome.Decision)
	assert.Empty(t, outcome.ItemID)
}

func TestResolveEmptyItemListCreates(t *testing.T) {
	outcome := Resolve(&model.ParsedCandidate{Name: "Anything"}, nil)
	assert.Equal(t, model.DecisionCreate, outcome.Decision)
}

func TestApplyCapsConfidenceForReview(t *testing.T) {
	candidate := model.ParsedCandidate{Name: "Milk", Confidence: 0.92}
	outcome := model.MergeOutcome{Decision: model.DecisionReview, ItemID: "item-milk", Reason: ReasonBrandDiffers}

	applied := Apply(candidate, outcome)

	require.NotNil(t, applied.Merge)
	assert.InDelta(t, ReviewConfidenceCap, applied.Confidence, 1e-9)
	assert.True(t, applied.NeedsReview)
}

func TestApplySKUMatchLiftsConfidence(t *testing.T) {
	candidate := model.ParsedCandidate{Name: "Paper Towels", Confidence: 0.9}
	outcome := model.MergeOutcome{Decision: model.DecisionMerge, ItemID: "item-towels", Reason: ReasonSKUMatch, Auto: true}

	applied := Apply(candidate, outcome)

	assert.InDelta(t, 1.0, applied.Confidence, 1e-9)
	assert.False(t, applied.NeedsReview)
}

func TestApplyLeavesAutoMergeUntouched(t *testing.T) {
	candidate := model.ParsedCandidate{Name: "Milk", Brand: "Horizon", Confidence: 0.85}
	outcome := model.MergeOutcome{Decision: model.DecisionMerge, ItemID: "item-milk", Reason: ReasonNameBrand, Auto: true}

	applied := Apply(candidate, outcome)

	assert.InDelta(t, 0.85, applied.Confidence, 1e-9)
}
