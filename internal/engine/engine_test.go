package engine

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantryops/restock/internal/merge"
	"github.com/pantryops/restock/internal/model"
	"github.com/pantryops/restock/internal/storage"
)

// stubResolver maps raw lines to canned candidates, standing in for the
// full cascade.
type stubResolver struct {
	candidates map[string]model.ParsedCandidate
}

func (s *stubResolver) Resolve(_ context.Context, rawText, retailer string, purchaseDate time.Time, _ model.BudgetScope) *model.ParsedCandidate {
	candidate, ok := s.candidates[rawText]
	if !ok {
		return &model.ParsedCandidate{
			RawText:      rawText,
			Retailer:     retailer,
			Name:         rawText,
			Quantity:     1,
			PurchaseDate: purchaseDate,
			Confidence:   0.1,
			Method:       model.MethodFallback,
			NeedsReview:  true,
		}
	}
	candidate.RawText = rawText
	candidate.Retailer = retailer
	if candidate.PurchaseDate.IsZero() {
		candidate.PurchaseDate = purchaseDate
	}
	return &candidate
}

func newTestEngine(t *testing.T, resolver Resolver) (*Engine, *storage.SQLiteStorage) {
	t.Helper()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))

	return New(resolver, store, 2, slog.Default()), store
}

func testScope() model.BudgetScope {
	return model.BudgetScope{UserID: "user-1", HouseholdID: "house-1"}
}

func ruleCandidate(name, brand, sku string) model.ParsedCandidate {
	return model.ParsedCandidate{
		Name:         name,
		Brand:        brand,
		SKU:          sku,
		Quantity:     1,
		Price:        4.99,
		PurchaseDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Confidence:   0.9,
		Method:       model.MethodRule,
	}
}

func TestParseBatchCreatesNewItem(t *testing.T) {
	resolver := &stubResolver{candidates: map[string]model.ParsedCandidate{
		"line-1": ruleCandidate("Whole Milk", "Horizon", "12345"),
	}}
	e, store := newTestEngine(t, resolver)
	ctx := context.Background()

	result, err := e.ParseBatch(ctx, []string{"line-1"}, "costco", testScope())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Created)
	assert.Zero(t, result.Merged)
	require.Len(t, result.Candidates, 1)
	require.NotNil(t, result.Candidates[0].Merge)
	assert.Equal(t, model.DecisionCreate, result.Candidates[0].Merge.Decision)

	items, err := store.GetItemsForHousehold(ctx, "house-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Whole Milk", items[0].Name)
	assert.Equal(t, map[string]string{"costco": "12345"}, items[0].SKUs)

	history, err := store.GetTransactionsForItem(ctx, items[0].ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.MethodRule, history[0].Method)
}

func TestParseBatchMergesBySKU(t *testing.T) {
	resolver := &stubResolver{candidates: map[string]model.ParsedCandidate{
		"line-1": ruleCandidate("Organic Whole Milk", "", "12345"),
	}}
	e, store := newTestEngine(t, resolver)
	ctx := context.Background()

	existing := &model.Item{
		ID:          "item-1",
		HouseholdID: "house-1",
		Name:        "Whole Milk",
		Brand:       "Horizon",
		SKUs:        map[string]string{"costco": "12345"},
	}
	require.NoError(t, store.CreateItem(ctx, existing))

	result, err := e.ParseBatch(ctx, []string{"line-1"}, "costco", testScope())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Merged)
	assert.Zero(t, result.Created)
	require.Len(t, result.Candidates, 1)
	applied := result.Candidates[0]
	assert.Equal(t, "item-1", applied.Merge.ItemID)
	assert.Equal(t, merge.ReasonSKUMatch, applied.Merge.Reason)
	// SKU matches lift confidence to certainty.
	assert.InDelta(t, 1.0, applied.Confidence, 1e-9)

	history, err := store.GetTransactionsForItem(ctx, "item-1")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestParseBatchLaterLineSeesEarlierCreation(t *testing.T) {
	// Two lines for the same product: the first creates the item, the
	// second must merge into it, not create a twin.
	resolver := &stubResolver{candidates: map[string]model.ParsedCandidate{
		"line-1": ruleCandidate("Whole Milk", "Horizon", ""),
		"line-2": func() model.ParsedCandidate {
			c := ruleCandidate("whole milk", "horizon", "")
			c.PurchaseDate = time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
			return c
		}(),
	}}
	e, store := newTestEngine(t, resolver)
	ctx := context.Background()

	result, err := e.ParseBatch(ctx, []string{"line-1", "line-2"}, "costco", testScope())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Merged)

	items, err := store.GetItemsForHousehold(ctx, "house-1")
	require.NoError(t, err)
	require.Len(t, items, 1)

	history, err := store.GetTransactionsForItem(ctx, items[0].ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestParseBatchReplayedLineIsDuplicate(t *testing.T) {
	resolver := &stubResolver{candidates: map[string]model.ParsedCandidate{
		"line-1": ruleCandidate("Whole Milk", "Horizon", ""),
	}}
	e, store := newTestEngine(t, resolver)
	ctx := context.Background()

	_, err := e.ParseBatch(ctx, []string{"line-1"}, "costco", testScope())
	require.NoError(t, err)

	// Same upload again: same content hash, no second transaction.
	result, err := e.ParseBatch(ctx, []string{"line-1"}, "costco", testScope())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Duplicates)
	assert.Equal(t, 1, result.Merged)

	items, err := store.GetItemsForHousehold(ctx, "house-1")
	require.NoError(t, err)
	require.Len(t, items, 1)

	history, err := store.GetTransactionsForItem(ctx, items[0].ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestParseBatchAmbiguousMatchGoesToReview(t *testing.T) {
	resolver := &stubResolver{candidates: map[string]model.ParsedCandidate{
		"line-1": ruleCandidate("Whole Milk", "Kirkland Signature", ""),
	}}
	e, store := newTestEngine(t, resolver)
	ctx := context.Background()

	require.NoError(t, store.CreateItem(ctx, &model.Item{
		ID:          "item-1",
		HouseholdID: "house-1",
		Name:        "Whole Milk",
		Brand:       "Horizon",
		SKUs:        map[string]string{},
	}))

	result, err := e.ParseBatch(ctx, []string{"line-1"}, "costco", testScope())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Queued)
	assert.Zero(t, result.Merged)
	assert.Zero(t, result.Created)

	applied := result.Candidates[0]
	assert.True(t, applied.NeedsReview)
	assert.InDelta(t, merge.ReviewConfidenceCap, applied.Confidence, 1e-9)

	reviews, err := store.GetPendingReviews(ctx, "house-1")
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, "item-1", reviews[0].SuggestedItemID)
	assert.Equal(t, merge.ReasonBrandDiffers, reviews[0].Reason)

	// Ambiguous lines never write transactions.
	history, err := store.GetTransactionsForItem(ctx, "item-1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestParseBatchFallbackGoesToReview(t *testing.T) {
	resolver := &stubResolver{candidates: map[string]model.ParsedCandidate{}}
	e, store := newTestEngine(t, resolver)
	ctx := context.Background()

	result, err := e.ParseBatch(ctx, []string{"???"}, "costco", testScope())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Queued)

	reviews, err := store.GetPendingReviews(ctx, "house-1")
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, "unparseable", reviews[0].Reason)

	items, err := store.GetItemsForHousehold(ctx, "house-1")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestParseBatchDeniedFallbackCarriesReason(t *testing.T) {
	resolver := &stubResolver{candidates: map[string]model.ParsedCandidate{
		"line-1": {
			Name:         "line-1",
			Quantity:     1,
			Confidence:   0.1,
			Method:       model.MethodFallback,
			DenialReason: "user_monthly_exceeded",
			NeedsReview:  true,
		},
	}}
	e, store := newTestEngine(t, resolver)
	ctx := context.Background()

	_, err := e.ParseBatch(ctx, []string{"line-1"}, "costco", testScope())
	require.NoError(t, err)

	reviews, err := store.GetPendingReviews(ctx, "house-1")
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, "user_monthly_exceeded", reviews[0].Reason)
}

func TestParseBatchSkipsBlankLines(t *testing.T) {
	resolver := &stubResolver{candidates: map[string]model.ParsedCandidate{}}
	e, _ := newTestEngine(t, resolver)

	result, err := e.ParseBatch(context.Background(), []string{"", "   "}, "costco", testScope())
	require.NoError(t, err)
	assert.Empty(t, result.Candidates)
}
