package predict

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantryops/restock/internal/config"
	"github.com/pantryops/restock/internal/model"
)

type fakeStore struct {
	transactions map[string][]model.Transaction
	items        map[string][]model.Item
	predictions  map[string]*model.PredictionResult
	households   []string
	failTxnsFor  string
	failWriteFor string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		transactions: make(map[string][]model.Transaction),
		items:        make(map[string][]model.Item),
		predictions:  make(map[string]*model.PredictionResult),
	}
}

func (s *fakeStore) GetTransactionsForItem(_ context.Context, itemID string) ([]model.Transaction, error) {
	if itemID == s.failTxnsFor {
		return nil, errors.New("transactions unavailable")
	}
	return s.transactions[itemID], nil
}

func (s *fakeStore) GetItemsForHousehold(_ context.Context, householdID string) ([]model.Item, error) {
	return s.items[householdID], nil
}

func (s *fakeStore) UpdateItemPrediction(_ context.Context, itemID string, result *model.PredictionResult) error {
	if itemID == s.failWriteFor {
		return errors.New("write failed")
	}
	s.predictions[itemID] = result
	return nil
}

func (s *fakeStore) ListHouseholds(_ context.Context) ([]string, error) {
	return s.households, nil
}

func (s *fakeStore) addPurchases(itemID string, dates ...time.Time) {
	for _, d := range dates {
		s.transactions[itemID] = append(s.transactions[itemID], model.Transaction{
			ID:     itemID + d.Format("2006-01-02"),
			ItemID: itemID,
			Date:   d,
		})
	}
}

func newTestEngine(store Store, now time.Time) *Engine {
	engine := New(store, config.Prediction{}, slog.Default())
	engine.now = func() time.Time { return now }
	return engine
}

func TestPredictWeeklyCadence(t *testing.T) {
	store := newFakeStore()
	store.addPurchases("milk", day(0), day(7), day(14), day(21), day(28))

	engine := newTestEngine(store, day(30))

	result, err := engine.Predict(context.Background(), "milk")
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.InDelta(t, 7.0, result.SmoothedInterval, 1e-9)
	assert.Equal(t, day(35), result.RunOutDate)
	assert.Equal(t, model.ConfidenceHigh, result.Confidence)
	assert.Equal(t, 5, result.PurchaseCount)
	assert.Zero(t, result.OutliersRemoved)
	assert.True(t, result.RecentPurchase)
}

func TestPredictRemovesVacationGap(t *testing.T) {
	store := newFakeStore()
	// Weekly purchases with one 30-day gap in the middle.
	store.addPurchases("coffee", day(0), day(7), day(14), day(44), day(51))

	engine := newTestEngine(store, day(53))

	result, err := engine.Predict(context.Background(), "coffee")
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, 1, result.OutliersRemoved)
	assert.InDelta(t, 7.0, result.SmoothedInterval, 1e-9)
	assert.Equal(t, day(58), result.RunOutDate)
	// An excised outlier keeps the prediction out of the top band.
	assert.Equal(t, model.ConfidenceMedium, result.Confidence)
}

func TestPredictInsufficientHistory(t *testing.T) {
	store := newFakeStore()
	store.addPurchases("saffron", day(0))

	engine := newTestEngine(store, day(10))

	result, err := engine.Predict(context.Background(), "saffron")
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestPredictSameDayDuplicatesOnly(t *testing.T) {
	store := newFakeStore()
	store.addPurchases("eggs", day(3), day(3))

	engine := newTestEngine(store, day(10))

	result, err := engine.Predict(context.Background(), "eggs")
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestPredictStaleHistoryDowngrades(t *testing.T) {
	store := newFakeStore()
	store.addPurchases("cereal", day(0), day(7), day(14), day(21))

	// Last purchase far outside the recency window.
	engine := newTestEngine(store, day(90))

	result, err := engine.Predict(context.Background(), "cereal")
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.False(t, result.RecentPurchase)
	assert.Equal(t, model.ConfidenceMedium, result.Confidence)
}

func TestBatchRecalculateIsolatesFailures(t *testing.T) {
	store := newFakeStore()
	store.items["house-1"] = []model.Item{
		{ID: "milk", HouseholdID: "house-1"},
		{ID: "broken", HouseholdID: "house-1"},
		{ID: "bread", HouseholdID: "house-1"},
	}
	store.addPurchases("milk", day(0), day(7), day(14))
	store.addPurchases("bread", day(0), day(5), day(10))
	store.failTxnsFor = "broken"

	engine := newTestEngine(store, day(16))

	stats, err := engine.BatchRecalculate(context.Background(), "house-1")
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Processed)
	assert.Equal(t, 2, stats.Updated)
	assert.Equal(t, 1, stats.Errors)
	assert.Contains(t, store.predictions, "milk")
	assert.Contains(t, store.predictions, "bread")
	assert.NotContains(t, store.predictions, "broken")
}

func TestBatchRecalculateCountsWriteFailures(t *testing.T) {
	store := newFakeStore()
	store.items["house-1"] = []model.Item{{ID: "milk", HouseholdID: "house-1"}}
	store.addPurchases("milk", day(0), day(7), day(14))
	store.failWriteFor = "milk"

	engine := newTestEngine(store, day(16))

	stats, err := engine.BatchRecalculate(context.Background(), "house-1")
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Errors)
	assert.Zero(t, stats.Updated)
}

func TestBatchRecalculateSkipsThinHistory(t *testing.T) {
	store := newFakeStore()
	store.items["house-1"] = []model.Item{{ID: "saffron", HouseholdID: "house-1"}}
	store.addPurchases("saffron", day(0))

	engine := newTestEngine(store, day(16))

	stats, err := engine.BatchRecalculate(context.Background(), "house-1")
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Processed)
	assert.Zero(t, stats.Updated)
	assert.Zero(t, stats.Errors)
}

func TestRecalculateAll(t *testing.T) {
	store := newFakeStore()
	store.households = []string{"house-1", "house-2"}
	store.items["house-1"] = []model.Item{{ID: "milk", HouseholdID: "house-1"}}
	store.items["house-2"] = []model.Item{{ID: "beans", HouseholdID: "house-2"}}
	store.addPurchases("milk", day(0), day(7), day(14))
	store.addPurchases("beans", day(0), day(10), day(20))

	engine := newTestEngine(store, day(22))

	var ticks [][2]int
	stats, err := engine.RecalculateAll(context.Background(), func(done, total int) {
		ticks = append(ticks, [2]int{done, total})
	})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 2, stats.Updated)
	assert.Zero(t, stats.Errors)
	assert.Equal(t, 2, stats.ByConfidence[model.ConfidenceHigh])
	assert.Equal(t, [][2]int{{1, 2}, {2, 2}}, ticks)
}
