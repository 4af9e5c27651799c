// Package predict turns an item's purchase history into a run-out date
// with a calibrated confidence level.
package predict

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/pantryops/restock/internal/config"
	"github.com/pantryops/restock/internal/model"
)

// Store is the read/write surface the engine needs from persistence.
type Store interface {
	GetTransactionsForItem(ctx context.Context, itemID string) ([]model.Transaction, error)
	GetItemsForHousehold(ctx context.Context, householdID string) ([]model.Item, error)
	UpdateItemPrediction(ctx context.Context, itemID string, result *model.PredictionResult) error
	ListHouseholds(ctx context.Context) ([]string, error)
}

// Stats summarizes one batch recalculation run.
type Stats struct {
	ByConfidence map[model.ConfidenceLevel]int
	Processed    int
	Updated      int
	Errors       int
}

// Engine computes run-out predictions from transaction history.
type Engine struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
	cfg    config.Prediction
}

// New creates a prediction engine.
func New(store Store, cfg config.Prediction, logger *slog.Logger) *Engine {
	if cfg.SmoothingAlpha <= 0 || cfg.SmoothingAlpha > 1 {
		cfg.SmoothingAlpha = 0.3
	}
	if cfg.ZScoreThreshold <= 0 {
		cfg.ZScoreThreshold = 2.0
	}
	if cfg.RecentWindow <= 0 {
		cfg.RecentWindow = 30 * 24 * time.Hour
	}

	return &Engine{
		store:  store,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Predict computes the run-out prediction for one item. A nil result with
// a nil error means there is not enough history yet; insufficient data is
// not an error.
func (e *Engine) Predict(ctx context.Context, itemID string) (*model.PredictionResult, error) {
	transactions, err := e.store.GetTransactionsForItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions for item %s: %w", itemID, err)
	}

	if len(transactions) < 2 {
		return nil, nil
	}

	dates := make([]time.Time, len(transactions))
	for i, txn := range transactions {
		dates[i] = txn.Date
	}

	intervals := intervalsBetween(dates)
	if len(intervals) == 0 {
		// Every interval was a data error (same-day duplicates).
		return nil, nil
	}

	cleaned, removed := removeOutliers(intervals, e.cfg.ZScoreThreshold)
	smoothed := applyExponentialSmoothing(cleaned, e.cfg.SmoothingAlpha)

	lastPurchase := dates[len(dates)-1]
	recent := e.now().Sub(lastPurchase) <= e.cfg.RecentWindow
	consistency := coefficientOfVariation(cleaned)

	result := &model.PredictionResult{
		RunOutDate:       lastPurchase.AddDate(0, 0, int(math.Round(smoothed))),
		SmoothedInterval: smoothed,
		ConsistencyPct:   consistency,
		PurchaseCount:    len(transactions),
		OutliersRemoved:  removed,
		RecentPurchase:   recent,
		Confidence:       classifyConfidence(len(transactions), recent, consistency, removed),
	}

	return result, nil
}

// classifyConfidence bands a prediction by history quality. Evaluated in
// precedence order: HIGH requires a consistent, recent, outlier-free
// history; MEDIUM a usable one; LOW is everything else.
func classifyConfidence(purchaseCount int, recent bool, consistencyPct float64, outliersRemoved int) model.ConfidenceLevel {
	if purchaseCount >= 3 && recent && consistencyPct < 20 && outliersRemoved == 0 {
		return model.ConfidenceHigh
	}
	if purchaseCount >= 2 && (recent || consistencyPct < 50) {
		return model.ConfidenceMedium
	}
	return model.ConfidenceLow
}

// BatchRecalculate recomputes predictions for every item in a household
// and writes the results back. A failure on one item is counted and
// logged; it never aborts the remaining items.
func (e *Engine) BatchRecalculate(ctx context.Context, householdID string) (Stats, error) {
	stats := Stats{ByConfidence: make(map[model.ConfidenceLevel]int)}

	items, err := e.store.GetItemsForHousehold(ctx, householdID)
	if err != nil {
		return stats, fmt.Errorf("failed to load items for household %s: %w", householdID, err)
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		stats.Processed++

		result, err := e.Predict(ctx, item.ID)
		if err != nil {
			stats.Errors++
			e.logger.Error("prediction failed",
				"household_id", householdID,
				"item_id", item.ID,
				"error", err)
			continue
		}

		if result == nil {
			continue
		}

		if err := e.store.UpdateItemPrediction(ctx, item.ID, result); err != nil {
			stats.Errors++
			e.logger.Error("failed to write prediction",
				"household_id", householdID,
				"item_id", item.ID,
				"error", err)
			continue
		}

		stats.Updated++
		stats.ByConfidence[result.Confidence]++
	}

	return stats, nil
}

// RecalculateAll runs BatchRecalculate for every household. One
// household's failure does not stop the system-wide run. progress, when
// non-nil, is invoked after each household completes, failed or not.
func (e *Engine) RecalculateAll(ctx context.Context, progress func(done, total int)) (Stats, error) {
	total := Stats{ByConfidence: make(map[model.ConfidenceLevel]int)}

	households, err := e.store.ListHouseholds(ctx)
	if err != nil {
		return total, fmt.Errorf("failed to list households: %w", err)
	}

	for i, householdID := range households {
		stats, err := e.BatchRecalculate(ctx, householdID)
		if err != nil {
			total.Errors++
			e.logger.Error("household recalculation failed",
				"household_id", householdID,
				"error", err)
		} else {
			total.Processed += stats.Processed
			total.Updated += stats.Updated
			total.Errors += stats.Errors
			for level, count := range stats.ByConfidence {
				total.ByConfidence[level] += count
			}
		}

		if progress != nil {
			progress(i+1, len(households))
		}
	}

	return total, nil
}
