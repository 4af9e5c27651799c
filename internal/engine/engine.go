// Package engine orchestrates ingestion: it fans raw purchase lines out
// through the parsing cascade, then serially reconciles each candidate
// against the household's tracked items and persists the outcome.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pantryops/restock/internal/common"
	"github.com/pantryops/restock/internal/merge"
	"github.com/pantryops/restock/internal/model"
	"github.com/pantryops/restock/internal/service"
)

// Resolver is the cascade's surface as the engine sees it.
type Resolver interface {
	Resolve(ctx context.Context, rawText, retailer string, purchaseDate time.Time, scope model.BudgetScope) *model.ParsedCandidate
}

// BatchResult summarizes one ingested upload.
type BatchResult struct {
	Candidates []model.ParsedCandidate
	Merged     int
	Created    int
	Queued     int
	Duplicates int
}

// Engine drives a batch of raw lines through parse, merge, and persistence.
type Engine struct {
	resolver Resolver
	store    service.Storage
	logger   *slog.Logger
	now      func() time.Time
	workers  int
}

// New creates an ingestion engine with the given parse concurrency.
func New(resolver Resolver, store service.Storage, workers int, logger *slog.Logger) *Engine {
	if workers <= 0 {
		workers = 4
	}
	return &Engine{
		resolver: resolver,
		store:    store,
		workers:  workers,
		logger:   logger,
		now:      time.Now,
	}
}

// ParseBatch ingests one upload. Lines are resolved concurrently; merge
// resolution and persistence run serially afterwards so that an item
// created for an early line is visible to later lines of the same batch.
// Parsing never fails a batch, but a storage failure does.
func (e *Engine) ParseBatch(ctx context.Context, lines []string, retailer string, scope model.BudgetScope) (BatchResult, error) {
	var result BatchResult

	candidates := make([]*model.ParsedCandidate, len(lines))
	purchaseDate := e.now().UTC().Truncate(24 * time.Hour)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			candidates[i] = e.resolver.Resolve(gctx, line, retailer, purchaseDate, scope)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, fmt.Errorf("batch parse aborted: %w", err)
	}

	items, err := e.store.GetItemsForHousehold(ctx, scope.HouseholdID)
	if err != nil {
		return result, fmt.Errorf("failed to load household items: %w", err)
	}

	for _, candidate := range candidates {
		if candidate == nil {
			continue
		}

		applied, itemsAfter, duplicate, err := e.apply(ctx, *candidate, items, scope)
		if err != nil {
			return result, err
		}
		items = itemsAfter
		if duplicate {
			result.Duplicates++
		}

		switch {
		case applied.Merge == nil:
			result.Queued++
		case applied.Merge.Decision == model.DecisionMerge:
			result.Merged++
		case applied.Merge.Decision == model.DecisionCreate:
			result.Created++
		case applied.Merge.Decision == model.DecisionReview:
			result.Queued++
		}

		result.Candidates = append(result.Candidates, applied)
	}

	return result, nil
}

// apply reconciles one candidate against the household's items and
// persists the outcome. It returns the applied candidate and the item
// list, extended when a new item was created.
func (e *Engine) apply(ctx context.Context, candidate model.ParsedCandidate, items []model.Item, scope model.BudgetScope) (model.ParsedCandidate, []model.Item, bool, error) {
	// A fallback parse has nothing trustworthy to merge on; it goes
	// straight to the review queue.
	if candidate.Method == model.MethodFallback {
		if err := e.queueReview(ctx, candidate, "", scope); err != nil {
			return candidate, items, false, err
		}
		return candidate, items, false, nil
	}

	outcome := merge.Resolve(&candidate, items)
	applied := merge.Apply(candidate, outcome)

	switch outcome.Decision {
	case model.DecisionMerge:
		duplicate, err := e.persistMerge(ctx, applied, outcome.ItemID, scope)
		if err != nil {
			return applied, items, false, err
		}
		return applied, items, duplicate, nil

	case model.DecisionCreate:
		item, err := e.createItem(ctx, applied, scope)
		if err != nil {
			return applied, items, false, err
		}
		items = append(items, *item)
		applied.Merge.ItemID = item.ID
		duplicate, err := e.saveTransaction(ctx, applied, item.ID, scope)
		if err != nil {
			return applied, items, false, err
		}
		return applied, items, duplicate, nil

	case model.DecisionReview:
		if err := e.queueReview(ctx, applied, outcome.ItemID, scope); err != nil {
			return applied, items, false, err
		}
	}

	return applied, items, false, nil
}

func (e *Engine) persistMerge(ctx context.Context, candidate model.ParsedCandidate, itemID string, scope model.BudgetScope) (bool, error) {
	// A merge by name may carry a SKU the item doesn't know yet.
	if candidate.SKU != "" && candidate.Merge.Reason != merge.ReasonSKUMatch {
		retailer := strings.ToLower(candidate.Retailer)
		if err := e.store.SetItemSKU(ctx, itemID, retailer, candidate.SKU); err != nil {
			return false, fmt.Errorf("failed to record SKU on merge: %w", err)
		}
	}
	return e.saveTransaction(ctx, candidate, itemID, scope)
}

func (e *Engine) createItem(ctx context.Context, candidate model.ParsedCandidate, scope model.BudgetScope) (*model.Item, error) {
	item := &model.Item{
		ID:          uuid.New().String(),
		HouseholdID: scope.HouseholdID,
		Name:        candidate.Name,
		Brand:       candidate.Brand,
		Category:    candidate.Category,
		SKUs:        make(map[string]string),
	}
	if candidate.SKU != "" {
		item.SKUs[strings.ToLower(candidate.Retailer)] = candidate.SKU
	}

	if err := e.store.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create item %q: %w", candidate.Name, err)
	}

	e.logger.Info("tracking new item",
		"household_id", scope.HouseholdID,
		"item_id", item.ID,
		"name", item.Name)

	return item, nil
}

func (e *Engine) saveTransaction(ctx context.Context, candidate model.ParsedCandidate, itemID string, scope model.BudgetScope) (bool, error) {
	txn := &model.Transaction{
		ID:          uuid.New().String(),
		ItemID:      itemID,
		HouseholdID: scope.HouseholdID,
		Date:        candidate.PurchaseDate,
		Vendor:      strings.ToLower(candidate.Retailer),
		Quantity:    candidate.Quantity,
		Price:       candidate.Price,
		Confidence:  candidate.Confidence,
		Method:      candidate.Method,
	}
	txn.Hash = txn.GenerateHash()

	err := e.store.SaveTransaction(ctx, txn)
	if errors.Is(err, common.ErrDuplicateEntry) {
		// Replayed upload; the original row stands.
		e.logger.Info("skipping duplicate transaction",
			"item_id", itemID,
			"hash", txn.Hash)
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to save transaction: %w", err)
	}
	return false, nil
}

func (e *Engine) queueReview(ctx context.Context, candidate model.ParsedCandidate, suggestedItemID string, scope model.BudgetScope) error {
	review := &model.ReviewItem{
		ID:              uuid.New().String(),
		HouseholdID:     scope.HouseholdID,
		RawText:         candidate.RawText,
		Retailer:        strings.ToLower(candidate.Retailer),
		Reason:          reviewReason(candidate),
		SuggestedItemID: suggestedItemID,
		Candidate:       candidate.Normalization(),
	}

	if err := e.store.SaveReview(ctx, review); err != nil {
		return fmt.Errorf("failed to queue review: %w", err)
	}

	e.logger.Info("queued line for review",
		"household_id", scope.HouseholdID,
		"reason", review.Reason)

	return nil
}

func reviewReason(candidate model.ParsedCandidate) string {
	if candidate.DenialReason != "" {
		return candidate.DenialReason
	}
	if candidate.Method == model.MethodFallback {
		return "unparseable"
	}
	if candidate.Merge != nil {
		return candidate.Merge.Reason
	}
	return "low_confidence"
}
