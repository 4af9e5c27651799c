// Package cascade chains the three parsing tiers: deterministic retailer
// rules, the normalization cache, and the budget-governed language model.
// Resolve always produces a candidate; when every tier fails it degrades to
// a low-confidence fallback rather than an error.
package cascade

import (
	"context"
	"log/slog"
	"time"

	"github.com/pantryops/restock/internal/budget"
	"github.com/pantryops/restock/internal/cache"
	"github.com/pantryops/restock/internal/config"
	"github.com/pantryops/restock/internal/llm"
	"github.com/pantryops/restock/internal/model"
	"github.com/pantryops/restock/internal/rules"
)

// FallbackConfidence is assigned when no tier produced a usable result.
const FallbackConfidence = 0.1

// CacheWriteThreshold is the minimum model confidence worth memoizing.
// Low-confidence extractions are not cached so a later retry can do better.
const CacheWriteThreshold = 0.9

// estimatedOutputTokens sizes the pre-flight cost check. Extraction
// responses are a single small JSON object.
const estimatedOutputTokens = 200

// Extractor is the model tier's surface. *llm.Extractor satisfies it;
// tests substitute a stub.
type Extractor interface {
	Extract(ctx context.Context, rawText, retailer string) (llm.ExtractionResponse, error)
}

// Resolver runs one raw line through the cascade.
type Resolver struct {
	cache     *cache.NormalizationCache
	governor  *budget.Governor
	extractor Extractor
	logger    *slog.Logger
	cfg       config.Budget
}

// NewResolver assembles the cascade from its tiers.
func NewResolver(c *cache.NormalizationCache, g *budget.Governor, e Extractor, cfg config.Budget, logger *slog.Logger) *Resolver {
	return &Resolver{
		cache:     c,
		governor:  g,
		extractor: e,
		cfg:       cfg,
		logger:    logger,
	}
}

// Resolve parses one raw purchase line. It never returns an error: a line
// no tier can interpret comes back as a review-flagged fallback candidate.
func (r *Resolver) Resolve(ctx context.Context, rawText, retailer string, purchaseDate time.Time, scope model.BudgetScope) *model.ParsedCandidate {
	// Tier 1: deterministic retailer rules.
	if candidate, ok := rules.Parse(rawText, retailer, purchaseDate); ok {
		// Memoize so replays of the same line skip straight to tier 2.
		r.cache.Set(rawText, retailer, candidate.Normalization())
		return candidate
	}

	// Tier 2: normalization cache.
	if result, ok := r.cache.Get(rawText, retailer); ok {
		return candidateFrom(result, rawText, retailer, purchaseDate, model.MethodCache)
	}

	// Tier 3: governed model call. A nil extractor means no provider is
	// configured; unresolved lines go straight to review.
	if r.extractor == nil {
		return r.fallback(rawText, retailer, purchaseDate, "")
	}

	estimatedCost := r.governor.EstimateCost(r.cfg.EstimatedCallTokens, estimatedOutputTokens)
	decision := r.governor.Check(ctx, scope, estimatedCost)
	if !decision.Allowed {
		r.logger.Info("model call denied by budget",
			"user_id", scope.UserID,
			"reason", decision.Reason)
		return r.fallback(rawText, retailer, purchaseDate, decision.Reason)
	}

	resp, err := r.extractor.Extract(ctx, rawText, retailer)
	if err != nil {
		r.logger.Warn("model extraction failed, degrading to fallback",
			"retailer", retailer,
			"error", err)
		return r.fallback(rawText, retailer, purchaseDate, "")
	}

	actualCost := r.governor.EstimateCost(resp.Usage.InputTokens, resp.Usage.OutputTokens)
	if err := r.governor.RecordUsage(ctx, scope, resp.Usage.InputTokens, resp.Usage.OutputTokens, actualCost); err != nil {
		// Spend tracking is best effort; the extraction itself succeeded.
		r.logger.Error("failed to record model usage",
			"user_id", scope.UserID,
			"error", err)
	}

	if resp.Result.Confidence >= CacheWriteThreshold {
		r.cache.Set(rawText, retailer, resp.Result)
	}

	return candidateFrom(resp.Result, rawText, retailer, purchaseDate, model.MethodModel)
}

// fallback builds the candidate of last resort: raw text as the name,
// flagged for review. reason is the budget denial reason when the model
// tier was never reached, empty when it was reached and failed.
func (r *Resolver) fallback(rawText, retailer string, purchaseDate time.Time, reason string) *model.ParsedCandidate {
	return &model.ParsedCandidate{
		RawText:      rawText,
		Retailer:     retailer,
		Name:         rawText,
		Quantity:     1,
		PurchaseDate: purchaseDate,
		Confidence:   FallbackConfidence,
		Method:       model.MethodFallback,
		DenialReason: reason,
		NeedsReview:  true,
	}
}

func candidateFrom(n model.Normalization, rawText, retailer string, purchaseDate time.Time, method model.ResolutionMethod) *model.ParsedCandidate {
	return &model.ParsedCandidate{
		RawText:      rawText,
		Retailer:     retailer,
		Name:         n.Name,
		Brand:        n.Brand,
		Category:     n.Category,
		Unit:         n.Unit,
		PackageUnit:  n.PackageUnit,
		SKU:          n.SKU,
		Quantity:     n.Quantity,
		PackageSize:  n.PackageSize,
		Price:        n.Price,
		PurchaseDate: purchaseDate,
		Confidence:   n.Confidence,
		Method:       method,
	}
}
