// Package merge decides whether a parsed candidate represents an existing
// tracked item or a new one.
package merge

import (
	"strings"

	"github.com/pantryops/restock/internal/model"
)

// ReviewConfidenceCap is the ceiling applied to a candidate's confidence
// when its match is ambiguous, forcing it through human review instead of
// a silent merge.
const ReviewConfidenceCap = 0.7

// Match reasons recorded on the outcome.
const (
	ReasonSKUMatch     = "sku_match"
	ReasonNameBrand    = "name_brand_match"
	ReasonBrandDiffers = "name_match_brand_differs"
	ReasonNoMatch      = "no_match"
)

// Resolve evaluates the matching hierarchy against a household's existing
// items: retailer SKU mapping, then (name, brand), then name alone. The
// hierarchy is deterministic and total; every candidate resolves to merge,
// create, or review. Items are scanned in the order given, so callers
// should pass a stable ordering.
func Resolve(candidate *model.ParsedCandidate, items []model.Item) model.MergeOutcome {
	// Step 1: exact SKU/retailer mapping.
	if candidate.SKU != "" {
		retailer := strings.ToLower(candidate.Retailer)
		for _, item := range items {
			if sku, ok := item.SKUs[retailer]; ok && sku == candidate.SKU {
				return model.MergeOutcome{
					Decision: model.DecisionMerge,
					ItemID:   item.ID,
					Reason:   ReasonSKUMatch,
					Auto:     true,
				}
			}
		}
	}

	// Step 2: case-insensitive (canonical name, brand).
	for _, item := range items {
		if strings.EqualFold(item.Name, candidate.Name) && strings.EqualFold(item.Brand, candidate.Brand) {
			return model.MergeOutcome{
				Decision: model.DecisionMerge,
				ItemID:   item.ID,
				Reason:   ReasonNameBrand,
				Auto:     true,
			}
		}
	}

	// Step 3: name alone with brand absent or different is only a
	// potential match; a human decides.
	for _, item := range items {
		if strings.EqualFold(item.Name, candidate.Name) {
			return model.MergeOutcome{
				Decision: model.DecisionReview,
				ItemID:   item.ID,
				Reason:   ReasonBrandDiffers,
				Auto:     false,
			}
		}
	}

	return model.MergeOutcome{
		Decision: model.DecisionCreate,
		Reason:   ReasonNoMatch,
	}
}

// Apply copies the candidate with the outcome attached, capping confidence
// and setting the review flag for ambiguous matches and lifting confidence
// to certainty for SKU matches.
func Apply(candidate model.ParsedCandidate, outcome model.MergeOutcome) model.ParsedCandidate {
	candidate.Merge = &outcome

	switch {
	case outcome.Decision == model.DecisionReview:
		if candidate.Confidence > ReviewConfidenceCap {
			candidate.Confidence = ReviewConfidenceCap
		}
		candidate.NeedsReview = true
	case outcome.Reason == ReasonSKUMatch:
		candidate.Confidence = 1.0
	}

	return candidate
}
