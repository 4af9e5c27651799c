// Package model defines the core data structures for the restock pipeline.
package model

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"
)

// ResolutionMethod identifies which cascade tier produced a candidate.
type ResolutionMethod string

const (
	// MethodRule indicates a deterministic retailer rule parsed the line.
	MethodRule ResolutionMethod = "rule"
	// MethodCache indicates the normalization cache supplied the result.
	MethodCache ResolutionMethod = "cache"
	// MethodModel indicates the governed language model extracted the result.
	MethodModel ResolutionMethod = "model"
	// MethodFallback indicates no tier produced a usable result.
	MethodFallback ResolutionMethod = "fallback"
)

// Normalization is the cacheable portion of a parsed line: the product
// interpretation without the per-purchase context.
type Normalization struct {
	Name        string  `json:"name"`
	Brand       string  `json:"brand,omitempty"`
	Category    string  `json:"category,omitempty"`
	Unit        string  `json:"unit,omitempty"`
	PackageUnit string  `json:"package_unit,omitempty"`
	SKU         string  `json:"sku,omitempty"`
	Quantity    float64 `json:"quantity"`
	PackageSize float64 `json:"package_size,omitempty"`
	Price       float64 `json:"price,omitempty"`
	Confidence  float64 `json:"confidence"`
}

// ParsedCandidate is one line's structured interpretation. It is created once
// per input line and never mutated after the cascade returns it; only the
// transaction and item state derived from it are persisted.
type ParsedCandidate struct {
	PurchaseDate time.Time
	RawText      string
	Retailer     string
	Name         string
	Brand        string
	Category     string
	Unit         string
	PackageUnit  string
	SKU          string
	Method       ResolutionMethod
	DenialReason string
	Merge        *MergeOutcome
	Quantity     float64
	PackageSize  float64
	Price        float64
	Confidence   float64
	NeedsReview  bool
}

// Normalization extracts the cacheable fields of the candidate.
func (c *ParsedCandidate) Normalization() Normalization {
	return Normalization{
		Name:        c.Name,
		Brand:       c.Brand,
		Category:    c.Category,
		Unit:        c.Unit,
		PackageUnit: c.PackageUnit,
		SKU:         c.SKU,
		Quantity:    c.Quantity,
		PackageSize: c.PackageSize,
		Price:       c.Price,
		Confidence:  c.Confidence,
	}
}

// CacheKey derives the deterministic cache key for a (rawText, retailer)
// pair. Identical pairs always produce the same key.
func CacheKey(rawText, retailer string) string {
	data := strings.ToLower(rawText) + "_" + strings.ToLower(retailer)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// MergeDecision is the outcome class of duplicate resolution.
type MergeDecision string

const (
	// DecisionMerge attaches the candidate to an existing item.
	DecisionMerge MergeDecision = "merge"
	// DecisionCreate tracks the candidate as a new item.
	DecisionCreate MergeDecision = "create"
	// DecisionReview defers the candidate to human review.
	DecisionReview MergeDecision = "review"
)

// MergeOutcome records how a candidate was matched against existing items.
type MergeOutcome struct {
	ItemID   string
	Reason   string
	Decision MergeDecision
	Auto     bool
}
