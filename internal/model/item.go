package model

import "time"

// ConfidenceLevel bands the trust in a prediction.
type ConfidenceLevel string

const (
	// ConfidenceHigh indicates a consistent, recent purchase history.
	ConfidenceHigh ConfidenceLevel = "HIGH"
	// ConfidenceMedium indicates a usable but noisier history.
	ConfidenceMedium ConfidenceLevel = "MEDIUM"
	// ConfidenceLow indicates sparse or erratic history.
	ConfidenceLow ConfidenceLevel = "LOW"
)

// Item is a tracked inventory item for a household.
type Item struct {
	CreatedAt        time.Time
	UpdatedAt        time.Time
	PredictedRunOut  *time.Time
	ID               string
	HouseholdID      string
	Name             string
	Brand            string
	Category         string
	SKUs             map[string]string // retailer -> SKU
	Confidence       ConfidenceLevel
	SmoothedInterval float64
	PurchaseCount    int
}

// PredictionResult annotates an item with its predicted run-out.
// It has no identity of its own; writing a result overwrites the item's
// prediction fields.
type PredictionResult struct {
	RunOutDate       time.Time
	Confidence       ConfidenceLevel
	SmoothedInterval float64 // days
	ConsistencyPct   float64 // coefficient of variation, percent
	PurchaseCount    int
	OutliersRemoved  int
	RecentPurchase   bool
}
