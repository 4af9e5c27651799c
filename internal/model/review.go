package model

import "time"

// ReviewItem is a parsed line awaiting a human decision: either an
// ambiguous merge or a low-confidence fallback parse.
type ReviewItem struct {
	CreatedAt       time.Time
	ID              string
	HouseholdID     string
	RawText         string
	Retailer        string
	Reason          string
	SuggestedItemID string
	Candidate       Normalization
}
