package model

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// Transaction represents a single purchase event for a tracked item.
type Transaction struct {
	Date        time.Time
	ID          string
	ItemID      string
	HouseholdID string
	Vendor      string
	Hash        string
	Method      ResolutionMethod
	Quantity    float64
	Price       float64
	Confidence  float64
}

// GenerateHash creates a unique hash for duplicate detection.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%s:%.3f:%.2f:%s",
		t.Date.Format("2006-01-02"),
		t.ItemID,
		t.Quantity,
		t.Price,
		t.Vendor)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
