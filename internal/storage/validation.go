// Package storage provides the data persistence layer for the restock pipeline.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pantryops/restock/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrInvalidItem        = errors.New("invalid item")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidReview      = errors.New("invalid review")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateItem validates an item before persisting it.
func validateItem(item *model.Item) error {
	if item == nil {
		return fmt.Errorf("%w: item", ErrNilParameter)
	}
	if item.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidItem)
	}
	if item.HouseholdID == "" {
		return fmt.Errorf("%w: missing household ID", ErrInvalidItem)
	}
	if strings.TrimSpace(item.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidItem)
	}
	return nil
}

// validateTransaction validates a transaction before persisting it.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTransaction)
	}
	if txn.ItemID == "" {
		return fmt.Errorf("%w: missing item ID", ErrInvalidTransaction)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	if txn.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidTransaction)
	}
	if txn.Confidence < 0 || txn.Confidence > 1 {
		return fmt.Errorf("%w: confidence must be between 0 and 1", ErrInvalidTransaction)
	}
	return nil
}

// validateReview validates a review queue entry.
func validateReview(review *model.ReviewItem) error {
	if review == nil {
		return fmt.Errorf("%w: review", ErrNilParameter)
	}
	if review.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidReview)
	}
	if review.HouseholdID == "" {
		return fmt.Errorf("%w: missing household ID", ErrInvalidReview)
	}
	if review.RawText == "" {
		return fmt.Errorf("%w: missing raw text", ErrInvalidReview)
	}
	return nil
}
