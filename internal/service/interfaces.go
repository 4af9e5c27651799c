// Package service defines the persistence contracts shared by the
// pipeline's components.
package service

import (
	"context"

	"github.com/pantryops/restock/internal/model"
)

// Storage defines the contract for the item/transaction persistence layer.
// Unlike the cache and usage stores, failures here are hard errors:
// silently dropping a transaction would corrupt prediction accuracy.
type Storage interface {
	// Item operations
	CreateItem(ctx context.Context, item *model.Item) error
	GetItemByID(ctx context.Context, id string) (*model.Item, error)
	GetItemsForHousehold(ctx context.Context, householdID string) ([]model.Item, error)
	SetItemSKU(ctx context.Context, itemID, retailer, sku string) error
	UpdateItemPrediction(ctx context.Context, itemID string, result *model.PredictionResult) error

	// Transaction operations
	SaveTransaction(ctx context.Context, txn *model.Transaction) error
	GetTransactionsForItem(ctx context.Context, itemID string) ([]model.Transaction, error)

	// Review queue operations
	SaveReview(ctx context.Context, review *model.ReviewItem) error
	GetPendingReviews(ctx context.Context, householdID string) ([]model.ReviewItem, error)

	// Household operations
	ListHouseholds(ctx context.Context) ([]string, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}
