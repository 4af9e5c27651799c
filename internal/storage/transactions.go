package storage

import (
	"context"
	"fmt"

	"github.com/pantryops/restock/internal/common"
	"github.com/pantryops/restock/internal/model"
)

// SaveTransaction persists a purchase event. Replayed lines are detected
// by the content hash; saving a duplicate returns ErrDuplicateEntry and
// leaves the stored row untouched.
func (s *SQLiteStorage) SaveTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}

	if txn.Hash == "" {
		txn.Hash = txn.GenerateHash()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO transactions (
			id, hash, item_id, household_id, date, vendor, quantity, price, confidence, method
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, txn.ID, txn.Hash, txn.ItemID, txn.HouseholdID, txn.Date, txn.Vendor,
		txn.Quantity, txn.Price, txn.Confidence, string(txn.Method))
	if err != nil {
		return fmt.Errorf("failed to insert transaction %s: %w", txn.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("transaction %s: %w", txn.Hash, common.ErrDuplicateEntry)
	}

	return nil
}

// GetTransactionsForItem retrieves an item's purchase history in date
// order, oldest first.
func (s *SQLiteStorage) GetTransactionsForItem(ctx context.Context, itemID string) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(itemID, "itemID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, hash, item_id, household_id, date, vendor, quantity, price, confidence, method
		FROM transactions
		WHERE item_id = ?
		ORDER BY date ASC
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions for item %s: %w", itemID, err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		var txn model.Transaction
		var method string
		if err := rows.Scan(
			&txn.ID,
			&txn.Hash,
			&txn.ItemID,
			&txn.HouseholdID,
			&txn.Date,
			&txn.Vendor,
			&txn.Quantity,
			&txn.Price,
			&txn.Confidence,
			&method,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txn.Date = txn.Date.UTC()
		txn.Method = model.ResolutionMethod(method)
		transactions = append(transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}
