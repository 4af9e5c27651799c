package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pantryops/restock/internal/common"
	"github.com/pantryops/restock/internal/model"
)

// CreateItem persists a new tracked item and its known SKUs.
func (s *SQLiteStorage) CreateItem(ctx context.Context, item *model.Item) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateItem(item); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO items (id, household_id, name, brand, category, confidence, smoothed_interval, purchase_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, item.ID, item.HouseholdID, item.Name, item.Brand, item.Category,
		string(item.Confidence), item.SmoothedInterval, item.PurchaseCount)
	if err != nil {
		return fmt.Errorf("failed to insert item %s: %w", item.ID, err)
	}

	for retailer, sku := range item.SKUs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO item_skus (item_id, retailer, sku) VALUES (?, ?, ?)
		`, item.ID, retailer, sku); err != nil {
			return fmt.Errorf("failed to insert SKU for item %s: %w", item.ID, err)
		}
	}

	return tx.Commit()
}

// GetItemByID retrieves a single item with its SKU map.
func (s *SQLiteStorage) GetItemByID(ctx context.Context, id string) (*model.Item, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, household_id, name, brand, category, confidence,
			smoothed_interval, purchase_count, predicted_runout, created_at, updated_at
		FROM items WHERE id = ?
	`, id)

	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("item %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get item %s: %w", id, err)
	}

	if err := s.loadSKUs(ctx, item); err != nil {
		return nil, err
	}

	return item, nil
}

// GetItemsForHousehold retrieves all items tracked for a household,
// SKU maps included.
func (s *SQLiteStorage) GetItemsForHousehold(ctx context.Context, householdID string) ([]model.Item, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(householdID, "householdID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, household_id, name, brand, category, confidence,
			smoothed_interval, purchase_count, predicted_runout, created_at, updated_at
		FROM items WHERE household_id = ? ORDER BY name
	`, householdID)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []model.Item
	for rows.Next() {
		item, scanErr := scanItem(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan item: %w", scanErr)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	for i := range items {
		if err := s.loadSKUs(ctx, &items[i]); err != nil {
			return nil, err
		}
	}

	return items, nil
}

// SetItemSKU records a retailer SKU for an item, replacing any previous
// SKU known for that retailer.
func (s *SQLiteStorage) SetItemSKU(ctx context.Context, itemID, retailer, sku string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(itemID, "itemID"); err != nil {
		return err
	}
	if err := validateString(retailer, "retailer"); err != nil {
		return err
	}
	if err := validateString(sku, "sku"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO item_skus (item_id, retailer, sku) VALUES (?, ?, ?)
		ON CONFLICT(item_id, retailer) DO UPDATE SET sku = excluded.sku
	`, itemID, retailer, sku)
	if err != nil {
		return fmt.Errorf("failed to set SKU for item %s: %w", itemID, err)
	}
	return nil
}

// UpdateItemPrediction writes a prediction result onto the item row.
func (s *SQLiteStorage) UpdateItemPrediction(ctx context.Context, itemID string, result *model.PredictionResult) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(itemID, "itemID"); err != nil {
		return err
	}
	if result == nil {
		return fmt.Errorf("%w: result", ErrNilParameter)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE items SET
			predicted_runout = ?,
			confidence = ?,
			smoothed_interval = ?,
			purchase_count = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, result.RunOutDate, string(result.Confidence), result.SmoothedInterval,
		result.PurchaseCount, itemID)
	if err != nil {
		return fmt.Errorf("failed to update prediction for item %s: %w", itemID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("item %s: %w", itemID, common.ErrNotFound)
	}

	return nil
}

// ListHouseholds returns the distinct household IDs with tracked items.
func (s *SQLiteStorage) ListHouseholds(ctx context.Context) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT household_id FROM items ORDER BY household_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list households: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var households []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan household ID: %w", err)
		}
		households = append(households, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating households: %w", err)
	}

	return households, nil
}

// scanner abstracts sql.Row and sql.Rows for shared scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (*model.Item, error) {
	var item model.Item
	var brand, category, confidence sql.NullString
	var predictedRunOut sql.NullTime

	err := row.Scan(
		&item.ID,
		&item.HouseholdID,
		&item.Name,
		&brand,
		&category,
		&confidence,
		&item.SmoothedInterval,
		&item.PurchaseCount,
		&predictedRunOut,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.Brand = brand.String
	item.Category = category.String
	item.Confidence = model.ConfidenceLevel(confidence.String)
	if predictedRunOut.Valid {
		t := predictedRunOut.Time.UTC()
		item.PredictedRunOut = &t
	}
	item.SKUs = make(map[string]string)

	return &item, nil
}

func (s *SQLiteStorage) loadSKUs(ctx context.Context, item *model.Item) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT retailer, sku FROM item_skus WHERE item_id = ?
	`, item.ID)
	if err != nil {
		return fmt.Errorf("failed to query SKUs for item %s: %w", item.ID, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var retailer, sku string
		if err := rows.Scan(&retailer, &sku); err != nil {
			return fmt.Errorf("failed to scan SKU: %w", err)
		}
		item.SKUs[retailer] = sku
	}
	return rows.Err()
}
