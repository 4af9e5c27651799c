package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pantryops/restock/internal/model"
)

// SaveReview queues a parsed line for human review.
func (s *SQLiteStorage) SaveReview(ctx context.Context, review *model.ReviewItem) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateReview(review); err != nil {
		return err
	}

	candidateJSON, err := json.Marshal(review.Candidate)
	if err != nil {
		return fmt.Errorf("failed to marshal review candidate: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reviews (id, household_id, raw_text, retailer, reason, suggested_item_id, candidate)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, review.ID, review.HouseholdID, review.RawText, review.Retailer,
		review.Reason, review.SuggestedItemID, string(candidateJSON))
	if err != nil {
		return fmt.Errorf("failed to insert review %s: %w", review.ID, err)
	}

	return nil
}

// GetPendingReviews retrieves a household's unresolved review queue,
// oldest first.
func (s *SQLiteStorage) GetPendingReviews(ctx context.Context, householdID string) ([]model.ReviewItem, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(householdID, "householdID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, household_id, raw_text, retailer, reason, suggested_item_id, candidate, created_at
		FROM reviews
		WHERE household_id = ? AND status = 'pending'
		ORDER BY created_at ASC
	`, householdID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var reviews []model.ReviewItem
	for rows.Next() {
		var review model.ReviewItem
		var retailer, reason, suggested sql.NullString
		var candidateJSON string
		if err := rows.Scan(
			&review.ID,
			&review.HouseholdID,
			&review.RawText,
			&retailer,
			&reason,
			&suggested,
			&candidateJSON,
			&review.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}

		review.Retailer = retailer.String
		review.Reason = reason.String
		review.SuggestedItemID = suggested.String
		if candidateJSON != "" {
			if err := json.Unmarshal([]byte(candidateJSON), &review.Candidate); err != nil {
				return nil, fmt.Errorf("failed to unmarshal review candidate %s: %w", review.ID, err)
			}
		}

		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}

	return reviews, nil
}
