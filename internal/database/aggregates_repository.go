package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/lattice/pkg/models"
)

// AggregatesRepository handles database operations for content aggregate counters
type AggregatesRepository struct{}

// NewAggregatesRepository creates a new repository instance
func NewAggregatesRepository() *AggregatesRepository {
	return &AggregatesRepository{}
}

// counterColumns is the allowlist of columns IncrementCounter may touch.
// The column name is interpolated into the query, so it must never come
// from user input without passing this check.
var counterColumns = map[string]bool{
	"helpful_count":     true,
	"challenging_count": true,
	"view_count":        true,
	"save_count":        true,
}

// IncrementCounter atomically inserts-or-increments one counter for the
// content id and stamps last_interaction_at. The single-statement upsert
// is what makes concurrent deliveries for the same content id safe:
// the storage engine serializes them, so no increment is ever lost.
func (r *AggregatesRepository) IncrementCounter(contentID, column string) error {
	if !counterColumns[column] {
		return fmt.Errorf("unknown counter column: %s", column)
	}
	now := time.Now().UTC()
	query := fmt.Sprintf(`
		INSERT INTO content_aggregates (content_id, %[1]s, last_interaction_at, created_at, updated_at)
		VALUES ($1, 1, $2, $2, $2)
		ON CONFLICT (content_id)
		DO UPDATE SET
			%[1]s = content_aggregates.%[1]s + 1,
			last_interaction_at = $2,
			updated_at = $2
	`, column)
	if _, err := DB.Exec(query, contentID, now); err != nil {
		return fmt.Errorf("failed to increment %s for content %s: %w", column, contentID, err)
	}
	return nil
}

// GetByContentID returns the aggregates for one content item, or nil if
// the item has never been interacted with.
func (r *AggregatesRepository) GetByContentID(contentID string) (*models.ContentAggregates, error) {
	var agg models.ContentAggregates
	err := DB.Get(&agg, "SELECT * FROM content_aggregates WHERE content_id = $1", contentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get aggregates for content %s: %w", contentID, err)
	}
	return &agg, nil
}

// GetAll returns aggregates for every content item that has had at least
// one interaction
func (r *AggregatesRepository) GetAll() ([]models.ContentAggregates, error) {
	var aggs []models.ContentAggregates
	err := DB.Select(&aggs, "SELECT * FROM content_aggregates")
	if err != nil {
		return nil, fmt.Errorf("failed to query aggregates: %w", err)
	}
	return aggs, nil
}
