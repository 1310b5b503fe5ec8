package database

import (
	"fmt"
	"time"

	"github.com/example/lattice/pkg/models"
)

// ContentRepository handles database operations for content items
type ContentRepository struct{}

// NewContentRepository creates a new repository instance
func NewContentRepository() *ContentRepository {
	return &ContentRepository{}
}

const contentColumns = `id, category, subcategories, tags, difficulty, type, body, status,
	expected_read_time_sec, prompt_version, model_version, generated_at,
	source_url, ttl, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanContent(row rowScanner) (*models.ContentItem, error) {
	var item models.ContentItem
	err := row.Scan(
		&item.ID,
		&item.Category,
		&item.Subcategories,
		&item.Tags,
		&item.Difficulty,
		&item.Type,
		&item.Body,
		&item.Status,
		&item.ExpectedReadTimeSec,
		&item.AIMetadata.PromptVersion,
		&item.AIMetadata.ModelVersion,
		&item.AIMetadata.Timestamp,
		&item.SourceURL,
		&item.TTL,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Create inserts a new content item
func (r *ContentRepository) Create(item *models.ContentItem) error {
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	_, err := DB.Exec(`
		INSERT INTO content (
			id, category, subcategories, tags, difficulty, type, body, status,
			expected_read_time_sec, prompt_version, model_version, generated_at,
			source_url, ttl, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`,
		item.ID,
		item.Category,
		item.Subcategories,
		item.Tags,
		item.Difficulty,
		item.Type,
		item.Body,
		item.Status,
		item.ExpectedReadTimeSec,
		item.AIMetadata.PromptVersion,
		item.AIMetadata.ModelVersion,
		item.AIMetadata.Timestamp,
		item.SourceURL,
		item.TTL,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert content: %w", err)
	}
	return nil
}

// GetByID returns a single content item by id
func (r *ContentRepository) GetByID(id string) (*models.ContentItem, error) {
	row := DB.QueryRow("SELECT "+contentColumns+" FROM content WHERE id = $1", id)
	item, err := scanContent(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get content %s: %w", id, err)
	}
	return item, nil
}

// GetActive returns all content items with status active
func (r *ContentRepository) GetActive() ([]models.ContentItem, error) {
	rows, err := DB.Query("SELECT "+contentColumns+" FROM content WHERE status = $1 ORDER BY created_at DESC", models.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to query active content: %w", err)
	}
	defer rows.Close()

	var items []models.ContentItem
	for rows.Next() {
		item, err := scanContent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan content row: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpdateStatus transitions a content item to a new lifecycle status.
// Status transitions are the only mutation content ever receives here.
func (r *ContentRepository) UpdateStatus(id string, status models.ContentStatus) error {
	_, err := DB.Exec(
		"UPDATE content SET status = $1, updated_at = $2 WHERE id = $3",
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update content status: %w", err)
	}
	return nil
}
