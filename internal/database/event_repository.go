package database

import (
	"fmt"

	"github.com/example/lattice/pkg/models"
)

// EventRepository handles database operations for the interaction audit trail
type EventRepository struct{}

// NewEventRepository creates a new repository instance
func NewEventRepository() *EventRepository {
	return &EventRepository{}
}

// Append writes one interaction event. The table is append-only; rows
// are never updated or deleted. A redelivered task appends a second row.
func (r *EventRepository) Append(event *models.InteractionEvent) error {
	_, err := DB.Exec(`
		INSERT INTO interaction_events (id, user_id, content_id, type, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		event.ID,
		event.UserID,
		event.ContentID,
		event.Type,
		nullableJSON(event.Metadata),
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append interaction event: %w", err)
	}
	return nil
}

// CountByContent returns how many events were recorded for a content item
func (r *EventRepository) CountByContent(contentID string) (int, error) {
	var count int
	err := DB.Get(&count, "SELECT COUNT(*) FROM interaction_events WHERE content_id = $1", contentID)
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

// GetByUser returns the events for one user, newest first
func (r *EventRepository) GetByUser(userID string) ([]models.InteractionEvent, error) {
	var events []models.InteractionEvent
	err := DB.Select(&events, "SELECT * FROM interaction_events WHERE user_id = $1 ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events for user %s: %w", userID, err)
	}
	return events, nil
}

// nullableJSON maps empty metadata to NULL instead of an empty string
func nullableJSON(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
