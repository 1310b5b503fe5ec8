package models

import (
	"encoding/json"
	"time"
)

// InteractionType classifies a raw behavioral event
type InteractionType string

const (
	InteractionViewed      InteractionType = "viewed"
	InteractionSkipped     InteractionType = "skipped"
	InteractionSaved       InteractionType = "saved"
	InteractionRated       InteractionType = "rated"
	InteractionHelpful     InteractionType = "helpful"
	InteractionChallenging InteractionType = "challenging"
)

// Valid reports whether t is one of the six known interaction types
func (t InteractionType) Valid() bool {
	switch t {
	case InteractionViewed, InteractionSkipped, InteractionSaved,
		InteractionRated, InteractionHelpful, InteractionChallenging:
		return true
	}
	return false
}

// CounterColumn returns the aggregate counter incremented by this
// interaction type, or "" when the type carries no counter.
func (t InteractionType) CounterColumn() string {
	switch t {
	case InteractionViewed:
		return "view_count"
	case InteractionSaved:
		return "save_count"
	case InteractionHelpful:
		return "helpful_count"
	case InteractionChallenging:
		return "challenging_count"
	}
	return ""
}

// InterestDelta returns the demand-signal weight added per subcategory
// for this interaction type. Skipped and rated events contribute nothing.
// Challenging is weighted highest to pull foundational content forward.
func (t InteractionType) InterestDelta() float64 {
	switch t {
	case InteractionViewed:
		return 0.1
	case InteractionSaved:
		return 0.5
	case InteractionHelpful:
		return 1.0
	case InteractionChallenging:
		return 2.0
	}
	return 0
}

// InteractionEvent is the append-only record of one user action on one
// content item. Rows are immutable once written.
type InteractionEvent struct {
	ID        string          `json:"id" db:"id"`
	UserID    string          `json:"userId" db:"user_id"`
	ContentID string          `json:"contentId" db:"content_id"`
	Type      InteractionType `json:"type" db:"type"`
	Metadata  json.RawMessage `json:"metadata,omitempty" db:"metadata"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
}
