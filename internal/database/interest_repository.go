package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/lattice/pkg/models"
)

// InterestRepository handles database operations for user demand signals
type InterestRepository struct{}

// NewInterestRepository creates a new repository instance
func NewInterestRepository() *InterestRepository {
	return &InterestRepository{}
}

// UpsertAdd adds delta to the user's weight for a subcategory, creating
// the row at delta if it does not exist. The additive upsert happens in
// a single statement, so concurrent workers touching the same
// (user, subcategory) key serialize at the storage layer and no update
// is lost.
func (r *InterestRepository) UpsertAdd(userID, subcategory string, delta float64) error {
	now := time.Now().UTC()
	_, err := DB.Exec(`
		INSERT INTO user_interests (user_id, subcategory, weight, last_updated)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, subcategory)
		DO UPDATE SET
			weight = user_interests.weight + $3,
			last_updated = $4
	`, userID, subcategory, delta, now)
	if err != nil {
		return fmt.Errorf("failed to upsert interest weight: %w", err)
	}
	return nil
}

// TopForUser returns the highest-weight interest row for a user, or nil
// when the user has no demand signal yet. Equal weights tie-break on
// subcategory name so the result is deterministic.
func (r *InterestRepository) TopForUser(userID string) (*models.UserInterest, error) {
	var interest models.UserInterest
	err := DB.Get(&interest, `
		SELECT * FROM user_interests
		WHERE user_id = $1
		ORDER BY weight DESC, subcategory ASC
		LIMIT 1
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get top interest for user %s: %w", userID, err)
	}
	return &interest, nil
}

// GetForUser returns all interest rows for a user
func (r *InterestRepository) GetForUser(userID string) ([]models.UserInterest, error) {
	var interests []models.UserInterest
	err := DB.Select(&interests, "SELECT * FROM user_interests WHERE user_id = $1 ORDER BY weight DESC, subcategory ASC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query interests for user %s: %w", userID, err)
	}
	return interests, nil
}
