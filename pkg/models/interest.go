package models

import "time"

// UserInterest is the accumulated demand signal for one user on one
// subcategory. The weight only ever grows under the current policy;
// no decay is applied.
type UserInterest struct {
	UserID      string    `json:"user_id" db:"user_id"`
	Subcategory string    `json:"subcategory" db:"subcategory"`
	Weight      float64   `json:"weight" db:"weight"`
	LastUpdated time.Time `json:"last_updated" db:"last_updated"`
}

// UserRankingProfile is the request-scoped view of a user handed to the
// ranking engine. It owns no persistent state.
type UserRankingProfile struct {
	ID              string             `json:"id"`
	InterestWeights map[string]float64 `json:"interestWeights"`
	DifficultyLevel float64            `json:"difficultyLevel"`
}
