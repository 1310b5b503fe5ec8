package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// ContentStatus represents the lifecycle state of a content item
type ContentStatus string

const (
	StatusActive   ContentStatus = "active"
	StatusStale    ContentStatus = "stale"
	StatusArchived ContentStatus = "archived"
)

// ContentType represents the editorial shape of a content item
type ContentType string

const (
	TypeConcept ContentType = "concept"
	TypeExample ContentType = "example"
	TypeProject ContentType = "project"
	TypeNews    ContentType = "news"
	TypeFunFact ContentType = "fun-fact"
)

// Difficulty represents the target audience level of a content item
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Valid reports whether d is one of the three known levels
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// Level returns the normalized [0,1] position of the difficulty.
// Unknown values map to the midpoint 0.5.
func (d Difficulty) Level() float64 {
	switch d {
	case DifficultyBeginner:
		return 0.2
	case DifficultyIntermediate:
		return 0.6
	case DifficultyAdvanced:
		return 1.0
	}
	return 0.5
}

// StringList stores an ordered list of strings as a comma separated column
type StringList []string

// Value implements driver.Valuer
func (l StringList) Value() (driver.Value, error) {
	return strings.Join(l, ","), nil
}

// Scan implements sql.Scanner
func (l *StringList) Scan(src interface{}) error {
	var s string
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}
	if s == "" {
		*l = nil
		return nil
	}
	*l = strings.Split(s, ",")
	return nil
}

// AIMetadata describes how a content item was generated
type AIMetadata struct {
	PromptVersion string `json:"prompt_version" db:"prompt_version"`
	ModelVersion  string `json:"model_version" db:"model_version"`
	Timestamp     string `json:"timestamp" db:"generated_at"`
}

// ContentItem represents a single unit of learning content
type ContentItem struct {
	ID                  string        `json:"id" db:"id"`
	Category            string        `json:"category" db:"category"`
	Subcategories       StringList    `json:"subcategories" db:"subcategories"`
	Tags                StringList    `json:"tags" db:"tags"`
	Difficulty          Difficulty    `json:"difficulty" db:"difficulty"`
	Type                ContentType   `json:"type" db:"type"`
	Body                string        `json:"body" db:"body"`
	Status              ContentStatus `json:"status" db:"status"`
	ExpectedReadTimeSec int           `json:"expectedReadTimeSec" db:"expected_read_time_sec"`
	AIMetadata          AIMetadata    `json:"aiMetadata" db:"ai_metadata"`
	SourceURL           string        `json:"sourceUrl,omitempty" db:"source_url"`
	TTL                 int           `json:"ttl,omitempty" db:"ttl"`
	CreatedAt           time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt           time.Time     `json:"updatedAt" db:"updated_at"`
}

// ContentAggregates holds the monotone interaction counters for one content item
type ContentAggregates struct {
	ContentID         string     `json:"content_id" db:"content_id"`
	HelpfulCount      int        `json:"helpful_count" db:"helpful_count"`
	ChallengingCount  int        `json:"challenging_count" db:"challenging_count"`
	ViewCount         int        `json:"view_count" db:"view_count"`
	SaveCount         int        `json:"save_count" db:"save_count"`
	LastInteractionAt *time.Time `json:"last_interaction_at" db:"last_interaction_at"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}
