package feed

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/example/lattice/internal/database"
	"github.com/example/lattice/internal/ranking"
	"github.com/example/lattice/pkg/models"
)

// Service assembles the ranking engine's inputs from the content store
// and returns the personalized feed.
type Service struct {
	content    *database.ContentRepository
	aggregates *database.AggregatesRepository
	engine     *ranking.Engine
}

// NewService creates a feed service
func NewService(engine *ranking.Engine) *Service {
	return &Service{
		content:    database.NewContentRepository(),
		aggregates: database.NewAggregatesRepository(),
		engine:     engine,
	}
}

// GetPersonalizedFeed loads active content and aggregates, pre-computes
// each item's engagement score, and ranks everything for the user.
func (s *Service) GetPersonalizedFeed(profile models.UserRankingProfile, windowSize int) ([]ranking.ScoredItem, error) {
	items, err := s.content.GetActive()
	if err != nil {
		return nil, fmt.Errorf("failed to load active content: %w", err)
	}

	rows, err := s.aggregates.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load aggregates: %w", err)
	}

	aggregates := make(map[string]ranking.AggregateStats, len(rows))
	for _, agg := range rows {
		aggregates[agg.ContentID] = ranking.AggregateStats{
			EngagementScore: EngagementScore(agg),
		}
	}

	return s.engine.Rank(profile, items, aggregates, windowSize), nil
}

// EngagementScore folds raw counters into the [0,1] engagement signal:
// (helpful*1.5 - challenging*3.0) / total interactions, shifted by +0.5
// so no-feedback content sits at the neutral midpoint. Feedback weighs
// far more than mere viewing.
func EngagementScore(agg models.ContentAggregates) float64 {
	total := agg.HelpfulCount + agg.ChallengingCount + agg.ViewCount
	var raw float64
	if total > 0 {
		raw = (float64(agg.HelpfulCount)*1.5 - float64(agg.ChallengingCount)*3.0) / float64(total)
	}
	return math.Max(0, math.Min(1, raw+0.5))
}

// ParseInterests parses an interest specification of comma separated
// names or name:weight pairs; weight defaults to 1.0.
func ParseInterests(raw string) map[string]float64 {
	weights := make(map[string]float64)
	for _, pair := range strings.Split(raw, ",") {
		name, value, hasWeight := strings.Cut(pair, ":")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		weight := 1.0
		if hasWeight {
			if parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
				weight = parsed
			}
		}
		weights[name] = weight
	}
	return weights
}
