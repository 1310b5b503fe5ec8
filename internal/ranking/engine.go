package ranking

import (
	"math"
	"sort"
	"time"

	"github.com/example/lattice/pkg/models"
)

// Version identifies the weight vector below. Changing any weight
// changes ranked order system-wide and requires a version bump.
const Version = "v2.1"

// DefaultWindowSize is the diversity window used when callers pass 0.
const DefaultWindowSize = 10

// Signal weights, locked for the v2.1 canonical version.
const (
	weightInterest   = 0.20
	weightEngagement = 0.50
	weightRecency    = 0.15
	weightDifficulty = 0.10
	weightDiversity  = -0.05
)

const recencyHalfLifeDivisor = 14 // exp(-days/14), half-life ~9.7 days

// AggregateStats is the caller-supplied per-item input to ranking:
// a pre-aggregated engagement score in [0,1] and the subcategory
// occurrence counts of the current ranking window.
type AggregateStats struct {
	EngagementScore   float64
	SubcategoryCounts map[string]int
}

// ScoredItem is a content item annotated with its ranking score.
type ScoredItem struct {
	models.ContentItem
	Score float64 `json:"score"`
}

// Engine scores and orders content for one user. It is a pure function
// over its inputs and holds no state beyond the clock.
type Engine struct {
	now func() time.Time
}

// NewEngine creates a ranking engine using the real clock.
func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// NewEngineAt creates a ranking engine with a fixed clock, for
// deterministic scoring in tests.
func NewEngineAt(now func() time.Time) *Engine {
	return &Engine{now: now}
}

// Rank scores each item for the user and returns them ordered by score
// descending. Identical inputs always produce identical output; exact
// score ties are broken by ascending content id.
func (e *Engine) Rank(
	user models.UserRankingProfile,
	items []models.ContentItem,
	aggregates map[string]AggregateStats,
	windowSize int,
) []ScoredItem {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	now := e.now()

	scored := make([]ScoredItem, 0, len(items))
	for _, item := range items {
		stats, ok := aggregates[item.ID]
		if !ok {
			// Cold start: neutral engagement, empty window.
			stats = AggregateStats{EngagementScore: 0.5}
		}
		score := e.itemScore(user, item, stats, windowSize, now)
		scored = append(scored, ScoredItem{
			ContentItem: item,
			Score:       clamp(score, 0, 1),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].ID < scored[j].ID
	})
	return scored
}

func (e *Engine) itemScore(
	user models.UserRankingProfile,
	item models.ContentItem,
	stats AggregateStats,
	windowSize int,
	now time.Time,
) float64 {
	interest := interestWeight(user, item)
	engagement := stats.EngagementScore
	recency := recencyDecay(item.CreatedAt, now)
	difficulty := difficultyMatch(user, item)
	diversity := diversityPenalty(item, stats, windowSize)

	return weightInterest*interest +
		weightEngagement*engagement +
		weightRecency*recency +
		weightDifficulty*difficulty +
		weightDiversity*diversity
}

// interestWeight averages the user's weight over the item's
// subcategories; items without subcategories score neutral.
func interestWeight(user models.UserRankingProfile, item models.ContentItem) float64 {
	if len(item.Subcategories) == 0 {
		return 0.5
	}
	var sum float64
	for _, sub := range item.Subcategories {
		sum += user.InterestWeights[sub]
	}
	return sum / float64(len(item.Subcategories))
}

func recencyDecay(createdAt, now time.Time) float64 {
	ageInDays := now.Sub(createdAt).Hours() / 24
	return math.Exp(-ageInDays / recencyHalfLifeDivisor)
}

func difficultyMatch(user models.UserRankingProfile, item models.ContentItem) float64 {
	return 1 - math.Abs(user.DifficultyLevel-item.Difficulty.Level())
}

// diversityPenalty rises once a subcategory appears more than twice in
// the current window: max over subcategories of max(0, seen-2)/window.
func diversityPenalty(item models.ContentItem, stats AggregateStats, windowSize int) float64 {
	var maxSaturation float64
	for _, sub := range item.Subcategories {
		saturation := math.Max(0, float64(stats.SubcategoryCounts[sub]-2)) / float64(windowSize)
		if saturation > maxSaturation {
			maxSaturation = saturation
		}
	}
	return maxSaturation
}

func clamp(v, min, max float64) float64 {
	return math.Max(min, math.Min(max, v))
}
