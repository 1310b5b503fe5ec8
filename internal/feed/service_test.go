package feed_test

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/lattice/internal/aggregator"
	"github.com/example/lattice/internal/database"
	"github.com/example/lattice/internal/feed"
	"github.com/example/lattice/internal/ranking"
	"github.com/example/lattice/pkg/models"
)

func setupDB(t *testing.T) {
	t.Helper()
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, database.Connect())
	t.Cleanup(func() {
		require.NoError(t, database.Close())
	})
}

func seedContent(t *testing.T, id string, subcategories ...string) {
	t.Helper()
	err := database.NewContentRepository().Create(&models.ContentItem{
		ID:            id,
		Category:      "software_engineering",
		Subcategories: subcategories,
		Tags:          subcategories,
		Difficulty:    models.DifficultyBeginner,
		Type:          models.TypeConcept,
		Body:          "# " + id,
		Status:        models.StatusActive,
	})
	require.NoError(t, err)
}

func TestEngagementScore(t *testing.T) {
	cases := []struct {
		name string
		agg  models.ContentAggregates
		want float64
	}{
		{"no interactions", models.ContentAggregates{}, 0.5},
		{"views only", models.ContentAggregates{ViewCount: 40}, 0.5},
		{"all helpful", models.ContentAggregates{HelpfulCount: 10}, 1.0},
		{"all challenging", models.ContentAggregates{ChallengingCount: 10}, 0.0},
		{"balanced", models.ContentAggregates{HelpfulCount: 2, ChallengingCount: 1, ViewCount: 7}, 0.5},
		{"mostly helpful", models.ContentAggregates{HelpfulCount: 3, ViewCount: 7}, 0.95},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, feed.EngagementScore(tc.agg), 1e-9)
		})
	}
}

func TestParseInterests(t *testing.T) {
	weights := feed.ParseInterests("backend, databases:2.5 ,, devops:bogus")
	assert.Equal(t, map[string]float64{
		"backend":   1.0,
		"databases": 2.5,
		"devops":    1.0,
	}, weights)

	assert.Empty(t, feed.ParseInterests(""))
}

func TestGetPersonalizedFeedRanksEngagedContentFirst(t *testing.T) {
	setupDB(t)
	seedContent(t, "liked", "backend")
	seedContent(t, "disliked", "backend")

	aggregates := database.NewAggregatesRepository()
	for i := 0; i < 5; i++ {
		require.NoError(t, aggregates.IncrementCounter("liked", "helpful_count"))
		require.NoError(t, aggregates.IncrementCounter("disliked", "challenging_count"))
	}

	service := feed.NewService(ranking.NewEngine())
	items, err := service.GetPersonalizedFeed(models.UserRankingProfile{
		ID:              "guest",
		InterestWeights: map[string]float64{"backend": 1.0},
		DifficultyLevel: 0.2,
	}, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "liked", items[0].ID)
	assert.Equal(t, "disliked", items[1].ID)
	assert.Greater(t, items[0].Score, items[1].Score)
}

func TestGetPersonalizedFeedColdStartNeutral(t *testing.T) {
	setupDB(t)
	seedContent(t, "fresh", "backend")

	service := feed.NewService(ranking.NewEngine())
	items, err := service.GetPersonalizedFeed(models.UserRankingProfile{
		ID:              "guest",
		InterestWeights: map[string]float64{"backend": 0.5},
		DifficultyLevel: 0.2,
	}, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)

	// interest .2*.5 + engagement .5*.5 + recency ~.15 + difficulty .1*1
	want := 0.2*0.5 + 0.5*0.5 + 0.15 + 0.1
	assert.InDelta(t, want, items[0].Score, 1e-4)
}

// A helpful interaction must flow from the queue payload through the
// aggregation worker into both the feed ranking and the demand signals.
func TestInteractionFlowsIntoFeedAndDemand(t *testing.T) {
	setupDB(t)
	seedContent(t, "queues-101", "backend")
	seedContent(t, "css-basics", "frontend")

	worker := aggregator.NewWorker(zerolog.Nop())
	payload, err := json.Marshal(models.InteractionEvent{
		ID:        uuid.NewString(),
		UserID:    "demo_user_1",
		ContentID: "queues-101",
		Type:      models.InteractionHelpful,
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	require.NoError(t, worker.HandleAggregate(message.NewMessage(uuid.NewString(), payload)))

	agg, err := database.NewAggregatesRepository().GetByContentID("queues-101")
	require.NoError(t, err)
	require.NotNil(t, agg)
	assert.Equal(t, 1, agg.HelpfulCount)

	top, err := database.NewInterestRepository().TopForUser("demo_user_1")
	require.NoError(t, err)
	require.NotNil(t, top)
	assert.Equal(t, "backend", top.Subcategory)
	assert.InDelta(t, 1.0, top.Weight, 1e-9)

	service := feed.NewService(ranking.NewEngine())
	items, err := service.GetPersonalizedFeed(models.UserRankingProfile{
		ID:              "demo_user_1",
		InterestWeights: map[string]float64{"backend": top.Weight},
		DifficultyLevel: 0.2,
	}, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "queues-101", items[0].ID)
}
