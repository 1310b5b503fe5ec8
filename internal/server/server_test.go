package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/lattice/internal/ai"
	"github.com/example/lattice/internal/database"
	"github.com/example/lattice/internal/feed"
	"github.com/example/lattice/internal/orchestrator"
	"github.com/example/lattice/internal/queue"
	"github.com/example/lattice/internal/ranking"
	"github.com/example/lattice/internal/server"
	"github.com/example/lattice/internal/taxonomy"
	"github.com/example/lattice/pkg/models"
)

type staticGenerator struct {
	response string
}

func (g staticGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	return g.response, nil
}

const unitJSON = `{"category":"software_engineering","subcategories":["backend"],"tags":["postgres"],` +
	`"difficulty":"beginner","type":"concept","body":"# Unit","expectedReadTimeSec":90}`

func setupServer(t *testing.T) http.Handler {
	t.Helper()
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, database.Connect())
	t.Cleanup(func() {
		require.NoError(t, database.Close())
	})

	logger := zerolog.Nop()
	guard := taxonomy.NewGuard(taxonomy.DefaultCatalog(), logger)
	bus := queue.NewBus(logger)
	t.Cleanup(func() {
		require.NoError(t, bus.Close())
	})

	ingestion := queue.NewIngestionService(bus.Publisher(), logger)
	template := ai.NewPromptTemplate("{{topic}}")
	orch := orchestrator.New(guard, staticGenerator{response: unitJSON}, template, "gemini-2.0-flash", "", logger)
	feedService := feed.NewService(ranking.NewEngine())

	return server.New(feedService, ingestion, orch, logger).Handler()
}

func doRequest(t *testing.T, handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	handler := setupServer(t)

	rec := doRequest(t, handler, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestFeedDefaults(t *testing.T) {
	handler := setupServer(t)
	require.NoError(t, database.NewContentRepository().Create(&models.ContentItem{
		ID:            "c1",
		Category:      "software_engineering",
		Subcategories: []string{"backend"},
		Difficulty:    models.DifficultyBeginner,
		Type:          models.TypeConcept,
		Body:          "# One",
		Status:        models.StatusActive,
	}))

	rec := doRequest(t, handler, http.MethodGet, "/feed", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var items []ranking.ScoredItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "c1", items[0].ID)
	assert.Greater(t, items[0].Score, 0.0)
}

func TestTrackInteraction(t *testing.T) {
	handler := setupServer(t)

	rec := doRequest(t, handler, http.MethodPost, "/interactions/track",
		`{"userId":"demo_user_1","contentId":"c1","type":"helpful"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var ack queue.Ack
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	assert.Equal(t, "queued", ack.Status)
	assert.NotEmpty(t, ack.TaskID)
}

func TestTrackInteractionRejectsBadInput(t *testing.T) {
	handler := setupServer(t)

	rec := doRequest(t, handler, http.MethodPost, "/interactions/track",
		`{"userId":"demo_user_1","contentId":"c1","type":"liked"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, handler, http.MethodPost, "/interactions/track",
		`{"userId":"demo_user_1","type":"helpful"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, handler, http.MethodPost, "/interactions/track", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateBatchEndpoint(t *testing.T) {
	handler := setupServer(t)

	rec := doRequest(t, handler, http.MethodPost, "/ai-orchestrator/generate-batch",
		`{"category":"software_engineering","count":2}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var items []models.ContentItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	assert.Len(t, items, 2)
}

func TestGenerateBatchRequiresCategory(t *testing.T) {
	handler := setupServer(t)

	rec := doRequest(t, handler, http.MethodPost, "/ai-orchestrator/generate-batch", `{"count":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTriggerTargetedEndpoint(t *testing.T) {
	handler := setupServer(t)

	rec := doRequest(t, handler, http.MethodPost, "/ai-orchestrator/trigger-targeted", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var items []models.ContentItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, models.DifficultyBeginner, items[0].Difficulty)
}
