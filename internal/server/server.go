package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/example/lattice/internal/feed"
	"github.com/example/lattice/internal/orchestrator"
	"github.com/example/lattice/internal/queue"
	"github.com/example/lattice/pkg/models"
)

// Server exposes the feed, interaction, and generation interfaces over HTTP
type Server struct {
	feed         *feed.Service
	ingestion    *queue.IngestionService
	orchestrator *orchestrator.Orchestrator
	logger       zerolog.Logger
	router       chi.Router
}

// New creates the HTTP server and mounts all routes
func New(feedService *feed.Service, ingestion *queue.IngestionService, orch *orchestrator.Orchestrator, logger zerolog.Logger) *Server {
	s := &Server{
		feed:         feedService,
		ingestion:    ingestion,
		orchestrator: orch,
		logger:       logger,
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Get("/feed", s.handleFeed)
	r.Post("/interactions/track", s.handleTrack)
	r.Route("/ai-orchestrator", func(r chi.Router) {
		r.Post("/generate-batch", s.handleGenerateBatch)
		r.Post("/trigger-targeted", s.handleTriggerTargeted)
	})

	s.router = r
	return s
}

// Handler returns the mounted router
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		userID = "guest"
	}

	difficulty := 0.5
	if raw := r.URL.Query().Get("targetDifficulty"); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil {
			difficulty = parsed
		}
	}

	interests := r.URL.Query().Get("interests")
	if interests == "" {
		interests = "software_engineering"
	}

	profile := models.UserRankingProfile{
		ID:              userID,
		InterestWeights: feed.ParseInterests(interests),
		DifficultyLevel: difficulty,
	}

	ranked, err := s.feed.GetPersonalizedFeed(profile, 0)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to build feed")
		writeError(w, http.StatusInternalServerError, "failed to build feed")
		return
	}
	writeJSON(w, http.StatusOK, ranked)
}

type trackRequest struct {
	UserID    string          `json:"userId"`
	ContentID string          `json:"contentId"`
	Type      string          `json:"type"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	var req trackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ack, err := s.ingestion.Ingest(r.Context(), req.UserID, req.ContentID, models.InteractionType(req.Type), req.Metadata)
	switch {
	case errors.Is(err, queue.ErrInvalidEvent):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, queue.ErrQueueUnavailable):
		writeError(w, http.StatusServiceUnavailable, "interaction queue unavailable")
		return
	case err != nil:
		s.logger.Error().Err(err).Msg("failed to ingest interaction")
		writeError(w, http.StatusInternalServerError, "failed to ingest interaction")
		return
	}
	writeJSON(w, http.StatusAccepted, ack)
}

func (s *Server) handleGenerateBatch(w http.ResponseWriter, r *http.Request) {
	var req orchestrator.BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Category == "" {
		writeError(w, http.StatusBadRequest, "category is required")
		return
	}

	items, err := s.orchestrator.GenerateBatch(r.Context(), req)
	if err != nil {
		s.logger.Error().Err(err).Msg("generation batch failed")
		writeError(w, http.StatusInternalServerError, "generation batch failed")
		return
	}
	if items == nil {
		items = []models.ContentItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleTriggerTargeted(w http.ResponseWriter, r *http.Request) {
	items, err := s.orchestrator.RunTargeted(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("targeted generation failed")
		writeError(w, http.StatusInternalServerError, "targeted generation failed")
		return
	}
	if items == nil {
		items = []models.ContentItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
