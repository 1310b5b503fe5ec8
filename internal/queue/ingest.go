package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/example/lattice/pkg/models"
)

// ErrQueueUnavailable means the enqueue itself failed. Ingestion has no
// synchronous fallback write, so the whole request fails.
var ErrQueueUnavailable = errors.New("interaction queue unavailable")

// ErrInvalidEvent means the event is malformed at the API boundary
// (missing ids or unknown interaction type).
var ErrInvalidEvent = errors.New("invalid interaction event")

// Ack acknowledges a queued interaction
type Ack struct {
	Status string `json:"status"`
	TaskID string `json:"taskId"`
}

// IngestionService accepts raw behavioral events and enqueues them for
// aggregation. It performs no storage writes of its own; durable
// logging happens in the worker, keeping ingestion on the fast path.
type IngestionService struct {
	publisher message.Publisher
	logger    zerolog.Logger
}

// NewIngestionService creates an ingestion service over a publisher
func NewIngestionService(publisher message.Publisher, logger zerolog.Logger) *IngestionService {
	return &IngestionService{publisher: publisher, logger: logger}
}

// Ingest validates, stamps, and enqueues one interaction event. The
// returned task id identifies the aggregation task for tracing.
func (s *IngestionService) Ingest(ctx context.Context, userID, contentID string, interactionType models.InteractionType, metadata json.RawMessage) (*Ack, error) {
	if userID == "" || contentID == "" {
		return nil, fmt.Errorf("%w: userId and contentId are required", ErrInvalidEvent)
	}
	if !interactionType.Valid() {
		return nil, fmt.Errorf("%w: unknown interaction type %q", ErrInvalidEvent, interactionType)
	}

	event := models.InteractionEvent{
		ID:        uuid.NewString(),
		UserID:    userID,
		ContentID: contentID,
		Type:      interactionType,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.SetContext(ctx)
	if err := s.publisher.Publish(TopicAggregate, msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
	}

	s.logger.Debug().
		Str("task_id", event.ID).
		Str("type", string(interactionType)).
		Str("content_id", contentID).
		Msg("interaction queued")

	return &Ack{Status: "queued", TaskID: event.ID}, nil
}
