package aggregator

import (
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/example/lattice/internal/database"
	"github.com/example/lattice/pkg/models"
)

// Worker consumes queued interaction events and folds them into the
// durable counters and demand signals. Every step is idempotent-safe
// under redelivery: the audit append creates an independent row, and
// both upserts are single atomic statements.
type Worker struct {
	events     *database.EventRepository
	aggregates *database.AggregatesRepository
	interests  *database.InterestRepository
	content    *database.ContentRepository
	logger     zerolog.Logger
}

// NewWorker creates an aggregation worker over the repositories
func NewWorker(logger zerolog.Logger) *Worker {
	return &Worker{
		events:     database.NewEventRepository(),
		aggregates: database.NewAggregatesRepository(),
		interests:  database.NewInterestRepository(),
		content:    database.NewContentRepository(),
		logger:     logger,
	}
}

// HandleAggregate processes one queued event. Returning an error NACKs
// the message so the router redelivers it; returning nil ACKs it.
// Malformed payloads are permanent faults: they are logged and dropped,
// never retried.
func (w *Worker) HandleAggregate(msg *message.Message) error {
	var event models.InteractionEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		w.logger.Warn().Err(err).Str("message_id", msg.UUID).Msg("dropping malformed interaction payload")
		return nil
	}
	if !event.Type.Valid() {
		w.logger.Warn().Str("type", string(event.Type)).Str("message_id", msg.UUID).Msg("dropping event with unknown interaction type")
		return nil
	}

	w.logger.Debug().
		Str("type", string(event.Type)).
		Str("content_id", event.ContentID).
		Msg("processing interaction")

	// 1. Append to the permanent interaction log. The audit row gets
	// its own id so a redelivered task appends a second row instead of
	// colliding with the first; duplicate rows are the accepted cost of
	// at-least-once delivery.
	row := event
	row.ID = uuid.NewString()
	if err := w.events.Append(&row); err != nil {
		return err
	}

	// 2. Increment the aggregate counter mapped to the event type.
	// Skipped and rated events carry no counter.
	if column := event.Type.CounterColumn(); column != "" {
		if err := w.aggregates.IncrementCounter(event.ContentID, column); err != nil {
			return err
		}
	}

	// 3. Fold the event into the user's demand signal.
	return w.updateUserInterests(event)
}

func (w *Worker) updateUserInterests(event models.InteractionEvent) error {
	item, err := w.content.GetByID(event.ContentID)
	if errors.Is(err, sql.ErrNoRows) {
		// Content gone; counters above still count, the demand
		// signal just has nothing to attach to.
		w.logger.Debug().Str("content_id", event.ContentID).Msg("content not found, skipping interest update")
		return nil
	}
	if err != nil {
		return err
	}

	delta := event.Type.InterestDelta()
	if delta == 0 || len(item.Subcategories) == 0 {
		return nil
	}

	for _, sub := range item.Subcategories {
		if err := w.interests.UpsertAdd(event.UserID, sub, delta); err != nil {
			return err
		}
	}

	w.logger.Debug().
		Str("user_id", event.UserID).
		Strs("subcategories", item.Subcategories).
		Float64("delta", delta).
		Msg("updated interest weights")
	return nil
}
