package aggregator

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/rs/zerolog"

	"github.com/example/lattice/internal/queue"
)

// NewRouter builds the watermill router running the aggregation worker.
// Recoverer keeps a panicking handler from taking the process down;
// Retry redelivers on transient storage errors. The single handler
// goroutine serializes processing, which together with atomic upserts
// guarantees no lost counter updates.
func NewRouter(worker *Worker, subscriber message.Subscriber, logger zerolog.Logger) (*message.Router, error) {
	wmLogger := queue.NewWatermillLogger(logger)

	router, err := message.NewRouter(message.RouterConfig{}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create router: %w", err)
	}

	router.AddMiddleware(middleware.Recoverer)
	router.AddMiddleware(middleware.Retry{
		MaxRetries:      5,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Multiplier:      2,
		Logger:          wmLogger,
	}.Middleware)

	router.AddNoPublisherHandler(
		"interaction-aggregator",
		queue.TopicAggregate,
		subscriber,
		worker.HandleAggregate,
	)

	return router, nil
}
