package queue

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"
)

// TopicAggregate carries raw interaction events awaiting aggregation
const TopicAggregate = "interactions.aggregate"

// Bus is the in-process pub/sub decoupling interaction ingestion from
// the aggregation worker. Delivery is at-least-once: the worker ACKs
// only after its handler returns, and failed handling is redelivered.
type Bus struct {
	pubSub *gochannel.GoChannel
}

// NewBus creates the interaction bus
func NewBus(logger zerolog.Logger) *Bus {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		NewWatermillLogger(logger),
	)
	return &Bus{pubSub: pubSub}
}

// Publisher returns the producing side of the bus
func (b *Bus) Publisher() message.Publisher {
	return b.pubSub
}

// Subscriber returns the consuming side of the bus
func (b *Bus) Subscriber() message.Subscriber {
	return b.pubSub
}

// Close shuts the bus down; pending messages are dropped
func (b *Bus) Close() error {
	return b.pubSub.Close()
}

// watermillLogger bridges zerolog to watermill's logger interface
type watermillLogger struct {
	logger zerolog.Logger
}

// NewWatermillLogger wraps a zerolog logger for watermill components
func NewWatermillLogger(logger zerolog.Logger) watermill.LoggerAdapter {
	return watermillLogger{logger: logger}
}

func (l watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.withFields(l.logger.Error().Err(err), fields).Msg(msg)
}

func (l watermillLogger) Info(msg string, fields watermill.LogFields) {
	l.withFields(l.logger.Info(), fields).Msg(msg)
}

func (l watermillLogger) Debug(msg string, fields watermill.LogFields) {
	l.withFields(l.logger.Debug(), fields).Msg(msg)
}

func (l watermillLogger) Trace(msg string, fields watermill.LogFields) {
	l.withFields(l.logger.Trace(), fields).Msg(msg)
}

func (l watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	ctx := l.logger.With()
	for key, value := range fields {
		ctx = ctx.Interface(key, value)
	}
	return watermillLogger{logger: ctx.Logger()}
}

func (l watermillLogger) withFields(event *zerolog.Event, fields watermill.LogFields) *zerolog.Event {
	for key, value := range fields {
		event = event.Interface(key, value)
	}
	return event
}
