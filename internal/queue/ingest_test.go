package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/lattice/pkg/models"
)

type capturingPublisher struct {
	topic    string
	messages []*message.Message
	err      error
}

func (p *capturingPublisher) Publish(topic string, messages ...*message.Message) error {
	if p.err != nil {
		return p.err
	}
	p.topic = topic
	p.messages = append(p.messages, messages...)
	return nil
}

func (p *capturingPublisher) Close() error { return nil }

func TestIngestQueuesEvent(t *testing.T) {
	publisher := &capturingPublisher{}
	service := NewIngestionService(publisher, zerolog.Nop())

	ack, err := service.Ingest(context.Background(), "u1", "c1", models.InteractionHelpful, nil)
	require.NoError(t, err)
	assert.Equal(t, "queued", ack.Status)
	assert.NotEmpty(t, ack.TaskID)

	require.Len(t, publisher.messages, 1)
	assert.Equal(t, TopicAggregate, publisher.topic)

	var event models.InteractionEvent
	require.NoError(t, json.Unmarshal(publisher.messages[0].Payload, &event))
	assert.Equal(t, "u1", event.UserID)
	assert.Equal(t, "c1", event.ContentID)
	assert.Equal(t, models.InteractionHelpful, event.Type)
	assert.Equal(t, ack.TaskID, event.ID)
	assert.False(t, event.CreatedAt.IsZero())
}

func TestIngestPassesMetadataThrough(t *testing.T) {
	publisher := &capturingPublisher{}
	service := NewIngestionService(publisher, zerolog.Nop())

	metadata := json.RawMessage(`{"source":"mobile"}`)
	_, err := service.Ingest(context.Background(), "u1", "c1", models.InteractionViewed, metadata)
	require.NoError(t, err)

	var event models.InteractionEvent
	require.NoError(t, json.Unmarshal(publisher.messages[0].Payload, &event))
	assert.JSONEq(t, `{"source":"mobile"}`, string(event.Metadata))
}

func TestIngestRejectsInvalidInput(t *testing.T) {
	service := NewIngestionService(&capturingPublisher{}, zerolog.Nop())

	_, err := service.Ingest(context.Background(), "", "c1", models.InteractionViewed, nil)
	assert.ErrorIs(t, err, ErrInvalidEvent)

	_, err = service.Ingest(context.Background(), "u1", "", models.InteractionViewed, nil)
	assert.ErrorIs(t, err, ErrInvalidEvent)

	_, err = service.Ingest(context.Background(), "u1", "c1", models.InteractionType("teleported"), nil)
	assert.ErrorIs(t, err, ErrInvalidEvent)
}

func TestIngestQueueDown(t *testing.T) {
	publisher := &capturingPublisher{err: errors.New("broker gone")}
	service := NewIngestionService(publisher, zerolog.Nop())

	_, err := service.Ingest(context.Background(), "u1", "c1", models.InteractionViewed, nil)
	assert.ErrorIs(t, err, ErrQueueUnavailable)
}

func TestBusPublishSubscribe(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, err := bus.Subscriber().Subscribe(ctx, TopicAggregate)
	require.NoError(t, err)

	service := NewIngestionService(bus.Publisher(), zerolog.Nop())
	ack, err := service.Ingest(ctx, "u1", "c1", models.InteractionSaved, nil)
	require.NoError(t, err)

	msg := <-messages
	assert.Equal(t, ack.TaskID, msg.UUID)
	msg.Ack()
}
