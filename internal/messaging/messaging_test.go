package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

func TestHeaderCarrier(t *testing.T) {
	msg := &kafka.Message{}
	carrier := newHeaderCarrier(msg)

	assert.Equal(t, "", carrier.Get("traceparent"))

	carrier.Set("traceparent", "00-abc-def-01")
	carrier.Set("baggage", "k=v")
	carrier.Set("traceparent", "00-xyz-def-01")

	assert.Equal(t, "00-xyz-def-01", carrier.Get("traceparent"))
	assert.ElementsMatch(t, []string{"traceparent", "baggage"}, carrier.Keys())
	assert.Len(t, msg.Headers, 2)
}

type testEvent struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

func setupKafka(t *testing.T) []string {
	t.Helper()
	ctx := context.Background()

	container, err := tckafka.Run(ctx,
		"confluentinc/confluent-local:7.8.0",
		tckafka.WithClusterID("test-cluster"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	return brokers
}

func TestProducerConsumer_RoundTrip(t *testing.T) {
	brokers := setupKafka(t)
	topic := "notification.created"

	producer := NewProducer(brokers, topic, zerolog.Nop())
	defer func() { _ = producer.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	// The first write may race topic auto-creation.
	require.Eventually(t, func() bool {
		return producer.Publish(ctx, "user-1", testEvent{ID: "n-1", Message: "hello"}) == nil
	}, 30*time.Second, time.Second)

	consumer := NewConsumer(brokers, topic, "test-group", zerolog.Nop(), WithStartOffset(kafka.FirstOffset))
	defer func() { _ = consumer.Close() }()

	received := make(chan testEvent, 1)
	stop := errors.New("stop")

	err := consumer.Consume(ctx, func(ctx context.Context, payload []byte) error {
		var ev testEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return err
		}
		received <- ev
		return stop
	})
	require.ErrorIs(t, err, stop)

	ev := <-received
	assert.Equal(t, "n-1", ev.ID)
	assert.Equal(t, "hello", ev.Message)
}
