package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"promptmart/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogDelivery(t *testing.T) {
	var buf bytes.Buffer
	handle := LogDelivery(zerolog.New(&buf))

	orderID := uuid.New()
	event := model.NotificationEvent{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Message:   "Order #" + orderID.String() + " is awaiting payment",
		OrderID:   &orderID,
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	require.NoError(t, handle(context.Background(), payload))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "notification delivered", line["message"])
	assert.Equal(t, event.UserID.String(), line["user_id"])
	assert.Equal(t, orderID.String(), line["order_id"])
	assert.Equal(t, event.Message, line["text"])
}

func TestLogDelivery_MalformedPayloadIsSkipped(t *testing.T) {
	var buf bytes.Buffer
	handle := LogDelivery(zerolog.New(&buf))

	assert.NoError(t, handle(context.Background(), []byte("not json")))
	assert.Contains(t, buf.String(), "skipping malformed notification event")
}
