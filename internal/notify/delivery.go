package notify

import (
	"context"
	"encoding/json"

	"promptmart/internal/messaging"
	"promptmart/internal/model"

	"github.com/rs/zerolog"
)

// LogDelivery returns a consumer handler that delivers notification events to
// the log. Malformed payloads are logged and skipped so they cannot block the
// partition.
func LogDelivery(logger zerolog.Logger) messaging.HandlerFunc {
	logger = logger.With().Str("component", "delivery").Logger()

	return func(ctx context.Context, payload []byte) error {
		var event model.NotificationEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			logger.Warn().Err(err).Int("bytes", len(payload)).Msg("skipping malformed notification event")
			return nil
		}

		entry := logger.Info().
			Str("notification_id", event.ID.String()).
			Str("user_id", event.UserID.String()).
			Str("text", event.Message).
			Time("created_at", event.CreatedAt)
		if event.OrderID != nil {
			entry = entry.Str("order_id", event.OrderID.String())
		}
		entry.Msg("notification delivered")
		return nil
	}
}
