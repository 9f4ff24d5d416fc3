package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification is a message addressed to one user. Only Read changes after creation.
type Notification struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	UserID    uuid.UUID  `json:"userId" db:"user_id"`
	Message   string     `json:"message" db:"message"`
	OrderID   *uuid.UUID `json:"orderId,omitempty" db:"order_id"`
	Read      bool       `json:"read" db:"read"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
}

// NotificationEvent is published once a notification has been stored.
type NotificationEvent struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"userId"`
	Message   string     `json:"message"`
	OrderID   *uuid.UUID `json:"orderId,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Event converts n for publication.
func (n Notification) Event() NotificationEvent {
	return NotificationEvent{
		ID:        n.ID,
		UserID:    n.UserID,
		Message:   n.Message,
		OrderID:   n.OrderID,
		CreatedAt: n.CreatedAt,
	}
}
