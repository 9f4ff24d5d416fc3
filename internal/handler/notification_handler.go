package handler

import (
	"net/http"

	"promptmart/internal/authz"
	"promptmart/internal/service"

	"github.com/rs/zerolog"
)

// NotificationHandler handles a user's notification inbox.
type NotificationHandler struct {
	service service.NotificationService
	logger  zerolog.Logger
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(service service.NotificationService, logger zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		logger:  logger.With().Str("handler", "notification").Logger(),
	}
}

// List handles GET /notifications requests.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

// ListUnread handles GET /notifications/unread requests.
func (h *NotificationHandler) ListUnread(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

func (h *NotificationHandler) list(w http.ResponseWriter, r *http.Request, unreadOnly bool) {
	notifications, err := h.service.List(r.Context(), authz.ActorFrom(r.Context()), unreadOnly)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, notifications)
}

// MarkRead handles PUT /notifications/{id}/read requests.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	if err := h.service.MarkRead(r.Context(), authz.ActorFrom(r.Context()), id); err != nil {
		respondError(w, err, h.logger)
		return
	}
	writeMessage(w, http.StatusOK, "Notification marked as read", nil)
}

// Delete handles DELETE /notifications/{id} requests.
func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	if err := h.service.Delete(r.Context(), authz.ActorFrom(r.Context()), id); err != nil {
		respondError(w, err, h.logger)
		return
	}
	writeMessage(w, http.StatusOK, "Notification deleted", nil)
}
