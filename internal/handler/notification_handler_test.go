package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"promptmart/internal/authz"
	"promptmart/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestNotificationHandler_List(t *testing.T) {
	actor := authz.Actor{ID: uuid.New(), Role: model.RoleCustomer}
	all := []model.Notification{
		{ID: uuid.New(), UserID: actor.ID, Message: "b", Read: true},
		{ID: uuid.New(), UserID: actor.ID, Message: "a"},
	}

	mockService := new(MockNotificationService)
	mockService.On("List", mock.Anything, actor, false).Return(all, nil)
	mockService.On("List", mock.Anything, actor, true).Return(all[1:], nil)
	handler := NewNotificationHandler(mockService, zerolog.Nop())

	w := httptest.NewRecorder()
	handler.List(w, asActor(httptest.NewRequest(http.MethodGet, "/notifications", nil), actor))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody[[]model.Notification](t, w), 2)

	w = httptest.NewRecorder()
	handler.ListUnread(w, asActor(httptest.NewRequest(http.MethodGet, "/notifications/unread", nil), actor))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody[[]model.Notification](t, w), 1)

	mockService.AssertExpectations(t)
}

func TestNotificationHandler_MarkReadAndDelete(t *testing.T) {
	actor := authz.Actor{ID: uuid.New(), Role: model.RoleCustomer}
	id := uuid.New()

	tests := []struct {
		name           string
		method         string
		call           func(h *NotificationHandler) http.HandlerFunc
		mockError      error
		expectedStatus int
	}{
		{name: "Mark read", method: "MarkRead", call: func(h *NotificationHandler) http.HandlerFunc { return h.MarkRead }, expectedStatus: http.StatusOK},
		{name: "Mark read missing", method: "MarkRead", call: func(h *NotificationHandler) http.HandlerFunc { return h.MarkRead }, mockError: model.ErrNotificationGone, expectedStatus: http.StatusNotFound},
		{name: "Delete", method: "Delete", call: func(h *NotificationHandler) http.HandlerFunc { return h.Delete }, expectedStatus: http.StatusOK},
		{name: "Delete anonymous", method: "Delete", call: func(h *NotificationHandler) http.HandlerFunc { return h.Delete }, mockError: model.ErrUnauthenticated, expectedStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockNotificationService)
			mockService.On(tt.method, mock.Anything, actor, id).Return(tt.mockError)
			handler := NewNotificationHandler(mockService, zerolog.Nop())

			req := httptest.NewRequest(http.MethodPut, "/notifications/"+id.String(), nil)
			req.SetPathValue("id", id.String())
			w := httptest.NewRecorder()
			tt.call(handler)(w, asActor(req, actor))

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}
