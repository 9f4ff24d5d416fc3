package service

import (
	"context"
	"fmt"

	"promptmart/internal/authz"
	"promptmart/internal/model"
	"promptmart/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// notificationService implements NotificationService. Every query is scoped
// to the actor, so a foreign notification reads as missing.
type notificationService struct {
	repo   repository.NotificationRepository
	authz  authz.Authorizer
	logger zerolog.Logger
}

// NewNotificationService creates a new notification service.
func NewNotificationService(repo repository.NotificationRepository, authorizer authz.Authorizer, logger zerolog.Logger) NotificationService {
	return &notificationService{
		repo:   repo,
		authz:  authorizer,
		logger: logger.With().Str("service", "notification").Logger(),
	}
}

func (s *notificationService) List(ctx context.Context, actor authz.Actor, unreadOnly bool) ([]model.Notification, error) {
	if actor.ID == uuid.Nil {
		return nil, model.ErrUnauthenticated
	}
	notifications, err := s.repo.ListByUser(ctx, actor.ID, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (s *notificationService) MarkRead(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	if err := s.authz.Require(actor, authz.ActNotificationEdit, authz.Owned(actor.ID)); err != nil {
		return err
	}
	ok, err := s.repo.MarkRead(ctx, actor.ID, id)
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrNotificationGone
	}
	return nil
}

func (s *notificationService) Delete(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	if err := s.authz.Require(actor, authz.ActNotificationEdit, authz.Owned(actor.ID)); err != nil {
		return err
	}
	ok, err := s.repo.Delete(ctx, actor.ID, id)
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrNotificationGone
	}
	s.logger.Debug().Str("notification_id", id.String()).Msg("notification deleted")
	return nil
}
