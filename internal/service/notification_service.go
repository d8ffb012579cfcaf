package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/edulane/lms-api/internal/models"
	appErrors "github.com/edulane/lms-api/pkg/errors"
)

type notificationRepo interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) error
}

// NotificationService reads and writes user notifications. Writes are
// best-effort: a failed notification is logged, never surfaced to the
// triggering flow.
type NotificationService struct {
	notifications notificationRepo
	logger        *zap.Logger
}

// NewNotificationService constructs NotificationService.
func NewNotificationService(notifications notificationRepo, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{notifications: notifications, logger: logger}
}

// Notify stores a notification for a user, swallowing failures.
func (s *NotificationService) Notify(ctx context.Context, userID string, notificationType models.NotificationType, title, message, relatedID string) {
	notification := &models.Notification{
		UserID:    userID,
		Type:      notificationType,
		Title:     title,
		Message:   message,
		RelatedID: relatedID,
	}
	if err := s.notifications.Create(ctx, notification); err != nil {
		s.logger.Warn("notification write failed",
			zap.String("user_id", userID),
			zap.String("type", string(notificationType)),
			zap.Error(err))
	}
}

// List returns the requester's notifications.
func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	notifications, err := s.notifications.ListByUser(ctx, userID, unreadOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	return notifications, nil
}

// MarkRead flags one notification. Users can only touch their own.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	if err := s.notifications.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification")
	}
	return nil
}

// MarkAllRead flags every unread notification of the requester.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	if err := s.notifications.MarkAllRead(ctx, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications")
	}
	return nil
}
