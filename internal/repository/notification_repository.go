package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edulane/lms-api/internal/models"
)

// NotificationRepository handles user notification persistence.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository creates a new notification repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a notification.
func (r *NotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	notification.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO notifications (id, user_id, type, title, message, related_id, is_read, created_at)
        VALUES (:id, :user_id, :type, :title, :message, :related_id, :is_read, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, notification); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// Exists reports whether the user already has a notification of the given
// type for the related entity. Used to keep milestone notifications unique.
func (r *NotificationRepository) Exists(ctx context.Context, userID string, notificationType models.NotificationType, relatedID string) (bool, error) {
	var id string
	const query = `SELECT id FROM notifications WHERE user_id = $1 AND type = $2 AND related_id = $3 LIMIT 1`
	err := r.db.GetContext(ctx, &id, query, userID, notificationType, relatedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check notification: %w", err)
	}
	return true, nil
}

// ListByUser returns a user's notifications, newest first.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	query := `SELECT id, user_id, type, title, message, related_id, is_read, created_at
        FROM notifications WHERE user_id = $1`
	if unreadOnly {
		query += ` AND is_read = FALSE`
	}
	query += ` ORDER BY created_at DESC`
	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, userID); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead flags one of the user's notifications as read.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkAllRead flags every unread notification for a user.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`, userID); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}
