package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edulane/lms-api/internal/models"
)

// LiveSessionRepository handles scheduled course meetings.
type LiveSessionRepository struct {
	db *sqlx.DB
}

// NewLiveSessionRepository creates a new live session repository.
func NewLiveSessionRepository(db *sqlx.DB) *LiveSessionRepository {
	return &LiveSessionRepository{db: db}
}

// Create inserts a scheduled session.
func (r *LiveSessionRepository) Create(ctx context.Context, session *models.LiveSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	session.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO live_sessions
        (id, course_id, title, description, scheduled_at, duration_minutes, meeting_url, meeting_provider, created_by, created_at)
        VALUES (:id, :course_id, :title, :description, :scheduled_at, :duration_minutes, :meeting_url, :meeting_provider, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create live session: %w", err)
	}
	return nil
}

// ListByCourse returns a course's sessions, soonest first.
func (r *LiveSessionRepository) ListByCourse(ctx context.Context, courseID string) ([]models.LiveSession, error) {
	const query = `SELECT id, course_id, title, description, scheduled_at, duration_minutes, meeting_url, meeting_provider, created_by, created_at
        FROM live_sessions WHERE course_id = $1 ORDER BY scheduled_at ASC`
	var sessions []models.LiveSession
	if err := r.db.SelectContext(ctx, &sessions, query, courseID); err != nil {
		return nil, fmt.Errorf("list live sessions: %w", err)
	}
	return sessions, nil
}

// ListScheduledBetweenForStudent returns upcoming sessions across a student's
// enrolled courses as calendar events.
func (r *LiveSessionRepository) ListScheduledBetweenForStudent(ctx context.Context, studentID string, from, to time.Time) ([]models.CalendarEvent, error) {
	const query = `SELECT s.id, s.title, s.course_id, c.title AS course_title, s.scheduled_at
        FROM live_sessions s
        JOIN courses c ON c.id = s.course_id
        JOIN enrollments e ON e.course_id = c.id AND e.student_id = $1
        WHERE s.scheduled_at >= $2 AND s.scheduled_at <= $3
        ORDER BY s.scheduled_at ASC`
	return r.listScheduled(ctx, query, studentID, from, to)
}

// ListScheduledBetweenForFacilitator returns upcoming sessions across a
// facilitator's own courses.
func (r *LiveSessionRepository) ListScheduledBetweenForFacilitator(ctx context.Context, facilitatorID string, from, to time.Time) ([]models.CalendarEvent, error) {
	const query = `SELECT s.id, s.title, s.course_id, c.title AS course_title, s.scheduled_at
        FROM live_sessions s
        JOIN courses c ON c.id = s.course_id
        WHERE c.facilitator_id = $1 AND s.scheduled_at >= $2 AND s.scheduled_at <= $3
        ORDER BY s.scheduled_at ASC`
	return r.listScheduled(ctx, query, facilitatorID, from, to)
}

func (r *LiveSessionRepository) listScheduled(ctx context.Context, query string, userID string, from, to time.Time) ([]models.CalendarEvent, error) {
	rows, err := r.db.QueryxContext(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list scheduled sessions: %w", err)
	}
	defer rows.Close()

	var events []models.CalendarEvent
	for rows.Next() {
		var (
			id, title, courseID, courseTitle string
			scheduledAt                      time.Time
		)
		if err := rows.Scan(&id, &title, &courseID, &courseTitle, &scheduledAt); err != nil {
			return nil, fmt.Errorf("scan scheduled session: %w", err)
		}
		events = append(events, models.CalendarEvent{
			ID:          id,
			Kind:        models.CalendarLiveSession,
			Title:       title,
			CourseID:    courseID,
			CourseTitle: courseTitle,
			StartsAt:    scheduledAt,
		})
	}
	return events, rows.Err()
}
