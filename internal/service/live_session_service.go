package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edulane/lms-api/internal/models"
	appErrors "github.com/edulane/lms-api/pkg/errors"
)

type liveSessionRepo interface {
	Create(ctx context.Context, session *models.LiveSession) error
	ListByCourse(ctx context.Context, courseID string) ([]models.LiveSession, error)
}

// ScheduleSessionRequest creates a live session on a course.
type ScheduleSessionRequest struct {
	Title           string    `json:"title" validate:"required"`
	Description     string    `json:"description"`
	ScheduledAt     time.Time `json:"scheduled_at" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"gte=0"`
	MeetingURL      string    `json:"meeting_url" validate:"omitempty,url"`
	MeetingProvider string    `json:"meeting_provider" validate:"omitempty,oneof=zoom google_meet teams other"`
}

// LiveSessionService schedules and lists synchronous course meetings.
// Scheduling is restricted to the owning facilitator; students see the
// sessions of courses they are enrolled in.
type LiveSessionService struct {
	sessions    liveSessionRepo
	courses     forumCourseReader
	enrollments enrollmentChecker
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewLiveSessionService constructs LiveSessionService.
func NewLiveSessionService(sessions liveSessionRepo, courses forumCourseReader, enrollments enrollmentChecker, validate *validator.Validate, logger *zap.Logger) *LiveSessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LiveSessionService{sessions: sessions, courses: courses, enrollments: enrollments, validator: validate, logger: logger}
}

// Schedule creates a session on a course owned by the requester.
func (s *LiveSessionService) Schedule(ctx context.Context, courseID string, requester models.UserInfo, req ScheduleSessionRequest) (*models.LiveSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if requester.Role != models.RoleAdmin && course.FacilitatorID != requester.ID {
		return nil, appErrors.ErrForbidden
	}

	session := &models.LiveSession{
		CourseID:        courseID,
		Title:           req.Title,
		Description:     req.Description,
		ScheduledAt:     req.ScheduledAt.UTC(),
		DurationMinutes: req.DurationMinutes,
		MeetingURL:      req.MeetingURL,
		MeetingProvider: req.MeetingProvider,
		CreatedBy:       requester.ID,
	}
	if session.DurationMinutes == 0 {
		session.DurationMinutes = 60
	}
	if session.MeetingProvider == "" {
		session.MeetingProvider = models.MeetingProviderZoom
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to schedule session")
	}

	s.logger.Info("live session scheduled",
		zap.String("course_id", courseID),
		zap.String("session_id", session.ID),
		zap.Time("scheduled_at", session.ScheduledAt))
	return session, nil
}

// List returns a course's sessions for any user with course access.
func (s *LiveSessionService) List(ctx context.Context, courseID string, requester models.UserInfo) ([]models.LiveSession, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	switch requester.Role {
	case models.RoleAdmin:
	case models.RoleFacilitator:
		if course.FacilitatorID != requester.ID {
			return nil, appErrors.ErrForbidden
		}
	default:
		enrolled, err := s.enrollments.IsEnrolled(ctx, courseID, requester.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
		}
		if !enrolled {
			return nil, appErrors.ErrNotEnrolled
		}
	}

	sessions, err := s.sessions.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	if sessions == nil {
		sessions = []models.LiveSession{}
	}
	return sessions, nil
}
