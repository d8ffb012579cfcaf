package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/edulane/lms-api/internal/models"
	appErrors "github.com/edulane/lms-api/pkg/errors"
)

type deadlineLister interface {
	ListDueBetweenForStudent(ctx context.Context, studentID string, from, to time.Time) ([]models.CalendarEvent, error)
	ListDueBetweenForFacilitator(ctx context.Context, facilitatorID string, from, to time.Time) ([]models.CalendarEvent, error)
}

type sessionLister interface {
	ListScheduledBetweenForStudent(ctx context.Context, studentID string, from, to time.Time) ([]models.CalendarEvent, error)
	ListScheduledBetweenForFacilitator(ctx context.Context, facilitatorID string, from, to time.Time) ([]models.CalendarEvent, error)
}

// CalendarService assembles the upcoming-events feed from assessment
// deadlines and scheduled live sessions.
type CalendarService struct {
	deadlines deadlineLister
	sessions  sessionLister
	logger    *zap.Logger
	now       func() time.Time
}

// NewCalendarService constructs CalendarService.
func NewCalendarService(deadlines deadlineLister, sessions sessionLister, logger *zap.Logger) *CalendarService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{
		deadlines: deadlines,
		sessions:  sessions,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Upcoming returns the requester's events within the window, soonest first.
// Students see their enrolled courses, facilitators their own.
func (s *CalendarService) Upcoming(ctx context.Context, requester models.UserInfo, days int) ([]models.CalendarEvent, error) {
	if days <= 0 {
		days = 30
	}
	from := s.now()
	to := from.AddDate(0, 0, days)

	var (
		deadlines []models.CalendarEvent
		sessions  []models.CalendarEvent
		err       error
	)
	switch requester.Role {
	case models.RoleStudent:
		deadlines, err = s.deadlines.ListDueBetweenForStudent(ctx, requester.ID, from, to)
		if err == nil {
			sessions, err = s.sessions.ListScheduledBetweenForStudent(ctx, requester.ID, from, to)
		}
	default:
		deadlines, err = s.deadlines.ListDueBetweenForFacilitator(ctx, requester.ID, from, to)
		if err == nil {
			sessions, err = s.sessions.ListScheduledBetweenForFacilitator(ctx, requester.ID, from, to)
		}
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list calendar events")
	}

	events := make([]models.CalendarEvent, 0, len(deadlines)+len(sessions))
	events = append(events, deadlines...)
	events = append(events, sessions...)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartsAt.Before(events[j].StartsAt)
	})
	return events, nil
}
