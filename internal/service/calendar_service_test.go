package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulane/lms-api/internal/models"
)

type mockDeadlines struct {
	events []models.CalendarEvent
}

func (m *mockDeadlines) ListDueBetweenForStudent(ctx context.Context, studentID string, from, to time.Time) ([]models.CalendarEvent, error) {
	return m.events, nil
}

func (m *mockDeadlines) ListDueBetweenForFacilitator(ctx context.Context, facilitatorID string, from, to time.Time) ([]models.CalendarEvent, error) {
	return m.events, nil
}

type mockScheduledSessions struct {
	events []models.CalendarEvent
}

func (m *mockScheduledSessions) ListScheduledBetweenForStudent(ctx context.Context, studentID string, from, to time.Time) ([]models.CalendarEvent, error) {
	return m.events, nil
}

func (m *mockScheduledSessions) ListScheduledBetweenForFacilitator(ctx context.Context, facilitatorID string, from, to time.Time) ([]models.CalendarEvent, error) {
	return m.events, nil
}

func TestCalendarUpcomingMergesDeadlinesAndSessions(t *testing.T) {
	base := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	deadlines := &mockDeadlines{events: []models.CalendarEvent{
		{ID: "asmt-1", Kind: models.CalendarAssessmentDue, StartsAt: base.AddDate(0, 0, 5)},
	}}
	sessions := &mockScheduledSessions{events: []models.CalendarEvent{
		{ID: "sess-1", Kind: models.CalendarLiveSession, StartsAt: base.AddDate(0, 0, 2)},
		{ID: "sess-2", Kind: models.CalendarLiveSession, StartsAt: base.AddDate(0, 0, 9)},
	}}
	svc := NewCalendarService(deadlines, sessions, nil)
	svc.now = func() time.Time { return base }

	events, err := svc.Upcoming(context.Background(), models.UserInfo{ID: "student-1", Role: models.RoleStudent}, 30)

	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "sess-1", events[0].ID)
	assert.Equal(t, "asmt-1", events[1].ID)
	assert.Equal(t, "sess-2", events[2].ID)
}

func TestCalendarUpcomingEmptyFeed(t *testing.T) {
	svc := NewCalendarService(&mockDeadlines{}, &mockScheduledSessions{}, nil)

	events, err := svc.Upcoming(context.Background(), models.UserInfo{ID: "fac-1", Role: models.RoleFacilitator}, 0)

	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}
