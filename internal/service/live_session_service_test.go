package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulane/lms-api/internal/models"
	appErrors "github.com/edulane/lms-api/pkg/errors"
)

type mockLiveSessions struct {
	created []models.LiveSession
	listed  []models.LiveSession
}

func (m *mockLiveSessions) Create(ctx context.Context, session *models.LiveSession) error {
	m.created = append(m.created, *session)
	return nil
}

func (m *mockLiveSessions) ListByCourse(ctx context.Context, courseID string) ([]models.LiveSession, error) {
	return m.listed, nil
}

type mockCourseReader struct {
	courses map[string]models.Course
}

func (m *mockCourseReader) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if course, ok := m.courses[id]; ok {
		return &course, nil
	}
	return nil, sql.ErrNoRows
}

func newLiveSessionFixture() (*LiveSessionService, *mockLiveSessions, *mockEnrollmentChecker) {
	sessions := &mockLiveSessions{}
	courses := &mockCourseReader{courses: map[string]models.Course{
		"course-1": {ID: "course-1", Title: "Go Basics", FacilitatorID: "fac-1"},
	}}
	enrollments := &mockEnrollmentChecker{enrolled: map[string]bool{"course-1|student-1": true}}
	svc := NewLiveSessionService(sessions, courses, enrollments, nil, nil)
	return svc, sessions, enrollments
}

func TestLiveSessionScheduleByOwner(t *testing.T) {
	svc, sessions, _ := newLiveSessionFixture()
	facilitator := models.UserInfo{ID: "fac-1", Role: models.RoleFacilitator}

	session, err := svc.Schedule(context.Background(), "course-1", facilitator, ScheduleSessionRequest{
		Title:       "Weekly Q&A",
		ScheduledAt: time.Date(2026, 9, 3, 15, 0, 0, 0, time.UTC),
		MeetingURL:  "https://example.com/meet/abc",
	})

	require.NoError(t, err)
	require.Len(t, sessions.created, 1)
	assert.Equal(t, "course-1", session.CourseID)
	assert.Equal(t, "fac-1", session.CreatedBy)
	assert.Equal(t, 60, session.DurationMinutes)
	assert.Equal(t, models.MeetingProviderZoom, session.MeetingProvider)
}

func TestLiveSessionScheduleRejectsNonOwner(t *testing.T) {
	svc, sessions, _ := newLiveSessionFixture()
	other := models.UserInfo{ID: "fac-2", Role: models.RoleFacilitator}

	_, err := svc.Schedule(context.Background(), "course-1", other, ScheduleSessionRequest{
		Title:       "Weekly Q&A",
		ScheduledAt: time.Date(2026, 9, 3, 15, 0, 0, 0, time.UTC),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.Empty(t, sessions.created)
}

func TestLiveSessionScheduleRequiresTime(t *testing.T) {
	svc, _, _ := newLiveSessionFixture()
	facilitator := models.UserInfo{ID: "fac-1", Role: models.RoleFacilitator}

	_, err := svc.Schedule(context.Background(), "course-1", facilitator, ScheduleSessionRequest{
		Title: "Weekly Q&A",
	})

	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestLiveSessionListRequiresEnrollment(t *testing.T) {
	svc, sessions, _ := newLiveSessionFixture()
	sessions.listed = []models.LiveSession{{ID: "sess-1", CourseID: "course-1"}}

	enrolled := models.UserInfo{ID: "student-1", Role: models.RoleStudent}
	listed, err := svc.List(context.Background(), "course-1", enrolled)
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	outsider := models.UserInfo{ID: "student-2", Role: models.RoleStudent}
	_, err = svc.List(context.Background(), "course-1", outsider)
	assert.ErrorIs(t, err, appErrors.ErrNotEnrolled)
}
