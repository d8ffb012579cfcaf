package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulane/lms-api/internal/models"
)

type mockCourseContent struct {
	modules   map[string]models.CourseModule
	byCourse  map[string][]models.CourseModule
	resources map[string][]models.Resource
}

func (m *mockCourseContent) FindModuleByID(ctx context.Context, id string) (*models.CourseModule, error) {
	if mod, ok := m.modules[id]; ok {
		return &mod, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseContent) ListModulesByCourse(ctx context.Context, courseID string) ([]models.CourseModule, error) {
	return m.byCourse[courseID], nil
}

func (m *mockCourseContent) ListResourcesByModule(ctx context.Context, moduleID string) ([]models.Resource, error) {
	return m.resources[moduleID], nil
}

type mockModuleAssessments struct {
	byModule map[string][]models.Assessment
}

func (m *mockModuleAssessments) ListByModule(ctx context.Context, moduleID string) ([]models.Assessment, error) {
	return m.byModule[moduleID], nil
}

type mockViews struct {
	viewed   map[string][]string
	upserted []models.ResourceView
}

func (m *mockViews) UpsertResourceView(ctx context.Context, view *models.ResourceView) error {
	m.upserted = append(m.upserted, *view)
	return nil
}

func (m *mockViews) ListViewedResourceIDs(ctx context.Context, studentID, moduleID string) ([]string, error) {
	return m.viewed[studentID+"|"+moduleID], nil
}

type mockSubmittedIDs struct {
	submitted map[string][]string
}

func (m *mockSubmittedIDs) ListSubmittedAssessmentIDs(ctx context.Context, studentID, moduleID string) ([]string, error) {
	return m.submitted[studentID+"|"+moduleID], nil
}

type mockEnrollmentProgress struct {
	enrolled        map[string]bool
	progress        map[string]int
	atRisk          []models.EnrollmentDetail
	missedDeadlines []models.EnrollmentDetail
	lowGrades       []models.EnrollmentDetail
}

func (m *mockEnrollmentProgress) IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error) {
	return m.enrolled[courseID+"|"+studentID], nil
}

func (m *mockEnrollmentProgress) UpdateProgress(ctx context.Context, courseID, studentID string, progress int) error {
	if m.progress == nil {
		m.progress = make(map[string]int)
	}
	m.progress[courseID+"|"+studentID] = progress
	return nil
}

func (m *mockEnrollmentProgress) ListAtRisk(ctx context.Context, facilitatorID string, threshold int) ([]models.EnrollmentDetail, error) {
	return m.atRisk, nil
}

func (m *mockEnrollmentProgress) ListMissedDeadlines(ctx context.Context, facilitatorID string, now time.Time) ([]models.EnrollmentDetail, error) {
	return m.missedDeadlines, nil
}

func (m *mockEnrollmentProgress) ListLowGrades(ctx context.Context, facilitatorID string, cutoff float64) ([]models.EnrollmentDetail, error) {
	return m.lowGrades, nil
}

type mockMilestoneNotifications struct {
	existing map[string]bool
	created  []models.Notification
}

func (m *mockMilestoneNotifications) key(userID string, t models.NotificationType, relatedID string) string {
	return userID + "|" + string(t) + "|" + relatedID
}

func (m *mockMilestoneNotifications) Exists(ctx context.Context, userID string, notificationType models.NotificationType, relatedID string) (bool, error) {
	return m.existing[m.key(userID, notificationType, relatedID)], nil
}

func (m *mockMilestoneNotifications) Create(ctx context.Context, notification *models.Notification) error {
	if m.existing == nil {
		m.existing = make(map[string]bool)
	}
	m.existing[m.key(notification.UserID, notification.Type, notification.RelatedID)] = true
	m.created = append(m.created, *notification)
	return nil
}

// Two modules: mod-1 has one resource and one assessment, mod-2 only one
// resource. The student viewed everything and submitted the assessment.
func newProgressFixture() (*ProgressService, *mockEnrollmentProgress, *mockMilestoneNotifications) {
	content := &mockCourseContent{
		modules: map[string]models.CourseModule{
			"mod-1": {ID: "mod-1", CourseID: "course-1", Title: "Basics"},
			"mod-2": {ID: "mod-2", CourseID: "course-1", Title: "Advanced"},
		},
		byCourse: map[string][]models.CourseModule{
			"course-1": {
				{ID: "mod-1", CourseID: "course-1", Title: "Basics"},
				{ID: "mod-2", CourseID: "course-1", Title: "Advanced"},
			},
		},
		resources: map[string][]models.Resource{
			"mod-1": {{ID: "res-1", ModuleID: "mod-1"}},
			"mod-2": {{ID: "res-2", ModuleID: "mod-2"}},
		},
	}
	assessments := &mockModuleAssessments{byModule: map[string][]models.Assessment{
		"mod-1": {{ID: "asmt-1", ModuleID: "mod-1"}},
	}}
	views := &mockViews{viewed: map[string][]string{
		"stu-1|mod-1": {"res-1"},
		"stu-1|mod-2": {"res-2"},
	}}
	submitted := &mockSubmittedIDs{submitted: map[string][]string{
		"stu-1|mod-1": {"asmt-1"},
	}}
	enrollments := &mockEnrollmentProgress{enrolled: map[string]bool{"course-1|stu-1": true}}
	notifications := &mockMilestoneNotifications{}

	svc := NewProgressService(content, assessments, views, submitted, enrollments, notifications,
		ProgressServiceConfig{MilestonesEnabled: true}, nil)
	return svc, enrollments, notifications
}

func TestCourseProgressAggregatesModules(t *testing.T) {
	svc, _, _ := newProgressFixture()

	progress, err := svc.CourseProgressFor(context.Background(), "stu-1", "course-1")
	require.NoError(t, err)
	require.Len(t, progress.Modules, 2)
	assert.Equal(t, 100, progress.Modules[0].Completion)
	assert.Equal(t, 100, progress.Modules[1].Completion)
	assert.Equal(t, 100, progress.Completion)
}

func TestRecalculateUpdatesCacheAndAnnouncesMilestones(t *testing.T) {
	svc, enrollments, notifications := newProgressFixture()

	progress, err := svc.RecalculateCourseProgress(context.Background(), "stu-1", "course-1")
	require.NoError(t, err)
	assert.Equal(t, 100, progress.Completion)
	assert.Equal(t, 100, enrollments.progress["course-1|stu-1"])

	// 2 module completions + 50/75/100 course milestones
	require.Len(t, notifications.created, 5)
	types := map[models.NotificationType]int{}
	for _, n := range notifications.created {
		types[n.Type]++
	}
	assert.Equal(t, 2, types[models.NotificationModuleComplete])
	assert.Equal(t, 3, types[models.NotificationCourseMilestone])
}

func TestRecalculateDoesNotRepeatMilestones(t *testing.T) {
	svc, _, notifications := newProgressFixture()

	_, err := svc.RecalculateCourseProgress(context.Background(), "stu-1", "course-1")
	require.NoError(t, err)
	first := len(notifications.created)

	_, err = svc.RecalculateCourseProgress(context.Background(), "stu-1", "course-1")
	require.NoError(t, err)
	assert.Equal(t, first, len(notifications.created))
}

func TestAtRiskStudentsMergesReasons(t *testing.T) {
	svc, enrollments, _ := newProgressFixture()
	struggling := models.EnrollmentDetail{
		Enrollment:   models.Enrollment{ID: "enr-1", CourseID: "course-1", StudentID: "stu-1", Progress: 20},
		StudentName:  "Amina Diallo",
		StudentEmail: "amina@example.com",
	}
	behind := models.EnrollmentDetail{
		Enrollment:   models.Enrollment{ID: "enr-2", CourseID: "course-1", StudentID: "stu-2", Progress: 55},
		StudentName:  "Kofi Mensah",
		StudentEmail: "kofi@example.com",
	}
	enrollments.atRisk = []models.EnrollmentDetail{struggling}
	enrollments.missedDeadlines = []models.EnrollmentDetail{struggling, behind}
	enrollments.lowGrades = []models.EnrollmentDetail{struggling}

	students, err := svc.AtRiskStudents(context.Background(), "fac-1")
	require.NoError(t, err)
	require.Len(t, students, 2)

	assert.Equal(t, "stu-1", students[0].StudentID)
	assert.Equal(t, 20, students[0].Progress)
	assert.Equal(t, []models.AtRiskReason{
		models.AtRiskLowProgress,
		models.AtRiskMissedDeadline,
		models.AtRiskLowGrade,
	}, students[0].Reasons)

	assert.Equal(t, "stu-2", students[1].StudentID)
	assert.Equal(t, []models.AtRiskReason{models.AtRiskMissedDeadline}, students[1].Reasons)
}

func TestAtRiskStudentsEmpty(t *testing.T) {
	svc, _, _ := newProgressFixture()

	students, err := svc.AtRiskStudents(context.Background(), "fac-1")
	require.NoError(t, err)
	assert.NotNil(t, students)
	assert.Empty(t, students)
}

func TestRecordResourceViewRequiresEnrollment(t *testing.T) {
	svc, _, _ := newProgressFixture()

	err := svc.RecordResourceView(context.Background(), "stu-2", "res-1", "mod-1")
	require.Error(t, err)
}

func TestRecordResourceViewUpserts(t *testing.T) {
	content := &mockCourseContent{
		modules: map[string]models.CourseModule{"mod-1": {ID: "mod-1", CourseID: "course-1"}},
	}
	views := &mockViews{}
	enrollments := &mockEnrollmentProgress{enrolled: map[string]bool{"course-1|stu-1": true}}
	svc := NewProgressService(content, &mockModuleAssessments{}, views, &mockSubmittedIDs{}, enrollments, &mockMilestoneNotifications{},
		ProgressServiceConfig{}, nil)

	require.NoError(t, svc.RecordResourceView(context.Background(), "stu-1", "res-1", "mod-1"))
	require.Len(t, views.upserted, 1)
	assert.Equal(t, "res-1", views.upserted[0].ResourceID)
	assert.Equal(t, "stu-1", views.upserted[0].StudentID)
}
