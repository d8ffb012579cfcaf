package service

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulane/lms-api/internal/models"
	"github.com/edulane/lms-api/pkg/storage"
)

type mockExportCourses struct {
	course  models.Course
	modules []models.CourseModule
}

func (m *mockExportCourses) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if id != m.course.ID {
		return nil, sql.ErrNoRows
	}
	course := m.course
	return &course, nil
}

func (m *mockExportCourses) ListModulesByCourse(ctx context.Context, courseID string) ([]models.CourseModule, error) {
	return m.modules, nil
}

type mockExportAssessments struct {
	byModule map[string][]models.Assessment
}

func (m *mockExportAssessments) ListByModule(ctx context.Context, moduleID string) ([]models.Assessment, error) {
	return m.byModule[moduleID], nil
}

type mockExportSubmissions struct {
	byAssessment map[string][]models.Submission
}

func (m *mockExportSubmissions) ListByAssessment(ctx context.Context, assessmentID string) ([]models.Submission, error) {
	return m.byAssessment[assessmentID], nil
}

type mockExportRoster struct {
	roster []models.EnrollmentDetail
}

func (m *mockExportRoster) ListByCourse(ctx context.Context, courseID string) ([]models.EnrollmentDetail, error) {
	return m.roster, nil
}

func TestGradebookKeepsSameTitledAssessmentsApart(t *testing.T) {
	gradeA := 88.0
	gradeB := 42.5

	courses := &mockExportCourses{
		course: models.Course{ID: "course-1", Title: "Go Basics", FacilitatorID: "fac-1"},
		modules: []models.CourseModule{
			{ID: "mod-1", CourseID: "course-1"},
			{ID: "mod-2", CourseID: "course-1"},
		},
	}
	assessments := &mockExportAssessments{byModule: map[string][]models.Assessment{
		"mod-1": {{ID: "asmt-1", ModuleID: "mod-1", Title: "Quiz"}},
		"mod-2": {{ID: "asmt-2", ModuleID: "mod-2", Title: "Quiz"}},
	}}
	submissions := &mockExportSubmissions{byAssessment: map[string][]models.Submission{
		"asmt-1": {{ID: "sub-1", AssessmentID: "asmt-1", StudentID: "student-1", Grade: &gradeA}},
		"asmt-2": {{ID: "sub-2", AssessmentID: "asmt-2", StudentID: "student-1", Grade: &gradeB}},
	}}
	roster := &mockExportRoster{roster: []models.EnrollmentDetail{
		{
			Enrollment:   models.Enrollment{CourseID: "course-1", StudentID: "student-1", Progress: 70},
			StudentName:  "Amina Diallo",
			StudentEmail: "amina@example.com",
		},
	}}

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", 0)
	svc := NewExportService(courses, assessments, submissions, roster, store, signer, nil)

	result, err := svc.Gradebook(context.Background(), "course-1", "csv", models.UserInfo{ID: "fac-1", Role: models.RoleFacilitator})
	require.NoError(t, err)

	payload, err := os.ReadFile(store.Path(result.FileName))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	require.Len(t, lines, 2)

	assert.Equal(t, "Student,Email,Progress,Quiz,Quiz (2)", lines[0])
	assert.Equal(t, "Amina Diallo,amina@example.com,70%,88.0,42.5", lines[1])
}

func TestGradebookRejectsNonOwner(t *testing.T) {
	courses := &mockExportCourses{course: models.Course{ID: "course-1", FacilitatorID: "fac-1"}}
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", 0)
	svc := NewExportService(courses, &mockExportAssessments{}, &mockExportSubmissions{}, &mockExportRoster{}, store, signer, nil)

	_, err = svc.Gradebook(context.Background(), "course-1", "csv", models.UserInfo{ID: "fac-2", Role: models.RoleFacilitator})
	require.Error(t, err)
}
