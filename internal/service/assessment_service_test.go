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

type mockAssessmentRepo struct {
	assessments map[string]models.Assessment
	created     *models.Assessment
	updated     *models.Assessment
	dueDates    map[string]time.Time
}

func (m *mockAssessmentRepo) Create(ctx context.Context, assessment *models.Assessment) error {
	if assessment.ID == "" {
		assessment.ID = "new-assessment"
	}
	if m.assessments == nil {
		m.assessments = make(map[string]models.Assessment)
	}
	m.assessments[assessment.ID] = *assessment
	m.created = assessment
	return nil
}

func (m *mockAssessmentRepo) Update(ctx context.Context, assessment *models.Assessment) error {
	m.assessments[assessment.ID] = *assessment
	m.updated = assessment
	return nil
}

func (m *mockAssessmentRepo) UpdateDueDate(ctx context.Context, id string, dueDate time.Time) error {
	if m.dueDates == nil {
		m.dueDates = make(map[string]time.Time)
	}
	m.dueDates[id] = dueDate
	return nil
}

func (m *mockAssessmentRepo) FindByID(ctx context.Context, id string) (*models.Assessment, error) {
	if a, ok := m.assessments[id]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAssessmentRepo) ListByModule(ctx context.Context, moduleID string) ([]models.Assessment, error) {
	var list []models.Assessment
	for _, a := range m.assessments {
		if a.ModuleID == moduleID {
			list = append(list, a)
		}
	}
	return list, nil
}

type mockSubmissionCounter struct {
	byAssessment map[string][]models.Submission
}

func (m *mockSubmissionCounter) ListByAssessment(ctx context.Context, assessmentID string) ([]models.Submission, error) {
	return m.byAssessment[assessmentID], nil
}

type mockAssessmentStudents struct {
	students []string
}

func (m *mockAssessmentStudents) ListStudentIDsByAssessment(ctx context.Context, assessmentID string) ([]string, error) {
	return m.students, nil
}

func upsertRequest() UpsertAssessmentRequest {
	return UpsertAssessmentRequest{
		ModuleID: "mod-1",
		Title:    "Quiz 1",
		Type:     "quiz",
		Questions: []QuestionInput{
			{ID: "q1", Type: "multiple-choice", Text: "2+2?", Options: []string{"3", "4"}, CorrectAnswerIndex: intPtr(1), Points: 10},
			{ID: "q2", Type: "text", Text: "Explain.", Points: 5},
		},
	}
}

func TestCreateAssessmentDerivesTotalPoints(t *testing.T) {
	repo := &mockAssessmentRepo{}
	svc := NewAssessmentService(repo, &mockSubmissionCounter{}, &mockAssessmentStudents{}, nil, nil, nil)

	got, err := svc.Create(context.Background(), upsertRequest())
	require.NoError(t, err)
	assert.Equal(t, 15, got.TotalPoints)
	require.NotNil(t, repo.created)
}

func TestCreateAssessmentRejectsBadAnswerKey(t *testing.T) {
	svc := NewAssessmentService(&mockAssessmentRepo{}, &mockSubmissionCounter{}, &mockAssessmentStudents{}, nil, nil, nil)

	req := upsertRequest()
	req.Questions[0].CorrectAnswerIndex = intPtr(5)
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestUpdateAssessmentLocksQuestionsAfterSubmissions(t *testing.T) {
	repo := &mockAssessmentRepo{}
	svc := NewAssessmentService(repo, &mockSubmissionCounter{
		byAssessment: map[string][]models.Submission{"asmt-1": {{ID: "sub-1"}}},
	}, &mockAssessmentStudents{}, nil, nil, nil)

	existing := quizAssessment()
	repo.assessments = map[string]models.Assessment{"asmt-1": existing}

	req := upsertRequest()
	req.Questions[0].Points = 20
	_, err := svc.Update(context.Background(), "asmt-1", req)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrAssessmentLocked)
}

func TestUpdateAssessmentAllowsMetadataChangesWhenLocked(t *testing.T) {
	repo := &mockAssessmentRepo{}
	svc := NewAssessmentService(repo, &mockSubmissionCounter{
		byAssessment: map[string][]models.Submission{"asmt-1": {{ID: "sub-1"}}},
	}, &mockAssessmentStudents{}, nil, nil, nil)

	existing := quizAssessment()
	existing.Title = "Old title"
	repo.assessments = map[string]models.Assessment{"asmt-1": existing}

	req := upsertRequest()
	req.Title = "New title"
	got, err := svc.Update(context.Background(), "asmt-1", req)
	require.NoError(t, err)
	assert.Equal(t, "New title", got.Title)
}

func TestGetStripsAnswerKeysForStudents(t *testing.T) {
	repo := &mockAssessmentRepo{assessments: map[string]models.Assessment{"asmt-1": quizAssessment()}}
	svc := NewAssessmentService(repo, &mockSubmissionCounter{}, &mockAssessmentStudents{}, nil, nil, nil)

	got, err := svc.Get(context.Background(), "asmt-1", models.UserInfo{ID: "stu-1", Role: models.RoleStudent})
	require.NoError(t, err)
	for _, q := range got.Questions {
		assert.Nil(t, q.CorrectAnswerIndex)
	}

	full, err := svc.Get(context.Background(), "asmt-1", models.UserInfo{ID: "fac-1", Role: models.RoleFacilitator})
	require.NoError(t, err)
	require.NotNil(t, full.Questions[0].CorrectAnswerIndex)
}

func TestExtendDeadlinesPartialFailure(t *testing.T) {
	due := time.Date(2026, 3, 20, 23, 59, 0, 0, time.UTC)
	withDue := quizAssessment()
	withDue.DueDate = &due
	noDue := quizAssessment()
	noDue.ID = "asmt-2"

	repo := &mockAssessmentRepo{assessments: map[string]models.Assessment{
		"asmt-1": withDue,
		"asmt-2": noDue,
	}}
	notifier := &mockNotifier{}
	svc := NewAssessmentService(repo, &mockSubmissionCounter{}, &mockAssessmentStudents{students: []string{"stu-1", "stu-2"}}, notifier, nil, nil)

	result, err := svc.ExtendDeadlines(context.Background(), ExtendDeadlinesRequest{
		AssessmentIDs: []string{"asmt-1", "asmt-2", "asmt-missing"},
		Days:          3,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)
	require.Len(t, result.Failures, 2)
	assert.Equal(t, due.AddDate(0, 0, 3), repo.dueDates["asmt-1"])
	// one notification per enrolled student
	require.Len(t, notifier.sent, 2)
	assert.Equal(t, models.NotificationDeadlineExtension, notifier.sent[0].Type)
}
