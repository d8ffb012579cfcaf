package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulane/lms-api/internal/models"
	appErrors "github.com/edulane/lms-api/pkg/errors"
)

type mockSubmissionRepo struct {
	submissions map[string]models.Submission
	byPair      map[string]bool
	created     *models.Submission
	graded      map[string]float64
	adjusted    map[string]float64
	adjustErr   map[string]error
}

func (m *mockSubmissionRepo) Create(ctx context.Context, submission *models.Submission) error {
	if submission.ID == "" {
		submission.ID = "new-submission"
	}
	if m.submissions == nil {
		m.submissions = make(map[string]models.Submission)
	}
	m.submissions[submission.ID] = *submission
	m.created = submission
	return nil
}

func (m *mockSubmissionRepo) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	if s, ok := m.submissions[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSubmissionRepo) Exists(ctx context.Context, assessmentID, studentID string) (bool, error) {
	return m.byPair[assessmentID+"|"+studentID], nil
}

func (m *mockSubmissionRepo) ListByAssessment(ctx context.Context, assessmentID string) ([]models.Submission, error) {
	var list []models.Submission
	for _, s := range m.submissions {
		if s.AssessmentID == assessmentID {
			list = append(list, s)
		}
	}
	return list, nil
}

func (m *mockSubmissionRepo) ListGradedByAssessment(ctx context.Context, assessmentID string) ([]models.Submission, error) {
	var list []models.Submission
	for _, s := range m.submissions {
		if s.AssessmentID == assessmentID && s.Grade != nil {
			list = append(list, s)
		}
	}
	return list, nil
}

func (m *mockSubmissionRepo) SetGrade(ctx context.Context, id string, grade float64, feedback string, gradedAt time.Time) error {
	if m.graded == nil {
		m.graded = make(map[string]float64)
	}
	m.graded[id] = grade
	return nil
}

func (m *mockSubmissionRepo) AdjustGrade(ctx context.Context, id string, grade float64) error {
	if err := m.adjustErr[id]; err != nil {
		return err
	}
	if m.adjusted == nil {
		m.adjusted = make(map[string]float64)
	}
	m.adjusted[id] = grade
	return nil
}

type mockAssessmentReader struct {
	assessments map[string]models.Assessment
}

func (m *mockAssessmentReader) FindByID(ctx context.Context, id string) (*models.Assessment, error) {
	if a, ok := m.assessments[id]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

type mockModuleReader struct {
	modules map[string]models.CourseModule
}

func (m *mockModuleReader) FindModuleByID(ctx context.Context, id string) (*models.CourseModule, error) {
	if mod, ok := m.modules[id]; ok {
		return &mod, nil
	}
	return nil, sql.ErrNoRows
}

type mockEnrollmentChecker struct {
	enrolled map[string]bool
}

func (m *mockEnrollmentChecker) IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error) {
	return m.enrolled[courseID+"|"+studentID], nil
}

type mockRecalc struct {
	calls []string
}

func (m *mockRecalc) EnqueueRecalc(studentID, courseID string) {
	m.calls = append(m.calls, studentID+"|"+courseID)
}

type mockNotifier struct {
	sent []models.Notification
}

func (m *mockNotifier) Notify(ctx context.Context, userID string, notificationType models.NotificationType, title, message, relatedID string) {
	m.sent = append(m.sent, models.Notification{
		UserID:    userID,
		Type:      notificationType,
		Title:     title,
		Message:   message,
		RelatedID: relatedID,
	})
}

func intPtr(v int) *int { return &v }

func quizAssessment() models.Assessment {
	return models.Assessment{
		ID:       "asmt-1",
		ModuleID: "mod-1",
		Type:     models.AssessmentQuiz,
		Questions: models.QuestionList{
			{ID: "q1", Type: models.QuestionMultipleChoice, Text: "2+2?", Options: []string{"3", "4"}, CorrectAnswerIndex: intPtr(1), Points: 10},
			{ID: "q2", Type: models.QuestionText, Text: "Explain.", Points: 5},
		},
		TotalPoints: 15,
	}
}

func newSubmitFixture() (*SubmissionService, *mockSubmissionRepo, *mockRecalc) {
	submissions := &mockSubmissionRepo{byPair: map[string]bool{}}
	assessments := &mockAssessmentReader{assessments: map[string]models.Assessment{"asmt-1": quizAssessment()}}
	modules := &mockModuleReader{modules: map[string]models.CourseModule{"mod-1": {ID: "mod-1", CourseID: "course-1"}}}
	enrollments := &mockEnrollmentChecker{enrolled: map[string]bool{"course-1|stu-1": true}}
	recalc := &mockRecalc{}
	svc := NewSubmissionService(submissions, assessments, modules, enrollments, recalc, nil, nil, nil)
	return svc, submissions, recalc
}

func TestSubmitAutoGradesAndQueuesRecalc(t *testing.T) {
	svc, submissions, recalc := newSubmitFixture()

	got, err := svc.Submit(context.Background(), "stu-1", SubmitRequest{
		AssessmentID: "asmt-1",
		Answers:      map[string]string{"q1": "4", "q2": "Because arithmetic."},
	})
	require.NoError(t, err)
	assert.Equal(t, 10, got.AutoGrade)
	assert.Equal(t, models.SubmissionAutoGraded, got.Status)
	assert.Nil(t, got.Grade)
	require.NotNil(t, submissions.created)
	assert.Equal(t, []string{"stu-1|course-1"}, recalc.calls)
}

func TestSubmitRejectsDuplicate(t *testing.T) {
	svc, submissions, _ := newSubmitFixture()
	submissions.byPair["asmt-1|stu-1"] = true

	_, err := svc.Submit(context.Background(), "stu-1", SubmitRequest{
		AssessmentID: "asmt-1",
		Answers:      map[string]string{"q1": "4", "q2": "x"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrAlreadySubmitted)
}

func TestSubmitRejectsNonEnrolled(t *testing.T) {
	svc, _, recalc := newSubmitFixture()

	_, err := svc.Submit(context.Background(), "stu-2", SubmitRequest{
		AssessmentID: "asmt-1",
		Answers:      map[string]string{"q1": "4", "q2": "x"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrNotEnrolled)
	assert.Empty(t, recalc.calls)
}

func TestSubmitRejectsIncompleteAnswers(t *testing.T) {
	svc, submissions, _ := newSubmitFixture()

	_, err := svc.Submit(context.Background(), "stu-1", SubmitRequest{
		AssessmentID: "asmt-1",
		Answers:      map[string]string{"q1": "4", "q2": "   "},
	})
	require.Error(t, err)
	var incomplete *appErrors.IncompleteAnswersError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, []string{"q2"}, incomplete.QuestionIDs)
	assert.Nil(t, submissions.created)
}

func TestGradeRejectsAboveTotalPoints(t *testing.T) {
	svc, submissions, _ := newSubmitFixture()
	submissions.submissions = map[string]models.Submission{
		"sub-1": {ID: "sub-1", AssessmentID: "asmt-1", StudentID: "stu-1"},
	}

	_, err := svc.Grade(context.Background(), "sub-1", GradeSubmissionRequest{Grade: 16})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestGradeRecordsGradeAndStatus(t *testing.T) {
	svc, submissions, _ := newSubmitFixture()
	submissions.submissions = map[string]models.Submission{
		"sub-1": {ID: "sub-1", AssessmentID: "asmt-1", StudentID: "stu-1"},
	}

	got, err := svc.Grade(context.Background(), "sub-1", GradeSubmissionRequest{Grade: 12.5, Feedback: "good"})
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionGraded, got.Status)
	require.NotNil(t, got.Grade)
	assert.InDelta(t, 12.5, *got.Grade, 0.001)
	assert.InDelta(t, 12.5, submissions.graded["sub-1"], 0.001)
}

func TestAdjustedGradeClamps(t *testing.T) {
	got, err := AdjustedGrade(95, "add", 10)
	require.NoError(t, err)
	assert.InDelta(t, 100, got, 0.001)

	got, err = AdjustedGrade(4, "add", -10)
	require.NoError(t, err)
	assert.InDelta(t, 0, got, 0.001)

	got, err = AdjustedGrade(80, "multiply", 1.1)
	require.NoError(t, err)
	assert.InDelta(t, 88, got, 0.001)

	_, err = AdjustedGrade(80, "divide", 2)
	require.Error(t, err)
}

func TestBulkAdjustReportsPartialFailure(t *testing.T) {
	submissions := &mockSubmissionRepo{
		submissions: map[string]models.Submission{
			"sub-1": {ID: "sub-1", AssessmentID: "asmt-1", StudentID: "stu-1", Grade: floatPtr(70)},
			"sub-2": {ID: "sub-2", AssessmentID: "asmt-1", StudentID: "stu-2", Grade: floatPtr(90)},
			"sub-3": {ID: "sub-3", AssessmentID: "asmt-1", StudentID: "stu-3"},
		},
		adjustErr: map[string]error{"sub-2": errors.New("boom")},
	}
	notifier := &mockNotifier{}
	svc := NewSubmissionService(submissions, &mockAssessmentReader{}, &mockModuleReader{}, &mockEnrollmentChecker{}, nil, notifier, nil, nil)

	result, err := svc.BulkAdjust(context.Background(), BulkAdjustRequest{
		AssessmentID: "asmt-1",
		Operation:    "add",
		Value:        5,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "sub-2", result.Failures[0].SubmissionID)
	// ungraded sub-3 is skipped entirely
	assert.InDelta(t, 75, submissions.adjusted["sub-1"], 0.001)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, models.NotificationGradeAdjustment, notifier.sent[0].Type)
}
