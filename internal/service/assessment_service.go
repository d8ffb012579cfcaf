package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edulane/lms-api/internal/models"
	appErrors "github.com/edulane/lms-api/pkg/errors"
)

type assessmentRepo interface {
	Create(ctx context.Context, assessment *models.Assessment) error
	Update(ctx context.Context, assessment *models.Assessment) error
	UpdateDueDate(ctx context.Context, id string, dueDate time.Time) error
	FindByID(ctx context.Context, id string) (*models.Assessment, error)
	ListByModule(ctx context.Context, moduleID string) ([]models.Assessment, error)
}

type submissionCounter interface {
	ListByAssessment(ctx context.Context, assessmentID string) ([]models.Submission, error)
}

type assessmentStudentLister interface {
	ListStudentIDsByAssessment(ctx context.Context, assessmentID string) ([]string, error)
}

// QuestionInput is one question in a create or update payload.
type QuestionInput struct {
	ID                 string   `json:"id"`
	Type               string   `json:"type" validate:"required,oneof=multiple-choice text"`
	Text               string   `json:"text" validate:"required"`
	Options            []string `json:"options"`
	CorrectAnswerIndex *int     `json:"correct_answer_index"`
	Points             int      `json:"points" validate:"min=0"`
}

// UpsertAssessmentRequest creates or rewrites an assessment.
type UpsertAssessmentRequest struct {
	ModuleID    string          `json:"module_id" validate:"required"`
	Title       string          `json:"title" validate:"required"`
	Description string          `json:"description"`
	Type        string          `json:"assessment_type" validate:"required,oneof=assignment quiz exam"`
	Questions   []QuestionInput `json:"questions" validate:"dive"`
	DueDate     *time.Time      `json:"due_date"`
}

// ExtendDeadlinesRequest pushes the due date of several assessments forward
// by a number of days.
type ExtendDeadlinesRequest struct {
	AssessmentIDs []string `json:"assessment_ids" validate:"required,min=1"`
	Days          int      `json:"days" validate:"required,min=1"`
}

// ExtendDeadlinesFailure records one assessment the extension skipped.
type ExtendDeadlinesFailure struct {
	AssessmentID string `json:"assessment_id"`
	Reason       string `json:"reason"`
}

// ExtendDeadlinesResult summarises a bulk deadline extension.
type ExtendDeadlinesResult struct {
	SuccessCount int                      `json:"success_count"`
	Failures     []ExtendDeadlinesFailure `json:"failures,omitempty"`
}

// AssessmentService orchestrates assessment authoring.
type AssessmentService struct {
	assessments assessmentRepo
	submissions submissionCounter
	enrollments assessmentStudentLister
	notifier    submissionNotifier
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAssessmentService constructs AssessmentService.
func NewAssessmentService(assessments assessmentRepo, submissions submissionCounter, enrollments assessmentStudentLister, notifier submissionNotifier, validate *validator.Validate, logger *zap.Logger) *AssessmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssessmentService{
		assessments: assessments,
		submissions: submissions,
		enrollments: enrollments,
		notifier:    notifier,
		validator:   validate,
		logger:      logger,
	}
}

func buildQuestions(inputs []QuestionInput) (models.QuestionList, error) {
	questions := make(models.QuestionList, 0, len(inputs))
	for i, in := range inputs {
		q := models.Question{
			ID:                 in.ID,
			Type:               models.QuestionType(in.Type),
			Text:               in.Text,
			Options:            in.Options,
			CorrectAnswerIndex: in.CorrectAnswerIndex,
			Points:             in.Points,
		}
		if q.ID == "" {
			q.ID = fmt.Sprintf("q%d", i+1)
		}
		if q.Type == models.QuestionMultipleChoice {
			if len(q.Options) < 2 {
				return nil, fmt.Errorf("question %s needs at least two options", q.ID)
			}
			if q.CorrectAnswerIndex == nil || *q.CorrectAnswerIndex < 0 || *q.CorrectAnswerIndex >= len(q.Options) {
				return nil, fmt.Errorf("question %s has no valid answer key", q.ID)
			}
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// Create stores a new assessment. TotalPoints is derived from the question
// list, never taken from the payload.
func (s *AssessmentService) Create(ctx context.Context, req UpsertAssessmentRequest) (*models.Assessment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	questions, err := buildQuestions(req.Questions)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	assessment := &models.Assessment{
		ModuleID:    req.ModuleID,
		Title:       req.Title,
		Description: req.Description,
		Type:        models.AssessmentType(req.Type),
		Questions:   questions,
		TotalPoints: questions.TotalPoints(),
		DueDate:     req.DueDate,
	}
	if err := s.assessments.Create(ctx, assessment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assessment")
	}
	return assessment, nil
}

// Update rewrites an assessment. Once submissions exist the question list is
// frozen; grading already happened against it.
func (s *AssessmentService) Update(ctx context.Context, id string, req UpsertAssessmentRequest) (*models.Assessment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	existing, err := s.assessments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assessment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment")
	}

	questions, err := buildQuestions(req.Questions)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	if !questionsEqual(existing.Questions, questions) {
		submissions, err := s.submissions.ListByAssessment(ctx, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check submissions")
		}
		if len(submissions) > 0 {
			return nil, appErrors.ErrAssessmentLocked
		}
	}

	existing.Title = req.Title
	existing.Description = req.Description
	existing.Type = models.AssessmentType(req.Type)
	existing.Questions = questions
	existing.TotalPoints = questions.TotalPoints()
	existing.DueDate = req.DueDate
	if err := s.assessments.Update(ctx, existing); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assessment")
	}
	return existing, nil
}

func questionsEqual(a, b models.QuestionList) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Type != b[i].Type || a[i].Text != b[i].Text || a[i].Points != b[i].Points {
			return false
		}
		if len(a[i].Options) != len(b[i].Options) {
			return false
		}
		for j := range a[i].Options {
			if a[i].Options[j] != b[i].Options[j] {
				return false
			}
		}
		ai, bi := a[i].CorrectAnswerIndex, b[i].CorrectAnswerIndex
		if (ai == nil) != (bi == nil) {
			return false
		}
		if ai != nil && *ai != *bi {
			return false
		}
	}
	return true
}

// Get returns one assessment. For students the answer keys are stripped.
func (s *AssessmentService) Get(ctx context.Context, id string, requester models.UserInfo) (*models.Assessment, error) {
	assessment, err := s.assessments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assessment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment")
	}
	if requester.Role == models.RoleStudent {
		stripped := *assessment
		stripped.Questions = stripAnswerKeys(assessment.Questions)
		return &stripped, nil
	}
	return assessment, nil
}

func stripAnswerKeys(questions models.QuestionList) models.QuestionList {
	out := make(models.QuestionList, len(questions))
	copy(out, questions)
	for i := range out {
		out[i].CorrectAnswerIndex = nil
	}
	return out
}

// ListByModule returns a module's assessments, stripping keys for students.
func (s *AssessmentService) ListByModule(ctx context.Context, moduleID string, requester models.UserInfo) ([]models.Assessment, error) {
	assessments, err := s.assessments.ListByModule(ctx, moduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assessments")
	}
	if requester.Role == models.RoleStudent {
		for i := range assessments {
			assessments[i].Questions = stripAnswerKeys(assessments[i].Questions)
		}
	}
	return assessments, nil
}

// ExtendDeadlines pushes several due dates forward by N days. Assessments
// without a due date are reported as failures rather than given one.
func (s *AssessmentService) ExtendDeadlines(ctx context.Context, req ExtendDeadlinesRequest) (*ExtendDeadlinesResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	result := &ExtendDeadlinesResult{}
	for _, id := range req.AssessmentIDs {
		assessment, err := s.assessments.FindByID(ctx, id)
		if err != nil {
			reason := "lookup failed"
			if errors.Is(err, sql.ErrNoRows) {
				reason = "not found"
			}
			result.Failures = append(result.Failures, ExtendDeadlinesFailure{AssessmentID: id, Reason: reason})
			continue
		}
		if assessment.DueDate == nil {
			result.Failures = append(result.Failures, ExtendDeadlinesFailure{AssessmentID: id, Reason: "no due date"})
			continue
		}
		extended := assessment.DueDate.AddDate(0, 0, req.Days)
		if err := s.assessments.UpdateDueDate(ctx, id, extended); err != nil {
			s.logger.Warn("deadline extension failed", zap.String("assessment_id", id), zap.Error(err))
			result.Failures = append(result.Failures, ExtendDeadlinesFailure{AssessmentID: id, Reason: "update failed"})
			continue
		}
		result.SuccessCount++
		s.notifyExtension(ctx, assessment, extended, req.Days)
	}
	return result, nil
}

func (s *AssessmentService) notifyExtension(ctx context.Context, assessment *models.Assessment, extended time.Time, days int) {
	if s.notifier == nil || s.enrollments == nil {
		return
	}
	studentIDs, err := s.enrollments.ListStudentIDsByAssessment(ctx, assessment.ID)
	if err != nil {
		s.logger.Warn("deadline notification skipped", zap.String("assessment_id", assessment.ID), zap.Error(err))
		return
	}
	message := fmt.Sprintf("Deadline for %q moved by %d day(s) to %s", assessment.Title, days, extended.Format("2006-01-02"))
	for _, studentID := range studentIDs {
		s.notifier.Notify(ctx, studentID, models.NotificationDeadlineExtension, "Deadline extended", message, assessment.ID)
	}
}
