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

type submissionRepo interface {
	Create(ctx context.Context, submission *models.Submission) error
	FindByID(ctx context.Context, id string) (*models.Submission, error)
	Exists(ctx context.Context, assessmentID, studentID string) (bool, error)
	ListByAssessment(ctx context.Context, assessmentID string) ([]models.Submission, error)
	ListGradedByAssessment(ctx context.Context, assessmentID string) ([]models.Submission, error)
	SetGrade(ctx context.Context, id string, grade float64, feedback string, gradedAt time.Time) error
	AdjustGrade(ctx context.Context, id string, grade float64) error
}

type assessmentReader interface {
	FindByID(ctx context.Context, id string) (*models.Assessment, error)
}

type moduleReader interface {
	FindModuleByID(ctx context.Context, id string) (*models.CourseModule, error)
}

type enrollmentChecker interface {
	IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error)
}

type progressRecalculator interface {
	EnqueueRecalc(studentID, courseID string)
}

type submissionNotifier interface {
	Notify(ctx context.Context, userID string, notificationType models.NotificationType, title, message, relatedID string)
}

// SubmitRequest is a student's answer payload for an assessment.
type SubmitRequest struct {
	AssessmentID string            `json:"assessment_id" validate:"required"`
	Answers      map[string]string `json:"answers" validate:"required"`
	FileURL      *string           `json:"file_url"`
}

// GradeSubmissionRequest is the facilitator grading payload.
type GradeSubmissionRequest struct {
	Grade    float64 `json:"grade" validate:"min=0"`
	Feedback string  `json:"feedback"`
}

// BulkAdjustRequest applies one arithmetic operation to every graded
// submission of an assessment.
type BulkAdjustRequest struct {
	AssessmentID string  `json:"assessment_id" validate:"required"`
	Operation    string  `json:"operation" validate:"required,oneof=add multiply"`
	Value        float64 `json:"value"`
}

// BulkAdjustFailure records one submission the adjustment could not update.
type BulkAdjustFailure struct {
	SubmissionID string `json:"submission_id"`
	Reason       string `json:"reason"`
}

// BulkAdjustResult summarises a bulk grade adjustment. A partially failed
// run still reports the successes; failures are listed per submission.
type BulkAdjustResult struct {
	SuccessCount int                 `json:"success_count"`
	Failures     []BulkAdjustFailure `json:"failures,omitempty"`
}

// SubmissionService orchestrates the submit and grading flows.
type SubmissionService struct {
	submissions submissionRepo
	assessments assessmentReader
	modules     moduleReader
	enrollments enrollmentChecker
	progress    progressRecalculator
	notifier    submissionNotifier
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewSubmissionService constructs SubmissionService.
func NewSubmissionService(submissions submissionRepo, assessments assessmentReader, modules moduleReader, enrollments enrollmentChecker, progress progressRecalculator, notifier submissionNotifier, validate *validator.Validate, logger *zap.Logger) *SubmissionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{
		submissions: submissions,
		assessments: assessments,
		modules:     modules,
		enrollments: enrollments,
		progress:    progress,
		notifier:    notifier,
		validator:   validate,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Submit accepts a student's first and only attempt at an assessment. The
// flow is: enrollment check, duplicate check, answer validation, auto-grade,
// persist, then an async progress recompute.
func (s *SubmissionService) Submit(ctx context.Context, studentID string, req SubmitRequest) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	assessment, err := s.assessments.FindByID(ctx, req.AssessmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assessment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment")
	}

	module, err := s.modules.FindModuleByID(ctx, assessment.ModuleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load module")
	}

	enrolled, err := s.enrollments.IsEnrolled(ctx, module.CourseID, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if !enrolled {
		return nil, appErrors.ErrNotEnrolled
	}

	exists, err := s.submissions.Exists(ctx, req.AssessmentID, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing submission")
	}
	if exists {
		return nil, appErrors.ErrAlreadySubmitted
	}

	answers := models.AnswerMap(req.Answers)
	if err := ValidateAnswers(assessment.Questions, answers); err != nil {
		return nil, err
	}

	submission := &models.Submission{
		AssessmentID: req.AssessmentID,
		StudentID:    studentID,
		Answers:      answers,
		AutoGrade:    Score(assessment.Questions, answers),
		FileURL:      req.FileURL,
		Status:       models.SubmissionAutoGraded,
		SubmittedAt:  s.now(),
	}
	if err := s.submissions.Create(ctx, submission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save submission")
	}

	if s.progress != nil {
		s.progress.EnqueueRecalc(studentID, module.CourseID)
	}

	s.logger.Info("submission accepted",
		zap.String("assessment_id", req.AssessmentID),
		zap.String("student_id", studentID),
		zap.Int("auto_grade", submission.AutoGrade))
	return submission, nil
}

// Get returns one submission. Students may only read their own.
func (s *SubmissionService) Get(ctx context.Context, id string, requester models.UserInfo) (*models.Submission, error) {
	submission, err := s.submissions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	if requester.Role == models.RoleStudent && submission.StudentID != requester.ID {
		return nil, appErrors.ErrForbidden
	}
	return submission, nil
}

// ListByAssessment returns every submission for an assessment.
func (s *SubmissionService) ListByAssessment(ctx context.Context, assessmentID string) ([]models.Submission, error) {
	submissions, err := s.submissions.ListByAssessment(ctx, assessmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	return submissions, nil
}

// Grade records a facilitator grade. The grade is validated against the
// assessment's total points, not a fixed scale.
func (s *SubmissionService) Grade(ctx context.Context, submissionID string, req GradeSubmissionRequest) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	submission, err := s.submissions.FindByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}

	assessment, err := s.assessments.FindByID(ctx, submission.AssessmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment")
	}
	if req.Grade > float64(assessment.TotalPoints) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("grade exceeds total points (%d)", assessment.TotalPoints))
	}

	gradedAt := s.now()
	if err := s.submissions.SetGrade(ctx, submissionID, req.Grade, req.Feedback, gradedAt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save grade")
	}

	submission.Grade = &req.Grade
	submission.Feedback = &req.Feedback
	submission.GradedAt = &gradedAt
	submission.Status = models.SubmissionGraded
	return submission, nil
}

// AdjustedGrade applies a bulk operation to one grade and clamps the result
// to the 0-100 scale bulk adjustments operate on.
func AdjustedGrade(grade float64, operation string, value float64) (float64, error) {
	var adjusted float64
	switch operation {
	case "add":
		adjusted = grade + value
	case "multiply":
		adjusted = grade * value
	default:
		return 0, fmt.Errorf("unknown operation %q", operation)
	}
	if adjusted < 0 {
		adjusted = 0
	}
	if adjusted > 100 {
		adjusted = 100
	}
	return adjusted, nil
}

// BulkAdjust rewrites every graded submission of an assessment with the
// requested operation. Per-submission failures do not abort the run; the
// result reports both counts so callers can surface a partial outcome.
func (s *SubmissionService) BulkAdjust(ctx context.Context, req BulkAdjustRequest) (*BulkAdjustResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	graded, err := s.submissions.ListGradedByAssessment(ctx, req.AssessmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list graded submissions")
	}

	result := &BulkAdjustResult{}
	for _, submission := range graded {
		if submission.Grade == nil {
			continue
		}
		adjusted, err := AdjustedGrade(*submission.Grade, req.Operation, req.Value)
		if err != nil {
			result.Failures = append(result.Failures, BulkAdjustFailure{SubmissionID: submission.ID, Reason: err.Error()})
			continue
		}
		if err := s.submissions.AdjustGrade(ctx, submission.ID, adjusted); err != nil {
			s.logger.Warn("bulk adjust write failed", zap.String("submission_id", submission.ID), zap.Error(err))
			result.Failures = append(result.Failures, BulkAdjustFailure{SubmissionID: submission.ID, Reason: "update failed"})
			continue
		}
		result.SuccessCount++
		if s.notifier != nil {
			s.notifier.Notify(ctx, submission.StudentID, models.NotificationGradeAdjustment,
				"Grade adjusted",
				fmt.Sprintf("Your grade was adjusted to %.1f", adjusted),
				submission.AssessmentID)
		}
	}

	s.logger.Info("bulk grade adjustment finished",
		zap.String("assessment_id", req.AssessmentID),
		zap.Int("succeeded", result.SuccessCount),
		zap.Int("failed", len(result.Failures)))
	return result, nil
}
