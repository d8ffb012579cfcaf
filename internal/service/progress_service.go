package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edulane/lms-api/internal/models"
	appErrors "github.com/edulane/lms-api/pkg/errors"
	"github.com/edulane/lms-api/pkg/jobs"
)

type moduleContentReader interface {
	FindModuleByID(ctx context.Context, id string) (*models.CourseModule, error)
	ListModulesByCourse(ctx context.Context, courseID string) ([]models.CourseModule, error)
	ListResourcesByModule(ctx context.Context, moduleID string) ([]models.Resource, error)
}

type moduleAssessmentLister interface {
	ListByModule(ctx context.Context, moduleID string) ([]models.Assessment, error)
}

type progressViewRepo interface {
	UpsertResourceView(ctx context.Context, view *models.ResourceView) error
	ListViewedResourceIDs(ctx context.Context, studentID, moduleID string) ([]string, error)
}

type submittedIDLister interface {
	ListSubmittedAssessmentIDs(ctx context.Context, studentID, moduleID string) ([]string, error)
}

type enrollmentProgressRepo interface {
	IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error)
	UpdateProgress(ctx context.Context, courseID, studentID string, progress int) error
	ListAtRisk(ctx context.Context, facilitatorID string, threshold int) ([]models.EnrollmentDetail, error)
	ListMissedDeadlines(ctx context.Context, facilitatorID string, now time.Time) ([]models.EnrollmentDetail, error)
	ListLowGrades(ctx context.Context, facilitatorID string, cutoff float64) ([]models.EnrollmentDetail, error)
}

type milestoneNotificationRepo interface {
	Exists(ctx context.Context, userID string, notificationType models.NotificationType, relatedID string) (bool, error)
	Create(ctx context.Context, notification *models.Notification) error
}

// Course milestones announced to the student, checked in ascending order.
var courseMilestones = []int{50, 75, 100}

// Graded submissions under this score flag the student as at risk.
const lowGradeCutoff = 60.0

// recalcPayload is the job body for async progress recomputation.
type recalcPayload struct {
	StudentID string
	CourseID  string
}

// ProgressService aggregates completion and announces milestones. Recomputes
// triggered by submissions and resource views run on a background queue so
// the hot path only pays for the enqueue.
type ProgressService struct {
	courses         moduleContentReader
	assessments     moduleAssessmentLister
	views           progressViewRepo
	submissions     submittedIDLister
	enrollments     enrollmentProgressRepo
	notifications   milestoneNotificationRepo
	logger          *zap.Logger
	queue           *jobs.Queue
	milestones      bool
	atRiskThreshold int
	now             func() time.Time
}

// ProgressServiceConfig tunes the progress service.
type ProgressServiceConfig struct {
	MilestonesEnabled bool
	WorkerConcurrency int
	AtRiskThreshold   int
}

// NewProgressService constructs ProgressService and its recompute queue. Call
// Start before enqueueing and Stop on shutdown.
func NewProgressService(courses moduleContentReader, assessments moduleAssessmentLister, views progressViewRepo, submissions submittedIDLister, enrollments enrollmentProgressRepo, notifications milestoneNotificationRepo, cfg ProgressServiceConfig, logger *zap.Logger) *ProgressService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.AtRiskThreshold <= 0 {
		cfg.AtRiskThreshold = 30
	}
	s := &ProgressService{
		courses:         courses,
		assessments:     assessments,
		views:           views,
		submissions:     submissions,
		enrollments:     enrollments,
		notifications:   notifications,
		logger:          logger,
		milestones:      cfg.MilestonesEnabled,
		atRiskThreshold: cfg.AtRiskThreshold,
		now:             func() time.Time { return time.Now().UTC() },
	}
	s.queue = jobs.NewQueue("progress-recalc", s.handleRecalc, jobs.QueueConfig{
		Workers: cfg.WorkerConcurrency,
		Logger:  logger,
	})
	return s
}

// Start launches the recompute workers.
func (s *ProgressService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the recompute workers.
func (s *ProgressService) Stop() {
	s.queue.Stop()
}

// EnqueueRecalc schedules an async course progress recomputation.
func (s *ProgressService) EnqueueRecalc(studentID, courseID string) {
	err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    "progress.recalc",
		Payload: recalcPayload{StudentID: studentID, CourseID: courseID},
	})
	if err != nil {
		s.logger.Warn("progress recalc enqueue failed",
			zap.String("student_id", studentID),
			zap.String("course_id", courseID),
			zap.Error(err))
	}
}

func (s *ProgressService) handleRecalc(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(recalcPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}
	_, err := s.RecalculateCourseProgress(ctx, payload.StudentID, payload.CourseID)
	return err
}

// RecordResourceView marks a resource as consumed and schedules a progress
// recomputation. Repeat views are a no-op.
func (s *ProgressService) RecordResourceView(ctx context.Context, studentID, resourceID, moduleID string) error {
	module, err := s.courses.FindModuleByID(ctx, moduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "module not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load module")
	}

	enrolled, err := s.enrollments.IsEnrolled(ctx, module.CourseID, studentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if !enrolled {
		return appErrors.ErrNotEnrolled
	}

	view := &models.ResourceView{ResourceID: resourceID, StudentID: studentID}
	if err := s.views.UpsertResourceView(ctx, view); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record view")
	}

	s.EnqueueRecalc(studentID, module.CourseID)
	return nil
}

// ModuleProgressFor computes a single module's completion for a student.
func (s *ProgressService) ModuleProgressFor(ctx context.Context, studentID string, module models.CourseModule) (models.ModuleProgress, error) {
	resources, err := s.courses.ListResourcesByModule(ctx, module.ID)
	if err != nil {
		return models.ModuleProgress{}, fmt.Errorf("list resources: %w", err)
	}
	assessments, err := s.assessments.ListByModule(ctx, module.ID)
	if err != nil {
		return models.ModuleProgress{}, fmt.Errorf("list assessments: %w", err)
	}
	viewedIDs, err := s.views.ListViewedResourceIDs(ctx, studentID, module.ID)
	if err != nil {
		return models.ModuleProgress{}, fmt.Errorf("list viewed resources: %w", err)
	}
	submittedIDs, err := s.submissions.ListSubmittedAssessmentIDs(ctx, studentID, module.ID)
	if err != nil {
		return models.ModuleProgress{}, fmt.Errorf("list submitted assessments: %w", err)
	}

	viewed, submitted := NewIDSet(viewedIDs), NewIDSet(submittedIDs)
	completed, total := moduleUnits(resources, assessments, viewed, submitted)
	return models.ModuleProgress{
		ModuleID:       module.ID,
		ModuleTitle:    module.Title,
		Completion:     ModuleCompletion(resources, assessments, viewed, submitted),
		CompletedUnits: completed,
		TotalUnits:     total,
	}, nil
}

// CourseProgressFor aggregates module completion across a course.
func (s *ProgressService) CourseProgressFor(ctx context.Context, studentID, courseID string) (*models.CourseProgress, error) {
	modules, err := s.courses.ListModulesByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list modules")
	}

	progress := &models.CourseProgress{
		CourseID:  courseID,
		StudentID: studentID,
		Modules:   make([]models.ModuleProgress, 0, len(modules)),
	}
	completions := make([]int, 0, len(modules))
	for _, module := range modules {
		mp, err := s.ModuleProgressFor(ctx, studentID, module)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute module progress")
		}
		progress.Modules = append(progress.Modules, mp)
		completions = append(completions, mp.Completion)
	}
	progress.Completion = CourseCompletion(completions)
	return progress, nil
}

// RecalculateCourseProgress recomputes a student's course completion,
// refreshes the enrollment cache and announces any newly crossed milestones.
func (s *ProgressService) RecalculateCourseProgress(ctx context.Context, studentID, courseID string) (*models.CourseProgress, error) {
	progress, err := s.CourseProgressFor(ctx, studentID, courseID)
	if err != nil {
		return nil, err
	}

	if err := s.enrollments.UpdateProgress(ctx, courseID, studentID, progress.Completion); err != nil {
		s.logger.Warn("enrollment progress update failed",
			zap.String("student_id", studentID),
			zap.String("course_id", courseID),
			zap.Error(err))
	}

	if s.milestones {
		s.announceMilestones(ctx, studentID, courseID, progress)
	}
	return progress, nil
}

// announceMilestones creates milestone notifications the student does not
// have yet. Dedup is check-then-insert on (user, type, related id); a
// concurrent recompute can slip a duplicate through, which is acceptable for
// notifications.
func (s *ProgressService) announceMilestones(ctx context.Context, studentID, courseID string, progress *models.CourseProgress) {
	for _, mp := range progress.Modules {
		if mp.Completion < 100 || mp.TotalUnits == 0 {
			continue
		}
		s.announce(ctx, studentID, models.NotificationModuleComplete,
			"Module complete",
			fmt.Sprintf("You finished the module %q", mp.ModuleTitle),
			mp.ModuleID)
	}
	for _, milestone := range courseMilestones {
		if progress.Completion < milestone {
			continue
		}
		s.announce(ctx, studentID, models.NotificationCourseMilestone,
			fmt.Sprintf("%d%% of the course complete", milestone),
			fmt.Sprintf("You reached %d%% completion", milestone),
			fmt.Sprintf("%s:%d", courseID, milestone))
	}
}

func (s *ProgressService) announce(ctx context.Context, userID string, notificationType models.NotificationType, title, message, relatedID string) {
	exists, err := s.notifications.Exists(ctx, userID, notificationType, relatedID)
	if err != nil {
		s.logger.Warn("milestone dedup check failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if exists {
		return
	}
	notification := &models.Notification{
		UserID:    userID,
		Type:      notificationType,
		Title:     title,
		Message:   message,
		RelatedID: relatedID,
	}
	if err := s.notifications.Create(ctx, notification); err != nil {
		s.logger.Warn("milestone notification failed", zap.String("user_id", userID), zap.Error(err))
	}
}

// AtRiskStudents flags students in one facilitator's courses. A student is at
// risk when their cached progress sits under the configured threshold, they
// missed an assessment deadline, or a graded submission fell under the grade
// cutoff. Each enrollment appears once with every reason that applies.
func (s *ProgressService) AtRiskStudents(ctx context.Context, facilitatorID string) ([]models.AtRiskStudent, error) {
	lowProgress, err := s.enrollments.ListAtRisk(ctx, facilitatorID, s.atRiskThreshold)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list at-risk students")
	}
	missedDeadlines, err := s.enrollments.ListMissedDeadlines(ctx, facilitatorID, s.now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list missed deadlines")
	}
	lowGrades, err := s.enrollments.ListLowGrades(ctx, facilitatorID, lowGradeCutoff)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list low grades")
	}

	byEnrollment := make(map[string]int)
	students := make([]models.AtRiskStudent, 0, len(lowProgress)+len(missedDeadlines)+len(lowGrades))
	flag := func(enrollments []models.EnrollmentDetail, reason models.AtRiskReason) {
		for _, enrollment := range enrollments {
			key := enrollment.CourseID + "|" + enrollment.StudentID
			idx, ok := byEnrollment[key]
			if !ok {
				students = append(students, models.AtRiskStudent{
					StudentID:    enrollment.StudentID,
					StudentName:  enrollment.StudentName,
					StudentEmail: enrollment.StudentEmail,
					CourseID:     enrollment.CourseID,
					Progress:     enrollment.Progress,
				})
				idx = len(students) - 1
				byEnrollment[key] = idx
			}
			students[idx].Reasons = append(students[idx].Reasons, reason)
		}
	}
	flag(lowProgress, models.AtRiskLowProgress)
	flag(missedDeadlines, models.AtRiskMissedDeadline)
	flag(lowGrades, models.AtRiskLowGrade)
	return students, nil
}
