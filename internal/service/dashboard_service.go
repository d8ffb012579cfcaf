package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/edulane/lms-api/internal/models"
	appErrors "github.com/edulane/lms-api/pkg/errors"
)

type analyticsRepo interface {
	SubmissionRows(ctx context.Context, courseIDs []string) ([]models.SubmissionRow, error)
	EnrollmentStudentIDs(ctx context.Context, courseIDs []string) ([]string, error)
	CountAssessments(ctx context.Context, courseIDs []string) (int, error)
	ForumPostRows(ctx context.Context, courseIDs []string) ([]models.ActivityRow, error)
	ForumReplyRows(ctx context.Context, courseIDs []string) ([]models.ActivityRow, error)
	ModulesByCourses(ctx context.Context, courseIDs []string) ([]models.CourseModule, error)
}

type courseIDLister interface {
	ListIDsByFacilitator(ctx context.Context, facilitatorID string) ([]string, error)
}

type assessmentByCoursesLister interface {
	ListByCourses(ctx context.Context, courseIDs []string) ([]models.Assessment, error)
}

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	InvalidateFacilitator(ctx context.Context, facilitatorID string)
}

// Dashboard is the full analytics payload for one facilitator.
type Dashboard struct {
	Summary           models.AnalyticsSummary       `json:"summary"`
	GradeDistribution []models.GradeBucket          `json:"grade_distribution"`
	ModuleCompletions []models.ModuleCompletionStat `json:"module_completions"`
	EngagementTrend   []models.EngagementPoint      `json:"engagement_trend"`
	GeneratedAt       time.Time                     `json:"generated_at"`
}

// DashboardService fetches raw rows, feeds them through the pure reducers
// and caches the assembled payload per facilitator.
type DashboardService struct {
	analytics    analyticsRepo
	courses      courseIDLister
	assessments  assessmentByCoursesLister
	cache        dashboardCache
	logger       *zap.Logger
	cacheEnabled bool
	cacheTTL     time.Duration
	trendDays    int
	now          func() time.Time
}

// DashboardServiceConfig tunes dashboard caching and the trend window.
type DashboardServiceConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
	TrendDays    int
}

// NewDashboardService constructs DashboardService.
func NewDashboardService(analytics analyticsRepo, courses courseIDLister, assessments assessmentByCoursesLister, cache dashboardCache, cfg DashboardServiceConfig, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.TrendDays <= 0 {
		cfg.TrendDays = 7
	}
	return &DashboardService{
		analytics:    analytics,
		courses:      courses,
		assessments:  assessments,
		cache:        cache,
		logger:       logger,
		cacheEnabled: cfg.CacheEnabled,
		cacheTTL:     cfg.CacheTTL,
		trendDays:    cfg.TrendDays,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Dashboard assembles the analytics payload for one facilitator's courses.
func (s *DashboardService) Dashboard(ctx context.Context, facilitatorID string) (*Dashboard, error) {
	key := fmt.Sprintf("analytics:dashboard:%s", facilitatorID)
	if s.cacheEnabled && s.cache != nil {
		var cached Dashboard
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("dashboard cache read failed", zap.String("facilitator_id", facilitatorID), zap.Error(err))
		}
	}

	dashboard, err := s.build(ctx, facilitatorID)
	if err != nil {
		return nil, err
	}

	if s.cacheEnabled && s.cache != nil {
		if err := s.cache.Set(ctx, key, dashboard, s.cacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.String("facilitator_id", facilitatorID), zap.Error(err))
		}
	}
	return dashboard, nil
}

func (s *DashboardService) build(ctx context.Context, facilitatorID string) (*Dashboard, error) {
	courseIDs, err := s.courses.ListIDsByFacilitator(ctx, facilitatorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve courses")
	}

	now := s.now()
	if len(courseIDs) == 0 {
		return &Dashboard{
			GradeDistribution: GradeDistribution(nil),
			ModuleCompletions: []models.ModuleCompletionStat{},
			EngagementTrend:   EngagementTrend(now, s.trendDays, nil, nil, nil),
			GeneratedAt:       now,
		}, nil
	}

	submissions, err := s.analytics.SubmissionRows(ctx, courseIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submissions")
	}
	studentIDs, err := s.analytics.EnrollmentStudentIDs(ctx, courseIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}
	assessmentCount, err := s.analytics.CountAssessments(ctx, courseIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count assessments")
	}
	posts, err := s.analytics.ForumPostRows(ctx, courseIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load forum posts")
	}
	replies, err := s.analytics.ForumReplyRows(ctx, courseIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load forum replies")
	}
	modules, err := s.analytics.ModulesByCourses(ctx, courseIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load modules")
	}
	assessments, err := s.assessments.ListByCourses(ctx, courseIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessments")
	}

	enrollments := make([]models.Enrollment, len(studentIDs))
	for i, id := range studentIDs {
		enrollments[i] = models.Enrollment{StudentID: id}
	}
	summary := SummarizeAnalytics(enrollments, submissions, assessmentCount, posts, replies)

	return &Dashboard{
		Summary:           summary,
		GradeDistribution: GradeDistribution(submissions),
		ModuleCompletions: ModuleCompletionStats(modules, assessments, submissions, summary.TotalStudents),
		EngagementTrend:   EngagementTrend(now, s.trendDays, submissions, posts, replies),
		GeneratedAt:       now,
	}, nil
}

// Summary returns only the headline block, sharing the dashboard cache.
func (s *DashboardService) Summary(ctx context.Context, facilitatorID string) (*models.AnalyticsSummary, error) {
	dashboard, err := s.Dashboard(ctx, facilitatorID)
	if err != nil {
		return nil, err
	}
	return &dashboard.Summary, nil
}

// Invalidate drops cached dashboards after a write that changes the numbers.
func (s *DashboardService) Invalidate(ctx context.Context, facilitatorID string) {
	if s.cacheEnabled && s.cache != nil {
		s.cache.InvalidateFacilitator(ctx, facilitatorID)
	}
}
