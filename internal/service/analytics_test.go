package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulane/lms-api/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

func TestSummarizeAnalyticsDeduplicatesStudents(t *testing.T) {
	enrollments := []models.Enrollment{
		{ID: "e1", CourseID: "c1", StudentID: "stu-1"},
		{ID: "e2", CourseID: "c2", StudentID: "stu-1"},
		{ID: "e3", CourseID: "c1", StudentID: "stu-2"},
	}
	summary := SummarizeAnalytics(enrollments, nil, 0, nil, nil)
	assert.Equal(t, 2, summary.TotalStudents)
}

func TestSummarizeAnalyticsAverageAndPending(t *testing.T) {
	submissions := []models.SubmissionRow{
		{ID: "s1", Grade: floatPtr(90)},
		{ID: "s2", Grade: floatPtr(71)},
		{ID: "s3"},
	}
	summary := SummarizeAnalytics(nil, submissions, 0, nil, nil)
	assert.Equal(t, 80.5, summary.AverageGrade)
	assert.Equal(t, 1, summary.PendingSubmissions)
	assert.Equal(t, 3, summary.TotalSubmissions)
}

func TestSummarizeAnalyticsZeroDenominators(t *testing.T) {
	summary := SummarizeAnalytics(nil, nil, 0, nil, nil)
	assert.Equal(t, 0.0, summary.AverageGrade)
	assert.Equal(t, 0, summary.CompletionRate)

	// Assessments but no students still guards the denominator.
	summary = SummarizeAnalytics(nil, []models.SubmissionRow{{ID: "s1"}}, 4, nil, nil)
	assert.Equal(t, 0, summary.CompletionRate)
}

func TestSummarizeAnalyticsCompletionRate(t *testing.T) {
	enrollments := []models.Enrollment{
		{ID: "e1", StudentID: "stu-1"},
		{ID: "e2", StudentID: "stu-2"},
	}
	submissions := []models.SubmissionRow{{ID: "s1"}, {ID: "s2"}, {ID: "s3"}}
	summary := SummarizeAnalytics(enrollments, submissions, 2, nil, nil)
	// 100 * 3 / (2*2) = 75
	assert.Equal(t, 75, summary.CompletionRate)
}

func TestGradeDistributionBucketsPartition(t *testing.T) {
	submissions := []models.SubmissionRow{
		{ID: "s1", Grade: floatPtr(95)},
		{ID: "s2", Grade: floatPtr(82)},
		{ID: "s3", Grade: floatPtr(71)},
		{ID: "s4", Grade: floatPtr(58)},
	}
	buckets := GradeDistribution(submissions)
	require.Len(t, buckets, 5)
	assert.Equal(t, 1, buckets[0].Count)
	assert.Equal(t, 1, buckets[1].Count)
	assert.Equal(t, 1, buckets[2].Count)
	assert.Equal(t, 0, buckets[3].Count)
	assert.Equal(t, 1, buckets[4].Count)
}

func TestGradeDistributionBoundaries(t *testing.T) {
	// 80 belongs to 80-89, not 90-100; 100 stays in the top bucket; every
	// grade lands in exactly one bucket.
	submissions := []models.SubmissionRow{
		{ID: "s1", Grade: floatPtr(80)},
		{ID: "s2", Grade: floatPtr(90)},
		{ID: "s3", Grade: floatPtr(100)},
		{ID: "s4", Grade: floatPtr(60)},
		{ID: "s5", Grade: floatPtr(0)},
		{ID: "s6"},
	}
	buckets := GradeDistribution(submissions)

	counted := 0
	for _, b := range buckets {
		counted += b.Count
	}
	assert.Equal(t, 5, counted)
	assert.Equal(t, 2, buckets[0].Count) // 90, 100
	assert.Equal(t, 1, buckets[1].Count) // 80
	assert.Equal(t, 1, buckets[3].Count) // 60
	assert.Equal(t, 1, buckets[4].Count) // 0
}

func TestModuleCompletionStatsPendingFloor(t *testing.T) {
	modules := []models.CourseModule{{ID: "m1", Title: "Basics"}, {ID: "m2", Title: "Advanced"}}
	assessments := []models.Assessment{{ID: "a1", ModuleID: "m1"}, {ID: "a2", ModuleID: "m2"}}
	submissions := []models.SubmissionRow{
		{ID: "s1", ModuleID: "m1"},
		{ID: "s2", ModuleID: "m1"},
		{ID: "s3", ModuleID: "m1"},
	}
	stats := ModuleCompletionStats(modules, assessments, submissions, 2)
	require.Len(t, stats, 2)
	assert.Equal(t, 3, stats[0].Completed)
	assert.Equal(t, 0, stats[0].Pending)
	assert.Equal(t, 0, stats[1].Completed)
	assert.Equal(t, 2, stats[1].Pending)
}

func TestEngagementTrendBucketsByDay(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	submissions := []models.SubmissionRow{
		{ID: "s1", SubmittedAt: time.Date(2024, 3, 10, 1, 0, 0, 0, time.UTC)},
		{ID: "s2", SubmittedAt: time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC)},
		{ID: "s3", SubmittedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}, // outside window
	}
	posts := []models.ActivityRow{{ID: "p1", CreatedAt: time.Date(2024, 3, 9, 8, 0, 0, 0, time.UTC)}}
	replies := []models.ActivityRow{{ID: "r1", CreatedAt: time.Date(2024, 3, 9, 9, 0, 0, 0, time.UTC)}}

	trend := EngagementTrend(now, 7, submissions, posts, replies)
	require.Len(t, trend, 7)

	assert.Equal(t, "2024-03-04", trend[0].Date)
	assert.Equal(t, "2024-03-10", trend[6].Date)

	assert.Equal(t, 1, trend[6].Submissions)
	assert.Equal(t, 1, trend[5].Submissions)
	assert.Equal(t, 2, trend[5].Discussions)

	total := 0
	for _, p := range trend {
		total += p.Submissions
	}
	assert.Equal(t, 2, total)
}
