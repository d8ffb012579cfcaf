package service

import (
	"math"
	"time"

	"github.com/edulane/lms-api/internal/models"
)

// Pure reducers over already-fetched collections. No I/O happens here; the
// AnalyticsService owns fetching and caching.

// SummarizeAnalytics derives the dashboard headline numbers. Every ratio with
// a zero denominator reports 0 rather than dividing by zero.
func SummarizeAnalytics(enrollments []models.Enrollment, submissions []models.SubmissionRow, assessmentCount int, posts, replies []models.ActivityRow) models.AnalyticsSummary {
	students := make(map[string]struct{}, len(enrollments))
	for _, e := range enrollments {
		students[e.StudentID] = struct{}{}
	}
	totalStudents := len(students)

	gradedCount := 0
	gradeSum := 0.0
	pending := 0
	for _, s := range submissions {
		if s.Grade == nil {
			pending++
			continue
		}
		gradedCount++
		gradeSum += *s.Grade
	}

	averageGrade := 0.0
	if gradedCount > 0 {
		averageGrade = math.Round(gradeSum/float64(gradedCount)*10) / 10
	}

	completionRate := 0
	if denominator := assessmentCount * totalStudents; denominator > 0 {
		completionRate = int(math.Round(100 * float64(len(submissions)) / float64(denominator)))
	}

	return models.AnalyticsSummary{
		TotalStudents:      totalStudents,
		TotalSubmissions:   len(submissions),
		AverageGrade:       averageGrade,
		CompletionRate:     completionRate,
		PendingSubmissions: pending,
		ForumPosts:         len(posts),
		ForumReplies:       len(replies),
	}
}

// GradeDistribution partitions graded submissions into fixed buckets. The top
// bucket is closed at 100; the rest are half-open, so a grade of exactly 80
// lands in 80-89.
func GradeDistribution(submissions []models.SubmissionRow) []models.GradeBucket {
	buckets := []models.GradeBucket{
		{Range: "90-100"},
		{Range: "80-89"},
		{Range: "70-79"},
		{Range: "60-69"},
		{Range: "Below 60"},
	}
	for _, s := range submissions {
		if s.Grade == nil {
			continue
		}
		g := *s.Grade
		switch {
		case g >= 90:
			buckets[0].Count++
		case g >= 80:
			buckets[1].Count++
		case g >= 70:
			buckets[2].Count++
		case g >= 60:
			buckets[3].Count++
		default:
			buckets[4].Count++
		}
	}
	return buckets
}

// ModuleCompletionStats reports completed vs pending submission counts per
// module. Pending is floored at 0 so over-submission noise cannot produce a
// negative bar.
func ModuleCompletionStats(modules []models.CourseModule, assessments []models.Assessment, submissions []models.SubmissionRow, totalStudents int) []models.ModuleCompletionStat {
	assessmentsByModule := make(map[string]int, len(modules))
	for _, a := range assessments {
		assessmentsByModule[a.ModuleID]++
	}
	submissionsByModule := make(map[string]int, len(modules))
	for _, s := range submissions {
		submissionsByModule[s.ModuleID]++
	}

	stats := make([]models.ModuleCompletionStat, 0, len(modules))
	for _, m := range modules {
		completed := submissionsByModule[m.ID]
		pending := assessmentsByModule[m.ID]*totalStudents - completed
		if pending < 0 {
			pending = 0
		}
		stats = append(stats, models.ModuleCompletionStat{
			ModuleID:    m.ID,
			ModuleTitle: m.Title,
			Completed:   completed,
			Pending:     pending,
		})
	}
	return stats
}

// EngagementTrend buckets submissions and forum activity by calendar day for
// a trailing window ending at now, oldest day first. Day membership is a
// string match on the date portion of the timestamp, not a true interval
// comparison.
func EngagementTrend(now time.Time, days int, submissions []models.SubmissionRow, posts, replies []models.ActivityRow) []models.EngagementPoint {
	if days <= 0 {
		days = 7
	}
	trend := make([]models.EngagementPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i).UTC().Format("2006-01-02")
		point := models.EngagementPoint{Date: day}
		for _, s := range submissions {
			if s.SubmittedAt.UTC().Format("2006-01-02") == day {
				point.Submissions++
			}
		}
		for _, p := range posts {
			if p.CreatedAt.UTC().Format("2006-01-02") == day {
				point.Discussions++
			}
		}
		for _, r := range replies {
			if r.CreatedAt.UTC().Format("2006-01-02") == day {
				point.Discussions++
			}
		}
		trend = append(trend, point)
	}
	return trend
}
