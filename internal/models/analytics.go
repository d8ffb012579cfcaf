package models

import "time"

// AnalyticsScope narrows the raw collections fed to the reducers.
type AnalyticsScope struct {
	FacilitatorID string
	CourseIDs     []string
}

// SubmissionRow is the minimal submission projection the reducers consume.
type SubmissionRow struct {
	ID           string    `db:"id" json:"id"`
	AssessmentID string    `db:"assessment_id" json:"assessment_id"`
	ModuleID     string    `db:"module_id" json:"module_id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	Grade        *float64  `db:"grade" json:"grade,omitempty"`
	SubmittedAt  time.Time `db:"submitted_at" json:"submitted_at"`
}

// ActivityRow carries only what the engagement trend needs from forum rows.
type ActivityRow struct {
	ID        string    `db:"id" json:"id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AnalyticsSummary is the headline block of the dashboard.
type AnalyticsSummary struct {
	TotalStudents      int     `json:"total_students"`
	TotalSubmissions   int     `json:"total_submissions"`
	AverageGrade       float64 `json:"average_grade"`
	CompletionRate     int     `json:"completion_rate"`
	PendingSubmissions int     `json:"pending_submissions"`
	ForumPosts         int     `json:"forum_posts"`
	ForumReplies       int     `json:"forum_replies"`
}

// GradeBucket is one bar of the grade distribution. Boundaries are
// upper-closed at 100 and half-open elsewhere: a grade of exactly 80 falls in
// the 80-89 bucket.
type GradeBucket struct {
	Range string `json:"range"`
	Count int    `json:"count"`
}

// ModuleCompletionStat reports completed vs pending submissions per module.
type ModuleCompletionStat struct {
	ModuleID    string `json:"module_id"`
	ModuleTitle string `json:"module_title"`
	Completed   int    `json:"completed"`
	Pending     int    `json:"pending"`
}

// EngagementPoint is one day of the trailing engagement trend.
type EngagementPoint struct {
	Date        string `json:"date"`
	Submissions int    `json:"submissions"`
	Discussions int    `json:"discussions"`
}
