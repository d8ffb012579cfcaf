package models

import "time"

// Meeting providers a session can be hosted on.
const (
	MeetingProviderZoom       = "zoom"
	MeetingProviderGoogleMeet = "google_meet"
	MeetingProviderTeams      = "teams"
	MeetingProviderOther      = "other"
)

// LiveSession is a scheduled synchronous meeting attached to a course.
type LiveSession struct {
	ID              string    `db:"id" json:"id"`
	CourseID        string    `db:"course_id" json:"course_id"`
	Title           string    `db:"title" json:"title"`
	Description     string    `db:"description" json:"description"`
	ScheduledAt     time.Time `db:"scheduled_at" json:"scheduled_at"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	MeetingURL      string    `db:"meeting_url" json:"meeting_url"`
	MeetingProvider string    `db:"meeting_provider" json:"meeting_provider"`
	CreatedBy       string    `db:"created_by" json:"created_by"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
