package models

import "time"

// CalendarEventKind distinguishes event sources in the aggregated feed.
type CalendarEventKind string

const (
	CalendarAssessmentDue CalendarEventKind = "assessment_due"
	CalendarLiveSession   CalendarEventKind = "live_session"
)

// CalendarEvent is one entry of the aggregated calendar feed.
type CalendarEvent struct {
	ID          string            `json:"id"`
	Kind        CalendarEventKind `json:"kind"`
	Title       string            `json:"title"`
	CourseID    string            `json:"course_id"`
	CourseTitle string            `json:"course_title"`
	StartsAt    time.Time         `json:"starts_at"`
}
