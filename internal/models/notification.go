package models

import "time"

// NotificationType tags the kinds of notifications the system produces.
type NotificationType string

const (
	NotificationModuleComplete    NotificationType = "module_complete"
	NotificationCourseMilestone   NotificationType = "course_milestone"
	NotificationDeadlineExtension NotificationType = "deadline_extension"
	NotificationGradeAdjustment   NotificationType = "grade_adjustment"
)

// Notification is a best-effort user message. Dedup for milestone
// notifications relies on check-then-insert over (user_id, type, related_id);
// a concurrent race can produce a duplicate.
type Notification struct {
	ID        string           `db:"id" json:"id"`
	UserID    string           `db:"user_id" json:"user_id"`
	Type      NotificationType `db:"type" json:"type"`
	Title     string           `db:"title" json:"title"`
	Message   string           `db:"message" json:"message"`
	RelatedID string           `db:"related_id" json:"related_id"`
	IsRead    bool             `db:"is_read" json:"is_read"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}
