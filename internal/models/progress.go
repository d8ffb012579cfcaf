package models

import "time"

// ResourceView is the idempotent evidence that a student consumed a resource.
type ResourceView struct {
	ResourceID string    `db:"resource_id" json:"resource_id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	ViewedAt   time.Time `db:"viewed_at" json:"viewed_at"`
}

// ModuleProgress reports a student's completion for one module.
type ModuleProgress struct {
	ModuleID       string `json:"module_id"`
	ModuleTitle    string `json:"module_title"`
	Completion     int    `json:"completion"`
	CompletedUnits int    `json:"completed_units"`
	TotalUnits     int    `json:"total_units"`
}

// CourseProgress aggregates module completion for one course and student.
type CourseProgress struct {
	CourseID   string           `json:"course_id"`
	StudentID  string           `json:"student_id"`
	Completion int              `json:"completion"`
	Modules    []ModuleProgress `json:"modules"`
}

// AtRiskReason labels why a student was flagged in the at-risk listing.
type AtRiskReason string

const (
	AtRiskLowProgress    AtRiskReason = "low_progress"
	AtRiskMissedDeadline AtRiskReason = "missed_deadline"
	AtRiskLowGrade       AtRiskReason = "low_grade"
)

// AtRiskStudent is one flagged enrollment with every reason that applies.
type AtRiskStudent struct {
	StudentID    string         `json:"student_id"`
	StudentName  string         `json:"student_name"`
	StudentEmail string         `json:"student_email"`
	CourseID     string         `json:"course_id"`
	Progress     int            `json:"progress"`
	Reasons      []AtRiskReason `json:"reasons"`
}
