package models

import "time"

// Course groups modules, enrollments and forum activity under a facilitator.
type Course struct {
	ID            string    `db:"id" json:"id"`
	Title         string    `db:"title" json:"title"`
	Description   string    `db:"description" json:"description"`
	FacilitatorID string    `db:"facilitator_id" json:"facilitator_id"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// CourseModule is an ordered grouping of resources and assessments within a course.
type CourseModule struct {
	ID          string    `db:"id" json:"id"`
	CourseID    string    `db:"course_id" json:"course_id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	OrderIndex  int       `db:"order_index" json:"order_index"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Resource is a viewable learning material scoped to a module.
type Resource struct {
	ID        string    `db:"id" json:"id"`
	ModuleID  string    `db:"module_id" json:"module_id"`
	Title     string    `db:"title" json:"title"`
	FileURL   string    `db:"file_url" json:"file_url"`
	MimeType  string    `db:"mime_type" json:"mime_type"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CourseFilter captures listing criteria for courses.
type CourseFilter struct {
	FacilitatorID string
	StudentID     string
	Search        string
	Page          int
	PageSize      int
}
