package models

import "time"

// Enrollment links a student to a course. Progress is a denormalized cache of
// the course completion percentage, refreshed after recomputation.
type Enrollment struct {
	ID        string    `db:"id" json:"id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Progress  int       `db:"progress" json:"progress"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// EnrollmentDetail joins student identity onto an enrollment row.
type EnrollmentDetail struct {
	Enrollment
	StudentName  string `db:"student_name" json:"student_name"`
	StudentEmail string `db:"student_email" json:"student_email"`
}
