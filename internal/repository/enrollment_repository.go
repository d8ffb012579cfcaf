package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edulane/lms-api/internal/models"
)

// EnrollmentRepository handles enrollment persistence and the denormalized
// progress cache.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository creates a new enrollment repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Create enrolls a student into a course.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now
	const query = `INSERT INTO enrollments (id, course_id, student_id, progress, created_at, updated_at)
        VALUES (:id, :course_id, :student_id, :progress, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// FindByCourseAndStudent returns one enrollment pair.
func (r *EnrollmentRepository) FindByCourseAndStudent(ctx context.Context, courseID, studentID string) (*models.Enrollment, error) {
	const query = `SELECT id, course_id, student_id, progress, created_at, updated_at
        FROM enrollments WHERE course_id = $1 AND student_id = $2`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, courseID, studentID); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// IsEnrolled reports whether the student belongs to the course.
func (r *EnrollmentRepository) IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error) {
	_, err := r.FindByCourseAndStudent(ctx, courseID, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return true, nil
}

// ListByCourse returns a course roster with student identity attached.
func (r *EnrollmentRepository) ListByCourse(ctx context.Context, courseID string) ([]models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.course_id, e.student_id, e.progress, e.created_at, e.updated_at,
        u.full_name AS student_name, u.email AS student_email
        FROM enrollments e JOIN users u ON u.id = e.student_id
        WHERE e.course_id = $1 ORDER BY u.full_name ASC`
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, courseID); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}

// ListByStudent returns every enrollment of one student.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	const query = `SELECT id, course_id, student_id, progress, created_at, updated_at
        FROM enrollments WHERE student_id = $1 ORDER BY created_at DESC`
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	return enrollments, nil
}

// ListStudentIDsByAssessment returns the students who submitted nothing yet
// but are enrolled in the assessment's course.
func (r *EnrollmentRepository) ListStudentIDsByAssessment(ctx context.Context, assessmentID string) ([]string, error) {
	const query = `SELECT e.student_id FROM enrollments e
        JOIN modules m ON m.course_id = e.course_id
        JOIN assessments a ON a.module_id = m.id
        WHERE a.id = $1`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, assessmentID); err != nil {
		return nil, fmt.Errorf("list students by assessment: %w", err)
	}
	return ids, nil
}

// UpdateProgress refreshes the denormalized course completion cache.
func (r *EnrollmentRepository) UpdateProgress(ctx context.Context, courseID, studentID string, progress int) error {
	const query = `UPDATE enrollments SET progress = $1, updated_at = NOW() WHERE course_id = $2 AND student_id = $3`
	if _, err := r.db.ExecContext(ctx, query, progress, courseID, studentID); err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return nil
}

// ListAtRisk returns enrollments under the given progress threshold for a
// facilitator's courses.
func (r *EnrollmentRepository) ListAtRisk(ctx context.Context, facilitatorID string, threshold int) ([]models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.course_id, e.student_id, e.progress, e.created_at, e.updated_at,
        u.full_name AS student_name, u.email AS student_email
        FROM enrollments e
        JOIN users u ON u.id = e.student_id
        JOIN courses c ON c.id = e.course_id
        WHERE c.facilitator_id = $1 AND e.progress < $2
        ORDER BY e.progress ASC`
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, facilitatorID, threshold); err != nil {
		return nil, fmt.Errorf("list at-risk enrollments: %w", err)
	}
	return enrollments, nil
}

// ListMissedDeadlines returns enrollments in a facilitator's courses where the
// student has an overdue assessment with no submission.
func (r *EnrollmentRepository) ListMissedDeadlines(ctx context.Context, facilitatorID string, now time.Time) ([]models.EnrollmentDetail, error) {
	const query = `SELECT DISTINCT e.id, e.course_id, e.student_id, e.progress, e.created_at, e.updated_at,
        u.full_name AS student_name, u.email AS student_email
        FROM enrollments e
        JOIN users u ON u.id = e.student_id
        JOIN courses c ON c.id = e.course_id
        JOIN modules m ON m.course_id = c.id
        JOIN assessments a ON a.module_id = m.id
        WHERE c.facilitator_id = $1
          AND a.due_date IS NOT NULL AND a.due_date < $2
          AND NOT EXISTS (
              SELECT 1 FROM submissions s
              WHERE s.assessment_id = a.id AND s.student_id = e.student_id)`
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, facilitatorID, now); err != nil {
		return nil, fmt.Errorf("list missed deadlines: %w", err)
	}
	return enrollments, nil
}

// ListLowGrades returns enrollments in a facilitator's courses where the
// student has at least one graded submission under the cutoff.
func (r *EnrollmentRepository) ListLowGrades(ctx context.Context, facilitatorID string, cutoff float64) ([]models.EnrollmentDetail, error) {
	const query = `SELECT DISTINCT e.id, e.course_id, e.student_id, e.progress, e.created_at, e.updated_at,
        u.full_name AS student_name, u.email AS student_email
        FROM enrollments e
        JOIN users u ON u.id = e.student_id
        JOIN courses c ON c.id = e.course_id
        JOIN modules m ON m.course_id = c.id
        JOIN assessments a ON a.module_id = m.id
        JOIN submissions s ON s.assessment_id = a.id AND s.student_id = e.student_id
        WHERE c.facilitator_id = $1 AND s.grade IS NOT NULL AND s.grade < $2`
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, facilitatorID, cutoff); err != nil {
		return nil, fmt.Errorf("list low grades: %w", err)
	}
	return enrollments, nil
}
