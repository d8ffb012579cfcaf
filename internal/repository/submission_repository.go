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

// SubmissionRepository handles submission persistence and grade writes.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository creates a new submission repository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Create inserts a new submission. One row exists per (assessment, student).
func (r *SubmissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	if submission.SubmittedAt.IsZero() {
		submission.SubmittedAt = time.Now().UTC()
	}
	const query = `INSERT INTO submissions (id, assessment_id, student_id, answers, auto_grade, grade, feedback, file_url, status, submitted_at, graded_at)
        VALUES (:id, :assessment_id, :student_id, :answers, :auto_grade, :grade, :feedback, :file_url, :status, :submitted_at, :graded_at)`
	if _, err := r.db.NamedExecContext(ctx, query, submission); err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

// FindByID returns one submission.
func (r *SubmissionRepository) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	const query = `SELECT id, assessment_id, student_id, answers, auto_grade, grade, feedback, file_url, status, submitted_at, graded_at
        FROM submissions WHERE id = $1`
	var submission models.Submission
	if err := r.db.GetContext(ctx, &submission, query, id); err != nil {
		return nil, err
	}
	return &submission, nil
}

// Exists reports whether the student already submitted this assessment.
func (r *SubmissionRepository) Exists(ctx context.Context, assessmentID, studentID string) (bool, error) {
	var id string
	err := r.db.GetContext(ctx, &id, `SELECT id FROM submissions WHERE assessment_id = $1 AND student_id = $2`, assessmentID, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check submission: %w", err)
	}
	return true, nil
}

// ListByAssessment returns every submission for an assessment, newest first.
func (r *SubmissionRepository) ListByAssessment(ctx context.Context, assessmentID string) ([]models.Submission, error) {
	const query = `SELECT id, assessment_id, student_id, answers, auto_grade, grade, feedback, file_url, status, submitted_at, graded_at
        FROM submissions WHERE assessment_id = $1 ORDER BY submitted_at DESC`
	var submissions []models.Submission
	if err := r.db.SelectContext(ctx, &submissions, query, assessmentID); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return submissions, nil
}

// ListSubmittedAssessmentIDs returns the assessment ids a student has
// submitted within one module. Grading status is irrelevant.
func (r *SubmissionRepository) ListSubmittedAssessmentIDs(ctx context.Context, studentID, moduleID string) ([]string, error) {
	const query = `SELECT s.assessment_id FROM submissions s
        JOIN assessments a ON a.id = s.assessment_id
        WHERE s.student_id = $1 AND a.module_id = $2`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, studentID, moduleID); err != nil {
		return nil, fmt.Errorf("list submitted assessment ids: %w", err)
	}
	return ids, nil
}

// SetGrade records a facilitator grade with feedback. The status moves to
// graded and graded_at is stamped once.
func (r *SubmissionRepository) SetGrade(ctx context.Context, id string, grade float64, feedback string, gradedAt time.Time) error {
	const query = `UPDATE submissions SET grade = $1, feedback = $2, graded_at = $3, status = $4 WHERE id = $5`
	if _, err := r.db.ExecContext(ctx, query, grade, feedback, gradedAt, models.SubmissionGraded, id); err != nil {
		return fmt.Errorf("set grade: %w", err)
	}
	return nil
}

// AdjustGrade overwrites the grade during a bulk adjustment. The row keeps
// its graded_at stamp and moves to the adjusted status.
func (r *SubmissionRepository) AdjustGrade(ctx context.Context, id string, grade float64) error {
	const query = `UPDATE submissions SET grade = $1, status = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, grade, models.SubmissionAdjusted, id); err != nil {
		return fmt.Errorf("adjust grade: %w", err)
	}
	return nil
}

// ListGradedByAssessment returns only graded submissions for an assessment.
func (r *SubmissionRepository) ListGradedByAssessment(ctx context.Context, assessmentID string) ([]models.Submission, error) {
	const query = `SELECT id, assessment_id, student_id, answers, auto_grade, grade, feedback, file_url, status, submitted_at, graded_at
        FROM submissions WHERE assessment_id = $1 AND grade IS NOT NULL ORDER BY submitted_at ASC`
	var submissions []models.Submission
	if err := r.db.SelectContext(ctx, &submissions, query, assessmentID); err != nil {
		return nil, fmt.Errorf("list graded submissions: %w", err)
	}
	return submissions, nil
}
