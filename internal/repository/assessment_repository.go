package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edulane/lms-api/internal/models"
)

// AssessmentRepository handles assessment persistence, including the JSONB
// questions column.
type AssessmentRepository struct {
	db *sqlx.DB
}

// NewAssessmentRepository creates a new assessment repository.
func NewAssessmentRepository(db *sqlx.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// Create inserts a new assessment.
func (r *AssessmentRepository) Create(ctx context.Context, assessment *models.Assessment) error {
	if assessment.ID == "" {
		assessment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	assessment.CreatedAt = now
	assessment.UpdatedAt = now
	const query = `INSERT INTO assessments (id, module_id, title, description, assessment_type, questions, total_points, due_date, created_at, updated_at)
        VALUES (:id, :module_id, :title, :description, :assessment_type, :questions, :total_points, :due_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assessment); err != nil {
		return fmt.Errorf("create assessment: %w", err)
	}
	return nil
}

// Update rewrites the mutable assessment columns.
func (r *AssessmentRepository) Update(ctx context.Context, assessment *models.Assessment) error {
	assessment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE assessments SET title = :title, description = :description, assessment_type = :assessment_type,
        questions = :questions, total_points = :total_points, due_date = :due_date, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, assessment); err != nil {
		return fmt.Errorf("update assessment: %w", err)
	}
	return nil
}

// UpdateDueDate moves a single assessment's deadline.
func (r *AssessmentRepository) UpdateDueDate(ctx context.Context, id string, dueDate time.Time) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE assessments SET due_date = $1, updated_at = NOW() WHERE id = $2`, dueDate, id); err != nil {
		return fmt.Errorf("update due date: %w", err)
	}
	return nil
}

// FindByID returns one assessment.
func (r *AssessmentRepository) FindByID(ctx context.Context, id string) (*models.Assessment, error) {
	const query = `SELECT id, module_id, title, description, assessment_type, questions, total_points, due_date, created_at, updated_at
        FROM assessments WHERE id = $1`
	var assessment models.Assessment
	if err := r.db.GetContext(ctx, &assessment, query, id); err != nil {
		return nil, err
	}
	return &assessment, nil
}

// ListByModule returns a module's assessments.
func (r *AssessmentRepository) ListByModule(ctx context.Context, moduleID string) ([]models.Assessment, error) {
	const query = `SELECT id, module_id, title, description, assessment_type, questions, total_points, due_date, created_at, updated_at
        FROM assessments WHERE module_id = $1 ORDER BY created_at ASC`
	var assessments []models.Assessment
	if err := r.db.SelectContext(ctx, &assessments, query, moduleID); err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	return assessments, nil
}

// ListByCourses returns every assessment under the given courses.
func (r *AssessmentRepository) ListByCourses(ctx context.Context, courseIDs []string) ([]models.Assessment, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(courseIDs))
	args := make([]interface{}, len(courseIDs))
	for i, id := range courseIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT a.id, a.module_id, a.title, a.description, a.assessment_type, a.questions, a.total_points, a.due_date, a.created_at, a.updated_at
        FROM assessments a JOIN modules m ON m.id = a.module_id
        WHERE m.course_id IN (%s)`, strings.Join(placeholders, ","))
	var assessments []models.Assessment
	if err := r.db.SelectContext(ctx, &assessments, query, args...); err != nil {
		return nil, fmt.Errorf("list assessments by courses: %w", err)
	}
	return assessments, nil
}

// ListDueBetweenForStudent returns upcoming deadlines across a student's
// enrolled courses as calendar events.
func (r *AssessmentRepository) ListDueBetweenForStudent(ctx context.Context, studentID string, from, to time.Time) ([]models.CalendarEvent, error) {
	const query = `SELECT a.id, a.title, m.course_id, c.title AS course_title, a.due_date
        FROM assessments a
        JOIN modules m ON m.id = a.module_id
        JOIN courses c ON c.id = m.course_id
        JOIN enrollments e ON e.course_id = c.id AND e.student_id = $1
        WHERE a.due_date IS NOT NULL AND a.due_date >= $2 AND a.due_date <= $3
        ORDER BY a.due_date ASC`
	return r.listDue(ctx, query, studentID, from, to)
}

// ListDueBetweenForFacilitator returns upcoming deadlines across a
// facilitator's own courses.
func (r *AssessmentRepository) ListDueBetweenForFacilitator(ctx context.Context, facilitatorID string, from, to time.Time) ([]models.CalendarEvent, error) {
	const query = `SELECT a.id, a.title, m.course_id, c.title AS course_title, a.due_date
        FROM assessments a
        JOIN modules m ON m.id = a.module_id
        JOIN courses c ON c.id = m.course_id
        WHERE c.facilitator_id = $1 AND a.due_date IS NOT NULL AND a.due_date >= $2 AND a.due_date <= $3
        ORDER BY a.due_date ASC`
	return r.listDue(ctx, query, facilitatorID, from, to)
}

func (r *AssessmentRepository) listDue(ctx context.Context, query string, userID string, from, to time.Time) ([]models.CalendarEvent, error) {
	rows, err := r.db.QueryxContext(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list due assessments: %w", err)
	}
	defer rows.Close()

	var events []models.CalendarEvent
	for rows.Next() {
		var (
			id, title, courseID, courseTitle string
			dueDate                          time.Time
		)
		if err := rows.Scan(&id, &title, &courseID, &courseTitle, &dueDate); err != nil {
			return nil, fmt.Errorf("scan due assessment: %w", err)
		}
		events = append(events, models.CalendarEvent{
			ID:          id,
			Kind:        models.CalendarAssessmentDue,
			Title:       title,
			CourseID:    courseID,
			CourseTitle: courseTitle,
			StartsAt:    dueDate,
		})
	}
	return events, rows.Err()
}
