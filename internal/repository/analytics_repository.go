package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/edulane/lms-api/internal/models"
)

// AnalyticsRepository exposes read-optimised projections for the dashboard
// reducers. Each query pulls only the columns the reducers consume.
type AnalyticsRepository struct {
	db *sqlx.DB
}

// NewAnalyticsRepository instantiates the repository.
func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

func coursePlaceholders(courseIDs []string) (string, []interface{}) {
	placeholders := make([]string, len(courseIDs))
	args := make([]interface{}, len(courseIDs))
	for i, id := range courseIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	return strings.Join(placeholders, ","), args
}

// SubmissionRows returns all submissions under the given courses.
func (r *AnalyticsRepository) SubmissionRows(ctx context.Context, courseIDs []string) ([]models.SubmissionRow, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}
	in, args := coursePlaceholders(courseIDs)
	query := fmt.Sprintf(`SELECT s.id, s.assessment_id, a.module_id, s.student_id, s.grade, s.submitted_at
        FROM submissions s
        JOIN assessments a ON a.id = s.assessment_id
        JOIN modules m ON m.id = a.module_id
        WHERE m.course_id IN (%s)`, in)
	var rows []models.SubmissionRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query submission rows: %w", err)
	}
	return rows, nil
}

// EnrollmentStudentIDs returns the student id behind each enrollment under
// the given courses. Students enrolled in several courses appear once per
// enrollment; the reducer deduplicates.
func (r *AnalyticsRepository) EnrollmentStudentIDs(ctx context.Context, courseIDs []string) ([]string, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}
	in, args := coursePlaceholders(courseIDs)
	query := fmt.Sprintf(`SELECT student_id FROM enrollments WHERE course_id IN (%s)`, in)
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("query enrollment student ids: %w", err)
	}
	return ids, nil
}

// CountAssessments returns the number of assessments under the given courses.
func (r *AnalyticsRepository) CountAssessments(ctx context.Context, courseIDs []string) (int, error) {
	if len(courseIDs) == 0 {
		return 0, nil
	}
	in, args := coursePlaceholders(courseIDs)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM assessments a
        JOIN modules m ON m.id = a.module_id WHERE m.course_id IN (%s)`, in)
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count assessments: %w", err)
	}
	return count, nil
}

// ForumPostRows returns post ids with creation timestamps for the courses.
func (r *AnalyticsRepository) ForumPostRows(ctx context.Context, courseIDs []string) ([]models.ActivityRow, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}
	in, args := coursePlaceholders(courseIDs)
	query := fmt.Sprintf(`SELECT id, created_at FROM forum_posts WHERE course_id IN (%s)`, in)
	var rows []models.ActivityRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query forum post rows: %w", err)
	}
	return rows, nil
}

// ForumReplyRows returns reply ids with creation timestamps for the courses.
func (r *AnalyticsRepository) ForumReplyRows(ctx context.Context, courseIDs []string) ([]models.ActivityRow, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}
	in, args := coursePlaceholders(courseIDs)
	query := fmt.Sprintf(`SELECT fr.id, fr.created_at FROM forum_replies fr
        JOIN forum_posts p ON p.id = fr.post_id WHERE p.course_id IN (%s)`, in)
	var rows []models.ActivityRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query forum reply rows: %w", err)
	}
	return rows, nil
}

// ModulesByCourses returns module identity for completion stat grouping.
func (r *AnalyticsRepository) ModulesByCourses(ctx context.Context, courseIDs []string) ([]models.CourseModule, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}
	in, args := coursePlaceholders(courseIDs)
	query := fmt.Sprintf(`SELECT id, course_id, title, description, order_index, created_at, updated_at
        FROM modules WHERE course_id IN (%s) ORDER BY order_index ASC`, in)
	var modules []models.CourseModule
	if err := r.db.SelectContext(ctx, &modules, query, args...); err != nil {
		return nil, fmt.Errorf("query modules by courses: %w", err)
	}
	return modules, nil
}
