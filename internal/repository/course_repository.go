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

// CourseRepository handles course, module and resource persistence.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository creates a new course repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// Create inserts a new course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now
	const query = `INSERT INTO courses (id, title, description, facilitator_id, created_at, updated_at)
        VALUES (:id, :title, :description, :facilitator_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update rewrites the mutable course columns.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET title = :title, description = :description, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}

// FindByID returns one course.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, title, description, facilitator_id, created_at, updated_at FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// List returns courses matching the filter, newest first.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	query := `SELECT c.id, c.title, c.description, c.facilitator_id, c.created_at, c.updated_at FROM courses c`
	var args []interface{}
	var where []string
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		query += fmt.Sprintf(" JOIN enrollments e ON e.course_id = c.id AND e.student_id = $%d", len(args))
	}
	if filter.FacilitatorID != "" {
		args = append(args, filter.FacilitatorID)
		where = append(where, fmt.Sprintf("c.facilitator_id = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where = append(where, fmt.Sprintf("c.title ILIKE $%d", len(args)))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY c.created_at DESC"

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// ListIDsByFacilitator returns the ids of every course owned by a facilitator.
func (r *CourseRepository) ListIDsByFacilitator(ctx context.Context, facilitatorID string) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM courses WHERE facilitator_id = $1`, facilitatorID); err != nil {
		return nil, fmt.Errorf("list course ids: %w", err)
	}
	return ids, nil
}

// CreateModule inserts a module at the given order index.
func (r *CourseRepository) CreateModule(ctx context.Context, module *models.CourseModule) error {
	if module.ID == "" {
		module.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	module.CreatedAt = now
	module.UpdatedAt = now
	const query = `INSERT INTO modules (id, course_id, title, description, order_index, created_at, updated_at)
        VALUES (:id, :course_id, :title, :description, :order_index, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, module); err != nil {
		return fmt.Errorf("create module: %w", err)
	}
	return nil
}

// UpdateModule rewrites the mutable module columns.
func (r *CourseRepository) UpdateModule(ctx context.Context, module *models.CourseModule) error {
	module.UpdatedAt = time.Now().UTC()
	const query = `UPDATE modules SET title = :title, description = :description, order_index = :order_index, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, module); err != nil {
		return fmt.Errorf("update module: %w", err)
	}
	return nil
}

// FindModuleByID returns one module.
func (r *CourseRepository) FindModuleByID(ctx context.Context, id string) (*models.CourseModule, error) {
	const query = `SELECT id, course_id, title, description, order_index, created_at, updated_at FROM modules WHERE id = $1`
	var module models.CourseModule
	if err := r.db.GetContext(ctx, &module, query, id); err != nil {
		return nil, err
	}
	return &module, nil
}

// ListModulesByCourse returns a course's modules in display order.
func (r *CourseRepository) ListModulesByCourse(ctx context.Context, courseID string) ([]models.CourseModule, error) {
	const query = `SELECT id, course_id, title, description, order_index, created_at, updated_at
        FROM modules WHERE course_id = $1 ORDER BY order_index ASC`
	var modules []models.CourseModule
	if err := r.db.SelectContext(ctx, &modules, query, courseID); err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	return modules, nil
}

// SetModuleOrder updates one module's order index.
func (r *CourseRepository) SetModuleOrder(ctx context.Context, moduleID string, orderIndex int) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE modules SET order_index = $1, updated_at = NOW() WHERE id = $2`, orderIndex, moduleID); err != nil {
		return fmt.Errorf("set module order: %w", err)
	}
	return nil
}

// CreateResource inserts a resource into a module.
func (r *CourseRepository) CreateResource(ctx context.Context, resource *models.Resource) error {
	if resource.ID == "" {
		resource.ID = uuid.NewString()
	}
	resource.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO resources (id, module_id, title, file_url, mime_type, created_at)
        VALUES (:id, :module_id, :title, :file_url, :mime_type, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, resource); err != nil {
		return fmt.Errorf("create resource: %w", err)
	}
	return nil
}

// ListResourcesByModule returns a module's resources.
func (r *CourseRepository) ListResourcesByModule(ctx context.Context, moduleID string) ([]models.Resource, error) {
	const query = `SELECT id, module_id, title, file_url, mime_type, created_at FROM resources WHERE module_id = $1 ORDER BY created_at ASC`
	var resources []models.Resource
	if err := r.db.SelectContext(ctx, &resources, query, moduleID); err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	return resources, nil
}
