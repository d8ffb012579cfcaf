package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edulane/lms-api/internal/models"
	appErrors "github.com/edulane/lms-api/pkg/errors"
)

type courseRepo interface {
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	FindByID(ctx context.Context, id string) (*models.Course, error)
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error)
	CreateModule(ctx context.Context, module *models.CourseModule) error
	UpdateModule(ctx context.Context, module *models.CourseModule) error
	FindModuleByID(ctx context.Context, id string) (*models.CourseModule, error)
	ListModulesByCourse(ctx context.Context, courseID string) ([]models.CourseModule, error)
	SetModuleOrder(ctx context.Context, moduleID string, orderIndex int) error
	CreateResource(ctx context.Context, resource *models.Resource) error
	ListResourcesByModule(ctx context.Context, moduleID string) ([]models.Resource, error)
}

type courseEnrollmentRepo interface {
	Create(ctx context.Context, enrollment *models.Enrollment) error
	IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.EnrollmentDetail, error)
}

// UpsertCourseRequest creates or updates a course.
type UpsertCourseRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

// UpsertModuleRequest creates or updates a module within a course.
type UpsertModuleRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	OrderIndex  int    `json:"order_index" validate:"min=0"`
}

// CreateResourceRequest attaches a learning material to a module.
type CreateResourceRequest struct {
	Title    string `json:"title" validate:"required"`
	FileURL  string `json:"file_url" validate:"required"`
	MimeType string `json:"mime_type"`
}

// CourseService orchestrates course authoring and enrollment.
type CourseService struct {
	courses     courseRepo
	enrollments courseEnrollmentRepo
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(courses courseRepo, enrollments courseEnrollmentRepo, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{courses: courses, enrollments: enrollments, validator: validate, logger: logger}
}

// Create stores a new course owned by the facilitator.
func (s *CourseService) Create(ctx context.Context, facilitatorID string, req UpsertCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	course := &models.Course{
		Title:         req.Title,
		Description:   req.Description,
		FacilitatorID: facilitatorID,
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	return course, nil
}

// Update rewrites a course. Only the owning facilitator may edit it.
func (s *CourseService) Update(ctx context.Context, id string, requester models.UserInfo, req UpsertCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	course, err := s.requireOwnedCourse(ctx, id, requester)
	if err != nil {
		return nil, err
	}
	course.Title = req.Title
	course.Description = req.Description
	if err := s.courses.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	return course, nil
}

// Get returns one course. Students must be enrolled to read it.
func (s *CourseService) Get(ctx context.Context, id string, requester models.UserInfo) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if requester.Role == models.RoleStudent {
		enrolled, err := s.enrollments.IsEnrolled(ctx, id, requester.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
		}
		if !enrolled {
			return nil, appErrors.ErrNotEnrolled
		}
	}
	return course, nil
}

// List returns the courses visible to the requester: students see their
// enrollments, facilitators their own courses, admins everything.
func (s *CourseService) List(ctx context.Context, requester models.UserInfo, search string) ([]models.Course, error) {
	filter := models.CourseFilter{Search: search}
	switch requester.Role {
	case models.RoleStudent:
		filter.StudentID = requester.ID
	case models.RoleFacilitator:
		filter.FacilitatorID = requester.ID
	}
	courses, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// AddModule appends a module to an owned course.
func (s *CourseService) AddModule(ctx context.Context, courseID string, requester models.UserInfo, req UpsertModuleRequest) (*models.CourseModule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if _, err := s.requireOwnedCourse(ctx, courseID, requester); err != nil {
		return nil, err
	}
	module := &models.CourseModule{
		CourseID:    courseID,
		Title:       req.Title,
		Description: req.Description,
		OrderIndex:  req.OrderIndex,
	}
	if err := s.courses.CreateModule(ctx, module); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create module")
	}
	return module, nil
}

// UpdateModule rewrites a module within an owned course.
func (s *CourseService) UpdateModule(ctx context.Context, moduleID string, requester models.UserInfo, req UpsertModuleRequest) (*models.CourseModule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	module, err := s.courses.FindModuleByID(ctx, moduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "module not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load module")
	}
	if _, err := s.requireOwnedCourse(ctx, module.CourseID, requester); err != nil {
		return nil, err
	}
	module.Title = req.Title
	module.Description = req.Description
	module.OrderIndex = req.OrderIndex
	if err := s.courses.UpdateModule(ctx, module); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update module")
	}
	return module, nil
}

// ReorderModules applies a new display order. Positions follow slice order.
func (s *CourseService) ReorderModules(ctx context.Context, courseID string, requester models.UserInfo, moduleIDs []string) error {
	if _, err := s.requireOwnedCourse(ctx, courseID, requester); err != nil {
		return err
	}
	for i, moduleID := range moduleIDs {
		if err := s.courses.SetModuleOrder(ctx, moduleID, i); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reorder modules")
		}
	}
	return nil
}

// ListModules returns a course's modules in display order.
func (s *CourseService) ListModules(ctx context.Context, courseID string) ([]models.CourseModule, error) {
	modules, err := s.courses.ListModulesByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list modules")
	}
	return modules, nil
}

// AddResource attaches an uploaded material to a module.
func (s *CourseService) AddResource(ctx context.Context, moduleID string, requester models.UserInfo, req CreateResourceRequest) (*models.Resource, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	module, err := s.courses.FindModuleByID(ctx, moduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "module not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load module")
	}
	if _, err := s.requireOwnedCourse(ctx, module.CourseID, requester); err != nil {
		return nil, err
	}
	resource := &models.Resource{
		ModuleID: moduleID,
		Title:    req.Title,
		FileURL:  req.FileURL,
		MimeType: req.MimeType,
	}
	if err := s.courses.CreateResource(ctx, resource); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create resource")
	}
	return resource, nil
}

// ListResources returns a module's materials.
func (s *CourseService) ListResources(ctx context.Context, moduleID string) ([]models.Resource, error) {
	resources, err := s.courses.ListResourcesByModule(ctx, moduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list resources")
	}
	return resources, nil
}

// Enroll adds a student to a course. Re-enrolling is a conflict.
func (s *CourseService) Enroll(ctx context.Context, courseID, studentID string) (*models.Enrollment, error) {
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	enrolled, err := s.enrollments.IsEnrolled(ctx, courseID, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if enrolled {
		return nil, appErrors.Clone(appErrors.ErrConflict, "already enrolled")
	}
	enrollment := &models.Enrollment{CourseID: courseID, StudentID: studentID}
	if err := s.enrollments.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll")
	}
	return enrollment, nil
}

// Roster lists a course's enrolled students for its facilitator.
func (s *CourseService) Roster(ctx context.Context, courseID string, requester models.UserInfo) ([]models.EnrollmentDetail, error) {
	if _, err := s.requireOwnedCourse(ctx, courseID, requester); err != nil {
		return nil, err
	}
	roster, err := s.enrollments.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list roster")
	}
	return roster, nil
}

func (s *CourseService) requireOwnedCourse(ctx context.Context, courseID string, requester models.UserInfo) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if requester.Role != models.RoleAdmin && course.FacilitatorID != requester.ID {
		return nil, appErrors.ErrForbidden
	}
	return course, nil
}
