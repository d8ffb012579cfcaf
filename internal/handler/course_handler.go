package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edulane/lms-api/internal/service"
	appErrors "github.com/edulane/lms-api/pkg/errors"
	"github.com/edulane/lms-api/pkg/response"
)

// CourseHandler exposes course, module, resource and enrollment endpoints.
type CourseHandler struct {
	courses *service.CourseService
}

// NewCourseHandler constructs handler.
func NewCourseHandler(courses *service.CourseService) *CourseHandler {
	return &CourseHandler{courses: courses}
}

// List godoc
// @Summary List courses visible to the requester
// @Tags Courses
// @Produce json
// @Param search query string false "Title search"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	courses, err := h.courses.List(c.Request.Context(), userInfoFromContext(c), c.Query("search"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// Create godoc
// @Summary Create a course
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body service.UpsertCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	var req service.UpsertCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	course, err := h.courses.Create(c.Request.Context(), userInfoFromContext(c).ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Get godoc
// @Summary Fetch one course
// @Tags Courses
// @Produce json
// @Param id path string true "Course id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.courses.Get(c.Request.Context(), c.Param("id"), userInfoFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Update godoc
// @Summary Update a course
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course id"
// @Param payload body service.UpsertCourseRequest true "Course payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{id} [put]
func (h *CourseHandler) Update(c *gin.Context) {
	var req service.UpsertCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	course, err := h.courses.Update(c.Request.Context(), c.Param("id"), userInfoFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// ListModules godoc
// @Summary List a course's modules in display order
// @Tags Courses
// @Produce json
// @Param id path string true "Course id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{id}/modules [get]
func (h *CourseHandler) ListModules(c *gin.Context) {
	modules, err := h.courses.ListModules(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, modules, nil)
}

// AddModule godoc
// @Summary Add a module to a course
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course id"
// @Param payload body service.UpsertModuleRequest true "Module payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{id}/modules [post]
func (h *CourseHandler) AddModule(c *gin.Context) {
	var req service.UpsertModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	module, err := h.courses.AddModule(c.Request.Context(), c.Param("id"), userInfoFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, module)
}

// UpdateModule godoc
// @Summary Update a module
// @Tags Courses
// @Accept json
// @Produce json
// @Param moduleId path string true "Module id"
// @Param payload body service.UpsertModuleRequest true "Module payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /modules/{moduleId} [put]
func (h *CourseHandler) UpdateModule(c *gin.Context) {
	var req service.UpsertModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	module, err := h.courses.UpdateModule(c.Request.Context(), c.Param("moduleId"), userInfoFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, module, nil)
}

type reorderModulesRequest struct {
	ModuleIDs []string `json:"module_ids" binding:"required"`
}

// ReorderModules godoc
// @Summary Reorder a course's modules
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course id"
// @Param payload body reorderModulesRequest true "Ordered module ids"
// @Success 204
// @Security BearerAuth
// @Router /courses/{id}/modules/reorder [put]
func (h *CourseHandler) ReorderModules(c *gin.Context) {
	var req reorderModulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.courses.ReorderModules(c.Request.Context(), c.Param("id"), userInfoFromContext(c), req.ModuleIDs); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListResources godoc
// @Summary List a module's resources
// @Tags Courses
// @Produce json
// @Param moduleId path string true "Module id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /modules/{moduleId}/resources [get]
func (h *CourseHandler) ListResources(c *gin.Context) {
	resources, err := h.courses.ListResources(c.Request.Context(), c.Param("moduleId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resources, nil)
}

// AddResource godoc
// @Summary Attach a resource to a module
// @Tags Courses
// @Accept json
// @Produce json
// @Param moduleId path string true "Module id"
// @Param payload body service.CreateResourceRequest true "Resource payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /modules/{moduleId}/resources [post]
func (h *CourseHandler) AddResource(c *gin.Context) {
	var req service.CreateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	resource, err := h.courses.AddResource(c.Request.Context(), c.Param("moduleId"), userInfoFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, resource)
}

// Enroll godoc
// @Summary Enroll the authenticated student into a course
// @Tags Courses
// @Produce json
// @Param id path string true "Course id"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{id}/enroll [post]
func (h *CourseHandler) Enroll(c *gin.Context) {
	enrollment, err := h.courses.Enroll(c.Request.Context(), c.Param("id"), userInfoFromContext(c).ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// Roster godoc
// @Summary List a course's enrolled students
// @Tags Courses
// @Produce json
// @Param id path string true "Course id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{id}/roster [get]
func (h *CourseHandler) Roster(c *gin.Context) {
	roster, err := h.courses.Roster(c.Request.Context(), c.Param("id"), userInfoFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roster, nil)
}
