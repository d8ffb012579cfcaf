package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edulane/lms-api/internal/service"
	appErrors "github.com/edulane/lms-api/pkg/errors"
	"github.com/edulane/lms-api/pkg/response"
)

// AssessmentHandler exposes assessment authoring endpoints.
type AssessmentHandler struct {
	assessments *service.AssessmentService
}

// NewAssessmentHandler constructs handler.
func NewAssessmentHandler(assessments *service.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{assessments: assessments}
}

// Create godoc
// @Summary Create an assessment
// @Tags Assessments
// @Accept json
// @Produce json
// @Param payload body service.UpsertAssessmentRequest true "Assessment payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /assessments [post]
func (h *AssessmentHandler) Create(c *gin.Context) {
	var req service.UpsertAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	assessment, err := h.assessments.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assessment)
}

// Get godoc
// @Summary Fetch one assessment
// @Tags Assessments
// @Produce json
// @Param id path string true "Assessment id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /assessments/{id} [get]
func (h *AssessmentHandler) Get(c *gin.Context) {
	assessment, err := h.assessments.Get(c.Request.Context(), c.Param("id"), userInfoFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assessment, nil)
}

// Update godoc
// @Summary Update an assessment
// @Tags Assessments
// @Accept json
// @Produce json
// @Param id path string true "Assessment id"
// @Param payload body service.UpsertAssessmentRequest true "Assessment payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /assessments/{id} [put]
func (h *AssessmentHandler) Update(c *gin.Context) {
	var req service.UpsertAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	assessment, err := h.assessments.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assessment, nil)
}

// ListByModule godoc
// @Summary List a module's assessments
// @Tags Assessments
// @Produce json
// @Param moduleId path string true "Module id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /modules/{moduleId}/assessments [get]
func (h *AssessmentHandler) ListByModule(c *gin.Context) {
	assessments, err := h.assessments.ListByModule(c.Request.Context(), c.Param("moduleId"), userInfoFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assessments, nil)
}

// ExtendDeadlines godoc
// @Summary Bulk-extend assessment deadlines
// @Tags Assessments
// @Accept json
// @Produce json
// @Param payload body service.ExtendDeadlinesRequest true "Extension payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /assessments/extend-deadlines [post]
func (h *AssessmentHandler) ExtendDeadlines(c *gin.Context) {
	var req service.ExtendDeadlinesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.assessments.ExtendDeadlines(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusOK
	if len(result.Failures) > 0 && result.SuccessCount > 0 {
		status = http.StatusMultiStatus
	}
	response.JSON(c, status, result, nil)
}
