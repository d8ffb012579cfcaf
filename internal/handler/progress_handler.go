package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edulane/lms-api/internal/models"
	"github.com/edulane/lms-api/internal/service"
	appErrors "github.com/edulane/lms-api/pkg/errors"
	"github.com/edulane/lms-api/pkg/response"
)

// ProgressHandler exposes progress tracking endpoints.
type ProgressHandler struct {
	progress *service.ProgressService
}

// NewProgressHandler constructs handler.
func NewProgressHandler(progress *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progress: progress}
}

type recordViewRequest struct {
	ResourceID string `json:"resource_id" binding:"required"`
	ModuleID   string `json:"module_id" binding:"required"`
}

// RecordView godoc
// @Summary Record that the student viewed a resource
// @Tags Progress
// @Accept json
// @Produce json
// @Param payload body recordViewRequest true "View payload"
// @Success 204
// @Security BearerAuth
// @Router /progress/views [post]
func (h *ProgressHandler) RecordView(c *gin.Context) {
	var req recordViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.progress.RecordResourceView(c.Request.Context(), userInfoFromContext(c).ID, req.ResourceID, req.ModuleID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CourseProgress godoc
// @Summary Fetch a student's aggregated progress in a course
// @Tags Progress
// @Produce json
// @Param id path string true "Course id"
// @Param studentId query string false "Student id, defaults to the requester"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{id}/progress [get]
func (h *ProgressHandler) CourseProgress(c *gin.Context) {
	requester := userInfoFromContext(c)
	studentID := c.Query("studentId")
	if studentID == "" {
		studentID = requester.ID
	}
	if requester.Role == models.RoleStudent && studentID != requester.ID {
		response.Error(c, appErrors.ErrForbidden)
		return
	}
	progress, err := h.progress.CourseProgressFor(c.Request.Context(), studentID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil)
}

// AtRisk godoc
// @Summary List the facilitator's at-risk students
// @Tags Progress
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /progress/at-risk [get]
func (h *ProgressHandler) AtRisk(c *gin.Context) {
	students, err := h.progress.AtRiskStudents(c.Request.Context(), userInfoFromContext(c).ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}
