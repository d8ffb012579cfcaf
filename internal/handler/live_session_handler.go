package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edulane/lms-api/internal/service"
	appErrors "github.com/edulane/lms-api/pkg/errors"
	"github.com/edulane/lms-api/pkg/response"
)

// LiveSessionHandler exposes course live session endpoints.
type LiveSessionHandler struct {
	sessions *service.LiveSessionService
}

// NewLiveSessionHandler constructs handler.
func NewLiveSessionHandler(sessions *service.LiveSessionService) *LiveSessionHandler {
	return &LiveSessionHandler{sessions: sessions}
}

// Schedule godoc
// @Summary Schedule a live session on a course
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course id"
// @Param payload body service.ScheduleSessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{id}/sessions [post]
func (h *LiveSessionHandler) Schedule(c *gin.Context) {
	var req service.ScheduleSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	session, err := h.sessions.Schedule(c.Request.Context(), c.Param("id"), userInfoFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// List godoc
// @Summary List a course's live sessions
// @Tags Courses
// @Produce json
// @Param id path string true "Course id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{id}/sessions [get]
func (h *LiveSessionHandler) List(c *gin.Context) {
	sessions, err := h.sessions.List(c.Request.Context(), c.Param("id"), userInfoFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, nil)
}
