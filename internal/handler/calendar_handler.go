package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edulane/lms-api/internal/service"
	"github.com/edulane/lms-api/pkg/response"
)

// CalendarHandler exposes deadline calendar endpoints.
type CalendarHandler struct {
	calendar *service.CalendarService
}

// NewCalendarHandler constructs handler.
func NewCalendarHandler(calendar *service.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendar: calendar}
}

// Upcoming godoc
// @Summary List upcoming assessment deadlines for the requester
// @Tags Calendar
// @Produce json
// @Param days query int false "Window in days, defaults to 30"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /calendar/upcoming [get]
func (h *CalendarHandler) Upcoming(c *gin.Context) {
	days, _ := strconv.Atoi(c.Query("days"))
	events, err := h.calendar.Upcoming(c.Request.Context(), userInfoFromContext(c), days)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, nil)
}
