package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edulane/lms-api/internal/service"
	"github.com/edulane/lms-api/pkg/response"
)

// NotificationHandler exposes notification inbox endpoints.
type NotificationHandler struct {
	notifications *service.NotificationService
}

// NewNotificationHandler constructs handler.
func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List godoc
// @Summary List the requester's notifications
// @Tags Notifications
// @Produce json
// @Param unread query bool false "Only unread"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	unreadOnly := c.Query("unread") == "true"
	notifications, err := h.notifications.List(c.Request.Context(), userInfoFromContext(c).ID, unreadOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notifications, nil)
}

// MarkRead godoc
// @Summary Mark one notification as read
// @Tags Notifications
// @Produce json
// @Param id path string true "Notification id"
// @Success 204
// @Security BearerAuth
// @Router /notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.notifications.MarkRead(c.Request.Context(), c.Param("id"), userInfoFromContext(c).ID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// MarkAllRead godoc
// @Summary Mark all of the requester's notifications as read
// @Tags Notifications
// @Produce json
// @Success 204
// @Security BearerAuth
// @Router /notifications/read-all [put]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	if err := h.notifications.MarkAllRead(c.Request.Context(), userInfoFromContext(c).ID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
