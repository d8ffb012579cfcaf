package handler

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/edulane/lms-api/internal/service"
	"github.com/edulane/lms-api/pkg/response"
)

// ExportHandler exposes gradebook export endpoints.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs handler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Gradebook godoc
// @Summary Export a course gradebook as CSV or PDF
// @Tags Exports
// @Produce json
// @Param id path string true "Course id"
// @Param format query string false "csv or pdf, defaults to csv"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{id}/gradebook/export [post]
func (h *ExportHandler) Gradebook(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	result, err := h.exports.Gradebook(c.Request.Context(), c.Param("id"), format, userInfoFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Download godoc
// @Summary Download a previously exported file
// @Tags Exports
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200
// @Security BearerAuth
// @Router /exports/download [get]
func (h *ExportHandler) Download(c *gin.Context) {
	path, err := h.exports.Download(c.Query("token"), userInfoFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}
