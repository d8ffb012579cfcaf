package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edulane/lms-api/internal/models"
	"github.com/edulane/lms-api/internal/service"
	appErrors "github.com/edulane/lms-api/pkg/errors"
	"github.com/edulane/lms-api/pkg/response"
)

type submissionService interface {
	Submit(ctx context.Context, studentID string, req service.SubmitRequest) (*models.Submission, error)
	Get(ctx context.Context, id string, requester models.UserInfo) (*models.Submission, error)
	ListByAssessment(ctx context.Context, assessmentID string) ([]models.Submission, error)
	Grade(ctx context.Context, id string, req service.GradeSubmissionRequest) (*models.Submission, error)
	BulkAdjust(ctx context.Context, req service.BulkAdjustRequest) (*service.BulkAdjustResult, error)
}

type submissionMetrics interface {
	RecordSubmission()
}

// SubmissionHandler exposes submission and grading endpoints.
type SubmissionHandler struct {
	submissions submissionService
	metrics     submissionMetrics
}

// NewSubmissionHandler constructs handler.
func NewSubmissionHandler(submissions submissionService, metrics submissionMetrics) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions, metrics: metrics}
}

// Submit godoc
// @Summary Submit answers for an assessment
// @Tags Submissions
// @Accept json
// @Produce json
// @Param payload body service.SubmitRequest true "Submission payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /submissions [post]
func (h *SubmissionHandler) Submit(c *gin.Context) {
	var req service.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	submission, err := h.submissions.Submit(c.Request.Context(), userInfoFromContext(c).ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordSubmission()
	}
	response.Created(c, submission)
}

// Get godoc
// @Summary Fetch one submission
// @Tags Submissions
// @Produce json
// @Param id path string true "Submission id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /submissions/{id} [get]
func (h *SubmissionHandler) Get(c *gin.Context) {
	submission, err := h.submissions.Get(c.Request.Context(), c.Param("id"), userInfoFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submission, nil)
}

// ListByAssessment godoc
// @Summary List an assessment's submissions
// @Tags Submissions
// @Produce json
// @Param id path string true "Assessment id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /assessments/{id}/submissions [get]
func (h *SubmissionHandler) ListByAssessment(c *gin.Context) {
	submissions, err := h.submissions.ListByAssessment(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submissions, nil)
}

// Grade godoc
// @Summary Record a facilitator grade for a submission
// @Tags Submissions
// @Accept json
// @Produce json
// @Param id path string true "Submission id"
// @Param payload body service.GradeSubmissionRequest true "Grade payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /submissions/{id}/grade [put]
func (h *SubmissionHandler) Grade(c *gin.Context) {
	var req service.GradeSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	submission, err := h.submissions.Grade(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submission, nil)
}

// BulkAdjust godoc
// @Summary Bulk-adjust graded submissions of an assessment
// @Tags Submissions
// @Accept json
// @Produce json
// @Param payload body service.BulkAdjustRequest true "Adjustment payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /submissions/bulk-adjust [post]
func (h *SubmissionHandler) BulkAdjust(c *gin.Context) {
	var req service.BulkAdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.submissions.BulkAdjust(c.Request.Context(), req)
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
