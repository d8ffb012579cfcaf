package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/edulane/lms-api/internal/middleware"
	"github.com/edulane/lms-api/internal/models"
	"github.com/edulane/lms-api/internal/service"
	appErrors "github.com/edulane/lms-api/pkg/errors"
)

type fakeSubmissionSrv struct {
	submitResp  *models.Submission
	submitErr   error
	lastStudent string
	getResp     *models.Submission
	getErr      error
	lastGetUser models.UserInfo
	bulkResp    *service.BulkAdjustResult
	bulkErr     error
}

func (f *fakeSubmissionSrv) Submit(_ context.Context, studentID string, _ service.SubmitRequest) (*models.Submission, error) {
	f.lastStudent = studentID
	return f.submitResp, f.submitErr
}

func (f *fakeSubmissionSrv) Get(_ context.Context, _ string, requester models.UserInfo) (*models.Submission, error) {
	f.lastGetUser = requester
	return f.getResp, f.getErr
}

func (f *fakeSubmissionSrv) ListByAssessment(context.Context, string) ([]models.Submission, error) {
	return nil, nil
}

func (f *fakeSubmissionSrv) Grade(context.Context, string, service.GradeSubmissionRequest) (*models.Submission, error) {
	return f.getResp, f.getErr
}

func (f *fakeSubmissionSrv) BulkAdjust(context.Context, service.BulkAdjustRequest) (*service.BulkAdjustResult, error) {
	return f.bulkResp, f.bulkErr
}

type fakeSubmissionMetrics struct {
	submissions int
}

func (f *fakeSubmissionMetrics) RecordSubmission() { f.submissions++ }

func studentContext(rec *httptest.ResponseRecorder) (*gin.Context, *gin.Engine) {
	c, r := gin.CreateTestContext(rec)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{
		UserID: "student-1",
		Email:  "amina@example.com",
		Role:   models.RoleStudent,
	})
	return c, r
}

func TestSubmissionHandlerSubmitSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeSubmissionSrv{submitResp: &models.Submission{ID: "sub-1", Status: models.SubmissionAutoGraded}}
	metrics := &fakeSubmissionMetrics{}
	handler := NewSubmissionHandler(srv, metrics)

	body, _ := json.Marshal(service.SubmitRequest{
		AssessmentID: "asmt-1",
		Answers:      map[string]string{"q1": "4"},
	})
	rec := httptest.NewRecorder()
	c, _ := studentContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/submissions", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Submit(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "student-1", srv.lastStudent)
	assert.Equal(t, 1, metrics.submissions)
}

func TestSubmissionHandlerSubmitInvalidPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := &fakeSubmissionMetrics{}
	handler := NewSubmissionHandler(&fakeSubmissionSrv{}, metrics)

	rec := httptest.NewRecorder()
	c, _ := studentContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/submissions", bytes.NewReader([]byte("{")))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Submit(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, metrics.submissions)
}

func TestSubmissionHandlerSubmitServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeSubmissionSrv{submitErr: appErrors.ErrAlreadySubmitted}
	metrics := &fakeSubmissionMetrics{}
	handler := NewSubmissionHandler(srv, metrics)

	body, _ := json.Marshal(service.SubmitRequest{
		AssessmentID: "asmt-1",
		Answers:      map[string]string{"q1": "4"},
	})
	rec := httptest.NewRecorder()
	c, _ := studentContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/submissions", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Submit(c)

	assert.Equal(t, appErrors.ErrAlreadySubmitted.Status, rec.Code)
	assert.Equal(t, 0, metrics.submissions)
}

func TestSubmissionHandlerGetForwardsRequester(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeSubmissionSrv{getResp: &models.Submission{ID: "sub-1"}}
	handler := NewSubmissionHandler(srv, &fakeSubmissionMetrics{})

	rec := httptest.NewRecorder()
	c, _ := studentContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/submissions/sub-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "sub-1"}}

	handler.Get(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "student-1", srv.lastGetUser.ID)
	assert.Equal(t, models.RoleStudent, srv.lastGetUser.Role)
}

func TestSubmissionHandlerBulkAdjustPartialFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeSubmissionSrv{bulkResp: &service.BulkAdjustResult{
		SuccessCount: 2,
		Failures: []service.BulkAdjustFailure{
			{SubmissionID: "sub-3", Reason: "submission not graded yet"},
		},
	}}
	handler := NewSubmissionHandler(srv, &fakeSubmissionMetrics{})

	body, _ := json.Marshal(service.BulkAdjustRequest{
		AssessmentID: "asmt-1",
		Operation:    "add",
		Value:        5,
	})
	rec := httptest.NewRecorder()
	c, _ := studentContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/submissions/bulk-adjust", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.BulkAdjust(c)

	assert.Equal(t, http.StatusMultiStatus, rec.Code)
}
