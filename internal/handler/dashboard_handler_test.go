package handler

import (
	"context"
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

type fakeDashboardSrv struct {
	dashboard       *service.Dashboard
	dashboardErr    error
	summary         *models.AnalyticsSummary
	summaryErr      error
	lastFacilitator string
	invalidated     bool
}

func (f *fakeDashboardSrv) Dashboard(_ context.Context, facilitatorID string) (*service.Dashboard, error) {
	f.lastFacilitator = facilitatorID
	return f.dashboard, f.dashboardErr
}

func (f *fakeDashboardSrv) Summary(_ context.Context, facilitatorID string) (*models.AnalyticsSummary, error) {
	f.lastFacilitator = facilitatorID
	return f.summary, f.summaryErr
}

func (f *fakeDashboardSrv) Invalidate(context.Context, string) {
	f.invalidated = true
}

func facilitatorContext(rec *httptest.ResponseRecorder) *gin.Context {
	c, _ := gin.CreateTestContext(rec)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{
		UserID: "fac-1",
		Role:   models.RoleFacilitator,
	})
	return c
}

func TestDashboardHandlerSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeDashboardSrv{dashboard: &service.Dashboard{
		Summary: models.AnalyticsSummary{TotalStudents: 12, AverageGrade: 81.5},
	}}
	handler := NewDashboardHandler(srv)

	rec := httptest.NewRecorder()
	c := facilitatorContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/analytics/dashboard", nil)

	handler.Dashboard(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fac-1", srv.lastFacilitator)
}

func TestDashboardHandlerSummaryError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeDashboardSrv{summaryErr: appErrors.ErrInternal})

	rec := httptest.NewRecorder()
	c := facilitatorContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/analytics/summary", nil)

	handler.Summary(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDashboardHandlerInvalidate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeDashboardSrv{}
	handler := NewDashboardHandler(srv)

	rec := httptest.NewRecorder()
	c := facilitatorContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/analytics/cache", nil)

	handler.Invalidate(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, srv.invalidated)
}
