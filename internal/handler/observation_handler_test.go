package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumitrack/lumitrack-api/internal/dto"
	"github.com/lumitrack/lumitrack-api/internal/middleware"
	"github.com/lumitrack/lumitrack-api/internal/models"
	appErrors "github.com/lumitrack/lumitrack-api/pkg/errors"
)

type fakeObservationRecorder struct {
	rows    []dto.ObservationRow
	created *models.Observation
	err     error

	lastInput  dto.ObservationInput
	lastUserID string
	lastFilter models.ObservationFilter
	deletedID  string
}

func (f *fakeObservationRecorder) List(_ context.Context, _ *models.Target, filter models.ObservationFilter) ([]dto.ObservationRow, error) {
	f.lastFilter = filter
	return f.rows, f.err
}

func (f *fakeObservationRecorder) Add(_ context.Context, _ *models.Target, input dto.ObservationInput, userID string) (*models.Observation, error) {
	f.lastInput = input
	f.lastUserID = userID
	return f.created, f.err
}

func (f *fakeObservationRecorder) Edit(_ context.Context, _ *models.Target, _ string, input dto.ObservationInput, userID string) (*models.Observation, error) {
	f.lastInput = input
	f.lastUserID = userID
	return f.created, f.err
}

func (f *fakeObservationRecorder) Delete(_ context.Context, _ *models.Target, observationID string) error {
	f.deletedID = observationID
	return f.err
}

func observationTestContext(rec *httptest.ResponseRecorder, method, query, body string) *gin.Context {
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, "/observations"+query, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{
		{Key: "client_id", Value: "client-1"},
		{Key: "program_id", Value: "program-1"},
		{Key: "target_id", Value: "target-1"},
		{Key: "observation_id", Value: "obs-1"},
	}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-1"})
	return c
}

func TestObservationHandlerCreatePassesPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := &fakeObservationRecorder{created: &models.Observation{ID: "obs-1"}}
	handler := NewObservationHandler(&fakeTargetResolver{target: &models.Target{ID: "target-1"}}, recorder)

	rec := httptest.NewRecorder()
	c := observationTestContext(rec, http.MethodPost, "", `{"date":"2024-03-01","data":"1:30","timezone":"America/New_York"}`)

	handler.Create(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "1:30", recorder.lastInput.Data)
	assert.Equal(t, "America/New_York", recorder.lastInput.Timezone)
	assert.Equal(t, "user-1", recorder.lastUserID)
}

func TestObservationHandlerCreateRejectsMalformedJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := &fakeObservationRecorder{}
	handler := NewObservationHandler(&fakeTargetResolver{target: &models.Target{ID: "target-1"}}, recorder)

	rec := httptest.NewRecorder()
	c := observationTestContext(rec, http.MethodPost, "", `{"date":`)

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, recorder.lastUserID)
}

func TestObservationHandlerCreateRequiresAuthenticatedUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewObservationHandler(&fakeTargetResolver{target: &models.Target{ID: "target-1"}}, &fakeObservationRecorder{})

	rec := httptest.NewRecorder()
	c := observationTestContext(rec, http.MethodPost, "", `{"date":"2024-03-01","data":"3"}`)
	c.Set(middleware.ContextUserKey, nil)

	handler.Create(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestObservationHandlerListParsesDateRange(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := &fakeObservationRecorder{rows: []dto.ObservationRow{{ID: "obs-1", Value: "1:30"}}}
	handler := NewObservationHandler(&fakeTargetResolver{target: &models.Target{ID: "target-1"}}, recorder)

	rec := httptest.NewRecorder()
	c := observationTestContext(rec, http.MethodGet, "?date_from=2024-03-01&date_to=2024-03-10", "")

	handler.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, recorder.lastFilter.DateFrom)
	require.NotNil(t, recorder.lastFilter.DateTo)
	assert.Equal(t, "2024-03-01", recorder.lastFilter.DateFrom.Format("2006-01-02"))
	assert.Equal(t, "2024-03-10", recorder.lastFilter.DateTo.Format("2006-01-02"))
}

func TestObservationHandlerListAppliesPaging(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := &fakeObservationRecorder{}
	handler := NewObservationHandler(&fakeTargetResolver{target: &models.Target{ID: "target-1"}}, recorder)

	rec := httptest.NewRecorder()
	c := observationTestContext(rec, http.MethodGet, "?page=2&limit=25", "")

	handler.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, recorder.lastFilter.Page)
	assert.Equal(t, 25, recorder.lastFilter.PageSize)
}

func TestObservationHandlerListRejectsBadLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewObservationHandler(&fakeTargetResolver{target: &models.Target{ID: "target-1"}}, &fakeObservationRecorder{})

	rec := httptest.NewRecorder()
	c := observationTestContext(rec, http.MethodGet, "?limit=zero", "")

	handler.List(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestObservationHandlerListRejectsBadDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewObservationHandler(&fakeTargetResolver{target: &models.Target{ID: "target-1"}}, &fakeObservationRecorder{})

	rec := httptest.NewRecorder()
	c := observationTestContext(rec, http.MethodGet, "?date_from=yesterday", "")

	handler.List(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestObservationHandlerAdjustUsesEmptyRecordID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := &fakeObservationRecorder{created: &models.Observation{ID: "obs-2"}}
	handler := NewObservationHandler(&fakeTargetResolver{target: &models.Target{ID: "target-1"}}, recorder)

	rec := httptest.NewRecorder()
	c := observationTestContext(rec, http.MethodPatch, "", `{"date":"2024-03-01","data":"5","orig_data":"3"}`)

	handler.Adjust(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "5", recorder.lastInput.Data)
	assert.Equal(t, "3", recorder.lastInput.OrigData)
}

func TestObservationHandlerDeletePropagatesNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := &fakeObservationRecorder{err: appErrors.Clone(appErrors.ErrNotFound, "observation not found")}
	handler := NewObservationHandler(&fakeTargetResolver{target: &models.Target{ID: "target-1"}}, recorder)

	rec := httptest.NewRecorder()
	c := observationTestContext(rec, http.MethodDelete, "", "")

	handler.Delete(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "obs-1", recorder.deletedID)
}
