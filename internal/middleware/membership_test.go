package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/lumitrack/lumitrack-api/internal/models"
	"github.com/lumitrack/lumitrack-api/internal/service"
)

type fakeProgramRepo struct {
	programs map[string]*models.Program
}

func (f *fakeProgramRepo) ListByClient(context.Context, string) ([]models.Program, error) {
	return nil, nil
}

func (f *fakeProgramRepo) FindByID(_ context.Context, id string) (*models.Program, error) {
	program, ok := f.programs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return program, nil
}

func (f *fakeProgramRepo) Create(context.Context, *models.Program) error { return nil }
func (f *fakeProgramRepo) Update(context.Context, *models.Program) error { return nil }
func (f *fakeProgramRepo) DeleteCascade(context.Context, string) error   { return nil }

func programScopeRouter(repo *fakeProgramRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	programs := service.NewProgramService(repo, nil, nil, nil)
	r := gin.New()
	r.GET("/clients/:client_id/programs/:program_id/targets/:target_id",
		ProgramScope(programs),
		func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestProgramScopeRejectsProgramFromAnotherClient(t *testing.T) {
	repo := &fakeProgramRepo{programs: map[string]*models.Program{
		"program-2": {ID: "program-2", ClientID: "client-2"},
	}}
	r := programScopeRouter(repo)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/clients/client-1/programs/program-2/targets/target-2", nil)
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProgramScopeRejectsUnknownProgram(t *testing.T) {
	r := programScopeRouter(&fakeProgramRepo{programs: map[string]*models.Program{}})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/clients/client-1/programs/missing/targets/target-1", nil)
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProgramScopeAllowsMatchingClient(t *testing.T) {
	repo := &fakeProgramRepo{programs: map[string]*models.Program{
		"program-1": {ID: "program-1", ClientID: "client-1"},
	}}
	r := programScopeRouter(repo)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/clients/client-1/programs/program-1/targets/target-1", nil)
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
