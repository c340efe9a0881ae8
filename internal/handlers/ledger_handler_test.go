package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/payroll-ledger-api/internal/config"
	"github.com/sjperalta/payroll-ledger-api/internal/database"
	"github.com/sjperalta/payroll-ledger-api/internal/jobs"
	"github.com/sjperalta/payroll-ledger-api/internal/middleware"
	"github.com/sjperalta/payroll-ledger-api/internal/models"
	"github.com/sjperalta/payroll-ledger-api/internal/repository"
	"github.com/sjperalta/payroll-ledger-api/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

type ledgerAPI struct {
	router *gin.Engine
	db     *gorm.DB
	admin  string
	viewer string
}

func newLedgerAPI(t *testing.T) *ledgerAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("ENVIRONMENT", "production")

	db, err := database.Connect("sqlite://" + filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	worker := jobs.NewWorker(1)
	t.Cleanup(func() {
		worker.Shutdown()
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	cfg := &config.Config{JWTSecret: testSecret, StatusCacheTTLSeconds: 30, BulkChunkSize: 50, BulkConcurrency: 2}
	h := NewHandlers(services.NewServices(repository.NewRepositories(db), worker, nil, cfg))

	router := gin.New()
	ledgers := router.Group("/api/v1/ledgers/:category")
	ledgers.Use(middleware.Auth(testSecret))
	ledgers.GET("", h.Ledger.Index)
	ledgers.GET("/status", h.Ledger.Status)
	ledgers.GET("/export", h.Ledger.Export)
	ledgers.GET("/templates/:employee_id", h.Ledger.ShowTemplate)
	writer := ledgers.Group("")
	writer.Use(middleware.RequireLedgerWriter())
	writer.POST("/entries", h.Ledger.CreateEntry)
	writer.PUT("/cells", h.Ledger.PatchCell)
	writer.PATCH("/entries/:entry_id", h.Ledger.PatchEntry)
	writer.POST("/entries/:entry_id/post", h.Ledger.PostEntry)
	writer.POST("/entries/:entry_id/set_default", h.Ledger.SetDefault)
	writer.POST("/bulk_create", h.Ledger.BulkCreate)
	writer.POST("/bulk_post", h.Ledger.BulkPost)
	writer.POST("/post_all", h.Ledger.PostAll)
	writer.POST("/bulk_set_default", h.Ledger.BulkSetDefault)

	admin, err := middleware.IssueToken(testSecret, 1, "admin@example.com", middleware.RoleAdmin, time.Hour)
	require.NoError(t, err)
	viewer, err := middleware.IssueToken(testSecret, 2, "viewer@example.com", middleware.RoleViewer, time.Hour)
	require.NoError(t, err)

	return &ledgerAPI{router: router, db: db, admin: admin, viewer: viewer}
}

func (a *ledgerAPI) seedEmployees(t *testing.T, n int) []models.Employee {
	t.Helper()
	employees := make([]models.Employee, n)
	for i := range employees {
		employees[i] = models.Employee{
			EmployeeNo: fmt.Sprintf("EMP-%04d", i+1),
			FullName:   fmt.Sprintf("Employee %04d", i+1),
			Department: "Sales",
			Active:     true,
		}
	}
	require.NoError(t, a.db.Create(&employees).Error)
	return employees
}

func (a *ledgerAPI) do(t *testing.T, token, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var out map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func entryID(t *testing.T, body map[string]interface{}) uint {
	t.Helper()
	entry, ok := body["entry"].(map[string]interface{})
	require.True(t, ok, "response has an entry: %v", body)
	return uint(entry["id"].(float64))
}

func TestLedgerHandler_EntryLifecycle(t *testing.T) {
	api := newLedgerAPI(t)
	employee := api.seedEmployees(t, 1)[0]
	create := map[string]interface{}{"employee_id": employee.ID, "year": 2025, "month": 6, "cutoff": "first"}

	w, body := api.do(t, api.admin, http.MethodPost, "/api/v1/ledgers/benefits/entries", create)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := entryID(t, body)

	w, _ = api.do(t, api.admin, http.MethodPost, "/api/v1/ledgers/benefits/entries", create)
	assert.Equal(t, http.StatusOK, w.Code, "second create returns the existing entry")

	path := fmt.Sprintf("/api/v1/ledgers/benefits/entries/%d", id)
	w, body = api.do(t, api.admin, http.MethodPatch, path, map[string]interface{}{"field": "allowances", "value": "1,500.00"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	entry := body["entry"].(map[string]interface{})
	assert.Equal(t, "1500.00", entry["values"].(map[string]interface{})["allowances"])
	assert.Equal(t, "1500.00", entry["total"])

	w, body = api.do(t, api.admin, http.MethodPatch, path, map[string]interface{}{"field": "meals", "value": 5})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "unknown_field", body["code"])

	w, body = api.do(t, api.admin, http.MethodPatch, path, map[string]interface{}{"field": "allowances", "value": -5})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_value", body["code"])

	w, body = api.do(t, api.admin, http.MethodPost, path+"/set_default", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	tmpl := body["template"].(map[string]interface{})
	assert.Equal(t, "1500.00", tmpl["values"].(map[string]interface{})["allowances"])

	w, _ = api.do(t, api.viewer, http.MethodGet, fmt.Sprintf("/api/v1/ledgers/benefits/templates/%d", employee.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, body = api.do(t, api.admin, http.MethodPost, path+"/post", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "posted", body["entry"].(map[string]interface{})["status"])

	w, body = api.do(t, api.admin, http.MethodPost, path+"/post", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_posted", body["code"])

	w, body = api.do(t, api.admin, http.MethodPatch, path, map[string]interface{}{"field": "allowances", "value": 1})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "locked", body["code"])

	// The entry is not visible through the other ledger
	w, body = api.do(t, api.admin, http.MethodPost, fmt.Sprintf("/api/v1/ledgers/deductions/entries/%d/post", id), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", body["code"])
}

func TestLedgerHandler_PatchCellCreatesEntry(t *testing.T) {
	api := newLedgerAPI(t)
	employee := api.seedEmployees(t, 1)[0]

	w, body := api.do(t, api.admin, http.MethodPut, "/api/v1/ledgers/deductions/cells", map[string]interface{}{
		"employee_id": employee.ID, "year": 2025, "month": 6, "cutoff": "second",
		"field": "meals", "value": 85.5,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	entry := body["entry"].(map[string]interface{})
	assert.Equal(t, "85.50", entry["values"].(map[string]interface{})["meals"])
	assert.Equal(t, "2025-06-30", entry["cutoff_date"])
}

func TestLedgerHandler_RequestValidation(t *testing.T) {
	api := newLedgerAPI(t)
	api.seedEmployees(t, 1)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
		code   string
	}{
		{"unknown ledger", http.MethodGet, "/api/v1/ledgers/bonuses?year=2025&month=6&cutoff=first", nil, http.StatusNotFound, "not_found"},
		{"missing period", http.MethodGet, "/api/v1/ledgers/benefits", nil, http.StatusBadRequest, "validation_error"},
		{"bad cutoff", http.MethodGet, "/api/v1/ledgers/benefits?year=2025&month=6&cutoff=third", nil, http.StatusBadRequest, "validation_error"},
		{"bad status filter", http.MethodGet, "/api/v1/ledgers/benefits?year=2025&month=6&cutoff=first&status=archived", nil, http.StatusBadRequest, "validation_error"},
		{"missing employee", http.MethodPost, "/api/v1/ledgers/benefits/entries", map[string]interface{}{"year": 2025, "month": 6, "cutoff": "first"}, http.StatusUnprocessableEntity, "invalid_request"},
		{"month out of range", http.MethodPost, "/api/v1/ledgers/benefits/entries", map[string]interface{}{"employee_id": 1, "year": 2025, "month": 13, "cutoff": "first"}, http.StatusUnprocessableEntity, "invalid_request"},
		{"unknown employee", http.MethodPost, "/api/v1/ledgers/benefits/entries", map[string]interface{}{"employee_id": 99, "year": 2025, "month": 6, "cutoff": "first"}, http.StatusBadRequest, "validation_error"},
		{"bad entry id", http.MethodPost, "/api/v1/ledgers/benefits/entries/abc/post", nil, http.StatusBadRequest, "validation_error"},
		{"missing entry", http.MethodPost, "/api/v1/ledgers/benefits/entries/99/post", nil, http.StatusNotFound, "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := api.do(t, api.admin, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, body["code"])
		})
	}
}

func TestLedgerHandler_NestedBody(t *testing.T) {
	api := newLedgerAPI(t)
	employee := api.seedEmployees(t, 1)[0]

	w, _ := api.do(t, api.admin, http.MethodPost, "/api/v1/ledgers/benefits/entries", map[string]interface{}{
		"entry": map[string]interface{}{"employee_id": employee.ID, "year": 2025, "month": 7, "cutoff": "1st"},
	})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestLedgerHandler_Authorization(t *testing.T) {
	api := newLedgerAPI(t)
	employee := api.seedEmployees(t, 1)[0]
	create := map[string]interface{}{"employee_id": employee.ID, "year": 2025, "month": 6, "cutoff": "first"}

	w, _ := api.do(t, "", http.MethodGet, "/api/v1/ledgers/benefits?year=2025&month=6&cutoff=first", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = api.do(t, "not-a-token", http.MethodGet, "/api/v1/ledgers/benefits?year=2025&month=6&cutoff=first", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = api.do(t, api.viewer, http.MethodGet, "/api/v1/ledgers/benefits?year=2025&month=6&cutoff=first", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = api.do(t, api.viewer, http.MethodPost, "/api/v1/ledgers/benefits/entries", create)
	assert.Equal(t, http.StatusForbidden, w.Code)

	payroll, err := middleware.IssueToken(testSecret, 3, "payroll@example.com", middleware.RolePayroll, time.Hour)
	require.NoError(t, err)
	w, _ = api.do(t, payroll, http.MethodPost, "/api/v1/ledgers/benefits/entries", create)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestLedgerHandler_BulkAndListing(t *testing.T) {
	api := newLedgerAPI(t)
	api.seedEmployees(t, 4)
	period := map[string]interface{}{"year": 2025, "month": 6, "cutoff": "first"}
	list := "/api/v1/ledgers/deductions?year=2025&month=6&cutoff=first"

	w, body := api.do(t, api.admin, http.MethodGet, list, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rows := body["rows"].([]interface{})
	require.Len(t, rows, 4)
	assert.Equal(t, "no_data", rows[0].(map[string]interface{})["status"])
	assert.Nil(t, rows[0].(map[string]interface{})["entry"])

	w, body = api.do(t, api.admin, http.MethodPost, "/api/v1/ledgers/deductions/bulk_create", period)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(4), body["created_count"])

	w, body = api.do(t, api.admin, http.MethodPost, "/api/v1/ledgers/deductions/bulk_create", period)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), body["created_count"])
	assert.Equal(t, float64(4), body["skipped"])

	w, body = api.do(t, api.admin, http.MethodGet, list+"&per_page=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	pagination := body["pagination"].(map[string]interface{})
	assert.Equal(t, float64(4), pagination["total"])
	assert.Equal(t, float64(2), pagination["total_pages"])
	rows = body["rows"].([]interface{})
	require.Len(t, rows, 2)
	firstID := uint(rows[0].(map[string]interface{})["entry"].(map[string]interface{})["id"].(float64))

	w, body = api.do(t, api.admin, http.MethodPost, "/api/v1/ledgers/deductions/bulk_post", map[string]interface{}{"ids": []uint{firstID, firstID, 999}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(1), body["updated_count"])
	assert.Equal(t, float64(1), body["skipped"])

	w, body = api.do(t, api.admin, http.MethodPost, "/api/v1/ledgers/deductions/bulk_set_default", map[string]interface{}{"ids": []uint{firstID}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(0), body["count"])
	assert.Equal(t, float64(1), body["skipped"])

	w, body = api.do(t, api.admin, http.MethodGet, "/api/v1/ledgers/deductions/status?year=2025&month=6&cutoff=first", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(4), body["all"])
	assert.Equal(t, float64(1), body["posted"])
	assert.Equal(t, float64(3), body["pending"])

	w, body = api.do(t, api.admin, http.MethodPost, "/api/v1/ledgers/deductions/post_all", period)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), body["updated_count"])

	w, body = api.do(t, api.admin, http.MethodGet, list+"&status=pending", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body["rows"])
}

func TestLedgerHandler_Export(t *testing.T) {
	api := newLedgerAPI(t)
	api.seedEmployees(t, 2)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ledgers/benefits/export?year=2025&month=6&cutoff=second&token="+api.viewer, nil)
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "attachment; filename=benefits_2025_06_second.xlsx", w.Header().Get("Content-Disposition"))
	assert.NotZero(t, w.Body.Len())
}
