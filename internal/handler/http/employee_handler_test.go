package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pointage-hq/pointage-backend-go/internal/domain/attendance"
	"github.com/pointage-hq/pointage-backend-go/internal/domain/employee"
	"github.com/pointage-hq/pointage-backend-go/internal/pkg/events"
	"github.com/pointage-hq/pointage-backend-go/internal/pkg/jwt"
	"github.com/pointage-hq/pointage-backend-go/internal/service/directory"
	"github.com/pointage-hq/pointage-backend-go/internal/service/ledger"
	"github.com/pointage-hq/pointage-backend-go/internal/service/reconciler"
)

const (
	handlerTestSecret   = "test-secret-key-for-jwt"
	handlerTestAdminKey = "test-admin-key"
)

type testApp struct {
	router     *chi.Mux
	dir        *directory.Service
	reconciler *reconciler.Service
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	hub := events.NewHub()
	dir := directory.NewService(hub)
	ledgerSvc := ledger.NewService(dir, hub)
	reconcilerSvc := reconciler.NewService(dir, hub)

	hash, err := bcrypt.GenerateFromPassword([]byte(handlerTestAdminKey), bcrypt.MinCost)
	require.NoError(t, err)

	jwtSvc := jwt.NewJWTService(handlerTestSecret, "1h")
	authHandler := NewAuthHandler(jwtSvc, string(hash))
	employeeHandler := NewEmployeeHandler(dir, ledgerSvc, reconcilerSvc)

	return &testApp{
		router:     NewRouter(jwtSvc, "test", authHandler, employeeHandler),
		dir:        dir,
		reconciler: reconcilerSvc,
	}
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func (a *testApp) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func (a *testApp) adminToken(t *testing.T) string {
	t.Helper()
	rec, resp := a.do(t, http.MethodPost, "/api/v1/auth/token", "", map[string]string{
		"api_key": handlerTestAdminKey,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var data struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.NotEmpty(t, data.AccessToken)
	return data.AccessToken
}

func TestIssueToken_WrongKey(t *testing.T) {
	app := newTestApp(t)

	rec, resp := app.do(t, http.MethodPost, "/api/v1/auth/token", "", map[string]string{
		"api_key": "not-the-key",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)
}

func TestCreateEmployee_RequiresToken(t *testing.T) {
	app := newTestApp(t)

	rec, _ := app.do(t, http.MethodPost, "/api/v1/employees", "", map[string]string{"name": "Alice"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, app.dir.IDs())
}

func TestCreateEmployee(t *testing.T) {
	app := newTestApp(t)
	token := app.adminToken(t)

	rec, resp := app.do(t, http.MethodPost, "/api/v1/employees", token, map[string]interface{}{
		"name":           "Alice",
		"arrival_time":   "09:00",
		"departure_time": "18:00",
		"working_days":   []string{"monday", "wednesday"},
		"manager":        true,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var data employee.EmployeeResponse
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, 1, data.ID)
	assert.Equal(t, "Alice", data.Name)
	assert.Equal(t, "09:00:00", data.ArrivalTime)
	assert.Equal(t, "18:00:00", data.DepartureTime)
	assert.Equal(t, []string{"monday", "wednesday"}, data.WorkingDays)
	assert.True(t, data.Manager)
}

func TestCreateEmployee_DefaultsSchedule(t *testing.T) {
	app := newTestApp(t)
	token := app.adminToken(t)

	rec, resp := app.do(t, http.MethodPost, "/api/v1/employees", token, map[string]string{"name": "Bob"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var data employee.EmployeeResponse
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, "08:30:00", data.ArrivalTime)
	assert.Equal(t, "17:30:00", data.DepartureTime)
	assert.Len(t, data.WorkingDays, 5)
}

func TestCreateEmployee_MissingName(t *testing.T) {
	app := newTestApp(t)
	token := app.adminToken(t)

	rec, resp := app.do(t, http.MethodPost, "/api/v1/employees", token, map[string]string{})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Details, "name")
}

func TestCreateEmployee_BackwardsSchedule(t *testing.T) {
	app := newTestApp(t)
	token := app.adminToken(t)

	rec, _ := app.do(t, http.MethodPost, "/api/v1/employees", token, map[string]string{
		"name":           "Backwards",
		"arrival_time":   "18:00",
		"departure_time": "09:00",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, app.dir.IDs())
}

func TestGetEmployee_NotFound(t *testing.T) {
	app := newTestApp(t)

	rec, resp := app.do(t, http.MethodGet, "/api/v1/employees/42", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestGetEmployee_BadID(t *testing.T) {
	app := newTestApp(t)

	rec, _ := app.do(t, http.MethodGet, "/api/v1/employees/zero", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetEmployee_IncludesRecords(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	emp, err := app.dir.CreateEmployee(ctx, "Alice", employee.DefaultSchedule())
	require.NoError(t, err)
	at := time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC)
	require.NoError(t, app.reconciler.Apply(ctx, attendance.NewCheckEvent(emp.ID, attendance.CheckIn, at)))

	rec, resp := app.do(t, http.MethodGet, fmt.Sprintf("/api/v1/employees/%d", emp.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var data employee.EmployeeResponse
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.True(t, data.Present)
	require.Len(t, data.Records, 1)
	assert.Equal(t, "2026-03-02", data.Records[0].Date)
	assert.Equal(t, "open_in", data.Records[0].State)
}

func TestListEmployees(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	for _, name := range []string{"Alice", "Bob"} {
		_, err := app.dir.CreateEmployee(ctx, name, employee.DefaultSchedule())
		require.NoError(t, err)
	}

	rec, resp := app.do(t, http.MethodGet, "/api/v1/employees", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var data []employee.EmployeeResponse
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.Len(t, data, 2)
	assert.Equal(t, "Alice", data[0].Name)
	assert.Equal(t, "Bob", data[1].Name)
}

func TestDeleteRecord(t *testing.T) {
	app := newTestApp(t)
	token := app.adminToken(t)
	ctx := context.Background()

	emp, err := app.dir.CreateEmployee(ctx, "Alice", employee.DefaultSchedule())
	require.NoError(t, err)
	at := time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC)
	require.NoError(t, app.reconciler.Apply(ctx, attendance.NewCheckEvent(emp.ID, attendance.CheckIn, at)))

	path := fmt.Sprintf("/api/v1/employees/%d/records/2026-03-02", emp.ID)
	rec, _ := app.do(t, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = app.do(t, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = app.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/employees/%d/records/not-a-date", emp.ID), token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateSchedule_RecomputesBalance(t *testing.T) {
	app := newTestApp(t)
	token := app.adminToken(t)
	ctx := context.Background()

	emp, err := app.dir.CreateEmployee(ctx, "Alice", employee.DefaultSchedule())
	require.NoError(t, err)

	rec, resp := app.do(t, http.MethodPut, fmt.Sprintf("/api/v1/employees/%d/schedule", emp.ID), token, map[string]interface{}{
		"arrival_time":   "07:00",
		"departure_time": "15:00",
		"working_days":   []string{"monday", "tuesday"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var data employee.EmployeeResponse
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, "07:00:00", data.ArrivalTime)
	assert.Equal(t, []string{"monday", "tuesday"}, data.WorkingDays)
}

func TestDeleteEmployee(t *testing.T) {
	app := newTestApp(t)
	token := app.adminToken(t)
	ctx := context.Background()

	emp, err := app.dir.CreateEmployee(ctx, "Alice", employee.DefaultSchedule())
	require.NoError(t, err)

	rec, _ := app.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/employees/%d", emp.ID), token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = app.do(t, http.MethodGet, fmt.Sprintf("/api/v1/employees/%d", emp.ID), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
