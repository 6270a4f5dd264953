package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pointage-hq/pointage-backend-go/internal/domain/employee"
	"github.com/pointage-hq/pointage-backend-go/internal/handler/http/response"
	"github.com/pointage-hq/pointage-backend-go/internal/pkg/validator"
	"github.com/pointage-hq/pointage-backend-go/internal/service/directory"
	"github.com/pointage-hq/pointage-backend-go/internal/service/ledger"
	"github.com/pointage-hq/pointage-backend-go/internal/service/reconciler"
)

type EmployeeHandler interface {
	ListEmployees(w http.ResponseWriter, r *http.Request)
	GetEmployee(w http.ResponseWriter, r *http.Request)
	CreateEmployee(w http.ResponseWriter, r *http.Request)
	UpdateSchedule(w http.ResponseWriter, r *http.Request)
	SetManager(w http.ResponseWriter, r *http.Request)
	DeleteEmployee(w http.ResponseWriter, r *http.Request)
	DeleteRecord(w http.ResponseWriter, r *http.Request)
}

type employeeHandlerImpl struct {
	dir        *directory.Service
	ledger     *ledger.Service
	reconciler *reconciler.Service
}

func NewEmployeeHandler(dir *directory.Service, ledgerSvc *ledger.Service, reconcilerSvc *reconciler.Service) EmployeeHandler {
	return &employeeHandlerImpl{
		dir:        dir,
		ledger:     ledgerSvc,
		reconciler: reconcilerSvc,
	}
}

// ListEmployees implements EmployeeHandler. The list is one consistent cut
// of the directory, without per-day records.
func (h *employeeHandlerImpl) ListEmployees(w http.ResponseWriter, r *http.Request) {
	emps := h.dir.ListEmployees(r.Context())
	out := make([]employee.EmployeeResponse, 0, len(emps))
	for _, emp := range emps {
		out = append(out, employee.NewEmployeeResponse(emp, false))
	}
	response.Success(w, out)
}

// GetEmployee implements EmployeeHandler. Includes the full record list
// with derived states.
func (h *employeeHandlerImpl) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := employeeID(w, r)
	if !ok {
		return
	}

	emp, err := h.dir.GetEmployee(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, employee.NewEmployeeResponse(emp, true))
}

// CreateEmployee implements EmployeeHandler
func (h *employeeHandlerImpl) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req employee.CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	emp, err := h.dir.CreateEmployee(r.Context(), req.Name, req.Schedule())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if req.Manager {
		if err := h.dir.SetManagerCapability(r.Context(), emp.ID, true); err == nil {
			emp.Manager = true
		}
	}
	if req.DepartmentID != nil {
		if err := h.dir.SetDepartment(r.Context(), emp.ID, req.DepartmentID); err == nil {
			emp.DepartmentID = req.DepartmentID
		}
	}

	response.Created(w, "Employee created", employee.NewEmployeeResponse(emp, false))
}

// UpdateSchedule implements EmployeeHandler. The balance is recomputed
// right away since the expected minutes changed.
func (h *employeeHandlerImpl) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := employeeID(w, r)
	if !ok {
		return
	}

	var req employee.UpdateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	if err := h.dir.UpdateSchedule(r.Context(), id, req.Schedule()); err != nil {
		response.HandleError(w, err)
		return
	}
	if err := h.ledger.Recompute(r.Context(), id, time.Time{}); err != nil {
		response.HandleError(w, err)
		return
	}

	h.respondWithEmployee(w, r.Context(), id, "Schedule updated")
}

// SetManager implements EmployeeHandler
func (h *employeeHandlerImpl) SetManager(w http.ResponseWriter, r *http.Request) {
	id, ok := employeeID(w, r)
	if !ok {
		return
	}

	var req employee.SetManagerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := h.dir.SetManagerCapability(r.Context(), id, req.Manager); err != nil {
		response.HandleError(w, err)
		return
	}

	h.respondWithEmployee(w, r.Context(), id, "Manager capability updated")
}

// DeleteEmployee implements EmployeeHandler
func (h *employeeHandlerImpl) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := employeeID(w, r)
	if !ok {
		return
	}

	if err := h.dir.RemoveEmployee(r.Context(), id); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Employee removed", nil)
}

// DeleteRecord implements EmployeeHandler. Removal is the only way a day
// record ever disappears; it triggers a balance recompute.
func (h *employeeHandlerImpl) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := employeeID(w, r)
	if !ok {
		return
	}

	date, ok := validator.IsValidDate(chi.URLParam(r, "date"))
	if !ok {
		response.BadRequest(w, "Date must be YYYY-MM-DD", nil)
		return
	}

	if err := h.reconciler.RemoveRecord(r.Context(), id, date); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Record removed", nil)
}

func (h *employeeHandlerImpl) respondWithEmployee(w http.ResponseWriter, ctx context.Context, id int, message string) {
	emp, err := h.dir.GetEmployee(ctx, id)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, message, employee.NewEmployeeResponse(emp, false))
}

func employeeID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		response.BadRequest(w, "Employee ID must be a positive integer", nil)
		return 0, false
	}
	return id, true
}
