package employee

import (
	"strings"
	"time"

	"github.com/pointage-hq/pointage-backend-go/internal/domain/attendance"
	"github.com/pointage-hq/pointage-backend-go/internal/pkg/validator"
)

type CreateEmployeeRequest struct {
	Name          string   `json:"name"`
	ArrivalTime   string   `json:"arrival_time,omitempty"`
	DepartureTime string   `json:"departure_time,omitempty"`
	WorkingDays   []string `json:"working_days,omitempty"`
	Manager       bool     `json:"manager,omitempty"`
	DepartmentID  *int     `json:"department_id,omitempty"`
}

func (r CreateEmployeeRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "is required"})
	}
	if r.ArrivalTime != "" && !validator.IsValidClockTime(r.ArrivalTime) {
		errs = append(errs, validator.ValidationError{Field: "arrival_time", Message: "must be HH:MM or HH:MM:SS"})
	}
	if r.DepartureTime != "" && !validator.IsValidClockTime(r.DepartureTime) {
		errs = append(errs, validator.ValidationError{Field: "departure_time", Message: "must be HH:MM or HH:MM:SS"})
	}
	for _, day := range r.WorkingDays {
		if !validator.IsValidWeekday(day) {
			errs = append(errs, validator.ValidationError{Field: "working_days", Message: "unknown weekday " + day})
			break
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Schedule builds the requested schedule, falling back to the default
// office-hours schedule for omitted fields. Invariant checking is left to
// the directory so every creation path goes through the same gate.
func (r CreateEmployeeRequest) Schedule() Schedule {
	s := DefaultSchedule()
	if r.ArrivalTime != "" {
		if t, err := attendance.ParseTimeOfDay(r.ArrivalTime); err == nil {
			s.Arrival = t
		}
	}
	if r.DepartureTime != "" {
		if t, err := attendance.ParseTimeOfDay(r.DepartureTime); err == nil {
			s.Departure = t
		}
	}
	if len(r.WorkingDays) > 0 {
		s.WorkingDays = parseWeekdays(r.WorkingDays)
	}
	return s
}

type UpdateScheduleRequest struct {
	ArrivalTime   string   `json:"arrival_time"`
	DepartureTime string   `json:"departure_time"`
	WorkingDays   []string `json:"working_days"`
}

func (r UpdateScheduleRequest) Validate() error {
	var errs validator.ValidationErrors
	if !validator.IsValidClockTime(r.ArrivalTime) {
		errs = append(errs, validator.ValidationError{Field: "arrival_time", Message: "must be HH:MM or HH:MM:SS"})
	}
	if !validator.IsValidClockTime(r.DepartureTime) {
		errs = append(errs, validator.ValidationError{Field: "departure_time", Message: "must be HH:MM or HH:MM:SS"})
	}
	if len(r.WorkingDays) == 0 {
		errs = append(errs, validator.ValidationError{Field: "working_days", Message: "is required"})
	}
	for _, day := range r.WorkingDays {
		if !validator.IsValidWeekday(day) {
			errs = append(errs, validator.ValidationError{Field: "working_days", Message: "unknown weekday " + day})
			break
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (r UpdateScheduleRequest) Schedule() Schedule {
	s := Schedule{WorkingDays: parseWeekdays(r.WorkingDays)}
	if t, err := attendance.ParseTimeOfDay(r.ArrivalTime); err == nil {
		s.Arrival = t
	}
	if t, err := attendance.ParseTimeOfDay(r.DepartureTime); err == nil {
		s.Departure = t
	}
	return s
}

type SetManagerRequest struct {
	Manager bool `json:"manager"`
}

type DayRecordResponse struct {
	Date          string  `json:"date"`
	CheckIn       *string `json:"check_in,omitempty"`
	CheckOut      *string `json:"check_out,omitempty"`
	State         string  `json:"state"`
	WorkedMinutes int     `json:"worked_minutes"`
}

type EmployeeResponse struct {
	ID              int                 `json:"id"`
	Name            string              `json:"name"`
	ArrivalTime     string              `json:"arrival_time"`
	DepartureTime   string              `json:"departure_time"`
	WorkingDays     []string            `json:"working_days"`
	Manager         bool                `json:"manager"`
	DepartmentID    *int                `json:"department_id,omitempty"`
	Present         bool                `json:"present"`
	OvertimeMinutes int                 `json:"overtime_minutes"`
	Records         []DayRecordResponse `json:"records,omitempty"`
}

// NewEmployeeResponse converts a directory copy into its API shape.
func NewEmployeeResponse(e *Employee, withRecords bool) EmployeeResponse {
	resp := EmployeeResponse{
		ID:              e.ID,
		Name:            e.Name,
		ArrivalTime:     e.Schedule.Arrival.String(),
		DepartureTime:   e.Schedule.Departure.String(),
		WorkingDays:     weekdayNames(e.Schedule.WorkingDays),
		Manager:         e.Manager,
		DepartmentID:    e.DepartmentID,
		Present:         e.Present,
		OvertimeMinutes: e.BalanceMinutes,
	}
	if !withRecords {
		return resp
	}
	for _, rec := range e.SortedRecords() {
		out := DayRecordResponse{
			Date:          rec.Date.Format("2006-01-02"),
			State:         string(rec.State()),
			WorkedMinutes: rec.WorkedMinutes(),
		}
		if rec.In != nil {
			s := rec.In.String()
			out.CheckIn = &s
		}
		if rec.Out != nil {
			s := rec.Out.String()
			out.CheckOut = &s
		}
		resp.Records = append(resp.Records, out)
	}
	return resp
}

var weekdaysByName = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func parseWeekdays(names []string) []time.Weekday {
	out := make([]time.Weekday, 0, len(names))
	for _, name := range names {
		if day, ok := weekdaysByName[strings.ToLower(name)]; ok {
			out = append(out, day)
		}
	}
	return out
}

func weekdayNames(days []time.Weekday) []string {
	out := make([]string, 0, len(days))
	for _, day := range days {
		out = append(out, strings.ToLower(day.String()))
	}
	return out
}
