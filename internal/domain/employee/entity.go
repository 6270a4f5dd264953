package employee

import (
	"sort"
	"time"

	"github.com/pointage-hq/pointage-backend-go/internal/domain/attendance"
)

// Default schedule handed to employees created without one: office hours,
// Monday through Friday.
var (
	DefaultArrival     = attendance.NewTimeOfDay(8, 30, 0)
	DefaultDeparture   = attendance.NewTimeOfDay(17, 30, 0)
	DefaultWorkingDays = []time.Weekday{
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
	}
)

// Schedule is an employee's expected working hours and weekdays.
// Invariant: Arrival < Departure, enforced at creation and update.
type Schedule struct {
	Arrival     attendance.TimeOfDay
	Departure   attendance.TimeOfDay
	WorkingDays []time.Weekday
}

// DefaultSchedule returns the standard office-hours schedule.
func DefaultSchedule() Schedule {
	return Schedule{
		Arrival:     DefaultArrival,
		Departure:   DefaultDeparture,
		WorkingDays: append([]time.Weekday(nil), DefaultWorkingDays...),
	}
}

// Validate checks the arrival-before-departure invariant.
func (s Schedule) Validate() error {
	if s.Arrival >= s.Departure {
		return ErrInvalidSchedule
	}
	return nil
}

// WorksOn reports whether the weekday is part of the working-day set.
func (s Schedule) WorksOn(day time.Weekday) bool {
	for _, d := range s.WorkingDays {
		if d == day {
			return true
		}
	}
	return false
}

// ExpectedMinutes is the scheduled working duration for a weekday:
// departure minus arrival on working days, zero otherwise.
func (s Schedule) ExpectedMinutes(day time.Weekday) int {
	if !s.WorksOn(day) {
		return 0
	}
	return s.Departure.Minutes() - s.Arrival.Minutes()
}

func (s Schedule) clone() Schedule {
	s.WorkingDays = append([]time.Weekday(nil), s.WorkingDays...)
	return s
}

// Employee is one person in the directory. The id is assigned once by the
// directory's counter and never reused. Managers are employees carrying a
// capability flag, not a separate type; the department association is an
// opaque id resolved elsewhere.
type Employee struct {
	ID           int
	Name         string
	Schedule     Schedule
	Manager      bool
	DepartmentID *int

	// Present is derived from the latest-dated record: true iff it shows
	// an unmatched check-in. Kept on the entity so directory reads are a
	// plain copy.
	Present bool

	// BalanceMinutes is the running worked-minus-expected balance. It is
	// replaced wholesale by the ledger on every recompute, never patched.
	BalanceMinutes int

	Records map[time.Time]*attendance.DayRecord
}

// RecordFor returns the day record for a date, or nil.
func (e *Employee) RecordFor(date time.Time) *attendance.DayRecord {
	return e.Records[attendance.DateOf(date)]
}

// EnsureRecord returns the day record for a date, creating an empty one if
// none exists yet. The first writer creates; later writers attach to the
// existing record.
func (e *Employee) EnsureRecord(date time.Time) *attendance.DayRecord {
	date = attendance.DateOf(date)
	if rec, ok := e.Records[date]; ok {
		return rec
	}
	rec := &attendance.DayRecord{Date: date}
	if e.Records == nil {
		e.Records = make(map[time.Time]*attendance.DayRecord)
	}
	e.Records[date] = rec
	return rec
}

// RemoveRecord deletes the record for a date if present.
func (e *Employee) RemoveRecord(date time.Time) bool {
	date = attendance.DateOf(date)
	if _, ok := e.Records[date]; !ok {
		return false
	}
	delete(e.Records, date)
	return true
}

// SortedRecords returns the employee's records ordered by date.
func (e *Employee) SortedRecords() []*attendance.DayRecord {
	out := make([]*attendance.DayRecord, 0, len(e.Records))
	for _, rec := range e.Records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// LatestRecord returns the record with the greatest date, or nil. Latest is
// determined purely by date ordering, not by which event arrived last.
func (e *Employee) LatestRecord() *attendance.DayRecord {
	var latest *attendance.DayRecord
	for _, rec := range e.Records {
		if latest == nil || rec.Date.After(latest.Date) {
			latest = rec
		}
	}
	return latest
}

// EarliestRecordDate returns the smallest record date and whether any exist.
func (e *Employee) EarliestRecordDate() (time.Time, bool) {
	var earliest time.Time
	found := false
	for date := range e.Records {
		if !found || date.Before(earliest) {
			earliest = date
			found = true
		}
	}
	return earliest, found
}

// RefreshPresence recomputes the derived presence flag.
func (e *Employee) RefreshPresence() {
	latest := e.LatestRecord()
	e.Present = latest != nil && latest.OpenIn()
}

// Clone returns a deep copy, safe to hand out while the original keeps
// mutating under the directory lock.
func (e *Employee) Clone() *Employee {
	out := *e
	out.Schedule = e.Schedule.clone()
	if e.DepartmentID != nil {
		dep := *e.DepartmentID
		out.DepartmentID = &dep
	}
	out.Records = make(map[time.Time]*attendance.DayRecord, len(e.Records))
	for date, rec := range e.Records {
		out.Records[date] = rec.Clone()
	}
	return &out
}
