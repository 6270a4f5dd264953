// Package directory implements the authoritative employee store. It owns
// the arena of employees, the id counter and the single write lock every
// mutation in the system goes through. All cross-entity relationships are
// plain ids resolved through this store; nothing holds owning pointers into
// it, and every read hands out deep copies.
package directory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pointage-hq/pointage-backend-go/internal/domain/attendance"
	"github.com/pointage-hq/pointage-backend-go/internal/domain/employee"
	"github.com/pointage-hq/pointage-backend-go/internal/domain/snapshot"
	"github.com/pointage-hq/pointage-backend-go/internal/pkg/events"
)

// Service is the in-memory employee directory.
//
// Badge scans are human-paced, so one global lock around the whole arena is
// deliberately chosen over per-employee locking. Reads take the lock in
// shared mode and return clones, never live pointers.
type Service struct {
	mu        sync.RWMutex
	employees map[int]*employee.Employee
	nextID    int
	hub       *events.Hub
}

func NewService(hub *events.Hub) *Service {
	return &Service{
		employees: make(map[int]*employee.Employee),
		nextID:    1,
		hub:       hub,
	}
}

// CreateEmployee registers a new employee and assigns the next id. Ids are
// never reused, even after removal. Fails with employee.ErrInvalidSchedule
// when the schedule's arrival is not strictly before its departure.
func (s *Service) CreateEmployee(ctx context.Context, name string, schedule employee.Schedule) (*employee.Employee, error) {
	if err := schedule.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	emp := &employee.Employee{
		ID:       s.nextID,
		Name:     name,
		Schedule: schedule,
		Records:  make(map[time.Time]*attendance.DayRecord),
	}
	s.nextID++
	s.employees[emp.ID] = emp
	clone := emp.Clone()
	s.mu.Unlock()

	s.hub.Publish(events.Event{Kind: events.EmployeeCreated, EmployeeID: emp.ID})
	return clone, nil
}

// GetEmployee returns a copy of the employee, or employee.ErrEmployeeNotFound.
func (s *Service) GetEmployee(ctx context.Context, id int) (*employee.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	emp, ok := s.employees[id]
	if !ok {
		return nil, employee.ErrEmployeeNotFound
	}
	return emp.Clone(), nil
}

// ListEmployees returns copies of all employees ordered by id, taken under
// one shared lock so callers see a consistent cut of the directory.
func (s *Service) ListEmployees(ctx context.Context) []*employee.Employee {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*employee.Employee, 0, len(s.employees))
	for _, emp := range s.employees {
		out = append(out, emp.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IDs returns all employee ids, ascending.
func (s *Service) IDs() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]int, 0, len(s.employees))
	for id := range s.employees {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// RemoveEmployee deletes the employee. The id is retired with them.
func (s *Service) RemoveEmployee(ctx context.Context, id int) error {
	s.mu.Lock()
	_, ok := s.employees[id]
	if ok {
		delete(s.employees, id)
	}
	s.mu.Unlock()

	if !ok {
		return employee.ErrEmployeeNotFound
	}
	s.hub.Publish(events.Event{Kind: events.EmployeeRemoved, EmployeeID: id})
	return nil
}

// SetManagerCapability flips the leadership capability flag.
func (s *Service) SetManagerCapability(ctx context.Context, id int, manager bool) error {
	return s.update(id, func(emp *employee.Employee) error {
		emp.Manager = manager
		return nil
	})
}

// SetDepartment sets or clears the opaque department back-reference.
func (s *Service) SetDepartment(ctx context.Context, id int, departmentID *int) error {
	return s.update(id, func(emp *employee.Employee) error {
		emp.DepartmentID = departmentID
		return nil
	})
}

// UpdateSchedule replaces the employee's schedule, enforcing the
// arrival-before-departure invariant. The caller is expected to trigger a
// ledger recompute afterwards since expected minutes change.
func (s *Service) UpdateSchedule(ctx context.Context, id int, schedule employee.Schedule) error {
	if err := schedule.Validate(); err != nil {
		return err
	}
	return s.update(id, func(emp *employee.Employee) error {
		emp.Schedule = schedule
		return nil
	})
}

func (s *Service) update(id int, fn func(*employee.Employee) error) error {
	if err := s.Mutate(id, fn); err != nil {
		return err
	}
	s.hub.Publish(events.Event{Kind: events.EmployeeUpdated, EmployeeID: id})
	return nil
}

// Mutate runs fn on the live employee under the write lock. This is the
// mutual-exclusion point for the reconciler and the ledger: two events for
// the same employee arriving on different connections serialize here. fn
// must not retain the pointer past its return and must not block.
func (s *Service) Mutate(id int, fn func(*employee.Employee) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	emp, ok := s.employees[id]
	if !ok {
		return employee.ErrEmployeeNotFound
	}
	return fn(emp)
}

// Snapshot serializes the full directory state: employees, schedules, all
// day records, balances and the id counter. Restoring it yields an
// identical directory.
func (s *Service) Snapshot(ctx context.Context) *snapshot.Directory {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &snapshot.Directory{NextID: s.nextID}
	ids := make([]int, 0, len(s.employees))
	for id := range s.employees {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		emp := s.employees[id]
		se := snapshot.Employee{
			ID:             emp.ID,
			Name:           emp.Name,
			ArrivalTime:    emp.Schedule.Arrival.String(),
			DepartureTime:  emp.Schedule.Departure.String(),
			Manager:        emp.Manager,
			BalanceMinutes: emp.BalanceMinutes,
		}
		if emp.DepartmentID != nil {
			dep := *emp.DepartmentID
			se.DepartmentID = &dep
		}
		for _, day := range emp.Schedule.WorkingDays {
			se.WorkingDays = append(se.WorkingDays, int(day))
		}
		for _, rec := range emp.SortedRecords() {
			sr := snapshot.Record{Date: rec.Date.Format("2006-01-02")}
			if rec.In != nil {
				v := rec.In.String()
				sr.CheckIn = &v
			}
			if rec.Out != nil {
				v := rec.Out.String()
				sr.CheckOut = &v
			}
			se.Records = append(se.Records, sr)
		}
		snap.Employees = append(snap.Employees, se)
	}
	return snap
}

// Restore replaces the directory contents with a snapshot. Balances are
// taken as persisted; the nightly refresh brings them up to date.
func (s *Service) Restore(ctx context.Context, snap *snapshot.Directory) error {
	employees := make(map[int]*employee.Employee, len(snap.Employees))
	nextID := snap.NextID

	for _, se := range snap.Employees {
		arrival, err := attendance.ParseTimeOfDay(se.ArrivalTime)
		if err != nil {
			return fmt.Errorf("employee %d: %w", se.ID, err)
		}
		departure, err := attendance.ParseTimeOfDay(se.DepartureTime)
		if err != nil {
			return fmt.Errorf("employee %d: %w", se.ID, err)
		}
		emp := &employee.Employee{
			ID:   se.ID,
			Name: se.Name,
			Schedule: employee.Schedule{
				Arrival:   arrival,
				Departure: departure,
			},
			Manager:        se.Manager,
			BalanceMinutes: se.BalanceMinutes,
			Records:        make(map[time.Time]*attendance.DayRecord, len(se.Records)),
		}
		if se.DepartmentID != nil {
			dep := *se.DepartmentID
			emp.DepartmentID = &dep
		}
		for _, day := range se.WorkingDays {
			emp.Schedule.WorkingDays = append(emp.Schedule.WorkingDays, time.Weekday(day))
		}
		for _, sr := range se.Records {
			date, err := time.Parse("2006-01-02", sr.Date)
			if err != nil {
				return fmt.Errorf("employee %d record: %w", se.ID, err)
			}
			rec := &attendance.DayRecord{Date: attendance.DateOf(date)}
			if sr.CheckIn != nil {
				v, err := attendance.ParseTimeOfDay(*sr.CheckIn)
				if err != nil {
					return fmt.Errorf("employee %d record %s: %w", se.ID, sr.Date, err)
				}
				rec.In = &v
			}
			if sr.CheckOut != nil {
				v, err := attendance.ParseTimeOfDay(*sr.CheckOut)
				if err != nil {
					return fmt.Errorf("employee %d record %s: %w", se.ID, sr.Date, err)
				}
				rec.Out = &v
			}
			emp.Records[rec.Date] = rec
		}
		emp.RefreshPresence()
		employees[emp.ID] = emp
		if emp.ID >= nextID {
			nextID = emp.ID + 1
		}
	}

	s.mu.Lock()
	s.employees = employees
	s.nextID = nextID
	s.mu.Unlock()
	return nil
}
