// Package reconciler applies badge check events to employee timelines. One
// event mutates one side of one day record; everything else the system
// shows (presence, balances, record states) is derived from the records the
// reconciler maintains.
package reconciler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/pointage-hq/pointage-backend-go/internal/domain/attendance"
	"github.com/pointage-hq/pointage-backend-go/internal/domain/employee"
	"github.com/pointage-hq/pointage-backend-go/internal/pkg/events"
	"github.com/pointage-hq/pointage-backend-go/internal/service/directory"
	"github.com/pointage-hq/pointage-backend-go/internal/service/ledger"
)

type Service struct {
	dir *directory.Service
	hub *events.Hub
	now func() time.Time
}

func NewService(dir *directory.Service, hub *events.Hub) *Service {
	return &Service{dir: dir, hub: hub, now: time.Now}
}

// Apply reconciles one check event into the employee's timeline:
//
//  1. the day record for the event's date is found or lazily created;
//  2. the side matching the event type is overwritten (last write wins:
//     duplicate redelivery from the at-least-once transport collapses into
//     the same state);
//  3. presence and the overtime balance are refreshed.
//
// An event is never rejected for being "invalid" (an OUT before any IN is
// fine); inconsistency is something a record is observed to be, not a
// precondition. Events for unknown employees are logged and dropped: the
// transport has no reply channel, so there is nobody to tell.
func (s *Service) Apply(ctx context.Context, ev attendance.CheckEvent) error {
	err := s.dir.Mutate(ev.EmployeeID, func(emp *employee.Employee) error {
		rec := emp.EnsureRecord(ev.Date)
		rec.SetSide(ev.Type, ev.Time)
		emp.RefreshPresence()
		emp.BalanceMinutes = ledger.BalanceAsOf(emp, s.now())
		return nil
	})
	if errors.Is(err, employee.ErrEmployeeNotFound) {
		slog.Warn("check event for unknown employee dropped",
			"employee_id", ev.EmployeeID,
			"type", string(ev.Type),
			"date", ev.Date.Format("2006-01-02"),
		)
		return nil
	}
	if err != nil {
		return err
	}

	s.hub.Publish(events.Event{Kind: events.CheckApplied, EmployeeID: ev.EmployeeID})
	return nil
}

// RemoveRecord explicitly deletes the day record for a date. Records are
// never removed any other way. The balance is recomputed since the
// timeline changed.
func (s *Service) RemoveRecord(ctx context.Context, employeeID int, date time.Time) error {
	err := s.dir.Mutate(employeeID, func(emp *employee.Employee) error {
		if !emp.RemoveRecord(date) {
			return attendance.ErrRecordNotFound
		}
		emp.RefreshPresence()
		emp.BalanceMinutes = ledger.BalanceAsOf(emp, s.now())
		return nil
	})
	if err != nil {
		return err
	}

	s.hub.Publish(events.Event{Kind: events.RecordRemoved, EmployeeID: employeeID})
	return nil
}
