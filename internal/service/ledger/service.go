// Package ledger computes the per-employee overtime balance: worked minutes
// minus scheduled minutes, accumulated over every calendar day of the
// employee's timeline. The balance is always recomputed from scratch by a
// full walk; correctness over performance, since per-employee day counts are
// small.
package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/pointage-hq/pointage-backend-go/internal/domain/attendance"
	"github.com/pointage-hq/pointage-backend-go/internal/domain/employee"
	"github.com/pointage-hq/pointage-backend-go/internal/pkg/events"
	"github.com/pointage-hq/pointage-backend-go/internal/service/directory"
)

// BalanceAsOf walks every calendar day from the employee's earliest record
// (or asOf, when no records exist) through asOf inclusive, with no gaps
// skipped, and sums actual minus expected minutes.
//
// A record with only one side set contributes zero actual minutes; a
// partial check-in counts the same as a full absence. Changing that rule
// rewrites every historical balance on the next recompute.
func BalanceAsOf(emp *employee.Employee, asOf time.Time) int {
	asOf = attendance.DateOf(asOf)
	start, ok := emp.EarliestRecordDate()
	if !ok {
		start = asOf
	}

	total := 0
	for day := start; !day.After(asOf); day = day.AddDate(0, 0, 1) {
		expected := emp.Schedule.ExpectedMinutes(day.Weekday())
		actual := 0
		if rec := emp.Records[day]; rec != nil {
			actual = rec.WorkedMinutes()
		}
		total += actual - expected
	}
	return total
}

// Service recomputes and stores balances through the directory.
type Service struct {
	dir *directory.Service
	hub *events.Hub
	now func() time.Time
}

func NewService(dir *directory.Service, hub *events.Hub) *Service {
	return &Service{dir: dir, hub: hub, now: time.Now}
}

// Recompute replaces the employee's stored balance with a fresh walk up to
// asOf. A zero asOf means the current date.
func (s *Service) Recompute(ctx context.Context, employeeID int, asOf time.Time) error {
	if asOf.IsZero() {
		asOf = s.now()
	}
	err := s.dir.Mutate(employeeID, func(emp *employee.Employee) error {
		emp.BalanceMinutes = BalanceAsOf(emp, asOf)
		return nil
	})
	if err != nil {
		return err
	}
	s.hub.Publish(events.Event{Kind: events.BalanceUpdated, EmployeeID: employeeID})
	return nil
}

// RecomputeAll refreshes every employee's balance. Balances drift as days
// pass even without new events (absent working days keep accruing deficit),
// so this runs at least daily.
func (s *Service) RecomputeAll(ctx context.Context) error {
	for _, id := range s.dir.IDs() {
		if err := s.Recompute(ctx, id, time.Time{}); err != nil {
			// Employee removed between listing and recompute; skip.
			slog.Debug("balance refresh skipped", "employee_id", id, "error", err)
		}
	}
	return nil
}
