// Package postgresql persists directory snapshots in PostgreSQL, for
// deployments that already run a database and want snapshots queryable.
// The snapshot is normalized over three tables and replaced wholesale in
// one transaction per save; there is no incremental writing, mirroring the
// directory's replace-not-patch semantics.
package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pointage-hq/pointage-backend-go/internal/domain/snapshot"
	"github.com/pointage-hq/pointage-backend-go/internal/pkg/database"
)

type SnapshotStore struct {
	db *database.DB
}

func NewSnapshotStore(db *database.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// Migrate creates the snapshot tables if they do not exist.
func (s *SnapshotStore) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS directory_meta (
			id      INT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
			next_id INT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS employees (
			id              INT PRIMARY KEY,
			name            TEXT NOT NULL,
			arrival_time    TEXT NOT NULL,
			departure_time  TEXT NOT NULL,
			working_days    INT[] NOT NULL,
			manager         BOOLEAN NOT NULL DEFAULT FALSE,
			department_id   INT,
			balance_minutes INT NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS attendance_records (
			employee_id INT NOT NULL REFERENCES employees (id) ON DELETE CASCADE,
			date        DATE NOT NULL,
			check_in    TEXT,
			check_out   TEXT,
			PRIMARY KEY (employee_id, date)
		);
	`)
	if err != nil {
		return fmt.Errorf("migrate snapshot schema: %w", err)
	}
	return nil
}

// Load reads the last saved snapshot. Returns (nil, nil) when no snapshot
// has been saved yet.
func (s *SnapshotStore) Load(ctx context.Context) (*snapshot.Directory, error) {
	var snap snapshot.Directory
	err := s.db.QueryRow(ctx, `SELECT next_id FROM directory_meta WHERE id = 1`).Scan(&snap.NextID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load directory meta: %w", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, name, arrival_time, departure_time, working_days,
		       manager, department_id, balance_minutes
		FROM employees
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("load employees: %w", err)
	}
	defer rows.Close()

	byID := make(map[int]*snapshot.Employee)
	for rows.Next() {
		var emp snapshot.Employee
		if err := rows.Scan(
			&emp.ID, &emp.Name, &emp.ArrivalTime, &emp.DepartureTime,
			&emp.WorkingDays, &emp.Manager, &emp.DepartmentID, &emp.BalanceMinutes,
		); err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		snap.Employees = append(snap.Employees, emp)
		byID[emp.ID] = &snap.Employees[len(snap.Employees)-1]
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load employees: %w", err)
	}

	recRows, err := s.db.Query(ctx, `
		SELECT employee_id, to_char(date, 'YYYY-MM-DD'), check_in, check_out
		FROM attendance_records
		ORDER BY employee_id, date
	`)
	if err != nil {
		return nil, fmt.Errorf("load attendance records: %w", err)
	}
	defer recRows.Close()

	for recRows.Next() {
		var employeeID int
		var rec snapshot.Record
		if err := recRows.Scan(&employeeID, &rec.Date, &rec.CheckIn, &rec.CheckOut); err != nil {
			return nil, fmt.Errorf("scan attendance record: %w", err)
		}
		if emp, ok := byID[employeeID]; ok {
			emp.Records = append(emp.Records, rec)
		}
	}
	if err := recRows.Err(); err != nil {
		return nil, fmt.Errorf("load attendance records: %w", err)
	}

	return &snap, nil
}

// Save replaces the stored snapshot in one transaction.
func (s *SnapshotStore) Save(ctx context.Context, snap *snapshot.Directory) error {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin snapshot save: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM attendance_records`); err != nil {
		return fmt.Errorf("clear attendance records: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM employees`); err != nil {
		return fmt.Errorf("clear employees: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO directory_meta (id, next_id) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET next_id = EXCLUDED.next_id
	`, snap.NextID); err != nil {
		return fmt.Errorf("save directory meta: %w", err)
	}

	for _, emp := range snap.Employees {
		if _, err := tx.Exec(ctx, `
			INSERT INTO employees
				(id, name, arrival_time, departure_time, working_days,
				 manager, department_id, balance_minutes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, emp.ID, emp.Name, emp.ArrivalTime, emp.DepartureTime, emp.WorkingDays,
			emp.Manager, emp.DepartmentID, emp.BalanceMinutes,
		); err != nil {
			return fmt.Errorf("save employee %d: %w", emp.ID, err)
		}
		for _, rec := range emp.Records {
			if _, err := tx.Exec(ctx, `
				INSERT INTO attendance_records (employee_id, date, check_in, check_out)
				VALUES ($1, $2, $3, $4)
			`, emp.ID, rec.Date, rec.CheckIn, rec.CheckOut); err != nil {
				return fmt.Errorf("save record %d/%s: %w", emp.ID, rec.Date, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit snapshot save: %w", err)
	}
	return nil
}
