// Package snapshot defines the persistence contract for the employee
// directory. The directory is serialized as one self-contained snapshot
// (employees, schedules, day records, balances and the id counter) so a
// load/save pair round-trips the full state without any cross-entity
// pointer fixups.
package snapshot

import "context"

type Directory struct {
	// NextID is the directory's id counter. Persisting it keeps employee
	// ids stable and unique across restarts.
	NextID    int        `json:"next_id"`
	Employees []Employee `json:"employees"`
}

type Employee struct {
	ID             int      `json:"id"`
	Name           string   `json:"name"`
	ArrivalTime    string   `json:"arrival_time"`   // HH:MM:SS
	DepartureTime  string   `json:"departure_time"` // HH:MM:SS
	WorkingDays    []int    `json:"working_days"`   // time.Weekday values
	Manager        bool     `json:"manager,omitempty"`
	DepartmentID   *int     `json:"department_id,omitempty"`
	BalanceMinutes int      `json:"balance_minutes"`
	Records        []Record `json:"records,omitempty"`
}

type Record struct {
	Date     string  `json:"date"` // 2006-01-02
	CheckIn  *string `json:"check_in,omitempty"`
	CheckOut *string `json:"check_out,omitempty"`
}

// Store loads and saves directory snapshots. The surrounding application
// triggers Load at startup and Save on shutdown and on autosave; the core
// treats the snapshot as opaque.
type Store interface {
	// Load returns the last saved snapshot, or (nil, nil) when no
	// snapshot exists yet.
	Load(ctx context.Context) (*Directory, error)

	Save(ctx context.Context, snap *Directory) error
}
