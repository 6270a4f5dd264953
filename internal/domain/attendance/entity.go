package attendance

import (
	"fmt"
	"time"
)

// TimeOfDay is a clock time within a day, stored as seconds since midnight.
// Badge terminals report seconds; all accounting is done in whole minutes.
type TimeOfDay int

// NewTimeOfDay builds a TimeOfDay from hour, minute and second.
func NewTimeOfDay(hour, minute, second int) TimeOfDay {
	return TimeOfDay(hour*3600 + minute*60 + second)
}

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var h, m, sec int
	if _, err := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec); err != nil {
		sec = 0
		if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
			return 0, fmt.Errorf("invalid time of day %q", s)
		}
	}
	if h < 0 || h > 23 || m < 0 || m > 59 || sec < 0 || sec > 59 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	return NewTimeOfDay(h, m, sec), nil
}

// TimeOfDayFrom extracts the clock time from a timestamp.
func TimeOfDayFrom(t time.Time) TimeOfDay {
	return NewTimeOfDay(t.Hour(), t.Minute(), t.Second())
}

func (t TimeOfDay) Hour() int   { return int(t) / 3600 }
func (t TimeOfDay) Minute() int { return (int(t) % 3600) / 60 }
func (t TimeOfDay) Second() int { return int(t) % 60 }

// Minutes returns the number of whole minutes since midnight.
func (t TimeOfDay) Minutes() int { return int(t) / 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second())
}

// CheckType is the direction of a badge reading.
type CheckType string

const (
	CheckIn  CheckType = "IN"
	CheckOut CheckType = "OUT"
)

// ParseCheckType parses the wire representation of a check type.
func ParseCheckType(s string) (CheckType, error) {
	switch CheckType(s) {
	case CheckIn, CheckOut:
		return CheckType(s), nil
	}
	return "", fmt.Errorf("invalid check type %q", s)
}

// CheckEvent is one badge reading: who, which direction, when.
// Events are transient; once applied to a day record they are not kept.
type CheckEvent struct {
	EmployeeID int
	Type       CheckType
	Date       time.Time // day of the reading, normalized to midnight UTC
	Time       TimeOfDay
}

// NewCheckEvent splits a full timestamp into the event's date and clock time.
func NewCheckEvent(employeeID int, checkType CheckType, at time.Time) CheckEvent {
	return CheckEvent{
		EmployeeID: employeeID,
		Type:       checkType,
		Date:       DateOf(at),
		Time:       TimeOfDayFrom(at),
	}
}

// At recombines the event's date and clock time into one timestamp.
func (e CheckEvent) At() time.Time {
	return e.Date.Add(time.Duration(e.Time) * time.Second)
}

// DateOf normalizes a timestamp to its calendar day, midnight UTC.
// Day records are keyed by these normalized dates.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// RecordState is the derived lifecycle state of a day record.
// It is never stored; it is computed from which sides are set.
type RecordState string

const (
	StateEmpty        RecordState = "empty"
	StateOpenIn       RecordState = "open_in"
	StateOpenOut      RecordState = "open_out"
	StateClosed       RecordState = "closed"
	StateInconsistent RecordState = "inconsistent"
)

// DayRecord is the reconciled check-in/check-out pair for one employee on
// one date. Either side may be absent. At most one record exists per
// (employee, date); the directory enforces that at creation.
type DayRecord struct {
	Date time.Time
	In   *TimeOfDay
	Out  *TimeOfDay
}

// SetSide overwrites the side matching the check type. Last write wins,
// which absorbs duplicate redelivery from the at-least-once transport.
func (r *DayRecord) SetSide(checkType CheckType, t TimeOfDay) {
	if checkType == CheckIn {
		r.In = &t
	} else {
		r.Out = &t
	}
}

// WorkedMinutes is the worked duration for the day. A record with only one
// side set counts as zero, the same as a full absence.
func (r *DayRecord) WorkedMinutes() int {
	if r.In == nil || r.Out == nil {
		return 0
	}
	return (int(*r.Out) - int(*r.In)) / 60
}

// Open reports whether exactly one side is set.
func (r *DayRecord) Open() bool {
	return (r.In == nil) != (r.Out == nil)
}

// OpenIn reports an unmatched check-in: the employee badged in and has not
// badged out. A lone check-out is open but does not mean anyone is inside.
func (r *DayRecord) OpenIn() bool {
	return r.In != nil && r.Out == nil
}

// State derives the record's lifecycle state.
func (r *DayRecord) State() RecordState {
	switch {
	case r.In == nil && r.Out == nil:
		return StateEmpty
	case r.In != nil && r.Out == nil:
		return StateOpenIn
	case r.In == nil:
		return StateOpenOut
	case *r.In < *r.Out:
		return StateClosed
	default:
		return StateInconsistent
	}
}

// Clone returns an independent copy of the record.
func (r *DayRecord) Clone() *DayRecord {
	out := &DayRecord{Date: r.Date}
	if r.In != nil {
		in := *r.In
		out.In = &in
	}
	if r.Out != nil {
		o := *r.Out
		out.Out = &o
	}
	return out
}
