// Package check implements the wire transport for badge check events: a
// TCP listener on the receiving side and a batching sender on the emitting
// side. One logical record is one newline-terminated UTF-8 line; there is
// no length prefix and no acknowledgement; delivery is at-least-once and
// fire-and-forget, which the reconciler's last-write-wins semantics absorb.
package check

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pointage-hq/pointage-backend-go/internal/domain/attendance"
)

// WireTimeLayout is the timestamp format badge terminals send.
const WireTimeLayout = "02/01/2006 15:04:05"

// listRequest asks the server for its employee roster instead of
// submitting a check. Terminals use it to refresh their local lists.
const listRequest = "EMPLOYEES"

// ParseLine decodes one check record:
//
//	<employeeId>;<IN|OUT>;<dd/MM/yyyy HH:mm:ss>
func ParseLine(line string) (attendance.CheckEvent, error) {
	fields := strings.Split(line, ";")
	if len(fields) != 3 {
		return attendance.CheckEvent{}, fmt.Errorf("expected 3 fields, got %d", len(fields))
	}
	id, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return attendance.CheckEvent{}, fmt.Errorf("invalid employee id %q", fields[0])
	}
	checkType, err := attendance.ParseCheckType(strings.TrimSpace(fields[1]))
	if err != nil {
		return attendance.CheckEvent{}, err
	}
	at, err := time.Parse(WireTimeLayout, strings.TrimSpace(fields[2]))
	if err != nil {
		return attendance.CheckEvent{}, fmt.Errorf("invalid timestamp %q", fields[2])
	}
	return attendance.NewCheckEvent(id, checkType, at), nil
}

// FormatLine encodes a check event as one wire line, without the trailing
// newline.
func FormatLine(ev attendance.CheckEvent) string {
	return fmt.Sprintf("%d;%s;%s", ev.EmployeeID, ev.Type, ev.At().Format(WireTimeLayout))
}

// RemoteEmployee is one roster entry as served to badge terminals.
type RemoteEmployee struct {
	ID   int
	Name string
}

func formatEmployeeLine(e RemoteEmployee) string {
	return fmt.Sprintf("%d;%s", e.ID, e.Name)
}

func parseEmployeeLine(line string) (RemoteEmployee, error) {
	id, name, ok := strings.Cut(line, ";")
	if !ok {
		return RemoteEmployee{}, fmt.Errorf("expected 2 fields in %q", line)
	}
	n, err := strconv.Atoi(strings.TrimSpace(id))
	if err != nil {
		return RemoteEmployee{}, fmt.Errorf("invalid employee id %q", id)
	}
	return RemoteEmployee{ID: n, Name: name}, nil
}
