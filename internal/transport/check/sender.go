package check

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/pointage-hq/pointage-backend-go/internal/domain/attendance"
)

// DialFunc opens a connection to the check server.
type DialFunc func(ctx context.Context) (net.Conn, error)

// Sender is the emitting side of the transport. Checks queue in memory
// until a flush trigger; each flush sends every pending event in one burst.
// There is no acknowledgement channel, so a failed flush simply keeps the
// batch for the next trigger. The receiver must tolerate duplicates.
//
// The queue lives in memory only; callers that need the queue to survive a
// restart persist Pending() themselves and Restore() it on startup.
type Sender struct {
	dial DialFunc

	// sendMu serializes flushes; mu guards the queue. Enqueue never waits
	// on an in-flight send.
	sendMu  sync.Mutex
	mu      sync.Mutex
	pending []attendance.CheckEvent
}

// NewSender dials addr over TCP.
func NewSender(addr string) *Sender {
	dialer := &net.Dialer{Timeout: 5 * time.Second}
	return &Sender{
		dial: func(ctx context.Context) (net.Conn, error) {
			return dialer.DialContext(ctx, "tcp", addr)
		},
	}
}

// NewSenderWithDialer is used by tests and alternate transports.
func NewSenderWithDialer(dial DialFunc) *Sender {
	return &Sender{dial: dial}
}

// Enqueue adds a check to the pending queue.
func (s *Sender) Enqueue(ev attendance.CheckEvent) {
	s.mu.Lock()
	s.pending = append(s.pending, ev)
	s.mu.Unlock()
}

// Pending returns a copy of the queued events.
func (s *Sender) Pending() []attendance.CheckEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]attendance.CheckEvent(nil), s.pending...)
}

// Restore seeds the queue, typically from a saved copy at startup.
func (s *Sender) Restore(evs []attendance.CheckEvent) {
	s.mu.Lock()
	s.pending = append(s.pending, evs...)
	s.mu.Unlock()
}

// Flush sends all currently pending events as one burst. On any transport
// failure the whole batch stays queued for the next trigger; events
// enqueued while the flush is in progress are never dropped.
func (s *Sender) Flush(ctx context.Context) error {
	// One flush at a time. A concurrent trigger waits, then sends whatever
	// is still queued; only the flush holding sendMu ever trims the queue,
	// so the trim below cannot index past a queue another flush drained.
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	s.mu.Lock()
	batch := append([]attendance.CheckEvent(nil), s.pending...)
	s.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	conn, err := s.dial(ctx)
	if err != nil {
		slog.Warn("check send failed, batch retained", "pending", len(batch), "error", err)
		return fmt.Errorf("dial check server: %w", err)
	}
	defer conn.Close()

	var b strings.Builder
	for _, ev := range batch {
		b.WriteString(FormatLine(ev))
		b.WriteByte('\n')
	}
	if _, err := conn.Write([]byte(b.String())); err != nil {
		slog.Warn("check send failed, batch retained", "pending", len(batch), "error", err)
		return fmt.Errorf("send check batch: %w", err)
	}

	s.mu.Lock()
	s.pending = append([]attendance.CheckEvent(nil), s.pending[len(batch):]...)
	s.mu.Unlock()

	slog.Info("check batch sent", "count", len(batch))
	return nil
}

// FetchRoster asks the server for its employee list. The server answers
// with one id;name line per employee and closes the connection.
func FetchRoster(ctx context.Context, dial DialFunc) ([]RemoteEmployee, error) {
	conn, err := dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("dial check server: %w", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(listRequest + "\n")); err != nil {
		return nil, fmt.Errorf("send roster request: %w", err)
	}

	var roster []RemoteEmployee
	scanner := newLineScanner(conn)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		emp, err := parseEmployeeLine(line)
		if err != nil {
			slog.Warn("malformed roster line skipped", "line", line, "error", err)
			continue
		}
		roster = append(roster, emp)
	}
	if err := scanner.Err(); err != nil {
		return roster, fmt.Errorf("read roster: %w", err)
	}
	return roster, nil
}

// newLineScanner wraps a connection in a line scanner. bufio.Scanner
// already treats EOF as a terminator for a final line with no trailing
// newline, which the protocol requires.
func newLineScanner(conn net.Conn) *bufio.Scanner {
	return bufio.NewScanner(bufio.NewReader(conn))
}
