package check

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/pointage-hq/pointage-backend-go/internal/domain/attendance"
	"github.com/pointage-hq/pointage-backend-go/internal/domain/employee"
)

// Applier consumes parsed check events. Application must be synchronous
// and brief; the handler goroutine waits for it.
type Applier interface {
	Apply(ctx context.Context, ev attendance.CheckEvent) error
}

// Roster serves the employee list for terminal refreshes.
type Roster interface {
	ListEmployees(ctx context.Context) []*employee.Employee
}

// Server accepts badge terminal connections and feeds parsed events to the
// applier. There is no connection limit; each connection gets one handler
// goroutine. Malformed lines are logged and skipped without dropping the
// connection; there is never a response line for a check.
type Server struct {
	applier Applier
	roster  Roster

	mu     sync.Mutex
	ln     net.Listener
	conns  map[net.Conn]struct{}
	closed bool
	wg     sync.WaitGroup
}

func NewServer(applier Applier, roster Roster) *Server {
	return &Server{
		applier: applier,
		roster:  roster,
		conns:   make(map[net.Conn]struct{}),
	}
}

// Start begins listening on addr and returns once the accept loop is
// running.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("check transport listen: %w", err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		ln.Close()
		return errors.New("check transport already stopped")
	}
	s.ln = ln
	s.mu.Unlock()

	slog.Info("check transport listening", "addr", ln.Addr().String())

	s.wg.Add(1)
	go s.acceptLoop(ln)
	return nil
}

// Addr returns the bound listener address.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Stop closes the listener and force-closes in-flight connections, then
// waits for all handlers to return. Events already handed to the applier
// are retained; anything still unread on a closed connection is lost, which
// the at-least-once sender side covers by retrying.
func (s *Server) Stop() {
	s.mu.Lock()
	s.closed = true
	if s.ln != nil {
		s.ln.Close()
	}
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	slog.Info("check transport stopped")
}

func (s *Server) acceptLoop(ln net.Listener) {
	defer s.wg.Done()

	for {
		conn, err := ln.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return
			}
			slog.Warn("check transport accept failed", "error", err)
			continue
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	connID := uuid.NewString()
	logger := slog.With("conn_id", connID, "remote", conn.RemoteAddr().String())
	logger.Debug("check connection opened")

	ctx := context.Background()
	scanner := newLineScanner(conn)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == listRequest {
			s.serveRoster(ctx, conn, logger)
			return
		}

		ev, err := ParseLine(line)
		if err != nil {
			logger.Warn("malformed check line skipped", "line", line, "error", err)
			continue
		}
		if err := s.applier.Apply(ctx, ev); err != nil {
			logger.Error("check event not applied", "employee_id", ev.EmployeeID, "error", err)
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Debug("check connection read ended", "error", err)
	}
	logger.Debug("check connection closed")
}

func (s *Server) serveRoster(ctx context.Context, conn net.Conn, logger *slog.Logger) {
	var b strings.Builder
	for _, emp := range s.roster.ListEmployees(ctx) {
		b.WriteString(formatEmployeeLine(RemoteEmployee{ID: emp.ID, Name: emp.Name}))
		b.WriteByte('\n')
	}
	if _, err := conn.Write([]byte(b.String())); err != nil {
		logger.Warn("roster send failed", "error", err)
	}
}
