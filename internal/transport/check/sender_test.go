package check_test

import (
	"bufio"
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pointage-hq/pointage-backend-go/internal/domain/attendance"
	"github.com/pointage-hq/pointage-backend-go/internal/transport/check"
)

func checkAt(id int, kind attendance.CheckType) attendance.CheckEvent {
	return attendance.NewCheckEvent(id, kind, time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC))
}

// pipeDialer hands the server end of each dialed pipe to lines, one line at
// a time, from a background goroutine.
func pipeDialer(lines chan<- string) check.DialFunc {
	return func(ctx context.Context) (net.Conn, error) {
		client, server := net.Pipe()
		go func() {
			scanner := bufio.NewScanner(server)
			for scanner.Scan() {
				lines <- scanner.Text()
			}
			server.Close()
		}()
		return client, nil
	}
}

func TestSender_FlushSendsAndDrains(t *testing.T) {
	lines := make(chan string, 16)
	sender := check.NewSenderWithDialer(pipeDialer(lines))

	sender.Enqueue(checkAt(1, attendance.CheckIn))
	sender.Enqueue(checkAt(2, attendance.CheckOut))
	require.Len(t, sender.Pending(), 2)

	require.NoError(t, sender.Flush(context.Background()))
	assert.Empty(t, sender.Pending())

	assert.Equal(t, "1;IN;02/03/2026 08:30:00", <-lines)
	assert.Equal(t, "2;OUT;02/03/2026 08:30:00", <-lines)
}

func TestSender_FlushEmptyQueueSkipsDial(t *testing.T) {
	sender := check.NewSenderWithDialer(func(ctx context.Context) (net.Conn, error) {
		t.Fatal("dial should not happen with an empty queue")
		return nil, nil
	})
	assert.NoError(t, sender.Flush(context.Background()))
}

func TestSender_FailedFlushRetainsBatch(t *testing.T) {
	dialErr := errors.New("connection refused")
	sender := check.NewSenderWithDialer(func(ctx context.Context) (net.Conn, error) {
		return nil, dialErr
	})

	sender.Enqueue(checkAt(1, attendance.CheckIn))
	sender.Enqueue(checkAt(2, attendance.CheckIn))

	err := sender.Flush(context.Background())
	assert.ErrorIs(t, err, dialErr)
	assert.Len(t, sender.Pending(), 2, "nothing is dropped on failure")

	// The retained batch goes out whole on the next trigger.
	lines := make(chan string, 16)
	recovered := check.NewSenderWithDialer(pipeDialer(lines))
	recovered.Restore(sender.Pending())
	require.NoError(t, recovered.Flush(context.Background()))
	assert.Empty(t, recovered.Pending())
	assert.Equal(t, "1;IN;02/03/2026 08:30:00", <-lines)
	assert.Equal(t, "2;IN;02/03/2026 08:30:00", <-lines)
}

func TestSender_ConcurrentFlushes(t *testing.T) {
	lines := make(chan string, 64)
	slowDial := func(ctx context.Context) (net.Conn, error) {
		// Keeps the first flush in flight while the others trigger.
		time.Sleep(20 * time.Millisecond)
		return pipeDialer(lines)(ctx)
	}
	sender := check.NewSenderWithDialer(slowDial)
	for i := 1; i <= 5; i++ {
		sender.Enqueue(checkAt(i, attendance.CheckIn))
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, sender.Flush(context.Background()))
		}()
	}
	wg.Wait()

	assert.Empty(t, sender.Pending())
	for i := 0; i < 5; i++ {
		select {
		case <-lines:
		case <-time.After(2 * time.Second):
			t.Fatalf("only %d of 5 queued events arrived", i)
		}
	}
	select {
	case line := <-lines:
		t.Fatalf("event sent more than once: %q", line)
	default:
	}
}

func TestSender_RestoreSeedsQueue(t *testing.T) {
	sender := check.NewSenderWithDialer(nil)
	sender.Restore([]attendance.CheckEvent{checkAt(1, attendance.CheckIn)})
	sender.Enqueue(checkAt(2, attendance.CheckOut))

	pending := sender.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, 1, pending[0].EmployeeID)
	assert.Equal(t, 2, pending[1].EmployeeID)
}

func TestSender_PendingReturnsCopy(t *testing.T) {
	sender := check.NewSenderWithDialer(nil)
	sender.Enqueue(checkAt(1, attendance.CheckIn))

	pending := sender.Pending()
	pending[0].EmployeeID = 999

	assert.Equal(t, 1, sender.Pending()[0].EmployeeID)
}

func TestSender_AgainstLiveServer(t *testing.T) {
	applier := newCaptureApplier()
	srv := startServer(t, applier, &staticRoster{})

	sender := check.NewSender(srv.Addr().String())
	sender.Enqueue(checkAt(5, attendance.CheckIn))
	require.NoError(t, sender.Flush(context.Background()))

	ev := applier.next(t)
	assert.Equal(t, 5, ev.EmployeeID)
	assert.Equal(t, attendance.CheckIn, ev.Type)
}
