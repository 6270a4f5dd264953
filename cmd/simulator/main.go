package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/pointage-hq/pointage-backend-go/internal/domain/attendance"
	"github.com/pointage-hq/pointage-backend-go/internal/transport/check"
)

// The simulator stands in for a badge terminal: it queues checks typed on
// stdin and pushes the whole queue to the server on demand. The queue is
// written to disk on exit so unsent checks survive a restart.

func main() {
	_ = godotenv.Load()

	addr := getEnv("SIMULATOR_SERVER_ADDR", "127.0.0.1:9700")
	queueFile := getEnv("SIMULATOR_QUEUE_FILE", "simulator-queue.json")

	sender := check.NewSender(addr)
	if err := loadQueue(queueFile, sender); err != nil {
		fmt.Println("Failed to load pending queue:", err)
	}

	ctx := context.Background()
	fmt.Printf("Badge simulator connected to %s\n", addr)
	fmt.Println("Commands: in <id> | out <id> | send | pending | refresh | quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "in", "out":
			if len(fields) != 2 {
				fmt.Printf("usage: %s <employee-id>\n", fields[0])
				continue
			}
			id, err := strconv.Atoi(fields[1])
			if err != nil {
				fmt.Println("employee id must be a number")
				continue
			}
			kind := attendance.CheckIn
			if fields[0] == "out" {
				kind = attendance.CheckOut
			}
			ev := attendance.NewCheckEvent(id, kind, time.Now())
			sender.Enqueue(ev)
			fmt.Println("queued:", check.FormatLine(ev))

		case "send":
			before := len(sender.Pending())
			if err := sender.Flush(ctx); err != nil {
				fmt.Println("send failed, queue retained:", err)
				continue
			}
			fmt.Printf("sent %d check(s)\n", before)

		case "pending":
			pending := sender.Pending()
			if len(pending) == 0 {
				fmt.Println("queue is empty")
				continue
			}
			for _, ev := range pending {
				fmt.Println(" ", check.FormatLine(ev))
			}

		case "refresh":
			roster, err := check.FetchRoster(ctx, dialFunc(addr))
			if err != nil {
				fmt.Println("roster refresh failed:", err)
				continue
			}
			for _, emp := range roster {
				fmt.Printf("  %d  %s\n", emp.ID, emp.Name)
			}
			fmt.Printf("%d employee(s)\n", len(roster))

		case "quit", "exit":
			if err := saveQueue(queueFile, sender); err != nil {
				fmt.Println("Failed to save pending queue:", err)
			}
			return

		default:
			fmt.Println("unknown command:", fields[0])
		}
	}

	if err := saveQueue(queueFile, sender); err != nil {
		fmt.Println("Failed to save pending queue:", err)
	}
}

func dialFunc(addr string) check.DialFunc {
	return func(ctx context.Context) (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, "tcp", addr)
	}
}

// The queue file stores the wire form of each pending check, so anything
// the file round-trips is exactly what the server would have received.
func loadQueue(path string, sender *check.Sender) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		return fmt.Errorf("decode queue file: %w", err)
	}

	var evs []attendance.CheckEvent
	for _, line := range lines {
		ev, err := check.ParseLine(line)
		if err != nil {
			fmt.Println("skipping unreadable queued check:", line)
			continue
		}
		evs = append(evs, ev)
	}
	sender.Restore(evs)
	if len(evs) > 0 {
		fmt.Printf("restored %d pending check(s)\n", len(evs))
	}
	return nil
}

func saveQueue(path string, sender *check.Sender) error {
	pending := sender.Pending()
	lines := make([]string, 0, len(pending))
	for _, ev := range pending {
		lines = append(lines, check.FormatLine(ev))
	}

	data, err := json.MarshalIndent(lines, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
