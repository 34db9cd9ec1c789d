package core

import (
	"bufio"
	"context"
	"net"
	"sync"
	"testing"
	"time"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Record(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

func (s *recordingSink) kinds() []EventKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]EventKind, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev.Kind)
	}
	return out
}

// startRouter runs a router for the duration of the test. The returned stop
// function cancels it and waits for Run to return; it is safe to call twice.
func startRouter(t *testing.T, opts Options, sink EventSink) (*Router, func() error) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	r := NewRouter(opts, nil, sink)
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	var (
		once   sync.Once
		runErr error
	)
	stop := func() error {
		once.Do(func() {
			cancel()
			runErr = <-done
		})
		return runErr
	}
	t.Cleanup(func() { _ = stop() })
	return r, stop
}

// testClient is the far end of an in-memory connection admitted to a router.
type testClient struct {
	t     *testing.T
	conn  net.Conn
	lines chan string
}

func connect(t *testing.T, r *Router) *testClient {
	t.Helper()

	server, client := net.Pipe()
	c := &testClient{t: t, conn: client, lines: make(chan string, 64)}
	go func() {
		defer close(c.lines)
		scanner := bufio.NewScanner(client)
		for scanner.Scan() {
			c.lines <- scanner.Text()
		}
	}()
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.Admit(ctx, server); err != nil {
		t.Fatalf("admit: %v", err)
	}
	return c
}

func (c *testClient) send(line string) {
	c.t.Helper()
	_ = c.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	if _, err := c.conn.Write([]byte(line + "\n")); err != nil {
		c.t.Fatalf("send %q: %v", line, err)
	}
}

func (c *testClient) mustLine(want string) {
	c.t.Helper()
	select {
	case got, ok := <-c.lines:
		if !ok {
			c.t.Fatalf("connection closed while waiting for %q", want)
		}
		if got != want {
			c.t.Fatalf("got line %q, want %q", got, want)
		}
	case <-time.After(2 * time.Second):
		c.t.Fatalf("line %q not received", want)
	}
}

func (c *testClient) mustSilence(d time.Duration) {
	c.t.Helper()
	select {
	case got, ok := <-c.lines:
		if ok {
			c.t.Fatalf("unexpected line %q", got)
		}
	case <-time.After(d):
	}
}

func (c *testClient) mustClose() {
	c.t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-c.lines:
			if !ok {
				return
			}
		case <-deadline:
			c.t.Fatal("connection was not closed")
		}
	}
}

// mustStats polls the router until cond holds.
func mustStats(t *testing.T, r *Router, cond func(Stats) bool) Stats {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		st, err := r.Stats(ctx)
		cancel()
		if err != nil {
			t.Fatalf("stats: %v", err)
		}
		if cond(st) {
			return st
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("router state condition not reached")
	return Stats{}
}

func inRoom(name, room string) func(Stats) bool {
	return func(st Stats) bool {
		for _, w := range st.Workers {
			if w.Name == name && w.Room == room {
				return true
			}
		}
		return false
	}
}

func roomCount(n int) func(Stats) bool {
	return func(st Stats) bool { return len(st.Rooms) == n }
}

func workerCount(n int) func(Stats) bool {
	return func(st Stats) bool { return len(st.Workers) == n }
}

func named(name string) func(Stats) bool {
	return inRoom(name, "")
}
