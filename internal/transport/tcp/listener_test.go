package tcp

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/vovakirdan/relaychat/internal/core"
)

type chatClient struct {
	t     *testing.T
	conn  net.Conn
	lines chan string
}

func dial(t *testing.T, addr string) *chatClient {
	t.Helper()

	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	c := &chatClient{t: t, conn: conn, lines: make(chan string, 32)}
	go func() {
		defer close(c.lines)
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			c.lines <- scanner.Text()
		}
	}()
	t.Cleanup(func() { _ = conn.Close() })
	return c
}

func (c *chatClient) send(lines ...string) {
	c.t.Helper()
	for _, line := range lines {
		if _, err := c.conn.Write([]byte(line + "\r\n")); err != nil {
			c.t.Fatalf("send %q: %v", line, err)
		}
	}
}

func (c *chatClient) expect(want string) {
	c.t.Helper()
	select {
	case got, ok := <-c.lines:
		if !ok {
			c.t.Fatalf("connection closed, wanted %q", want)
		}
		if got != want {
			c.t.Fatalf("got %q, want %q", got, want)
		}
	case <-time.After(2 * time.Second):
		c.t.Fatalf("timed out waiting for %q", want)
	}
}

func (c *chatClient) expectNothing() {
	c.t.Helper()
	select {
	case got, ok := <-c.lines:
		if ok {
			c.t.Fatalf("unexpected line %q", got)
		}
	case <-time.After(200 * time.Millisecond):
	}
}

func startServer(t *testing.T) (string, *core.Router) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	router := core.NewRouter(core.DefaultOptions(), nil, nil)
	routerDone := make(chan struct{})
	go func() {
		_ = router.Run(ctx)
		close(routerDone)
	}()

	ln, err := Listen("127.0.0.1:0", router, nil)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	serveDone := make(chan error, 1)
	go func() { serveDone <- ln.Serve(ctx) }()

	t.Cleanup(func() {
		cancel()
		<-routerDone
		_ = ln.Close()
		if err := <-serveDone; err != nil {
			t.Errorf("serve: %v", err)
		}
	})
	return ln.Addr().String(), router
}

// waitRoom blocks until name sits in room, which orders lines sent by
// different clients.
func waitRoom(t *testing.T, r *core.Router, name, room string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		st, err := r.Stats(context.Background())
		if err != nil {
			t.Fatalf("stats: %v", err)
		}
		for _, w := range st.Workers {
			if w.Name == name && w.Room == room {
				return
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("%s never reached room %q", name, room)
}

func TestEndToEndLobbyChat(t *testing.T) {
	addr, router := startServer(t)

	alice := dial(t, addr)
	bob := dial(t, addr)

	alice.send("Alice", "/add lobby", "/join lobby")
	bob.send("Bob", "/join lobby")
	waitRoom(t, router, "Alice", "lobby")
	waitRoom(t, router, "Bob", "lobby")

	alice.send("hi")
	bob.expect("Alice: hi")
	alice.expectNothing()
}

func TestEndToEndChatBeforeJoin(t *testing.T) {
	addr, router := startServer(t)

	alice := dial(t, addr)
	bob := dial(t, addr)
	bob.send("Bob", "/join lobby")
	waitRoom(t, router, "Bob", "lobby")

	alice.send("Alice", "hello?")
	bob.expectNothing()
}

func TestEndToEndRemoveRoomStopsDelivery(t *testing.T) {
	addr, router := startServer(t)

	alice := dial(t, addr)
	bob := dial(t, addr)
	alice.send("Alice", "/add lobby", "/join lobby")
	bob.send("Bob", "/join lobby")
	waitRoom(t, router, "Alice", "lobby")
	waitRoom(t, router, "Bob", "lobby")

	alice.send("/rm lobby")
	waitRoom(t, router, "Alice", "")
	waitRoom(t, router, "Bob", "")

	alice.send("anyone?")
	bob.expectNothing()

	bob.send("/list")
	bob.expectNothing()
}

func TestEndToEndWhisperAndList(t *testing.T) {
	addr, router := startServer(t)

	alice := dial(t, addr)
	bob := dial(t, addr)
	alice.send("Alice", "/add lobby", "/add attic")
	bob.send("Bob")
	waitRoom(t, router, "Bob", "")

	alice.send("!whisper Bob psst")
	bob.expect("from Alice: psst")

	bob.send("/list")
	bob.expect("lobby")
	bob.expect("attic")
}
