package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/relaychat/internal/config"
	"github.com/vovakirdan/relaychat/internal/core"
	"github.com/vovakirdan/relaychat/internal/proto"
	"github.com/vovakirdan/relaychat/internal/store"
	"github.com/vovakirdan/relaychat/internal/store/sqlite"
)

func startTestServer(t *testing.T, events store.AuditStore) (*httptest.Server, *core.Router) {
	t.Helper()

	router := core.NewRouter(core.DefaultOptions(), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = router.Run(ctx)
		close(done)
	}()

	disabledLogger := zerolog.Nop()
	cfg := config.Default()
	cfg.HTTPAddr = ":0"

	server := NewServer(router, events, &cfg, &disabledLogger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(func() {
		cancel()
		<-done
		ts.Close()
	})

	return ts, router
}

func waitFor(t *testing.T, router *core.Router, cond func(core.Stats) bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		st, err := router.Stats(context.Background())
		if err != nil {
			t.Fatalf("stats: %v", err)
		}
		if cond(st) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not reached")
}

func inRoom(name, room string) func(core.Stats) bool {
	return func(st core.Stats) bool {
		for _, w := range st.Workers {
			if w.Name == name && w.Room == room {
				return true
			}
		}
		return false
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts, _ := startTestServer(t, nil)

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestWebSocketFirstLineNamesWorker(t *testing.T) {
	ts, router := startTestServer(t, nil)

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	conn, resp, err := websocket.Dial(ctx, strings.Replace(ts.URL, "http", "ws", 1)+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("unexpected handshake status: %d", resp.StatusCode)
	}

	if err := conn.Write(ctx, websocket.MessageText, []byte("carol\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitFor(t, router, func(st core.Stats) bool {
		return len(st.Workers) == 1 && st.Workers[0].Name == "carol"
	})
}

func TestWebSocketClientsChatThroughRouter(t *testing.T) {
	ts, router := startTestServer(t, nil)

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	connA, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial A: %v", err)
	}
	defer connA.Close(websocket.StatusNormalClosure, "done")

	connB, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial B: %v", err)
	}
	defer connB.Close(websocket.StatusNormalClosure, "done")

	send := func(conn *websocket.Conn, line string) {
		t.Helper()
		if err := conn.Write(ctx, websocket.MessageText, []byte(line+"\n")); err != nil {
			t.Fatalf("write %q: %v", line, err)
		}
	}

	send(connA, "alice")
	send(connA, "/add general")
	send(connA, "/join general")
	send(connB, "bob")
	send(connB, "/join general")
	waitFor(t, router, inRoom("alice", "general"))
	waitFor(t, router, inRoom("bob", "general"))

	send(connA, "hi there")

	typ, data, err := connB.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if typ != websocket.MessageText {
		t.Fatalf("unexpected frame type: %v", typ)
	}
	if got := string(data); got != "alice: hi there\n" {
		t.Fatalf("unexpected line: %q", got)
	}
}

func TestWebSocketDisconnectRemovesWorker(t *testing.T) {
	ts, router := startTestServer(t, nil)

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	conn, _, err := websocket.Dial(ctx, strings.Replace(ts.URL, "http", "ws", 1)+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, []byte("carol\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitFor(t, router, inRoom("carol", ""))

	conn.Close(websocket.StatusNormalClosure, "bye")
	waitFor(t, router, func(st core.Stats) bool { return len(st.Workers) == 0 })
}

func TestStatsEndpoint(t *testing.T) {
	ts, router := startTestServer(t, nil)

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	conn, _, err := websocket.Dial(ctx, strings.Replace(ts.URL, "http", "ws", 1)+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")
	for _, line := range []string{"dave", "/add lobby", "/join lobby"} {
		if err := conn.Write(ctx, websocket.MessageText, []byte(line+"\n")); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	waitFor(t, router, inRoom("dave", "lobby"))

	resp, err := ts.Client().Get(ts.URL + "/api/stats")
	if err != nil {
		t.Fatalf("stats request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}

	var body proto.StatsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.MaxClients != core.DefaultMaxClients || body.MaxRooms != core.DefaultMaxRooms {
		t.Fatalf("unexpected limits: %+v", body)
	}
	if body.Clients != 1 || body.Workers[0].Name != "dave" || body.Workers[0].Room != "lobby" {
		t.Fatalf("unexpected workers: %+v", body.Workers)
	}
	if len(body.Rooms) != 1 || body.Rooms[0].Name != "lobby" || body.Rooms[0].Members != 1 {
		t.Fatalf("unexpected rooms: %+v", body.Rooms)
	}
}

func TestEventsEndpoint(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		ts, _ := startTestServer(t, nil)

		resp, err := ts.Client().Get(ts.URL + "/api/events")
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", resp.StatusCode)
		}
	})

	t.Run("lists newest first", func(t *testing.T) {
		st, err := sqlite.New(":memory:")
		if err != nil {
			t.Fatalf("open store: %v", err)
		}
		defer st.Close()

		ctx := context.Background()
		for _, kind := range []string{"worker_connected", "worker_named", "room_created"} {
			if err := st.SaveEvent(ctx, &store.AuditEvent{Kind: kind, WorkerID: "w1", CreatedAt: time.Now()}); err != nil {
				t.Fatalf("save: %v", err)
			}
		}

		ts, _ := startTestServer(t, st)

		resp, err := ts.Client().Get(ts.URL + "/api/events?limit=2")
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("unexpected status: %d", resp.StatusCode)
		}

		var body proto.EventsResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(body.Events) != 2 {
			t.Fatalf("got %d events, want 2", len(body.Events))
		}
		if body.Events[0].Kind != "room_created" || body.Events[1].Kind != "worker_named" {
			t.Fatalf("unexpected order: %+v", body.Events)
		}
	})

	t.Run("bad limit", func(t *testing.T) {
		st, err := sqlite.New(":memory:")
		if err != nil {
			t.Fatalf("open store: %v", err)
		}
		defer st.Close()

		ts, _ := startTestServer(t, st)

		resp, err := ts.Client().Get(ts.URL + "/api/events?limit=zero")
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", resp.StatusCode)
		}
	})
}
