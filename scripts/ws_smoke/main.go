package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

// run connects a sender and a listener, puts both in one room and checks the
// listener receives the sender's line.
func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	room := flag.String("room", "smoke", "room name")
	text := flag.String("text", "hello from smoke test", "message text to send")
	settle := flag.Duration("settle", 200*time.Millisecond, "pause before sending chat")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	sender, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial sender: %w", err)
	}
	defer sender.Close(websocket.StatusNormalClosure, "bye")

	listener, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial listener: %w", err)
	}
	defer listener.Close(websocket.StatusNormalClosure, "bye")

	send := func(conn *websocket.Conn, lines ...string) error {
		for _, line := range lines {
			if err := conn.Write(ctx, websocket.MessageText, []byte(line+"\n")); err != nil {
				return fmt.Errorf("send %q: %w", line, err)
			}
		}
		return nil
	}

	if err := send(sender, "smoke-sender", "/add "+*room, "/join "+*room); err != nil {
		return err
	}
	if err := send(listener, "smoke-listener", "/join "+*room); err != nil {
		return err
	}

	// Each client's lines are ordered, but the two clients race each other.
	time.Sleep(*settle)

	if err := send(sender, *text); err != nil {
		return err
	}

	want := "smoke-sender: " + *text
	for {
		_, data, err := listener.Read(ctx)
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		got := strings.TrimRight(string(data), "\n")
		fmt.Printf("Received: %q\n", got)
		if got == want {
			return nil
		}
	}
}
