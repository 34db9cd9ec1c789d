package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
)

func main() {
	if err := run(); err != nil {
		log.Printf("chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "localhost:5100", "TCP address, or ws://host:port/ws for the WebSocket bridge")
	user := flag.String("user", "cli-user", "display name")
	room := flag.String("room", "", "room to create and join on connect")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, err := dial(ctx, *addr)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	send := func(line string) error {
		_, err := io.WriteString(conn, line+"\n")
		return err
	}

	if err := send(*user); err != nil {
		return fmt.Errorf("send name: %w", err)
	}
	if *room != "" {
		if err := send("/add " + *room); err != nil {
			return err
		}
		if err := send("/join " + *room); err != nil {
			return err
		}
	}

	fmt.Printf("Connected to %s as %s\n", *addr, *user)
	fmt.Println("Commands: /add, /join, /rm, /list, /users, !whisper <user> <text>. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(conn)
	}()

	writeLoop(ctx, send)
	return nil
}

func dial(ctx context.Context, addr string) (net.Conn, error) {
	if strings.HasPrefix(addr, "ws://") || strings.HasPrefix(addr, "wss://") {
		ws, _, err := websocket.Dial(ctx, addr, nil)
		if err != nil {
			return nil, err
		}
		return websocket.NetConn(context.WithoutCancel(ctx), ws, websocket.MessageText), nil
	}
	var d net.Dialer
	return d.DialContext(ctx, "tcp", addr)
}

func readLoop(conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		fmt.Println(scanner.Text())
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		log.Printf("read error: %v", err)
		return
	}
	fmt.Println("disconnected")
}

func writeLoop(ctx context.Context, send func(string) error) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			if err := send(line); err != nil {
				log.Printf("send error: %v", err)
				return
			}
		}
	}
}
