package core

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/relaychat/internal/pipe"
)

const maxLineSize = 64 * 1024

// Worker relays between one client connection and its two pipes to the router.
// It never touches router state.
type Worker struct {
	id         WorkerID
	conn       net.Conn
	fromRouter *pipe.Pipe[string]
	toRouter   *pipe.Pipe[Envelope]
	wake       *pipe.Wakeup
	routerWake *pipe.Wakeup
	onExit     func()
	limiter    *rateLimiter
	log        zerolog.Logger
}

// Run relays until the client disconnects, the router closes the downstream
// pipe, a socket write fails or ctx is cancelled. The connection and both pipe
// ends are closed and the router is notified before Run returns.
func (w *Worker) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer w.terminate()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go w.readLoop(ctx, lines, readErr)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.wake.C():
			if err := w.flushToClient(); err != nil {
				return err
			}
		case line := <-lines:
			if err := w.forward(line); err != nil {
				return err
			}
		case err := <-readErr:
			return err
		}
	}
}

// readLoop feeds complete client lines to Run. It reports nil on a clean EOF.
func (w *Worker) readLoop(ctx context.Context, lines chan<- string, readErr chan<- error) {
	scanner := bufio.NewScanner(w.conn)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		select {
		case lines <- line:
		case <-ctx.Done():
			return
		}
	}
	err := scanner.Err()
	if errors.Is(err, net.ErrClosed) {
		err = nil
	}
	readErr <- err
}

// flushToClient drains everything the router queued and writes it verbatim.
func (w *Worker) flushToClient() error {
	var writeErr error
	err := w.fromRouter.Drain(func(msg string) {
		if writeErr != nil {
			return
		}
		if _, err := io.WriteString(w.conn, msg); err != nil {
			writeErr = err
		}
	})
	if writeErr != nil {
		w.log.Debug().Err(writeErr).Msg("write to client failed")
		return writeErr
	}
	if errors.Is(err, io.EOF) {
		return ErrRouterClosed
	}
	return err
}

func (w *Worker) forward(line string) error {
	if !w.limiter.allow() {
		w.log.Warn().Msg("line rate limit exceeded, dropping line")
		return nil
	}
	err := w.toRouter.Write(Envelope{From: w.id, Line: line})
	switch {
	case err == nil:
	case errors.Is(err, pipe.ErrFull):
		w.log.Warn().Msg("router pipe full, dropping line")
	default:
		return err
	}
	w.routerWake.Notify()
	return nil
}

func (w *Worker) terminate() {
	if err := w.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		w.log.Debug().Err(err).Msg("close client connection")
	}
	w.toRouter.CloseWrite()
	w.fromRouter.CloseRead()
	w.routerWake.Notify()
	if w.onExit != nil {
		w.onExit()
	}
}
