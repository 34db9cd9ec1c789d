// Package pipe provides the unidirectional, non-blocking channels and one-bit
// wakeups that the router and its workers use to talk to each other.
package pipe

import (
	"errors"
	"io"
	"sync"
)

var (
	// ErrWouldBlock is returned by TryRead when no message is buffered yet.
	ErrWouldBlock = errors.New("pipe: no data available")
	// ErrFull is returned by Write when the buffer has no free slot.
	ErrFull = errors.New("pipe: buffer full")
	// ErrClosed is returned by Write once either side of the pipe was closed.
	ErrClosed = errors.New("pipe: closed")
)

// DefaultCapacity is used when NewPipe is given a non-positive capacity.
const DefaultCapacity = 64

// Pipe is a unidirectional buffered link with a write side and a read side.
// Neither Write nor TryRead ever suspends the caller.
type Pipe[T any] struct {
	mu          sync.Mutex
	buf         chan T
	writeClosed bool
	readClosed  bool
}

// NewPipe creates a pipe that buffers up to capacity messages.
func NewPipe[T any](capacity int) *Pipe[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Pipe[T]{buf: make(chan T, capacity)}
}

// Pair bundles the two independent pipes linking a coordinator with one peer.
// Down carries coordinator-to-peer traffic, Up carries peer-to-coordinator.
type Pair[D, U any] struct {
	Down *Pipe[D]
	Up   *Pipe[U]
}

// NewPair creates both directions with the same capacity.
func NewPair[D, U any](capacity int) Pair[D, U] {
	return Pair[D, U]{
		Down: NewPipe[D](capacity),
		Up:   NewPipe[U](capacity),
	}
}

// Close shuts the coordinator's ends: no more downstream writes and no more
// interest in upstream data.
func (p Pair[D, U]) Close() {
	p.Down.CloseWrite()
	p.Up.CloseRead()
}

// Write enqueues msg. It fails with ErrClosed when the reader is gone or the
// write side was already closed, and with ErrFull when the buffer is full.
func (p *Pipe[T]) Write(msg T) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.writeClosed || p.readClosed {
		return ErrClosed
	}
	select {
	case p.buf <- msg:
		return nil
	default:
		return ErrFull
	}
}

// TryRead returns the next buffered message. It reports ErrWouldBlock when the
// pipe is empty but still open, and io.EOF once the write side has been closed
// and every buffered message has been consumed.
func (p *Pipe[T]) TryRead() (T, error) {
	var zero T
	select {
	case msg, ok := <-p.buf:
		if !ok {
			return zero, io.EOF
		}
		return msg, nil
	default:
		return zero, ErrWouldBlock
	}
}

// CloseWrite closes the write side. The reader observes io.EOF after draining.
func (p *Pipe[T]) CloseWrite() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.writeClosed {
		return
	}
	p.writeClosed = true
	close(p.buf)
}

// CloseRead marks the reader as gone; further writes fail with ErrClosed.
func (p *Pipe[T]) CloseRead() {
	p.mu.Lock()
	p.readClosed = true
	p.mu.Unlock()
}

// Len reports how many messages are currently buffered.
func (p *Pipe[T]) Len() int {
	return len(p.buf)
}

// Drain reads until the pipe reports ErrWouldBlock or io.EOF, calling fn for
// every message. It returns io.EOF when the write side turned out to be closed.
func (p *Pipe[T]) Drain(fn func(T)) error {
	for {
		msg, err := p.TryRead()
		switch {
		case err == nil:
			fn(msg)
		case errors.Is(err, ErrWouldBlock):
			return nil
		default:
			return err
		}
	}
}
