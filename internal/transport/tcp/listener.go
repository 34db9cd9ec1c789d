// Package tcp accepts plain TCP chat clients and hands each connection to the
// router.
package tcp

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/rs/zerolog"
)

// Admitter takes ownership of accepted connections.
type Admitter interface {
	Admit(ctx context.Context, conn net.Conn) error
}

// Listener runs the accept loop for one TCP endpoint.
type Listener struct {
	ln    net.Listener
	admit Admitter
	log   zerolog.Logger
}

// Listen binds addr. Use Addr to learn the port when addr ends in ":0".
func Listen(addr string, admit Admitter, logger *zerolog.Logger) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Listener{
		ln:    ln,
		admit: admit,
		log:   logger.With().Str("component", "tcp").Logger(),
	}, nil
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Serve accepts connections until the listener is closed. Temporary accept
// errors are retried after a short pause.
func (l *Listener) Serve(ctx context.Context) error {
	l.log.Info().Str("addr", l.ln.Addr().String()).Msg("tcp listening")
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				time.Sleep(10 * time.Millisecond)
				continue
			}
			l.log.Error().Err(err).Msg("accept error")
			return err
		}

		if tc, ok := conn.(*net.TCPConn); ok {
			_ = tc.SetNoDelay(true)
		}
		l.log.Debug().Str("remote_addr", conn.RemoteAddr().String()).Msg("connection accepted")

		if err := l.admit.Admit(ctx, conn); err != nil {
			l.log.Warn().Err(err).Str("remote_addr", conn.RemoteAddr().String()).Msg("connection not admitted")
		}
	}
}

// Close stops accepting connections.
func (l *Listener) Close() error {
	return l.ln.Close()
}
