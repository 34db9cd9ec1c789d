package http

import (
	"context"
	"net"
	stdhttp "net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"
)

// WSHandler upgrades HTTP connections and admits them to the router as
// ordinary line-oriented clients. Each text frame carries raw bytes of the
// line stream, so clients terminate lines with "\n" as over TCP.
type WSHandler struct {
	router Router
	log    *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(router Router, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{router: router, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}

	// The bridged conn stays usable only while this handler runs.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn := newTrackedConn(websocket.NetConn(ctx, ws, websocket.MessageText))
	if err := h.router.Admit(ctx, conn); err != nil {
		h.log.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("ws client not admitted")
		return
	}
	h.log.Debug().Str("remote_addr", r.RemoteAddr).Msg("ws client admitted")

	select {
	case <-conn.done:
	case <-ctx.Done():
		_ = conn.Close()
	}
}

// trackedConn reports when its worker has closed it.
type trackedConn struct {
	net.Conn
	once sync.Once
	done chan struct{}
}

func newTrackedConn(c net.Conn) *trackedConn {
	return &trackedConn{Conn: c, done: make(chan struct{})}
}

func (c *trackedConn) Close() error {
	err := c.Conn.Close()
	c.once.Do(func() { close(c.done) })
	return err
}
