package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/relaychat/internal/config"
	"github.com/vovakirdan/relaychat/internal/store"
)

// NewServer builds the admin HTTP server: health, stats, audit events and the
// WebSocket bridge. events may be nil.
func NewServer(router Router, events store.AuditStore, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	httpLog := logger.With().Str("component", "http").Logger()

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(LoggerMiddleware(&httpLog))

	admin := NewAdminHandlers(router, events, &httpLog)
	engine.GET("/health", admin.Health)

	api := engine.Group("/api")
	{
		api.GET("/stats", admin.Stats)
		api.GET("/events", admin.Events)
	}

	// /ws bypasses gin so the handshake can hijack the raw connection.
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(router, &httpLog))
	mux.Handle("/", engine)

	return &stdhttp.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
