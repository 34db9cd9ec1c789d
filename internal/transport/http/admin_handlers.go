package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/relaychat/internal/core"
	"github.com/vovakirdan/relaychat/internal/proto"
	"github.com/vovakirdan/relaychat/internal/store"
)

const (
	defaultEventsLimit = 50
	maxEventsLimit     = 500
)

// Router is the part of core.Router the HTTP layer depends on.
type Router interface {
	Admit(ctx context.Context, conn net.Conn) error
	Stats(ctx context.Context) (core.Stats, error)
}

// AdminHandlers serves the read-only admin endpoints.
type AdminHandlers struct {
	router Router
	events store.AuditStore
	log    *zerolog.Logger
}

// NewAdminHandlers creates admin handlers. events may be nil when auditing
// is disabled.
func NewAdminHandlers(router Router, events store.AuditStore, logger *zerolog.Logger) *AdminHandlers {
	return &AdminHandlers{
		router: router,
		events: events,
		log:    logger,
	}
}

// Health reports liveness.
// GET /health
func (h *AdminHandlers) Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// Stats returns a snapshot of the roster and room registry.
// GET /api/stats
func (h *AdminHandlers) Stats(c *gin.Context) {
	st, err := h.router.Stats(c.Request.Context())
	if err != nil {
		if errors.Is(err, core.ErrRouterStopped) {
			c.JSON(http.StatusServiceUnavailable, proto.Error{Code: "unavailable", Msg: "router stopped"})
			return
		}
		h.log.Error().Err(err).Msg("failed to read router stats")
		c.JSON(http.StatusInternalServerError, proto.Error{Code: "internal", Msg: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, statsToResponse(st))
}

// Events lists recent audit events, newest first.
// GET /api/events?limit=N&kind=K
func (h *AdminHandlers) Events(c *gin.Context) {
	if h.events == nil {
		c.JSON(http.StatusNotFound, proto.Error{Code: "not_found", Msg: "audit log disabled"})
		return
	}

	limit := defaultEventsLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, proto.Error{Code: "bad_request", Msg: "limit must be a positive integer"})
			return
		}
		limit = min(n, maxEventsLimit)
	}

	events, err := h.events.ListEvents(c.Request.Context(), c.Query("kind"), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list audit events")
		c.JSON(http.StatusInternalServerError, proto.Error{Code: "internal", Msg: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, eventsToResponse(events))
}
