package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/relaychat/internal/audit"
	"github.com/vovakirdan/relaychat/internal/config"
	"github.com/vovakirdan/relaychat/internal/core"
	"github.com/vovakirdan/relaychat/internal/store"
	"github.com/vovakirdan/relaychat/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/relaychat/internal/transport/http"
	"github.com/vovakirdan/relaychat/internal/transport/tcp"
)

// chatListener is the accept loop feeding the router.
type chatListener interface {
	Serve(ctx context.Context) error
	Close() error
	Addr() net.Addr
}

// App wires together the router, its listeners and the optional audit log.
type App struct {
	router          *core.Router
	routerDone      chan struct{}
	listener        chatListener
	server          *stdhttp.Server
	httpListener    net.Listener
	shutdownTimeout time.Duration
	store           store.Store
	recorder        *audit.Recorder
	log             *zerolog.Logger
}

// New constructs the application with provided configuration. Listening
// sockets are bound here so that address errors surface before Run.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	a := &App{
		routerDone:      make(chan struct{}),
		shutdownTimeout: cfg.ShutdownTimeout,
		log:             logger,
	}

	var (
		sink   core.EventSink
		events store.AuditStore
	)
	if cfg.AuditDBPath != "" {
		st, err := sqlite.New(cfg.AuditDBPath)
		if err != nil {
			return nil, fmt.Errorf("init audit store: %w", err)
		}
		logger.Info().Str("db_path", cfg.AuditDBPath).Msg("audit store initialized")

		a.store = st
		a.recorder = audit.NewRecorder(st, 0, logger)
		sink = a.recorder
		events = st
	}

	a.router = core.NewRouter(cfg.RouterOptions(), logger, sink)

	ln, err := tcp.Listen(cfg.Addr, a.router, logger)
	if err != nil {
		a.cleanup()
		return nil, fmt.Errorf("listen tcp %s: %w", cfg.Addr, err)
	}
	a.listener = ln

	if cfg.HTTPAddr != "" {
		hl, err := net.Listen("tcp", cfg.HTTPAddr)
		if err != nil {
			_ = a.listener.Close()
			a.cleanup()
			return nil, fmt.Errorf("listen http %s: %w", cfg.HTTPAddr, err)
		}
		a.httpListener = hl
		a.server = transporthttp.NewServer(a.router, events, cfg, logger)
	}

	return a, nil
}

// Addr returns the bound chat address.
func (a *App) Addr() net.Addr {
	return a.listener.Addr()
}

// HTTPAddr returns the bound admin address, or nil when the admin server is
// disabled.
func (a *App) HTTPAddr() net.Addr {
	if a.httpListener == nil {
		return nil
	}
	return a.httpListener.Addr()
}

// Router exposes the router for in-process inspection.
func (a *App) Router() *core.Router {
	return a.router
}

// Run serves until ctx is cancelled or a component fails. The chat listener
// is closed and the audit log flushed only after the router and all of its
// workers have stopped.
func (a *App) Run(ctx context.Context) error {
	recorderDone := make(chan struct{})
	recorderCtx, stopRecorder := context.WithCancel(context.WithoutCancel(ctx))
	defer stopRecorder()
	if a.recorder != nil {
		go func() {
			defer close(recorderDone)
			_ = a.recorder.Run(recorderCtx)
		}()
	} else {
		close(recorderDone)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		runErr := a.router.Run(gctx)
		close(a.routerDone)
		// Connections accepted meanwhile are refused by Admit.
		if err := a.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) && runErr == nil {
			runErr = err
		}
		return runErr
	})
	g.Go(func() error {
		return a.listener.Serve(gctx)
	})

	if a.server != nil {
		g.Go(func() error {
			a.log.Info().Str("addr", a.httpListener.Addr().String()).Msg("http listening")
			if err := a.server.Serve(a.httpListener); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
			defer cancel()

			a.log.Info().Msg("shutting down http server")
			return a.server.Shutdown(shutdownCtx)
		})
	}

	err := g.Wait()

	stopRecorder()
	<-recorderDone
	a.cleanup()

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
