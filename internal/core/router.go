package core

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/relaychat/internal/pipe"
)

// Router owns the roster and the room registry. Only the goroutine running
// Run reads or mutates them; everything else talks to it through channels.
type Router struct {
	opts Options
	log  zerolog.Logger
	sink EventSink

	roster *Roster
	rooms  *RoomRegistry

	admit    chan net.Conn
	wake     *pipe.Wakeup
	exited   chan WorkerID
	statsReq chan chan Stats
	stopping chan struct{}
	stopOnce sync.Once
	workers  sync.WaitGroup
}

// NewRouter creates a router. A nil sink discards lifecycle events.
func NewRouter(opts Options, logger *zerolog.Logger, sink EventSink) *Router {
	opts = opts.withDefaults()
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if sink == nil {
		sink = discardSink{}
	}
	return &Router{
		opts:     opts,
		log:      logger.With().Str("component", "router").Logger(),
		sink:     sink,
		roster:   NewRoster(opts.MaxClients),
		rooms:    NewRoomRegistry(opts.MaxRooms),
		admit:    make(chan net.Conn),
		wake:     pipe.NewWakeup(),
		exited:   make(chan WorkerID, opts.MaxClients),
		statsReq: make(chan chan Stats),
		stopping: make(chan struct{}),
	}
}

// Admit hands a freshly accepted connection to the router. The connection is
// closed if the router is stopping or ctx ends first.
func (r *Router) Admit(ctx context.Context, conn net.Conn) error {
	select {
	case r.admit <- conn:
		return nil
	case <-r.stopping:
		_ = conn.Close()
		return ErrRouterStopped
	case <-ctx.Done():
		_ = conn.Close()
		return ctx.Err()
	}
}

// Run processes admissions, worker input, worker exits and snapshot queries
// until ctx is cancelled, then shuts every worker down and waits for them.
func (r *Router) Run(ctx context.Context) error {
	r.log.Info().
		Int("max_clients", r.opts.MaxClients).
		Int("max_rooms", r.opts.MaxRooms).
		Msg("router started")

	for {
		select {
		case <-ctx.Done():
			r.shutdown()
			return nil
		case conn := <-r.admit:
			r.admitConn(ctx, conn)
		case <-r.wake.C():
			r.drainAll()
		case id := <-r.exited:
			r.reap(id)
		case reply := <-r.statsReq:
			reply <- r.snapshot()
		}
	}
}

func (r *Router) admitConn(ctx context.Context, conn net.Conn) {
	remote := remoteAddr(conn)

	if r.roster.Full() {
		r.log.Warn().Str("remote_addr", remote).Err(ErrRosterFull).Msg("rejecting connection")
		_ = conn.Close()
		r.sink.Record(Event{Kind: EventWorkerRejected, Detail: remote, At: time.Now()})
		return
	}

	id, err := NewWorkerID()
	if err != nil {
		r.log.Error().Err(err).Str("remote_addr", remote).Msg("allocate worker id")
		_ = conn.Close()
		r.sink.Record(Event{Kind: EventWorkerRejected, Detail: remote, At: time.Now()})
		return
	}

	workerCtx, cancel := context.WithCancel(ctx)
	rec := &WorkerRecord{
		ID:          id,
		RemoteAddr:  remote,
		ConnectedAt: time.Now(),
		Active:      true,
		link:        pipe.NewPair[string, Envelope](r.opts.PipeCapacity),
		wake:        pipe.NewWakeup(),
		cancel:      cancel,
	}
	if err := r.roster.Add(rec); err != nil {
		cancel()
		_ = conn.Close()
		r.log.Warn().Err(err).Str("remote_addr", remote).Msg("rejecting connection")
		return
	}

	w := &Worker{
		id:         id,
		conn:       conn,
		fromRouter: rec.link.Down,
		toRouter:   rec.link.Up,
		wake:       rec.wake,
		routerWake: r.wake,
		onExit:     func() { r.notifyExit(id) },
		limiter:    newRateLimiter(r.opts.MaxLinesPerMinute),
		log:        r.log.With().Str("component", "worker").Str("worker_id", string(id)).Logger(),
	}

	r.workers.Add(1)
	go func() {
		defer r.workers.Done()
		if err := w.Run(workerCtx); err != nil && !errors.Is(err, ErrRouterClosed) {
			w.log.Debug().Err(err).Msg("worker stopped")
		}
	}()

	r.log.Info().
		Str("worker_id", string(id)).
		Str("remote_addr", remote).
		Int("clients", r.roster.Len()).
		Msg("client connected")
	r.sink.Record(Event{Kind: EventWorkerConnected, Worker: id, Detail: remote, At: time.Now()})
}

// notifyExit runs on the worker goroutine.
func (r *Router) notifyExit(id WorkerID) {
	select {
	case r.exited <- id:
	case <-r.stopping:
	}
}

// drainAll reads every active worker's pipe until it is empty, in roster order.
func (r *Router) drainAll() {
	for _, rec := range r.roster.Records() {
		if !rec.Active || r.roster.Find(rec.ID) == nil {
			continue
		}
		r.drainWorker(rec)
	}
}

func (r *Router) drainWorker(rec *WorkerRecord) {
	err := rec.link.Up.Drain(func(env Envelope) {
		r.handleEnvelope(rec, env)
	})
	if errors.Is(err, io.EOF) {
		r.remove(rec.ID, "channel closed")
	}
}

func (r *Router) handleEnvelope(rec *WorkerRecord, env Envelope) {
	if env.From == "" || env.From != rec.ID {
		r.log.Warn().
			Err(ErrMalformedEnvelope).
			Str("worker_id", string(rec.ID)).
			Str("envelope", env.String()).
			Msg("dropping message")
		return
	}
	r.dispatch(rec, env.Line)
}

// reap handles a worker exit notification.
func (r *Router) reap(id WorkerID) {
	rec := r.roster.Find(id)
	if rec == nil {
		return
	}
	_ = rec.link.Up.Drain(func(env Envelope) {
		if rec.Active {
			r.handleEnvelope(rec, env)
		}
	})
	r.remove(id, "worker exited")
}

func (r *Router) remove(id WorkerID, reason string) {
	rec, ok := r.roster.Remove(id)
	if !ok {
		return
	}
	rec.Active = false
	rec.link.Close()
	rec.wake.Notify()
	rec.cancel()

	r.log.Info().
		Str("worker_id", string(id)).
		Str("name", rec.Name).
		Str("reason", reason).
		Int("clients", r.roster.Len()).
		Msg("client removed")
	r.sink.Record(Event{Kind: EventWorkerExited, Worker: id, Name: rec.Name, Room: rec.Room, Detail: reason, At: time.Now()})
}

// send queues text plus a newline for one worker and wakes it.
func (r *Router) send(rec *WorkerRecord, text string) bool {
	if !rec.Active {
		return false
	}
	err := rec.link.Down.Write(text + "\n")
	switch {
	case err == nil:
		rec.wake.Notify()
		return true
	case errors.Is(err, pipe.ErrFull):
		rec.wake.Notify()
		r.log.Warn().Str("worker_id", string(rec.ID)).Msg("worker pipe full, dropping message")
	default:
		rec.Active = false
		r.log.Warn().Err(err).Str("worker_id", string(rec.ID)).Msg("write to worker failed")
	}
	return false
}

func (r *Router) shutdown() {
	r.stopOnce.Do(func() { close(r.stopping) })

	records := r.roster.Records()
	r.log.Info().Int("clients", len(records)).Msg("stopping workers")
	for _, rec := range records {
		rec.link.Down.CloseWrite()
		rec.wake.Notify()
		rec.cancel()
	}
	r.workers.Wait()

	for _, rec := range records {
		rec.link.Up.CloseRead()
		r.roster.Remove(rec.ID)
	}
	r.log.Info().Msg("router stopped")
}

func remoteAddr(conn net.Conn) string {
	if addr := conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
