// Package audit persists router lifecycle events without ever blocking the
// router goroutine.
package audit

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/relaychat/internal/core"
	"github.com/vovakirdan/relaychat/internal/store"
)

const (
	defaultBuffer = 256
	flushTimeout  = 2 * time.Second
)

// Recorder queues core events and writes them to an AuditStore from its own
// goroutine. When the queue is full events are dropped and counted.
type Recorder struct {
	store   store.AuditStore
	queue   chan core.Event
	dropped atomic.Int64
	log     zerolog.Logger
}

// NewRecorder creates a recorder with a queue of the given size.
func NewRecorder(st store.AuditStore, buffer int, logger *zerolog.Logger) *Recorder {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Recorder{
		store: st,
		queue: make(chan core.Event, buffer),
		log:   logger.With().Str("component", "audit").Logger(),
	}
}

// Record implements core.EventSink.
func (r *Recorder) Record(ev core.Event) {
	select {
	case r.queue <- ev:
	default:
		r.dropped.Add(1)
	}
}

// Dropped reports how many events were discarded because the queue was full.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Run writes queued events until ctx is cancelled, then flushes what is left.
func (r *Recorder) Run(ctx context.Context) error {
	for {
		select {
		case ev := <-r.queue:
			r.save(context.WithoutCancel(ctx), ev)
		case <-ctx.Done():
			r.flush()
			return nil
		}
	}
}

func (r *Recorder) flush() {
	for {
		select {
		case ev := <-r.queue:
			r.save(context.Background(), ev)
		default:
			if n := r.Dropped(); n > 0 {
				r.log.Warn().Int64("dropped", n).Msg("audit events dropped")
			}
			return
		}
	}
}

// save writes under its own deadline, independent of Run's ctx.
func (r *Recorder) save(ctx context.Context, ev core.Event) {
	ctx, cancel := context.WithTimeout(ctx, flushTimeout)
	defer cancel()

	rec := ToAuditEvent(ev)
	if err := r.store.SaveEvent(ctx, rec); err != nil {
		r.log.Warn().Err(err).Str("kind", rec.Kind).Msg("failed to save audit event")
	}
}

// ToAuditEvent maps a core event onto its stored form.
func ToAuditEvent(ev core.Event) *store.AuditEvent {
	return &store.AuditEvent{
		Kind:      ev.Kind.String(),
		WorkerID:  string(ev.Worker),
		Name:      ev.Name,
		Room:      ev.Room,
		Detail:    ev.Detail,
		CreatedAt: ev.At,
	}
}
