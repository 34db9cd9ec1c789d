package store

import (
	"context"
	"time"
)

// AuditEvent is a persisted roster or room lifecycle event. Chat text is
// never stored.
type AuditEvent struct {
	ID        int64
	Kind      string
	WorkerID  string
	Name      string
	Room      string
	Detail    string
	CreatedAt time.Time
}

// AuditStore handles audit event persistence.
type AuditStore interface {
	// SaveEvent persists an event and fills in its ID.
	SaveEvent(ctx context.Context, ev *AuditEvent) error

	// ListEvents returns the most recent events, newest first.
	// A non-empty kind filters by event kind.
	ListEvents(ctx context.Context, kind string, limit int) ([]*AuditEvent, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	AuditStore

	// Close closes the underlying database connection.
	Close() error
}
