package core

import "time"

// EventKind classifies lifecycle events the router reports to an EventSink.
type EventKind int

const (
	// EventWorkerConnected is emitted once a connection got a roster slot.
	EventWorkerConnected EventKind = iota
	// EventWorkerRejected is emitted when a connection is turned away.
	EventWorkerRejected
	// EventWorkerNamed is emitted when a worker's first line sets its name.
	EventWorkerNamed
	// EventWorkerExited is emitted when a record leaves the roster.
	EventWorkerExited
	// EventRoomCreated is emitted by a successful /add.
	EventRoomCreated
	// EventRoomRemoved is emitted by a successful /rm.
	EventRoomRemoved
	// EventRoomJoined is emitted by /join.
	EventRoomJoined
)

var eventKindNames = map[EventKind]string{
	EventWorkerConnected: "worker_connected",
	EventWorkerRejected:  "worker_rejected",
	EventWorkerNamed:     "worker_named",
	EventWorkerExited:    "worker_exited",
	EventRoomCreated:     "room_created",
	EventRoomRemoved:     "room_removed",
	EventRoomJoined:      "room_joined",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Event describes something that happened to the roster or room registry.
// Chat text is never carried.
type Event struct {
	Kind   EventKind
	Worker WorkerID
	Name   string
	Room   string
	Detail string
	At     time.Time
}

// EventSink receives lifecycle events. Record must not block the router.
type EventSink interface {
	Record(ev Event)
}

type discardSink struct{}

func (discardSink) Record(Event) {}
