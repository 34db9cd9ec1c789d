package core

import (
	"context"
	"time"

	"github.com/vovakirdan/relaychat/internal/pipe"
)

// WorkerRecord is the router's view of one live connection.
type WorkerRecord struct {
	ID          WorkerID
	Name        string
	Room        string
	RemoteAddr  string
	ConnectedAt time.Time
	Active      bool

	named  bool
	link   pipe.Pair[string, Envelope]
	wake   *pipe.Wakeup
	cancel context.CancelFunc
}

// Named reports whether the worker's first line has been consumed.
func (w *WorkerRecord) Named() bool {
	return w.named
}

// InRoom reports whether the worker currently has a room.
func (w *WorkerRecord) InRoom() bool {
	return w.Room != ""
}

// Roster is a fixed-capacity table of workers. Removing an entry shifts later
// entries down, so indexes are never stable across a removal; look records up
// by ID instead.
type Roster struct {
	capacity int
	records  []*WorkerRecord
}

// NewRoster creates an empty roster holding at most capacity records.
func NewRoster(capacity int) *Roster {
	return &Roster{
		capacity: capacity,
		records:  make([]*WorkerRecord, 0, capacity),
	}
}

func (r *Roster) Len() int   { return len(r.records) }
func (r *Roster) Cap() int   { return r.capacity }
func (r *Roster) Full() bool { return len(r.records) >= r.capacity }

// Add appends a record. A full roster is left untouched.
func (r *Roster) Add(rec *WorkerRecord) error {
	if r.Full() {
		return ErrRosterFull
	}
	r.records = append(r.records, rec)
	return nil
}

// Find returns the record with the given id, or nil.
func (r *Roster) Find(id WorkerID) *WorkerRecord {
	for _, rec := range r.records {
		if rec.ID == id {
			return rec
		}
	}
	return nil
}

// Remove deletes the record with the given id and compacts the table.
func (r *Roster) Remove(id WorkerID) (*WorkerRecord, bool) {
	for i, rec := range r.records {
		if rec.ID != id {
			continue
		}
		copy(r.records[i:], r.records[i+1:])
		r.records[len(r.records)-1] = nil
		r.records = r.records[:len(r.records)-1]
		return rec, true
	}
	return nil, false
}

// Records returns a copy of the table in roster order.
func (r *Roster) Records() []*WorkerRecord {
	out := make([]*WorkerRecord, len(r.records))
	copy(out, r.records)
	return out
}

// FindByName returns the first active named worker whose name matches exactly.
func (r *Roster) FindByName(name string) *WorkerRecord {
	for _, rec := range r.records {
		if rec.Active && rec.named && rec.Name == name {
			return rec
		}
	}
	return nil
}

// InRoom returns active workers whose current room equals room, in roster order.
func (r *Roster) InRoom(room string) []*WorkerRecord {
	if room == "" {
		return nil
	}
	var out []*WorkerRecord
	for _, rec := range r.records {
		if rec.Active && rec.Room == room {
			out = append(out, rec)
		}
	}
	return out
}

// ClearRoom unsets room on every record pointing at it and returns how many
// records were touched.
func (r *Roster) ClearRoom(room string) int {
	n := 0
	for _, rec := range r.records {
		if rec.Room == room {
			rec.Room = ""
			n++
		}
	}
	return n
}
