package core

import (
	"context"
	"time"
)

// WorkerInfo is a read-only copy of a roster entry.
type WorkerInfo struct {
	ID          WorkerID
	Name        string
	Room        string
	RemoteAddr  string
	ConnectedAt time.Time
	Active      bool
}

// Stats is a point-in-time copy of router state.
type Stats struct {
	MaxClients int
	MaxRooms   int
	Workers    []WorkerInfo
	Rooms      []RoomRecord
}

// Stats asks the router goroutine for a snapshot of its tables.
func (r *Router) Stats(ctx context.Context) (Stats, error) {
	reply := make(chan Stats, 1)
	select {
	case r.statsReq <- reply:
	case <-r.stopping:
		return Stats{}, ErrRouterStopped
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}

	select {
	case st := <-reply:
		return st, nil
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}
}

func (r *Router) snapshot() Stats {
	records := r.roster.Records()
	st := Stats{
		MaxClients: r.roster.Cap(),
		MaxRooms:   r.rooms.Cap(),
		Workers:    make([]WorkerInfo, 0, len(records)),
		Rooms:      r.rooms.Rooms(),
	}
	for _, rec := range records {
		st.Workers = append(st.Workers, WorkerInfo{
			ID:          rec.ID,
			Name:        rec.Name,
			Room:        rec.Room,
			RemoteAddr:  rec.RemoteAddr,
			ConnectedAt: rec.ConnectedAt,
			Active:      rec.Active,
		})
	}
	return st
}
