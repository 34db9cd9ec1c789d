package http

import (
	"github.com/vovakirdan/relaychat/internal/core"
	"github.com/vovakirdan/relaychat/internal/proto"
	"github.com/vovakirdan/relaychat/internal/store"
)

func statsToResponse(st core.Stats) proto.StatsResponse {
	members := make(map[string]int, len(st.Rooms))
	workers := make([]proto.WorkerView, 0, len(st.Workers))
	for _, w := range st.Workers {
		if w.Room != "" {
			members[w.Room]++
		}
		workers = append(workers, proto.WorkerView{
			ID:          string(w.ID),
			Name:        w.Name,
			Room:        w.Room,
			RemoteAddr:  w.RemoteAddr,
			ConnectedAt: w.ConnectedAt.Unix(),
			Active:      w.Active,
		})
	}

	rooms := make([]proto.RoomView, 0, len(st.Rooms))
	for _, r := range st.Rooms {
		rooms = append(rooms, proto.RoomView{
			Name:      r.Name,
			CreatedBy: string(r.CreatedBy),
			CreatedAt: r.CreatedAt.Unix(),
			Members:   members[r.Name],
		})
	}

	return proto.StatsResponse{
		MaxClients: st.MaxClients,
		MaxRooms:   st.MaxRooms,
		Clients:    len(workers),
		Workers:    workers,
		Rooms:      rooms,
	}
}

func eventsToResponse(events []*store.AuditEvent) proto.EventsResponse {
	out := make([]proto.EventView, 0, len(events))
	for _, ev := range events {
		out = append(out, proto.EventView{
			ID:       ev.ID,
			Kind:     ev.Kind,
			WorkerID: ev.WorkerID,
			Name:     ev.Name,
			Room:     ev.Room,
			Detail:   ev.Detail,
			TS:       ev.CreatedAt.Unix(),
		})
	}
	return proto.EventsResponse{Events: out}
}
