package proto

// Admin API payloads. Timestamps are unix seconds.

// WorkerView is one roster entry.
type WorkerView struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Room        string `json:"room,omitempty"`
	RemoteAddr  string `json:"remote_addr,omitempty"`
	ConnectedAt int64  `json:"connected_at"`
	Active      bool   `json:"active"`
}

// RoomView is one registered room.
type RoomView struct {
	Name      string `json:"name"`
	CreatedBy string `json:"created_by,omitempty"`
	CreatedAt int64  `json:"created_at"`
	Members   int    `json:"members"`
}

// StatsResponse is the body of GET /api/stats.
type StatsResponse struct {
	MaxClients int          `json:"max_clients"`
	MaxRooms   int          `json:"max_rooms"`
	Clients    int          `json:"clients"`
	Workers    []WorkerView `json:"workers"`
	Rooms      []RoomView   `json:"rooms"`
}

// EventView is one audit log entry.
type EventView struct {
	ID       int64  `json:"id"`
	Kind     string `json:"kind"`
	WorkerID string `json:"worker_id,omitempty"`
	Name     string `json:"name,omitempty"`
	Room     string `json:"room,omitempty"`
	Detail   string `json:"detail,omitempty"`
	TS       int64  `json:"ts"`
}

// EventsResponse is the body of GET /api/events.
type EventsResponse struct {
	Events []EventView `json:"events"`
}

// Error describes an API error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
