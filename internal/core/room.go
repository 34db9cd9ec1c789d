package core

import "time"

// RoomRecord is a registered room.
type RoomRecord struct {
	Name      string
	CreatedBy WorkerID
	CreatedAt time.Time
}

// RoomRegistry is a fixed-capacity list of uniquely named rooms.
type RoomRegistry struct {
	capacity int
	rooms    []RoomRecord
}

// NewRoomRegistry creates an empty registry holding at most capacity rooms.
func NewRoomRegistry(capacity int) *RoomRegistry {
	return &RoomRegistry{
		capacity: capacity,
		rooms:    make([]RoomRecord, 0, capacity),
	}
}

func (r *RoomRegistry) Len() int { return len(r.rooms) }
func (r *RoomRegistry) Cap() int { return r.capacity }

// Add registers a room. The registry is unchanged on any error.
func (r *RoomRegistry) Add(name string, by WorkerID) error {
	if name == "" {
		return ErrEmptyRoomName
	}
	if r.Has(name) {
		return ErrRoomExists
	}
	if len(r.rooms) >= r.capacity {
		return ErrRoomRegistryFull
	}
	r.rooms = append(r.rooms, RoomRecord{Name: name, CreatedBy: by, CreatedAt: time.Now()})
	return nil
}

// Has reports whether a room with exactly this name is registered.
func (r *RoomRegistry) Has(name string) bool {
	return r.index(name) >= 0
}

// Remove unregisters a room, shifting later rooms down.
func (r *RoomRegistry) Remove(name string) error {
	i := r.index(name)
	if i < 0 {
		return ErrRoomNotFound
	}
	copy(r.rooms[i:], r.rooms[i+1:])
	r.rooms = r.rooms[:len(r.rooms)-1]
	return nil
}

// Names returns room names in registration order.
func (r *RoomRegistry) Names() []string {
	names := make([]string, 0, len(r.rooms))
	for _, room := range r.rooms {
		names = append(names, room.Name)
	}
	return names
}

// Rooms returns a copy of every record.
func (r *RoomRegistry) Rooms() []RoomRecord {
	out := make([]RoomRecord, len(r.rooms))
	copy(out, r.rooms)
	return out
}

func (r *RoomRegistry) index(name string) int {
	for i, room := range r.rooms {
		if room.Name == name {
			return i
		}
	}
	return -1
}
