package core

import (
	"errors"
	"strings"
	"time"
)

// dispatch executes one line from sender. The first line a worker ever sends
// names it; every later line is a command, a whisper or chat.
func (r *Router) dispatch(sender *WorkerRecord, line string) {
	if !sender.named {
		r.setName(sender, line)
		return
	}

	cmd := ParseCommand(line)
	switch cmd.Kind {
	case CommandAddRoom:
		r.addRoom(sender, cmd.Room)
	case CommandJoinRoom:
		r.joinRoom(sender, cmd.Room)
	case CommandRemoveRoom:
		r.removeRoom(sender, cmd.Room)
	case CommandListRooms:
		r.listRooms(sender)
	case CommandListUsers:
		r.listUsers(sender)
	case CommandWhisper:
		r.whisper(sender, cmd.Target, cmd.Text)
	case CommandUnknown:
		r.log.Debug().Str("worker_id", string(sender.ID)).Str("line", line).Msg("unknown command ignored")
	default:
		r.broadcast(sender, cmd.Text)
	}
}

func (r *Router) setName(sender *WorkerRecord, line string) {
	sender.Name = truncate(strings.TrimSpace(line), r.opts.MaxNameLen)
	sender.named = true

	r.log.Info().Str("worker_id", string(sender.ID)).Str("name", sender.Name).Msg("client named")
	r.sink.Record(Event{Kind: EventWorkerNamed, Worker: sender.ID, Name: sender.Name, At: time.Now()})
}

func (r *Router) addRoom(sender *WorkerRecord, room string) {
	room = truncate(room, r.opts.MaxNameLen)
	if err := r.rooms.Add(room, sender.ID); err != nil {
		ev := r.log.Info()
		if errors.Is(err, ErrRoomRegistryFull) {
			ev = r.log.Warn()
		}
		ev.Err(err).Str("worker_id", string(sender.ID)).Str("room", room).Msg("room not created")
		return
	}

	r.log.Info().Str("worker_id", string(sender.ID)).Str("room", room).Int("rooms", r.rooms.Len()).Msg("room created")
	r.sink.Record(Event{Kind: EventRoomCreated, Worker: sender.ID, Name: sender.Name, Room: room, At: time.Now()})
}

func (r *Router) joinRoom(sender *WorkerRecord, room string) {
	room = truncate(room, r.opts.MaxNameLen)
	if room == "" {
		return
	}
	if r.opts.StrictJoin && !r.rooms.Has(room) {
		r.log.Info().Err(ErrRoomNotFound).Str("worker_id", string(sender.ID)).Str("room", room).Msg("join refused")
		return
	}

	sender.Room = room
	r.log.Info().Str("worker_id", string(sender.ID)).Str("name", sender.Name).Str("room", room).Msg("client joined room")
	r.sink.Record(Event{Kind: EventRoomJoined, Worker: sender.ID, Name: sender.Name, Room: room, At: time.Now()})
}

func (r *Router) removeRoom(sender *WorkerRecord, room string) {
	room = truncate(room, r.opts.MaxNameLen)
	if room == "" {
		return
	}
	evicted := r.roster.ClearRoom(room)
	if err := r.rooms.Remove(room); err != nil {
		r.log.Info().Err(err).Str("worker_id", string(sender.ID)).Str("room", room).Int("evicted", evicted).Msg("room not removed")
		return
	}

	r.log.Info().Str("worker_id", string(sender.ID)).Str("room", room).Int("evicted", evicted).Msg("room removed")
	r.sink.Record(Event{Kind: EventRoomRemoved, Worker: sender.ID, Name: sender.Name, Room: room, At: time.Now()})
}

func (r *Router) listRooms(sender *WorkerRecord) {
	for _, name := range r.rooms.Names() {
		r.send(sender, name)
	}
}

func (r *Router) listUsers(sender *WorkerRecord) {
	for _, rec := range r.roster.InRoom(sender.Room) {
		r.send(sender, rec.Name)
	}
}

func (r *Router) whisper(sender *WorkerRecord, target, text string) {
	if target == "" {
		return
	}
	rec := r.roster.FindByName(target)
	if rec == nil {
		r.log.Debug().Str("worker_id", string(sender.ID)).Str("target", target).Msg("whisper target not found")
		return
	}
	r.send(rec, "from "+sender.Name+": "+text)
}

func (r *Router) broadcast(sender *WorkerRecord, text string) {
	if !sender.InRoom() {
		r.log.Debug().Str("worker_id", string(sender.ID)).Str("name", sender.Name).Msg("chat outside a room dropped")
		return
	}
	msg := sender.Name + ": " + text
	delivered := 0
	for _, rec := range r.roster.InRoom(sender.Room) {
		if rec.ID == sender.ID {
			continue
		}
		if r.send(rec, msg) {
			delivered++
		}
	}
	r.log.Debug().Str("room", sender.Room).Str("name", sender.Name).Int("delivered", delivered).Msg("broadcast")
}
