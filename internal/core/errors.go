package core

import "errors"

var (
	ErrRosterFull        = errors.New("roster full")
	ErrRoomRegistryFull  = errors.New("room registry full")
	ErrRoomExists        = errors.New("room already exists")
	ErrRoomNotFound      = errors.New("room not found")
	ErrEmptyRoomName     = errors.New("empty room name")
	ErrUnknownWorker     = errors.New("unknown worker")
	ErrMalformedEnvelope = errors.New("malformed envelope")
	ErrRouterStopped     = errors.New("router stopped")
	ErrRouterClosed      = errors.New("router closed the channel")
)
