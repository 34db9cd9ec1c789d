package core

// Defaults mirror the limits the relay has always shipped with.
const (
	DefaultMaxClients   = 32
	DefaultMaxRooms     = 4
	DefaultMaxNameLen   = 32
	DefaultPipeCapacity = 64
)

// Options bounds the router's tables and tunes worker behaviour.
type Options struct {
	MaxClients        int
	MaxRooms          int
	MaxNameLen        int
	PipeCapacity      int
	MaxLinesPerMinute int
	StrictJoin        bool
}

// DefaultOptions returns the stock limits.
func DefaultOptions() Options {
	return Options{
		MaxClients:   DefaultMaxClients,
		MaxRooms:     DefaultMaxRooms,
		MaxNameLen:   DefaultMaxNameLen,
		PipeCapacity: DefaultPipeCapacity,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxClients <= 0 {
		o.MaxClients = DefaultMaxClients
	}
	if o.MaxRooms <= 0 {
		o.MaxRooms = DefaultMaxRooms
	}
	if o.MaxNameLen <= 0 {
		o.MaxNameLen = DefaultMaxNameLen
	}
	if o.PipeCapacity <= 0 {
		o.PipeCapacity = DefaultPipeCapacity
	}
	return o
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
