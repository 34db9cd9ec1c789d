package config

import (
	"time"

	"github.com/vovakirdan/relaychat/internal/core"
)

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	HTTPAddr          string        `mapstructure:"http_addr" yaml:"http_addr"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	MaxClients        int           `mapstructure:"max_clients" yaml:"max_clients"`
	MaxRooms          int           `mapstructure:"max_rooms" yaml:"max_rooms"`
	MaxNameLen        int           `mapstructure:"max_name_len" yaml:"max_name_len"`
	PipeCapacity      int           `mapstructure:"pipe_capacity" yaml:"pipe_capacity"`
	MaxLinesPerMinute int           `mapstructure:"max_lines_per_minute" yaml:"max_lines_per_minute"`
	StrictJoin        bool          `mapstructure:"strict_join" yaml:"strict_join"`
	AuditDBPath       string        `mapstructure:"audit_db_path" yaml:"audit_db_path"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":5100",
		HTTPAddr:          ":8080",
		LogLevel:          "info",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		MaxClients:        core.DefaultMaxClients,
		MaxRooms:          core.DefaultMaxRooms,
		MaxNameLen:        core.DefaultMaxNameLen,
		PipeCapacity:      core.DefaultPipeCapacity,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.HTTPAddr != "" {
		c.HTTPAddr = other.HTTPAddr
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.MaxClients != 0 {
		c.MaxClients = other.MaxClients
	}
	if other.MaxRooms != 0 {
		c.MaxRooms = other.MaxRooms
	}
	if other.MaxNameLen != 0 {
		c.MaxNameLen = other.MaxNameLen
	}
	if other.PipeCapacity != 0 {
		c.PipeCapacity = other.PipeCapacity
	}
	if other.MaxLinesPerMinute != 0 {
		c.MaxLinesPerMinute = other.MaxLinesPerMinute
	}
	if other.StrictJoin {
		c.StrictJoin = true
	}
	if other.AuditDBPath != "" {
		c.AuditDBPath = other.AuditDBPath
	}
}

// RouterOptions converts the relevant fields into router limits.
func (c Config) RouterOptions() core.Options {
	return core.Options{
		MaxClients:        c.MaxClients,
		MaxRooms:          c.MaxRooms,
		MaxNameLen:        c.MaxNameLen,
		PipeCapacity:      c.PipeCapacity,
		MaxLinesPerMinute: c.MaxLinesPerMinute,
		StrictJoin:        c.StrictJoin,
	}
}
