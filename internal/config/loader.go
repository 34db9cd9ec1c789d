package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix = "RELAYCHAT"
	// envConfigFile names the config file directly; envConfigDefaultPath names
	// a directory holding config.yaml.
	envConfigFile        = envPrefix + "_CONFIG"
	envConfigDefaultPath = envPrefix + "_CONFIG_DEFAULT_PATH"
	defaultConfigName    = "config.yaml"
)

// defaults lists every key viper knows about. Keys missing here are not
// picked up from the environment by Unmarshal.
func defaults(cfg Config) map[string]any {
	return map[string]any{
		"addr":                 cfg.Addr,
		"http_addr":            cfg.HTTPAddr,
		"log_level":            cfg.LogLevel,
		"read_header_timeout":  cfg.ReadHeaderTimeout,
		"shutdown_timeout":     cfg.ShutdownTimeout,
		"max_clients":          cfg.MaxClients,
		"max_rooms":            cfg.MaxRooms,
		"max_name_len":         cfg.MaxNameLen,
		"pipe_capacity":        cfg.PipeCapacity,
		"max_lines_per_minute": cfg.MaxLinesPerMinute,
		"strict_join":          cfg.StrictJoin,
		"audit_db_path":        cfg.AuditDBPath,
	}
}

// Load resolves configuration and returns it with the file path it used.
// Precedence: defaults < config file < RELAYCHAT_* env vars. Callers apply
// flag overrides with UpdateFrom and should Validate again afterwards.
// A missing file is created with the defaults.
func Load(logger *zerolog.Logger, explicitPath string) (Config, string, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	for key, value := range defaults(cfg) {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath := resolveConfigPath(explicitPath)
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return cfg, configPath, fmt.Errorf("read config %s: %w", configPath, err)
		}
		if writeErr := writeDefaultConfig(configPath, cfg); writeErr != nil {
			if logger != nil {
				logger.Warn().Err(writeErr).Str("path", configPath).Msg("failed to write default config")
			}
		} else if logger != nil {
			logger.Info().Str("path", configPath).Msg("created default config")
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, configPath, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, configPath, fmt.Errorf("invalid config %s: %w", configPath, err)
	}

	return cfg, configPath, nil
}

// Validate rejects limits the router cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if c.HTTPAddr != "" && c.HTTPAddr == c.Addr {
		errs = append(errs, fmt.Errorf("http_addr and addr are both %q", c.Addr))
	}
	positive := []struct {
		key   string
		value int
	}{
		{"max_clients", c.MaxClients},
		{"max_rooms", c.MaxRooms},
		{"max_name_len", c.MaxNameLen},
		{"pipe_capacity", c.PipeCapacity},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", p.key, p.value))
		}
	}
	if c.MaxLinesPerMinute < 0 {
		errs = append(errs, fmt.Errorf("max_lines_per_minute must not be negative, got %d", c.MaxLinesPerMinute))
	}
	if c.ShutdownTimeout < 0 || c.ReadHeaderTimeout < 0 {
		errs = append(errs, errors.New("timeouts must not be negative"))
	}
	return errors.Join(errs...)
}

func resolveConfigPath(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}
	if file := os.Getenv(envConfigFile); file != "" {
		return file
	}
	if base := os.Getenv(envConfigDefaultPath); base != "" {
		return filepath.Join(base, defaultConfigName)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return defaultConfigName
	}
	return filepath.Join(cwd, defaultConfigName)
}

func writeDefaultConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	header := []byte("# relaychat configuration; RELAYCHAT_<KEY> env vars override these values.\n")
	return os.WriteFile(path, append(header, data...), 0o600)
}
