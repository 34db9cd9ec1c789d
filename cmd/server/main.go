package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/relaychat/internal/app"
	"github.com/vovakirdan/relaychat/internal/config"
	applog "github.com/vovakirdan/relaychat/internal/log"
)

var (
	configFile string
	overrides  config.Config
)

// rootCmd starts the relay.
var rootCmd = &cobra.Command{
	Use:   "relaychat",
	Short: "Line-oriented multi-room chat relay",
	Long: `relaychat accepts TCP clients (and WebSocket clients on the admin port),
takes the first line from each as its display name, and relays chat between
members of the same room.

Commands: /add <room>, /join <room>, /rm <room>, /list, /users,
!whisper <user> <text>.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		bootLog := applog.New(overrides.LogLevel)

		cfg, path, err := config.Load(bootLog, configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg.UpdateFrom(overrides)
		if cmd.Flags().Changed("http-addr") {
			// allow --http-addr "" to disable the admin server
			cfg.HTTPAddr = overrides.HTTPAddr
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid flags: %w", err)
		}

		logger := applog.New(cfg.LogLevel)
		logger.Info().Str("config", path).Msg("configuration loaded")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		application, err := app.New(&cfg, logger)
		if err != nil {
			return err
		}

		logger.Info().
			Str("addr", application.Addr().String()).
			Str("http_addr", cfg.HTTPAddr).
			Msg("starting relaychat")
		if err := application.Run(ctx); err != nil {
			return fmt.Errorf("server exited with error: %w", err)
		}
		logger.Info().Msg("server stopped")
		return nil
	},
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&configFile, "config", "", "Configuration file (YAML)")
	flags.StringVar(&overrides.Addr, "addr", "", "TCP chat listen address")
	flags.StringVar(&overrides.HTTPAddr, "http-addr", "", "Admin HTTP listen address, empty disables")
	flags.StringVar(&overrides.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.IntVar(&overrides.MaxClients, "max-clients", 0, "Maximum concurrent clients")
	flags.IntVar(&overrides.MaxRooms, "max-rooms", 0, "Maximum registered rooms")
	flags.StringVar(&overrides.AuditDBPath, "audit-db", "", "SQLite audit log path, empty disables")
}
