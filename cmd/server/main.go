package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/webcrafter/webcrafter-server/internal/app"
	"github.com/webcrafter/webcrafter-server/internal/config"
	"github.com/webcrafter/webcrafter-server/internal/log"
)

func main() {
	var (
		configPath string
		overrides  config.Config
	)

	rootCmd := &cobra.Command{
		Use:   "webcrafter-server",
		Short: "WebCrafter backend: projects, friends, chat, and live presence",
		RunE: func(cmd *cobra.Command, args []string) error {
			bootLogger := log.New("info")
			cfg, path, err := config.Load(bootLogger, configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg.UpdateFrom(overrides)

			logger := log.New(cfg.LogLevel)
			logger.Info().Str("config", path).Str("addr", cfg.Addr).Msg("starting webcrafter server")

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(&cfg, logger)
			if err != nil {
				return fmt.Errorf("init app: %w", err)
			}

			if err := application.Run(ctx); err != nil {
				return fmt.Errorf("server exited: %w", err)
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	rootCmd.Flags().StringVar(&overrides.Addr, "addr", "", "HTTP listen address")
	rootCmd.Flags().StringVar(&overrides.DatabasePath, "db", "", "SQLite database path")
	rootCmd.Flags().StringVar(&overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&overrides.BrokerURL, "broker-url", "", "RabbitMQ URL for the event mirror")
	rootCmd.Flags().StringVar(&overrides.RedisURL, "redis-url", "", "Redis URL for shared presence")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
