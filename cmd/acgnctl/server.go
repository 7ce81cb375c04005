package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/acgn-assistant/acgn-assistant/pkg/admin"
	"github.com/acgn-assistant/acgn-assistant/pkg/config"
	"github.com/acgn-assistant/acgn-assistant/pkg/db"
	"github.com/acgn-assistant/acgn-assistant/pkg/logging"
	"github.com/acgn-assistant/acgn-assistant/pkg/metrics"
	"github.com/acgn-assistant/acgn-assistant/pkg/server"
	"github.com/acgn-assistant/acgn-assistant/pkg/server/endpoints"
)

const shutdownTimeout = 15 * time.Second

func defaultBindAddress() string {
	if addr := os.Getenv("BIND_ADDRESS"); addr != "" {
		return addr
	}
	return "0.0.0.0"
}

func defaultPort() string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return "8000"
}

func defaultPortInt() int {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			return p
		}
	}
	return 8000
}

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the ACGN assistant API server",
	Long: `Run the ACGN assistant API server.

Postgres migrations run on startup unless --no-migrate is given; SQLite
databases get their tables from the models. The bootstrap administrator
(ADMIN_EMAIL / ADMIN_PASSWORD) is ensured before the server starts listening.

With --watch-config, edits to acgn.yml change the log level without a restart.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		host, _ := cmd.Flags().GetString("bind-address")
		port, _ := cmd.Flags().GetString("port")
		noMigrate, _ := cmd.Flags().GetBool("no-migrate")
		watch, _ := cmd.Flags().GetBool("watch-config")
		return runServer(host, port, noMigrate, watch)
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringP("port", "p", defaultPort(), "server listen port")
	serverCmd.Flags().StringP("bind-address", "b", defaultBindAddress(), "server bind address")
	serverCmd.Flags().Bool("no-migrate", false, "skip running database migrations on start")
	serverCmd.Flags().Bool("watch-config", false, "reload acgn.yml when it changes")
}

func runServer(host, port string, noMigrate, watch bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, level, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if !noMigrate && db.IsPostgres(cfg.DatabaseURL) {
		logger.Info("running database migrations")
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	database, err := openDatabase(cfg, logger)
	if err != nil {
		return err
	}

	s, err := server.NewServer(cfg, database, logger, metrics.New(), host, port)
	if err != nil {
		return err
	}
	endpoints.RegisterAll(s)

	outcome, err := admin.EnsureAdmin(s.UsersStore, cfg, s.Auditor)
	if err != nil {
		return err
	}
	logger.Info("bootstrap admin", zap.String("outcome", string(outcome)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if watch {
		go watchConfig(ctx, cfg, level, logger)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// watchConfig applies log level changes from acgn.yml. Everything else the
// server captured at startup stays as it was.
func watchConfig(ctx context.Context, cfg *config.Config, level zap.AtomicLevel, logger *zap.Logger) {
	logger.Info("watching configuration", zap.String("path", cfg.ConfigFilePath()))
	err := config.Watch(ctx, cfg.ConfigFilePath(), func(next *config.Config, err error) {
		if err != nil {
			logger.Warn("configuration reload failed", zap.Error(err))
			return
		}
		lvl, err := logging.ParseLevel(next.LogLevel)
		if err != nil {
			logger.Warn("ignoring log level", zap.Error(err))
			return
		}
		level.SetLevel(lvl)
		logger.Info("configuration reloaded", zap.String("log_level", lvl.String()))
	})
	if err != nil {
		logger.Error("configuration watch stopped", zap.Error(err))
	}
}
