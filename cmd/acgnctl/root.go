package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/acgn-assistant/acgn-assistant/pkg/config"
	"github.com/acgn-assistant/acgn-assistant/pkg/db"
	"github.com/acgn-assistant/acgn-assistant/pkg/logging"
)

var rootCmd = &cobra.Command{
	Use:   "acgnctl",
	Short: "Run and administer the ACGN assistant",
	Long:  `Run the ACGN assistant API server and manage its database and administrator account.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadDotEnv(".env")
	},
	SilenceUsage: true,
}

// loadDotEnv reads KEY=VALUE pairs from path into the environment. Variables
// that are already set win, and a missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// loadConfig loads acgn.yml plus environment overrides and makes the result
// the global configuration
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	config.Set(cfg)
	return cfg, nil
}

// openDatabase connects to cfg.DatabaseURL. SQLite databases get their
// tables from the model definitions since SQL migrations only target Postgres.
func openDatabase(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	database, err := db.Connect(db.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return nil, err
	}
	if db.IsSQLite(cfg.DatabaseURL) {
		logger.Info("creating sqlite schema", zap.String("database", db.SQLiteDSN(cfg.DatabaseURL)))
		if err := db.AutoMigrate(database); err != nil {
			return nil, err
		}
	}
	return database, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, zap.AtomicLevel, error) {
	return logging.New(cfg.LogLevel, cfg.Env)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}
