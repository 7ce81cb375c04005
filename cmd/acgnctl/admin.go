package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/acgn-assistant/acgn-assistant/pkg/admin"
	"github.com/acgn-assistant/acgn-assistant/pkg/audit"
	gormstore "github.com/acgn-assistant/acgn-assistant/pkg/server/store/gorm"
)

// adminCmd represents the admin command
var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage the administrator account",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'admin' requires a subcommand (bootstrap)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

var adminBootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Ensure the configured administrator exists",
	Long: `Ensure the account named by ADMIN_EMAIL exists, is an admin and is active.

A missing account is created with ADMIN_PASSWORD and ADMIN_USERNAME. An
existing account keeps its password. Nothing happens unless both
ADMIN_EMAIL and ADMIN_PASSWORD are set.

The server runs the same check every time it starts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, _, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		database, err := openDatabase(cfg, logger)
		if err != nil {
			return err
		}

		auditor := audit.New(audit.NewLogger(), audit.NewStore(database), logger.Named("audit"))
		outcome, err := admin.EnsureAdmin(gormstore.NewUsersStore(database), cfg, auditor)
		if err != nil {
			return err
		}
		logger.Info("bootstrap admin", zap.String("email", cfg.AdminEmail), zap.String("outcome", string(outcome)))
		fmt.Println(outcome)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminBootstrapCmd)
}
