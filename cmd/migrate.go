package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/viakashmir/admin-console/internal/database"
	"github.com/viakashmir/admin-console/pkg/logger"
)

var (
	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded preset schema migrations",
		Args:  cobra.NoArgs,
		RunE:  runMigration,
	}
	migrateRollback bool
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "roll back the latest migration instead of applying pending ones")
}

func runMigration(cmd *cobra.Command, _ []string) error {
	out, err := printer(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return err
	}
	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(cmd.Context(), db.DB, cfg.Database.Driver, migrateRollback, logger.LoggerWrapper()); err != nil {
		return err
	}
	verb := "migrated"
	if migrateRollback {
		verb = "rolled back"
	}
	out.Success(fmt.Sprintf("%s database %s", cfg.Database.Driver, verb))
	return nil
}
