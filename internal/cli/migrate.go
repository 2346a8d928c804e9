package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"weekplanner/internal/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [up|down]",
	Short: "Apply or roll back the database schema",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	direction := "up"
	if len(args) == 1 {
		direction = args[0]
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	repo, err := storage.OpenSQLite(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer repo.Close()

	switch direction {
	case "up":
		if err := storage.MigrateUp(repo.DB()); err != nil {
			return err
		}
	case "down":
		if err := storage.MigrateDown(repo.DB()); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown direction %q, expected up or down", direction)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "migrate %s: ok (%s)\n", direction, cfg.DatabasePath)
	return nil
}
