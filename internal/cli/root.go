// Package cli wires the planner commands.
package cli

import (
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"weekplanner/internal/config"
	"weekplanner/internal/service"
	"weekplanner/internal/storage"
)

var (
	configPath string
	dbPath     string
	owner      string
	rootCmd    *cobra.Command
)

func init() {
	rootCmd = &cobra.Command{
		Use:   "weekplanner",
		Short: "weekplanner - recurring weekly to-do planner",
		Long: `weekplanner keeps a seven day task board with a holding bank,
repeating tasks, and per-day completion tracking.

Running it with no subcommand prints the current week.`,
		RunE:          runWeek,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&owner, "owner", "", "Owner id (overrides config)")
}

var registerOnce sync.Once

// Execute runs the root command.
func Execute(version string) error {
	registerOnce.Do(func() {
		rootCmd.AddCommand(serveCmd)
		rootCmd.AddCommand(migrateCmd)
		rootCmd.AddCommand(addCmd)
		rootCmd.AddCommand(weekCmd)
		rootCmd.AddCommand(toggleCmd)
		rootCmd.AddCommand(pruneCmd)
	})

	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	if dbPath != "" {
		cfg.DatabasePath = dbPath
	}
	if owner != "" {
		cfg.Owner = owner
	}
	return cfg, nil
}

// openPlanner opens the store, runs migrations, and builds the planner.
// The returned close func releases the database handle.
func openPlanner() (*service.Planner, func() error, config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, cfg, err
	}

	repo, err := storage.OpenSQLite(cfg.DatabasePath)
	if err != nil {
		return nil, nil, cfg, fmt.Errorf("open database: %w", err)
	}
	if err := storage.MigrateUp(repo.DB()); err != nil {
		repo.Close()
		return nil, nil, cfg, fmt.Errorf("migrate: %w", err)
	}

	return service.NewPlanner(repo, cfg.Owner), repo.Close, cfg, nil
}
