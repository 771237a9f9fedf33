package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/config"
	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the flow journal schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Info("running migrations...")
		if err := migrateUp(cfg); err != nil {
			return err
		}
		logger.Info("migrations completed successfully")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the last migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cfg, func(m *database.Migrator) error {
			logger.Info("rolling back last migration...")
			if err := m.Down(); err != nil {
				return fmt.Errorf("migration down failed: %w", err)
			}
			logger.Info("migration rolled back successfully")
			return nil
		})
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cfg, func(m *database.Migrator) error {
			version, dirty, err := m.Version()
			if err != nil {
				return fmt.Errorf("failed to get version: %w", err)
			}
			if dirty {
				fmt.Fprintf(cmd.OutOrStdout(), "%d (dirty)\n", version)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\n", version)
			return nil
		})
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
}

func migrateUp(cfg *config.Config) error {
	return withMigrator(cfg, func(m *database.Migrator) error {
		if err := m.Up(); err != nil {
			return fmt.Errorf("migration up failed: %w", err)
		}
		return nil
	})
}

// withMigrator opens a database/sql handle, as golang-migrate requires, and
// runs fn against it.
func withMigrator(cfg *config.Config, fn func(m *database.Migrator) error) error {
	if !cfg.JournalEnabled() {
		return errors.New("DATABASE_URL is not set")
	}

	db, err := database.NewPool(database.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	dbName, err := database.DatabaseName(cfg.DatabaseURL)
	if err != nil {
		return err
	}

	migrator, err := database.NewMigrator(db, dbName)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer func() { _ = migrator.Close() }()

	return fn(migrator)
}
