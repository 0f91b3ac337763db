package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mizan/internal/config"
	"mizan/internal/storage"
)

func migrateCmd() *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply SQLite schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			if cfg.DataBackend != "sqlite" {
				return errors.New("migrations only apply to the sqlite backend")
			}
			dsn := storage.DSN(cfg.SQLiteDBPath)
			if !status {
				if err := storage.RunMigrations(dsn); err != nil {
					return err
				}
			}
			version, dirty, err := storage.SchemaVersion(dsn)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty=%t) at %s\n", version, dirty, cfg.SQLiteDBPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&status, "status", false, "only print the current version")
	return cmd
}
