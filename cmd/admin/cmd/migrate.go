package cmd

import (
	"fmt"

	"github.com/sotfmods/api/internal/config"
	"github.com/sotfmods/api/internal/db"
	"github.com/spf13/cobra"
)

// MigrateDownCmd opens the database directly; app.New would migrate up first.
func MigrateDownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()

			conn, err := db.Init(cfg.DBDriver, cfg.DBConnection)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close(conn)

			err = db.MigrateDown(conn.DB, cfg.DBDriver)
			if err != nil {
				return err
			}

			version, err := db.Version(conn.DB, cfg.DBDriver)
			if err != nil {
				return err
			}
			fmt.Printf("Database is now at version %d\n", version)
			return nil
		},
	}
}
