package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"loan-origination-api/internal/config"
	"loan-origination-api/internal/infrastructure/db"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the loans table if it does not exist",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			if err := cfg.Validate(); err != nil {
				return err
			}
			gdb, err := db.OpenGorm(cfg.DBDriver, cfg.DBDSN, cfg.LogLevel == "debug")
			if err != nil {
				return err
			}
			defer func() { _ = db.Close(gdb) }()
			if err := db.Migrate(gdb); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %s database\n", cfg.DBDriver)
			return nil
		},
	}
}
