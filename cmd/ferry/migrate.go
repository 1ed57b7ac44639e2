package main

import (
	"github.com/coursetable/ferry/internal/bootstrap"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			database, err := bootstrap.SetupDatabase(cmd.Context(), cfg, lgr)
			if err != nil {
				return err
			}
			defer database.Close()
			return bootstrap.RunMigrations(cmd.Context(), cfg, database, lgr)
		},
	}
}
