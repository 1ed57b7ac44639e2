package main

import (
	"github.com/coursetable/ferry/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the operations API",
		Long:  "Serves run triggering, run history, run events and metrics over HTTP until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			srv, err := server.NewServer(cmd.Context(), cfg, lgr)
			if err != nil {
				return err
			}
			return srv.Run(cmd.Context())
		},
	}
}
