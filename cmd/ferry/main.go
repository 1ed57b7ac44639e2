// Command ferry resolves crawled course listings into courses, professors
// and same-course groups, and serves the operations API.
package main

import (
	"fmt"
	"os"

	"github.com/coursetable/ferry/internal/bootstrap"
	"github.com/coursetable/ferry/internal/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	ConfigPath = "configs/config.yaml"

	cfg *config.Config
	lgr zerolog.Logger
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "ferry",
		Short:         "Course entity resolution",
		Long:          "Resolves crawled listings and evaluations into courses, professors and same-course groups",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			var err error
			cfg, lgr, err = bootstrap.LoadConfigAndSetupLogger(ConfigPath)
			return err
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ConfigPath, "config", "c", ConfigPath, "Path to the YAML configuration file")

	rootCmd.AddCommand(
		newRunCmd(),
		newServeCmd(),
		newMigrateCmd(),
		newTokenCmd(),
	)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ferry: %s\n", err)
		os.Exit(1)
	}
}
