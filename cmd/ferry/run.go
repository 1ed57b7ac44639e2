package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coursetable/ferry/internal/app/repositories"
	"github.com/coursetable/ferry/internal/app/services"
	"github.com/coursetable/ferry/internal/app/sources"
	"github.com/coursetable/ferry/internal/bootstrap"
	"github.com/coursetable/ferry/internal/config"
	"github.com/spf13/cobra"
)

var (
	Persist bool
	Seasons []string
)

func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once",
		Long:  "Rebuilds every entity from the crawler output and prints the run report. With --persist the result replaces the stored snapshot.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runOnce(ctx)
		},
	}

	runCmd.Flags().BoolVarP(&Persist, "persist", "p", false, "Replace the stored snapshot and record the run")
	runCmd.Flags().StringSliceVarP(&Seasons, "seasons", "s", nil, "Only resolve these seasons (default: configured or all found)")

	return runCmd
}

func runOnce(ctx context.Context) error {
	opts := services.RunServiceOptions{
		Loader:   sources.NewLoader(bootstrap.SourcesConfig(cfg)),
		Pipeline: services.NewPipeline(bootstrap.PipelineOptions(cfg)),
		Timeout:  config.Duration(cfg.Pipeline.RunTimeout, 30*time.Minute),
	}

	if Persist {
		database, err := bootstrap.SetupDatabase(ctx, cfg, lgr)
		if err != nil {
			return err
		}
		defer database.Close()
		if err := bootstrap.RunMigrations(ctx, cfg, database, lgr); err != nil {
			return err
		}
		repos := repositories.NewRepositories(database.Pool)
		opts.Snapshots = repos.SnapshotRepository
		opts.Runs = repos.RunRepository
	}

	run, result, err := services.NewRunService(opts).Execute(ctx, services.RunRequest{
		Trigger: services.TriggerCLI,
		Persist: Persist,
		Seasons: Seasons,
	})
	if run != nil {
		report := run.Report
		if result != nil {
			report = result.Report
		}
		printRun(os.Stdout, run, report)
	}
	if err != nil {
		return fmt.Errorf("pipeline run failed: %w", err)
	}
	return nil
}
