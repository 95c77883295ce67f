package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/bsaid97/go-boundary-compare/config"
	"github.com/bsaid97/go-boundary-compare/history"
	"github.com/bsaid97/go-boundary-compare/logger"
	"github.com/bsaid97/go-boundary-compare/report"
)

func main() {
	_ = godotenv.Load(".env")
	log := logger.Setup()

	if err := rootCmd().Execute(); err != nil {
		log.Error("run failed", "err", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "boundary-compare",
		Short:         "Reconcile authoritative and community administrative boundaries",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "boundary-compare.yaml", "path to the pipeline configuration file")

	var schedule string
	run := &cobra.Command{
		Use:   "run",
		Short: "Run the comparison pipeline and append a snapshot to history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if schedule == "" {
				return runPipeline(cmd.Context(), cfg)
			}
			// Scheduled mode: repeat the run, one snapshot per day at most.
			c := cron.New()
			if _, err := c.AddFunc(schedule, func() {
				if err := runPipeline(cmd.Context(), cfg); err != nil {
					logger.L().Error("scheduled run failed", "err", err)
				}
			}); err != nil {
				return fmt.Errorf("invalid schedule %q: %w", schedule, err)
			}
			logger.L().Info("running on schedule", "cron", schedule)
			c.Run()
			return nil
		},
	}
	run.Flags().StringVar(&schedule, "schedule", "", "cron expression to run the pipeline repeatedly")

	trends := &cobra.Command{
		Use:   "trends",
		Short: "Re-aggregate the persisted snapshot history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			store := history.NewFileStore(cfg.HistoryDir)
			snaps, err := store.Load()
			if err != nil {
				return err
			}
			if len(snaps) == 0 {
				return fmt.Errorf("no snapshots in %s", cfg.HistoryDir)
			}
			current := snaps[len(snaps)-1]
			tr := history.Aggregate(current, snaps[:len(snaps)-1])
			fmt.Print(report.TrendText(tr))
			return nil
		},
	}

	root.AddCommand(run, trends)
	return root
}
