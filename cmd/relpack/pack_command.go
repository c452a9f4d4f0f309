package main

import (
	"github.com/spf13/cobra"

	"relpack/internal/config"
	"relpack/internal/pipeline"
	"relpack/internal/steps"
)

func newPackCommand(global *globalOptions) *cobra.Command {
	var lenient bool
	var overwrite bool
	var historyPath string

	cmd := &cobra.Command{
		Use:   "pack <release.toml>",
		Short: "Run the release workflow for one release document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(global.defaultsPath, args[0])
			if err != nil {
				return err
			}
			if overwrite {
				cfg.OverwriteExisting = true
			}
			if global.debug {
				cfg.Debug = true
			}

			logger, err := newLogger(cfg.Debug)
			if err != nil {
				return err
			}

			runner, err := pipeline.NewRunner(pipeline.Options{
				Config:  cfg,
				Steps:   steps.Defaults(logger),
				Logger:  logger,
				Lenient: lenient,
			})
			if err != nil {
				return err
			}

			summary, runErr := runner.Run(cmd.Context())
			recordRun(cmd.Context(), logger, historyPath, cfg, summary, runErr)
			renderSummary(cmd.OutOrStdout(), cfg, summary)
			return runErr
		},
	}

	cmd.Flags().BoolVar(&lenient, "lenient", false, "Log configuration violations instead of aborting")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing files in the release directory")
	cmd.Flags().StringVar(&historyPath, "history", defaultHistoryPath, "Run history database location")
	return cmd
}
