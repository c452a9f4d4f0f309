package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"relpack/internal/config"
	"relpack/internal/pipeline"
	"relpack/internal/services"
	"relpack/internal/steps"
)

const batchLockName = ".relpack.batch.lock"

func newBatchCommand(global *globalOptions) *cobra.Command {
	var lenient bool
	var overwrite bool
	var historyPath string

	cmd := &cobra.Command{
		Use:   "batch <directory>",
		Short: "Run the release workflow for every release document in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			documents, err := filepath.Glob(filepath.Join(dir, "*.toml"))
			if err != nil {
				return fmt.Errorf("scan batch directory: %w", err)
			}
			sort.Strings(documents)
			if len(documents) == 0 {
				return fmt.Errorf("no release documents found in %s", dir)
			}

			// One batch per directory at a time; concurrent invocations
			// would race on the same release outputs.
			batchLock := flock.New(filepath.Join(dir, batchLockName))
			locked, err := batchLock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire batch lock: %w", err)
			}
			if !locked {
				return services.Wrap(services.ErrLockHeld, "batch", "acquire batch lock",
					"another batch is already running in "+dir, nil)
			}
			defer func() {
				_ = batchLock.Unlock()
				_ = os.Remove(batchLock.Path())
			}()

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(documents))
			failures := 0

			for i, document := range documents {
				fmt.Fprintf(out, "[%d/%d] %s\n", i+1, len(documents), filepath.Base(document))

				cfg, summary, runErr := runDocument(cmd, global, document, lenient, overwrite, historyPath)
				label := filepath.Base(document)
				if cfg != nil {
					label = fmt.Sprintf("%s - %s", cfg.Artist, cfg.Title)
				}

				status := "completed"
				note := ""
				elapsed := ""
				switch {
				case runErr != nil:
					status = "failed"
					note = runErr.Error()
					failures++
				case summary != nil && summary.Failed() > 0:
					status = "completed with failures"
				}
				if summary != nil {
					elapsed = summary.Elapsed.Round(time.Millisecond).String()
				}
				rows = append(rows, []string{label, status, elapsed, note})
			}

			fmt.Fprintln(out, renderTable(
				[]string{"Release", "Status", "Elapsed", "Notes"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
			))

			if failures > 0 {
				return fmt.Errorf("%d of %d releases failed", failures, len(documents))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&lenient, "lenient", false, "Log configuration violations instead of aborting")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing files in release directories")
	cmd.Flags().StringVar(&historyPath, "history", defaultHistoryPath, "Run history database location")
	return cmd
}

// runDocument runs one release document; a failed release never stops the
// batch, the caller aggregates outcomes.
func runDocument(cmd *cobra.Command, global *globalOptions, document string, lenient, overwrite bool, historyPath string) (*config.ReleaseConfig, *pipeline.RunSummary, error) {
	cfg, err := config.Load(global.defaultsPath, document)
	if err != nil {
		return nil, nil, err
	}
	if overwrite {
		cfg.OverwriteExisting = true
	}
	if global.debug {
		cfg.Debug = true
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return cfg, nil, err
	}

	runner, err := pipeline.NewRunner(pipeline.Options{
		Config:  cfg,
		Steps:   steps.Defaults(logger),
		Logger:  logger,
		Lenient: lenient,
	})
	if err != nil {
		return cfg, nil, err
	}

	summary, runErr := runner.Run(cmd.Context())
	recordRun(cmd.Context(), logger, historyPath, cfg, summary, runErr)
	return cfg, summary, runErr
}
