package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"

	"relpack/internal/config"
	"relpack/internal/history"
	"relpack/internal/logging"
	"relpack/internal/pipeline"
)

var defaultHistoryPath = filepath.Join("runtime", "state", "history.db")

func newLogger(debug bool) (*slog.Logger, error) {
	level := "info"
	if debug {
		level = "debug"
	}
	return logging.New(logging.Options{
		Level:       level,
		Format:      "text",
		OutputPaths: []string{"stderr"},
	})
}

// recordRun appends the outcome to the history database. History is
// best-effort; failures are logged and never affect the workflow result.
func recordRun(ctx context.Context, logger *slog.Logger, path string, cfg *config.ReleaseConfig, summary *pipeline.RunSummary, runErr error) {
	if summary == nil {
		return
	}

	store, err := history.Open(path)
	if err != nil {
		logger.Warn("could not open run history", logging.Error(err))
		return
	}
	defer store.Close()

	run := history.Run{
		RunID:      summary.RunID,
		Artist:     cfg.Artist,
		Title:      cfg.Title,
		ReleaseDir: cfg.ReleaseDir,
		Aborted:    summary.Aborted,
		Succeeded:  summary.Succeeded(),
		Skipped:    summary.Skipped(),
		Failed:     summary.Failed(),
		Elapsed:    summary.Elapsed,
		StartedAt:  time.Now().UTC(),
	}
	if runErr != nil {
		run.ErrorMessage = runErr.Error()
	}
	for _, result := range summary.Results {
		record := history.StepRecord{
			Name:   result.Name,
			Status: string(result.Status),
		}
		if result.Elapsed > 0 {
			record.Elapsed = result.Elapsed.Round(time.Millisecond).String()
		}
		if result.Err != nil {
			record.Error = result.Err.Error()
		}
		run.Steps = append(run.Steps, record)
	}

	if err := store.RecordRun(ctx, run); err != nil {
		logger.Warn("could not record run history", logging.Error(err))
	}
}

func renderSummary(out io.Writer, cfg *config.ReleaseConfig, summary *pipeline.RunSummary) {
	if summary == nil {
		return
	}

	if len(summary.Results) > 0 {
		rows := make([][]string, 0, len(summary.Results))
		for _, result := range summary.Results {
			elapsed := ""
			if result.Elapsed > 0 {
				elapsed = result.Elapsed.Round(time.Millisecond).String()
			}
			note := ""
			if result.Err != nil {
				note = result.Err.Error()
			}
			rows = append(rows, []string{result.Name, string(result.Status), elapsed, note})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Step", "Status", "Elapsed", "Notes"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
		))
	}

	outcome := "completed"
	if summary.Aborted {
		outcome = "aborted"
	}
	if isTerminal(out) {
		if summary.Aborted {
			outcome = text.FgRed.Sprint(outcome)
		} else {
			outcome = text.FgGreen.Sprint(outcome)
		}
	}
	fmt.Fprintf(out, "%s - %s: workflow %s (%d succeeded, %d skipped, %d failed) in %s\n",
		cfg.Artist, cfg.Title, outcome,
		summary.Succeeded(), summary.Skipped(), summary.Failed(),
		summary.Elapsed.Round(time.Millisecond))
}
