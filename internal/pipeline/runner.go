package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"relpack/internal/config"
	"relpack/internal/fileops"
	"relpack/internal/logging"
	"relpack/internal/retry"
	"relpack/internal/services"
	"relpack/internal/textutil"
	"relpack/internal/worklock"
)

// Options configures a Runner.
type Options struct {
	Config *config.ReleaseConfig
	Steps  []Descriptor
	Logger *slog.Logger

	// Lenient downgrades schema violations from fatal to logged warnings,
	// overriding strict_validation in the configuration.
	Lenient bool

	// Retry overrides the policy applied to retryable steps. Zero value
	// means derive one from the configuration's max_retries.
	Retry retry.Policy
}

// Runner executes the release workflow: validation, sanitization, the
// workflow lock, then every enabled step in declaration order.
type Runner struct {
	cfg     *config.ReleaseConfig
	steps   []Descriptor
	logger  *slog.Logger
	lenient bool
	retry   retry.Policy
}

// NewRunner builds a Runner from options. The configuration is required;
// everything else has working defaults.
func NewRunner(opts Options) (*Runner, error) {
	if opts.Config == nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "build runner", "configuration is required", nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	policy := opts.Retry
	if policy.MaxAttempts == 0 {
		policy = retry.DefaultPolicy()
		if opts.Config.MaxRetries > 0 {
			policy.MaxAttempts = opts.Config.MaxRetries
		}
	}
	return &Runner{
		cfg:     opts.Config,
		steps:   opts.Steps,
		logger:  logger,
		lenient: opts.Lenient,
		retry:   policy,
	}, nil
}

// Run executes the workflow once. A RunSummary is returned even on abort so
// callers can render every step outcome; the error is non-nil only when the
// run aborted before completing its step list.
func (r *Runner) Run(ctx context.Context) (*RunSummary, error) {
	start := time.Now()
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, r.logger)

	summary := &RunSummary{RunID: runID}
	defer func() { summary.Elapsed = time.Since(start) }()

	if err := r.validateConfig(logger); err != nil {
		summary.Aborted = true
		return summary, err
	}

	release, err := r.prepareRelease(runID)
	if err != nil {
		summary.Aborted = true
		return summary, err
	}

	handle, err := worklock.Acquire(release.ReleaseDir)
	if err != nil {
		logger.Error("workflow lock unavailable",
			logging.String(logging.FieldEventType, "lock_denied"),
			logging.Error(err))
		summary.Aborted = true
		return summary, err
	}
	defer func() {
		if releaseErr := handle.Release(); releaseErr != nil {
			logger.Warn("failed to release workflow lock", logging.Error(releaseErr))
		}
	}()

	logger.Info("workflow started",
		logging.String(logging.FieldEventType, "workflow_start"),
		logging.String("artist", release.Artist),
		logging.String("title", release.Title),
		logging.String("release_dir", release.ReleaseDir),
		logging.Int("steps", len(r.steps)))

	err = r.runSteps(ctx, release, summary)
	if err != nil {
		summary.Aborted = true
		logger.Error("workflow aborted",
			logging.String(logging.FieldEventType, "workflow_abort"),
			logging.Int("succeeded", summary.Succeeded()),
			logging.Int("failed", summary.Failed()),
			logging.Error(err))
		return summary, err
	}

	logger.Info("workflow completed",
		logging.String(logging.FieldEventType, "workflow_complete"),
		logging.Int("succeeded", summary.Succeeded()),
		logging.Int("skipped", summary.Skipped()),
		logging.Int("failed", summary.Failed()),
		logging.Duration("elapsed", time.Since(start)))
	return summary, nil
}

func (r *Runner) validateConfig(logger *slog.Logger) error {
	err := r.cfg.Validate()
	if err != nil {
		if r.cfg.StrictValidation && !r.lenient {
			return err
		}
		logger.Warn("configuration violations ignored in lenient mode",
			logging.String(logging.FieldEventType, "validation_warning"),
			logging.Error(err))
	}
	for _, warning := range r.cfg.Warnings() {
		logger.Warn(warning, logging.String(logging.FieldEventType, "validation_warning"))
	}
	return nil
}

func (r *Runner) prepareRelease(runID string) (*Release, error) {
	artist := textutil.SanitizeFileName(r.cfg.Artist)
	title := textutil.SanitizeFileName(r.cfg.Title)

	dir, err := config.ExpandPath(r.cfg.ResolvedReleaseDir(title))
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "resolve release directory", "", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create release directory: %w", err)
	}
	if err := checkDiskSpace(dir); err != nil {
		return nil, err
	}

	return &Release{
		Config:     r.cfg,
		RunID:      runID,
		Artist:     artist,
		Title:      title,
		ReleaseDir: dir,
	}, nil
}

// minFreeDiskBytes is the conservative floor a workflow needs before it
// starts copying audio into the release directory.
const minFreeDiskBytes = 500 << 20

func checkDiskSpace(dir string) error {
	free, err := fileops.FreeSpace(dir)
	if err != nil {
		return fmt.Errorf("check disk space: %w", err)
	}
	if free < minFreeDiskBytes {
		return services.Wrap(services.ErrValidation, "", "check disk space",
			fmt.Sprintf("insufficient disk space: %d MB free, need at least %d MB",
				free>>20, minFreeDiskBytes>>20), nil)
	}
	return nil
}

func (r *Runner) runSteps(ctx context.Context, release *Release, summary *RunSummary) error {
	for i, step := range r.steps {
		stepCtx := services.WithStep(ctx, step.Name)
		stepLogger := logging.WithContext(stepCtx, r.logger)

		if step.Enabled != nil && !step.Enabled(r.cfg) {
			summary.Results = append(summary.Results, StepResult{Name: step.Name, Status: StepSkipped, Policy: step.Policy})
			stepLogger.Debug("step skipped",
				logging.String(logging.FieldEventType, "step_skip"))
			continue
		}

		stepLogger.Info("step started",
			logging.String(logging.FieldEventType, "step_start"))

		stepStart := time.Now()
		err := r.runStep(stepCtx, stepLogger, step, release)
		elapsed := time.Since(stepStart)

		if err == nil {
			summary.Results = append(summary.Results, StepResult{Name: step.Name, Status: StepSucceeded, Policy: step.Policy, Elapsed: elapsed})
			stepLogger.Info("step completed",
				logging.String(logging.FieldEventType, "step_complete"),
				logging.Duration("elapsed", elapsed))
			continue
		}

		summary.Results = append(summary.Results, StepResult{Name: step.Name, Status: StepFailed, Policy: step.Policy, Elapsed: elapsed, Err: err})

		if step.Policy == PolicyFatal || r.cfg.StrictMode {
			r.markRemainingSkipped(summary, i+1)
			return &StepError{Step: step.Name, Policy: step.Policy, Err: err}
		}

		stepLogger.Warn("step failed, continuing",
			logging.String(logging.FieldEventType, "step_failure"),
			logging.String(logging.FieldErrorHint, "rerun with strict_mode = true to abort on step failures"),
			logging.Error(err))
	}
	return nil
}

func (r *Runner) runStep(ctx context.Context, logger *slog.Logger, step Descriptor, release *Release) error {
	if step.Run == nil {
		return services.Wrap(services.ErrConfiguration, step.Name, "run step", "step has no run function", nil)
	}
	if !step.Retryable {
		return step.Run(ctx, release)
	}
	return r.retry.Do(ctx, logger, func() error {
		return step.Run(ctx, release)
	})
}

func (r *Runner) markRemainingSkipped(summary *RunSummary, from int) {
	for _, step := range r.steps[from:] {
		summary.Results = append(summary.Results, StepResult{Name: step.Name, Status: StepSkipped, Policy: step.Policy})
	}
}
