package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"relpack/internal/logging"
	"relpack/internal/services"
)

// Policy controls retry behaviour for transient failures. The zero value is
// not usable; construct with DefaultPolicy or set every field.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// Initial is the delay before the first retry; each retry doubles it.
	Initial time.Duration
	// Max caps the per-retry delay.
	Max time.Duration
}

// DefaultPolicy mirrors the workflow defaults: three attempts, one second
// base delay, one minute cap.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, Initial: time.Second, Max: time.Minute}
}

// Do runs op, retrying transient errors with exponential backoff until
// MaxAttempts is exhausted. Non-transient errors propagate immediately. The
// exhausted error carries the attempt count.
func (p Policy) Do(ctx context.Context, logger *slog.Logger, op func() error) error {
	if logger == nil {
		logger = logging.NewNop()
	}
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.Initial
	bo.MaxInterval = p.Max
	bo.Multiplier = 2
	bo.MaxElapsedTime = 0
	bo.Reset()

	attempt := 0
	wrapped := func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		if !services.IsTransient(err) {
			return backoff.Permanent(err)
		}
		if attempt < maxAttempts {
			logger.Warn("transient failure, retrying",
				logging.Int("attempt", attempt),
				logging.Int("max_attempts", maxAttempts),
				logging.Error(err),
			)
		}
		return err
	}

	err := backoff.Retry(wrapped, backoff.WithContext(
		backoff.WithMaxRetries(bo, uint64(maxAttempts-1)), ctx))
	if err == nil {
		return nil
	}
	if services.IsTransient(err) && attempt >= maxAttempts {
		return fmt.Errorf("failed after %d attempts: %w", attempt, err)
	}
	return err
}
