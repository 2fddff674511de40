package ghclient

import (
	"context"
	"errors"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"github.com/assignwatch/assignwatch/internal/log"
)

const (
	maxRetryAttempts  = 3
	initialRetryDelay = 500 * time.Millisecond
	maxRetryDelay     = 5 * time.Second
)

// withRetry executes a GitHub call with exponential backoff and jitter.
// Rate-limit errors are not retried; waiting out a reset window is the
// caller's problem, not a transient fault.
func withRetry(ctx context.Context, operation string, fn func() error) error {
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(maxRetryAttempts),
		retry.DelayType(retry.BackOffDelay),
		retry.Delay(initialRetryDelay),
		retry.MaxDelay(maxRetryDelay),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, ErrRateLimited)
		}),
		retry.OnRetry(func(n uint, err error) {
			log.Debug("retrying github call", "operation", operation, "attempt", n+1, "error", err)
		}),
		retry.LastErrorOnly(true),
	)
}
