package utils

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/omni/retryables-monitor/logging"
)

// RetryWithTimeout runs op with exponential backoff until it succeeds, timeout elapses or ctx is done.
// Errors wrapped with backoff.Permanent stop the retries immediately.
func RetryWithTimeout(ctx context.Context, logger logging.Logger, timeout time.Duration, op backoff.Operation) error {
	expBackOff := backoff.NewExponentialBackOff()
	expBackOff.InitialInterval = 200 * time.Millisecond
	expBackOff.MaxElapsedTime = timeout
	notify := func(err error, next time.Duration) {
		logger.WithError(err).WithField("retry_in", next).Warn("operation failed, retrying")
	}
	return backoff.RetryNotify(op, backoff.WithContext(expBackOff, ctx), notify)
}
