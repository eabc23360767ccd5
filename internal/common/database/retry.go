package database

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// RetryWithBackoff runs operation until it succeeds, doubling the delay
// between attempts. It gives up early when ctx is cancelled.
func RetryWithBackoff(ctx context.Context, operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s aborted: %w", operationName, ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// Conn is a client whose connection can be verified and released.
type Conn interface {
	Ping(ctx context.Context) error
	Close() error
}

// OpenAndPing opens a client and verifies it. A client that fails the ping
// is closed before the error is returned.
func OpenAndPing[C Conn](ctx context.Context, open func() (C, error)) (C, error) {
	var zero C
	c, err := open()
	if err != nil {
		return zero, err
	}
	if err := c.Ping(ctx); err != nil {
		if closeErr := c.Close(); closeErr != nil {
			return zero, fmt.Errorf("%w (close: %v)", err, closeErr)
		}
		return zero, err
	}
	return c, nil
}
