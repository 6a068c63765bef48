package shared

import (
	"context"
	"log/slog"
	"time"
)

// BusyRetry runs op up to attempts times, backing off exponentially from
// baseDelay while op keeps failing with a SQLite busy/locked error. Any other
// error is returned immediately.
func BusyRetry(ctx context.Context, attempts int, baseDelay time.Duration, op func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		err = op()
		if err == nil || !IsSQLiteConflictError(err) {
			return err
		}
		if i == attempts-1 {
			break
		}

		delay := baseDelay * time.Duration(1<<i) // 1x, 2x, 4x...
		slog.Debug("SQLite busy, retrying", "attempt", i+1, "delay", delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}
