package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// isBusyError checks if the error is a SQLITE_BUSY error. This occurs when
// the database is locked by another connection.
func isBusyError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "SQLITE_BUSY")
}

// isLockedError checks if the error is a "database is locked" error, the
// other form of SQLite concurrency error.
func isLockedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "database is locked")
}

// isConflictError reports whether the error is a SQLite concurrency error
// that warrants a retry.
func isConflictError(err error) bool {
	return isBusyError(err) || isLockedError(err)
}

// execWithRetry runs fn, retrying SQLite concurrency errors with exponential
// backoff: 100ms, 200ms, 400ms.
func execWithRetry(ctx context.Context, op string, fn func() error) error {
	maxRetries := 3
	baseDelay := 100 * time.Millisecond

	var err error
	for i := 0; i < maxRetries; i++ {
		err = fn()
		if err == nil {
			return nil
		}

		if isConflictError(err) && i < maxRetries-1 {
			delay := baseDelay * time.Duration(1<<i)
			slog.Debug("sqlite conflict, retrying", "op", op, "attempt", i+1, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return fmt.Errorf("%s: %w", op, ctx.Err())
			}
			continue
		}
		break
	}
	return fmt.Errorf("%s: %w", op, err)
}
