package store

import (
	"context"
	"log/slog"
	"time"
)

const sweepInterval = 1 * time.Hour

// StartSessionSweeper runs a background goroutine that periodically reaps
// finished and stale dialog session rows. The engine never reads a stale or
// finished session again (it supersedes them with a fresh session on next
// contact), so reaping is purely housekeeping and may lag behind.
func StartSessionSweeper(ctx context.Context, repo Repository, staleness time.Duration) {
	ticker := time.NewTicker(sweepInterval)
	go func() {
		defer ticker.Stop()
		slog.Info("session sweeper started", "interval", sweepInterval, "staleness", staleness)

		for {
			select {
			case <-ticker.C:
				sweepOnce(ctx, repo, staleness)
			case <-ctx.Done():
				slog.Info("session sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func sweepOnce(ctx context.Context, repo Repository, staleness time.Duration) {
	reaped, err := repo.ReapSessions(ctx, staleness)
	if err != nil {
		slog.Error("session sweeper failed to reap sessions", "error", err)
		return
	}
	if reaped > 0 {
		slog.Info("session sweeper reaped sessions", "count", reaped)
	}
}
