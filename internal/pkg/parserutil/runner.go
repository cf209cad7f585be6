package parserutil

import (
	"context"
	"log/slog"
	"time"
)

// CreateCycleContext creates a context for one fetch or cycle with optional timeout
func CreateCycleContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return ctx, func() {} // No-op cancel function
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// LogCycleStart logs the start of an aggregation cycle
func LogCycleStart(cycleID string, useCache bool) {
	slog.Info("Starting aggregation cycle", "cycle_id", cycleID, "use_cache", useCache)
}

// LogCycleFinish logs the finish of an aggregation cycle
func LogCycleFinish(cycleID, source string, gamelines int, duration time.Duration) {
	slog.Info("Aggregation cycle finished",
		"cycle_id", cycleID,
		"source", source,
		"gamelines", gamelines,
		"duration", duration,
		"duration_sec", duration.Seconds())
}
