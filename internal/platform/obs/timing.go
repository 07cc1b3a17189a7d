package obs

import (
	"context"
	"log/slog"
	"time"
)

// Time logs the duration of an operation once the returned func runs.
// Usage: defer obs.Time(ctx, "op")(&err)
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()

	return func(errp *error) {
		dur := time.Since(start)
		attrs := []slog.Attr{
			slog.String("req_id", RequestID(ctx)),
			slog.String("op", name),
			slog.Int64("dur_ms", dur.Milliseconds()),
		}

		if errp != nil && *errp != nil {
			attrs = append(attrs, slog.String("err", (*errp).Error()))
			slog.LogAttrs(ctx, slog.LevelWarn, "op failed", attrs...)
			return
		}
		slog.LogAttrs(ctx, slog.LevelDebug, "op done", attrs...)
	}
}
