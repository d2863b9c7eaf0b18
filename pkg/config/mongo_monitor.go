package config

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/event"
)

const slowCommand = 200 * time.Millisecond

// NewMongoMonitor logs command outcomes; slow and failed commands are raised above debug
func NewMongoMonitor(logger *slog.Logger) *event.CommandMonitor {
	return &event.CommandMonitor{
		Succeeded: func(ctx context.Context, evt *event.CommandSucceededEvent) {
			attrs := []any{
				slog.String("command", evt.CommandName),
				slog.Duration("latency", evt.Duration),
				slog.Int64("request_id", evt.RequestID),
			}
			if evt.Duration > slowCommand {
				logger.WarnContext(ctx, "MongoDB slow command", attrs...)
				return
			}
			logger.DebugContext(ctx, "MongoDB command", attrs...)
		},
		Failed: func(ctx context.Context, evt *event.CommandFailedEvent) {
			logger.ErrorContext(ctx, "MongoDB command failed",
				slog.String("command", evt.CommandName),
				slog.Duration("latency", evt.Duration),
				slog.Int64("request_id", evt.RequestID),
				slog.String("err", evt.Failure),
			)
		},
	}
}
