package logging

import (
	"context"
	"errors"
	"log/slog"
	"time"

	cqrs "github.com/terraskye/cinema-saga/eventsourcing"
)

// WithEventLogging wraps an event handler and logs every processed event.
// Skipped events (handlers not interested in the event type) are logged at
// debug level only.
func WithEventLogging(logger *slog.Logger, next cqrs.EventHandler) cqrs.EventHandler {
	return cqrs.NewEventHandlerFunc(func(ctx context.Context, event cqrs.Event) error {
		start := time.Now()
		err := next.Handle(ctx, event)

		attrs := []slog.Attr{
			slog.String("event", cqrs.TypeName(event)),
			slog.String("stream", cqrs.StreamIDFromContext(ctx)),
			slog.Uint64("version", cqrs.VersionFromContext(ctx)),
			slog.Duration("duration", time.Since(start)),
		}

		var skipped *cqrs.ErrSkippedEvent
		switch {
		case err == nil:
			logger.LogAttrs(ctx, slog.LevelInfo, "event handled", attrs...)
		case errors.As(err, &skipped):
			logger.LogAttrs(ctx, slog.LevelDebug, "event skipped", attrs...)
		default:
			attrs = append(attrs, slog.String("error", err.Error()))
			logger.LogAttrs(ctx, slog.LevelError, "event handler failed", attrs...)
		}
		return err
	})
}
