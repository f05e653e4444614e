// Package logging provides logging decorators for command handlers, event
// handlers and query handlers.
package logging

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	cqrs "github.com/terraskye/cinema-saga/eventsourcing"
)

// WithCommandLogging wraps a command handler and logs every command with its
// outcome and duration.
func WithCommandLogging[C cqrs.Command](logger logrus.FieldLogger, next cqrs.CommandHandler[C]) cqrs.CommandHandler[C] {
	return func(ctx context.Context, command C) (cqrs.AppendResult, error) {
		entry := logger.WithFields(logrus.Fields{
			"command": fmt.Sprintf("%T", command),
			"stream":  command.AggregateID(),
		})
		entry.Debug("handling command")

		start := time.Now()
		result, err := next(ctx, command)
		elapsed := time.Since(start)

		if err != nil {
			entry.WithError(err).WithField("duration", elapsed).Warn("command rejected")
			return result, err
		}

		entry.WithFields(logrus.Fields{
			"duration": elapsed,
			"events":   len(result.Events),
			"version":  result.NextExpectedVersion,
		}).Info("command handled")
		return result, nil
	}
}
