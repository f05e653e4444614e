package logging

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	cqrs "github.com/terraskye/cinema-saga/eventsourcing"
)

// WithQueryLogging wraps a query handler and logs every query with its
// outcome and duration.
func WithQueryLogging[T cqrs.Query, R any](logger logrus.FieldLogger, next cqrs.QueryHandler[T, R]) cqrs.QueryHandler[T, R] {
	return cqrs.NewQueryHandlerFunc(func(ctx context.Context, qry T) (R, error) {
		entry := logger.WithField("query", fmt.Sprintf("%T", qry))

		start := time.Now()
		result, err := next.HandleQuery(ctx, qry)
		elapsed := time.Since(start)

		if err != nil {
			entry.WithError(err).WithField("duration", elapsed).Warn("query failed")
			return result, err
		}

		entry.WithField("duration", elapsed).Debug("query handled")
		return result, nil
	})
}
