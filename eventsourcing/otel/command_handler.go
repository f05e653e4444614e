package otel

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	cqrs "github.com/terraskye/cinema-saga/eventsourcing"
)

// WithCommandTelemetry wraps a command handler with a span per command and
// records the handled count and duration histograms. Metric recording is a
// no-op until cqrs.Init has been called.
func WithCommandTelemetry[C cqrs.Command](next cqrs.CommandHandler[C]) cqrs.CommandHandler[C] {
	return func(ctx context.Context, command C) (cqrs.AppendResult, error) {
		commandType := fmt.Sprintf("%T", command)

		ctx, span := tracer().Start(ctx, "command "+commandType,
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(
				AttrCommandType.String(commandType),
				AttrStreamID.String(command.AggregateID()),
			),
		)
		defer span.End()

		start := time.Now()
		result, err := next(ctx, command)
		elapsed := time.Since(start)

		status := "ok"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(AttrEventCount.Int(len(result.Events)))
		}

		if cqrs.IsInitialized() {
			attrs := metric.WithAttributes(
				attribute.String("command.type", commandType),
				attribute.String("status", status),
			)
			cqrs.CommandsHandled.Add(ctx, 1, attrs)
			cqrs.CommandsDuration.Record(ctx, float64(elapsed.Milliseconds()), attrs)
		}

		return result, err
	}
}
