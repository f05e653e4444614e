// Package otel provides OpenTelemetry decorators for the eventsourcing
// building blocks. Decorators wrap a handler or store and emit spans and
// metrics around each call without changing behavior.
package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/terraskye/cinema-saga/eventsourcing/otel"

// Semantic attribute keys used on spans and metric data points.
var (
	AttrCommandType = attribute.Key("eventsourcing.command.type")
	AttrStreamID    = attribute.Key("eventsourcing.stream.id")
	AttrEventType   = attribute.Key("eventsourcing.event.type")
	AttrEventCount  = attribute.Key("eventsourcing.event.count")
	AttrRevision    = attribute.Key("eventsourcing.stream.revision")
	AttrErrorType   = attribute.Key("eventsourcing.error.type")
)

func tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}
