package orchestration

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/koscakluka/ema-voice/core"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)
)

type instruments struct {
	turns    metric.Int64Counter
	captures metric.Int64Counter
	queued   metric.Float64Histogram
}

func newInstruments() instruments {
	var (
		i   instruments
		err error
	)
	if i.turns, err = meter.Int64Counter("orchestration.turns",
		metric.WithDescription("Completed turns by outcome"),
	); err != nil {
		logger.Warn("failed to create turns counter", "error", err)
	}
	if i.captures, err = meter.Int64Counter("orchestration.captures",
		metric.WithDescription("Finished capture attempts by outcome"),
	); err != nil {
		logger.Warn("failed to create captures counter", "error", err)
	}
	if i.queued, err = meter.Float64Histogram("orchestration.event.queued_time",
		metric.WithDescription("Time an event spent in the queue"),
		metric.WithUnit("s"),
	); err != nil {
		logger.Warn("failed to create queued time histogram", "error", err)
	}
	return i
}
