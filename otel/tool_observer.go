// Package otel records tool invocation signals into OpenTelemetry.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/petal-labs/floret/tool"
)

// ToolObserver records invocation outcomes into OpenTelemetry metrics and
// spans. Bind it process-wide with tool.SetObserver.
type ToolObserver struct {
	tracer trace.Tracer

	invocations metric.Int64Counter
	latency     metric.Float64Histogram
}

// NewToolObserver creates an observer bound to the provided meter/tracer.
func NewToolObserver(meter metric.Meter, tracer trace.Tracer) (*ToolObserver, error) {
	invocations, err := meter.Int64Counter(
		"floret.tool.invocations",
		metric.WithDescription("Number of tool invocations"),
	)
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram(
		"floret.tool.latency",
		metric.WithDescription("Tool invocation latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &ToolObserver{
		tracer:      tracer,
		invocations: invocations,
		latency:     latency,
	}, nil
}

// ObserveInvoke records one invocation result.
func (o *ToolObserver) ObserveInvoke(observation tool.InvokeObservation) {
	if o == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("tool_name", observation.Tool),
		attribute.String("transport", observation.Transport),
		attribute.Bool("success", observation.Success),
	}
	if observation.ErrorKind != "" {
		attrs = append(attrs, attribute.String("error_kind", observation.ErrorKind))
	}

	ctx := context.Background()
	options := metric.WithAttributes(attrs...)
	o.invocations.Add(ctx, 1, options)
	o.latency.Record(ctx, observation.Duration.Seconds(), options)

	if o.tracer == nil {
		return
	}
	_, span := o.tracer.Start(ctx, "tool.invoke", trace.WithAttributes(attrs...))
	if !observation.Success {
		span.SetStatus(codes.Error, observation.ErrorKind)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

var _ tool.Observer = (*ToolObserver)(nil)
