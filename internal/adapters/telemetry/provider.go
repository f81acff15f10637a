// Package telemetry implements ports.Tracer on OpenTelemetry.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/fresh/internal/core/ports"
)

// InstrumentationName names the tracer of the engine.
const InstrumentationName = "go.trai.ch/fresh"

// OTelTracer is a concrete implementation of ports.Tracer using OpenTelemetry.
type OTelTracer struct {
	tracer trace.Tracer
}

// NewOTelTracer creates a tracer from the given provider.
func NewOTelTracer(provider trace.TracerProvider) *OTelTracer {
	return &OTelTracer{
		tracer: provider.Tracer(InstrumentationName),
	}
}

// Start creates a new span.
func (t *OTelTracer) Start(ctx context.Context, name string, opts ...ports.SpanOption) (context.Context, ports.Span) {
	cfg := &ports.SpanConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	attrs := make([]attribute.KeyValue, 0, len(cfg.Attributes))
	for k, v := range cfg.Attributes {
		attrs = append(attrs, toAttribute(k, v))
	}

	ctx, span := t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	s := &OTelSpan{span: span}
	s.output = NewBatchProcessor(0, s.addOutput)
	return ctx, s
}

// EmitPlan records the planned units on the span in ctx, or on a span of its
// own when ctx carries none.
func (t *OTelTracer) EmitPlan(ctx context.Context, units []string) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		_, span = t.tracer.Start(ctx, "plan")
		defer span.End()
	}
	span.AddEvent("plan_emitted", trace.WithAttributes(
		attribute.StringSlice("units", units),
		attribute.Int("count", len(units)),
	))
}

// OTelSpan is a concrete implementation of ports.Span using OpenTelemetry.
type OTelSpan struct {
	span   trace.Span
	output *BatchProcessor
}

// End flushes buffered output and completes the span.
func (s *OTelSpan) End() {
	_ = s.output.Close()
	s.span.End()
}

// RecordError records an error for the span.
func (s *OTelSpan) RecordError(err error) {
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// SetAttribute adds a key-value pair to the span.
func (s *OTelSpan) SetAttribute(key string, value any) {
	s.span.SetAttributes(toAttribute(key, value))
}

// Write buffers command output. It is added to the span as "output" events.
func (s *OTelSpan) Write(p []byte) (int, error) {
	return s.output.Write(p)
}

func (s *OTelSpan) addOutput(data []byte) {
	s.span.AddEvent("output", trace.WithAttributes(attribute.String("data", string(data))))
}

func toAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case bool:
		return attribute.Bool(key, v)
	case []string:
		return attribute.StringSlice(key, v)
	case fmt.Stringer:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}
