package telemetry

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/fresh/internal/core/ports"
)

// LogBridge implements sdktrace.SpanProcessor by writing a debug line for
// every finished span.
type LogBridge struct {
	logger ports.Logger
}

// NewLogBridge returns a new LogBridge.
func NewLogBridge(logger ports.Logger) *LogBridge {
	return &LogBridge{logger: logger}
}

// OnStart does nothing.
func (b *LogBridge) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

// OnEnd is called when a span ends.
func (b *LogBridge) OnEnd(s sdktrace.ReadOnlySpan) {
	if !s.SpanContext().IsValid() {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "span %s took %s", s.Name(), s.EndTime().Sub(s.StartTime()))
	for _, attr := range s.Attributes() {
		fmt.Fprintf(&sb, " %s=%s", attr.Key, attr.Value.Emit())
	}
	if s.Status().Code == codes.Error {
		fmt.Fprintf(&sb, " error=%q", s.Status().Description)
	}
	b.logger.Debug(sb.String())
}

// ForceFlush does nothing.
func (b *LogBridge) ForceFlush(context.Context) error {
	return nil
}

// Shutdown does nothing.
func (b *LogBridge) Shutdown(context.Context) error {
	return nil
}

// NewProvider creates an SDK tracer provider feeding the given processors.
func NewProvider(processors ...sdktrace.SpanProcessor) *sdktrace.TracerProvider {
	opts := make([]sdktrace.TracerProviderOption, 0, len(processors)+1)
	opts = append(opts, sdktrace.WithSampler(sdktrace.AlwaysSample()))
	for _, p := range processors {
		opts = append(opts, sdktrace.WithSpanProcessor(p))
	}
	return sdktrace.NewTracerProvider(opts...)
}
