package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/annel0/pixelsim/internal/config"
)

func recordTicks(t *testing.T, cfg config.TelemetryConfig, ticks int) tracetest.SpanStubs {
	t.Helper()
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(append(tracerOptions(cfg, 42), sdktrace.WithSyncer(exp))...)
	defer func() { require.NoError(t, tp.Shutdown(context.Background())) }()

	tracer := tp.Tracer("test")
	for i := 0; i < ticks; i++ {
		ctx, span := tracer.Start(context.Background(), "pixelsim.tick")
		_, child := tracer.Start(ctx, "pixelsim.particles")
		child.End()
		span.End()
	}
	return exp.GetSpans()
}

func TestTracerSamplesEveryTick(t *testing.T) {
	spans := recordTicks(t, config.TelemetryConfig{ServiceName: "pixelsim", SampleRatio: 1}, 3)
	require.Len(t, spans, 6)

	attrs := spans[0].Resource.Attributes()
	assert.Contains(t, attrs, attribute.String("service.name", "pixelsim"))
	assert.Contains(t, attrs, attribute.Int64("pixelsim.world.seed", 42))
}

func TestTracerDropsTicksAtZeroRatio(t *testing.T) {
	spans := recordTicks(t, config.TelemetryConfig{ServiceName: "pixelsim", SampleRatio: 0}, 20)
	assert.Empty(t, spans)
}
