package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"

	"github.com/annel0/pixelsim/internal/config"
	"github.com/annel0/pixelsim/internal/logging"
)

// InitTelemetry настраивает OTLP экспортер спанов тиков и устанавливает глобальный TracerProvider.
// Возвращает функцию shutdown, которую нужно вызвать при завершении приложения.
func InitTelemetry(ctx context.Context, cfg config.TelemetryConfig, seed int64) (func(context.Context) error, error) {
	var opts []otlptracehttp.Option
	if cfg.Endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpoint(cfg.Endpoint), otlptracehttp.WithInsecure())
	}
	exp, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, err
	}

	tp := trace.NewTracerProvider(append(tracerOptions(cfg, seed), trace.WithBatcher(exp))...)
	otel.SetTracerProvider(tp)

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "localhost:4318"
	}
	logging.Info("📡 OpenTelemetry инициализирован (OTLP → %s, service=%s, доля тиков %.2f)",
		endpoint, cfg.ServiceName, cfg.SampleRatio)

	shutdown := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}
	return shutdown, nil
}

// tracerOptions ресурс и сэмплер провайдера. Спан тика корневой, поэтому
// доля SampleRatio применяется к тикам; дочерние спаны следуют решению родителя.
func tracerOptions(cfg config.TelemetryConfig, seed int64) []trace.TracerProviderOption {
	res := resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
		attribute.Int64("pixelsim.world.seed", seed),
	)
	return []trace.TracerProviderOption{
		trace.WithResource(res),
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(cfg.SampleRatio))),
	}
}
