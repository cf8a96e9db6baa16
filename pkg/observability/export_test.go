package observability

import (
	"context"

	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// BuildResource exposes buildResource for tests.
func BuildResource(cfg Config) (*resource.Resource, error) {
	return buildResource(cfg)
}

// RootSpanSampled reports whether the sampler chosen for cfg records a root span.
func RootSpanSampled(cfg Config) (bool, error) {
	sampler, err := selectSampler(cfg)
	if err != nil {
		return false, err
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sampler))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	_, span := tp.Tracer("sampler-test").Start(context.Background(), "root")
	defer span.End()

	return span.SpanContext().IsSampled(), nil
}
