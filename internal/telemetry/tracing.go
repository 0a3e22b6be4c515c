// Package telemetry sets up OpenTelemetry tracing for a categorizer run.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName names the tracer used by every categorizer component.
const InstrumentationName = "github.com/JakeFAU/domain-categorizer"

var propagator = propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})

// InitTracerProvider installs a global trace provider and the W3C
// propagators. Exporters are supplied through opts (e.g. sdktrace.WithBatcher).
func InitTracerProvider(
	ctx context.Context,
	serviceName string,
	opts ...sdktrace.TracerProviderOption,
) (*sdktrace.TracerProvider, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(append([]sdktrace.TracerProviderOption{sdktrace.WithResource(res)}, opts...)...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagator)
	return tp, nil
}

// Tracer returns the categorizer tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}

// MapCarrier adapts a string map (e.g. message attributes) to
// propagation.TextMapCarrier.
type MapCarrier map[string]string

// Get returns the value for key.
func (c MapCarrier) Get(key string) string { return c[key] }

// Set stores value under key.
func (c MapCarrier) Set(key, value string) { c[key] = value }

// Keys lists the stored keys.
func (c MapCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

// Inject writes the W3C trace context and baggage of ctx into attrs.
func Inject(ctx context.Context, attrs map[string]string) {
	propagator.Inject(ctx, MapCarrier(attrs))
}

// Carrier returns the trace context of ctx as a new map, or nil when ctx
// holds no valid span.
func Carrier(ctx context.Context) map[string]string {
	attrs := map[string]string{}
	Inject(ctx, attrs)
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}
