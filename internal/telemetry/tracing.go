package telemetry

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ServiceName is reported as service.name on every span.
const ServiceName = "ai-router"

// Resource describes this process to the trace backend.
func Resource(instanceID string) *resource.Resource {
	return resource.NewSchemaless(
		attribute.String("service.name", ServiceName),
		attribute.String("service.instance.id", instanceID),
	)
}

type errorHandler struct{}

func (errorHandler) Handle(err error) {
	log.Warn().Err(err).Msg("otel error")
}

// InitTracing exports spans over OTLP/gRPC to endpoint. With an empty
// endpoint only the W3C propagator is installed and the returned shutdown
// func does nothing.
func InitTracing(ctx context.Context, endpoint, instanceID string) (func(context.Context) error, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpointURL(endpoint),
	)
	if err != nil {
		return nil, fmt.Errorf("create otlp trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
		sdktrace.WithResource(Resource(instanceID)),
	)
	otel.SetTracerProvider(tp)
	otel.SetErrorHandler(errorHandler{})
	log.Info().Str("endpoint", endpoint).Str("instance_id", instanceID).Msg("trace export enabled")
	return tp.Shutdown, nil
}
