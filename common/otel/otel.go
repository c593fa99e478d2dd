package otel

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc"
)

var Tracer = otel.Tracer("ticket-gate")

// InitProvider wires the OTLP gRPC exporter and registers the global tracer
// provider. The returned function flushes and shuts the provider down.
func InitProvider(ctx context.Context, endpoint string, gateId string) func() {
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
		otlptracegrpc.WithDialOption(grpc.WithUserAgent("ticket-gate")),
	)
	if err != nil {
		log.Fatalln("unable to create otlp exporter", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName("ticket-gate"),
			semconv.ServiceInstanceID(gateId),
		),
	)
	if err != nil {
		log.Fatalln("unable to create otel resource", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Println("unable to shutdown tracer provider", err)
		}
	}
}
