package otel

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otel "go.opentelemetry.io/otel"
	attribute "go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	resource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	config "github.com/inference-gateway/capability-orchestrator/config"
)

const instrumentationName = "capability-orchestrator"

// Outcomes attached to every recorded operation
const (
	OutcomeSuccess     = "success"
	OutcomeUnavailable = "unavailable"
	OutcomeError       = "error"
)

type MeterProvider = sdkmetric.MeterProvider

//go:generate mockgen -source=otel.go -destination=../mocks/otel.go -package=mocks
type OpenTelemetry interface {
	Init(config config.Config) error
	RecordDelegation(ctx context.Context, capabilityID, outcome string, latencyMs float64)
	RecordToolCall(ctx context.Context, capabilityID, tool, outcome string, latencyMs float64)
	RecordChat(ctx context.Context, outcome string, iterations int, latencyMs float64)
	RecordRequest(ctx context.Context, method, route string, status int, latencyMs float64)
	Tracer() trace.Tracer
	Handler() http.Handler
	Shutdown(ctx context.Context) error
}

var _ OpenTelemetry = (*OpenTelemetryImpl)(nil)

type OpenTelemetryImpl struct {
	meterProvider  *MeterProvider
	tracerProvider *sdktrace.TracerProvider
	registry       *prometheus.Registry

	delegationCounter   metric.Int64Counter
	delegationHistogram metric.Float64Histogram
	toolCallCounter     metric.Int64Counter
	toolCallHistogram   metric.Float64Histogram
	chatCounter         metric.Int64Counter
	chatHistogram       metric.Float64Histogram
	iterationHistogram  metric.Int64Histogram
	requestCounter      metric.Int64Counter
	requestHistogram    metric.Float64Histogram
}

func (o *OpenTelemetryImpl) Init(config config.Config) error {
	// a private registry keeps repeated Init calls from colliding
	o.registry = prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(o.registry))
	if err != nil {
		return err
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(config.ApplicationName),
	)

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)
	tp := sdktrace.NewTracerProvider(sdktrace.WithResource(res))

	otel.SetMeterProvider(mp)
	otel.SetTracerProvider(tp)
	o.meterProvider = mp
	o.tracerProvider = tp

	meter := mp.Meter(instrumentationName)
	timeUnit := "ms"

	var errs []error
	o.delegationCounter, err = meter.Int64Counter(
		"orchestrator.delegations",
		metric.WithDescription("Number of delegations to remote agents"),
	)
	errs = append(errs, err)

	o.delegationHistogram, err = meter.Float64Histogram(
		"orchestrator.delegation.duration",
		metric.WithDescription("Time spent waiting for a remote agent"),
		metric.WithUnit(timeUnit),
	)
	errs = append(errs, err)

	o.toolCallCounter, err = meter.Int64Counter(
		"orchestrator.tool_calls",
		metric.WithDescription("Number of tool server invocations"),
	)
	errs = append(errs, err)

	o.toolCallHistogram, err = meter.Float64Histogram(
		"orchestrator.tool_call.duration",
		metric.WithDescription("Time spent waiting for a tool server"),
		metric.WithUnit(timeUnit),
	)
	errs = append(errs, err)

	o.chatCounter, err = meter.Int64Counter(
		"orchestrator.chats",
		metric.WithDescription("Number of chat turns"),
	)
	errs = append(errs, err)

	o.chatHistogram, err = meter.Float64Histogram(
		"orchestrator.chat.duration",
		metric.WithDescription("Total time of a chat turn"),
		metric.WithUnit(timeUnit),
	)
	errs = append(errs, err)

	o.iterationHistogram, err = meter.Int64Histogram(
		"orchestrator.chat.iterations",
		metric.WithDescription("Engine round trips per chat turn"),
	)
	errs = append(errs, err)

	o.requestCounter, err = meter.Int64Counter(
		"http.server.requests",
		metric.WithDescription("Number of HTTP requests served"),
	)
	errs = append(errs, err)

	o.requestHistogram, err = meter.Float64Histogram(
		"http.server.duration",
		metric.WithDescription("HTTP request latency"),
		metric.WithUnit(timeUnit),
	)
	errs = append(errs, err)

	return errors.Join(errs...)
}

func (o *OpenTelemetryImpl) RecordDelegation(ctx context.Context, capabilityID, outcome string, latencyMs float64) {
	if o.delegationCounter == nil || o.delegationHistogram == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("capability", capabilityID),
		attribute.String("outcome", outcome),
	)
	o.delegationCounter.Add(ctx, 1, attrs)
	o.delegationHistogram.Record(ctx, latencyMs, attrs)
}

func (o *OpenTelemetryImpl) RecordToolCall(ctx context.Context, capabilityID, tool, outcome string, latencyMs float64) {
	if o.toolCallCounter == nil || o.toolCallHistogram == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("capability", capabilityID),
		attribute.String("tool", tool),
		attribute.String("outcome", outcome),
	)
	o.toolCallCounter.Add(ctx, 1, attrs)
	o.toolCallHistogram.Record(ctx, latencyMs, attrs)
}

func (o *OpenTelemetryImpl) RecordChat(ctx context.Context, outcome string, iterations int, latencyMs float64) {
	if o.chatCounter == nil || o.chatHistogram == nil || o.iterationHistogram == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	o.chatCounter.Add(ctx, 1, attrs)
	o.chatHistogram.Record(ctx, latencyMs, attrs)
	o.iterationHistogram.Record(ctx, int64(iterations), attrs)
}

func (o *OpenTelemetryImpl) RecordRequest(ctx context.Context, method, route string, status int, latencyMs float64) {
	if o.requestCounter == nil || o.requestHistogram == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	)
	o.requestCounter.Add(ctx, 1, attrs)
	o.requestHistogram.Record(ctx, latencyMs, attrs)
}

func (o *OpenTelemetryImpl) Tracer() trace.Tracer {
	if o.tracerProvider == nil {
		return noop.NewTracerProvider().Tracer(instrumentationName)
	}
	return o.tracerProvider.Tracer(instrumentationName)
}

// Handler serves the Prometheus exposition of every recorded metric
func (o *OpenTelemetryImpl) Handler() http.Handler {
	if o.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{})
}

func (o *OpenTelemetryImpl) Shutdown(ctx context.Context) error {
	var errs []error
	if o.meterProvider != nil {
		errs = append(errs, o.meterProvider.Shutdown(ctx))
	}
	if o.tracerProvider != nil {
		errs = append(errs, o.tracerProvider.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// Noop is used when telemetry is disabled
type Noop struct{}

var _ OpenTelemetry = Noop{}

func (Noop) Init(config.Config) error                                       { return nil }
func (Noop) RecordDelegation(context.Context, string, string, float64)       {}
func (Noop) RecordToolCall(context.Context, string, string, string, float64) {}
func (Noop) RecordChat(context.Context, string, int, float64)                {}
func (Noop) RecordRequest(context.Context, string, string, int, float64)     {}
func (Noop) Tracer() trace.Tracer                                            { return noop.NewTracerProvider().Tracer(instrumentationName) }
func (Noop) Handler() http.Handler                                           { return http.NotFoundHandler() }
func (Noop) Shutdown(context.Context) error                                  { return nil }
