// Package otelbridge implements core.Telemetry and core.Span on top of
// OpenTelemetry (spec.md §6: "the host chooses transports" — this is one
// such host-side adapter, not part of the ASC core). Grounded on
// telemetry/otel.go's OTelProvider: same tracer/meter/shutdown-once shape,
// adapted to export traces via stdouttrace (the exporter already vendored
// by the teacher's pack) rather than OTLP/HTTP, since no OTLP exporter is
// part of this module's dependency set.
package otelbridge

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/agentsafe/asc/core"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

// Provider implements core.Telemetry, bridging ASC's before_tool/after_tool
// instrumentation hooks to real OpenTelemetry spans and metrics.
type Provider struct {
	tracer         trace.Tracer
	meter          metric.Meter
	traceProvider  *sdktrace.TracerProvider
	metricProvider *sdkmetric.MeterProvider
	reader         *sdkmetric.ManualReader
	instruments    *instruments
	shutdownOnce   sync.Once
	mu             sync.RWMutex
	shutdown       bool
}

// Option configures New.
type Option func(*config)

type config struct {
	writer io.Writer
}

// WithWriter sets the destination for exported trace spans (default
// os.Stdout). Tests typically pass io.Discard.
func WithWriter(w io.Writer) Option {
	return func(c *config) { c.writer = w }
}

// New builds a Provider for serviceName, exporting spans via stdouttrace
// and collecting metrics through an in-process ManualReader (spec.md
// carries no wire protocol of its own for telemetry — §6: "the host
// chooses transports").
func New(serviceName string, opts ...Option) (*Provider, error) {
	if serviceName == "" {
		return nil, fmt.Errorf("otelbridge: service name cannot be empty")
	}

	cfg := config{writer: os.Stdout}
	for _, opt := range opts {
		opt(&cfg)
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(serviceName),
		semconv.ServiceVersionKey.String("1.0.0"),
	)

	traceExporter, err := stdouttrace.New(stdouttrace.WithWriter(cfg.writer))
	if err != nil {
		return nil, fmt.Errorf("otelbridge: create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(res),
	)

	meter := mp.Meter("asc/otelbridge")
	insts, err := newInstruments(meter)
	if err != nil {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
		return nil, fmt.Errorf("otelbridge: create metric instruments: %w", err)
	}

	return &Provider{
		tracer:         tp.Tracer("asc/otelbridge"),
		meter:          meter,
		traceProvider:  tp,
		metricProvider: mp,
		reader:         reader,
		instruments:    insts,
	}, nil
}

// StartSpan implements core.Telemetry.
func (p *Provider) StartSpan(ctx context.Context, name string) (context.Context, core.Span) {
	p.mu.RLock()
	down := p.shutdown
	p.mu.RUnlock()
	if down || p.tracer == nil {
		return ctx, &core.NoOpSpan{}
	}
	ctx, span := p.tracer.Start(ctx, name)
	return ctx, &spanAdapter{span: span}
}

// RecordMetric implements core.Telemetry, routing by name-suffix heuristic
// (same rule as the teacher's OTelProvider.RecordMetric): duration/latency
// names go to a histogram, count/total/error names go to a counter,
// everything else to a histogram.
func (p *Provider) RecordMetric(name string, value float64, labels map[string]string) {
	p.mu.RLock()
	down := p.shutdown
	p.mu.RUnlock()
	if down || p.instruments == nil {
		return
	}

	attrs := make([]attribute.KeyValue, 0, len(labels))
	for k, v := range labels {
		attrs = append(attrs, attribute.String(k, v))
	}

	ctx := context.Background()
	switch {
	case hasSuffixAny(name, "duration", "latency", "time_ms"):
		p.instruments.histogram(ctx, name, value, attrs)
	case hasSuffixAny(name, "count", "total", "errors", "success"):
		p.instruments.counter(ctx, name, int64(value), attrs)
	default:
		p.instruments.histogram(ctx, name, value, attrs)
	}
}

func hasSuffixAny(name string, suffixes ...string) bool {
	for _, s := range suffixes {
		if len(name) >= len(s) && name[len(name)-len(s):] == s {
			return true
		}
	}
	return false
}

// Collect forces the ManualReader to produce its current metric snapshot —
// useful for tests and for hosts that scrape on their own schedule rather
// than push.
func (p *Provider) Collect(ctx context.Context) (metricdata.ResourceMetrics, error) {
	var rm metricdata.ResourceMetrics
	if err := p.reader.Collect(ctx, &rm); err != nil {
		return metricdata.ResourceMetrics{}, err
	}
	return rm, nil
}

// Shutdown flushes and tears down both providers exactly once.
func (p *Provider) Shutdown(ctx context.Context) error {
	var shutdownErr error
	p.shutdownOnce.Do(func() {
		p.mu.Lock()
		p.shutdown = true
		p.mu.Unlock()

		var errs []error
		if err := p.metricProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metric provider shutdown: %w", err))
		}
		if err := p.traceProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("trace provider shutdown: %w", err))
		}
		if len(errs) > 0 {
			shutdownErr = fmt.Errorf("otelbridge shutdown errors: %v", errs)
		}
	})
	return shutdownErr
}

// spanAdapter wraps an OpenTelemetry span to implement core.Span.
type spanAdapter struct {
	span trace.Span
}

func (s *spanAdapter) End() { s.span.End() }

func (s *spanAdapter) SetAttribute(key string, value interface{}) {
	switch v := value.(type) {
	case string:
		s.span.SetAttributes(attribute.String(key, v))
	case int:
		s.span.SetAttributes(attribute.Int(key, v))
	case int64:
		s.span.SetAttributes(attribute.Int64(key, v))
	case float64:
		s.span.SetAttributes(attribute.Float64(key, v))
	case bool:
		s.span.SetAttributes(attribute.Bool(key, v))
	default:
		s.span.SetAttributes(attribute.String(key, fmt.Sprintf("%v", v)))
	}
}

func (s *spanAdapter) RecordError(err error) { s.span.RecordError(err) }
