// Package observability wires OpenTelemetry tracing and in-process metrics
// collection for agent runs.
package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/felixgeelhaar/gridbalancer/domain/config"
)

// ServiceName identifies this process in exported telemetry.
const ServiceName = "gridbalancer"

// ErrUnknownExporter is returned for an unrecognised telemetry.exporter value.
var ErrUnknownExporter = errors.New("unknown trace exporter type")

// Provider owns the tracer and meter providers for one process.
type Provider struct {
	cfg            config.TelemetryConfig
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	meterProvider  *sdkmetric.MeterProvider
	reader         *sdkmetric.ManualReader
	shutdownFuncs  []func(context.Context) error
}

type options struct {
	version  string
	writer   io.Writer
	exporter sdktrace.SpanExporter
	global   bool
}

// Option configures a Provider.
type Option func(*options)

// WithServiceVersion sets the service.version resource attribute.
func WithServiceVersion(v string) Option {
	return func(o *options) { o.version = v }
}

// WithWriter sets where the stdout exporter writes spans. Defaults to stderr.
func WithWriter(w io.Writer) Option {
	return func(o *options) { o.writer = w }
}

// WithSpanExporter replaces the configured exporter. Spans are exported
// synchronously.
func WithSpanExporter(exp sdktrace.SpanExporter) Option {
	return func(o *options) { o.exporter = exp }
}

// WithGlobal installs the providers as the process-wide otel defaults.
func WithGlobal() Option {
	return func(o *options) { o.global = true }
}

// New creates a provider from the telemetry configuration. Tracing is a
// no-op unless cfg.Tracing is set and the exporter is not "none"; metrics
// are always collected in-process and can be read back with Collect.
func New(ctx context.Context, cfg config.TelemetryConfig, opts ...Option) (*Provider, error) {
	o := options{version: "dev", writer: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(o.version),
	)

	p := &Provider{cfg: cfg, tracer: noop.NewTracerProvider().Tracer(ServiceName)}

	p.reader = sdkmetric.NewManualReader()
	p.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(p.reader),
		sdkmetric.WithResource(res),
	)
	p.shutdownFuncs = append(p.shutdownFuncs, p.meterProvider.Shutdown)

	if cfg.Tracing && (cfg.Exporter != config.ExporterNone || o.exporter != nil) {
		if err := p.setupTracing(ctx, res, o); err != nil {
			_ = p.Shutdown(ctx)
			return nil, err
		}
	}

	if o.global {
		if p.tracerProvider != nil {
			otel.SetTracerProvider(p.tracerProvider)
		}
		otel.SetMeterProvider(p.meterProvider)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
	}

	return p, nil
}

func (p *Provider) setupTracing(ctx context.Context, res *resource.Resource, o options) error {
	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(p.cfg.SampleRatio)),
	}

	switch {
	case o.exporter != nil:
		tpOpts = append(tpOpts, sdktrace.WithSyncer(o.exporter))

	case p.cfg.Exporter == config.ExporterOTLP:
		exp, err := otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(p.cfg.Endpoint),
			otlptracegrpc.WithInsecure(),
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
		if err != nil {
			return fmt.Errorf("otlp exporter: %w", err)
		}
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exp))

	case p.cfg.Exporter == config.ExporterStdout || p.cfg.Exporter == "":
		exp, err := stdouttrace.New(
			stdouttrace.WithWriter(o.writer),
			stdouttrace.WithPrettyPrint(),
		)
		if err != nil {
			return fmt.Errorf("stdout exporter: %w", err)
		}
		tpOpts = append(tpOpts, sdktrace.WithSyncer(exp))

	default:
		return fmt.Errorf("%w: %s", ErrUnknownExporter, p.cfg.Exporter)
	}

	p.tracerProvider = sdktrace.NewTracerProvider(tpOpts...)
	p.tracer = p.tracerProvider.Tracer(ServiceName)
	p.shutdownFuncs = append(p.shutdownFuncs, p.tracerProvider.Shutdown)
	return nil
}

func sampler(ratio float64) sdktrace.Sampler {
	switch {
	case ratio >= 1 || ratio == 0:
		return sdktrace.AlwaysSample()
	case ratio < 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}
}

// NewNoop returns a provider that records nothing.
func NewNoop() *Provider {
	p, _ := New(context.Background(), config.TelemetryConfig{})
	return p
}

// TracingEnabled reports whether spans are exported.
func (p *Provider) TracingEnabled() bool {
	return p.tracerProvider != nil
}

// Tracer returns the run tracer.
func (p *Provider) Tracer() trace.Tracer {
	return p.tracer
}

// MeterProvider returns the in-process meter provider.
func (p *Provider) MeterProvider() metric.MeterProvider {
	return p.meterProvider
}

// Collect reads the current metric values.
func (p *Provider) Collect(ctx context.Context) (metricdata.ResourceMetrics, error) {
	var rm metricdata.ResourceMetrics
	err := p.reader.Collect(ctx, &rm)
	return rm, err
}

// Shutdown flushes exporters and releases resources.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(p.shutdownFuncs) - 1; i >= 0; i-- {
		if err := p.shutdownFuncs[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	p.shutdownFuncs = nil
	return errors.Join(errs...)
}
