// Package telemetry records OpenTelemetry metrics for agent runs.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Instrument names.
const (
	MetricSteps              = "gridbalancer.agent.steps"
	MetricTransitions        = "gridbalancer.agent.transitions"
	MetricStabilityRedirects = "gridbalancer.agent.stability_redirects"
	MetricToolCalls          = "gridbalancer.tool.calls"
	MetricToolDuration       = "gridbalancer.tool.duration"
	MetricPlannerCalls       = "gridbalancer.planner.calls"
	MetricPlannerFallbacks   = "gridbalancer.planner.fallbacks"
	MetricPlannerDuration    = "gridbalancer.planner.duration"
	MetricStepDuration       = "gridbalancer.agent.step.duration"
	MetricRunDuration        = "gridbalancer.agent.run.duration"
	MetricActiveRuns         = "gridbalancer.agent.runs.active"
)

// MetricsProvider provides access to metrics instruments.
type MetricsProvider struct {
	meter metric.Meter

	steps              metric.Int64Counter
	transitions        metric.Int64Counter
	stabilityRedirects metric.Int64Counter
	toolCalls          metric.Int64Counter
	plannerCalls       metric.Int64Counter
	plannerFallbacks   metric.Int64Counter

	toolDuration    metric.Float64Histogram
	plannerDuration metric.Float64Histogram
	stepDuration    metric.Float64Histogram
	runDuration     metric.Float64Histogram

	activeRuns metric.Int64UpDownCounter

	initErr error
}

// MetricsConfig configures the metrics provider.
type MetricsConfig struct {
	// MeterName is the instrumentation scope name.
	MeterName string
	// MeterVersion is the instrumentation scope version.
	MeterVersion string
	// Provider supplies the meter. The global provider is used when nil.
	Provider metric.MeterProvider
}

// DefaultMetricsConfig returns a default metrics configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		MeterName:    "github.com/felixgeelhaar/gridbalancer",
		MeterVersion: "0.1.0",
	}
}

// NewMetricsProvider creates a new metrics provider.
func NewMetricsProvider(config MetricsConfig) *MetricsProvider {
	defaults := DefaultMetricsConfig()
	if config.MeterName == "" {
		config.MeterName = defaults.MeterName
	}
	if config.MeterVersion == "" {
		config.MeterVersion = defaults.MeterVersion
	}

	provider := config.Provider
	if provider == nil {
		provider = otel.GetMeterProvider()
	}

	mp := &MetricsProvider{
		meter: provider.Meter(config.MeterName, metric.WithInstrumentationVersion(config.MeterVersion)),
	}
	mp.initErr = mp.initInstruments()
	return mp
}

func (mp *MetricsProvider) initInstruments() error {
	var err error

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&mp.steps, MetricSteps, "Number of agent loop steps", "{step}"},
		{&mp.transitions, MetricTransitions, "Number of state transitions", "{transition}"},
		{&mp.stabilityRedirects, MetricStabilityRedirects, "Terminations redirected to adjustment", "{redirect}"},
		{&mp.toolCalls, MetricToolCalls, "Number of tool executions", "{call}"},
		{&mp.plannerCalls, MetricPlannerCalls, "Number of planner decisions", "{call}"},
		{&mp.plannerFallbacks, MetricPlannerFallbacks, "Planner decisions that fell back", "{call}"},
	}
	for _, c := range counters {
		*c.dst, err = mp.meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			return err
		}
	}

	histograms := []struct {
		dst  *metric.Float64Histogram
		name string
		desc string
	}{
		{&mp.toolDuration, MetricToolDuration, "Tool execution duration"},
		{&mp.plannerDuration, MetricPlannerDuration, "Planner decision latency"},
		{&mp.stepDuration, MetricStepDuration, "Agent step duration"},
		{&mp.runDuration, MetricRunDuration, "Agent run duration"},
	}
	for _, h := range histograms {
		*h.dst, err = mp.meter.Float64Histogram(h.name, metric.WithDescription(h.desc), metric.WithUnit("ms"))
		if err != nil {
			return err
		}
	}

	mp.activeRuns, err = mp.meter.Int64UpDownCounter(
		MetricActiveRuns,
		metric.WithDescription("Runs currently in progress"),
		metric.WithUnit("{run}"),
	)
	return err
}

// Error returns any error from instrument creation.
func (mp *MetricsProvider) Error() error {
	return mp.initErr
}

func (mp *MetricsProvider) ready() bool {
	return mp != nil && mp.initErr == nil
}

// RecordStep records one loop iteration in the given state.
func (mp *MetricsProvider) RecordStep(ctx context.Context, state string, duration time.Duration) {
	if !mp.ready() {
		return
	}
	attrs := metric.WithAttributes(attribute.String("state", state))
	mp.steps.Add(ctx, 1, attrs)
	mp.stepDuration.Record(ctx, millis(duration), attrs)
}

// RecordTransition records a state change.
func (mp *MetricsProvider) RecordTransition(ctx context.Context, from, to string) {
	if !mp.ready() {
		return
	}
	mp.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from_state", from),
		attribute.String("to_state", to),
	))
}

// RecordStabilityRedirect records a termination that the stability gate refused.
func (mp *MetricsProvider) RecordStabilityRedirect(ctx context.Context) {
	if !mp.ready() {
		return
	}
	mp.stabilityRedirects.Add(ctx, 1)
}

// RecordToolCall records a tool execution.
func (mp *MetricsProvider) RecordToolCall(ctx context.Context, toolName, state string, success bool, duration time.Duration) {
	if !mp.ready() {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("tool", toolName),
		attribute.String("state", state),
		attribute.Bool("success", success),
	)
	mp.toolCalls.Add(ctx, 1, attrs)
	mp.toolDuration.Record(ctx, millis(duration), attrs)
}

// RecordPlan records a planner decision. Fallback decisions are also
// counted separately.
func (mp *MetricsProvider) RecordPlan(ctx context.Context, provider, state string, fallback bool, duration time.Duration) {
	if !mp.ready() {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("state", state),
	)
	mp.plannerCalls.Add(ctx, 1, attrs)
	mp.plannerDuration.Record(ctx, millis(duration), attrs)
	if fallback {
		mp.plannerFallbacks.Add(ctx, 1, attrs)
	}
}

// RunStarted increments the active run gauge.
func (mp *MetricsProvider) RunStarted(ctx context.Context) {
	if !mp.ready() {
		return
	}
	mp.activeRuns.Add(ctx, 1)
}

// RunFinished decrements the active run gauge and records the run duration.
func (mp *MetricsProvider) RunFinished(ctx context.Context, scenario int, status string, duration time.Duration) {
	if !mp.ready() {
		return
	}
	mp.activeRuns.Add(ctx, -1)
	mp.runDuration.Record(ctx, millis(duration), metric.WithAttributes(
		attribute.Int("scenario", scenario),
		attribute.String("status", status),
	))
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
