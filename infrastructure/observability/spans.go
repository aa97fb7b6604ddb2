package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/gridbalancer/domain/agent"
)

// Span names.
const (
	SpanRun  = "agent.run"
	SpanStep = "agent.step"
	SpanPlan = "agent.plan"
	SpanTool = "agent.tool"
)

// Attribute keys.
const (
	AttrRunID    = attribute.Key("gridbalancer.run_id")
	AttrScenario = attribute.Key("gridbalancer.scenario")
	AttrStep     = attribute.Key("gridbalancer.step")
	AttrState    = attribute.Key("gridbalancer.state")
	AttrTool     = attribute.Key("gridbalancer.tool")
	AttrAction   = attribute.Key("gridbalancer.action")
	AttrTarget   = attribute.Key("gridbalancer.target")
	AttrFallback = attribute.Key("gridbalancer.fallback")
	AttrStatus   = attribute.Key("gridbalancer.status")
)

// StartRun opens the root span of a run.
func StartRun(ctx context.Context, tracer trace.Tracer, runID string, scenario int) (context.Context, trace.Span) {
	return tracer.Start(ctx, SpanRun,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(AttrRunID.String(runID), AttrScenario.Int(scenario)),
	)
}

// StartStep opens a span for one loop iteration.
func StartStep(ctx context.Context, tracer trace.Tracer, step int, state agent.State) (context.Context, trace.Span) {
	return tracer.Start(ctx, SpanStep,
		trace.WithAttributes(AttrStep.Int(step), AttrState.String(state.String())),
	)
}

// StartPlan opens a span around a planner call.
func StartPlan(ctx context.Context, tracer trace.Tracer, state agent.State) (context.Context, trace.Span) {
	return tracer.Start(ctx, SpanPlan,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(AttrState.String(state.String())),
	)
}

// StartTool opens a span around a tool execution.
func StartTool(ctx context.Context, tracer trace.Tracer, name string, state agent.State) (context.Context, trace.Span) {
	return tracer.Start(ctx, SpanTool,
		trace.WithAttributes(AttrTool.String(name), AttrState.String(state.String())),
	)
}

// AnnotateDecision attaches a decision's action and target to span.
func AnnotateDecision(span trace.Span, d agent.Decision, fallback bool) {
	span.SetAttributes(
		AttrAction.String(string(d.ActionType)),
		AttrTarget.String(d.Target),
		AttrFallback.Bool(fallback),
	)
}

// End records err on span, if any, and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
