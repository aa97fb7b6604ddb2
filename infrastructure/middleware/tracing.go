package middleware

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/gridbalancer/domain/middleware"
	"github.com/felixgeelhaar/gridbalancer/domain/tool"
	"github.com/felixgeelhaar/gridbalancer/infrastructure/observability"
)

// TracingConfig configures the tracing middleware.
type TracingConfig struct {
	// Tracer creates the spans. Calls pass through untraced when nil.
	Tracer trace.Tracer
	// RecordInput adds the tool input as a span attribute.
	RecordInput bool
	// MaxAttributeSize limits recorded attribute values. Defaults to 1024.
	MaxAttributeSize int
}

// Tracing returns middleware that wraps each tool call in an agent.tool span.
func Tracing(cfg TracingConfig) middleware.Middleware {
	maxSize := cfg.MaxAttributeSize
	if maxSize <= 0 {
		maxSize = 1024
	}

	return func(next middleware.Handler) middleware.Handler {
		if cfg.Tracer == nil {
			return next
		}
		return func(ctx context.Context, execCtx *middleware.ExecutionContext) (tool.Result, error) {
			ctx, span := observability.StartTool(ctx, cfg.Tracer, execCtx.Tool.Name(), execCtx.CurrentState)

			annotations := execCtx.Tool.Annotations()
			attrs := []attribute.KeyValue{
				observability.AttrRunID.String(execCtx.RunID),
				observability.AttrStep.Int(execCtx.Step),
				attribute.Bool("tool.read_only", annotations.ReadOnly),
				attribute.Bool("tool.mutates_world", annotations.MutatesWorld),
				attribute.String("tool.risk_level", annotations.RiskLevel.String()),
			}
			if execCtx.Reason != "" {
				attrs = append(attrs, attribute.String("tool.reason", truncate(execCtx.Reason, maxSize)))
			}
			if cfg.RecordInput && len(execCtx.Input) > 0 {
				attrs = append(attrs, attribute.String("tool.input", truncate(string(execCtx.Input), maxSize)))
			}
			span.SetAttributes(attrs...)

			result, err := next(ctx, execCtx)
			if err == nil {
				span.SetAttributes(attribute.Int64("tool.duration_ms", result.Duration.Milliseconds()))
			}
			observability.End(span, err)
			return result, err
		}
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
