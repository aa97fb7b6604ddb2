package middleware

import (
	"context"
	"time"

	"github.com/felixgeelhaar/gridbalancer/domain/middleware"
	"github.com/felixgeelhaar/gridbalancer/domain/tool"
	"github.com/felixgeelhaar/gridbalancer/infrastructure/telemetry"
)

// Metrics returns middleware that counts tool calls and their latency.
// A nil provider disables recording.
func Metrics(mp *telemetry.MetricsProvider) middleware.Middleware {
	return func(next middleware.Handler) middleware.Handler {
		if mp == nil {
			return next
		}
		return func(ctx context.Context, execCtx *middleware.ExecutionContext) (tool.Result, error) {
			start := time.Now()
			result, err := next(ctx, execCtx)
			mp.RecordToolCall(ctx, execCtx.Tool.Name(), execCtx.CurrentState.String(), err == nil, time.Since(start))
			return result, err
		}
	}
}
