// Package middleware provides the tool-call middleware used by the control
// loop.
package middleware

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/gridbalancer/domain/middleware"
	"github.com/felixgeelhaar/gridbalancer/domain/policy"
	"github.com/felixgeelhaar/gridbalancer/domain/tool"
)

// EligibilityConfig configures the eligibility middleware.
type EligibilityConfig struct {
	// Eligibility defines which tools are allowed in which states.
	Eligibility *policy.ToolEligibility
}

// Eligibility returns middleware that blocks tools not allowed in the
// current state with tool.ErrToolNotAllowed.
func Eligibility(cfg EligibilityConfig) middleware.Middleware {
	return func(next middleware.Handler) middleware.Handler {
		return func(ctx context.Context, execCtx *middleware.ExecutionContext) (tool.Result, error) {
			if cfg.Eligibility == nil {
				return next(ctx, execCtx)
			}

			if !cfg.Eligibility.IsAllowed(execCtx.CurrentState, execCtx.Tool.Name()) {
				return tool.Result{}, fmt.Errorf("%w: %s in state %s",
					tool.ErrToolNotAllowed, execCtx.Tool.Name(), execCtx.CurrentState)
			}

			return next(ctx, execCtx)
		}
	}
}
