// Package middleware provides composable middleware for tool execution.
package middleware

import (
	"context"
	"encoding/json"

	"github.com/felixgeelhaar/gridbalancer/domain/agent"
	"github.com/felixgeelhaar/gridbalancer/domain/tool"
)

// ExecutionContext describes one tool call made by the control loop.
type ExecutionContext struct {
	// RunID is the unique identifier for the current run.
	RunID string
	// Step is the loop iteration that issued the call.
	Step int
	// CurrentState is the state the agent was in when it called the tool.
	CurrentState agent.State
	// Tool is the resolved tool being executed.
	Tool tool.Tool
	// Input is the JSON input for the tool.
	Input json.RawMessage
	// Reason is the planner's thought behind the call.
	Reason string
}

// Handler executes a tool and returns its result.
type Handler func(ctx context.Context, execCtx *ExecutionContext) (tool.Result, error)

// Middleware wraps a Handler with additional behavior. It may run code
// around next, short-circuit by not calling it, or rewrite the result.
type Middleware func(next Handler) Handler

// Chain composes middleware so that Chain(A, B, C)(h) runs A -> B -> C -> h.
func Chain(middlewares ...Middleware) Middleware {
	return func(final Handler) Handler {
		handler := final
		for i := len(middlewares) - 1; i >= 0; i-- {
			handler = middlewares[i](handler)
		}
		return handler
	}
}

// Noop returns a middleware that passes through.
func Noop() Middleware {
	return func(next Handler) Handler {
		return next
	}
}
