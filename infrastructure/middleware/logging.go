package middleware

import (
	"context"
	"time"

	"github.com/felixgeelhaar/gridbalancer/domain/middleware"
	"github.com/felixgeelhaar/gridbalancer/domain/tool"
	"github.com/felixgeelhaar/gridbalancer/infrastructure/logging"
)

// LoggingConfig configures the logging middleware.
type LoggingConfig struct {
	// LogInput logs the tool input.
	LogInput bool
	// LogOutput logs the tool output, truncated to 500 bytes.
	LogOutput bool
}

// Logging returns middleware that writes a diagnostic log line per tool call.
func Logging(cfg LoggingConfig) middleware.Middleware {
	return func(next middleware.Handler) middleware.Handler {
		return func(ctx context.Context, execCtx *middleware.ExecutionContext) (tool.Result, error) {
			start := time.Now()

			entry := logging.Debug().
				Add(logging.RunID(execCtx.RunID)).
				Add(logging.Step(execCtx.Step)).
				Add(logging.State(execCtx.CurrentState)).
				Add(logging.ToolName(execCtx.Tool.Name()))
			if cfg.LogInput && len(execCtx.Input) > 0 {
				entry = entry.Add(logging.Str("input", string(execCtx.Input)))
			}
			entry.Msg("executing tool")

			result, err := next(ctx, execCtx)
			duration := time.Since(start)

			if err != nil {
				logging.Warn().
					Add(logging.RunID(execCtx.RunID)).
					Add(logging.ToolName(execCtx.Tool.Name())).
					Add(logging.ErrorField(err)).
					Add(logging.Duration(duration)).
					Msg("tool execution failed")
				return result, err
			}

			done := logging.Debug().
				Add(logging.RunID(execCtx.RunID)).
				Add(logging.ToolName(execCtx.Tool.Name())).
				Add(logging.Duration(duration))
			if cfg.LogOutput && len(result.Output) > 0 {
				output := string(result.Output)
				if len(output) > 500 {
					output = output[:500] + "..."
				}
				done = done.Add(logging.Str("output", output))
			}
			done.Msg("tool executed")

			return result, nil
		}
	}
}
