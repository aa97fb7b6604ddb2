// Package resilience runs grid tools behind fortify's bulkhead, circuit
// breaker and retry.
package resilience

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"

	"github.com/felixgeelhaar/gridbalancer/domain/tool"
)

// Executor runs tools with a shared bulkhead and one circuit breaker per
// tool, so a failing dispatch cannot block forecasting.
type Executor struct {
	config   ExecutorConfig
	bulkhead bulkhead.Bulkhead[tool.Result]
	retry    retry.Retry[tool.Result]

	mu       sync.Mutex
	breakers map[string]circuitbreaker.CircuitBreaker[tool.Result]
}

// ExecutorConfig configures the resilient executor.
type ExecutorConfig struct {
	// MaxConcurrent limits concurrent tool executions.
	MaxConcurrent int

	// CircuitBreakerThreshold is the number of consecutive failures before
	// a tool's circuit opens.
	CircuitBreakerThreshold int

	// CircuitBreakerTimeout is how long a circuit stays open.
	CircuitBreakerTimeout time.Duration

	// RetryMaxAttempts applies to retryable tools only.
	RetryMaxAttempts int

	RetryInitialDelay      time.Duration
	RetryBackoffMultiplier float64

	// Timeout bounds a single execution.
	Timeout time.Duration
}

// DefaultExecutorConfig returns the defaults used by the engine.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		MaxConcurrent:           4,
		CircuitBreakerThreshold: 5,
		CircuitBreakerTimeout:   30 * time.Second,
		RetryMaxAttempts:        3,
		RetryInitialDelay:       50 * time.Millisecond,
		RetryBackoffMultiplier:  2.0,
		Timeout:                 10 * time.Second,
	}
}

// NewExecutor creates a new resilient executor.
func NewExecutor(config ExecutorConfig) *Executor {
	def := DefaultExecutorConfig()
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = def.MaxConcurrent
	}
	if config.CircuitBreakerThreshold <= 0 {
		config.CircuitBreakerThreshold = def.CircuitBreakerThreshold
	}
	if config.RetryMaxAttempts <= 0 {
		config.RetryMaxAttempts = 1
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}

	return &Executor{
		config: config,
		bulkhead: bulkhead.New[tool.Result](bulkhead.Config{
			MaxConcurrent: config.MaxConcurrent,
		}),
		retry: retry.New[tool.Result](retry.Config{
			MaxAttempts:   config.RetryMaxAttempts,
			InitialDelay:  config.RetryInitialDelay,
			BackoffPolicy: retry.BackoffExponential,
			Multiplier:    config.RetryBackoffMultiplier,
		}),
		breakers: make(map[string]circuitbreaker.CircuitBreaker[tool.Result]),
	}
}

// NewDefaultExecutor creates an executor with default configuration.
func NewDefaultExecutor() *Executor {
	return NewExecutor(DefaultExecutorConfig())
}

func (e *Executor) breakerFor(name string) circuitbreaker.CircuitBreaker[tool.Result] {
	e.mu.Lock()
	defer e.mu.Unlock()

	if cb, ok := e.breakers[name]; ok {
		return cb
	}
	threshold := uint32(e.config.CircuitBreakerThreshold) // #nosec G115 -- positive, checked in NewExecutor
	cb := circuitbreaker.New[tool.Result](circuitbreaker.Config{
		MaxRequests: 1,
		Interval:    e.config.CircuitBreakerTimeout,
		Timeout:     e.config.CircuitBreakerTimeout,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
	})
	e.breakers[name] = cb
	return cb
}

// Execute runs a tool.
// Composition order: Bulkhead → Timeout → Circuit Breaker → Retry (retryable tools only)
func (e *Executor) Execute(ctx context.Context, t tool.Tool, input json.RawMessage) (tool.Result, error) {
	start := time.Now()
	breaker := e.breakerFor(t.Name())

	result, err := e.bulkhead.Execute(ctx, func(ctx context.Context) (tool.Result, error) {
		ctx, cancel := context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()

		return breaker.Execute(ctx, func(ctx context.Context) (tool.Result, error) {
			if t.Annotations().Retryable() {
				return e.retry.Do(ctx, func(ctx context.Context) (tool.Result, error) {
					return t.Execute(ctx, input)
				})
			}
			return t.Execute(ctx, input)
		})
	})

	if err == nil {
		result.Duration = time.Since(start)
	}
	return result, err
}

// CircuitBreakerState returns the state of a tool's circuit. Tools that
// never ran report closed.
func (e *Executor) CircuitBreakerState(toolName string) circuitbreaker.State {
	return e.breakerFor(toolName).State()
}
