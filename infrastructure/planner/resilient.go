package planner

import (
	"context"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"
)

// ResilientProvider wraps a provider with retry and a circuit breaker.
type ResilientProvider struct {
	inner   Provider
	breaker circuitbreaker.CircuitBreaker[CompletionResponse]
	retry   retry.Retry[CompletionResponse]
}

// ResilienceConfig tunes ResilientProvider.
type ResilienceConfig struct {
	MaxAttempts      int
	InitialDelay     time.Duration
	Multiplier       float64
	FailureThreshold int
	OpenTimeout      time.Duration
}

// DefaultResilienceConfig returns three attempts with exponential backoff
// and a breaker that opens after five consecutive failures.
func DefaultResilienceConfig() ResilienceConfig {
	return ResilienceConfig{
		MaxAttempts:      3,
		InitialDelay:     500 * time.Millisecond,
		Multiplier:       2.0,
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
	}
}

// NewResilientProvider wraps inner.
func NewResilientProvider(inner Provider, config ResilienceConfig) *ResilientProvider {
	attempts := config.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	threshold := config.FailureThreshold
	if threshold <= 0 {
		threshold = 5
	}

	return &ResilientProvider{
		inner: inner,
		breaker: circuitbreaker.New[CompletionResponse](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    config.OpenTimeout,
			Timeout:     config.OpenTimeout,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= uint32(threshold) // #nosec G115 -- bounds checked above
			},
		}),
		retry: retry.New[CompletionResponse](retry.Config{
			MaxAttempts:   attempts,
			InitialDelay:  config.InitialDelay,
			BackoffPolicy: retry.BackoffExponential,
			Multiplier:    config.Multiplier,
		}),
	}
}

// Name returns the wrapped provider's name.
func (p *ResilientProvider) Name() string {
	return p.inner.Name()
}

// Complete implements the Provider interface. API errors carried in the
// response count as failures.
func (p *ResilientProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	return p.breaker.Execute(ctx, func(ctx context.Context) (CompletionResponse, error) {
		return p.retry.Do(ctx, func(ctx context.Context) (CompletionResponse, error) {
			resp, err := p.inner.Complete(ctx, req)
			if err == nil && resp.Error != nil {
				return resp, resp.Error
			}
			return resp, err
		})
	})
}

// State returns the circuit breaker state.
func (p *ResilientProvider) State() circuitbreaker.State {
	return p.breaker.State()
}
