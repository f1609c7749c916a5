package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/sirupsen/logrus"
)

// RetryConfig configures Retry.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	// RetryIf selects retryable errors. Defaults to every error except
	// context cancellation.
	RetryIf func(err error) bool
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  50 * time.Millisecond,
		MaxDelay:   2 * time.Second,
	}
}

func normalizeRetryConfig(cfg RetryConfig) RetryConfig {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 50 * time.Millisecond
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = cfg.BaseDelay
	}
	if cfg.RetryIf == nil {
		cfg.RetryIf = func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}
	}
	return cfg
}

// Retry re-runs the rest of the pipeline when it fails. The final failure
// is returned unwrapped.
func Retry(cfg RetryConfig) *Middleware {
	cfg = normalizeRetryConfig(cfg)
	policy := retrypolicy.NewBuilder[any]().
		WithBackoff(cfg.BaseDelay, cfg.MaxDelay).
		WithMaxRetries(cfg.MaxRetries).
		WithJitterFactor(0.1).
		HandleIf(func(_ any, err error) bool {
			return err != nil && cfg.RetryIf(err)
		}).
		ReturnLastFailure().
		Build()
	executor := failsafe.With[any](policy)
	return New("retry", func(ctx context.Context, next Next, _ *Options) (any, error) {
		return executor.WithContext(ctx).Get(func() (any, error) {
			return next(ctx)
		})
	})
}

// CircuitBreakerConfig configures CircuitBreaker.
type CircuitBreakerConfig struct {
	Name string
	// FailureThreshold failures within Window executions open the circuit.
	FailureThreshold uint
	Window           uint
	// Delay is how long the circuit stays open before half-opening.
	Delay  time.Duration
	Logger logrus.FieldLogger
}

// CircuitBreaker rejects calls with circuitbreaker.ErrOpen while the
// downstream keeps failing.
func CircuitBreaker(cfg CircuitBreakerConfig) *Middleware {
	if cfg.Name == "" {
		cfg.Name = "circuit-breaker"
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Window < cfg.FailureThreshold {
		cfg.Window = cfg.FailureThreshold
	}
	if cfg.Delay <= 0 {
		cfg.Delay = 15 * time.Second
	}
	builder := circuitbreaker.NewBuilder[any]().
		WithFailureThresholdRatio(cfg.FailureThreshold, cfg.Window).
		WithDelay(cfg.Delay).
		WithSuccessThreshold(1)
	if cfg.Logger != nil {
		builder = builder.OnStateChanged(func(event circuitbreaker.StateChangedEvent) {
			cfg.Logger.WithFields(logrus.Fields{
				"circuit_breaker": cfg.Name,
				"from_state":      stateName(event.OldState),
				"to_state":        stateName(event.NewState),
			}).Warn("circuit breaker state change")
		})
	}
	executor := failsafe.With[any](builder.Build())
	return New(cfg.Name, func(ctx context.Context, next Next, _ *Options) (any, error) {
		return executor.WithContext(ctx).Get(func() (any, error) {
			return next(ctx)
		})
	})
}

func stateName(s circuitbreaker.State) string {
	switch s {
	case circuitbreaker.ClosedState:
		return "closed"
	case circuitbreaker.HalfOpenState:
		return "half-open"
	case circuitbreaker.OpenState:
		return "open"
	}
	return "unknown"
}
