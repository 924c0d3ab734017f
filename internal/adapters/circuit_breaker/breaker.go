package circuit_breaker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sony/gobreaker/v2"

	"github.com/eleven-am/agentpool/internal/domain"
)

// ErrCircuitOpen is returned when the breaker rejects a call without running it.
var ErrCircuitOpen = errors.New("circuit breaker is open")

func newBreaker(name string, cfg domain.CircuitBreakerConfig, logger *slog.Logger) *gobreaker.CircuitBreaker[any] {
	defaults := domain.DefaultCircuitBreakerConfig()
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaults.MaxFailures
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaults.Timeout
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaults.Interval
	}

	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String())
		},
		IsSuccessful: isSuccessful,
	})
}

// isSuccessful keeps caller-side outcomes from tripping the breaker.
func isSuccessful(err error) bool {
	return err == nil ||
		domain.IsNotFound(err) ||
		errors.Is(err, domain.ErrInvalidInput) ||
		errors.Is(err, context.Canceled)
}

func wrapBreakerError(name string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s: %w: %v", name, ErrCircuitOpen, err)
	}
	return err
}
