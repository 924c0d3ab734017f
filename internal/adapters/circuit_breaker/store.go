package circuit_breaker

import (
	"context"
	"log/slog"

	"github.com/sony/gobreaker/v2"

	"github.com/eleven-am/agentpool/internal/domain"
	"github.com/eleven-am/agentpool/internal/ports"
)

// GuardedStore routes every call to the inner pattern store through a
// circuit breaker so a failing store fails fast.
type GuardedStore struct {
	inner   ports.PatternStore
	breaker *gobreaker.CircuitBreaker[any]
	name    string
}

func NewGuardedStore(inner ports.PatternStore, cfg domain.CircuitBreakerConfig, logger *slog.Logger) *GuardedStore {
	if logger == nil {
		logger = slog.Default()
	}
	name := "pattern-store"

	return &GuardedStore{
		inner:   inner,
		breaker: newBreaker(name, cfg, logger.With("component", "circuit-breaker")),
		name:    name,
	}
}

func (s *GuardedStore) RecentPatterns(ctx context.Context, query domain.PatternQuery) ([]domain.InteractionPattern, error) {
	result, err := s.breaker.Execute(func() (any, error) {
		return s.inner.RecentPatterns(ctx, query)
	})
	if err != nil {
		return nil, wrapBreakerError(s.name, err)
	}
	patterns, _ := result.([]domain.InteractionPattern)
	return patterns, nil
}

func (s *GuardedStore) CountPatterns(ctx context.Context, query domain.PatternQuery) (int, error) {
	result, err := s.breaker.Execute(func() (any, error) {
		return s.inner.CountPatterns(ctx, query)
	})
	if err != nil {
		return 0, wrapBreakerError(s.name, err)
	}
	count, _ := result.(int)
	return count, nil
}

func (s *GuardedStore) AppendPatterns(ctx context.Context, patterns []domain.InteractionPattern) error {
	_, err := s.breaker.Execute(func() (any, error) {
		return nil, s.inner.AppendPatterns(ctx, patterns)
	})
	return wrapBreakerError(s.name, err)
}

func (s *GuardedStore) SaveSolution(ctx context.Context, solution *domain.ColdStartSolution) error {
	_, err := s.breaker.Execute(func() (any, error) {
		return nil, s.inner.SaveSolution(ctx, solution)
	})
	return wrapBreakerError(s.name, err)
}

func (s *GuardedStore) LoadSolution(ctx context.Context, id string) (*domain.ColdStartSolution, error) {
	result, err := s.breaker.Execute(func() (any, error) {
		return s.inner.LoadSolution(ctx, id)
	})
	if err != nil {
		return nil, wrapBreakerError(s.name, err)
	}
	solution, _ := result.(*domain.ColdStartSolution)
	return solution, nil
}

func (s *GuardedStore) State() gobreaker.State {
	return s.breaker.State()
}
