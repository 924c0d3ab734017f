package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/eleven-am/agentpool/internal/domain"
)

// PatternStore keeps interaction patterns and cold start solutions in memory.
type PatternStore struct {
	mu        sync.RWMutex
	patterns  []domain.InteractionPattern
	solutions map[string]*domain.ColdStartSolution
	logger    *slog.Logger
}

func NewPatternStore(logger *slog.Logger) *PatternStore {
	if logger == nil {
		logger = slog.Default()
	}

	return &PatternStore{
		solutions: make(map[string]*domain.ColdStartSolution),
		logger:    logger.With("component", "memory-pattern-store"),
	}
}

func (s *PatternStore) RecentPatterns(ctx context.Context, query domain.PatternQuery) ([]domain.InteractionPattern, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.InteractionPattern, 0)
	// patterns is kept oldest first
	for i := len(s.patterns) - 1; i >= 0; i-- {
		if !query.Matches(&s.patterns[i]) {
			continue
		}
		result = append(result, clonePattern(s.patterns[i]))
		if query.Limit > 0 && len(result) >= query.Limit {
			break
		}
	}
	return result, nil
}

func (s *PatternStore) CountPatterns(ctx context.Context, query domain.PatternQuery) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for i := range s.patterns {
		if query.Matches(&s.patterns[i]) {
			count++
		}
	}
	return count, nil
}

func (s *PatternStore) AppendPatterns(ctx context.Context, patterns []domain.InteractionPattern) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for i := range patterns {
		if err := validatePattern(&patterns[i]); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range patterns {
		s.patterns = append(s.patterns, clonePattern(patterns[i]))
	}
	sort.SliceStable(s.patterns, func(i, j int) bool {
		return s.patterns[i].CreatedAt.Before(s.patterns[j].CreatedAt)
	})

	s.logger.Debug("patterns appended", "count", len(patterns), "total", len(s.patterns))
	return nil
}

func (s *PatternStore) SaveSolution(ctx context.Context, solution *domain.ColdStartSolution) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateSolution(solution); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.solutions[solution.ID] = solution.Clone()
	return nil
}

func (s *PatternStore) LoadSolution(ctx context.Context, id string) (*domain.ColdStartSolution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	solution, exists := s.solutions[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrSolutionNotFound, id)
	}
	return solution.Clone(), nil
}

func clonePattern(p domain.InteractionPattern) domain.InteractionPattern {
	if p.UserSatisfactionScore != nil {
		score := *p.UserSatisfactionScore
		p.UserSatisfactionScore = &score
	}
	return p
}
