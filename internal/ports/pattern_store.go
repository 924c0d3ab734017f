package ports

import (
	"context"

	"github.com/eleven-am/agentpool/internal/domain"
)

// PatternStore is the historical interaction-pattern collaborator. It also
// persists cold start solutions.
type PatternStore interface {
	// RecentPatterns returns matching records, newest first, at most query.Limit when positive.
	RecentPatterns(ctx context.Context, query domain.PatternQuery) ([]domain.InteractionPattern, error)
	CountPatterns(ctx context.Context, query domain.PatternQuery) (int, error)
	AppendPatterns(ctx context.Context, patterns []domain.InteractionPattern) error

	SaveSolution(ctx context.Context, solution *domain.ColdStartSolution) error
	LoadSolution(ctx context.Context, id string) (*domain.ColdStartSolution, error)
}
