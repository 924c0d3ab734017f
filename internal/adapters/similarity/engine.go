package similarity

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/eleven-am/agentpool/internal/domain"
	"github.com/eleven-am/agentpool/internal/ports"
)

// Engine scores workspaces against each other using the directory and the
// interaction history.
type Engine struct {
	directory ports.WorkspaceDirectory
	store     ports.PatternStore
	config    domain.ColdStartConfig
	logger    *slog.Logger
}

// profile is everything one workspace contributes to a comparison.
type profile struct {
	workspace       domain.Workspace
	connectionTypes []string
	patterns        []domain.InteractionPattern
	rated           []domain.InteractionPattern
}

func NewEngine(directory ports.WorkspaceDirectory, store ports.PatternStore, config domain.ColdStartConfig, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}

	defaults := domain.DefaultColdStartConfig()
	if config.CandidateWorkspaceLimit <= 0 {
		config.CandidateWorkspaceLimit = defaults.CandidateWorkspaceLimit
	}
	if config.ComparisonPatternLimit <= 0 {
		config.ComparisonPatternLimit = defaults.ComparisonPatternLimit
	}
	if config.FallbackStrategyCount <= 0 {
		config.FallbackStrategyCount = defaults.FallbackStrategyCount
	}

	return &Engine{
		directory: directory,
		store:     store,
		config:    config,
		logger:    logger.With("component", "similarity"),
	}
}

// CompareWorkspaces scores candidate against subject.
func (e *Engine) CompareWorkspaces(ctx context.Context, subject, candidate domain.Workspace) (domain.SimilarityMatch, error) {
	left, err := e.loadProfile(ctx, subject)
	if err != nil {
		return domain.SimilarityMatch{}, err
	}
	right, err := e.loadProfile(ctx, candidate)
	if err != nil {
		return domain.SimilarityMatch{}, err
	}
	return e.compare(left, right), nil
}

// FindSimilarWorkspaces returns candidates scoring above threshold, best first.
// A candidate that cannot be loaded is skipped.
func (e *Engine) FindSimilarWorkspaces(ctx context.Context, workspaceID string, threshold float64) ([]domain.SimilarityMatch, error) {
	if e.directory == nil {
		return nil, fmt.Errorf("%w: workspace directory not configured", domain.ErrInvalidConfig)
	}

	subject, err := e.directory.GetWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("load workspace %s: %w", workspaceID, err)
	}

	left, err := e.loadProfile(ctx, *subject)
	if err != nil {
		return nil, err
	}

	candidates, err := e.directory.ListWorkspaces(ctx, workspaceID, e.config.CandidateWorkspaceLimit)
	if err != nil {
		return nil, fmt.Errorf("list candidate workspaces: %w", err)
	}

	matches := make([]domain.SimilarityMatch, 0, len(candidates))
	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if candidate.ID == workspaceID {
			continue
		}

		right, err := e.loadProfile(ctx, candidate)
		if err != nil {
			e.logger.Warn("skipping candidate workspace",
				"workspace_id", workspaceID,
				"candidate_id", candidate.ID,
				"error", err)
			continue
		}

		match := e.compare(left, right)
		if match.Score > threshold {
			matches = append(matches, match)
		}
	}

	sortMatches(matches)

	e.logger.Debug("similar workspaces ranked",
		"workspace_id", workspaceID,
		"candidates", len(candidates),
		"matches", len(matches))

	return matches, nil
}

func (e *Engine) compare(subject, candidate *profile) domain.SimilarityMatch {
	factors := domain.SimilarityFactors{
		Domain:       DomainSimilarity(subject.workspace, candidate.workspace),
		QueryPattern: PatternSimilarity(subject.patterns, candidate.patterns),
		DataSource:   DataSourceSimilarity(subject.connectionTypes, candidate.connectionTypes),
		UserBehavior: UserBehaviorSimilarity(subject.rated, candidate.rated),
	}

	return domain.SimilarityMatch{
		WorkspaceID:            candidate.workspace.ID,
		Score:                  OverallScore(factors),
		Factors:                factors,
		TransferableStrategies: TopStrategies(candidate.patterns, e.config.FallbackStrategyCount),
	}
}

func (e *Engine) loadProfile(ctx context.Context, workspace domain.Workspace) (*profile, error) {
	p := &profile{workspace: workspace}

	if e.directory != nil {
		types, err := e.directory.ConnectionTypes(ctx, workspace.ID)
		if err != nil {
			return nil, fmt.Errorf("connection types for %s: %w", workspace.ID, err)
		}
		p.connectionTypes = types
	}

	if e.store == nil {
		return p, nil
	}

	patterns, err := e.store.RecentPatterns(ctx, domain.PatternQuery{
		WorkspaceID: workspace.ID,
		Limit:       e.config.ComparisonPatternLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("patterns for %s: %w", workspace.ID, err)
	}
	p.patterns = patterns

	rated, err := e.store.RecentPatterns(ctx, domain.PatternQuery{
		WorkspaceID: workspace.ID,
		RatedOnly:   true,
		Limit:       e.config.ComparisonPatternLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("rated patterns for %s: %w", workspace.ID, err)
	}
	p.rated = rated

	return p, nil
}
