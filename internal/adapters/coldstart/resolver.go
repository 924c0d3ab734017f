package coldstart

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/eleven-am/agentpool/internal/adapters/similarity"
	"github.com/eleven-am/agentpool/internal/adapters/tracing"
	"github.com/eleven-am/agentpool/internal/domain"
	"github.com/eleven-am/agentpool/internal/ports"
)

// WorkspaceMatcher ranks workspaces similar to the given one.
type WorkspaceMatcher interface {
	FindSimilarWorkspaces(ctx context.Context, workspaceID string, threshold float64) ([]domain.SimilarityMatch, error)
}

// Resolver produces an execution policy for workspaces and users with
// little or no history. None of its public operations fail: internal
// errors are logged and a degraded solution is returned instead.
type Resolver struct {
	store     ports.PatternStore
	matcher   WorkspaceMatcher
	generator *SyntheticGenerator
	config    domain.ColdStartConfig
	logger    *slog.Logger
	tracer    trace.Tracer
	cache     *solutionCache
	stats     resolverStats

	now func() time.Time
}

type branch struct {
	name string
	run  func(ctx context.Context, workspaceID, userID, query string) (*domain.ColdStartSolution, error)
}

func NewResolver(store ports.PatternStore, matcher WorkspaceMatcher, generator *SyntheticGenerator, config domain.ColdStartConfig, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}

	defaults := domain.DefaultColdStartConfig()
	if config.SimilarityThreshold <= 0 {
		config.SimilarityThreshold = defaults.SimilarityThreshold
	}
	if config.TransferPatternLimit <= 0 {
		config.TransferPatternLimit = defaults.TransferPatternLimit
	}
	if config.UserPatternLimit <= 0 {
		config.UserPatternLimit = defaults.UserPatternLimit
	}
	if config.CandidateUserPatternLimit <= 0 {
		config.CandidateUserPatternLimit = defaults.CandidateUserPatternLimit
	}
	if config.SimilarUserPatternLimit <= 0 {
		config.SimilarUserPatternLimit = defaults.SimilarUserPatternLimit
	}
	if config.FallbackStrategyCount <= 0 {
		config.FallbackStrategyCount = defaults.FallbackStrategyCount
	}
	if config.SparsityThreshold <= 0 {
		config.SparsityThreshold = defaults.SparsityThreshold
	}
	if config.SyntheticRecordCount <= 0 {
		config.SyntheticRecordCount = defaults.SyntheticRecordCount
	}
	if config.DefaultQueryLength <= 0 {
		config.DefaultQueryLength = defaults.DefaultQueryLength
	}
	if generator == nil {
		generator = NewSyntheticGenerator(config.SyntheticWindow, uint64(time.Now().UnixNano()))
	}

	return &Resolver{
		store:     store,
		matcher:   matcher,
		generator: generator,
		config:    config,
		logger:    logger.With("component", "cold-start"),
		tracer:    tracing.NoopTracer(),
		cache:     newSolutionCache(),
		now:       time.Now,
	}
}

// Stats returns the resolver's counters since construction.
func (r *Resolver) Stats() domain.ColdStartStats {
	return r.stats.snapshot()
}

// SetTracer routes resolver spans to tracer. Call it before the resolver
// serves traffic; nil restores the noop tracer.
func (r *Resolver) SetTracer(tracer trace.Tracer) {
	if tracer == nil {
		tracer = tracing.NoopTracer()
	}
	r.tracer = tracer
}

// GetColdStartSolution returns the cached solution for the workspace and
// user, or resolves, caches and persists a new one.
func (r *Resolver) GetColdStartSolution(ctx context.Context, workspaceID, userID, query string) *domain.ColdStartSolution {
	ctx, span := tracing.StartSpan(ctx, r.tracer, "agentpool.coldstart.resolve",
		tracing.StringAttr("workspace_id", workspaceID),
		tracing.StringAttr("user_id", userID))
	defer span.End()

	key := domain.SolutionKey(workspaceID, userID)
	if cached, ok := r.cachedCopy(key); ok {
		r.stats.cacheHit()
		span.SetAttributes(tracing.StringAttr("solution_type", string(cached.SolutionType)))
		return cached
	}

	unlock := r.cache.lockKey(key)
	defer unlock()

	if cached, ok := r.cachedCopy(key); ok {
		r.stats.cacheHit()
		return cached
	}

	solution := r.resolve(ctx, workspaceID, userID, query)
	if solution == nil {
		r.logger.Warn("every cold start branch failed, using minimal solution",
			"workspace_id", workspaceID,
			"user_id", userID)
		span.SetAttributes(tracing.StringAttr("solution_type", "minimal"))
		r.stats.resolved("minimal")
		return minimalSolution(workspaceID, userID, r.now())
	}

	r.persist(ctx, solution)
	e := r.cache.store(key, solution)
	r.stats.resolved(string(solution.SolutionType))

	r.logger.Info("cold start solution created",
		"workspace_id", workspaceID,
		"user_id", userID,
		"solution_id", solution.ID,
		"solution_type", solution.SolutionType,
		"effectiveness", solution.EffectivenessScore)
	span.SetAttributes(tracing.StringAttr("solution_type", string(solution.SolutionType)))
	tracing.SetOK(span)

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.solution.Clone()
}

func (r *Resolver) cachedCopy(key string) (*domain.ColdStartSolution, bool) {
	e, ok := r.cache.lookupKey(key)
	if !ok {
		return nil, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.solution.Clone(), true
}

func (r *Resolver) resolve(ctx context.Context, workspaceID, userID, query string) *domain.ColdStartSolution {
	branches := []branch{
		{name: "transfer_learning", run: r.transferLearning},
		{name: "similar_user", run: r.similarUser},
		{name: "default_strategy", run: r.defaultStrategy},
	}

	for _, b := range branches {
		solution, err := r.attempt(ctx, b, workspaceID, userID, query)
		if err != nil {
			r.logger.Warn("cold start branch failed",
				"branch", b.name,
				"workspace_id", workspaceID,
				"user_id", userID,
				"error", err)
			continue
		}
		if solution != nil {
			return solution
		}
	}
	return nil
}

func (r *Resolver) attempt(ctx context.Context, b branch, workspaceID, userID, query string) (solution *domain.ColdStartSolution, err error) {
	defer func() {
		if p := recover(); p != nil {
			solution = nil
			err = fmt.Errorf("branch %s panicked: %v", b.name, p)
		}
	}()
	return b.run(ctx, workspaceID, userID, query)
}

func (r *Resolver) transferLearning(ctx context.Context, workspaceID, userID, query string) (*domain.ColdStartSolution, error) {
	if r.matcher == nil || r.store == nil {
		return nil, nil
	}

	matches, err := r.matcher.FindSimilarWorkspaces(ctx, workspaceID, r.config.SimilarityThreshold)
	if err != nil {
		return nil, fmt.Errorf("find similar workspaces: %w", err)
	}
	if len(matches) == 0 {
		return nil, nil
	}
	best := matches[0]

	patterns, err := r.store.RecentPatterns(ctx, domain.PatternQuery{
		WorkspaceID: best.WorkspaceID,
		SuccessOnly: true,
		Limit:       r.config.TransferPatternLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("load patterns of %s: %w", best.WorkspaceID, err)
	}
	if len(patterns) == 0 {
		return nil, nil
	}

	solution := r.borrowedSolution(workspaceID, userID, query, domain.SolutionTransferLearning, transferEffectiveness, patterns)
	solution.SourceWorkspaceID = best.WorkspaceID
	solution.SimilarityScore = best.Score
	return solution, nil
}

func (r *Resolver) similarUser(ctx context.Context, workspaceID, userID, query string) (*domain.ColdStartSolution, error) {
	if userID == "" || r.store == nil {
		return nil, nil
	}

	own, err := r.store.RecentPatterns(ctx, domain.PatternQuery{
		UserID: userID,
		Limit:  r.config.UserPatternLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("load patterns of user %s: %w", userID, err)
	}
	if len(own) == 0 {
		return nil, nil
	}

	others, err := r.store.RecentPatterns(ctx, domain.PatternQuery{
		ExcludeUserID: userID,
		Limit:         r.config.CandidateUserPatternLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("load candidate user patterns: %w", err)
	}

	matches := similarity.RankUsers(own, others, r.config.SimilarityThreshold)
	if len(matches) == 0 {
		return nil, nil
	}
	best := matches[0]

	patterns, err := r.store.RecentPatterns(ctx, domain.PatternQuery{
		UserID:      best.UserID,
		SuccessOnly: true,
		Limit:       r.config.SimilarUserPatternLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("load patterns of user %s: %w", best.UserID, err)
	}
	if len(patterns) == 0 {
		return nil, nil
	}

	solution := r.borrowedSolution(workspaceID, userID, query, domain.SolutionSimilarWorkspace, similarUserEffectiveness, patterns)
	solution.SourceUserID = best.UserID
	solution.SourceWorkspaceID = patterns[0].WorkspaceID
	solution.SimilarityScore = best.Score
	return solution, nil
}

func (r *Resolver) defaultStrategy(ctx context.Context, workspaceID, userID, query string) (*domain.ColdStartSolution, error) {
	now := r.now()
	return newSolution(workspaceID, userID, domain.SolutionDefaultStrategy, defaultEffectiveness, domain.SolutionData{
		Features:            defaultFeatures(query, r.config.DefaultQueryLength, now),
		Prediction:          defaultPrediction(),
		FallbackStrategies:  append([]string(nil), defaultFallbackStrategies...),
		ConfidenceThreshold: defaultConfidenceThreshold,
	}, now), nil
}

// borrowedSolution builds a default feature/prediction pair whose strategy
// and fallbacks come from the borrowed patterns.
func (r *Resolver) borrowedSolution(workspaceID, userID, query string, solutionType domain.SolutionType, effectiveness float64, patterns []domain.InteractionPattern) *domain.ColdStartSolution {
	now := r.now()
	strategies := similarity.TopStrategies(patterns, r.config.FallbackStrategyCount)

	prediction := defaultPrediction()
	if len(strategies) > 0 {
		prediction.Strategy = strategies[0]
	} else {
		strategies = []string{StrategyStandardProcessing}
	}

	return newSolution(workspaceID, userID, solutionType, effectiveness, domain.SolutionData{
		Features:            defaultFeatures(query, r.config.DefaultQueryLength, now),
		Prediction:          prediction,
		FallbackStrategies:  strategies,
		ConfidenceThreshold: defaultConfidenceThreshold,
	}, now)
}

func (r *Resolver) persist(ctx context.Context, solution *domain.ColdStartSolution) {
	if r.store == nil {
		return
	}
	if err := r.store.SaveSolution(ctx, solution.Clone()); err != nil {
		r.logger.Error("failed to persist cold start solution",
			"solution_id", solution.ID,
			"workspace_id", solution.WorkspaceID,
			"error", err)
	}
}

// UpdateSolutionEffectiveness folds one feedback sample into the solution's
// effectiveness score. It returns nil when the solution is unknown.
func (r *Resolver) UpdateSolutionEffectiveness(ctx context.Context, solutionID string, success bool, satisfaction *float64) *domain.ColdStartSolution {
	ctx, span := tracing.StartSpan(ctx, r.tracer, "agentpool.coldstart.feedback",
		tracing.StringAttr("solution_id", solutionID))
	defer span.End()

	e, ok := r.cache.lookupID(solutionID)
	if !ok {
		loaded := r.load(ctx, solutionID)
		if loaded == nil {
			r.logger.Warn("feedback for unknown cold start solution", "solution_id", solutionID)
			return nil
		}
		e = r.cache.adopt(loaded)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	r.stats.feedback()
	previous := e.solution.EffectivenessScore
	e.solution.EffectivenessScore, e.solution.UsageCount = nextEffectiveness(previous, e.solution.UsageCount, success, satisfaction)
	e.solution.UpdatedAt = r.now()

	r.persist(ctx, e.solution)

	r.logger.Debug("cold start solution effectiveness updated",
		"solution_id", solutionID,
		"previous", previous,
		"effectiveness", e.solution.EffectivenessScore,
		"usage_count", e.solution.UsageCount)
	span.SetAttributes(tracing.FloatAttr("effectiveness", e.solution.EffectivenessScore))
	tracing.SetOK(span)

	return e.solution.Clone()
}

func (r *Resolver) load(ctx context.Context, solutionID string) *domain.ColdStartSolution {
	if r.store == nil {
		return nil
	}
	solution, err := r.store.LoadSolution(ctx, solutionID)
	if err != nil {
		if !domain.IsNotFound(err) {
			r.logger.Warn("failed to load cold start solution", "solution_id", solutionID, "error", err)
		}
		return nil
	}
	return solution
}

// HandleDataSparsity checks whether the workspace and user have enough real
// history. Sparse history is padded with synthetic patterns.
func (r *Resolver) HandleDataSparsity(ctx context.Context, workspaceID, userID, queryType string) domain.SparsityResult {
	ctx, span := tracing.StartSpan(ctx, r.tracer, "agentpool.coldstart.sparsity",
		tracing.StringAttr("workspace_id", workspaceID),
		tracing.StringAttr("query_type", queryType))
	defer span.End()

	result, err := r.handleDataSparsity(ctx, workspaceID, userID, queryType)
	if err != nil {
		r.logger.Warn("data sparsity check failed, using minimal solution",
			"workspace_id", workspaceID,
			"user_id", userID,
			"error", err)
		tracing.RecordError(span, err)
		r.stats.sparsity(true)
		return domain.SparsityResult{
			Sparse:     true,
			Confidence: minimalEffectiveness,
			Solution:   minimalSolution(workspaceID, userID, r.now()),
		}
	}

	span.SetAttributes(
		tracing.IntAttr("pattern_count", result.PatternCount),
		tracing.FloatAttr("confidence", result.Confidence))
	tracing.SetOK(span)
	r.stats.sparsity(result.Sparse)
	return result
}

func (r *Resolver) handleDataSparsity(ctx context.Context, workspaceID, userID, queryType string) (domain.SparsityResult, error) {
	if r.store == nil {
		return domain.SparsityResult{}, fmt.Errorf("%w: pattern store not configured", domain.ErrInvalidConfig)
	}

	count, err := r.store.CountPatterns(ctx, domain.PatternQuery{
		WorkspaceID: workspaceID,
		UserID:      userID,
		QueryIntent: queryType,
	})
	if err != nil {
		return domain.SparsityResult{}, fmt.Errorf("count patterns: %w", err)
	}

	if count >= r.config.SparsityThreshold {
		return domain.SparsityResult{
			Sparse:       false,
			PatternCount: count,
			Confidence:   denseConfidence,
			Solution:     r.GetColdStartSolution(ctx, workspaceID, userID, ""),
		}, nil
	}

	synthetic := r.generator.Generate(workspaceID, userID, queryType, r.config.SyntheticRecordCount)
	if err := r.store.AppendPatterns(ctx, synthetic); err != nil {
		return domain.SparsityResult{}, fmt.Errorf("append synthetic patterns: %w", err)
	}

	now := r.now()
	prediction := defaultPrediction()
	prediction.Confidence = syntheticEffectiveness
	features := defaultFeatures("", r.config.DefaultQueryLength, now)
	if queryType != "" {
		features.QueryIntent = queryType
	}

	fallbacks := similarity.TopStrategies(synthetic, r.config.FallbackStrategyCount)
	if len(fallbacks) == 0 {
		fallbacks = append([]string(nil), defaultFallbackStrategies...)
	}

	solution := newSolution(workspaceID, userID, domain.SolutionSyntheticData, syntheticEffectiveness, domain.SolutionData{
		Features:            features,
		Prediction:          prediction,
		FallbackStrategies:  fallbacks,
		ConfidenceThreshold: defaultConfidenceThreshold,
	}, now)

	r.persist(ctx, solution)
	r.cache.store("", solution)
	r.stats.resolved(string(solution.SolutionType))

	r.logger.Info("sparse history padded with synthetic patterns",
		"workspace_id", workspaceID,
		"user_id", userID,
		"pattern_count", count,
		"synthetic", len(synthetic))

	return domain.SparsityResult{
		Sparse:            true,
		PatternCount:      count,
		Confidence:        syntheticEffectiveness,
		Solution:          solution.Clone(),
		SyntheticPatterns: synthetic,
	}, nil
}
