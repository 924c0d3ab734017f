package load_balancer

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/eleven-am/agentpool/internal/domain"
)

// Strategy picks exactly one instance from a non-empty set of selectable candidates.
type Strategy interface {
	Algorithm() domain.LoadBalancingAlgorithm
	SelectInstance(ctx context.Context, candidates []domain.AgentInstance, dispatch domain.DispatchContext) (Selection, error)
}

type Selection struct {
	Instance  domain.AgentInstance
	Score     float64
	Reasoning string
}

func NewStrategy(config domain.LoadBalancingStrategy, logger *slog.Logger) (Strategy, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch config.Algorithm {
	case domain.AlgorithmRoundRobin:
		return NewRoundRobinStrategy(logger), nil
	case domain.AlgorithmLeastConnections:
		return NewLeastConnectionsStrategy(logger), nil
	case domain.AlgorithmWeightedRoundRobin:
		return NewWeightedRoundRobinStrategy(config.Weights, logger), nil
	case domain.AlgorithmLeastResponseTime:
		return NewLeastResponseTimeStrategy(logger), nil
	case domain.AlgorithmAdaptive, "":
		return NewAdaptiveStrategy(DefaultAdaptiveWeights, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownAlgorithm, config.Algorithm)
	}
}

// RoundRobinStrategy rotates through instances by picking the least recently used one.
type RoundRobinStrategy struct {
	logger *slog.Logger
}

func NewRoundRobinStrategy(logger *slog.Logger) *RoundRobinStrategy {
	return &RoundRobinStrategy{
		logger: logger,
	}
}

func (rr *RoundRobinStrategy) Algorithm() domain.LoadBalancingAlgorithm {
	return domain.AlgorithmRoundRobin
}

func (rr *RoundRobinStrategy) SelectInstance(ctx context.Context, candidates []domain.AgentInstance, dispatch domain.DispatchContext) (Selection, error) {
	if len(candidates) == 0 {
		return Selection{}, domain.ErrNoEligibleInstances
	}

	selected := 0
	for i := 1; i < len(candidates); i++ {
		if olderThan(candidates[i], candidates[selected]) {
			selected = i
		}
	}

	rr.logger.Debug("round robin selection",
		"selected_instance", candidates[selected].ID,
		"last_used", candidates[selected].LastUsed,
		"total_candidates", len(candidates))

	return Selection{
		Instance:  candidates[selected],
		Reasoning: string(domain.AlgorithmRoundRobin),
	}, nil
}

func olderThan(a, b domain.AgentInstance) bool {
	if a.LastUsed.Equal(b.LastUsed) {
		return a.ID < b.ID
	}
	return a.LastUsed.Before(b.LastUsed)
}

// LeastConnectionsStrategy selects the instance carrying the least load.
type LeastConnectionsStrategy struct {
	logger *slog.Logger
}

func NewLeastConnectionsStrategy(logger *slog.Logger) *LeastConnectionsStrategy {
	return &LeastConnectionsStrategy{
		logger: logger,
	}
}

func (lc *LeastConnectionsStrategy) Algorithm() domain.LoadBalancingAlgorithm {
	return domain.AlgorithmLeastConnections
}

func (lc *LeastConnectionsStrategy) SelectInstance(ctx context.Context, candidates []domain.AgentInstance, dispatch domain.DispatchContext) (Selection, error) {
	if len(candidates) == 0 {
		return Selection{}, domain.ErrNoEligibleInstances
	}

	selected := argMin(candidates, func(i *domain.AgentInstance) float64 { return i.CurrentLoad })

	lc.logger.Debug("least connections selection",
		"selected_instance", candidates[selected].ID,
		"current_load", candidates[selected].CurrentLoad,
		"total_candidates", len(candidates))

	return Selection{
		Instance:  candidates[selected],
		Score:     candidates[selected].CurrentLoad,
		Reasoning: string(domain.AlgorithmLeastConnections),
	}, nil
}

// WeightedRoundRobinStrategy scores weight × free capacity × success rate.
type WeightedRoundRobinStrategy struct {
	weights map[string]float64
	logger  *slog.Logger
}

func NewWeightedRoundRobinStrategy(weights map[string]float64, logger *slog.Logger) *WeightedRoundRobinStrategy {
	copied := make(map[string]float64, len(weights))
	for id, weight := range weights {
		copied[id] = weight
	}

	return &WeightedRoundRobinStrategy{
		weights: copied,
		logger:  logger,
	}
}

func (wrr *WeightedRoundRobinStrategy) Algorithm() domain.LoadBalancingAlgorithm {
	return domain.AlgorithmWeightedRoundRobin
}

func (wrr *WeightedRoundRobinStrategy) weightFor(id string) float64 {
	if weight, ok := wrr.weights[id]; ok {
		return sanitizeFloat64(weight, 1)
	}
	return 1
}

func (wrr *WeightedRoundRobinStrategy) SelectInstance(ctx context.Context, candidates []domain.AgentInstance, dispatch domain.DispatchContext) (Selection, error) {
	if len(candidates) == 0 {
		return Selection{}, domain.ErrNoEligibleInstances
	}

	selected := argMax(candidates, func(i *domain.AgentInstance) float64 {
		return wrr.weightFor(i.ID) * freeCapacity(i) * i.SuccessRate
	})
	score := wrr.weightFor(candidates[selected].ID) * freeCapacity(&candidates[selected]) * candidates[selected].SuccessRate

	wrr.logger.Debug("weighted round robin selection",
		"selected_instance", candidates[selected].ID,
		"weight", wrr.weightFor(candidates[selected].ID),
		"score", score)

	return Selection{
		Instance:  candidates[selected],
		Score:     score,
		Reasoning: string(domain.AlgorithmWeightedRoundRobin),
	}, nil
}

// LeastResponseTimeStrategy selects the instance with the lowest smoothed latency.
type LeastResponseTimeStrategy struct {
	logger *slog.Logger
}

func NewLeastResponseTimeStrategy(logger *slog.Logger) *LeastResponseTimeStrategy {
	return &LeastResponseTimeStrategy{
		logger: logger,
	}
}

func (lrt *LeastResponseTimeStrategy) Algorithm() domain.LoadBalancingAlgorithm {
	return domain.AlgorithmLeastResponseTime
}

func (lrt *LeastResponseTimeStrategy) SelectInstance(ctx context.Context, candidates []domain.AgentInstance, dispatch domain.DispatchContext) (Selection, error) {
	if len(candidates) == 0 {
		return Selection{}, domain.ErrNoEligibleInstances
	}

	selected := argMin(candidates, func(i *domain.AgentInstance) float64 { return i.ResponseTime })

	lrt.logger.Debug("least response time selection",
		"selected_instance", candidates[selected].ID,
		"response_time_ms", candidates[selected].ResponseTime,
		"total_candidates", len(candidates))

	return Selection{
		Instance:  candidates[selected],
		Score:     candidates[selected].ResponseTime,
		Reasoning: string(domain.AlgorithmLeastResponseTime),
	}, nil
}

// AdaptiveStrategy combines load, latency, success, priority and headroom.
type AdaptiveStrategy struct {
	weights AdaptiveWeights
	logger  *slog.Logger
}

func NewAdaptiveStrategy(weights AdaptiveWeights, logger *slog.Logger) *AdaptiveStrategy {
	return &AdaptiveStrategy{
		weights: weights,
		logger:  logger,
	}
}

func (as *AdaptiveStrategy) Algorithm() domain.LoadBalancingAlgorithm {
	return domain.AlgorithmAdaptive
}

func (as *AdaptiveStrategy) SelectInstance(ctx context.Context, candidates []domain.AgentInstance, dispatch domain.DispatchContext) (Selection, error) {
	if len(candidates) == 0 {
		return Selection{}, domain.ErrNoEligibleInstances
	}

	var best AdaptiveScore
	bestIndex := -1
	bestScore := math.Inf(-1)

	for i := range candidates {
		score := as.weights.Score(&candidates[i], dispatch)
		if score.Total > bestScore {
			bestScore = score.Total
			best = score
			bestIndex = i
		}
	}

	selected := candidates[bestIndex]

	as.logger.Debug("adaptive selection",
		"selected_instance", selected.ID,
		"score", best.Total,
		"load_factor", best.Load,
		"latency_factor", best.Latency,
		"success_factor", best.Success)

	return Selection{
		Instance:  selected,
		Score:     best.Total,
		Reasoning: best.Reasoning(),
	}, nil
}

func argMin(candidates []domain.AgentInstance, value func(*domain.AgentInstance) float64) int {
	selected := 0
	for i := 1; i < len(candidates); i++ {
		if value(&candidates[i]) < value(&candidates[selected]) {
			selected = i
		}
	}
	return selected
}

func argMax(candidates []domain.AgentInstance, value func(*domain.AgentInstance) float64) int {
	selected := 0
	for i := 1; i < len(candidates); i++ {
		if value(&candidates[i]) > value(&candidates[selected]) {
			selected = i
		}
	}
	return selected
}
