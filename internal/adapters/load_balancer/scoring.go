package load_balancer

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/eleven-am/agentpool/internal/domain"
)

type AdaptiveWeights struct {
	Load     float64
	Latency  float64
	Success  float64
	Priority float64
	Capacity float64

	// LatencyCeilingMs is the response time treated as fully slow.
	LatencyCeilingMs float64
	// PriorityCeiling is the priority treated as maximal.
	PriorityCeiling float64
}

var DefaultAdaptiveWeights = AdaptiveWeights{
	Load:             0.30,
	Latency:          0.25,
	Success:          0.25,
	Priority:         0.10,
	Capacity:         0.10,
	LatencyCeilingMs: 5000,
	PriorityCeiling:  100,
}

// AdaptiveScore keeps the weighted contribution of each factor.
type AdaptiveScore struct {
	Load     float64
	Latency  float64
	Success  float64
	Priority float64
	Capacity float64
	Total    float64
}

func (s AdaptiveScore) Reasoning() string {
	return fmt.Sprintf("adaptive score %.3f (load %.3f, latency %.3f, success %.3f, priority %.3f, capacity %.3f)",
		s.Total, s.Load, s.Latency, s.Success, s.Priority, s.Capacity)
}

func (w AdaptiveWeights) Score(instance *domain.AgentInstance, dispatch domain.DispatchContext) AdaptiveScore {
	latencyCeiling := w.LatencyCeilingMs
	if latencyCeiling <= 0 {
		latencyCeiling = DefaultAdaptiveWeights.LatencyCeilingMs
	}
	priorityCeiling := w.PriorityCeiling
	if priorityCeiling <= 0 {
		priorityCeiling = DefaultAdaptiveWeights.PriorityCeiling
	}

	score := AdaptiveScore{
		Load:     w.Load * freeCapacity(instance),
		Latency:  w.Latency * (1 - math.Min(sanitizeFloat64(instance.ResponseTime, latencyCeiling)/latencyCeiling, 1)),
		Success:  w.Success * clamp(sanitizeFloat64(instance.SuccessRate, 0), 0, 1),
		Priority: w.Priority * clamp(dispatch.Priority/priorityCeiling, 0, 1),
		Capacity: w.Capacity * headroomFor(instance, dispatch.Requirements.CPU),
	}
	score.Total = score.Load + score.Latency + score.Success + score.Priority + score.Capacity
	return score
}

// freeCapacity is 1 − CurrentLoad/MaxLoad bounded to [0,1].
func freeCapacity(instance *domain.AgentInstance) float64 {
	return clamp(1-sanitizeFloat64(instance.LoadRatio(), 1), 0, 1)
}

// headroomFor is how many times the requested cpu fits in the remaining capacity, capped at 1.
func headroomFor(instance *domain.AgentInstance, cpu float64) float64 {
	remaining := instance.MaxLoad - instance.CurrentLoad
	if cpu <= 0 {
		if remaining > 0 {
			return 1
		}
		return 0
	}
	return clamp(remaining/cpu, 0, 1)
}

// confidence is 1 for a lone candidate, otherwise 0.5 plus bonuses for beating the candidate averages.
func confidence(selected domain.AgentInstance, candidates []domain.AgentInstance) float64 {
	if len(candidates) <= 1 {
		return 1.0
	}

	var totalLoad, totalResponse, totalSuccess float64
	for _, c := range candidates {
		totalLoad += c.CurrentLoad
		totalResponse += c.ResponseTime
		totalSuccess += c.SuccessRate
	}
	n := float64(len(candidates))

	result := 0.5
	if selected.CurrentLoad < totalLoad/n {
		result += 0.2
	}
	if selected.ResponseTime < totalResponse/n {
		result += 0.2
	}
	if selected.SuccessRate > totalSuccess/n {
		result += 0.1
	}
	return clamp(result, 0, 1)
}

func estimatedWait(selected domain.AgentInstance, dispatch domain.DispatchContext) time.Duration {
	if selected.Status == domain.InstanceStatusIdle {
		return 0
	}
	ratio := clamp(sanitizeFloat64(selected.LoadRatio(), 1), 0, math.MaxFloat64)
	return time.Duration(float64(dispatch.EstimatedExecutionTime) * ratio)
}

// fallbacks returns the lowest-load candidates other than the selected one.
func fallbacks(selected domain.AgentInstance, candidates []domain.AgentInstance, count int) []domain.AgentInstance {
	remaining := make([]domain.AgentInstance, 0, len(candidates))
	for _, c := range candidates {
		if c.ID != selected.ID {
			remaining = append(remaining, c)
		}
	}

	sort.SliceStable(remaining, func(i, j int) bool {
		if remaining[i].CurrentLoad == remaining[j].CurrentLoad {
			return remaining[i].ID < remaining[j].ID
		}
		return remaining[i].CurrentLoad < remaining[j].CurrentLoad
	})

	if count < len(remaining) {
		remaining = remaining[:count]
	}
	return remaining
}

func buildDecision(agentType string, algorithm domain.LoadBalancingAlgorithm, selection Selection, candidates []domain.AgentInstance, dispatch domain.DispatchContext, fallbackCount int) *domain.LoadBalancingDecision {
	return &domain.LoadBalancingDecision{
		AgentType:         agentType,
		Algorithm:         algorithm,
		Instance:          selection.Instance,
		Reasoning:         selection.Reasoning,
		Confidence:        confidence(selection.Instance, candidates),
		EstimatedWaitTime: estimatedWait(selection.Instance, dispatch),
		Fallbacks:         fallbacks(selection.Instance, candidates, fallbackCount),
	}
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func sanitizeFloat64(value, defaultValue float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return defaultValue
	}
	return value
}
