package domain

import (
	"time"
)

type LoadBalancingAlgorithm string

const (
	AlgorithmRoundRobin         LoadBalancingAlgorithm = "round_robin"
	AlgorithmLeastConnections   LoadBalancingAlgorithm = "least_connections"
	AlgorithmWeightedRoundRobin LoadBalancingAlgorithm = "weighted_round_robin"
	AlgorithmLeastResponseTime  LoadBalancingAlgorithm = "least_response_time"
	AlgorithmAdaptive           LoadBalancingAlgorithm = "adaptive"
)

func (a LoadBalancingAlgorithm) Valid() bool {
	switch a {
	case AlgorithmRoundRobin, AlgorithmLeastConnections, AlgorithmWeightedRoundRobin,
		AlgorithmLeastResponseTime, AlgorithmAdaptive:
		return true
	}
	return false
}

// LoadBalancingStrategy binds an algorithm and its parameters to an agent type.
type LoadBalancingStrategy struct {
	Algorithm LoadBalancingAlgorithm `json:"algorithm" yaml:"algorithm"`
	// Weights holds per-instance weights for weighted_round_robin. Missing ids weigh 1.
	Weights    map[string]float64     `json:"weights,omitempty" yaml:"weights,omitempty"`
	Parameters map[string]interface{} `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

type ResourceRequirements struct {
	CPU     float64 `json:"cpu" yaml:"cpu"`
	Memory  float64 `json:"memory" yaml:"memory"`
	Network float64 `json:"network" yaml:"network"`
}

// DispatchContext describes the unit of work a caller wants to run.
type DispatchContext struct {
	Priority               float64              `json:"priority"`
	EstimatedExecutionTime time.Duration        `json:"estimated_execution_time"`
	Requirements           ResourceRequirements `json:"resource_requirements"`
	UserID                 string               `json:"user_id,omitempty"`
	WorkspaceID            string               `json:"workspace_id,omitempty"`
	Query                  string               `json:"query,omitempty"`
}

type LoadBalancingDecision struct {
	AgentType         string                 `json:"agent_type"`
	Algorithm         LoadBalancingAlgorithm `json:"algorithm"`
	Instance          AgentInstance          `json:"instance"`
	Reasoning         string                 `json:"reasoning"`
	Confidence        float64                `json:"confidence"`
	EstimatedWaitTime time.Duration          `json:"estimated_wait_time"`
	Fallbacks         []AgentInstance        `json:"fallbacks"`
}

type ExecutionResult struct {
	Decision LoadBalancingDecision `json:"decision"`
	Output   interface{}           `json:"output,omitempty"`
	Duration time.Duration         `json:"duration"`
}
