package domain

import (
	"time"
)

type InstanceStatus string

const (
	InstanceStatusIdle        InstanceStatus = "idle"
	InstanceStatusBusy        InstanceStatus = "busy"
	InstanceStatusError       InstanceStatus = "error"
	InstanceStatusMaintenance InstanceStatus = "maintenance"
)

// AgentInstance is one running worker behind a logical agent type.
type AgentInstance struct {
	ID              string         `json:"id" yaml:"id"`
	AgentType       string         `json:"agent_type" yaml:"agent_type"`
	Status          InstanceStatus `json:"status" yaml:"status"`
	CurrentLoad     float64        `json:"current_load" yaml:"current_load"`
	MaxLoad         float64        `json:"max_load" yaml:"max_load"`
	ResponseTime    float64        `json:"response_time_ms" yaml:"response_time_ms"`
	SuccessRate     float64        `json:"success_rate" yaml:"success_rate"`
	LastUsed        time.Time      `json:"last_used" yaml:"last_used"`
	TotalExecutions int64          `json:"total_executions" yaml:"total_executions"`
	ErrorCount      int64          `json:"error_count" yaml:"error_count"`
	// InFlight counts dispatches currently running on the instance.
	InFlight int64 `json:"in_flight" yaml:"-"`
}

// Selectable reports whether the instance may receive new work.
func (i *AgentInstance) Selectable() bool {
	return i.Status == InstanceStatusIdle || i.Status == InstanceStatusBusy
}

// LoadRatio is CurrentLoad/MaxLoad. An instance without capacity counts as saturated.
func (i *AgentInstance) LoadRatio() float64 {
	if i.MaxLoad <= 0 {
		return 1
	}
	return i.CurrentLoad / i.MaxLoad
}

// NewAgentInstance returns an idle instance with neutral rolling metrics.
func NewAgentInstance(id, agentType string, maxLoad float64) AgentInstance {
	return AgentInstance{
		ID:           id,
		AgentType:    agentType,
		Status:       InstanceStatusIdle,
		MaxLoad:      maxLoad,
		ResponseTime: 0,
		SuccessRate:  1.0,
	}
}
