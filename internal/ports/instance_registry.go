package ports

import (
	"time"

	"github.com/eleven-am/agentpool/internal/domain"
)

// InstanceRegistry is the per-agent-type instance collection shared by the
// scheduler and the health monitor.
type InstanceRegistry interface {
	Register(agentType string, instance domain.AgentInstance) error
	Unregister(agentType, id string) error

	AgentTypes() []string
	Snapshot(agentType string) []domain.AgentInstance
	SnapshotAll() []domain.AgentInstance

	// Update applies fn to one instance under that agent type's lock.
	// fn returns false to leave the instance untouched.
	Update(agentType, id string, fn func(instance *domain.AgentInstance) bool) (bool, error)
}

// MetricsSink receives recomputed system metrics.
type MetricsSink interface {
	Recompute(now time.Time) domain.SystemMetrics
}
