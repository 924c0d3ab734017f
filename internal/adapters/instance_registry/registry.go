package instance_registry

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/eleven-am/agentpool/internal/domain"
)

// group holds the instances of one agent type. Its mutex serializes every
// load and status change for that type.
type group struct {
	mu        sync.Mutex
	instances map[string]*domain.AgentInstance
}

// Registry keeps one group per agent type. The outer lock only guards the
// group map, so dispatches for different agent types never contend.
type Registry struct {
	mu     sync.RWMutex
	groups map[string]*group
	logger *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	return &Registry{
		groups: make(map[string]*group),
		logger: logger.With("component", "instance-registry"),
	}
}

func (r *Registry) Register(agentType string, instance domain.AgentInstance) error {
	if agentType == "" {
		return fmt.Errorf("%w: agent type cannot be empty", domain.ErrInvalidInput)
	}
	if instance.ID == "" {
		return fmt.Errorf("%w: instance id cannot be empty", domain.ErrInvalidInput)
	}
	if instance.Status == "" {
		instance.Status = domain.InstanceStatusIdle
	}
	if instance.CurrentLoad < 0 {
		instance.CurrentLoad = 0
	}
	instance.AgentType = agentType

	g := r.getOrCreateGroup(agentType)

	g.mu.Lock()
	_, replaced := g.instances[instance.ID]
	stored := instance
	g.instances[instance.ID] = &stored
	count := len(g.instances)
	g.mu.Unlock()

	r.logger.Info("agent instance registered",
		"agent_type", agentType,
		"instance_id", instance.ID,
		"replaced", replaced,
		"group_size", count)

	return nil
}

func (r *Registry) Unregister(agentType, id string) error {
	g := r.getGroup(agentType)
	if g == nil {
		r.logger.Warn("attempt to unregister from unknown agent type", "agent_type", agentType, "instance_id", id)
		return fmt.Errorf("%w: %s/%s", domain.ErrInstanceNotFound, agentType, id)
	}

	g.mu.Lock()
	_, exists := g.instances[id]
	if exists {
		delete(g.instances, id)
	}
	g.mu.Unlock()

	if !exists {
		r.logger.Warn("attempt to unregister non-existent instance", "agent_type", agentType, "instance_id", id)
		return fmt.Errorf("%w: %s/%s", domain.ErrInstanceNotFound, agentType, id)
	}

	r.logger.Info("agent instance unregistered", "agent_type", agentType, "instance_id", id)
	return nil
}

func (r *Registry) AgentTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.groups))
	for agentType := range r.groups {
		types = append(types, agentType)
	}
	sort.Strings(types)
	return types
}

// Snapshot copies the instances of one agent type, ordered by id.
func (r *Registry) Snapshot(agentType string) []domain.AgentInstance {
	g := r.getGroup(agentType)
	if g == nil {
		return nil
	}

	g.mu.Lock()
	instances := make([]domain.AgentInstance, 0, len(g.instances))
	for _, instance := range g.instances {
		instances = append(instances, *instance)
	}
	g.mu.Unlock()

	sort.Slice(instances, func(i, j int) bool {
		return instances[i].ID < instances[j].ID
	})
	return instances
}

func (r *Registry) SnapshotAll() []domain.AgentInstance {
	var all []domain.AgentInstance
	for _, agentType := range r.AgentTypes() {
		all = append(all, r.Snapshot(agentType)...)
	}
	return all
}

func (r *Registry) Get(agentType, id string) (domain.AgentInstance, bool) {
	g := r.getGroup(agentType)
	if g == nil {
		return domain.AgentInstance{}, false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	instance, exists := g.instances[id]
	if !exists {
		return domain.AgentInstance{}, false
	}
	return *instance, true
}

func (r *Registry) Update(agentType, id string, fn func(instance *domain.AgentInstance) bool) (bool, error) {
	g := r.getGroup(agentType)
	if g == nil {
		return false, fmt.Errorf("%w: %s/%s", domain.ErrInstanceNotFound, agentType, id)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	instance, exists := g.instances[id]
	if !exists {
		return false, fmt.Errorf("%w: %s/%s", domain.ErrInstanceNotFound, agentType, id)
	}

	working := *instance
	if !fn(&working) {
		return false, nil
	}
	if working.CurrentLoad < 0 {
		working.CurrentLoad = 0
	}
	*instance = working
	return true, nil
}

func (r *Registry) Count(agentType string) int {
	g := r.getGroup(agentType)
	if g == nil {
		return 0
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.instances)
}

func (r *Registry) getGroup(agentType string) *group {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.groups[agentType]
}

func (r *Registry) getOrCreateGroup(agentType string) *group {
	if g := r.getGroup(agentType); g != nil {
		return g
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if g, exists := r.groups[agentType]; exists {
		return g
	}

	g := &group{instances: make(map[string]*domain.AgentInstance)}
	r.groups[agentType] = g
	return g
}
