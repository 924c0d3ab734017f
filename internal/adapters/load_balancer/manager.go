package load_balancer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/eleven-am/agentpool/internal/adapters/tracing"
	"github.com/eleven-am/agentpool/internal/domain"
	"github.com/eleven-am/agentpool/internal/ports"
)

// Manager selects instances per agent type and wraps work units with the
// load and health bookkeeping of the chosen instance.
type Manager struct {
	registry ports.InstanceRegistry
	metrics  ports.MetricsSink
	config   domain.SchedulerConfig
	logger   *slog.Logger
	tracer   trace.Tracer

	mu         sync.RWMutex
	strategies map[string]Strategy
	bindings   map[string]domain.LoadBalancingStrategy
	fallback   Strategy

	now func() time.Time
}

func NewManager(registry ports.InstanceRegistry, metrics ports.MetricsSink, config domain.SchedulerConfig, logger *slog.Logger) (*Manager, error) {
	if registry == nil {
		return nil, fmt.Errorf("%w: instance registry is required", domain.ErrInvalidConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}

	defaults := domain.DefaultSchedulerConfig()
	if config.DefaultAlgorithm == "" {
		config.DefaultAlgorithm = defaults.DefaultAlgorithm
	}
	if config.FallbackCount <= 0 {
		config.FallbackCount = defaults.FallbackCount
	}
	if config.ClaimAttempts <= 0 {
		config.ClaimAttempts = defaults.ClaimAttempts
	}
	if config.Quarantine.ErrorCount <= 0 {
		config.Quarantine.ErrorCount = defaults.Quarantine.ErrorCount
	}
	if config.Quarantine.SuccessRate <= 0 {
		config.Quarantine.SuccessRate = defaults.Quarantine.SuccessRate
	}

	scoped := logger.With("component", "load-balancer")

	fallback, err := NewStrategy(domain.LoadBalancingStrategy{Algorithm: config.DefaultAlgorithm}, scoped)
	if err != nil {
		return nil, err
	}

	scoped.Info("initialized load balancing strategy", "algorithm", fallback.Algorithm())

	return &Manager{
		registry:   registry,
		metrics:    metrics,
		config:     config,
		logger:     scoped,
		tracer:     tracing.NoopTracer(),
		strategies: make(map[string]Strategy),
		bindings:   make(map[string]domain.LoadBalancingStrategy),
		fallback:   fallback,
		now:        time.Now,
	}, nil
}

// SetTracer routes select and execute spans to tracer. Call it before the
// manager serves traffic; nil restores the noop tracer.
func (m *Manager) SetTracer(tracer trace.Tracer) {
	if tracer == nil {
		tracer = tracing.NoopTracer()
	}
	m.tracer = tracer
}

func (m *Manager) RegisterAgentInstance(agentType string, instance domain.AgentInstance) error {
	if err := m.registry.Register(agentType, instance); err != nil {
		return err
	}
	m.recompute()
	return nil
}

func (m *Manager) UnregisterAgentInstance(agentType, id string) error {
	if err := m.registry.Unregister(agentType, id); err != nil {
		return err
	}
	m.recompute()
	return nil
}

// SetLoadBalancingStrategy binds a strategy to an agent type, replacing any
// previous binding wholesale.
func (m *Manager) SetLoadBalancingStrategy(agentType string, strategy domain.LoadBalancingStrategy) error {
	if agentType == "" {
		return fmt.Errorf("%w: agent type cannot be empty", domain.ErrInvalidInput)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bindLocked(agentType, strategy)
}

// MergeLoadBalancingStrategy overlays patch on the current binding of the
// agent type. Non-empty fields of patch win and weights are merged by key.
// Without a current binding it behaves like SetLoadBalancingStrategy.
func (m *Manager) MergeLoadBalancingStrategy(agentType string, patch domain.LoadBalancingStrategy) error {
	if agentType == "" {
		return fmt.Errorf("%w: agent type cannot be empty", domain.ErrInvalidInput)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	strategy := patch
	if current, ok := m.bindings[agentType]; ok {
		merged, err := domain.MergeStrategy(current, patch)
		if err != nil {
			return err
		}
		strategy = merged
	}
	return m.bindLocked(agentType, strategy)
}

func (m *Manager) bindLocked(agentType string, strategy domain.LoadBalancingStrategy) error {
	impl, err := NewStrategy(strategy, m.logger)
	if err != nil {
		return err
	}

	if strategy.Algorithm == "" {
		strategy.Algorithm = impl.Algorithm()
	}
	m.strategies[agentType] = impl
	m.bindings[agentType] = strategy

	m.logger.Info("load balancing strategy updated",
		"agent_type", agentType,
		"algorithm", impl.Algorithm())
	return nil
}

func (m *Manager) GetLoadBalancingStrategy(agentType string) domain.LoadBalancingStrategy {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if binding, ok := m.bindings[agentType]; ok {
		return binding
	}
	return domain.LoadBalancingStrategy{Algorithm: m.fallback.Algorithm()}
}

func (m *Manager) strategyFor(agentType string) Strategy {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if strategy, ok := m.strategies[agentType]; ok {
		return strategy
	}
	return m.fallback
}

// SelectAgentInstance picks one idle or busy instance of the agent type.
func (m *Manager) SelectAgentInstance(ctx context.Context, agentType string, dispatch domain.DispatchContext) (*domain.LoadBalancingDecision, error) {
	ctx, span := tracing.StartSpan(ctx, m.tracer, "agentpool.select",
		tracing.StringAttr("agent_type", agentType))
	defer span.End()

	decision, err := m.selectInstance(ctx, agentType, dispatch)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	span.SetAttributes(
		tracing.StringAttr("instance_id", decision.Instance.ID),
		tracing.FloatAttr("confidence", decision.Confidence))
	tracing.SetOK(span)
	return decision, nil
}

func (m *Manager) selectInstance(ctx context.Context, agentType string, dispatch domain.DispatchContext) (*domain.LoadBalancingDecision, error) {
	instances := m.registry.Snapshot(agentType)
	if len(instances) == 0 {
		return nil, domain.NewDispatchError(agentType, "select", domain.ErrNoInstancesAvailable)
	}

	candidates := make([]domain.AgentInstance, 0, len(instances))
	for i := range instances {
		if instances[i].Selectable() {
			candidates = append(candidates, instances[i])
		}
	}
	if len(candidates) == 0 {
		return nil, domain.NewDispatchError(agentType, "select", domain.ErrNoEligibleInstances)
	}

	strategy := m.strategyFor(agentType)
	selection, err := strategy.SelectInstance(ctx, candidates, dispatch)
	if err != nil {
		return nil, domain.NewDispatchError(agentType, "select", err)
	}

	decision := buildDecision(agentType, strategy.Algorithm(), selection, candidates, dispatch, m.config.FallbackCount)

	m.logger.Debug("instance selected",
		"agent_type", agentType,
		"instance_id", decision.Instance.ID,
		"algorithm", decision.Algorithm,
		"confidence", decision.Confidence,
		"candidates", len(candidates))

	return decision, nil
}

// ExecuteWithLoadBalancing runs capability on a selected instance. The work
// unit's own error is returned unchanged once bookkeeping has been applied.
func (m *Manager) ExecuteWithLoadBalancing(ctx context.Context, agentType string, capability ports.AgentCapability, dispatch domain.DispatchContext) (*domain.ExecutionResult, error) {
	if capability == nil {
		return nil, fmt.Errorf("%w: capability cannot be nil", domain.ErrInvalidInput)
	}

	ctx, span := tracing.StartSpan(ctx, m.tracer, "agentpool.execute",
		tracing.StringAttr("agent_type", agentType))
	defer span.End()

	decision, err := m.claim(ctx, agentType, dispatch)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(tracing.StringAttr("instance_id", decision.Instance.ID))

	start := m.now()
	output, workErr := invoke(ctx, capability, decision.Instance, dispatch)
	elapsed := m.now().Sub(start)

	m.complete(agentType, decision.Instance.ID, dispatch.Requirements.CPU, elapsed, workErr)
	m.recompute()

	if workErr != nil {
		tracing.RecordError(span, workErr)
		return nil, workErr
	}

	tracing.SetOK(span)
	return &domain.ExecutionResult{
		Decision: *decision,
		Output:   output,
		Duration: elapsed,
	}, nil
}

// claim selects an instance and marks it busy. A candidate that stopped
// being selectable between snapshot and claim triggers a fresh selection.
func (m *Manager) claim(ctx context.Context, agentType string, dispatch domain.DispatchContext) (*domain.LoadBalancingDecision, error) {
	delta := loadDelta(dispatch)
	var lastErr error

	for attempt := 0; attempt < m.config.ClaimAttempts; attempt++ {
		decision, err := m.selectInstance(ctx, agentType, dispatch)
		if err != nil {
			return nil, err
		}

		now := m.now()
		var claimed domain.AgentInstance
		ok, err := m.registry.Update(agentType, decision.Instance.ID, func(instance *domain.AgentInstance) bool {
			if !instance.Selectable() {
				return false
			}
			instance.Status = domain.InstanceStatusBusy
			instance.CurrentLoad += delta
			instance.LastUsed = now
			instance.InFlight++
			claimed = *instance
			return true
		})
		if err != nil {
			lastErr = err
			continue
		}
		if !ok {
			lastErr = domain.ErrNoEligibleInstances
			continue
		}

		decision.Instance = claimed
		return decision, nil
	}

	m.logger.Warn("failed to claim instance",
		"agent_type", agentType,
		"attempts", m.config.ClaimAttempts,
		"error", lastErr)
	return nil, domain.NewDispatchError(agentType, "claim", domain.ErrNoEligibleInstances)
}

func (m *Manager) complete(agentType, id string, cpu float64, elapsed time.Duration, workErr error) {
	delta := loadDelta(domain.DispatchContext{Requirements: domain.ResourceRequirements{CPU: cpu}})
	elapsedMs := float64(elapsed) / float64(time.Millisecond)

	var quarantined bool
	_, err := m.registry.Update(agentType, id, func(instance *domain.AgentInstance) bool {
		if workErr == nil {
			instance.ResponseTime = m.smooth(instance.ResponseTime, elapsedMs)
			instance.TotalExecutions++
			instance.SuccessRate = m.smooth(instance.SuccessRate, 1)
		} else {
			instance.ErrorCount++
			instance.SuccessRate = m.smooth(instance.SuccessRate, 0)
			if instance.ErrorCount > m.config.Quarantine.ErrorCount && instance.SuccessRate < m.config.Quarantine.SuccessRate {
				if instance.Status != domain.InstanceStatusError {
					quarantined = true
				}
				instance.Status = domain.InstanceStatusError
			}
		}

		instance.CurrentLoad -= delta
		if instance.CurrentLoad < 0 {
			instance.CurrentLoad = 0
		}
		if instance.InFlight > 0 {
			instance.InFlight--
		}

		switch {
		case instance.Status == domain.InstanceStatusError:
		case instance.InFlight > 0:
		default:
			instance.Status = domain.InstanceStatusIdle
		}
		return true
	})
	if err != nil {
		m.logger.Debug("instance removed during execution, skipping bookkeeping",
			"agent_type", agentType,
			"instance_id", id)
		return
	}

	if quarantined {
		m.logger.Warn("instance quarantined",
			"agent_type", agentType,
			"instance_id", id,
			"error", workErr)
	}
}

func (m *Manager) smooth(previous, sample float64) float64 {
	if m.config.SmoothingAlpha > 0 {
		return UpdateEWMA(previous, sample, m.config.SmoothingAlpha)
	}
	return SmoothTwoSample(previous, sample)
}

func (m *Manager) recompute() {
	if m.metrics != nil {
		m.metrics.Recompute(m.now())
	}
}

func loadDelta(dispatch domain.DispatchContext) float64 {
	cpu := sanitizeFloat64(dispatch.Requirements.CPU, 0)
	if cpu < 0 {
		return 0
	}
	return cpu
}

func invoke(ctx context.Context, capability ports.AgentCapability, instance domain.AgentInstance, dispatch domain.DispatchContext) (output interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			output = nil
			err = fmt.Errorf("%w: %v", domain.ErrWorkPanicked, r)
		}
	}()
	return capability.Execute(ctx, instance, dispatch)
}
