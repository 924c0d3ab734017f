package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/eleven-am/agentpool/internal/adapters/circuit_breaker"
	"github.com/eleven-am/agentpool/internal/adapters/coldstart"
	"github.com/eleven-am/agentpool/internal/adapters/health"
	"github.com/eleven-am/agentpool/internal/adapters/instance_registry"
	"github.com/eleven-am/agentpool/internal/adapters/load_balancer"
	"github.com/eleven-am/agentpool/internal/adapters/similarity"
	"github.com/eleven-am/agentpool/internal/adapters/tracing"
	"github.com/eleven-am/agentpool/internal/domain"
	"github.com/eleven-am/agentpool/internal/ports"
)

// Manager composes the instance registry, scheduler, health monitor and
// cold start resolver behind one lifecycle.
type Manager struct {
	config *domain.Config
	logger *slog.Logger

	registry   *instance_registry.Registry
	monitor    *health.Monitor
	scheduler  *load_balancer.Manager
	similarity *similarity.Engine
	resolver   *coldstart.Resolver
	store      ports.PatternStore
	directory  ports.WorkspaceDirectory
	closers    []func() error
	traces     *tracing.Provider

	capMu        sync.RWMutex
	capabilities map[string]ports.AgentCapability

	mu              sync.Mutex
	running         bool
	tracingShutdown time.Duration
}

// Collaborators overrides the stores the manager would otherwise build from
// config.Storage. Nil fields fall back to the configured backend.
type Collaborators struct {
	Store     ports.PatternStore
	Directory ports.WorkspaceDirectory
}

func New(config *domain.Config) (*Manager, error) {
	return NewWithCollaborators(config, Collaborators{})
}

func NewWithCollaborators(config *domain.Config, collab Collaborators) (*Manager, error) {
	if config == nil {
		config = domain.DefaultConfig()
	}
	if err := domain.MergeConfig(config, domain.DefaultConfig()); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	logger := config.Logger.With("component", "agentpool")

	m := &Manager{
		config:          config,
		logger:          logger,
		capabilities:    make(map[string]ports.AgentCapability),
		tracingShutdown: 5 * time.Second,
	}

	provider, err := tracing.NewProvider(config.Tracing)
	if err != nil {
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}
	m.traces = provider

	if err := m.openStores(collab); err != nil {
		_ = provider.Shutdown(context.Background())
		return nil, err
	}

	m.registry = instance_registry.NewRegistry(config.Logger)
	m.monitor = health.NewMonitor(m.registry, config.Scheduler.Health, config.Logger)

	scheduler, err := load_balancer.NewManager(m.registry, m.monitor, config.Scheduler, config.Logger)
	if err != nil {
		_ = m.closeStores()
		_ = provider.Shutdown(context.Background())
		return nil, err
	}
	scheduler.SetTracer(provider.Tracer())
	m.scheduler = scheduler

	guarded := m.store
	if !config.CircuitBreaker.Disabled {
		guarded = circuit_breaker.NewGuardedStore(m.store, config.CircuitBreaker, config.Logger)
	}

	m.similarity = similarity.NewEngine(m.directory, guarded, config.ColdStart, config.Logger)
	m.resolver = coldstart.NewResolver(guarded, m.similarity,
		coldstart.NewSyntheticGenerator(config.ColdStart.SyntheticWindow, uint64(time.Now().UnixNano())),
		config.ColdStart, config.Logger)
	m.resolver.SetTracer(provider.Tracer())

	logger.Info("agent pool manager created",
		"storage", config.Storage.Backend,
		"default_algorithm", config.Scheduler.DefaultAlgorithm,
		"circuit_breaker", !config.CircuitBreaker.Disabled,
		"tracing", provider.Enabled())
	return m, nil
}

// Start starts the health sweep loop.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return fmt.Errorf("manager start: %w", domain.ErrAlreadyStarted)
	}

	if err := m.monitor.Start(ctx); err != nil {
		return fmt.Errorf("failed to start health monitor: %w", err)
	}

	m.running = true
	m.logger.Info("agent pool manager started")
	return nil
}

// Stop halts the health loop and flushes traces. Stores stay open until Close.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return fmt.Errorf("manager stop: %w", domain.ErrNotStarted)
	}
	m.running = false

	var errs []error
	if err := m.monitor.Stop(); err != nil {
		errs = append(errs, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.tracingShutdown)
	if err := m.traces.ForceFlush(ctx); err != nil {
		errs = append(errs, fmt.Errorf("tracing flush: %w", err))
	}
	cancel()

	m.logger.Info("agent pool manager stopped")
	return errors.Join(errs...)
}

// Close releases the stores the manager opened and shuts down its tracer
// provider. A running manager is stopped first.
func (m *Manager) Close() error {
	var errs []error
	if m.IsRunning() {
		if err := m.Stop(); err != nil {
			errs = append(errs, err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.closeStores(); err != nil {
		errs = append(errs, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.tracingShutdown)
	defer cancel()
	if err := m.traces.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("tracing shutdown: %w", err))
	}
	return errors.Join(errs...)
}

func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Manager) RegisterAgentInstance(agentType string, instance domain.AgentInstance) error {
	return m.scheduler.RegisterAgentInstance(agentType, instance)
}

func (m *Manager) UnregisterAgentInstance(agentType, id string) error {
	return m.scheduler.UnregisterAgentInstance(agentType, id)
}

func (m *Manager) SelectAgentInstance(ctx context.Context, agentType string, dispatch domain.DispatchContext) (*domain.LoadBalancingDecision, error) {
	return m.scheduler.SelectAgentInstance(ctx, agentType, dispatch)
}

func (m *Manager) ExecuteWithLoadBalancing(ctx context.Context, agentType string, capability ports.AgentCapability, dispatch domain.DispatchContext) (*domain.ExecutionResult, error) {
	return m.scheduler.ExecuteWithLoadBalancing(ctx, agentType, capability, dispatch)
}

func (m *Manager) SetLoadBalancingStrategy(agentType string, strategy domain.LoadBalancingStrategy) error {
	return m.scheduler.SetLoadBalancingStrategy(agentType, strategy)
}

// MergeLoadBalancingStrategy overlays patch on the agent type's current binding.
func (m *Manager) MergeLoadBalancingStrategy(agentType string, patch domain.LoadBalancingStrategy) error {
	return m.scheduler.MergeLoadBalancingStrategy(agentType, patch)
}

func (m *Manager) GetLoadBalancingStrategy(agentType string) domain.LoadBalancingStrategy {
	return m.scheduler.GetLoadBalancingStrategy(agentType)
}

// RegisterCapability binds the capability to the agent type it reports.
func (m *Manager) RegisterCapability(capability ports.AgentCapability) error {
	if capability == nil || capability.AgentType() == "" {
		return fmt.Errorf("%w: capability must report an agent type", domain.ErrInvalidInput)
	}

	m.capMu.Lock()
	defer m.capMu.Unlock()

	agentType := capability.AgentType()
	if _, exists := m.capabilities[agentType]; exists {
		m.logger.Warn("replacing capability", "agent_type", agentType)
	}
	m.capabilities[agentType] = capability
	return nil
}

func (m *Manager) UnregisterCapability(agentType string) {
	m.capMu.Lock()
	defer m.capMu.Unlock()
	delete(m.capabilities, agentType)
}

// Capabilities lists agent types with a registered capability, sorted.
func (m *Manager) Capabilities() []string {
	m.capMu.RLock()
	defer m.capMu.RUnlock()

	types := make([]string, 0, len(m.capabilities))
	for agentType := range m.capabilities {
		types = append(types, agentType)
	}
	sort.Strings(types)
	return types
}

// Execute dispatches to the capability registered for agentType.
func (m *Manager) Execute(ctx context.Context, agentType string, dispatch domain.DispatchContext) (*domain.ExecutionResult, error) {
	m.capMu.RLock()
	capability, ok := m.capabilities[agentType]
	m.capMu.RUnlock()

	if !ok {
		return nil, domain.NewDispatchError(agentType, "execute", domain.ErrCapabilityNotFound)
	}
	return m.scheduler.ExecuteWithLoadBalancing(ctx, agentType, capability, dispatch)
}

func (m *Manager) GetSystemMetrics() domain.SystemMetrics {
	return m.monitor.Current()
}

func (m *Manager) GetMetricsHistory() []domain.SystemMetrics {
	return m.monitor.History()
}

// SweepHealth runs one health pass immediately.
func (m *Manager) SweepHealth(ctx context.Context) health.SweepResult {
	return m.monitor.Sweep(ctx)
}

func (m *Manager) Instances(agentType string) []domain.AgentInstance {
	if agentType == "" {
		return m.registry.SnapshotAll()
	}
	return m.registry.Snapshot(agentType)
}

func (m *Manager) GetColdStartSolution(ctx context.Context, workspaceID, userID, query string) *domain.ColdStartSolution {
	return m.resolver.GetColdStartSolution(ctx, workspaceID, userID, query)
}

func (m *Manager) HandleDataSparsity(ctx context.Context, workspaceID, userID, queryType string) domain.SparsityResult {
	return m.resolver.HandleDataSparsity(ctx, workspaceID, userID, queryType)
}

func (m *Manager) UpdateSolutionEffectiveness(ctx context.Context, solutionID string, success bool, satisfaction *float64) *domain.ColdStartSolution {
	return m.resolver.UpdateSolutionEffectiveness(ctx, solutionID, success, satisfaction)
}

func (m *Manager) ColdStartStats() domain.ColdStartStats {
	return m.resolver.Stats()
}

func (m *Manager) FindSimilarWorkspaces(ctx context.Context, workspaceID string, threshold float64) ([]domain.SimilarityMatch, error) {
	return m.similarity.FindSimilarWorkspaces(ctx, workspaceID, threshold)
}

// RecordInteractions appends real interaction history to the pattern store.
func (m *Manager) RecordInteractions(ctx context.Context, patterns ...domain.InteractionPattern) error {
	return m.store.AppendPatterns(ctx, patterns)
}
