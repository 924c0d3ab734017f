package health

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eleven-am/agentpool/internal/domain"
	"github.com/eleven-am/agentpool/internal/ports"
)

// SweepResult lists the instances changed by one sweep, as "agentType/id".
type SweepResult struct {
	Recovered []string             `json:"recovered"`
	Stuck     []string             `json:"stuck"`
	Metrics   domain.SystemMetrics `json:"metrics"`
}

// Monitor periodically recovers quarantined instances, flags stuck ones and
// keeps the system metrics with a bounded history.
type Monitor struct {
	registry ports.InstanceRegistry
	config   domain.HealthConfig
	logger   *slog.Logger

	seq atomic.Uint64

	mu         sync.RWMutex
	current    domain.SystemMetrics
	currentSeq uint64
	history    []domain.SystemMetrics
	running    bool
	cancel     context.CancelFunc
	wg         sync.WaitGroup

	now func() time.Time
}

func NewMonitor(registry ports.InstanceRegistry, config domain.HealthConfig, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}

	defaults := domain.DefaultHealthConfig()
	if config.CheckInterval <= 0 {
		config.CheckInterval = defaults.CheckInterval
	}
	if config.RecoveryWindow <= 0 {
		config.RecoveryWindow = defaults.RecoveryWindow
	}
	if config.StuckThreshold <= 0 {
		config.StuckThreshold = defaults.StuckThreshold
	}
	if config.HistorySize <= 0 {
		config.HistorySize = defaults.HistorySize
	}
	if config.BottleneckThreshold <= 0 {
		config.BottleneckThreshold = defaults.BottleneckThreshold
	}
	if config.CriticalErrorRatio <= 0 {
		config.CriticalErrorRatio = defaults.CriticalErrorRatio
	}
	if config.CriticalSuccessRate <= 0 {
		config.CriticalSuccessRate = defaults.CriticalSuccessRate
	}
	if config.DegradedErrorRatio <= 0 {
		config.DegradedErrorRatio = defaults.DegradedErrorRatio
	}
	if config.DegradedSuccessRate <= 0 {
		config.DegradedSuccessRate = defaults.DegradedSuccessRate
	}

	return &Monitor{
		registry: registry,
		config:   config,
		logger:   logger.With("component", "health-monitor"),
		current:  domain.SystemMetrics{Health: domain.HealthHealthy, Bottlenecks: []string{}},
		history:  make([]domain.SystemMetrics, 0, config.HistorySize),
		now:      time.Now,
	}
}

func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return fmt.Errorf("health monitor start: %w", domain.ErrAlreadyStarted)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true

	m.wg.Add(1)
	go m.run(loopCtx)

	m.logger.Info("health monitor started", "interval", m.config.CheckInterval)
	return nil
}

func (m *Monitor) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return fmt.Errorf("health monitor stop: %w", domain.ErrNotStarted)
	}
	m.cancel()
	m.running = false
	m.mu.Unlock()

	m.wg.Wait()
	m.logger.Info("health monitor stopped")
	return nil
}

func (m *Monitor) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

func (m *Monitor) run(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(ctx)
		}
	}
}

// Sweep runs one health pass. Decisions are taken on a snapshot and each
// change is re-checked against the live instance before it is applied.
func (m *Monitor) Sweep(ctx context.Context) SweepResult {
	now := m.now()
	result := SweepResult{
		Recovered: []string{},
		Stuck:     []string{},
	}

	for _, snapshot := range m.registry.SnapshotAll() {
		if ctx.Err() != nil {
			break
		}

		switch {
		case m.shouldRecover(snapshot, now):
			if m.apply(snapshot, func(instance *domain.AgentInstance) bool {
				if !m.shouldRecover(*instance, now) {
					return false
				}
				instance.Status = domain.InstanceStatusIdle
				instance.ErrorCount = 0
				return true
			}) {
				result.Recovered = append(result.Recovered, instanceRef(snapshot))
			}
		case m.isStuck(snapshot, now):
			if m.apply(snapshot, func(instance *domain.AgentInstance) bool {
				if !m.isStuck(*instance, now) {
					return false
				}
				instance.Status = domain.InstanceStatusMaintenance
				return true
			}) {
				result.Stuck = append(result.Stuck, instanceRef(snapshot))
			}
		}
	}

	if len(result.Recovered) > 0 {
		m.logger.Info("recovered quarantined instances", "instances", result.Recovered)
	}
	if len(result.Stuck) > 0 {
		m.logger.Warn("instances busy past stuck threshold", "instances", result.Stuck, "threshold", m.config.StuckThreshold)
	}

	result.Metrics = m.Recompute(now)

	m.mu.Lock()
	m.history = append(m.history, result.Metrics)
	if overflow := len(m.history) - m.config.HistorySize; overflow > 0 {
		m.history = append(m.history[:0:0], m.history[overflow:]...)
	}
	m.mu.Unlock()

	if result.Metrics.Health != domain.HealthHealthy {
		m.logger.Warn("system health degraded",
			"health", result.Metrics.Health,
			"error_instances", result.Metrics.ErrorInstances,
			"average_success_rate", result.Metrics.AverageSuccessRate,
			"bottlenecks", result.Metrics.Bottlenecks)
	}

	return result
}

func (m *Monitor) shouldRecover(instance domain.AgentInstance, now time.Time) bool {
	return instance.Status == domain.InstanceStatusError && now.Sub(instance.LastUsed) > m.config.RecoveryWindow
}

func (m *Monitor) isStuck(instance domain.AgentInstance, now time.Time) bool {
	return instance.Status == domain.InstanceStatusBusy && now.Sub(instance.LastUsed) > m.config.StuckThreshold
}

func (m *Monitor) apply(snapshot domain.AgentInstance, fn func(*domain.AgentInstance) bool) bool {
	applied, err := m.registry.Update(snapshot.AgentType, snapshot.ID, fn)
	if err != nil {
		m.logger.Debug("instance disappeared before health update",
			"agent_type", snapshot.AgentType,
			"instance_id", snapshot.ID)
		return false
	}
	return applied
}

// Recompute derives system metrics from the registry and stores them as
// current unless a later snapshot was already stored.
func (m *Monitor) Recompute(now time.Time) domain.SystemMetrics {
	seq := m.seq.Add(1)
	metrics := m.compute(m.registry.SnapshotAll(), now)
	m.publish(seq, metrics)
	return metrics
}

// publish stores metrics taken at seq. Older snapshots are dropped.
func (m *Monitor) publish(seq uint64, metrics domain.SystemMetrics) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if seq <= m.currentSeq {
		return false
	}
	m.current = metrics
	m.currentSeq = seq
	return true
}

func (m *Monitor) compute(instances []domain.AgentInstance, now time.Time) domain.SystemMetrics {
	metrics := domain.SystemMetrics{
		TotalInstances: len(instances),
		Health:         domain.HealthHealthy,
		Bottlenecks:    []string{},
		Timestamp:      now,
	}
	if len(instances) == 0 {
		return metrics
	}

	var totalResponse, totalLoad, totalSuccess float64
	for i := range instances {
		instance := &instances[i]

		switch instance.Status {
		case domain.InstanceStatusBusy:
			metrics.ActiveInstances++
			metrics.AvailableInstances++
		case domain.InstanceStatusIdle:
			metrics.AvailableInstances++
		case domain.InstanceStatusError:
			metrics.ErrorInstances++
		}

		totalResponse += instance.ResponseTime
		totalLoad += loadRatio(instance)
		totalSuccess += instance.SuccessRate

		if instance.CurrentLoad > m.config.BottleneckThreshold*instance.MaxLoad {
			metrics.Bottlenecks = append(metrics.Bottlenecks, instanceRef(*instance))
		}
	}

	n := float64(len(instances))
	metrics.ActiveRatio = float64(metrics.ActiveInstances) / n
	metrics.AverageResponseTime = totalResponse / n
	metrics.AverageLoad = totalLoad / n
	metrics.AverageSuccessRate = totalSuccess / n
	metrics.Health = m.classify(float64(metrics.ErrorInstances)/n, metrics.AverageSuccessRate)

	return metrics
}

func (m *Monitor) classify(errorRatio, successRate float64) domain.HealthClassification {
	switch {
	case errorRatio > m.config.CriticalErrorRatio || successRate < m.config.CriticalSuccessRate:
		return domain.HealthCritical
	case errorRatio > m.config.DegradedErrorRatio || successRate < m.config.DegradedSuccessRate:
		return domain.HealthDegraded
	default:
		return domain.HealthHealthy
	}
}

func (m *Monitor) Current() domain.SystemMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyMetrics(m.current)
}

// History returns the retained samples, oldest first.
func (m *Monitor) History() []domain.SystemMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	history := make([]domain.SystemMetrics, len(m.history))
	for i := range m.history {
		history[i] = copyMetrics(m.history[i])
	}
	return history
}

func copyMetrics(metrics domain.SystemMetrics) domain.SystemMetrics {
	metrics.Bottlenecks = append([]string{}, metrics.Bottlenecks...)
	return metrics
}

// loadRatio bounds a zero-capacity instance's ratio to 0 when it carries no load.
func loadRatio(instance *domain.AgentInstance) float64 {
	if instance.MaxLoad <= 0 && instance.CurrentLoad <= 0 {
		return 0
	}
	return instance.LoadRatio()
}

func instanceRef(instance domain.AgentInstance) string {
	return instance.AgentType + "/" + instance.ID
}
