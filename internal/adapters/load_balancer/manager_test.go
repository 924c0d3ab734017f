package load_balancer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eleven-am/agentpool/internal/adapters/instance_registry"
	"github.com/eleven-am/agentpool/internal/domain"
	"github.com/eleven-am/agentpool/internal/ports"
)

const testAgentType = "query_analyzer"

type countingSink struct {
	calls atomic.Int64
}

func (s *countingSink) Recompute(now time.Time) domain.SystemMetrics {
	s.calls.Add(1)
	return domain.SystemMetrics{Timestamp: now}
}

func newTestManager(t *testing.T) (*Manager, *instance_registry.Registry, *countingSink) {
	t.Helper()

	registry := instance_registry.NewRegistry(nil)
	sink := &countingSink{}
	manager, err := NewManager(registry, sink, domain.DefaultSchedulerConfig(), nil)
	require.NoError(t, err)
	return manager, registry, sink
}

func registerScenario(t *testing.T, manager *Manager) {
	t.Helper()
	for _, instance := range scenarioInstances() {
		require.NoError(t, manager.RegisterAgentInstance(testAgentType, instance))
	}
}

func succeed(output interface{}) ports.AgentCapability {
	return ports.CapabilityFunc{
		Type: testAgentType,
		Fn: func(ctx context.Context, instance domain.AgentInstance, dispatch domain.DispatchContext) (interface{}, error) {
			return output, nil
		},
	}
}

func fail(err error) ports.AgentCapability {
	return ports.CapabilityFunc{
		Type: testAgentType,
		Fn: func(ctx context.Context, instance domain.AgentInstance, dispatch domain.DispatchContext) (interface{}, error) {
			return nil, err
		},
	}
}

func TestNewManagerRequiresRegistry(t *testing.T) {
	_, err := NewManager(nil, nil, domain.DefaultSchedulerConfig(), nil)
	require.Error(t, err)
	assert.True(t, domain.IsInvalidConfig(err))
}

func TestNewManagerRejectsUnknownDefault(t *testing.T) {
	cfg := domain.DefaultSchedulerConfig()
	cfg.DefaultAlgorithm = "random"

	_, err := NewManager(instance_registry.NewRegistry(nil), nil, cfg, nil)
	assert.True(t, errors.Is(err, domain.ErrUnknownAlgorithm))
}

func TestSelectWithoutInstances(t *testing.T) {
	manager, _, _ := newTestManager(t)

	_, err := manager.SelectAgentInstance(context.Background(), testAgentType, domain.DispatchContext{})
	require.Error(t, err)
	assert.True(t, domain.IsDispatchError(err))
	assert.True(t, domain.IsNoInstancesAvailable(err))
}

func TestSelectWithoutEligibleInstances(t *testing.T) {
	manager, _, _ := newTestManager(t)

	broken := domain.NewAgentInstance("broken", testAgentType, 10)
	broken.Status = domain.InstanceStatusError
	paused := domain.NewAgentInstance("paused", testAgentType, 10)
	paused.Status = domain.InstanceStatusMaintenance
	require.NoError(t, manager.RegisterAgentInstance(testAgentType, broken))
	require.NoError(t, manager.RegisterAgentInstance(testAgentType, paused))

	_, err := manager.SelectAgentInstance(context.Background(), testAgentType, domain.DispatchContext{})
	require.Error(t, err)
	assert.True(t, domain.IsNoEligibleInstances(err))
	assert.False(t, domain.IsNoInstancesAvailable(err))
}

func TestSelectScenarios(t *testing.T) {
	algorithms := []domain.LoadBalancingAlgorithm{
		domain.AlgorithmLeastConnections,
		domain.AlgorithmLeastResponseTime,
		domain.AlgorithmAdaptive,
	}

	for _, algorithm := range algorithms {
		t.Run(string(algorithm), func(t *testing.T) {
			manager, _, _ := newTestManager(t)
			registerScenario(t, manager)
			require.NoError(t, manager.SetLoadBalancingStrategy(testAgentType, domain.LoadBalancingStrategy{Algorithm: algorithm}))

			decision, err := manager.SelectAgentInstance(context.Background(), testAgentType, domain.DispatchContext{})
			require.NoError(t, err)
			assert.Equal(t, "A", decision.Instance.ID)
			assert.Equal(t, algorithm, decision.Algorithm)
			assert.Equal(t, 1.0, decision.Confidence)
			assert.Len(t, decision.Fallbacks, 2)
			assert.Equal(t, "B", decision.Fallbacks[0].ID)
		})
	}
}

func TestSelectSkipsIneligibleInstances(t *testing.T) {
	manager, _, _ := newTestManager(t)
	registerScenario(t, manager)

	best := domain.NewAgentInstance("0-best", testAgentType, 100)
	best.Status = domain.InstanceStatusError
	require.NoError(t, manager.RegisterAgentInstance(testAgentType, best))

	for i := 0; i < 10; i++ {
		decision, err := manager.SelectAgentInstance(context.Background(), testAgentType, domain.DispatchContext{})
		require.NoError(t, err)
		assert.True(t, decision.Instance.Selectable())
		assert.NotEqual(t, "0-best", decision.Instance.ID)
	}
}

func TestSingleCandidateConfidence(t *testing.T) {
	manager, _, _ := newTestManager(t)
	instance := domain.NewAgentInstance("solo", testAgentType, 4)
	instance.CurrentLoad = 3
	instance.Status = domain.InstanceStatusBusy
	require.NoError(t, manager.RegisterAgentInstance(testAgentType, instance))

	decision, err := manager.SelectAgentInstance(context.Background(), testAgentType, domain.DispatchContext{
		EstimatedExecutionTime: 4 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, decision.Confidence)
	assert.Equal(t, 3*time.Second, decision.EstimatedWaitTime)
	assert.Empty(t, decision.Fallbacks)
}

func TestSetLoadBalancingStrategy(t *testing.T) {
	manager, _, _ := newTestManager(t)

	assert.Equal(t, domain.AlgorithmAdaptive, manager.GetLoadBalancingStrategy(testAgentType).Algorithm)

	err := manager.SetLoadBalancingStrategy(testAgentType, domain.LoadBalancingStrategy{Algorithm: "fastest"})
	assert.True(t, errors.Is(err, domain.ErrUnknownAlgorithm))
	assert.Equal(t, domain.AlgorithmAdaptive, manager.GetLoadBalancingStrategy(testAgentType).Algorithm)

	require.NoError(t, manager.SetLoadBalancingStrategy(testAgentType, domain.LoadBalancingStrategy{
		Algorithm: domain.AlgorithmWeightedRoundRobin,
		Weights:   map[string]float64{"A": 2},
	}))
	require.NoError(t, manager.SetLoadBalancingStrategy(testAgentType, domain.LoadBalancingStrategy{
		Algorithm: domain.AlgorithmWeightedRoundRobin,
		Weights:   map[string]float64{"B": 3},
	}))

	binding := manager.GetLoadBalancingStrategy(testAgentType)
	assert.Equal(t, domain.AlgorithmWeightedRoundRobin, binding.Algorithm)
	assert.Equal(t, map[string]float64{"B": 3}, binding.Weights)

	assert.Error(t, manager.SetLoadBalancingStrategy("", domain.LoadBalancingStrategy{}))
}

func TestRebindingDropsPreviousWeights(t *testing.T) {
	manager, _, _ := newTestManager(t)
	require.NoError(t, manager.RegisterAgentInstance(testAgentType, domain.NewAgentInstance("a", testAgentType, 10)))
	require.NoError(t, manager.RegisterAgentInstance(testAgentType, domain.NewAgentInstance("b", testAgentType, 10)))

	require.NoError(t, manager.SetLoadBalancingStrategy(testAgentType, domain.LoadBalancingStrategy{
		Algorithm: domain.AlgorithmWeightedRoundRobin,
		Weights:   map[string]float64{"b": 5},
	}))
	decision, err := manager.SelectAgentInstance(context.Background(), testAgentType, domain.DispatchContext{})
	require.NoError(t, err)
	assert.Equal(t, "b", decision.Instance.ID)

	require.NoError(t, manager.SetLoadBalancingStrategy(testAgentType, domain.LoadBalancingStrategy{
		Algorithm: domain.AlgorithmWeightedRoundRobin,
		Weights:   map[string]float64{"a": 2},
	}))

	binding := manager.GetLoadBalancingStrategy(testAgentType)
	assert.Equal(t, map[string]float64{"a": 2}, binding.Weights)

	decision, err = manager.SelectAgentInstance(context.Background(), testAgentType, domain.DispatchContext{})
	require.NoError(t, err)
	assert.Equal(t, "a", decision.Instance.ID)
}

func TestMergeLoadBalancingStrategy(t *testing.T) {
	manager, _, _ := newTestManager(t)

	require.NoError(t, manager.MergeLoadBalancingStrategy(testAgentType, domain.LoadBalancingStrategy{
		Algorithm: domain.AlgorithmWeightedRoundRobin,
		Weights:   map[string]float64{"A": 2},
	}))
	require.NoError(t, manager.MergeLoadBalancingStrategy(testAgentType, domain.LoadBalancingStrategy{
		Weights: map[string]float64{"B": 3},
	}))

	binding := manager.GetLoadBalancingStrategy(testAgentType)
	assert.Equal(t, domain.AlgorithmWeightedRoundRobin, binding.Algorithm)
	assert.Equal(t, map[string]float64{"A": 2, "B": 3}, binding.Weights)

	assert.Error(t, manager.MergeLoadBalancingStrategy("", domain.LoadBalancingStrategy{}))
}

func TestStrategiesAreBoundPerAgentType(t *testing.T) {
	manager, _, _ := newTestManager(t)

	require.NoError(t, manager.SetLoadBalancingStrategy("retriever", domain.LoadBalancingStrategy{Algorithm: domain.AlgorithmRoundRobin}))

	assert.Equal(t, domain.AlgorithmRoundRobin, manager.GetLoadBalancingStrategy("retriever").Algorithm)
	assert.Equal(t, domain.AlgorithmAdaptive, manager.GetLoadBalancingStrategy(testAgentType).Algorithm)
}

func TestExecuteSuccessRestoresInstance(t *testing.T) {
	manager, registry, _ := newTestManager(t)
	require.NoError(t, manager.RegisterAgentInstance(testAgentType, domain.NewAgentInstance("a", testAgentType, 10)))

	var seenLoad float64
	var seenStatus domain.InstanceStatus
	capability := ports.CapabilityFunc{
		Type: testAgentType,
		Fn: func(ctx context.Context, instance domain.AgentInstance, dispatch domain.DispatchContext) (interface{}, error) {
			current, _ := registry.Get(testAgentType, instance.ID)
			seenLoad = current.CurrentLoad
			seenStatus = current.Status
			return "done", nil
		},
	}

	result, err := manager.ExecuteWithLoadBalancing(context.Background(), testAgentType, capability, domain.DispatchContext{
		Requirements: domain.ResourceRequirements{CPU: 2.5},
	})
	require.NoError(t, err)
	assert.Equal(t, "done", result.Output)
	assert.Equal(t, "a", result.Decision.Instance.ID)

	assert.Equal(t, 2.5, seenLoad)
	assert.Equal(t, domain.InstanceStatusBusy, seenStatus)

	after, ok := registry.Get(testAgentType, "a")
	require.True(t, ok)
	assert.Equal(t, domain.InstanceStatusIdle, after.Status)
	assert.Equal(t, 0.0, after.CurrentLoad)
	assert.Equal(t, int64(1), after.TotalExecutions)
	assert.Equal(t, int64(0), after.ErrorCount)
	assert.Equal(t, 1.0, after.SuccessRate)
	assert.Equal(t, int64(0), after.InFlight)
	assert.False(t, after.LastUsed.IsZero())
}

func TestExecuteResponseTimeUsesTwoSampleAverage(t *testing.T) {
	manager, registry, _ := newTestManager(t)
	instance := domain.NewAgentInstance("a", testAgentType, 10)
	instance.ResponseTime = 100
	require.NoError(t, manager.RegisterAgentInstance(testAgentType, instance))

	var clock sync.Mutex
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	manager.now = func() time.Time {
		clock.Lock()
		defer clock.Unlock()
		return current
	}

	capability := ports.CapabilityFunc{
		Type: testAgentType,
		Fn: func(ctx context.Context, instance domain.AgentInstance, dispatch domain.DispatchContext) (interface{}, error) {
			clock.Lock()
			current = current.Add(300 * time.Millisecond)
			clock.Unlock()
			return nil, nil
		},
	}

	result, err := manager.ExecuteWithLoadBalancing(context.Background(), testAgentType, capability, domain.DispatchContext{})
	require.NoError(t, err)
	assert.Equal(t, 300*time.Millisecond, result.Duration)

	after, _ := registry.Get(testAgentType, "a")
	assert.InDelta(t, 200.0, after.ResponseTime, 1e-9)
}

func TestExecuteFailurePropagatesError(t *testing.T) {
	manager, registry, _ := newTestManager(t)
	require.NoError(t, manager.RegisterAgentInstance(testAgentType, domain.NewAgentInstance("a", testAgentType, 10)))

	workErr := errors.New("model unavailable")
	result, err := manager.ExecuteWithLoadBalancing(context.Background(), testAgentType, fail(workErr), domain.DispatchContext{
		Requirements: domain.ResourceRequirements{CPU: 3},
	})
	assert.Nil(t, result)
	assert.Equal(t, workErr, err)

	after, _ := registry.Get(testAgentType, "a")
	assert.Equal(t, domain.InstanceStatusIdle, after.Status)
	assert.Equal(t, 0.0, after.CurrentLoad)
	assert.Equal(t, int64(1), after.ErrorCount)
	assert.Equal(t, int64(0), after.TotalExecutions)
	assert.Equal(t, 0.5, after.SuccessRate)
}

func TestExecuteRecoversPanics(t *testing.T) {
	manager, registry, _ := newTestManager(t)
	instance := domain.NewAgentInstance("a", testAgentType, 10)
	instance.CurrentLoad = 1
	require.NoError(t, manager.RegisterAgentInstance(testAgentType, instance))

	capability := ports.CapabilityFunc{
		Type: testAgentType,
		Fn: func(ctx context.Context, instance domain.AgentInstance, dispatch domain.DispatchContext) (interface{}, error) {
			panic("boom")
		},
	}

	_, err := manager.ExecuteWithLoadBalancing(context.Background(), testAgentType, capability, domain.DispatchContext{
		Requirements: domain.ResourceRequirements{CPU: 2},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrWorkPanicked))
	assert.Contains(t, err.Error(), "boom")

	after, _ := registry.Get(testAgentType, "a")
	assert.Equal(t, domain.InstanceStatusIdle, after.Status)
	assert.Equal(t, 1.0, after.CurrentLoad)
	assert.Equal(t, int64(1), after.ErrorCount)
}

func TestExecuteQuarantinesFailingInstance(t *testing.T) {
	manager, registry, _ := newTestManager(t)
	instance := domain.NewAgentInstance("flaky", testAgentType, 10)
	instance.ErrorCount = 5
	instance.SuccessRate = 0.6
	require.NoError(t, manager.RegisterAgentInstance(testAgentType, instance))

	_, err := manager.ExecuteWithLoadBalancing(context.Background(), testAgentType, fail(errors.New("bad")), domain.DispatchContext{})
	require.Error(t, err)

	after, _ := registry.Get(testAgentType, "flaky")
	assert.Equal(t, int64(6), after.ErrorCount)
	assert.InDelta(t, 0.3, after.SuccessRate, 1e-9)
	assert.Equal(t, domain.InstanceStatusError, after.Status)
	assert.Equal(t, 0.0, after.CurrentLoad)

	_, err = manager.SelectAgentInstance(context.Background(), testAgentType, domain.DispatchContext{})
	assert.True(t, domain.IsNoEligibleInstances(err))
}

func TestExecuteDoesNotQuarantineAtThreshold(t *testing.T) {
	manager, registry, _ := newTestManager(t)
	instance := domain.NewAgentInstance("flaky", testAgentType, 10)
	instance.ErrorCount = 4
	instance.SuccessRate = 0.2
	require.NoError(t, manager.RegisterAgentInstance(testAgentType, instance))

	_, err := manager.ExecuteWithLoadBalancing(context.Background(), testAgentType, fail(errors.New("bad")), domain.DispatchContext{})
	require.Error(t, err)

	after, _ := registry.Get(testAgentType, "flaky")
	assert.Equal(t, int64(5), after.ErrorCount)
	assert.Equal(t, domain.InstanceStatusIdle, after.Status)
}

func TestExecuteIgnoresNegativeRequirements(t *testing.T) {
	manager, registry, _ := newTestManager(t)
	instance := domain.NewAgentInstance("a", testAgentType, 10)
	instance.CurrentLoad = 2
	require.NoError(t, manager.RegisterAgentInstance(testAgentType, instance))

	_, err := manager.ExecuteWithLoadBalancing(context.Background(), testAgentType, succeed(nil), domain.DispatchContext{
		Requirements: domain.ResourceRequirements{CPU: -5},
	})
	require.NoError(t, err)

	after, _ := registry.Get(testAgentType, "a")
	assert.Equal(t, 2.0, after.CurrentLoad)
}

func TestExecuteSurvivesUnregisterDuringWork(t *testing.T) {
	manager, registry, _ := newTestManager(t)
	require.NoError(t, manager.RegisterAgentInstance(testAgentType, domain.NewAgentInstance("a", testAgentType, 10)))

	capability := ports.CapabilityFunc{
		Type: testAgentType,
		Fn: func(ctx context.Context, instance domain.AgentInstance, dispatch domain.DispatchContext) (interface{}, error) {
			return "ok", manager.UnregisterAgentInstance(testAgentType, instance.ID)
		},
	}

	result, err := manager.ExecuteWithLoadBalancing(context.Background(), testAgentType, capability, domain.DispatchContext{
		Requirements: domain.ResourceRequirements{CPU: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Output)

	_, ok := registry.Get(testAgentType, "a")
	assert.False(t, ok)
}

func TestExecuteWithoutInstances(t *testing.T) {
	manager, _, _ := newTestManager(t)

	_, err := manager.ExecuteWithLoadBalancing(context.Background(), testAgentType, succeed(nil), domain.DispatchContext{})
	assert.True(t, domain.IsNoInstancesAvailable(err))

	_, err = manager.ExecuteWithLoadBalancing(context.Background(), testAgentType, nil, domain.DispatchContext{})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestConcurrentExecutionsBalanceLoad(t *testing.T) {
	manager, registry, _ := newTestManager(t)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, manager.RegisterAgentInstance(testAgentType, domain.NewAgentInstance(id, testAgentType, 20)))
	}

	const workers = 30
	release := make(chan struct{})
	var started sync.WaitGroup
	started.Add(workers)

	capability := ports.CapabilityFunc{
		Type: testAgentType,
		Fn: func(ctx context.Context, instance domain.AgentInstance, dispatch domain.DispatchContext) (interface{}, error) {
			started.Done()
			<-release
			return nil, nil
		},
	}

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := manager.ExecuteWithLoadBalancing(context.Background(), testAgentType, capability, domain.DispatchContext{
				Requirements: domain.ResourceRequirements{CPU: 1},
			})
			errs <- err
		}()
	}

	started.Wait()

	var inFlightLoad float64
	for _, instance := range registry.Snapshot(testAgentType) {
		inFlightLoad += instance.CurrentLoad
	}
	assert.Equal(t, float64(workers), inFlightLoad)

	close(release)
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	var total int64
	for _, instance := range registry.Snapshot(testAgentType) {
		total += instance.TotalExecutions
		assert.Equal(t, domain.InstanceStatusIdle, instance.Status)
		assert.Equal(t, 0.0, instance.CurrentLoad)
		assert.Equal(t, int64(0), instance.InFlight)
	}
	assert.Equal(t, int64(workers), total)
}

func TestMetricsRecomputedOnMutation(t *testing.T) {
	manager, _, sink := newTestManager(t)

	require.NoError(t, manager.RegisterAgentInstance(testAgentType, domain.NewAgentInstance("a", testAgentType, 10)))
	assert.Equal(t, int64(1), sink.calls.Load())

	_, err := manager.ExecuteWithLoadBalancing(context.Background(), testAgentType, succeed(nil), domain.DispatchContext{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), sink.calls.Load())

	require.NoError(t, manager.UnregisterAgentInstance(testAgentType, "a"))
	assert.Equal(t, int64(3), sink.calls.Load())

	assert.Error(t, manager.UnregisterAgentInstance(testAgentType, "a"))
	assert.Equal(t, int64(3), sink.calls.Load())
}

func TestExponentialSmoothingWhenConfigured(t *testing.T) {
	registry := instance_registry.NewRegistry(nil)
	cfg := domain.DefaultSchedulerConfig()
	cfg.SmoothingAlpha = 0.25
	manager, err := NewManager(registry, nil, cfg, nil)
	require.NoError(t, err)

	require.NoError(t, manager.RegisterAgentInstance(testAgentType, domain.NewAgentInstance("a", testAgentType, 10)))

	_, err = manager.ExecuteWithLoadBalancing(context.Background(), testAgentType, fail(errors.New("x")), domain.DispatchContext{})
	require.Error(t, err)

	after, _ := registry.Get(testAgentType, "a")
	assert.InDelta(t, 0.75, after.SuccessRate, 1e-9)
}
