package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/eleven-am/agentpool/internal/adapters/memory"
	"github.com/eleven-am/agentpool/internal/domain"
	"github.com/eleven-am/agentpool/internal/ports"
)

func newTestManager(t *testing.T, mutate func(*domain.Config)) *Manager {
	t.Helper()
	cfg := domain.DefaultConfig()
	cfg.Scheduler.Health.CheckInterval = 10 * time.Millisecond
	if mutate != nil {
		mutate(cfg)
	}

	mgr, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Close() })
	return mgr
}

func echoCapability(agentType string) ports.AgentCapability {
	return ports.CapabilityFunc{
		Type: agentType,
		Fn: func(_ context.Context, instance domain.AgentInstance, dispatch domain.DispatchContext) (interface{}, error) {
			return instance.ID + ":" + dispatch.Query, nil
		},
	}
}

func seedHistory(t *testing.T, mgr *Manager) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, mgr.RegisterWorkspace(ctx, domain.Workspace{ID: "subject", Name: "sales analytics", Description: "quarterly revenue"}, "postgres"))
	require.NoError(t, mgr.RegisterWorkspace(ctx, domain.Workspace{ID: "mature", Name: "sales analytics", Description: "quarterly revenue"}, "postgres"))

	base := time.Now().Add(-time.Hour)
	patterns := make([]domain.InteractionPattern, 0, 12)
	for i := 0; i < 12; i++ {
		strategy := "sql_aggregation"
		if i%4 == 3 {
			strategy = "cached_response"
		}
		patterns = append(patterns, domain.InteractionPattern{
			ID:                 fmt.Sprintf("mature-%d", i),
			WorkspaceID:        "mature",
			UserID:             "veteran",
			QueryIntent:        "report",
			ProcessingStrategy: strategy,
			Success:            true,
			ExecutionTimeMs:    800,
			CreatedAt:          base.Add(time.Duration(i) * time.Minute),
		})
	}
	require.NoError(t, mgr.RecordInteractions(ctx, patterns...))
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.Storage.Backend = "postgres"

	_, err := New(cfg)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	cfg = domain.DefaultConfig()
	cfg.Scheduler.DefaultAlgorithm = "random"
	_, err = New(cfg)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestNewWithNilConfigUsesDefaults(t *testing.T) {
	mgr, err := New(nil)
	require.NoError(t, err)
	defer mgr.Close()

	assert.Equal(t, domain.AlgorithmAdaptive, mgr.GetLoadBalancingStrategy("anything").Algorithm)
}

func TestLifecycle(t *testing.T) {
	mgr := newTestManager(t, nil)
	ctx := context.Background()

	require.NoError(t, mgr.Start(ctx))
	assert.True(t, mgr.IsRunning())
	assert.ErrorIs(t, mgr.Start(ctx), domain.ErrAlreadyStarted)

	require.NoError(t, mgr.Stop())
	assert.False(t, mgr.IsRunning())
	assert.ErrorIs(t, mgr.Stop(), domain.ErrNotStarted)

	require.NoError(t, mgr.Start(ctx))
	require.NoError(t, mgr.Close())
	assert.False(t, mgr.IsRunning())
}

func TestManagersOwnTheirTracerProviders(t *testing.T) {
	global := otel.GetTracerProvider()
	stdout := func(cfg *domain.Config) {
		cfg.Tracing.Enabled = true
		cfg.Tracing.Exporter = "stdout"
	}

	first := newTestManager(t, stdout)
	second := newTestManager(t, stdout)
	ctx := context.Background()

	require.NoError(t, first.Start(ctx))
	require.NoError(t, second.Start(ctx))
	assert.Equal(t, global, otel.GetTracerProvider())

	require.NoError(t, first.Close())

	_, span := second.traces.Tracer().Start(ctx, "test.after-close")
	assert.True(t, span.IsRecording(), "closing one manager must not stop another's tracing")
	span.End()

	require.NoError(t, second.Stop())
}

func TestHealthLoopRecordsHistory(t *testing.T) {
	mgr := newTestManager(t, nil)
	require.NoError(t, mgr.RegisterAgentInstance("summarizer", domain.NewAgentInstance("s-1", "summarizer", 10)))
	require.NoError(t, mgr.Start(context.Background()))

	assert.Eventually(t, func() bool {
		return len(mgr.GetMetricsHistory()) >= 2
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, mgr.Stop())
}

func TestExecuteThroughRegisteredCapability(t *testing.T) {
	mgr := newTestManager(t, nil)
	ctx := context.Background()

	require.NoError(t, mgr.RegisterAgentInstance("summarizer", domain.NewAgentInstance("s-1", "summarizer", 10)))
	require.NoError(t, mgr.RegisterAgentInstance("summarizer", domain.NewAgentInstance("s-2", "summarizer", 10)))
	require.NoError(t, mgr.RegisterCapability(echoCapability("summarizer")))
	assert.Equal(t, []string{"summarizer"}, mgr.Capabilities())

	result, err := mgr.Execute(ctx, "summarizer", domain.DispatchContext{Query: "q"})
	require.NoError(t, err)
	assert.Contains(t, []string{"s-1:q", "s-2:q"}, result.Output)
	assert.Equal(t, "summarizer", result.Decision.AgentType)

	metrics := mgr.GetSystemMetrics()
	assert.Equal(t, 2, metrics.TotalInstances)
	assert.Equal(t, 2, metrics.AvailableInstances)
	assert.Equal(t, domain.HealthHealthy, metrics.Health)

	var executions int64
	for _, instance := range mgr.Instances("summarizer") {
		executions += instance.TotalExecutions
		assert.Equal(t, domain.InstanceStatusIdle, instance.Status)
	}
	assert.Equal(t, int64(1), executions)
}

func TestExecuteWithoutCapability(t *testing.T) {
	mgr := newTestManager(t, nil)
	require.NoError(t, mgr.RegisterAgentInstance("summarizer", domain.NewAgentInstance("s-1", "summarizer", 10)))

	_, err := mgr.Execute(context.Background(), "summarizer", domain.DispatchContext{})
	assert.ErrorIs(t, err, domain.ErrCapabilityNotFound)
	assert.True(t, domain.IsDispatchError(err))

	require.NoError(t, mgr.RegisterCapability(echoCapability("summarizer")))
	mgr.UnregisterCapability("summarizer")
	_, err = mgr.Execute(context.Background(), "summarizer", domain.DispatchContext{})
	assert.ErrorIs(t, err, domain.ErrCapabilityNotFound)
}

func TestRegisterCapabilityValidates(t *testing.T) {
	mgr := newTestManager(t, nil)

	assert.ErrorIs(t, mgr.RegisterCapability(nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, mgr.RegisterCapability(echoCapability("")), domain.ErrInvalidInput)
}

func TestExecuteReturnsWorkErrorUnchanged(t *testing.T) {
	mgr := newTestManager(t, nil)
	workErr := errors.New("model timeout")

	require.NoError(t, mgr.RegisterAgentInstance("writer", domain.NewAgentInstance("w-1", "writer", 5)))
	require.NoError(t, mgr.RegisterCapability(ports.CapabilityFunc{
		Type: "writer",
		Fn: func(context.Context, domain.AgentInstance, domain.DispatchContext) (interface{}, error) {
			return nil, workErr
		},
	}))

	_, err := mgr.Execute(context.Background(), "writer", domain.DispatchContext{})
	assert.Same(t, workErr, err)

	instances := mgr.Instances("writer")
	require.Len(t, instances, 1)
	assert.Equal(t, int64(1), instances[0].ErrorCount)
}

func TestStrategyAndSelectionPassThrough(t *testing.T) {
	mgr := newTestManager(t, nil)
	ctx := context.Background()

	_, err := mgr.SelectAgentInstance(ctx, "nobody", domain.DispatchContext{})
	assert.ErrorIs(t, err, domain.ErrNoInstancesAvailable)

	require.NoError(t, mgr.RegisterAgentInstance("router", domain.NewAgentInstance("r-1", "router", 4)))
	require.NoError(t, mgr.SetLoadBalancingStrategy("router", domain.LoadBalancingStrategy{Algorithm: domain.AlgorithmRoundRobin}))
	assert.Equal(t, domain.AlgorithmRoundRobin, mgr.GetLoadBalancingStrategy("router").Algorithm)

	decision, err := mgr.SelectAgentInstance(ctx, "router", domain.DispatchContext{})
	require.NoError(t, err)
	assert.Equal(t, "r-1", decision.Instance.ID)

	require.NoError(t, mgr.UnregisterAgentInstance("router", "r-1"))
	assert.Empty(t, mgr.Instances("router"))
	assert.Equal(t, 0, mgr.GetSystemMetrics().TotalInstances)
}

func TestSweepHealthRecordsHistory(t *testing.T) {
	mgr := newTestManager(t, nil)
	require.NoError(t, mgr.RegisterAgentInstance("a", domain.NewAgentInstance("a-1", "a", 1)))

	result := mgr.SweepHealth(context.Background())
	assert.Equal(t, 1, result.Metrics.TotalInstances)
	assert.Len(t, mgr.GetMetricsHistory(), 1)
}

func TestColdStartAcrossBackends(t *testing.T) {
	backends := []struct {
		name    string
		storage domain.StorageConfig
		breaker bool
	}{
		{"memory", domain.StorageConfig{Backend: domain.StorageMemory}, true},
		{"memory without breaker", domain.StorageConfig{Backend: domain.StorageMemory}, false},
		{"badger", domain.StorageConfig{Backend: domain.StorageBadger, InMemory: true}, true},
		{"sqlite", domain.StorageConfig{Backend: domain.StorageSQLite, InMemory: true}, true},
	}

	for _, tc := range backends {
		t.Run(tc.name, func(t *testing.T) {
			mgr := newTestManager(t, func(cfg *domain.Config) {
				cfg.Storage = tc.storage
				cfg.CircuitBreaker.Disabled = !tc.breaker
			})
			seedHistory(t, mgr)
			ctx := context.Background()

			matches, err := mgr.FindSimilarWorkspaces(ctx, "subject", 0.3)
			require.NoError(t, err)
			require.Len(t, matches, 1)
			assert.Equal(t, "mature", matches[0].WorkspaceID)

			solution := mgr.GetColdStartSolution(ctx, "subject", "", "")
			require.NotNil(t, solution)
			assert.Equal(t, domain.SolutionTransferLearning, solution.SolutionType)
			assert.Equal(t, "mature", solution.SourceWorkspaceID)
			assert.Equal(t, []string{"sql_aggregation", "cached_response"}, solution.SolutionData.FallbackStrategies)

			rating := 5.0
			updated := mgr.UpdateSolutionEffectiveness(ctx, solution.ID, true, &rating)
			require.NotNil(t, updated)
			assert.InDelta(t, 1.0, updated.EffectivenessScore, 1e-9)

			sparse := mgr.HandleDataSparsity(ctx, "subject", "newcomer", "report")
			assert.True(t, sparse.Sparse)
			assert.Equal(t, 0.4, sparse.Confidence)
			assert.Len(t, sparse.SyntheticPatterns, 50)

			dense := mgr.HandleDataSparsity(ctx, "mature", "", "")
			assert.False(t, dense.Sparse)
			assert.Equal(t, 12, dense.PatternCount)
		})
	}
}

func TestCollaboratorsOverrideStores(t *testing.T) {
	store := memory.NewPatternStore(nil)
	directory := memory.NewDirectory()

	cfg := domain.DefaultConfig()
	cfg.Storage = domain.StorageConfig{Backend: domain.StorageSQLite, InMemory: true}
	mgr, err := NewWithCollaborators(cfg, Collaborators{Store: store, Directory: directory})
	require.NoError(t, err)
	defer mgr.Close()

	require.NoError(t, mgr.RegisterWorkspace(context.Background(), domain.Workspace{ID: "ws"}))
	_, err = directory.GetWorkspace(context.Background(), "ws")
	require.NoError(t, err)

	solution := mgr.GetColdStartSolution(context.Background(), "ws", "", "")
	_, err = store.LoadSolution(context.Background(), solution.ID)
	assert.NoError(t, err)
}

type readOnlyDirectory struct {
	*memory.Directory
}

func TestRegisterWorkspaceOnReadOnlyDirectory(t *testing.T) {
	mgr, err := NewWithCollaborators(nil, Collaborators{Directory: readOnlyDirectory{memory.NewDirectory()}})
	require.NoError(t, err)
	defer mgr.Close()

	err = mgr.RegisterWorkspace(context.Background(), domain.Workspace{ID: "ws"})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}
