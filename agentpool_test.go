package agentpool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolEndToEnd(t *testing.T) {
	pool, err := New(NewConfigBuilder().WithDefaultAlgorithm(AlgorithmLeastConnections).Build())
	require.NoError(t, err)
	defer pool.Close()

	ctx := context.Background()
	require.NoError(t, pool.Start(ctx))

	require.NoError(t, pool.RegisterAgentInstance("summarizer", NewAgentInstance("s-1", "summarizer", 10)))
	require.NoError(t, pool.RegisterCapability(CapabilityFunc{
		Type: "summarizer",
		Fn: func(_ context.Context, instance AgentInstance, dispatch DispatchContext) (interface{}, error) {
			return len(dispatch.Query), nil
		},
	}))

	result, err := pool.Execute(ctx, "summarizer", DispatchContext{Query: "hello"})
	require.NoError(t, err)
	assert.Equal(t, 5, result.Output)
	assert.Equal(t, AlgorithmLeastConnections, result.Decision.Algorithm)

	_, err = pool.Execute(ctx, "translator", DispatchContext{})
	assert.ErrorIs(t, err, ErrCapabilityNotFound)

	solution := pool.GetColdStartSolution(ctx, "ws", "user", "")
	require.NotNil(t, solution)
	assert.Equal(t, SolutionDefaultStrategy, solution.SolutionType)

	require.NoError(t, pool.Stop())
}
