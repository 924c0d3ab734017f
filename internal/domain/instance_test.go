package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAgentInstance(t *testing.T) {
	instance := NewAgentInstance("a-1", "summarizer", 10)
	assert.Equal(t, InstanceStatusIdle, instance.Status)
	assert.Equal(t, 1.0, instance.SuccessRate)
	assert.True(t, instance.Selectable())

	for status, selectable := range map[InstanceStatus]bool{
		InstanceStatusIdle:        true,
		InstanceStatusBusy:        true,
		InstanceStatusError:       false,
		InstanceStatusMaintenance: false,
	} {
		instance.Status = status
		assert.Equal(t, selectable, instance.Selectable(), status)
	}

	instance.CurrentLoad = 4
	assert.InDelta(t, 0.4, instance.LoadRatio(), 1e-9)

	instance.MaxLoad = 0
	assert.Equal(t, 1.0, instance.LoadRatio())
}

func TestAlgorithmValid(t *testing.T) {
	for _, a := range []LoadBalancingAlgorithm{
		AlgorithmRoundRobin, AlgorithmLeastConnections, AlgorithmWeightedRoundRobin,
		AlgorithmLeastResponseTime, AlgorithmAdaptive,
	} {
		assert.True(t, a.Valid(), a)
	}
	assert.False(t, LoadBalancingAlgorithm("").Valid())
	assert.False(t, LoadBalancingAlgorithm("random").Valid())
}

func TestPatternQueryMatches(t *testing.T) {
	rating := 4.0
	p := InteractionPattern{
		ID:                    "p",
		WorkspaceID:           "ws",
		UserID:                "u",
		QueryIntent:           "report",
		Success:               true,
		UserSatisfactionScore: &rating,
	}

	assert.True(t, PatternQuery{}.Matches(&p))
	assert.True(t, PatternQuery{WorkspaceID: "ws", UserID: "u", QueryIntent: "report", SuccessOnly: true, RatedOnly: true}.Matches(&p))
	assert.False(t, PatternQuery{WorkspaceID: "other"}.Matches(&p))
	assert.False(t, PatternQuery{ExcludeUserID: "u"}.Matches(&p))
	assert.False(t, PatternQuery{QueryIntent: "forecast"}.Matches(&p))

	p.Success = false
	p.UserSatisfactionScore = nil
	assert.False(t, PatternQuery{SuccessOnly: true}.Matches(&p))
	assert.False(t, PatternQuery{RatedOnly: true}.Matches(&p))

	p.Synthetic = true
	assert.False(t, PatternQuery{}.Matches(&p))
	assert.True(t, PatternQuery{IncludeSynthetic: true}.Matches(&p))
}

func TestSolutionClone(t *testing.T) {
	original := &ColdStartSolution{
		ID:        "sol",
		CreatedAt: time.Now(),
		SolutionData: SolutionData{
			FallbackStrategies: []string{"a", "b"},
			Prediction:         Prediction{RecommendedAgents: []string{"query_analyzer"}},
		},
	}

	clone := original.Clone()
	clone.SolutionData.FallbackStrategies[0] = "z"
	clone.SolutionData.Prediction.RecommendedAgents[0] = "z"

	assert.Equal(t, "a", original.SolutionData.FallbackStrategies[0])
	assert.Equal(t, "query_analyzer", original.SolutionData.Prediction.RecommendedAgents[0])
	assert.Nil(t, (*ColdStartSolution)(nil).Clone())
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "2:ws|u", SolutionKey("ws", "u"))
	assert.Equal(t, "2:ws|", SolutionKey("ws", ""))
	assert.NotEqual(t, SolutionKey("a|b", ""), SolutionKey("a", "b|"))
	assert.NotEqual(t, SolutionKey("a", "1:b"), SolutionKey("a|1:b", ""))
	assert.Equal(t, "solution:abc", SolutionKeyFor("abc"))
	assert.Equal(t, "pattern:ws:00000000000000000042:p", PatternKey("ws", 42, "p"))
	assert.Less(t, PatternKey("ws", 9, "z"), PatternKey("ws", 10, "a"))
}
