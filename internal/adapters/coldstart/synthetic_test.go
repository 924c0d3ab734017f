package coldstart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSyntheticGenerator(t *testing.T) {
	now := time.Date(2026, 6, 3, 12, 0, 0, 0, time.UTC)
	gen := NewSyntheticGenerator(30*24*time.Hour, 7)
	gen.now = func() time.Time { return now }

	patterns := gen.Generate("ws", "u", "", 50)
	assert.Len(t, patterns, 50)

	seen := make(map[string]bool)
	for _, p := range patterns {
		assert.True(t, p.Synthetic)
		assert.Equal(t, "ws", p.WorkspaceID)
		assert.Equal(t, "u", p.UserID)
		assert.Contains(t, syntheticIntents, p.QueryIntent)
		assert.Contains(t, syntheticStrategies, p.ProcessingStrategy)
		assert.GreaterOrEqual(t, p.ExecutionTimeMs, syntheticMinExecTimeMs)
		assert.LessOrEqual(t, p.ExecutionTimeMs, syntheticMaxExecTimeMs)
		assert.False(t, p.CreatedAt.After(now))
		assert.True(t, p.CreatedAt.After(now.Add(-30*24*time.Hour)))
		if p.UserSatisfactionScore != nil {
			assert.True(t, p.Success)
			assert.GreaterOrEqual(t, *p.UserSatisfactionScore, 3.0)
			assert.LessOrEqual(t, *p.UserSatisfactionScore, 5.0)
		}
		assert.False(t, seen[p.ID], "duplicate id %s", p.ID)
		seen[p.ID] = true
	}
}

func TestSyntheticGeneratorFixedIntent(t *testing.T) {
	gen := NewSyntheticGenerator(0, 1)

	for _, p := range gen.Generate("ws", "", "forecast", 10) {
		assert.Equal(t, "forecast", p.QueryIntent)
	}
	assert.Nil(t, gen.Generate("ws", "", "", 0))
}
