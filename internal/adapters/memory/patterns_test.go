package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eleven-am/agentpool/internal/domain"
)

var base = time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

func rating(v float64) *float64 {
	return &v
}

func seedPatterns(t *testing.T, store *PatternStore) {
	t.Helper()

	patterns := []domain.InteractionPattern{
		{ID: "p1", WorkspaceID: "ws-1", UserID: "u-1", QueryIntent: "report", ProcessingStrategy: "sql", Success: true, CreatedAt: base.Add(1 * time.Minute)},
		{ID: "p2", WorkspaceID: "ws-1", UserID: "u-2", QueryIntent: "lookup", ProcessingStrategy: "cache", Success: false, CreatedAt: base.Add(2 * time.Minute)},
		{ID: "p3", WorkspaceID: "ws-1", UserID: "u-1", QueryIntent: "report", ProcessingStrategy: "sql", Success: true, UserSatisfactionScore: rating(4), CreatedAt: base.Add(3 * time.Minute)},
		{ID: "p4", WorkspaceID: "ws-2", UserID: "u-3", QueryIntent: "lookup", ProcessingStrategy: "cache", Success: true, CreatedAt: base.Add(4 * time.Minute)},
		{ID: "p5", WorkspaceID: "ws-1", UserID: "u-1", QueryIntent: "report", ProcessingStrategy: "sql", Success: true, Synthetic: true, CreatedAt: base.Add(5 * time.Minute)},
	}
	require.NoError(t, store.AppendPatterns(context.Background(), patterns))
}

func ids(patterns []domain.InteractionPattern) []string {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, p.ID)
	}
	return out
}

func TestRecentPatternsFilters(t *testing.T) {
	store := NewPatternStore(nil)
	seedPatterns(t, store)
	ctx := context.Background()

	tests := []struct {
		name     string
		query    domain.PatternQuery
		expected []string
	}{
		{"workspace newest first", domain.PatternQuery{WorkspaceID: "ws-1"}, []string{"p3", "p2", "p1"}},
		{"with synthetic", domain.PatternQuery{WorkspaceID: "ws-1", IncludeSynthetic: true}, []string{"p5", "p3", "p2", "p1"}},
		{"success only", domain.PatternQuery{WorkspaceID: "ws-1", SuccessOnly: true}, []string{"p3", "p1"}},
		{"rated only", domain.PatternQuery{RatedOnly: true}, []string{"p3"}},
		{"user", domain.PatternQuery{UserID: "u-1"}, []string{"p3", "p1"}},
		{"exclude user", domain.PatternQuery{ExcludeUserID: "u-1"}, []string{"p4", "p2"}},
		{"intent", domain.PatternQuery{QueryIntent: "lookup"}, []string{"p4", "p2"}},
		{"limit", domain.PatternQuery{Limit: 2}, []string{"p4", "p3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			patterns, err := store.RecentPatterns(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ids(patterns))
		})
	}
}

func TestCountPatterns(t *testing.T) {
	store := NewPatternStore(nil)
	seedPatterns(t, store)

	count, err := store.CountPatterns(context.Background(), domain.PatternQuery{WorkspaceID: "ws-1"})
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	count, err = store.CountPatterns(context.Background(), domain.PatternQuery{WorkspaceID: "ws-1", IncludeSynthetic: true})
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestAppendPatternsValidates(t *testing.T) {
	store := NewPatternStore(nil)

	err := store.AppendPatterns(context.Background(), []domain.InteractionPattern{{ID: "x"}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	count, _ := store.CountPatterns(context.Background(), domain.PatternQuery{})
	assert.Equal(t, 0, count)
}

func TestPatternsAreCopied(t *testing.T) {
	store := NewPatternStore(nil)
	seedPatterns(t, store)

	patterns, err := store.RecentPatterns(context.Background(), domain.PatternQuery{RatedOnly: true})
	require.NoError(t, err)
	*patterns[0].UserSatisfactionScore = 0

	again, _ := store.RecentPatterns(context.Background(), domain.PatternQuery{RatedOnly: true})
	assert.Equal(t, 4.0, *again[0].UserSatisfactionScore)
}

func TestSolutionRoundTrip(t *testing.T) {
	store := NewPatternStore(nil)
	ctx := context.Background()

	_, err := store.LoadSolution(ctx, "missing")
	assert.True(t, domain.IsNotFound(err))

	solution := &domain.ColdStartSolution{
		ID:                 "sol-1",
		WorkspaceID:        "ws-1",
		SolutionType:       domain.SolutionDefaultStrategy,
		EffectivenessScore: 0.5,
		SolutionData: domain.SolutionData{
			FallbackStrategies: []string{"standard_processing"},
		},
	}
	require.NoError(t, store.SaveSolution(ctx, solution))
	solution.SolutionData.FallbackStrategies[0] = "mutated"

	loaded, err := store.LoadSolution(ctx, "sol-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"standard_processing"}, loaded.SolutionData.FallbackStrategies)
	assert.Equal(t, 0.5, loaded.EffectivenessScore)

	assert.ErrorIs(t, store.SaveSolution(ctx, nil), domain.ErrInvalidInput)
}

func TestDirectory(t *testing.T) {
	dir := NewDirectory()
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		require.NoError(t, dir.PutWorkspace(domain.Workspace{ID: fmt.Sprintf("ws-%d", i), Name: "ws"}, "postgres", "s3"))
	}
	assert.ErrorIs(t, dir.PutWorkspace(domain.Workspace{}), domain.ErrInvalidInput)

	ws, err := dir.GetWorkspace(ctx, "ws-2")
	require.NoError(t, err)
	assert.Equal(t, "ws-2", ws.ID)

	_, err = dir.GetWorkspace(ctx, "nope")
	assert.True(t, domain.IsNotFound(err))

	list, err := dir.ListWorkspaces(ctx, "ws-0", 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "ws-1", list[0].ID)
	assert.Equal(t, "ws-2", list[1].ID)

	types, err := dir.ConnectionTypes(ctx, "ws-3")
	require.NoError(t, err)
	assert.Equal(t, []string{"postgres", "s3"}, types)

	types, err = dir.ConnectionTypes(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, types)
}
