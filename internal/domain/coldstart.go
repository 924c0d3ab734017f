package domain

import (
	"strconv"
	"time"
)

type SolutionType string

const (
	SolutionTransferLearning SolutionType = "transfer_learning"
	SolutionSimilarWorkspace SolutionType = "similar_workspace"
	SolutionDefaultStrategy  SolutionType = "default_strategy"
	SolutionSyntheticData    SolutionType = "synthetic_data"
)

// FeatureVector mirrors the input record of the strategy estimator.
type FeatureVector struct {
	QueryLength            int      `json:"query_length"`
	QueryComplexity        float64  `json:"query_complexity"`
	QueryIntent            string   `json:"query_intent"`
	HourOfDay              int      `json:"hour_of_day"`
	DayOfWeek              int      `json:"day_of_week"`
	UserExperienceLevel    float64  `json:"user_experience_level"`
	HistoricalSuccessRate  float64  `json:"historical_success_rate"`
	AverageSatisfaction    float64  `json:"average_satisfaction"`
	AverageExecutionTimeMs float64  `json:"average_execution_time_ms"`
	DataSourceTypes        []string `json:"data_source_types"`
	RecentIntents          []string `json:"recent_intents"`
}

type ResourceEstimate struct {
	CPU             float64 `json:"cpu"`
	MemoryMB        float64 `json:"memory_mb"`
	EstimatedTimeMs float64 `json:"estimated_time_ms"`
}

type Prediction struct {
	Strategy            string           `json:"strategy"`
	Confidence          float64          `json:"confidence"`
	ExpectedSuccessRate float64          `json:"expected_success_rate"`
	RecommendedAgents   []string         `json:"recommended_agents"`
	ResourceEstimate    ResourceEstimate `json:"resource_estimate"`
}

type SolutionData struct {
	Features            FeatureVector `json:"features"`
	Prediction          Prediction    `json:"prediction"`
	FallbackStrategies  []string      `json:"fallback_strategies"`
	ConfidenceThreshold float64       `json:"confidence_threshold"`
}

// ColdStartSolution is a policy recommendation for a (workspace, user) pair.
type ColdStartSolution struct {
	ID                 string       `json:"id"`
	WorkspaceID        string       `json:"workspace_id"`
	UserID             string       `json:"user_id,omitempty"`
	SolutionType       SolutionType `json:"solution_type"`
	SourceWorkspaceID  string       `json:"source_workspace_id,omitempty"`
	SourceUserID       string       `json:"source_user_id,omitempty"`
	SimilarityScore    float64      `json:"similarity_score"`
	SolutionData       SolutionData `json:"solution_data"`
	EffectivenessScore float64      `json:"effectiveness_score"`
	UsageCount         int64        `json:"usage_count"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

// Clone returns a deep copy safe to hand to callers.
func (s *ColdStartSolution) Clone() *ColdStartSolution {
	if s == nil {
		return nil
	}
	c := *s
	c.SolutionData.FallbackStrategies = cloneStrings(s.SolutionData.FallbackStrategies)
	c.SolutionData.Prediction.RecommendedAgents = cloneStrings(s.SolutionData.Prediction.RecommendedAgents)
	c.SolutionData.Features.DataSourceTypes = cloneStrings(s.SolutionData.Features.DataSourceTypes)
	c.SolutionData.Features.RecentIntents = cloneStrings(s.SolutionData.Features.RecentIntents)
	return &c
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// SolutionKey identifies the cache slot for a workspace and optional user.
// The workspace id is length-prefixed so no pair of ids maps to another's key.
func SolutionKey(workspaceID, userID string) string {
	return strconv.Itoa(len(workspaceID)) + ":" + workspaceID + "|" + userID
}

// ColdStartStats counts resolver activity since the resolver was built.
type ColdStartStats struct {
	Resolved       map[string]int64 `json:"resolved"`
	CacheHits      int64            `json:"cache_hits"`
	Feedback       int64            `json:"feedback"`
	SparsityChecks int64            `json:"sparsity_checks"`
	SparseResults  int64            `json:"sparse_results"`
}

// SparsityResult is returned by the data sparsity check.
type SparsityResult struct {
	Sparse            bool                 `json:"sparse"`
	PatternCount      int                  `json:"pattern_count"`
	Confidence        float64              `json:"confidence"`
	Solution          *ColdStartSolution   `json:"solution"`
	SyntheticPatterns []InteractionPattern `json:"synthetic_patterns,omitempty"`
}
