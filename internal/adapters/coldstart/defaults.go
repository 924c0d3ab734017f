package coldstart

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/eleven-am/agentpool/internal/domain"
)

const (
	StrategyStandardProcessing = "standard_processing"

	transferEffectiveness    = 0.7
	similarUserEffectiveness = 0.6
	defaultEffectiveness     = 0.5
	syntheticEffectiveness   = 0.4
	minimalEffectiveness     = 0.3

	// denseConfidence is reported when real history is sufficient.
	denseConfidence = 0.7

	defaultConfidenceThreshold = 0.6
	minimalConfidenceThreshold = 0.5

	// unratedSatisfactionWeight is the credit given to feedback without a rating.
	unratedSatisfactionWeight = 0.5
	maxSatisfaction           = 5.0
)

var (
	defaultFallbackStrategies = []string{
		"standard_processing",
		"simple_retrieval",
		"cached_response",
		"basic_analysis",
	}
	defaultRecommendedAgents = []string{
		"query_analyzer",
		"data_retriever",
		"response_generator",
	}
	defaultResourceEstimate = domain.ResourceEstimate{
		CPU:             0.2,
		MemoryMB:        256,
		EstimatedTimeMs: 3000,
	}
)

// defaultFeatures is a neutral feature vector: midpoints everywhere except
// the query length and the clock-derived fields.
func defaultFeatures(query string, defaultQueryLength int, now time.Time) domain.FeatureVector {
	queryLength := len(query)
	if queryLength == 0 {
		queryLength = defaultQueryLength
	}

	return domain.FeatureVector{
		QueryLength:            queryLength,
		QueryComplexity:        0.5,
		QueryIntent:            "general",
		HourOfDay:              now.Hour(),
		DayOfWeek:              int(now.Weekday()),
		UserExperienceLevel:    0.5,
		HistoricalSuccessRate:  0.5,
		AverageSatisfaction:    2.5,
		AverageExecutionTimeMs: 2500,
		DataSourceTypes:        []string{},
		RecentIntents:          []string{},
	}
}

func defaultPrediction() domain.Prediction {
	return domain.Prediction{
		Strategy:            StrategyStandardProcessing,
		Confidence:          0.6,
		ExpectedSuccessRate: 0.7,
		RecommendedAgents:   append([]string(nil), defaultRecommendedAgents...),
		ResourceEstimate:    defaultResourceEstimate,
	}
}

func newSolution(workspaceID, userID string, solutionType domain.SolutionType, effectiveness float64, data domain.SolutionData, now time.Time) *domain.ColdStartSolution {
	return &domain.ColdStartSolution{
		ID:                 uuid.NewString(),
		WorkspaceID:        workspaceID,
		UserID:             userID,
		SolutionType:       solutionType,
		SolutionData:       data,
		EffectivenessScore: effectiveness,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// minimalSolution is returned when every branch failed. It is never cached.
func minimalSolution(workspaceID, userID string, now time.Time) *domain.ColdStartSolution {
	prediction := defaultPrediction()
	prediction.Confidence = minimalEffectiveness

	return newSolution(workspaceID, userID, domain.SolutionDefaultStrategy, minimalEffectiveness, domain.SolutionData{
		Features:            defaultFeatures("", domain.DefaultColdStartConfig().DefaultQueryLength, now),
		Prediction:          prediction,
		FallbackStrategies:  []string{StrategyStandardProcessing},
		ConfidenceThreshold: minimalConfidenceThreshold,
	}, now)
}

// nextEffectiveness folds one feedback sample into the running mean.
func nextEffectiveness(current float64, usageCount int64, success bool, satisfaction *float64) (float64, int64) {
	n := usageCount + 1
	if n < 1 {
		n = 1
	}

	successWeight := 0.0
	if success {
		successWeight = 1
	}

	satisfactionWeight := unratedSatisfactionWeight
	if satisfaction != nil {
		satisfactionWeight = clamp01(*satisfaction / maxSatisfaction)
	}

	score := (clamp01(current)*float64(n-1) + successWeight*satisfactionWeight) / float64(n)
	return clamp01(score), n
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
