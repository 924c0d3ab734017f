package coldstart

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eleven-am/agentpool/internal/domain"
)

var (
	syntheticIntents = []string{
		"data_analysis",
		"report_generation",
		"information_retrieval",
		"trend_analysis",
		"comparison",
	}
	syntheticStrategies = []string{
		"standard_processing",
		"simple_retrieval",
		"cached_response",
		"basic_analysis",
		"deep_analysis",
	}
)

const (
	syntheticSuccessRate   = 0.75
	syntheticMinExecTimeMs = 500.0
	syntheticMaxExecTimeMs = 5000.0
)

// SyntheticGenerator fabricates plausible interaction patterns for
// workspaces without enough history.
type SyntheticGenerator struct {
	mu     sync.Mutex
	rng    *rand.Rand
	window time.Duration
	now    func() time.Time
}

func NewSyntheticGenerator(window time.Duration, seed uint64) *SyntheticGenerator {
	if window <= 0 {
		window = domain.DefaultColdStartConfig().SyntheticWindow
	}
	return &SyntheticGenerator{
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		window: window,
		now:    time.Now,
	}
}

// Generate returns n synthetic patterns created within the window. A
// non-empty queryType fixes the intent of every record.
func (g *SyntheticGenerator) Generate(workspaceID, userID, queryType string, n int) []domain.InteractionPattern {
	if n <= 0 {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	patterns := make([]domain.InteractionPattern, 0, n)
	for i := 0; i < n; i++ {
		intent := queryType
		if intent == "" {
			intent = syntheticIntents[g.rng.IntN(len(syntheticIntents))]
		}

		success := g.rng.Float64() < syntheticSuccessRate
		pattern := domain.InteractionPattern{
			ID:                 uuid.NewString(),
			WorkspaceID:        workspaceID,
			UserID:             userID,
			QueryIntent:        intent,
			ProcessingStrategy: syntheticStrategies[g.rng.IntN(len(syntheticStrategies))],
			Success:            success,
			ExecutionTimeMs:    syntheticMinExecTimeMs + g.rng.Float64()*(syntheticMaxExecTimeMs-syntheticMinExecTimeMs),
			Synthetic:          true,
			CreatedAt:          now.Add(-time.Duration(g.rng.Int64N(int64(g.window)))),
		}
		if success {
			score := 3 + g.rng.Float64()*2
			pattern.UserSatisfactionScore = &score
		}
		patterns = append(patterns, pattern)
	}
	return patterns
}
