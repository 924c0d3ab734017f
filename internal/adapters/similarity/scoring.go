package similarity

import (
	"math"
	"sort"
	"strings"

	"github.com/eleven-am/agentpool/internal/domain"
)

// Factor weights of the overall workspace score.
const (
	DomainWeight       = 0.3
	DataSourceWeight   = 0.3
	QueryPatternWeight = 0.2
	UserBehaviorWeight = 0.2

	maxSatisfaction = 5.0
)

// TextSimilarity is the Jaccard index of the two texts' lower-cased word sets.
func TextSimilarity(a, b string) float64 {
	return jaccard(toSet(strings.Fields(strings.ToLower(a))), toSet(strings.Fields(strings.ToLower(b))))
}

// DomainSimilarity averages name and description similarity.
func DomainSimilarity(a, b domain.Workspace) float64 {
	return (TextSimilarity(a.Name, b.Name) + TextSimilarity(a.Description, b.Description)) / 2
}

// DataSourceSimilarity is the Jaccard index of two sets of connection types.
func DataSourceSimilarity(a, b []string) float64 {
	return jaccard(toSet(a), toSet(b))
}

// PatternSimilarity averages intent overlap and strategy overlap, each
// measured as |A ∩ B| / max(|A|, |B|).
func PatternSimilarity(a, b []domain.InteractionPattern) float64 {
	intentsA, strategiesA := patternSets(a)
	intentsB, strategiesB := patternSets(b)
	return (overlap(intentsA, intentsB) + overlap(strategiesA, strategiesB)) / 2
}

// UserBehaviorSimilarity compares mean satisfaction and mean execution time
// over rated patterns. Either side without ratings scores 0.
func UserBehaviorSimilarity(a, b []domain.InteractionPattern) float64 {
	satA, execA, okA := behaviorMeans(a)
	satB, execB, okB := behaviorMeans(b)
	if !okA || !okB {
		return 0
	}

	satisfaction := 1 - math.Abs(satA-satB)/maxSatisfaction
	execution := 1 - math.Abs(execA-execB)/math.Max(math.Max(execA, execB), 1)
	return clamp01((satisfaction + execution) / 2)
}

// OverallScore weights the four factors into one workspace score.
func OverallScore(f domain.SimilarityFactors) float64 {
	return DomainWeight*f.Domain +
		DataSourceWeight*f.DataSource +
		QueryPatternWeight*f.QueryPattern +
		UserBehaviorWeight*f.UserBehavior
}

// TopStrategies returns up to n processing strategies of successful
// patterns, most frequent first, ties by name.
func TopStrategies(patterns []domain.InteractionPattern, n int) []string {
	counts := make(map[string]int)
	for i := range patterns {
		if !patterns[i].Success || patterns[i].ProcessingStrategy == "" {
			continue
		}
		counts[patterns[i].ProcessingStrategy]++
	}

	strategies := make([]string, 0, len(counts))
	for strategy := range counts {
		strategies = append(strategies, strategy)
	}
	sort.Slice(strategies, func(i, j int) bool {
		if counts[strategies[i]] == counts[strategies[j]] {
			return strategies[i] < strategies[j]
		}
		return counts[strategies[i]] > counts[strategies[j]]
	})

	if n >= 0 && n < len(strategies) {
		strategies = strategies[:n]
	}
	return strategies
}

// RankUsers groups candidate patterns by user and keeps users whose pattern
// similarity to own exceeds threshold, best first.
func RankUsers(own, candidates []domain.InteractionPattern, threshold float64) []domain.SimilarityMatch {
	if len(own) == 0 {
		return nil
	}

	byUser := make(map[string][]domain.InteractionPattern)
	for i := range candidates {
		if candidates[i].UserID == "" {
			continue
		}
		byUser[candidates[i].UserID] = append(byUser[candidates[i].UserID], candidates[i])
	}

	matches := make([]domain.SimilarityMatch, 0, len(byUser))
	for userID, patterns := range byUser {
		score := PatternSimilarity(own, patterns)
		if score <= threshold {
			continue
		}
		matches = append(matches, domain.SimilarityMatch{
			UserID:                 userID,
			Score:                  score,
			Factors:                domain.SimilarityFactors{QueryPattern: score},
			TransferableStrategies: TopStrategies(patterns, -1),
		})
	}

	sortMatches(matches)
	return matches
}

func sortMatches(matches []domain.SimilarityMatch) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].WorkspaceID+matches[i].UserID < matches[j].WorkspaceID+matches[j].UserID
		}
		return matches[i].Score > matches[j].Score
	})
}

func patternSets(patterns []domain.InteractionPattern) (map[string]struct{}, map[string]struct{}) {
	intents := make(map[string]struct{})
	strategies := make(map[string]struct{})
	for i := range patterns {
		if patterns[i].QueryIntent != "" {
			intents[patterns[i].QueryIntent] = struct{}{}
		}
		if patterns[i].ProcessingStrategy != "" {
			strategies[patterns[i].ProcessingStrategy] = struct{}{}
		}
	}
	return intents, strategies
}

func behaviorMeans(patterns []domain.InteractionPattern) (satisfaction, execution float64, ok bool) {
	var rated int
	for i := range patterns {
		if patterns[i].UserSatisfactionScore == nil {
			continue
		}
		satisfaction += *patterns[i].UserSatisfactionScore
		execution += patterns[i].ExecutionTimeMs
		rated++
	}
	if rated == 0 {
		return 0, 0, false
	}
	return satisfaction / float64(rated), execution / float64(rated), true
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item != "" {
			set[item] = struct{}{}
		}
	}
	return set
}

func intersection(a, b map[string]struct{}) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for item := range a {
		if _, ok := b[item]; ok {
			n++
		}
	}
	return n
}

func jaccard(a, b map[string]struct{}) float64 {
	common := intersection(a, b)
	union := len(a) + len(b) - common
	if union == 0 {
		return 0
	}
	return float64(common) / float64(union)
}

func overlap(a, b map[string]struct{}) float64 {
	largest := len(a)
	if len(b) > largest {
		largest = len(b)
	}
	if largest == 0 {
		return 0
	}
	return float64(intersection(a, b)) / float64(largest)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
