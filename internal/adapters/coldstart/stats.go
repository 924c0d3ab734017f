package coldstart

import (
	"sync"

	"github.com/eleven-am/agentpool/internal/domain"
)

type resolverStats struct {
	mu         sync.Mutex
	byType     map[string]int64
	cacheHits  int64
	feedbacks  int64
	sparsities int64
	sparse     int64
}

func (s *resolverStats) resolved(solutionType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.byType == nil {
		s.byType = make(map[string]int64)
	}
	s.byType[solutionType]++
}

func (s *resolverStats) cacheHit() {
	s.mu.Lock()
	s.cacheHits++
	s.mu.Unlock()
}

func (s *resolverStats) feedback() {
	s.mu.Lock()
	s.feedbacks++
	s.mu.Unlock()
}

func (s *resolverStats) sparsity(sparse bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sparsities++
	if sparse {
		s.sparse++
	}
}

func (s *resolverStats) snapshot() domain.ColdStartStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	resolved := make(map[string]int64, len(s.byType))
	for k, v := range s.byType {
		resolved[k] = v
	}
	return domain.ColdStartStats{
		Resolved:       resolved,
		CacheHits:      s.cacheHits,
		Feedback:       s.feedbacks,
		SparsityChecks: s.sparsities,
		SparseResults:  s.sparse,
	}
}
