package coldstart

import (
	"sync"

	"github.com/eleven-am/agentpool/internal/domain"
)

// entry serializes effectiveness updates for one solution.
type entry struct {
	mu       sync.Mutex
	solution *domain.ColdStartSolution
}

// solutionCache indexes solutions by (workspace, user) key and by id.
// Synthetic-data solutions are only indexed by id.
type solutionCache struct {
	mu       sync.RWMutex
	byKey    map[string]*entry
	byID     map[string]*entry
	keyLocks map[string]*keyLock
}

// keyLock is dropped from the cache once no caller holds or waits on it.
type keyLock struct {
	mu   sync.Mutex
	refs int
}

func newSolutionCache() *solutionCache {
	return &solutionCache{
		byKey:    make(map[string]*entry),
		byID:     make(map[string]*entry),
		keyLocks: make(map[string]*keyLock),
	}
}

func (c *solutionCache) lookupKey(key string) (*entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byKey[key]
	return e, ok
}

func (c *solutionCache) lookupID(id string) (*entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byID[id]
	return e, ok
}

// lockKey serializes solution creation for key and returns the unlock
// function.
func (c *solutionCache) lockKey(key string) func() {
	c.mu.Lock()
	lock, ok := c.keyLocks[key]
	if !ok {
		lock = &keyLock{}
		c.keyLocks[key] = lock
	}
	lock.refs++
	c.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()

		c.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(c.keyLocks, key)
		}
		c.mu.Unlock()
	}
}

func (c *solutionCache) lockCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.keyLocks)
}

func (c *solutionCache) store(key string, solution *domain.ColdStartSolution) *entry {
	e := &entry{solution: solution}

	c.mu.Lock()
	defer c.mu.Unlock()

	if key != "" {
		c.byKey[key] = e
	}
	c.byID[solution.ID] = e
	return e
}

// adopt indexes a solution loaded from the store unless it is already cached.
func (c *solutionCache) adopt(solution *domain.ColdStartSolution) *entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.byID[solution.ID]; ok {
		return e
	}
	e := &entry{solution: solution}
	c.byID[solution.ID] = e
	return e
}

func (c *solutionCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byKey)
}
