package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/eleven-am/agentpool/internal/domain"
	"github.com/eleven-am/agentpool/internal/xjson"
)

// PatternStore persists interaction patterns and cold start solutions in
// badger. Pattern keys sort by workspace, then creation time.
type PatternStore struct {
	db     *badger.DB
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
	stopGC chan struct{}
	gcDone chan struct{}
}

// Open opens the badger database described by config. An in-memory
// database is used when config.InMemory is set.
func Open(config domain.StorageConfig, logger *slog.Logger) (*PatternStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !config.InMemory && config.Path == "" {
		return nil, fmt.Errorf("%w: badger storage requires a path or in_memory", domain.ErrInvalidConfig)
	}

	opts := badger.DefaultOptions(config.Path)
	if config.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = &badgerLogger{logger: logger.With("component", "badger")}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, domain.NewStorageError("open", config.Path, err)
	}

	store := NewPatternStore(db, logger)
	if !config.InMemory {
		store.stopGC = make(chan struct{})
		store.gcDone = make(chan struct{})
		go store.runGarbageCollection(5 * time.Minute)
	}

	store.logger.Info("badger pattern store opened", "path", config.Path, "in_memory", config.InMemory)
	return store, nil
}

// NewPatternStore wraps an already opened database.
func NewPatternStore(db *badger.DB, logger *slog.Logger) *PatternStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PatternStore{
		db:     db,
		logger: logger.With("component", "badger-pattern-store"),
	}
}

func (s *PatternStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	if s.stopGC != nil {
		close(s.stopGC)
		<-s.gcDone
	}
	if err := s.db.Close(); err != nil {
		return domain.NewStorageError("close", "", err)
	}
	return nil
}

func (s *PatternStore) RecentPatterns(ctx context.Context, query domain.PatternQuery) ([]domain.InteractionPattern, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// A workspace-scoped scan walks its prefix backwards and can stop at the
	// limit. Unscoped scans gather every match and sort by time.
	if query.WorkspaceID != "" {
		result := make([]domain.InteractionPattern, 0)
		err := s.scan(ctx, []byte(domain.PatternWorkspacePrefix(query.WorkspaceID)), true, func(p *domain.InteractionPattern) bool {
			if !query.Matches(p) {
				return true
			}
			result = append(result, *p)
			return query.Limit <= 0 || len(result) < query.Limit
		})
		return result, err
	}

	result := make([]domain.InteractionPattern, 0)
	err := s.scan(ctx, []byte(domain.PatternPrefix), false, func(p *domain.InteractionPattern) bool {
		if query.Matches(p) {
			result = append(result, *p)
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if query.Limit > 0 && len(result) > query.Limit {
		result = result[:query.Limit]
	}
	return result, nil
}

func (s *PatternStore) CountPatterns(ctx context.Context, query domain.PatternQuery) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	prefix := []byte(domain.PatternPrefix)
	if query.WorkspaceID != "" {
		prefix = []byte(domain.PatternWorkspacePrefix(query.WorkspaceID))
	}

	count := 0
	err := s.scan(ctx, prefix, false, func(p *domain.InteractionPattern) bool {
		if query.Matches(p) {
			count++
		}
		return true
	})
	return count, err
}

func (s *PatternStore) AppendPatterns(ctx context.Context, patterns []domain.InteractionPattern) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(patterns) == 0 {
		return nil
	}

	batch := s.db.NewWriteBatch()
	defer batch.Cancel()

	for i := range patterns {
		p := &patterns[i]
		if err := validatePattern(p); err != nil {
			return err
		}
		value, err := xjson.Marshal(p)
		if err != nil {
			return domain.NewStorageError("encode pattern", p.ID, err)
		}
		if err := batch.Set(patternKey(p), value); err != nil {
			return domain.NewStorageError("append pattern", p.ID, err)
		}
	}

	if err := batch.Flush(); err != nil {
		return domain.NewStorageError("append patterns", "", err)
	}

	s.logger.Debug("patterns appended", "count", len(patterns))
	return nil
}

func (s *PatternStore) SaveSolution(ctx context.Context, solution *domain.ColdStartSolution) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if solution == nil || solution.ID == "" {
		return fmt.Errorf("%w: solution id cannot be empty", domain.ErrInvalidInput)
	}

	value, err := xjson.Marshal(solution)
	if err != nil {
		return domain.NewStorageError("encode solution", solution.ID, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(domain.SolutionKeyFor(solution.ID)), value)
	})
	if err != nil {
		return domain.NewStorageError("save solution", solution.ID, err)
	}
	return nil
}

func (s *PatternStore) LoadSolution(ctx context.Context, id string) (*domain.ColdStartSolution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var solution domain.ColdStartSolution
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(domain.SolutionKeyFor(id)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return xjson.Unmarshal(val, &solution)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSolutionNotFound, id)
		}
		return nil, domain.NewStorageError("load solution", id, err)
	}
	return &solution, nil
}

// scan decodes every pattern under prefix until fn returns false.
func (s *PatternStore) scan(ctx context.Context, prefix []byte, reverse bool, fn func(*domain.InteractionPattern) bool) error {
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.Reverse = reverse
		it := txn.NewIterator(opts)
		defer it.Close()

		start := prefix
		if reverse {
			start = append(bytes.Clone(prefix), 0xFF)
		}

		for it.Seek(start); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var pattern domain.InteractionPattern
			err := it.Item().Value(func(val []byte) error {
				return xjson.Unmarshal(val, &pattern)
			})
			if err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			if !fn(&pattern) {
				return nil
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return domain.NewStorageError("scan", string(prefix), err)
	}
	return err
}

func (s *PatternStore) runGarbageCollection(interval time.Duration) {
	defer close(s.gcDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopGC:
			return
		case <-ticker.C:
			lsm, vlog := s.db.Size()
			s.logger.Debug("running garbage collection", "lsm_size", lsm, "vlog_size", vlog)

			if err := s.db.RunValueLogGC(0.5); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				s.logger.Error("garbage collection failed", "error", err)
			}
		}
	}
}

func patternKey(p *domain.InteractionPattern) []byte {
	nanos := p.CreatedAt.UnixNano()
	if p.CreatedAt.IsZero() || nanos < 0 {
		nanos = 0
	}
	return []byte(domain.PatternKey(p.WorkspaceID, nanos, p.ID))
}

func validatePattern(p *domain.InteractionPattern) error {
	if p.ID == "" {
		return fmt.Errorf("%w: pattern id cannot be empty", domain.ErrInvalidInput)
	}
	if p.WorkspaceID == "" {
		return fmt.Errorf("%w: pattern %s has no workspace", domain.ErrInvalidInput, p.ID)
	}
	return nil
}

type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(f string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(f, v...))
}

func (l *badgerLogger) Warningf(f string, v ...interface{}) {
	l.logger.Warn(fmt.Sprintf(f, v...))
}

func (l *badgerLogger) Infof(f string, v ...interface{}) {
	l.logger.Info(fmt.Sprintf(f, v...))
}

func (l *badgerLogger) Debugf(f string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(f, v...))
}
