package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/eleven-am/agentpool/internal/adapters/memory"
	"github.com/eleven-am/agentpool/internal/adapters/sqlstore"
	"github.com/eleven-am/agentpool/internal/adapters/storage"
	"github.com/eleven-am/agentpool/internal/domain"
)

type ctxWorkspaceWriter interface {
	PutWorkspace(ctx context.Context, workspace domain.Workspace, connectionTypes ...string) error
}

// openStores builds the pattern store and workspace directory for the
// configured backend. The sqlite backend serves both.
func (m *Manager) openStores(collab Collaborators) error {
	cfg := m.config.Storage
	logger := m.config.Logger

	switch {
	case collab.Store != nil:
		m.store = collab.Store
	case cfg.Backend == domain.StorageBadger:
		store, err := storage.Open(cfg, logger)
		if err != nil {
			return err
		}
		m.store = store
		m.closers = append(m.closers, store.Close)
	case cfg.Backend == domain.StorageSQLite:
		store, err := sqlstore.Open(cfg, logger)
		if err != nil {
			return err
		}
		m.store = store
		m.closers = append(m.closers, store.Close)
		if collab.Directory == nil {
			m.directory = store
		}
	default:
		m.store = memory.NewPatternStore(logger)
	}

	if collab.Directory != nil {
		m.directory = collab.Directory
	}
	if m.directory == nil {
		m.directory = memory.NewDirectory()
	}
	return nil
}

func (m *Manager) closeStores() error {
	var errs []error
	for i := len(m.closers) - 1; i >= 0; i-- {
		if err := m.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	m.closers = nil
	return errors.Join(errs...)
}

// RegisterWorkspace records workspace metadata in the directory when the
// directory accepts writes.
func (m *Manager) RegisterWorkspace(ctx context.Context, workspace domain.Workspace, connectionTypes ...string) error {
	switch d := m.directory.(type) {
	case *memory.Directory:
		return d.PutWorkspace(workspace, connectionTypes...)
	case ctxWorkspaceWriter:
		return d.PutWorkspace(ctx, workspace, connectionTypes...)
	default:
		return fmt.Errorf("%w: workspace directory is read-only", domain.ErrInvalidConfig)
	}
}
