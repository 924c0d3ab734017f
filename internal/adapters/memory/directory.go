package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/eleven-am/agentpool/internal/domain"
)

// Directory is an in-memory workspace directory.
type Directory struct {
	mu          sync.RWMutex
	workspaces  map[string]domain.Workspace
	connections map[string][]string
}

func NewDirectory() *Directory {
	return &Directory{
		workspaces:  make(map[string]domain.Workspace),
		connections: make(map[string][]string),
	}
}

// PutWorkspace inserts or replaces a workspace and its connection types.
func (d *Directory) PutWorkspace(workspace domain.Workspace, connectionTypes ...string) error {
	if err := validateWorkspace(workspace); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.workspaces[workspace.ID] = workspace
	d.connections[workspace.ID] = append([]string(nil), connectionTypes...)
	return nil
}

func (d *Directory) GetWorkspace(ctx context.Context, id string) (*domain.Workspace, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	workspace, exists := d.workspaces[id]
	if !exists {
		return nil, fmt.Errorf("%w: workspace %s", domain.ErrNotFound, id)
	}
	return &workspace, nil
}

func (d *Directory) ListWorkspaces(ctx context.Context, excludeID string, limit int) ([]domain.Workspace, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ids := make([]string, 0, len(d.workspaces))
	for id := range d.workspaces {
		if id != excludeID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	workspaces := make([]domain.Workspace, 0, len(ids))
	for _, id := range ids {
		workspaces = append(workspaces, d.workspaces[id])
	}
	return workspaces, nil
}

func (d *Directory) ConnectionTypes(ctx context.Context, workspaceID string) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return append([]string{}, d.connections[workspaceID]...), nil
}
