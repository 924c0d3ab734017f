package ports

import (
	"context"

	"github.com/eleven-am/agentpool/internal/domain"
)

// WorkspaceDirectory exposes workspace metadata owned by another service.
type WorkspaceDirectory interface {
	GetWorkspace(ctx context.Context, id string) (*domain.Workspace, error)
	// ListWorkspaces returns up to limit workspaces other than excludeID.
	ListWorkspaces(ctx context.Context, excludeID string, limit int) ([]domain.Workspace, error)
	ConnectionTypes(ctx context.Context, workspaceID string) ([]string, error)
}
