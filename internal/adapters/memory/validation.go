package memory

import (
	"fmt"

	"github.com/eleven-am/agentpool/internal/domain"
)

func validatePattern(pattern *domain.InteractionPattern) error {
	if pattern.ID == "" {
		return fmt.Errorf("%w: pattern id cannot be empty", domain.ErrInvalidInput)
	}
	if pattern.WorkspaceID == "" {
		return fmt.Errorf("%w: pattern %s has no workspace", domain.ErrInvalidInput, pattern.ID)
	}
	return nil
}

func validateSolution(solution *domain.ColdStartSolution) error {
	if solution == nil {
		return fmt.Errorf("%w: solution cannot be nil", domain.ErrInvalidInput)
	}
	if solution.ID == "" {
		return fmt.Errorf("%w: solution id cannot be empty", domain.ErrInvalidInput)
	}
	return nil
}

func validateWorkspace(workspace domain.Workspace) error {
	if workspace.ID == "" {
		return fmt.Errorf("%w: workspace id cannot be empty", domain.ErrInvalidInput)
	}
	return nil
}
