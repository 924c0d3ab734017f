package domain

import "fmt"

const (
	PatternPrefix  = "pattern:"
	SolutionPrefix = "solution:"
)

// PatternWorkspacePrefix scopes pattern keys to one workspace.
func PatternWorkspacePrefix(workspaceID string) string {
	return fmt.Sprintf("%s%s:", PatternPrefix, workspaceID)
}

// PatternKey orders records of a workspace by creation time.
func PatternKey(workspaceID string, createdAtNanos int64, id string) string {
	return fmt.Sprintf("%s%020d:%s", PatternWorkspacePrefix(workspaceID), createdAtNanos, id)
}

func SolutionKeyFor(id string) string {
	return fmt.Sprintf("%s%s", SolutionPrefix, id)
}
