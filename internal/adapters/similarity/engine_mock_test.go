package similarity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/eleven-am/agentpool/internal/domain"
	"github.com/eleven-am/agentpool/internal/mocks"
)

func TestFindSimilarWorkspacesUsesDirectoryContract(t *testing.T) {
	directory := mocks.NewMockWorkspaceDirectory(t)
	config := domain.DefaultColdStartConfig()
	subject := domain.Workspace{ID: "ws-a", Name: "Sales analytics", Description: "revenue dashboards"}
	other := domain.Workspace{ID: "ws-b", Name: "Sales reporting", Description: "revenue reports"}

	directory.EXPECT().GetWorkspace(mock.Anything, "ws-a").Return(&subject, nil).Once()
	directory.EXPECT().ListWorkspaces(mock.Anything, "ws-a", config.CandidateWorkspaceLimit).
		Return([]domain.Workspace{subject, other}, nil).Once()
	directory.EXPECT().ConnectionTypes(mock.Anything, "ws-a").Return([]string{"postgres"}, nil).Once()
	directory.EXPECT().ConnectionTypes(mock.Anything, "ws-b").Return([]string{"postgres"}, nil).Once()

	engine := NewEngine(directory, nil, config, nil)
	matches, err := engine.FindSimilarWorkspaces(context.Background(), "ws-a", -1)
	require.NoError(t, err)

	require.Len(t, matches, 1)
	assert.Equal(t, "ws-b", matches[0].WorkspaceID)
	assert.Equal(t, 1.0, matches[0].Factors.DataSource)
}

func TestFindSimilarWorkspacesDirectoryErrors(t *testing.T) {
	boom := errors.New("directory offline")

	t.Run("subject lookup", func(t *testing.T) {
		directory := mocks.NewMockWorkspaceDirectory(t)
		directory.EXPECT().GetWorkspace(mock.Anything, "ws-a").Return(nil, domain.ErrNotFound).Once()

		_, err := NewEngine(directory, nil, domain.ColdStartConfig{}, nil).FindSimilarWorkspaces(context.Background(), "ws-a", 0.5)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("candidate listing", func(t *testing.T) {
		directory := mocks.NewMockWorkspaceDirectory(t)
		directory.EXPECT().GetWorkspace(mock.Anything, "ws-a").Return(&domain.Workspace{ID: "ws-a"}, nil).Once()
		directory.EXPECT().ConnectionTypes(mock.Anything, "ws-a").Return(nil, nil).Once()
		directory.EXPECT().ListWorkspaces(mock.Anything, "ws-a", mock.Anything).Return(nil, boom).Once()

		_, err := NewEngine(directory, nil, domain.ColdStartConfig{}, nil).FindSimilarWorkspaces(context.Background(), "ws-a", 0.5)
		assert.ErrorIs(t, err, boom)
	})
}
