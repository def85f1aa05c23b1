package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/mordomohq/mordomo/pkg/models"
)

// MockMutationObserver is a mock implementation of
// protocol.MutationObserver.
type MockMutationObserver struct {
	mock.Mock
}

func (m *MockMutationObserver) WorkflowChanged(ctx context.Context, workflow *models.Workflow) {
	m.Called(ctx, workflow)
}

func (m *MockMutationObserver) WorkflowRemoved(ctx context.Context, workflowID string) {
	m.Called(ctx, workflowID)
}
