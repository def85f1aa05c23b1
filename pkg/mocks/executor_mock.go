// Package mocks provides testify mocks for the protocol interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/mordomohq/mordomo/pkg/models"
)

// MockActionExecutor is a mock implementation of protocol.ActionExecutor.
type MockActionExecutor struct {
	mock.Mock
}

func (m *MockActionExecutor) Execute(ctx context.Context, connector models.Connector, actionType string, params map[string]any) (string, error) {
	args := m.Called(ctx, connector, actionType, params)

	return args.String(0), args.Error(1)
}
