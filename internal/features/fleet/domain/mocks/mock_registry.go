package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"multislave-config/internal/features/fleet/domain"
)

// MockRegistry is a mock implementation of domain.Registry
type MockRegistry struct {
	mock.Mock
}

// List mocks the List method
func (m *MockRegistry) List() []domain.Node {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]domain.Node)
}

// Get mocks the Get method
func (m *MockRegistry) Get(name string) (domain.Node, bool) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(domain.Node), args.Bool(1)
}

// Add mocks the Add method
func (m *MockRegistry) Add(ctx context.Context, node domain.Node) error {
	args := m.Called(ctx, node)
	return args.Error(0)
}

// Remove mocks the Remove method
func (m *MockRegistry) Remove(ctx context.Context, node domain.Node) error {
	args := m.Called(ctx, node)
	return args.Error(0)
}

// ReplaceAll mocks the ReplaceAll method
func (m *MockRegistry) ReplaceAll(ctx context.Context, nodes []domain.Node) error {
	args := m.Called(ctx, nodes)
	return args.Error(0)
}

// MockComputerController is a mock implementation of domain.ComputerController
type MockComputerController struct {
	mock.Mock
}

// SetTemporarilyOffline mocks the SetTemporarilyOffline method
func (m *MockComputerController) SetTemporarilyOffline(name string, offline bool, reason string) error {
	args := m.Called(name, offline, reason)
	return args.Error(0)
}

// Connect mocks the Connect method
func (m *MockComputerController) Connect(name string) error {
	args := m.Called(name)
	return args.Error(0)
}

// Disconnect mocks the Disconnect method
func (m *MockComputerController) Disconnect(name string, reason string) error {
	args := m.Called(name, reason)
	return args.Error(0)
}
