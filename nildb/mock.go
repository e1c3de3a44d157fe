package nildb

import (
	"context"

	"github.com/ruteri/secretvault-builder/interfaces"
	"github.com/stretchr/testify/mock"
)

// MockBuilder mocks interfaces.BuilderClient
type MockBuilder struct {
	mock.Mock
}

// RefreshRootToken mocks the RefreshRootToken method
func (m *MockBuilder) RefreshRootToken(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// ReadProfile mocks the ReadProfile method
func (m *MockBuilder) ReadProfile(ctx context.Context) (*interfaces.BuilderProfile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.BuilderProfile), args.Error(1)
}

// Register mocks the Register method
func (m *MockBuilder) Register(ctx context.Context, req interfaces.RegisterBuilderRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

// MockFactory mocks interfaces.BuilderClientFactory
type MockFactory struct {
	mock.Mock
}

// NewBuilderClient mocks the NewBuilderClient method
func (m *MockFactory) NewBuilderClient(ctx context.Context, s interfaces.Signer, nodeURLs []string, auth interfaces.AuthClient) (interfaces.BuilderClient, error) {
	args := m.Called(ctx, s, nodeURLs, auth)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(interfaces.BuilderClient), args.Error(1)
}
