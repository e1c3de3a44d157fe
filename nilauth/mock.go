package nilauth

import (
	"context"

	"github.com/ruteri/secretvault-builder/interfaces"
	"github.com/stretchr/testify/mock"
)

// MockClient mocks interfaces.AuthClient
type MockClient struct {
	mock.Mock
}

// ChainID mocks the ChainID method
func (m *MockClient) ChainID() uint64 {
	args := m.Called()
	return args.Get(0).(uint64)
}

// RequestToken mocks the RequestToken method
func (m *MockClient) RequestToken(ctx context.Context, signer interfaces.Signer) (string, error) {
	args := m.Called(ctx, signer)
	return args.String(0), args.Error(1)
}

// MockFactory mocks interfaces.AuthClientFactory
type MockFactory struct {
	mock.Mock
}

// NewAuthClient mocks the NewAuthClient method
func (m *MockFactory) NewAuthClient(ctx context.Context, baseURL string, chainID uint64) (interfaces.AuthClient, error) {
	args := m.Called(ctx, baseURL, chainID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(interfaces.AuthClient), args.Error(1)
}
