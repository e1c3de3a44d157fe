package signer

import (
	"context"

	"github.com/ruteri/secretvault-builder/interfaces"
	"github.com/stretchr/testify/mock"
)

// MockSigner mocks interfaces.Signer
type MockSigner struct {
	mock.Mock
}

// PublicKey mocks the PublicKey method
func (m *MockSigner) PublicKey() []byte {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]byte)
}

// DID mocks the DID method
func (m *MockSigner) DID(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// Sign mocks the Sign method
func (m *MockSigner) Sign(msg []byte) ([]byte, error) {
	args := m.Called(msg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockFactory mocks interfaces.SignerFactory
type MockFactory struct {
	mock.Mock
}

// SignerFromPrivateKey mocks the SignerFromPrivateKey method
func (m *MockFactory) SignerFromPrivateKey(privateKey string) (interfaces.Signer, error) {
	args := m.Called(privateKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(interfaces.Signer), args.Error(1)
}
