package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/ruteri/secretvault-builder/interfaces"
	"github.com/ruteri/secretvault-builder/metrics"
	"github.com/ruteri/secretvault-builder/nilauth"
	"github.com/ruteri/secretvault-builder/nildb"
	"github.com/ruteri/secretvault-builder/signer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testKeyA = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	testKeyB = "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"
	testDID  = "did:nil:02aabbcc"
)

var testConfig = interfaces.NetworkConfig{
	APIKey:   testKeyA,
	AuthURL:  "https://nilauth.nillion.network",
	NodeURLs: []string{"https://nildb-1.example", "https://nildb-2.example", "https://nildb-3.example"},
}

type bootstrapMocks struct {
	signers  *signer.MockFactory
	signer   *signer.MockSigner
	auths    *nilauth.MockFactory
	auth     *nilauth.MockClient
	builders *nildb.MockFactory
	builder  *nildb.MockBuilder
	calls    []string
}

func newBootstrapMocks() *bootstrapMocks {
	return &bootstrapMocks{
		signers:  new(signer.MockFactory),
		signer:   new(signer.MockSigner),
		auths:    new(nilauth.MockFactory),
		auth:     new(nilauth.MockClient),
		builders: new(nildb.MockFactory),
		builder:  new(nildb.MockBuilder),
	}
}

func (m *bootstrapMocks) record(name string) func(mock.Arguments) {
	return func(mock.Arguments) {
		m.calls = append(m.calls, name)
	}
}

// expectUntilRefresh sets up every collaborator up to and including the root
// token refresh to succeed.
func (m *bootstrapMocks) expectUntilRefresh(cfg interfaces.NetworkConfig, chainID uint64) {
	m.signers.On("SignerFromPrivateKey", cfg.APIKey).Return(m.signer, nil).Run(m.record("signer")).Once()
	m.signer.On("DID", mock.Anything).Return(testDID, nil).Run(m.record("did")).Once()
	m.auths.On("NewAuthClient", mock.Anything, cfg.AuthURL, chainID).Return(m.auth, nil).Run(m.record("auth")).Once()
	m.builders.On("NewBuilderClient", mock.Anything, m.signer, cfg.NodeURLs, m.auth).Return(m.builder, nil).Run(m.record("builder")).Once()
	m.builder.On("RefreshRootToken", mock.Anything).Return(nil).Run(m.record("refresh")).Once()
}

func (m *bootstrapMocks) bootstrapper() *Bootstrapper {
	return NewWithFactories(m.signers, m.auths, m.builders, nil)
}

func (m *bootstrapMocks) assertExpectations(t *testing.T) {
	m.signers.AssertExpectations(t)
	m.signer.AssertExpectations(t)
	m.auths.AssertExpectations(t)
	m.builders.AssertExpectations(t)
	m.builder.AssertExpectations(t)
}

func TestCreateBuilderClient_MissingCredential(t *testing.T) {
	m := newBootstrapMocks()

	cfg := testConfig
	cfg.APIKey = ""
	client, err := m.bootstrapper().CreateBuilderClient(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Contains(t, err.Error(), "NILLION_API_KEY")
	assert.Contains(t, err.Error(), "Network Configuration settings")
	assert.Nil(t, client)

	m.signers.AssertNotCalled(t, "SignerFromPrivateKey", mock.Anything)
	m.auths.AssertNotCalled(t, "NewAuthClient", mock.Anything, mock.Anything, mock.Anything)
	m.builders.AssertNotCalled(t, "NewBuilderClient", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateBuilderClient_HappyPath(t *testing.T) {
	m := newBootstrapMocks()
	m.expectUntilRefresh(testConfig, nilauth.NetworkMainnet.ChainID())
	m.builder.On("ReadProfile", mock.Anything).
		Return(&interfaces.BuilderProfile{DID: testDID, Name: DefaultBuilderName}, nil).
		Run(m.record("profile")).Once()

	client, err := m.bootstrapper().CreateBuilderClient(context.Background(), testConfig)
	require.NoError(t, err)
	assert.Same(t, m.builder, client)

	assert.Equal(t, []string{"signer", "did", "auth", "builder", "refresh", "profile"}, m.calls)
	m.builder.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func TestBootstrap_TestnetChainID(t *testing.T) {
	for _, authURL := range []string{"https://nilauth.staging.nillion.network", "https://nilauth-testnet.example"} {
		t.Run(authURL, func(t *testing.T) {
			cfg := testConfig
			cfg.AuthURL = authURL

			m := newBootstrapMocks()
			m.expectUntilRefresh(cfg, 11155111)
			m.builder.On("ReadProfile", mock.Anything).Return(&interfaces.BuilderProfile{}, nil)

			res, err := m.bootstrapper().Bootstrap(context.Background(), cfg)
			require.NoError(t, err)
			assert.Equal(t, nilauth.NetworkTestnet, res.Network)
			assert.Equal(t, testDID, res.DID)
			assert.Equal(t, AlreadyRegistered, res.Registration.Outcome)
			m.assertExpectations(t)
		})
	}
}

func TestBootstrap_RegistersWhenProfileMissing(t *testing.T) {
	m := newBootstrapMocks()
	m.expectUntilRefresh(testConfig, 1)

	profileErr := errors.New("builder not found")
	m.builder.On("ReadProfile", mock.Anything).Return(nil, profileErr).Run(m.record("profile"))
	m.builder.On("Register", mock.Anything, interfaces.RegisterBuilderRequest{DID: testDID, Name: "Custom"}).
		Return(nil).Run(m.record("register"))

	res, err := m.bootstrapper().WithName("Custom").Bootstrap(context.Background(), testConfig)
	require.NoError(t, err)
	assert.Equal(t, Registered, res.Registration.Outcome)
	assert.Equal(t, profileErr, res.Registration.ProfileError)
	assert.Nil(t, res.Registration.Suppressed)
	assert.Equal(t, []string{"signer", "did", "auth", "builder", "refresh", "profile", "register"}, m.calls)
	m.assertExpectations(t)
}

func TestBootstrap_DuplicateRegistrationRecovered(t *testing.T) {
	m := newBootstrapMocks()
	m.expectUntilRefresh(testConfig, 1)

	dupErr := errors.New("duplicate key value violates unique constraint")
	m.builder.On("ReadProfile", mock.Anything).Return(nil, errors.New("not found"))
	m.builder.On("Register", mock.Anything, interfaces.RegisterBuilderRequest{DID: testDID, Name: DefaultBuilderName}).Return(dupErr)

	recovered := metrics.RegistrationOutcomes.WithLabelValues(RecoveredConflict.String())
	before := testutil.ToFloat64(recovered)

	res, err := m.bootstrapper().Bootstrap(context.Background(), testConfig)
	require.NoError(t, err)
	assert.Same(t, m.builder, res.Client)
	assert.Equal(t, RecoveredConflict, res.Registration.Outcome)
	assert.Equal(t, dupErr, res.Registration.Suppressed)
	assert.Equal(t, before+1, testutil.ToFloat64(recovered))
	m.assertExpectations(t)
}

func TestBootstrap_RegistrationFailure(t *testing.T) {
	m := newBootstrapMocks()
	m.expectUntilRefresh(testConfig, 1)

	regErr := errors.New("network timeout")
	m.builder.On("ReadProfile", mock.Anything).Return(nil, errors.New("not found"))
	m.builder.On("Register", mock.Anything, mock.Anything).Return(regErr)

	failures := testutil.ToFloat64(metrics.RegistrationFailures)

	client, err := m.bootstrapper().CreateBuilderClient(context.Background(), testConfig)
	assert.Equal(t, regErr, err)
	assert.Nil(t, client)
	assert.Equal(t, failures+1, testutil.ToFloat64(metrics.RegistrationFailures))
	m.assertExpectations(t)
}

func TestBootstrap_DependencyFailures(t *testing.T) {
	depErr := errors.New("dependency failed")

	tests := []struct {
		name  string
		setup func(m *bootstrapMocks)
	}{
		{
			name: "signer",
			setup: func(m *bootstrapMocks) {
				m.signers.On("SignerFromPrivateKey", testKeyA).Return(nil, depErr)
			},
		},
		{
			name: "did",
			setup: func(m *bootstrapMocks) {
				m.signers.On("SignerFromPrivateKey", testKeyA).Return(m.signer, nil)
				m.signer.On("DID", mock.Anything).Return("", depErr)
			},
		},
		{
			name: "auth client",
			setup: func(m *bootstrapMocks) {
				m.signers.On("SignerFromPrivateKey", testKeyA).Return(m.signer, nil)
				m.signer.On("DID", mock.Anything).Return(testDID, nil)
				m.auths.On("NewAuthClient", mock.Anything, mock.Anything, mock.Anything).Return(nil, depErr)
			},
		},
		{
			name: "builder client",
			setup: func(m *bootstrapMocks) {
				m.signers.On("SignerFromPrivateKey", testKeyA).Return(m.signer, nil)
				m.signer.On("DID", mock.Anything).Return(testDID, nil)
				m.auths.On("NewAuthClient", mock.Anything, mock.Anything, mock.Anything).Return(m.auth, nil)
				m.builders.On("NewBuilderClient", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, depErr)
			},
		},
		{
			name: "root token",
			setup: func(m *bootstrapMocks) {
				m.signers.On("SignerFromPrivateKey", testKeyA).Return(m.signer, nil)
				m.signer.On("DID", mock.Anything).Return(testDID, nil)
				m.auths.On("NewAuthClient", mock.Anything, mock.Anything, mock.Anything).Return(m.auth, nil)
				m.builders.On("NewBuilderClient", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(m.builder, nil)
				m.builder.On("RefreshRootToken", mock.Anything).Return(depErr)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newBootstrapMocks()
			tt.setup(m)

			client, err := m.bootstrapper().CreateBuilderClient(context.Background(), testConfig)
			assert.Equal(t, depErr, err)
			assert.Nil(t, client)
			m.builder.AssertNotCalled(t, "ReadProfile", mock.Anything)
			m.builder.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
			m.assertExpectations(t)
		})
	}
}

func TestBootstrap_NodeOrderPreserved(t *testing.T) {
	cfg := testConfig
	cfg.NodeURLs = []string{"https://c.example", "https://a.example", "https://b.example"}

	m := newBootstrapMocks()
	m.expectUntilRefresh(cfg, 1)
	m.builder.On("ReadProfile", mock.Anything).Return(&interfaces.BuilderProfile{}, nil)

	_, err := m.bootstrapper().Bootstrap(context.Background(), cfg)
	require.NoError(t, err)
	m.builders.AssertCalled(t, "NewBuilderClient", mock.Anything, m.signer,
		[]string{"https://c.example", "https://a.example", "https://b.example"}, m.auth)
}

func TestGetBuilderDid(t *testing.T) {
	ctx := context.Background()

	didA1, err := GetBuilderDid(ctx, testKeyA)
	require.NoError(t, err)
	didA2, err := GetBuilderDid(ctx, testKeyA)
	require.NoError(t, err)
	didB, err := GetBuilderDid(ctx, testKeyB)
	require.NoError(t, err)

	assert.Equal(t, didA1, didA2)
	assert.NotEqual(t, didA1, didB)

	s, err := GetBuilderSigner(testKeyA)
	require.NoError(t, err)
	did, err := s.DID(ctx)
	require.NoError(t, err)
	assert.Equal(t, didA1, did)

	_, err = GetBuilderDid(ctx, "not-a-key")
	assert.ErrorIs(t, err, signer.ErrInvalidPrivateKey)

	s, err = GetBuilderSigner("")
	assert.Error(t, err)
	assert.Nil(t, s)
}
