package bootstrap

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/ruteri/secretvault-builder/interfaces"
	"github.com/ruteri/secretvault-builder/metrics"
	"github.com/ruteri/secretvault-builder/nilauth"
	"github.com/ruteri/secretvault-builder/nildb"
	"github.com/ruteri/secretvault-builder/signer"
)

// DefaultBuilderName is the display name builders are registered with.
const DefaultBuilderName = "Demo UI Builder"

// ErrMissingCredential is returned when the configuration carries no API key.
var ErrMissingCredential = errors.New("NILLION_API_KEY is required - please set it in the Network Configuration settings")

// Result is a bootstrapped builder client together with what was learned
// while creating it.
type Result struct {
	Client       interfaces.BuilderClient
	DID          string
	Network      nilauth.Network
	Registration RegistrationResult
}

// Bootstrapper creates registered builder clients from a NetworkConfig.
// Each call is independent; a Bootstrapper is safe for concurrent use if its
// factories are.
type Bootstrapper struct {
	signers  interfaces.SignerFactory
	auth     interfaces.AuthClientFactory
	builders interfaces.BuilderClientFactory
	name     string
	log      *slog.Logger
}

// New creates a Bootstrapper wired to the signer, nilauth and nildb clients.
func New(log *slog.Logger) *Bootstrapper {
	return NewWithFactories(
		signer.Factory{},
		&nilauth.Factory{Log: log},
		&nildb.Factory{Log: log},
		log,
	)
}

// NewWithFactories creates a Bootstrapper with explicit collaborators.
func NewWithFactories(signers interfaces.SignerFactory, auth interfaces.AuthClientFactory, builders interfaces.BuilderClientFactory, log *slog.Logger) *Bootstrapper {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Bootstrapper{
		signers:  signers,
		auth:     auth,
		builders: builders,
		name:     DefaultBuilderName,
		log:      log,
	}
}

// WithName returns a copy of the Bootstrapper that registers builders under name.
func (b *Bootstrapper) WithName(name string) *Bootstrapper {
	c := *b
	c.name = name
	return &c
}

// CreateBuilderClient returns a builder client whose identity is registered
// with the storage nodes.
func (b *Bootstrapper) CreateBuilderClient(ctx context.Context, cfg interfaces.NetworkConfig) (interfaces.BuilderClient, error) {
	res, err := b.Bootstrap(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return res.Client, nil
}

// Bootstrap runs the bootstrap sequence: signer, DID, auth client, builder
// client, root token, registration. Steps run strictly in order and errors
// from collaborators are returned unchanged.
func (b *Bootstrapper) Bootstrap(ctx context.Context, cfg interfaces.NetworkConfig) (*Result, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingCredential
	}

	s, err := b.signers.SignerFromPrivateKey(cfg.APIKey)
	if err != nil {
		return nil, err
	}

	did, err := s.DID(ctx)
	if err != nil {
		return nil, err
	}

	network := nilauth.ClassifyNetwork(cfg.AuthURL)
	log := b.log.With(slog.String("did", did), slog.String("network", network.String()))

	authClient, err := b.auth.NewAuthClient(ctx, cfg.AuthURL, network.ChainID())
	if err != nil {
		return nil, err
	}

	nodeURLs := make([]string, len(cfg.NodeURLs))
	copy(nodeURLs, cfg.NodeURLs)

	client, err := b.builders.NewBuilderClient(ctx, s, nodeURLs, authClient)
	if err != nil {
		return nil, err
	}

	// node identity checks need the root token
	if err := client.RefreshRootToken(ctx); err != nil {
		return nil, err
	}

	registration, err := EnsureRegistered(ctx, client, did, b.name)
	if err != nil {
		metrics.RegistrationFailures.Inc()
		log.Error("Builder registration failed", "err", err)
		return nil, err
	}
	metrics.RecordRegistration(registration.Outcome.String())

	switch registration.Outcome {
	case RecoveredConflict:
		log.Info("Builder registered concurrently, continuing",
			slog.String("outcome", registration.Outcome.String()),
			"suppressed", registration.Suppressed)
	case Registered:
		log.Info("Builder registered",
			slog.String("outcome", registration.Outcome.String()),
			"profileErr", registration.ProfileError)
	default:
		log.Debug("Builder already registered", slog.String("outcome", registration.Outcome.String()))
	}

	return &Result{
		Client:       client,
		DID:          did,
		Network:      network,
		Registration: registration,
	}, nil
}

// GetBuilderSigner derives the builder signer from a secret key.
func GetBuilderSigner(apiKey string) (interfaces.Signer, error) {
	return signer.Factory{}.SignerFromPrivateKey(apiKey)
}

// GetBuilderDid derives the builder DID from a secret key.
func GetBuilderDid(ctx context.Context, apiKey string) (string, error) {
	s, err := GetBuilderSigner(apiKey)
	if err != nil {
		return "", err
	}
	return s.DID(ctx)
}
