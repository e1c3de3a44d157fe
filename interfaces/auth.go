package interfaces

import "context"

// AuthClient issues root tokens for a signer against an authentication service.
type AuthClient interface {
	// ChainID is the payment chain the client was created for.
	ChainID() uint64

	// RequestToken obtains a fresh root token for signer.
	RequestToken(ctx context.Context, signer Signer) (string, error)
}

// AuthClientFactory prepares an AuthClient bound to an authentication endpoint
// and chain.
type AuthClientFactory interface {
	NewAuthClient(ctx context.Context, baseURL string, chainID uint64) (AuthClient, error)
}
