package interfaces

import "context"

// BuilderProfile is the record a storage node keeps for a registered builder.
type BuilderProfile struct {
	DID         string   `json:"_id"`
	Name        string   `json:"name"`
	Collections []string `json:"collections"`
	Queries     []string `json:"queries"`
	Created     string   `json:"_created,omitempty"`
	Updated     string   `json:"_updated,omitempty"`
}

// RegisterBuilderRequest is the body of a builder registration.
type RegisterBuilderRequest struct {
	DID  string `json:"did"`
	Name string `json:"name"`
}

// BuilderClient is a handle bound to one identity and an ordered set of storage
// nodes. It is owned by whoever created it.
type BuilderClient interface {
	// RefreshRootToken primes the client with a valid access credential.
	// It must be called before any other node operation.
	RefreshRootToken(ctx context.Context) error

	// ReadProfile reads the builder profile of the bound identity.
	ReadProfile(ctx context.Context) (*BuilderProfile, error)

	// Register registers the identity with every bound node.
	Register(ctx context.Context, req RegisterBuilderRequest) error
}

// BuilderClientFactory binds a signer, node endpoints and an auth client into a
// BuilderClient. Node order is preserved.
type BuilderClientFactory interface {
	NewBuilderClient(ctx context.Context, signer Signer, nodeURLs []string, auth AuthClient) (BuilderClient, error)
}
