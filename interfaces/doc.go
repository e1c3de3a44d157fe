// Package interfaces defines the contracts between the builder bootstrapper and
// the collaborators it drives, separating interface definitions from
// implementations.
//
// # Identity
//
// Signer: a secp256k1 identity derived from the builder's secret key. It exposes
// the compressed public key, the DID string and raw signing.
//
// SignerFactory: derives a Signer from a hex encoded secret key.
//
// # Authentication
//
// AuthClient: issues root tokens for a Signer against the authentication
// service. It is created for exactly one payment chain.
//
// AuthClientFactory: prepares an AuthClient for a base URL and chain id.
//
// # Storage
//
// BuilderClient: a capability handle bound to one identity and an ordered set
// of storage nodes. It reads the builder profile and registers the builder.
//
// BuilderClientFactory: binds a Signer, node URLs and an AuthClient into a
// BuilderClient.
//
// # Configuration
//
// NetworkConfig: the secret key, the authentication service URL and the storage
// node URLs a builder is bootstrapped with.
package interfaces
