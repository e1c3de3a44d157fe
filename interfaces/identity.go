package interfaces

import "context"

// Signer is a cryptographic identity derived from a builder's secret key.
type Signer interface {
	// PublicKey returns the compressed secp256k1 public key.
	PublicKey() []byte

	// DID returns the decentralized identifier of the signer. Implementations
	// may need a network round trip, hence the context.
	DID(ctx context.Context) (string, error)

	// Sign signs msg and returns a 64-byte r||s signature.
	Sign(msg []byte) ([]byte, error)
}

// SignerFactory derives a Signer from a raw secret key.
type SignerFactory interface {
	SignerFromPrivateKey(privateKey string) (Signer, error)
}
