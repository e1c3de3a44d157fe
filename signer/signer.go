// Package signer derives builder identities from secp256k1 secret keys.
package signer

import (
	"context"
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/secretvault-builder/interfaces"
)

// DIDPrefix is the method prefix of builder DIDs.
const DIDPrefix = "did:nil:"

var (
	// ErrInvalidPrivateKey is returned when a secret key is not a 32-byte hex string.
	ErrInvalidPrivateKey = errors.New("invalid private key")

	// ErrInvalidDID is returned when a DID does not carry a compressed public key.
	ErrInvalidDID = errors.New("invalid did")
)

// Signer is a secp256k1 identity. It signs sha256 digests and is safe for
// concurrent use.
type Signer struct {
	key    *ecdsa.PrivateKey
	pubkey []byte
}

// FromPrivateKey parses a hex encoded private key, with or without 0x prefix.
func FromPrivateKey(privateKey string) (*Signer, error) {
	clean := strings.TrimSpace(privateKey)
	if !strings.HasPrefix(clean, "0x") && !strings.HasPrefix(clean, "0X") {
		clean = "0x" + clean
	}

	raw, err := hexutil.Decode(clean)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}

	key, err := crypto.ToECDSA(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}

	return &Signer{
		key:    key,
		pubkey: crypto.CompressPubkey(&key.PublicKey),
	}, nil
}

// PublicKey returns the 33-byte compressed public key.
func (s *Signer) PublicKey() []byte {
	out := make([]byte, len(s.pubkey))
	copy(out, s.pubkey)
	return out
}

// DID returns did:nil:<hex compressed public key>. It never touches the network.
func (s *Signer) DID(_ context.Context) (string, error) {
	return DIDFromPublicKey(s.pubkey), nil
}

// Sign returns the 64-byte r||s signature of sha256(msg).
func (s *Signer) Sign(msg []byte) ([]byte, error) {
	digest := sha256.Sum256(msg)
	sig, err := crypto.Sign(digest[:], s.key)
	if err != nil {
		return nil, err
	}
	// drop the recovery id
	return sig[:64], nil
}

// Verify checks a 64-byte r||s signature of sha256(msg) against a compressed
// or uncompressed public key.
func Verify(pubkey, msg, sig []byte) bool {
	if len(sig) != 64 {
		return false
	}
	digest := sha256.Sum256(msg)
	return crypto.VerifySignature(pubkey, digest[:], sig)
}

// DIDFromPublicKey formats a compressed public key as a DID.
func DIDFromPublicKey(pubkey []byte) string {
	return DIDPrefix + hex.EncodeToString(pubkey)
}

// PublicKeyFromDID extracts and validates the compressed public key of a DID.
func PublicKeyFromDID(did string) ([]byte, error) {
	encoded, ok := strings.CutPrefix(did, DIDPrefix)
	if !ok {
		return nil, fmt.Errorf("%w: missing %q prefix", ErrInvalidDID, DIDPrefix)
	}
	pubkey, err := hex.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDID, err)
	}
	if _, err := crypto.DecompressPubkey(pubkey); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDID, err)
	}
	return pubkey, nil
}

// Factory implements interfaces.SignerFactory.
type Factory struct{}

// SignerFromPrivateKey derives a Signer from a hex encoded private key.
func (Factory) SignerFromPrivateKey(privateKey string) (interfaces.Signer, error) {
	s, err := FromPrivateKey(privateKey)
	if err != nil {
		return nil, err
	}
	return s, nil
}
