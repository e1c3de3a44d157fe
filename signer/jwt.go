package signer

import (
	"github.com/golang-jwt/jwt/v4"
	"github.com/ruteri/secretvault-builder/interfaces"
)

// SigningMethodES256K signs JWT-shaped tokens with a builder Signer.
// Sign takes an interfaces.Signer, Verify takes a compressed public key.
type SigningMethodES256K struct{}

// ES256K is the shared instance, registered with jwt under "ES256K".
var ES256K = &SigningMethodES256K{}

func init() {
	jwt.RegisterSigningMethod(ES256K.Alg(), func() jwt.SigningMethod {
		return ES256K
	})
}

func (m *SigningMethodES256K) Alg() string {
	return "ES256K"
}

func (m *SigningMethodES256K) Sign(signingString string, key interface{}) (string, error) {
	s, ok := key.(interfaces.Signer)
	if !ok {
		return "", jwt.ErrInvalidKeyType
	}
	sig, err := s.Sign([]byte(signingString))
	if err != nil {
		return "", err
	}
	return jwt.EncodeSegment(sig), nil
}

func (m *SigningMethodES256K) Verify(signingString, signature string, key interface{}) error {
	pubkey, ok := key.([]byte)
	if !ok {
		return jwt.ErrInvalidKeyType
	}
	sig, err := jwt.DecodeSegment(signature)
	if err != nil {
		return err
	}
	if !Verify(pubkey, []byte(signingString), sig) {
		return jwt.ErrSignatureInvalid
	}
	return nil
}
