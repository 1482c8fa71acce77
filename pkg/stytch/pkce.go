package stytch

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// PKCECodePair holds a generated PKCE verifier and its derived challenge.
// The challenge travels with the initial request; the verifier is presented
// when redeeming the resulting token.
type PKCECodePair struct {
	Verifier  string
	Challenge string
	Method    string
}

// GeneratePKCECodePair creates a fresh verifier from 32 random bytes and its
// S256 challenge, both base64url-encoded without padding.
func GeneratePKCECodePair() (PKCECodePair, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return PKCECodePair{}, fmt.Errorf("generate pkce verifier: %w", err)
	}

	verifier := base64.RawURLEncoding.EncodeToString(raw)
	digest := sha256.Sum256([]byte(verifier))
	return PKCECodePair{
		Verifier:  verifier,
		Challenge: base64.RawURLEncoding.EncodeToString(digest[:]),
		Method:    "S256",
	}, nil
}
