// Package cryptox encrypts values at rest for the local keychain store.
// Session tokens and biometric key registrations persisted by the SDK are
// sealed with AES-256-GCM under a key derived from the host app's device
// secret via Argon2id.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters. These follow the RFC 9106 low-memory profile, which is
// appropriate for a per-device secret on mobile-class hardware.
const (
	saltLength  = 16
	iterations  = 3
	memory      = 64 * 1024
	parallelism = 4
	keyLength   = 32
)

// ErrCiphertextTooShort reports a sealed blob too small to contain the
// salt + nonce framing.
var ErrCiphertextTooShort = errors.New("cryptox: ciphertext too short")

// DeriveKey derives a 32-byte AES-256 key from a device secret and salt.
func DeriveKey(secret, salt []byte) []byte {
	return argon2.IDKey(secret, salt, iterations, memory, parallelism, keyLength)
}

// Seal encrypts plaintext under a key derived from secret.
// The output format is: [16-byte salt][12-byte nonce][ciphertext+tag]
// A fresh salt and nonce are generated per call.
func Seal(secret, plaintext []byte) ([]byte, error) {
	salt := make([]byte, saltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	gcm, err := newGCM(DeriveKey(secret, salt))
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	out := make([]byte, 0, saltLength+len(nonce)+len(plaintext)+gcm.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	return gcm.Seal(out, nonce, plaintext, nil), nil
}

// Open decrypts a blob produced by Seal using the same device secret.
func Open(secret, sealed []byte) ([]byte, error) {
	if len(sealed) < saltLength {
		return nil, ErrCiphertextTooShort
	}
	salt, rest := sealed[:saltLength], sealed[saltLength:]

	gcm, err := newGCM(DeriveKey(secret, salt))
	if err != nil {
		return nil, err
	}

	if len(rest) < gcm.NonceSize() {
		return nil, ErrCiphertextTooShort
	}
	nonce, ciphertext := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}
