package secret

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// Prefix marks a sealed value inside a manifest.
const Prefix = "sealed:"

// EnvKey is the environment variable holding the sealing passphrase.
const EnvKey = "GATEKIT_SEAL_KEY"

// Sealer seals and opens secret values using ChaCha20-Poly1305.
// ChaCha20 performs well on CPUs without AES hardware acceleration,
// which includes a lot of small CI runners.
type Sealer struct {
	aead cipher.AEAD
}

// New creates a Sealer from a passphrase.
// The passphrase is hashed with SHA-256 to produce a consistent 32-byte key.
func New(passphrase string) (*Sealer, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("sealing passphrase must not be empty")
	}

	hasher := sha256.New()
	hasher.Write([]byte(passphrase))
	keyBytes := hasher.Sum(nil)

	aead, err := chacha20poly1305.New(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("create chacha20: %w", err)
	}

	return &Sealer{aead: aead}, nil
}

// FromEnv creates a Sealer from the GATEKIT_SEAL_KEY environment variable.
// It returns (nil, nil) when the variable is unset, so callers can treat
// sealing as optional until a sealed value is actually encountered.
func FromEnv() (*Sealer, error) {
	passphrase := os.Getenv(EnvKey)
	if passphrase == "" {
		return nil, nil
	}
	return New(passphrase)
}

// Seal encrypts plaintext and returns a prefixed, base64-encoded value
// suitable for committing into a manifest.
func (s *Sealer) Seal(plaintext string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	ciphertext := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return Prefix + base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Open decrypts a sealed value produced by Seal. The "sealed:" prefix is
// required; pass manifest values through IsSealed first.
func (s *Sealer) Open(value string) (string, error) {
	encoded, ok := strings.CutPrefix(value, Prefix)
	if !ok {
		return "", fmt.Errorf("value is not sealed")
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode base64: %w", err)
	}

	nonceSize := s.aead.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("sealed value too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("open sealed value: %w", err)
	}

	return string(plaintext), nil
}

// IsSealed reports whether a manifest value carries the sealed prefix.
func IsSealed(value string) bool {
	return strings.HasPrefix(value, Prefix)
}
