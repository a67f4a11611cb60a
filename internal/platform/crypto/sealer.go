// Package crypto seals OAuth tokens before they are written to the database.
package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

const sealedPrefix = "v1:"

var (
	ErrInvalidKey    = errors.New("token encryption key must be 32 bytes (raw, hex or base64)")
	ErrNotSealed     = errors.New("value is not a sealed token")
	ErrTamperedToken = errors.New("sealed token failed authentication")
)

// Sealer encrypts and decrypts token strings. Empty strings pass through unchanged.
type Sealer interface {
	Seal(plaintext string) (string, error)
	Open(sealed string) (string, error)
}

// TokenSealer uses XChaCha20-Poly1305 with a random nonce per value.
type TokenSealer struct {
	aead cipher.AEAD
}

var _ Sealer = (*TokenSealer)(nil)

// NewTokenSealer creates a sealer from a 32 byte key.
func NewTokenSealer(key []byte) (*TokenSealer, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, ErrInvalidKey
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	return &TokenSealer{aead: aead}, nil
}

// ParseKey accepts the key as 64 hex chars, standard base64, or 32 raw bytes.
func ParseKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if b, err := hex.DecodeString(s); err == nil && len(b) == chacha20poly1305.KeySize {
		return b, nil
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil && len(b) == chacha20poly1305.KeySize {
		return b, nil
	}
	if len(s) == chacha20poly1305.KeySize {
		return []byte(s), nil
	}
	return nil, ErrInvalidKey
}

// Seal implements Sealer.
func (s *TokenSealer) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	out := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return sealedPrefix + base64.RawStdEncoding.EncodeToString(out), nil
}

// Open implements Sealer.
func (s *TokenSealer) Open(sealed string) (string, error) {
	if sealed == "" {
		return "", nil
	}
	encoded, ok := strings.CutPrefix(sealed, sealedPrefix)
	if !ok {
		return "", ErrNotSealed
	}
	raw, err := base64.RawStdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotSealed, err)
	}
	if len(raw) < s.aead.NonceSize()+s.aead.Overhead() {
		return "", ErrTamperedToken
	}
	nonce, ciphertext := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrTamperedToken
	}
	return string(plain), nil
}

// Plaintext stores tokens as-is. Only meant for local development.
type Plaintext struct{}

var _ Sealer = Plaintext{}

func (Plaintext) Seal(s string) (string, error) { return s, nil }
func (Plaintext) Open(s string) (string, error) { return s, nil }
