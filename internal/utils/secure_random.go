package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// GenerateURLSafeToken returns n random bytes encoded with unpadded base64url,
// safe to place in a query string or cookie as-is.
func GenerateURLSafeToken(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("token length must be positive, got %d", n)
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
