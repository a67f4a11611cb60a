package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

const timeFormat = time.RFC3339Nano

// DefaultLimit and MaxLimit bound list endpoints.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ClampLimit returns limit within (0, MaxLimit], using DefaultLimit for non-positive values.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// EncodeCursor creates an opaque keyset token from a timestamp and a tie-breaking id.
// Rows are expected to be ordered by (at DESC, id DESC).
func EncodeCursor(at time.Time, id string) string {
	return EncodeMultiFieldToken(at.UTC().Format(timeFormat), id)
}

// DecodeCursor parses a token produced by EncodeCursor.
func DecodeCursor(token string) (time.Time, string, error) {
	parts, err := DecodeMultiFieldToken(token)
	if err != nil {
		return time.Time{}, "", err
	}
	if len(parts) != 2 || parts[1] == "" {
		return time.Time{}, "", fmt.Errorf("invalid pagination token format (split)")
	}
	at, err := time.Parse(timeFormat, parts[0])
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid pagination token format (time parse): %w", err)
	}
	return at, parts[1], nil
}

// EncodeMultiFieldToken creates a token with any number of string fields
func EncodeMultiFieldToken(fields ...string) string {
	return base64.URLEncoding.EncodeToString([]byte(strings.Join(fields, "|")))
}

// DecodeMultiFieldToken decodes a token into its component fields
func DecodeMultiFieldToken(token string) ([]string, error) {
	decodedBytes, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}
	return strings.Split(string(decodedBytes), "|"), nil
}
