package otp

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultKeySize is the secret size recommended by RFC 4226.
	DefaultKeySize = 20
	// MaxKeySize bounds keys to what a 128 character hex column can hold.
	MaxKeySize = 64
)

// ErrInvalidKey is returned for keys that are empty, oversized or not hex.
var ErrInvalidKey = errors.New("otp: invalid key")

// GenerateKey returns size bytes from crypto/rand. A non-positive size
// selects DefaultKeySize.
func GenerateKey(size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultKeySize
	}
	if size > MaxKeySize {
		return nil, fmt.Errorf("%w: size %d exceeds %d bytes", ErrInvalidKey, size, MaxKeySize)
	}

	key := make([]byte, size)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("otp: generate key: %w", err)
	}

	return key, nil
}

// ParseHexKey decodes a hex-encoded secret key.
func ParseHexKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrInvalidKey
	}

	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: not valid hex-encoded data", ErrInvalidKey)
	}
	if len(key) > MaxKeySize {
		return nil, fmt.Errorf("%w: key exceeds %d bytes", ErrInvalidKey, MaxKeySize)
	}

	return key, nil
}
