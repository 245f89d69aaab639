package hash

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrUnknownAlgorithm is returned by NewPassword for unsupported names.
var ErrUnknownAlgorithm = errors.New("hash: unknown algorithm")

// Hash hashes a secret and verifies plaintext against a stored hash.
type Hash interface {
	Hash(str string) ([]byte, error)
	Verify(hashed, str string) bool
}

// NewPassword returns the password hasher named by algorithm: "bcrypt" or
// "argon2id".
func NewPassword(algorithm, pepper string) (Hash, error) {
	switch strings.ToLower(strings.TrimSpace(algorithm)) {
	case "", "bcrypt":
		return NewBcrypt(bcrypt.DefaultCost, pepper), nil
	case "argon2id":
		return NewArgon2id(pepper), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
	}
}
