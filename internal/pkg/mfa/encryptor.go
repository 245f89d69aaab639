package mfa

// Encryptor protects TOTP device keys at rest.
type Encryptor interface {
	Encrypt(plaintext []byte, scope Scope) ([]byte, error)
	Decrypt(ciphertext []byte, scope Scope) ([]byte, error)
}

// KeyProvider resolves the 32-byte master key for a scope, which leaves room
// for per-tenant keys or rotation behind the same interface.
type KeyProvider interface {
	Key(scope Scope) ([]byte, error)
}
