package mfa

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrEncryptorNotConfigured       = errors.New("mfa: encryptor not configured")
	ErrPlaintextEmpty               = errors.New("mfa: plaintext is empty")
	ErrInvalidKeyLength             = errors.New("mfa: key must be 32 bytes for AES-256")
	ErrCiphertextTooShort           = errors.New("mfa: ciphertext too short")
	ErrUnsupportedCiphertextVersion = errors.New("mfa: unsupported ciphertext version")
	ErrDecryptFailed                = errors.New("mfa: decrypt failed")
	ErrMissingStaticKey             = errors.New("mfa: missing static key")
)

// envelopeV1 is the first byte of every ciphertext, followed by the GCM
// nonce and the sealed key with its tag.
const envelopeV1 byte = 1

// AESGCMEncryptor seals device keys with AES-256-GCM. The scope is bound as
// additional data, so a ciphertext copied to another row cannot be opened.
type AESGCMEncryptor struct {
	keys KeyProvider
}

func NewAESGCMEncryptor(keys KeyProvider) *AESGCMEncryptor {
	return &AESGCMEncryptor{keys: keys}
}

func (e *AESGCMEncryptor) Encrypt(plaintext []byte, scope Scope) ([]byte, error) {
	if len(plaintext) == 0 {
		return nil, ErrPlaintextEmpty
	}
	gcm, err := e.aead(scope)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 1+gcm.NonceSize(), 1+gcm.NonceSize()+len(plaintext)+gcm.Overhead())
	out[0] = envelopeV1
	if _, err := rand.Read(out[1:]); err != nil {
		return nil, fmt.Errorf("mfa: nonce: %w", err)
	}

	return gcm.Seal(out, out[1:], plaintext, scope.aad()), nil
}

func (e *AESGCMEncryptor) Decrypt(ciphertext []byte, scope Scope) ([]byte, error) {
	gcm, err := e.aead(scope)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < 1+gcm.NonceSize()+gcm.Overhead() {
		return nil, ErrCiphertextTooShort
	}
	if ciphertext[0] != envelopeV1 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedCiphertextVersion, ciphertext[0])
	}

	nonce, sealed := ciphertext[1:1+gcm.NonceSize()], ciphertext[1+gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, sealed, scope.aad())
	if err != nil {
		return nil, ErrDecryptFailed
	}
	return plain, nil
}

func (e *AESGCMEncryptor) aead(scope Scope) (cipher.AEAD, error) {
	if e == nil || e.keys == nil {
		return nil, ErrEncryptorNotConfigured
	}

	key, err := e.keys.Key(scope)
	if err != nil {
		return nil, fmt.Errorf("mfa: key provider: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidKeyLength, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// aad is a fixed-length digest of the labelled scope fields.
func (s Scope) aad() []byte {
	b := make([]byte, 0, 64)
	b = append(b, "uid="...)
	b = strconv.AppendInt(b, s.UserID, 10)
	b = append(b, "\ndid="...)
	b = strconv.AppendInt(b, s.DeviceID, 10)
	b = append(b, "\npurpose="...)
	b = append(b, string(s.Purpose)...)
	sum := sha256.Sum256(b)
	return sum[:]
}

// StaticKeyProvider serves the configured mfa.secret for every scope.
type StaticKeyProvider struct {
	KeyBytes []byte
}

func (p StaticKeyProvider) Key(Scope) ([]byte, error) {
	if len(p.KeyBytes) == 0 {
		return nil, ErrMissingStaticKey
	}
	return append([]byte(nil), p.KeyBytes...), nil
}
