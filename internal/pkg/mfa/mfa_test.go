package mfa

import (
	"bytes"
	"errors"
	"regexp"
	"testing"
)

func TestAESGCMEncryptor(t *testing.T) {
	enc := NewAESGCMEncryptor(StaticKeyProvider{KeyBytes: bytes.Repeat([]byte{7}, 32)})
	scope := Scope{UserID: 1, DeviceID: 10, Purpose: PurposeTOTPKey}
	secret := []byte("12345678901234567890")

	t.Run("RoundTrip", func(t *testing.T) {
		ct, err := enc.Encrypt(secret, scope)
		if err != nil {
			t.Fatalf("encrypt: %v", err)
		}
		if bytes.Contains(ct, secret) {
			t.Fatal("ciphertext contains plaintext")
		}

		pt, err := enc.Decrypt(ct, scope)
		if err != nil {
			t.Fatalf("decrypt: %v", err)
		}
		if !bytes.Equal(pt, secret) {
			t.Fatalf("got %q", pt)
		}
	})

	t.Run("ScopeBound", func(t *testing.T) {
		ct, _ := enc.Encrypt(secret, scope)

		for _, other := range []Scope{
			{UserID: 2, DeviceID: 10, Purpose: PurposeTOTPKey},
			{UserID: 1, DeviceID: 11, Purpose: PurposeTOTPKey},
		} {
			if _, err := enc.Decrypt(ct, other); !errors.Is(err, ErrDecryptFailed) {
				t.Fatalf("scope %+v: expected ErrDecryptFailed, got %v", other, err)
			}
		}
	})

	t.Run("Errors", func(t *testing.T) {
		if _, err := enc.Encrypt(nil, scope); !errors.Is(err, ErrPlaintextEmpty) {
			t.Fatalf("expected ErrPlaintextEmpty, got %v", err)
		}
		if _, err := enc.Decrypt([]byte{0, 1}, scope); !errors.Is(err, ErrCiphertextTooShort) {
			t.Fatalf("expected ErrCiphertextTooShort, got %v", err)
		}

		ct, _ := enc.Encrypt(secret, scope)
		ct[0] = 9
		if _, err := enc.Decrypt(ct, scope); !errors.Is(err, ErrUnsupportedCiphertextVersion) {
			t.Fatalf("expected ErrUnsupportedCiphertextVersion, got %v", err)
		}
		if _, err := NewAESGCMEncryptor(StaticKeyProvider{}).Encrypt(secret, scope); !errors.Is(err, ErrMissingStaticKey) {
			t.Fatalf("expected ErrMissingStaticKey, got %v", err)
		}

		bad := NewAESGCMEncryptor(StaticKeyProvider{KeyBytes: []byte("short")})
		if _, err := bad.Encrypt(secret, scope); !errors.Is(err, ErrInvalidKeyLength) {
			t.Fatalf("expected ErrInvalidKeyLength, got %v", err)
		}
	})
}

func TestRecoveryCode(t *testing.T) {
	format := regexp.MustCompile(`^[2-9A-HJ-NP-Z]{4}-[2-9A-HJ-NP-Z]{4}-[2-9A-HJ-NP-Z]{4}$`)

	codes, err := NewRecoveryCode().Generate(0)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(codes) != DefaultRecoveryCodeCount {
		t.Fatalf("len = %d", len(codes))
	}

	seen := map[string]bool{}
	for _, c := range codes {
		if !format.MatchString(c) {
			t.Fatalf("bad format %q", c)
		}
		if seen[c] {
			t.Fatalf("duplicate %q", c)
		}
		seen[c] = true
	}

	more, _ := NewRecoveryCode().Generate(3)
	if len(more) != 3 {
		t.Fatalf("len = %d", len(more))
	}

	if got := NormalizeRecoveryCode("  abcd-efgh-jkmn\n"); got != "ABCD-EFGH-JKMN" {
		t.Fatalf("normalized = %q", got)
	}
}
