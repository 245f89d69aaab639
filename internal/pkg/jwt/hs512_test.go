package jwt

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

type staticID string

func (s staticID) Generate() string { return string(s) }

func newHS512(t *testing.T, at time.Time) *HS512 {
	t.Helper()

	s, err := NewHS512(Config{
		Secret:     []byte(strings.Repeat("k", 64)),
		Issuer:     "gotfa",
		Audiences:  []string{"gotfa-api"},
		TTL:        15 * time.Minute,
		Clock:      fixedClock{at: at},
		UUID:       staticID("jti-1"),
	})
	if err != nil {
		t.Fatalf("new hs512: %v", err)
	}
	return s
}

func TestHS512(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		// Arrange
		s := newHS512(t, time.Now())

		// Act
		token, err := s.Generate(42, "alice@example.com", "sess-1")
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		claims, err := s.Verify(token)

		// Assert
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if claims.UserID != 42 || claims.UserEmail != "alice@example.com" || claims.SessionID != "sess-1" {
			t.Fatalf("unexpected claims %+v", claims)
		}
		if claims.ID != "jti-1" || claims.Subject != "42" {
			t.Fatalf("unexpected registered claims %+v", claims.RegisteredClaims)
		}
	})

	t.Run("Expired", func(t *testing.T) {
		issuedAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		token, err := newHS512(t, issuedAt).Generate(1, "bob@example.com", "sess-2")
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if _, err := newHS512(t, issuedAt.Add(time.Hour)).Verify(token); !errors.Is(err, ErrTokenExpired) {
			t.Fatalf("expected ErrTokenExpired, got %v", err)
		}
	})

	t.Run("Tampered", func(t *testing.T) {
		s := newHS512(t, time.Now())

		token, _ := s.Generate(1, "bob@example.com", "sess-3")
		if _, err := s.Verify(token + "x"); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("FollowsConfiguredClock", func(t *testing.T) {
		past := time.Date(2020, 5, 1, 12, 0, 0, 0, time.UTC)
		s := newHS512(t, past)

		token, _ := s.Generate(1, "bob@example.com", "sess-4")

		if _, err := s.Verify(token); err != nil {
			t.Fatalf("token must be valid at the issuing clock: %v", err)
		}
	})

	t.Run("WrongAudience", func(t *testing.T) {
		now := time.Now()
		token, _ := newHS512(t, now).Generate(1, "bob@example.com", "sess-5")
		other, err := NewHS512(Config{
			Secret:    []byte(strings.Repeat("k", 64)),
			Issuer:    "gotfa",
			Audiences: []string{"someone-else"},
			TTL:       time.Minute,
			Clock:     fixedClock{at: now},
			UUID:      staticID("x"),
		})
		if err != nil {
			t.Fatalf("new: %v", err)
		}

		if _, err := other.Verify(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("ShortSecret", func(t *testing.T) {
		if _, err := NewHS512(Config{Secret: []byte("short")}); !errors.Is(err, ErrSigningKeyTooShort) {
			t.Fatalf("expected ErrSigningKeyTooShort, got %v", err)
		}
	})
}

func TestAuthContext(t *testing.T) {
	if GetAuth(context.Background()) != nil {
		t.Fatal("expected no claims")
	}

	ctx := SetAuth(context.Background(), Claims{UserID: 9, SessionID: "s"})
	if clm := GetAuth(ctx); clm == nil || clm.UserID != 9 || clm.SessionID != "s" {
		t.Fatalf("unexpected claims %+v", clm)
	}
}
