package jwt

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
)

// Config is read from the jwt.* keys.
type Config struct {
	Secret    []byte
	Issuer    string
	Audiences []string
	TTL       time.Duration
	Clock     clocker
	// UUID generates the jti claim.
	UUID generator
}

// HS512 signs and verifies tokens with a shared secret. Time checks use the
// configured clock so tokens follow the same time source as the TOTP window.
type HS512 struct {
	cfg    Config
	parser *libJWT.Parser
}

func NewHS512(cfg Config) (*HS512, error) {
	if len(cfg.Secret) < 64 {
		return nil, ErrSigningKeyTooShort
	}

	return &HS512{
		cfg: cfg,
		parser: libJWT.NewParser(
			libJWT.WithIssuer(cfg.Issuer),
			libJWT.WithAudience(cfg.Audiences...),
			libJWT.WithValidMethods([]string{libJWT.SigningMethodHS512.Alg()}),
			libJWT.WithIssuedAt(),
			libJWT.WithExpirationRequired(),
			libJWT.WithTimeFunc(cfg.Clock.Now),
		),
	}, nil
}

func (h *HS512) Generate(uid int64, email, sid string) (string, error) {
	now := h.cfg.Clock.Now()

	token := libJWT.NewWithClaims(libJWT.SigningMethodHS512, Claims{
		RegisteredClaims: libJWT.RegisteredClaims{
			ID:        h.cfg.UUID.Generate(),
			Subject:   strconv.FormatInt(uid, 10),
			Issuer:    h.cfg.Issuer,
			Audience:  h.cfg.Audiences,
			IssuedAt:  libJWT.NewNumericDate(now),
			NotBefore: libJWT.NewNumericDate(now),
			ExpiresAt: libJWT.NewNumericDate(now.Add(h.cfg.TTL)),
		},
		UserID:    uid,
		UserEmail: email,
		SessionID: sid,
	})

	return token.SignedString(h.cfg.Secret)
}

// Verify returns ErrTokenExpired for an expired token and wraps
// ErrInvalidToken for every other failure.
func (h *HS512) Verify(tokenStr string) (Claims, error) {
	var claims Claims

	_, err := h.parser.ParseWithClaims(tokenStr, &claims, func(*libJWT.Token) (any, error) {
		return h.cfg.Secret, nil
	})
	switch {
	case errors.Is(err, libJWT.ErrTokenExpired):
		return Claims{}, ErrTokenExpired
	case err != nil:
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	return claims, nil
}
