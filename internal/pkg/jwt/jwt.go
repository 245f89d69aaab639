package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrSigningKeyTooShort = errors.New("HS512 signing key must be at least 64 bytes")
	ErrTokenExpired       = errors.New("JWT token has expired")
	ErrInvalidToken       = errors.New("invalid token")
)

// JWT issues the access token that carries the login session id, and
// verifies it on every authenticated request.
type JWT interface {
	Generate(uid int64, email, sid string) (string, error)
	Verify(tokenStr string) (Claims, error)
}

type clocker interface {
	Now() time.Time
}

type generator interface {
	Generate() string
}

// Claims are the registered claims plus the user and the two-factor
// session the token was issued for.
type Claims struct {
	jwt.RegisteredClaims
	UserID    int64  `json:"user_id,string"`
	UserEmail string `json:"user_email"`
	SessionID string `json:"sid"`
}

type authKey struct{}

// GetAuth returns the claims stored by the auth middleware, or nil.
func GetAuth(ctx context.Context) *Claims {
	clm, ok := ctx.Value(authKey{}).(Claims)
	if !ok {
		return nil
	}
	return &clm
}

func SetAuth(ctx context.Context, clm Claims) context.Context {
	return context.WithValue(ctx, authKey{}, clm)
}
