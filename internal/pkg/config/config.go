package config

import (
	"io"
	"time"
)

// Config reads typed values by dotted key (tfa.totp.issuer). Missing or
// unconvertible values come back as the zero value; use IsSet to tell a
// missing key apart from an explicit zero.
type Config interface {
	io.Closer

	IsSet(key string) bool

	GetBool(key string) bool
	GetString(key string) string
	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
	GetFloat64(key string) float64

	// GetSecond and GetMinute scale an integer value into a duration.
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration

	// GetBinary decodes a base64 value, such as the MFA master key.
	GetBinary(key string) []byte
	// GetArray accepts a YAML list or a "a,b,c" string.
	GetArray(key string) []string
	// GetMap parses "k1:v1,k2:v2".
	GetMap(key string) map[string]string
}
