package otp

import (
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // HOTP is defined over HMAC-SHA1
	"encoding/binary"
	"fmt"
	"time"
)

const (
	// DefaultStep is the TOTP time step in seconds.
	DefaultStep int64 = 30
	// DefaultDigits is the number of digits in a generated code.
	DefaultDigits = 6
	// MaxDigits is the largest code length a 31-bit truncated value can fill.
	MaxDigits = 10
)

var pow10 = [MaxDigits + 1]uint64{
	1, 10, 100, 1_000, 10_000, 100_000, 1_000_000,
	10_000_000, 100_000_000, 1_000_000_000, 10_000_000_000,
}

// HOTP returns the HMAC-SHA1 one-time code for key and counter, zero padded
// to exactly digits characters. Out of range digits fall back to DefaultDigits.
func HOTP(key []byte, counter uint64, digits int) string {
	if digits < 1 || digits > MaxDigits {
		digits = DefaultDigits
	}

	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], counter)

	mac := hmac.New(sha1.New, key)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	bin := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff

	return fmt.Sprintf("%0*d", digits, uint64(bin)%pow10[digits])
}

// Counter returns the TOTP time step for at: floor((unix(at) - t0) / step) + drift.
func Counter(at time.Time, step, t0, drift int64) int64 {
	if step <= 0 {
		step = DefaultStep
	}

	return floorDiv(at.Unix()-t0, step) + drift
}

// TOTP returns the time-based code for at. It returns an empty string when
// the resulting counter is negative, since no code exists before t0.
func TOTP(key []byte, at time.Time, step, t0 int64, digits int, drift int64) string {
	c := Counter(at, step, t0, drift)
	if c < 0 {
		return ""
	}

	return HOTP(key, uint64(c), digits)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
