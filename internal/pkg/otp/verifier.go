package otp

import (
	"crypto/subtle"
	"time"
)

// Params describes the counter-device settings a Verifier is seeded with.
type Params struct {
	Step   int64
	T0     int64
	Digits int
	Drift  int64
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithTime pins the wall-clock instant the verifier evaluates codes against.
func WithTime(at time.Time) VerifierOption {
	return func(v *Verifier) { v.at = at }
}

// Verifier checks offered codes against a key while tolerating clock drift.
//
// It is not safe for concurrent use; build one per verification attempt.
type Verifier struct {
	key    []byte
	step   int64
	t0     int64
	digits int
	drift  int64
	at     time.Time
}

// NewVerifier returns a Verifier for key. The evaluation instant defaults to
// time.Now() at construction and stays fixed for the verifier's lifetime.
func NewVerifier(key []byte, p Params, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		key:    key,
		step:   p.Step,
		t0:     p.T0,
		digits: p.Digits,
		drift:  p.Drift,
	}
	if v.step <= 0 {
		v.step = DefaultStep
	}
	if v.digits < 1 || v.digits > MaxDigits {
		v.digits = DefaultDigits
	}

	for _, opt := range opts {
		opt(v)
	}
	if v.at.IsZero() {
		v.at = time.Now()
	}

	return v
}

// Drift returns the live drift. After a successful Verify it holds the drift
// that produced the match.
func (v *Verifier) Drift() int64 {
	return v.drift
}

// T returns the time step for the pinned instant and the live drift.
func (v *Verifier) T() int64 {
	return Counter(v.at, v.step, v.t0, v.drift)
}

// Code returns the code for the current step, or "" when the step is negative.
func (v *Verifier) Code() string {
	return TOTP(v.key, v.at, v.step, v.t0, v.digits, v.drift)
}

// Verify reports whether code matches any step within tolerance of the
// expected one. Offsets are tried in the order 0, -1, +1, -2, +2, ... and the
// first match wins. Steps below zero or below minCounter are never accepted.
//
// On success the live drift keeps the matching offset; on failure it is
// restored to the value it had before the call.
func (v *Verifier) Verify(code string, tolerance int, minCounter int64) bool {
	orig := v.drift

	for _, offset := range searchOrder(tolerance) {
		v.drift = orig + offset

		c := v.T()
		if c < 0 || c < minCounter {
			continue
		}

		expected := HOTP(v.key, uint64(c), v.digits)
		if subtle.ConstantTimeCompare([]byte(expected), []byte(code)) == 1 {
			return true
		}
	}

	v.drift = orig
	return false
}

func searchOrder(tolerance int) []int64 {
	if tolerance < 0 {
		tolerance = 0
	}

	order := make([]int64, 0, 2*tolerance+1)
	order = append(order, 0)
	for k := int64(1); k <= int64(tolerance); k++ {
		order = append(order, -k, k)
	}
	return order
}
