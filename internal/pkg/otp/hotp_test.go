package otp

import (
	"encoding/base32"
	"testing"
	"time"

	libotp "github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
)

var rfcKey = []byte("12345678901234567890")

func TestHOTP(t *testing.T) {
	t.Run("RFC4226Vectors", func(t *testing.T) {
		want := []string{
			"755224", "287082", "359152", "969429", "338314",
			"254676", "287922", "162583", "399871", "520489",
		}

		for counter, code := range want {
			if got := HOTP(rfcKey, uint64(counter), 6); got != code {
				t.Fatalf("counter %d: got %s want %s", counter, got, code)
			}
		}
	})

	t.Run("MatchesLibrary", func(t *testing.T) {
		secret := base32.StdEncoding.EncodeToString(rfcKey)

		for counter := uint64(0); counter < 200; counter += 7 {
			want, err := hotp.GenerateCodeCustom(secret, counter, hotp.ValidateOpts{
				Digits:    libotp.DigitsEight,
				Algorithm: libotp.AlgorithmSHA1,
			})
			if err != nil {
				t.Fatalf("library code: %v", err)
			}
			if got := HOTP(rfcKey, counter, 8); got != want {
				t.Fatalf("counter %d: got %s want %s", counter, got, want)
			}
		}
	})

	t.Run("ZeroPadded", func(t *testing.T) {
		for counter := uint64(0); counter < 500; counter++ {
			for _, digits := range []int{1, 6, 8, 10} {
				if got := HOTP(rfcKey, counter, digits); len(got) != digits {
					t.Fatalf("counter %d digits %d: got %q", counter, digits, got)
				}
			}
		}
	})

	t.Run("InvalidDigitsFallBack", func(t *testing.T) {
		if got := HOTP(rfcKey, 0, 0); got != "755224" {
			t.Fatalf("got %s", got)
		}
	})
}

func TestTOTP(t *testing.T) {
	t.Run("RFC6238Vectors", func(t *testing.T) {
		cases := []struct {
			unix int64
			code string
		}{
			{59, "94287082"},
			{1111111109, "07081804"},
			{1111111111, "14050471"},
			{1234567890, "89005924"},
			{2000000000, "69279037"},
			{20000000000, "65353130"},
		}

		for _, tc := range cases {
			got := TOTP(rfcKey, time.Unix(tc.unix, 0), 30, 0, 8, 0)
			if got != tc.code {
				t.Fatalf("unix %d: got %s want %s", tc.unix, got, tc.code)
			}
		}
	})

	t.Run("DriftShiftsCounter", func(t *testing.T) {
		at := time.Unix(1111111109, 0)
		if TOTP(rfcKey, at, 30, 0, 6, 1) != TOTP(rfcKey, at.Add(30*time.Second), 30, 0, 6, 0) {
			t.Fatal("drift of one step should equal the next step's code")
		}
	})

	t.Run("NegativeCounter", func(t *testing.T) {
		if got := TOTP(rfcKey, time.Unix(10, 0), 30, 100, 6, 0); got != "" {
			t.Fatalf("expected no code before t0, got %q", got)
		}
	})
}

func TestCounter(t *testing.T) {
	cases := []struct {
		name  string
		unix  int64
		step  int64
		t0    int64
		drift int64
		want  int64
	}{
		{"Epoch", 0, 30, 0, 0, 0},
		{"StepBoundary", 30, 30, 0, 0, 1},
		{"JustBeforeBoundary", 59, 30, 0, 0, 1},
		{"WithT0", 100, 30, 40, 0, 2},
		{"BeforeT0FloorsDown", 10, 30, 40, 0, -1},
		{"Drift", 59, 30, 0, -2, -1},
		{"DefaultStep", 61, 0, 0, 0, 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Counter(time.Unix(tc.unix, 0), tc.step, tc.t0, tc.drift); got != tc.want {
				t.Fatalf("got %d want %d", got, tc.want)
			}
		})
	}
}
