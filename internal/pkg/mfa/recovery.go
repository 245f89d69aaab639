package mfa

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// DefaultRecoveryCodeCount is the number of backup codes issued per device.
const DefaultRecoveryCodeCount = 10

// RecoveryCodeGenerator generates single-use backup codes.
type RecoveryCodeGenerator interface {
	// Generate returns count unique codes or an error if the random source fails.
	Generate(count int) ([]string, error)
}

// alphabet is upper case only and drops 0/O and 1/I so codes survive being
// read aloud or retyped. 32 symbols give 60 bits per 12 character code.
const alphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

// RecoveryCode produces codes formatted as XXXX-XXXX-XXXX.
type RecoveryCode struct{}

// NewRecoveryCode returns a new RecoveryCode generator.
func NewRecoveryCode() *RecoveryCode {
	return &RecoveryCode{}
}

// Generate returns count unique codes. A non-positive count selects
// DefaultRecoveryCodeCount.
func (rc *RecoveryCode) Generate(count int) ([]string, error) {
	if count <= 0 {
		count = DefaultRecoveryCodeCount
	}

	out := make([]string, 0, count)
	seen := make(map[string]struct{}, count)

	for len(out) < count {
		code, err := rc.generateCode()
		if err != nil {
			return nil, err
		}

		if _, ok := seen[code]; ok {
			continue
		}

		seen[code] = struct{}{}
		out = append(out, code)
	}

	return out, nil
}

// NormalizeRecoveryCode canonicalises user input so that lookups are case
// and whitespace insensitive.
func NormalizeRecoveryCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (rc *RecoveryCode) generateCode() (string, error) {
	var sb strings.Builder
	sb.Grow(14)

	for i := 0; i < 12; i++ {
		if i > 0 && i%4 == 0 {
			sb.WriteByte('-')
		}

		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", err
		}
		sb.WriteByte(alphabet[idx.Int64()])
	}

	return sb.String(), nil
}
