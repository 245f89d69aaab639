package otp

import (
	"bytes"
	"errors"
	"image/png"
	"strings"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// ErrIssuerRequired is returned when a provisioning URI has no issuer.
var ErrIssuerRequired = errors.New("otp: issuer is required")

// ProvisioningOptions describes the otpauth URI for an authenticator app.
type ProvisioningOptions struct {
	Issuer      string
	AccountName string
	Key         []byte
	Digits      int
	Step        int64
}

// ProvisioningURI returns the otpauth://totp URI for the options.
func ProvisioningURI(o ProvisioningOptions) (string, error) {
	issuer := strings.ReplaceAll(strings.TrimSpace(o.Issuer), ":", "")
	if issuer == "" {
		return "", ErrIssuerRequired
	}
	if len(o.Key) == 0 {
		return "", ErrInvalidKey
	}

	step := o.Step
	if step <= 0 {
		step = DefaultStep
	}
	digits := o.Digits
	if digits < 1 || digits > MaxDigits {
		digits = DefaultDigits
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: o.AccountName,
		Period:      uint(step),
		Secret:      o.Key,
		Digits:      otp.Digits(digits),
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", err
	}

	return key.URL(), nil
}

// QRCodePNG renders uri as a size x size PNG QR code.
func QRCodePNG(uri string, size int) ([]byte, error) {
	key, err := otp.NewKeyFromURL(uri)
	if err != nil {
		return nil, err
	}

	img, err := key.Image(size, size)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
