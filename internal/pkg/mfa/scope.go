package mfa

// Purpose identifies what a ciphertext protects.
type Purpose string

const (
	// PurposeTOTPKey scopes encryption to a TOTP device secret key.
	PurposeTOTPKey Purpose = "totp_key"
)

// Scope binds a ciphertext to its owner and device. It is used as AES-GCM
// additional authenticated data, so a key copied onto another user's or
// device's row fails to decrypt.
type Scope struct {
	UserID   int64
	DeviceID int64
	Purpose  Purpose
}
