package entity

import "strings"

// DeviceKind discriminates the closed set of second-factor device variants.
type DeviceKind int16

const (
	DeviceKindUnknown    DeviceKind = 0
	DeviceKindTOTP       DeviceKind = 1
	DeviceKindBackupCode DeviceKind = 2
)

// String returns the persistent-id discriminator of the kind.
func (k DeviceKind) String() string {
	switch k {
	case DeviceKindTOTP:
		return "totp"
	case DeviceKindBackupCode:
		return "backup_code"
	default:
		return "unknown"
	}
}

func DeviceKindFromString(s string) DeviceKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "totp":
		return DeviceKindTOTP
	case "backup_code":
		return DeviceKindBackupCode
	default:
		return DeviceKindUnknown
	}
}

// DeviceKinds lists every known kind in registry order.
func DeviceKinds() []DeviceKind {
	return []DeviceKind{DeviceKindTOTP, DeviceKindBackupCode}
}

// SessionState is the authentication state derived for a request.
type SessionState int16

const (
	// SessionStateAnonymous mean no valid login session is attached.
	SessionStateAnonymous SessionState = 0

	// SessionStateFirstFactor mean the password was verified but no device
	// currently vouches for the session.
	SessionStateFirstFactor SessionState = 1

	// SessionStateSecondFactor mean a live device owned by the session user
	// is bound to the session.
	SessionStateSecondFactor SessionState = 2
)

func (s SessionState) String() string {
	switch s {
	case SessionStateFirstFactor:
		return "first_factor"
	case SessionStateSecondFactor:
		return "second_factor"
	default:
		return "anonymous"
	}
}
