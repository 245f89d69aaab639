package entity

import "time"

// Session is the server-side record behind a login token.
type Session struct {
	ID     string
	UserID int64
	// DevicePersistentID is the device that satisfied the second factor, or
	// "" when none has.
	DevicePersistentID string
	CreatedAt          time.Time
}

// SessionStatus is the state re-derived for one request.
type SessionStatus struct {
	State     SessionState
	SessionID string
	UserID    int64
	Email     string
	// Device is the bound device, set only in SessionStateSecondFactor.
	Device Device
}

// IsSecondFactor reports whether the session is fully authenticated.
func (s *SessionStatus) IsSecondFactor() bool {
	return s != nil && s.State == SessionStateSecondFactor
}
