package entity

import (
	"log/slog"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultTOTPTolerance = 1
	DefaultTOTPLastT     = -1
	// MaxBackupCodeLength bounds an offered backup token.
	MaxBackupCodeLength = 16
)

// Device is implemented by every second-factor device variant.
type Device interface {
	Kind() DeviceKind
	DeviceID() int64
	OwnerID() int64
	Label() string
}

// TOTPDevice is a time-based token generator. Drift and LastT change only
// on a successful verification.
type TOTPDevice struct {
	ID           int64
	UserID       int64
	Name         string
	EncryptedKey []byte
	Step         int64
	T0           int64
	Digits       int
	Tolerance    int
	Drift        int64
	LastT        int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (d *TOTPDevice) Kind() DeviceKind { return DeviceKindTOTP }
func (d *TOTPDevice) DeviceID() int64  { return d.ID }
func (d *TOTPDevice) OwnerID() int64   { return d.UserID }
func (d *TOTPDevice) Label() string    { return d.Name }

// LogValue keeps the encrypted key out of logs.
func (d *TOTPDevice) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("id", d.ID),
		slog.Int64("user_id", d.UserID),
		slog.String("name", d.Name),
		slog.Int64("step", d.Step),
		slog.Int("digits", d.Digits),
		slog.Int("tolerance", d.Tolerance),
		slog.Int64("drift", d.Drift),
		slog.Int64("last_t", d.LastT),
		slog.String("key", "***"),
	)
}

// BackupCodeDevice owns a shrinking set of single-use codes.
type BackupCodeDevice struct {
	ID        int64
	UserID    int64
	Name      string
	Remaining int
	CreatedAt time.Time
}

func (d *BackupCodeDevice) Kind() DeviceKind { return DeviceKindBackupCode }
func (d *BackupCodeDevice) DeviceID() int64  { return d.ID }
func (d *BackupCodeDevice) OwnerID() int64   { return d.UserID }
func (d *BackupCodeDevice) Label() string    { return d.Name }

// BackupCode is one stored code. TokenHash is the keyed digest of the
// normalised token, never the token itself.
type BackupCode struct {
	ID        int64
	DeviceID  int64
	TokenHash string
}

// DeviceRef identifies a device without holding it.
type DeviceRef struct {
	Kind DeviceKind
	ID   int64
}

// String returns the persistent id "<kind>/<id>".
func (r DeviceRef) String() string {
	return r.Kind.String() + "/" + strconv.FormatInt(r.ID, 10)
}

// PersistentID returns the persistent id of d, or "" for a nil device.
func PersistentID(d Device) string {
	if d == nil {
		return ""
	}
	return DeviceRef{Kind: d.Kind(), ID: d.DeviceID()}.String()
}

// ParsePersistentID decodes "<kind>/<id>". It reports false for an unknown
// kind or a malformed or non-positive id.
func ParsePersistentID(s string) (DeviceRef, bool) {
	kind, rawID, ok := strings.Cut(s, "/")
	if !ok {
		return DeviceRef{}, false
	}

	k := DeviceKindFromString(kind)
	if k == DeviceKindUnknown || k.String() != kind {
		return DeviceRef{}, false
	}

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return DeviceRef{}, false
	}

	return DeviceRef{Kind: k, ID: id}, true
}
