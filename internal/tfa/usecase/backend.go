package usecase

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/shandysiswandi/gotfa/internal/pkg/clock"
	"github.com/shandysiswandi/gotfa/internal/pkg/hash"
	"github.com/shandysiswandi/gotfa/internal/pkg/mfa"
	"github.com/shandysiswandi/gotfa/internal/pkg/otp"
	"github.com/shandysiswandi/gotfa/internal/tfa/entity"
)

// Backend verifies codes for one device kind.
type Backend interface {
	Kind() entity.DeviceKind
	// ListForUser returns the user's devices in stored order, or none for the
	// anonymous user (id 0).
	ListForUser(ctx context.Context, userID int64) ([]entity.Device, error)
	// TryVerify reports whether device accepts code. On true the changed
	// device state is already persisted.
	TryVerify(ctx context.Context, device entity.Device, code string) (bool, error)
	// Load returns the device by record id or goerror.ErrNotFound.
	Load(ctx context.Context, id int64) (entity.Device, error)
}

type TOTPBackend struct {
	repo  repoTOTPDevice
	enc   mfa.Encryptor
	clock clock.Clocker
	sync  bool
}

// NewTOTPBackend returns the backend for counter devices. With syncDrift
// set, an accepted code also stores the drift it was found at.
func NewTOTPBackend(repo repoTOTPDevice, enc mfa.Encryptor, clk clock.Clocker, syncDrift bool) *TOTPBackend {
	return &TOTPBackend{repo: repo, enc: enc, clock: clk, sync: syncDrift}
}

func (b *TOTPBackend) Kind() entity.DeviceKind { return entity.DeviceKindTOTP }

func (b *TOTPBackend) ListForUser(ctx context.Context, userID int64) ([]entity.Device, error) {
	if userID <= 0 {
		return nil, nil
	}

	devices, err := b.repo.ListTOTPDevices(ctx, userID)
	if err != nil {
		return nil, err
	}

	return lo.Map(devices, func(d entity.TOTPDevice, _ int) entity.Device { return &d }), nil
}

func (b *TOTPBackend) Load(ctx context.Context, id int64) (entity.Device, error) {
	d, err := b.repo.GetTOTPDevice(ctx, id)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (b *TOTPBackend) TryVerify(ctx context.Context, device entity.Device, code string) (bool, error) {
	d, ok := device.(*entity.TOTPDevice)
	if !ok || d == nil {
		return false, nil
	}

	key, err := b.enc.Decrypt(d.EncryptedKey, mfa.Scope{UserID: d.UserID, DeviceID: d.ID, Purpose: mfa.PurposeTOTPKey})
	if err != nil {
		return false, fmt.Errorf("decrypt totp key of device %d: %w", d.ID, err)
	}

	v := otp.NewVerifier(key, otp.Params{
		Step:   d.Step,
		T0:     d.T0,
		Digits: d.Digits,
		Drift:  d.Drift,
	}, otp.WithTime(b.clock.Now()))

	if !v.Verify(code, d.Tolerance, d.LastT+1) {
		return false, nil
	}

	lastT := v.T()
	drift := d.Drift
	if b.sync {
		drift = v.Drift()
	}

	updated, err := b.repo.UpdateTOTPDeviceState(ctx, d.ID, d.LastT, lastT, drift)
	if err != nil {
		return false, err
	}
	if !updated {
		// a concurrent verification moved last_t first
		return false, nil
	}

	d.LastT = lastT
	d.Drift = drift
	return true, nil
}

type BackupCodeBackend struct {
	repo repoBackupCodeDevice
	hmac hash.Hash
}

// NewBackupCodeBackend returns the backend for backup-code devices. Codes are
// looked up by their HMAC digest.
func NewBackupCodeBackend(repo repoBackupCodeDevice, hmac hash.Hash) *BackupCodeBackend {
	return &BackupCodeBackend{repo: repo, hmac: hmac}
}

func (b *BackupCodeBackend) Kind() entity.DeviceKind { return entity.DeviceKindBackupCode }

func (b *BackupCodeBackend) ListForUser(ctx context.Context, userID int64) ([]entity.Device, error) {
	if userID <= 0 {
		return nil, nil
	}

	devices, err := b.repo.ListBackupCodeDevices(ctx, userID)
	if err != nil {
		return nil, err
	}

	return lo.Map(devices, func(d entity.BackupCodeDevice, _ int) entity.Device { return &d }), nil
}

func (b *BackupCodeBackend) Load(ctx context.Context, id int64) (entity.Device, error) {
	d, err := b.repo.GetBackupCodeDevice(ctx, id)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (b *BackupCodeBackend) TryVerify(ctx context.Context, device entity.Device, code string) (bool, error) {
	d, ok := device.(*entity.BackupCodeDevice)
	if !ok || d == nil {
		return false, nil
	}

	code = mfa.NormalizeRecoveryCode(code)
	if code == "" || len(code) > entity.MaxBackupCodeLength {
		return false, nil
	}

	tokenHash, err := b.hmac.Hash(code)
	if err != nil {
		return false, fmt.Errorf("hash backup code: %w", err)
	}

	consumed, err := b.repo.ConsumeBackupCode(ctx, d.ID, string(tokenHash))
	if err != nil {
		return false, err
	}
	if consumed && d.Remaining > 0 {
		d.Remaining--
	}

	return consumed, nil
}
