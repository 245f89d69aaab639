package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/gotfa/internal/tfa/entity"
)

const selectTOTPDevice = `
	SELECT id, user_id, name, key, step, t0, digits, tolerance, drift, last_t, created_at, updated_at
	FROM tfa_totp_devices`

func scanTOTPDevice(row rowScanner) (entity.TOTPDevice, error) {
	var d entity.TOTPDevice
	var digits int16
	err := row.Scan(&d.ID, &d.UserID, &d.Name, &d.EncryptedKey, &d.Step, &d.T0, &digits,
		&d.Tolerance, &d.Drift, &d.LastT, &d.CreatedAt, &d.UpdatedAt)
	d.Digits = int(digits)
	return d, err
}

func (s *DB) ListTOTPDevices(ctx context.Context, userID int64) (_ []entity.TOTPDevice, err error) {
	ctx, span := s.startSpan(ctx, "ListTOTPDevices")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, selectTOTPDevice+` WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, s.mapError(err)
	}

	devices, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.TOTPDevice, error) {
		return scanTOTPDevice(row)
	})
	if err != nil {
		return nil, s.mapError(err)
	}

	return devices, nil
}

func (s *DB) GetTOTPDevice(ctx context.Context, id int64) (_ *entity.TOTPDevice, err error) {
	ctx, span := s.startSpan(ctx, "GetTOTPDevice")
	defer func() { s.endSpan(span, err) }()

	d, err := scanTOTPDevice(s.conn.QueryRow(ctx, selectTOTPDevice+` WHERE id = $1`, id))
	if err != nil {
		return nil, s.mapError(err)
	}

	return &d, nil
}

// UpdateTOTPDeviceState is a compare-and-swap on last_t: of two concurrent
// verifications of the same step only one sees its update applied.
func (s *DB) UpdateTOTPDeviceState(ctx context.Context, id, previousLastT, lastT, drift int64) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "UpdateTOTPDeviceState")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		UPDATE tfa_totp_devices
		SET last_t = $3, drift = $4, updated_at = now()
		WHERE id = $1 AND last_t = $2`, id, previousLastT, lastT, drift)
	if err != nil {
		return false, s.mapError(err)
	}

	return tag.RowsAffected() == 1, nil
}

func (s *DB) CreateTOTPDevice(ctx context.Context, d entity.TOTPDevice) (err error) {
	ctx, span := s.startSpan(ctx, "CreateTOTPDevice")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		INSERT INTO tfa_totp_devices
			(id, user_id, name, key, step, t0, digits, tolerance, drift, last_t, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		d.ID, d.UserID, d.Name, d.EncryptedKey, d.Step, d.T0, int16(d.Digits),
		d.Tolerance, d.Drift, d.LastT, d.CreatedAt, d.UpdatedAt)
	return s.mapError(err)
}

const selectBackupCodeDevice = `
	SELECT d.id, d.user_id, d.name, d.created_at,
		(SELECT count(*) FROM tfa_backup_codes c WHERE c.device_id = d.id)
	FROM tfa_backup_code_devices d`

func scanBackupCodeDevice(row rowScanner) (entity.BackupCodeDevice, error) {
	var d entity.BackupCodeDevice
	var remaining int64
	err := row.Scan(&d.ID, &d.UserID, &d.Name, &d.CreatedAt, &remaining)
	d.Remaining = int(remaining)
	return d, err
}

func (s *DB) ListBackupCodeDevices(ctx context.Context, userID int64) (_ []entity.BackupCodeDevice, err error) {
	ctx, span := s.startSpan(ctx, "ListBackupCodeDevices")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, selectBackupCodeDevice+` WHERE d.user_id = $1 ORDER BY d.id`, userID)
	if err != nil {
		return nil, s.mapError(err)
	}

	devices, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.BackupCodeDevice, error) {
		return scanBackupCodeDevice(row)
	})
	if err != nil {
		return nil, s.mapError(err)
	}

	return devices, nil
}

func (s *DB) GetBackupCodeDevice(ctx context.Context, id int64) (_ *entity.BackupCodeDevice, err error) {
	ctx, span := s.startSpan(ctx, "GetBackupCodeDevice")
	defer func() { s.endSpan(span, err) }()

	d, err := scanBackupCodeDevice(s.conn.QueryRow(ctx, selectBackupCodeDevice+` WHERE d.id = $1`, id))
	if err != nil {
		return nil, s.mapError(err)
	}

	return &d, nil
}

// ConsumeBackupCode deletes exactly one matching code. Concurrent callers
// skip a row another transaction already holds, so a code is consumed once.
func (s *DB) ConsumeBackupCode(ctx context.Context, deviceID int64, tokenHash string) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "ConsumeBackupCode")
	defer func() { s.endSpan(span, err) }()

	var id int64
	err = s.conn.QueryRow(ctx, `
		DELETE FROM tfa_backup_codes
		WHERE id = (
			SELECT id FROM tfa_backup_codes
			WHERE device_id = $1 AND token_hash = $2
			ORDER BY id
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id`, deviceID, tokenHash).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, s.mapError(err)
	}

	return true, nil
}
