package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/samber/lo"
	"github.com/shandysiswandi/gotfa/internal/tfa/entity"
)

func (s *DB) CreateBackupCodeDevice(ctx context.Context, d entity.BackupCodeDevice, codes []entity.BackupCode) (err error) {
	ctx, span := s.startSpan(ctx, "CreateBackupCodeDevice")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rolback", "error", rErr)
		}
	}()

	if _, err := tx.Exec(ctx, `
		INSERT INTO tfa_backup_code_devices (id, user_id, name, created_at)
		VALUES ($1, $2, $3, $4)`, d.ID, d.UserID, d.Name, d.CreatedAt); err != nil {
		return s.mapError(err)
	}

	rows := lo.Map(codes, func(c entity.BackupCode, _ int) []any {
		return []any{c.ID, d.ID, c.TokenHash}
	})
	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"tfa_backup_codes"},
		[]string{"id", "device_id", "token_hash"},
		pgx.CopyFromRows(rows),
	); err != nil {
		return s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}

// DeleteUserDevices removes every device of the user, of every kind, in one
// transaction. Backup codes go with their device.
func (s *DB) DeleteUserDevices(ctx context.Context, userID int64) (_ int, err error) {
	ctx, span := s.startSpan(ctx, "DeleteUserDevices")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rolback", "error", rErr)
		}
	}()

	totp, err := tx.Exec(ctx, `DELETE FROM tfa_totp_devices WHERE user_id = $1`, userID)
	if err != nil {
		return 0, s.mapError(err)
	}

	backup, err := tx.Exec(ctx, `DELETE FROM tfa_backup_code_devices WHERE user_id = $1`, userID)
	if err != nil {
		return 0, s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, s.mapError(err)
	}

	return int(totp.RowsAffected() + backup.RowsAffected()), nil
}
