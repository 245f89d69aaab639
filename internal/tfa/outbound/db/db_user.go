package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shandysiswandi/gotfa/internal/pkg/goerror"
	"github.com/shandysiswandi/gotfa/internal/tfa/entity"
)

const selectUser = `SELECT id, email, full_name, password, last_login_at, created_at FROM tfa_users`

func (s *DB) GetUserByEmail(ctx context.Context, email string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByEmail")
	defer func() { s.endSpan(span, err) }()

	return s.scanUser(s.conn.QueryRow(ctx, selectUser+` WHERE email = $1`, email))
}

func (s *DB) GetUserByID(ctx context.Context, id int64) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByID")
	defer func() { s.endSpan(span, err) }()

	return s.scanUser(s.conn.QueryRow(ctx, selectUser+` WHERE id = $1`, id))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *DB) scanUser(row rowScanner) (*entity.User, error) {
	var (
		u         entity.User
		lastLogin pgtype.Timestamptz
	)
	if err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &lastLogin, &u.CreatedAt); err != nil {
		return nil, s.mapError(err)
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginAt = &t
	}

	return &u, nil
}

// UpdateUserLastLogin never moves last_login_at backwards, so events
// delivered out of order keep the latest login.
func (s *DB) UpdateUserLastLogin(ctx context.Context, id int64, at time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateUserLastLogin")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		UPDATE tfa_users
		SET last_login_at = GREATEST(COALESCE(last_login_at, $2), $2)
		WHERE id = $1`, id, at)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

// CreateUser inserts a user. Users are provisioned by the account system;
// this exists for seeding and tests.
func (s *DB) CreateUser(ctx context.Context, u entity.User) (err error) {
	ctx, span := s.startSpan(ctx, "CreateUser")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		INSERT INTO tfa_users (id, email, full_name, password, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Email, u.FullName, u.PasswordHash, u.CreatedAt)
	return s.mapError(err)
}
