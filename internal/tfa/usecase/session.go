package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/gotfa/internal/pkg/goerror"
	"github.com/shandysiswandi/gotfa/internal/pkg/jwt"
	"github.com/shandysiswandi/gotfa/internal/tfa/entity"
)

type sessionStatusKey struct{}

// withSessionStatus caches the derived status for the rest of the request.
func withSessionStatus(ctx context.Context, st *entity.SessionStatus) context.Context {
	return context.WithValue(ctx, sessionStatusKey{}, st)
}

// Session derives the authentication state of the request. The stored
// device is resolved again on every call: when it is gone or belongs to
// someone else the session falls back to the first factor and the stale id
// is removed from the session.
func (s *Usecase) Session(ctx context.Context) (*entity.SessionStatus, error) {
	ctx, span := s.startSpan(ctx, "Session")
	defer span.End()

	return s.deriveSession(ctx, jwt.GetAuth(ctx))
}

// currentSession returns the status cached by RequireSecondFactor or derives it.
func (s *Usecase) currentSession(ctx context.Context) (*entity.SessionStatus, error) {
	if st, ok := ctx.Value(sessionStatusKey{}).(*entity.SessionStatus); ok && st != nil {
		return st, nil
	}
	return s.deriveSession(ctx, jwt.GetAuth(ctx))
}

func (s *Usecase) deriveSession(ctx context.Context, clm *jwt.Claims) (*entity.SessionStatus, error) {
	anonymous := &entity.SessionStatus{State: entity.SessionStateAnonymous}
	if clm == nil || clm.SessionID == "" {
		return anonymous, nil
	}

	sess, err := s.repoSession.Get(ctx, clm.SessionID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.InfoContext(ctx, "session not found or expired", "session_id", clm.SessionID)
		return anonymous, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get session", "session_id", clm.SessionID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if sess.UserID != clm.UserID {
		slog.WarnContext(ctx, "session user does not match token user", "session_id", sess.ID, "session_user_id", sess.UserID, "user_id", clm.UserID)
		return anonymous, nil
	}

	st := &entity.SessionStatus{
		State:     entity.SessionStateFirstFactor,
		SessionID: sess.ID,
		UserID:    sess.UserID,
		Email:     clm.UserEmail,
	}
	if sess.DevicePersistentID == "" {
		return st, nil
	}

	dev := s.registry.Resolve(ctx, sess.DevicePersistentID)
	if dev == nil || dev.OwnerID() != sess.UserID {
		slog.WarnContext(ctx, "session device is gone or foreign, purging", "session_id", sess.ID, "user_id", sess.UserID, "device", sess.DevicePersistentID)
		if _, err := s.repoSession.ClearDevice(ctx, sess.ID, sess.DevicePersistentID); err != nil {
			slog.ErrorContext(ctx, "failed to purge stale session device", "session_id", sess.ID, "error", err)
		}
		return st, nil
	}

	st.State = entity.SessionStateSecondFactor
	st.Device = dev
	return st, nil
}

// RequireSecondFactor passes when the session holds a second factor, or
// holds the first factor and the user is not required to have a second one.
// The derived status is stored in the returned context.
func (s *Usecase) RequireSecondFactor(ctx context.Context) (context.Context, error) {
	spanCtx, span := s.startSpan(ctx, "RequireSecondFactor")
	defer span.End()

	st, err := s.deriveSession(spanCtx, jwt.GetAuth(ctx))
	if err != nil {
		return ctx, err
	}

	switch st.State {
	case entity.SessionStateSecondFactor:
		return withSessionStatus(ctx, st), nil

	case entity.SessionStateFirstFactor:
		required, err := s.registry.IsTFARequired(spanCtx, st.UserID)
		if err != nil {
			slog.ErrorContext(spanCtx, "failed to check second factor requirement", "user_id", st.UserID, "error", err)
			return ctx, goerror.NewServer(err)
		}
		if required {
			return ctx, goerror.NewBusiness("second factor authentication required", goerror.CodeForbidden)
		}
		return withSessionStatus(ctx, st), nil

	default:
		return ctx, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}
}
