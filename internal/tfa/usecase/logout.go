package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/gotfa/internal/pkg/goerror"
)

// Logout ends the session of the request token. Ending an already expired
// session succeeds.
func (s *Usecase) Logout(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "Logout")
	defer span.End()

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return err
	}
	if clm.SessionID == "" {
		return goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	if err := s.repoSession.Delete(ctx, clm.SessionID); err != nil {
		slog.ErrorContext(ctx, "failed to repo delete session", "user_id", clm.UserID, "session_id", clm.SessionID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
