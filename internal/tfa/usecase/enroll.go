package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/gotfa/internal/pkg/goerror"
	"github.com/shandysiswandi/gotfa/internal/tfa/entity"
)

// enrollmentSession returns the session allowed to add a device. A user
// without devices may enroll from the first factor; once a device exists a
// new one can only be added from a second-factor session.
func (s *Usecase) enrollmentSession(ctx context.Context) (*entity.SessionStatus, error) {
	st, err := s.currentSession(ctx)
	if err != nil {
		return nil, err
	}

	switch st.State {
	case entity.SessionStateSecondFactor:
		return st, nil

	case entity.SessionStateFirstFactor:
		enabled, err := s.registry.HasTFAEnabled(ctx, st.UserID)
		if err != nil {
			slog.ErrorContext(ctx, "failed to check enrolled devices", "user_id", st.UserID, "error", err)
			return nil, goerror.NewServer(err)
		}
		if enabled {
			slog.WarnContext(ctx, "enrollment requires second factor", "user_id", st.UserID)
			return nil, goerror.NewBusiness("second factor authentication required", goerror.CodeForbidden)
		}
		return st, nil

	default:
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}
}
