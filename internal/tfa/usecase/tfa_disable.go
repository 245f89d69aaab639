package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/gotfa/internal/pkg/goerror"
	"github.com/shandysiswandi/gotfa/internal/tfa/entity"
)

type DisableTFAOutput struct {
	DeletedDevices int
}

// DisableTFA deletes every device of the user. Sessions bound to one of them
// fall back to the first factor the next time they are evaluated.
func (s *Usecase) DisableTFA(ctx context.Context) (*DisableTFAOutput, error) {
	ctx, span := s.startSpan(ctx, "DisableTFA")
	defer span.End()

	st, err := s.currentSession(ctx)
	if err != nil {
		return nil, err
	}
	if st.State == entity.SessionStateAnonymous {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}
	if st.State != entity.SessionStateSecondFactor {
		return nil, goerror.NewBusiness("second factor authentication required", goerror.CodeForbidden)
	}

	deleted, err := s.repoDB.DeleteUserDevices(ctx, st.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo delete user devices", "user_id", st.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "second factor disabled", "user_id", st.UserID, "deleted_devices", deleted)

	evt := TFADisabledEvent{
		EventID:     s.uuid.Generate(),
		UserID:      st.UserID,
		Email:       st.Email,
		DeviceCount: deleted,
		OccurredAt:  s.clock.Now(),
	}
	bgCtx := context.WithoutCancel(ctx)
	s.goroutine.Go(bgCtx, func(ctx context.Context) error {
		if err := s.repoMessaging.PublishTFADisabled(ctx, evt); err != nil {
			slog.ErrorContext(ctx, "failed to publish tfa disabled event", "user_id", evt.UserID, "event_id", evt.EventID, "error", err)
		}
		return nil
	})

	return &DisableTFAOutput{DeletedDevices: deleted}, nil
}
