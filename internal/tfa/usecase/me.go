package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/gotfa/internal/pkg/goerror"
	"github.com/shandysiswandi/gotfa/internal/tfa/entity"
)

type MeOutput struct {
	UserID      int64
	Email       string
	FullName    string
	LastLoginAt *time.Time
	State       entity.SessionState
}

func (s *Usecase) Me(ctx context.Context) (*MeOutput, error) {
	ctx, span := s.startSpan(ctx, "Me")
	defer span.End()

	st, err := s.currentSession(ctx)
	if err != nil {
		return nil, err
	}
	if st.State == entity.SessionStateAnonymous {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	user, err := s.repoDB.GetUserByID(ctx, st.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user not found", "user_id", st.UserID)
		return nil, goerror.NewBusiness("user not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", st.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &MeOutput{
		UserID:      user.ID,
		Email:       user.Email,
		FullName:    user.FullName,
		LastLoginAt: user.LastLoginAt,
		State:       st.State,
	}, nil
}
