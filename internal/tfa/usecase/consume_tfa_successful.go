package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/gotfa/internal/pkg/goerror"
	"github.com/shandysiswandi/gotfa/internal/pkg/idempotency"
)

type ConsumeTFASuccessfulInput struct {
	EventID    string    `validate:"required"`
	UserID     int64     `validate:"required,gt=0"`
	OccurredAt time.Time `validate:"required"`
}

// ConsumeTFASuccessful records the login time of the user. Each event id is
// applied once; redeliveries are dropped.
func (s *Usecase) ConsumeTFASuccessful(ctx context.Context, in ConsumeTFASuccessfulInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeTFASuccessful")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	err := s.idemp.Exec(ctx, "tfa_successful:"+in.EventID, func(ctx context.Context) error {
		err := s.repoDB.UpdateUserLastLogin(ctx, in.UserID, in.OccurredAt)
		if errors.Is(err, goerror.ErrNotFound) {
			slog.WarnContext(ctx, "user of tfa successful event not found", "user_id", in.UserID)
			return nil
		}
		return err
	})
	if errors.Is(err, idempotency.ErrAlreadyCompleted) || errors.Is(err, idempotency.ErrAlreadyInProgress) {
		slog.InfoContext(ctx, "tfa successful event already handled", "event_id", in.EventID, "because", err)
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to update user last login", "user_id", in.UserID, "event_id", in.EventID, "error", err)
		return err
	}

	return nil
}
