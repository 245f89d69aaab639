package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shandysiswandi/gotfa/internal/pkg/idempotency"
	"github.com/shandysiswandi/gotfa/internal/pkg/mail"
)

type ConsumeTFADisabledInput struct {
	EventID     string    `validate:"required"`
	UserID      int64     `validate:"required,gt=0"`
	Email       string    `validate:"required,email"`
	DeviceCount int       `validate:"gte=0"`
	OccurredAt  time.Time `validate:"required"`
}

// ConsumeTFADisabled mails the user a security notice that two-factor
// authentication was turned off.
func (s *Usecase) ConsumeTFADisabled(ctx context.Context, in ConsumeTFADisabledInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeTFADisabled")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	err := s.idemp.Exec(ctx, "tfa_disabled:"+in.EventID, func(ctx context.Context) error {
		return s.repoMail.Send(ctx, mail.Message{
			To:       []string{in.Email},
			Subject:  "Two-factor authentication was disabled",
			TextBody: disabledNoticeText(in),
		})
	})
	if errors.Is(err, idempotency.ErrAlreadyCompleted) || errors.Is(err, idempotency.ErrAlreadyInProgress) {
		slog.InfoContext(ctx, "tfa disabled event already handled", "event_id", in.EventID, "because", err)
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to send tfa disabled notice", "user_id", in.UserID, "event_id", in.EventID, "error", err)
		return err
	}

	return nil
}

func disabledNoticeText(in ConsumeTFADisabledInput) string {
	return fmt.Sprintf(
		"Two-factor authentication was disabled on your account at %s and %d device(s) were removed.\n\n"+
			"If you did not do this, change your password and enroll a new device right away.\n",
		in.OccurredAt.UTC().Format(time.RFC1123),
		in.DeviceCount,
	)
}
