package usecase

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shandysiswandi/gotfa/internal/pkg/goerror"
	"github.com/shandysiswandi/gotfa/internal/tfa/entity"
)

type SecondFactorLoginInput struct {
	Method string `validate:"required,oneof=totp backup_code"`
	Code   string `validate:"required,tfacode"`
}

type SecondFactorLoginOutput struct {
	State    entity.SessionState
	DeviceID string
}

// SecondFactorLogin verifies code with the backend named by method against
// the session user's devices and binds the accepting device to the session.
func (s *Usecase) SecondFactorLogin(ctx context.Context, in SecondFactorLoginInput) (*SecondFactorLoginOutput, error) {
	ctx, span := s.startSpan(ctx, "SecondFactorLogin")
	defer span.End()

	in.Code = strings.TrimSpace(in.Code)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	st, err := s.currentSession(ctx)
	if err != nil {
		return nil, err
	}
	if st.State == entity.SessionStateAnonymous {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	limitKey := attemptKey(st.UserID)
	allowed, err := s.repoLimiter.Allow(ctx, limitKey)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check attempt limiter", "user_id", st.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !allowed {
		slog.WarnContext(ctx, "too many second factor attempts", "user_id", st.UserID)
		return nil, goerror.NewBusiness("too many second factor attempts, try again later", goerror.CodeTooManyRequest)
	}

	kind := entity.DeviceKindFromString(in.Method)
	backend, ok := s.registry.Backend(kind)
	if !ok {
		slog.WarnContext(ctx, "method not supported", "method", in.Method)
		return nil, errInvalidCode()
	}

	dev, err := Authenticate(ctx, backend, in.Code, st.UserID, nil)
	if err != nil {
		s.recordVerification(ctx, kind, "error")
		slog.ErrorContext(ctx, "failed to authenticate second factor", "user_id", st.UserID, "method", in.Method, "error", err)
		return nil, goerror.NewServer(err)
	}

	if dev == nil || dev.OwnerID() != st.UserID {
		s.recordVerification(ctx, kind, "rejected")
		slog.WarnContext(ctx, "second factor rejected", "user_id", st.UserID, "method", in.Method)
		if err := s.repoLimiter.Fail(ctx, limitKey); err != nil {
			slog.ErrorContext(ctx, "failed to record failed attempt", "user_id", st.UserID, "error", err)
		}
		return nil, errInvalidCode()
	}
	s.recordVerification(ctx, kind, "accepted")

	pid := entity.PersistentID(dev)
	if err := s.repoSession.BindDevice(ctx, st.SessionID, pid); err != nil {
		slog.ErrorContext(ctx, "failed to bind device to session", "user_id", st.UserID, "session_id", st.SessionID, "device", pid, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoLimiter.Reset(ctx, limitKey); err != nil {
		slog.ErrorContext(ctx, "failed to reset attempt limiter", "user_id", st.UserID, "error", err)
	}

	s.publishTFASuccessful(ctx, TFASuccessfulEvent{
		EventID:    s.uuid.Generate(),
		UserID:     st.UserID,
		DeviceID:   pid,
		SessionID:  st.SessionID,
		OccurredAt: s.clock.Now(),
	})

	return &SecondFactorLoginOutput{
		State:    entity.SessionStateSecondFactor,
		DeviceID: pid,
	}, nil
}

func attemptKey(userID int64) string {
	return "user:" + strconv.FormatInt(userID, 10)
}

// publishTFASuccessful emits the event in the background. Nothing in the
// login flow waits for or depends on it.
func (s *Usecase) publishTFASuccessful(ctx context.Context, evt TFASuccessfulEvent) {
	ctx = context.WithoutCancel(ctx)
	s.goroutine.Go(ctx, func(ctx context.Context) error {
		if err := s.repoMessaging.PublishTFASuccessful(ctx, evt); err != nil {
			slog.ErrorContext(ctx, "failed to publish tfa successful event", "user_id", evt.UserID, "event_id", evt.EventID, "error", err)
		}
		return nil
	})
}
