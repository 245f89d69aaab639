package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/gotfa/internal/pkg/goerror"
	"github.com/shandysiswandi/gotfa/internal/tfa/entity"
)

const defaultSessionTTL = time.Hour

type LoginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type LoginOutput struct {
	AccessToken      string
	SessionID        string
	State            entity.SessionState
	TFARequired      bool
	AvailableMethods []string
}

// FirstFactorLogin checks the password, opens a session in the first-factor
// state and issues a token bound to it.
func (s *Usecase) FirstFactorLogin(ctx context.Context, in LoginInput) (*LoginOutput, error) {
	ctx, span := s.startSpan(ctx, "FirstFactorLogin")
	defer span.End()

	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	user, err := s.repoDB.GetUserByEmail(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user not found", "email", in.Email)
		return nil, goerror.NewBusiness("invalid email or password", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by email", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !s.password.Verify(user.PasswordHash, in.Password) {
		slog.WarnContext(ctx, "password does not match", "user_id", user.ID)
		return nil, goerror.NewBusiness("invalid email or password", goerror.CodeUnauthorized)
	}

	devices, err := s.registry.UserDevices(ctx, user.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list user devices", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	sess := entity.Session{
		ID:        s.uuid.Generate(),
		UserID:    user.ID,
		CreatedAt: s.clock.Now(),
	}

	ttl := s.cfg.GetMinute("tfa.session.ttl_minutes")
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}

	if err := s.repoSession.Create(ctx, sess, ttl); err != nil {
		slog.ErrorContext(ctx, "failed to repo create session", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	token, err := s.jwt.Generate(user.ID, user.Email, sess.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access jwt token", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &LoginOutput{
		AccessToken:      token,
		SessionID:        sess.ID,
		State:            entity.SessionStateFirstFactor,
		TFARequired:      !s.registry.optional || len(devices) > 0,
		AvailableMethods: availableMethods(devices),
	}, nil
}

func availableMethods(devices []entity.Device) []string {
	seen := make(map[entity.DeviceKind]struct{}, 2)
	methods := make([]string, 0, 2)
	for _, d := range devices {
		if _, ok := seen[d.Kind()]; ok {
			continue
		}
		seen[d.Kind()] = struct{}{}
		methods = append(methods, d.Kind().String())
	}
	return methods
}
