package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/gotfa/internal/pkg/goerror"
	"github.com/shandysiswandi/gotfa/internal/pkg/mfa"
	"github.com/shandysiswandi/gotfa/internal/tfa/entity"
)

type EnrollBackupCodesInput struct {
	Name string `validate:"required,max=64"`
}

type EnrollBackupCodesOutput struct {
	DeviceID string
	// Codes are shown once; only their digests are stored.
	Codes []string
}

func (s *Usecase) EnrollBackupCodes(ctx context.Context, in EnrollBackupCodesInput) (*EnrollBackupCodesOutput, error) {
	ctx, span := s.startSpan(ctx, "EnrollBackupCodes")
	defer span.End()

	in.Name = strings.TrimSpace(in.Name)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	st, err := s.enrollmentSession(ctx)
	if err != nil {
		return nil, err
	}

	plain, err := s.mfaRecoveryCode.Generate(s.intOrDefault("tfa.backup_code.count", mfa.DefaultRecoveryCodeCount))
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate backup codes", "user_id", st.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	device := entity.BackupCodeDevice{
		ID:        s.uid.Generate(),
		UserID:    st.UserID,
		Name:      in.Name,
		Remaining: len(plain),
		CreatedAt: s.clock.Now(),
	}

	codes := make([]entity.BackupCode, 0, len(plain))
	for _, code := range plain {
		tokenHash, err := s.hmac.Hash(mfa.NormalizeRecoveryCode(code))
		if err != nil {
			slog.ErrorContext(ctx, "failed to hash backup code", "user_id", st.UserID, "error", err)
			return nil, goerror.NewServer(err)
		}
		codes = append(codes, entity.BackupCode{
			ID:        s.uid.Generate(),
			DeviceID:  device.ID,
			TokenHash: string(tokenHash),
		})
	}

	if err := s.repoDB.CreateBackupCodeDevice(ctx, device, codes); err != nil {
		slog.ErrorContext(ctx, "failed to repo create backup code device", "user_id", st.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &EnrollBackupCodesOutput{
		DeviceID: entity.PersistentID(&device),
		Codes:    plain,
	}, nil
}
