package usecase

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shandysiswandi/gotfa/internal/pkg/goerror"
	"github.com/shandysiswandi/gotfa/internal/pkg/mfa"
	"github.com/shandysiswandi/gotfa/internal/pkg/otp"
	"github.com/shandysiswandi/gotfa/internal/tfa/entity"
)

const (
	qrCodeSize    = 256
	defaultIssuer = "GoTFA"
)

type EnrollTOTPInput struct {
	Name string `validate:"required,max=64"`
	// Key is an optional hex secret; a random one is generated when empty.
	Key       string `validate:"omitempty,hexkey"`
	Digits    int    `validate:"omitempty,min=6,max=8"`
	Step      int64  `validate:"omitempty,min=15,max=300"`
	Tolerance *int   `validate:"omitempty,min=0,max=10"`
}

type EnrollTOTPOutput struct {
	DeviceID        string
	ProvisioningURI string
	QRCodePNG       []byte
}

func (s *Usecase) EnrollTOTP(ctx context.Context, in EnrollTOTPInput) (*EnrollTOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "EnrollTOTP")
	defer span.End()

	in.Name = strings.TrimSpace(in.Name)
	in.Key = strings.TrimSpace(in.Key)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	st, err := s.enrollmentSession(ctx)
	if err != nil {
		return nil, err
	}

	var key []byte
	if in.Key != "" {
		key, err = otp.ParseHexKey(in.Key)
		if err != nil {
			return nil, goerror.NewInvalidInput(nil, "key", "key must be hex-encoded, at most 64 bytes")
		}
	} else {
		key, err = otp.GenerateKey(s.intOrDefault("tfa.totp.key_size", otp.DefaultKeySize))
		if err != nil {
			slog.ErrorContext(ctx, "failed to generate totp key", "user_id", st.UserID, "error", err)
			return nil, goerror.NewServer(err)
		}
	}

	now := s.clock.Now()
	device := entity.TOTPDevice{
		ID:        s.uid.Generate(),
		UserID:    st.UserID,
		Name:      in.Name,
		Step:      in.Step,
		T0:        0,
		Digits:    in.Digits,
		Tolerance: entity.DefaultTOTPTolerance,
		Drift:     0,
		LastT:     entity.DefaultTOTPLastT,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if device.Step == 0 {
		device.Step = int64(s.intOrDefault("tfa.totp.step", int(otp.DefaultStep)))
	}
	if device.Digits == 0 {
		device.Digits = s.intOrDefault("tfa.totp.digits", otp.DefaultDigits)
	}
	if in.Tolerance != nil {
		device.Tolerance = *in.Tolerance
	} else if s.cfg.IsSet("tfa.totp.tolerance") {
		device.Tolerance = s.cfg.GetInt("tfa.totp.tolerance")
	}

	device.EncryptedKey, err = s.mfaEncryptor.Encrypt(key, mfa.Scope{
		UserID:   device.UserID,
		DeviceID: device.ID,
		Purpose:  mfa.PurposeTOTPKey,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to encrypt totp key", "user_id", st.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	issuer := s.cfg.GetString("tfa.totp.issuer")
	if issuer == "" {
		issuer = defaultIssuer
	}
	account := st.Email
	if account == "" {
		account = strconv.FormatInt(st.UserID, 10)
	}

	uri, err := otp.ProvisioningURI(otp.ProvisioningOptions{
		Issuer:      issuer,
		AccountName: account,
		Key:         key,
		Digits:      device.Digits,
		Step:        device.Step,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to build provisioning uri", "user_id", st.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	png, err := otp.QRCodePNG(uri, qrCodeSize)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render provisioning qr code", "user_id", st.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoDB.CreateTOTPDevice(ctx, device); err != nil {
		slog.ErrorContext(ctx, "failed to repo create totp device", "user_id", st.UserID, "device", &device, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &EnrollTOTPOutput{
		DeviceID:        entity.PersistentID(&device),
		ProvisioningURI: uri,
		QRCodePNG:       png,
	}, nil
}
