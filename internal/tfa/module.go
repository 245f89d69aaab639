package tfa

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/gotfa/internal/pkg/clock"
	"github.com/shandysiswandi/gotfa/internal/pkg/config"
	"github.com/shandysiswandi/gotfa/internal/pkg/goroutine"
	"github.com/shandysiswandi/gotfa/internal/pkg/hash"
	"github.com/shandysiswandi/gotfa/internal/pkg/idempotency"
	"github.com/shandysiswandi/gotfa/internal/pkg/instrument"
	"github.com/shandysiswandi/gotfa/internal/pkg/jwt"
	"github.com/shandysiswandi/gotfa/internal/pkg/mail"
	"github.com/shandysiswandi/gotfa/internal/pkg/messaging"
	"github.com/shandysiswandi/gotfa/internal/pkg/mfa"
	"github.com/shandysiswandi/gotfa/internal/pkg/router"
	"github.com/shandysiswandi/gotfa/internal/pkg/uid"
	"github.com/shandysiswandi/gotfa/internal/pkg/validator"
	"github.com/shandysiswandi/gotfa/internal/tfa/inbound"
	"github.com/shandysiswandi/gotfa/internal/tfa/outbound/db"
	"github.com/shandysiswandi/gotfa/internal/tfa/outbound/email"
	"github.com/shandysiswandi/gotfa/internal/tfa/outbound/limiter"
	"github.com/shandysiswandi/gotfa/internal/tfa/outbound/mq"
	"github.com/shandysiswandi/gotfa/internal/tfa/outbound/session"
	"github.com/shandysiswandi/gotfa/internal/tfa/usecase"
)

type Dependency struct {
	// Ctx scopes the consumers; they are not started when nil.
	Ctx             context.Context
	DBConn          *pgxpool.Pool              `validate:"required"`
	CacheConn       redis.UniversalClient      `validate:"required"`
	Goroutine       *goroutine.Manager         `validate:"required"`
	Router          *router.Router             `validate:"required"`
	Idempotency     idempotency.Idempotency    `validate:"required"`
	Messaging       messaging.Messaging        `validate:"required"`
	Mail            mail.Mail                  `validate:"required"`
	Config          config.Config              `validate:"required"`
	Instrument      instrument.Instrumentation `validate:"required"`
	UID             uid.NumberID               `validate:"required"`
	UUID            uid.StringID               `validate:"required"`
	HMAC            hash.Hash                  `validate:"required"`
	Password        hash.Hash                  `validate:"required"`
	MFAEncryptor    mfa.Encryptor              `validate:"required"`
	MFARecoveryCode mfa.RecoveryCodeGenerator  `validate:"required"`
	Clock           clock.Clocker              `validate:"required"`
	Validator       validator.Validator        `validate:"required"`
	JWT             jwt.JWT                    `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:      db.NewDB(dep.DBConn, dep.Instrument),
		RepoSession: session.NewStore(dep.CacheConn, dep.Instrument),
		RepoLimiter: limiter.New(
			dep.CacheConn,
			dep.Config.GetInt("tfa.limiter.max_attempts"),
			dep.Config.GetSecond("tfa.limiter.window_seconds"),
			dep.Instrument,
		),
		RepoMessaging:   mq.NewMessaging(dep.Messaging, dep.Instrument),
		RepoMail:        email.New(dep.Mail, dep.Config.GetString("tfa.notice_sender"), dep.Instrument),
		Idempotency:     dep.Idempotency,
		Validator:       dep.Validator,
		Config:          dep.Config,
		HMAC:            dep.HMAC,
		Password:        dep.Password,
		MFAEncryptor:    dep.MFAEncryptor,
		MFARecoveryCode: dep.MFARecoveryCode,
		UID:             dep.UID,
		UUID:            dep.UUID,
		Clock:           dep.Clock,
		JWT:             dep.JWT,
		Instrument:      dep.Instrument,
		Goroutine:       dep.Goroutine,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)
	if dep.Ctx != nil {
		inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)
	}

	return nil
}
