package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/gotfa/internal/pkg/clock"
	"github.com/shandysiswandi/gotfa/internal/pkg/config"
	"github.com/shandysiswandi/gotfa/internal/pkg/goerror"
	"github.com/shandysiswandi/gotfa/internal/pkg/goroutine"
	"github.com/shandysiswandi/gotfa/internal/pkg/hash"
	"github.com/shandysiswandi/gotfa/internal/pkg/idempotency"
	"github.com/shandysiswandi/gotfa/internal/pkg/instrument"
	"github.com/shandysiswandi/gotfa/internal/pkg/jwt"
	"github.com/shandysiswandi/gotfa/internal/pkg/mail"
	"github.com/shandysiswandi/gotfa/internal/pkg/mfa"
	"github.com/shandysiswandi/gotfa/internal/pkg/uid"
	"github.com/shandysiswandi/gotfa/internal/pkg/validator"
	"github.com/shandysiswandi/gotfa/internal/tfa/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type TFASuccessfulEvent struct {
	EventID    string
	UserID     int64
	DeviceID   string
	SessionID  string
	OccurredAt time.Time
}

type TFADisabledEvent struct {
	EventID     string
	UserID      int64
	Email       string
	DeviceCount int
	OccurredAt  time.Time
}

type repoMessaging interface {
	PublishTFASuccessful(ctx context.Context, msg TFASuccessfulEvent) error
	PublishTFADisabled(ctx context.Context, msg TFADisabledEvent) error
}

type repoTOTPDevice interface {
	ListTOTPDevices(ctx context.Context, userID int64) ([]entity.TOTPDevice, error)
	GetTOTPDevice(ctx context.Context, id int64) (*entity.TOTPDevice, error)
	// UpdateTOTPDeviceState writes lastT and drift only while the stored
	// last_t still equals previousLastT and reports whether it did.
	UpdateTOTPDeviceState(ctx context.Context, id, previousLastT, lastT, drift int64) (bool, error)
}

type repoBackupCodeDevice interface {
	ListBackupCodeDevices(ctx context.Context, userID int64) ([]entity.BackupCodeDevice, error)
	GetBackupCodeDevice(ctx context.Context, id int64) (*entity.BackupCodeDevice, error)
	// ConsumeBackupCode deletes one code of the device matching tokenHash and
	// reports whether one existed.
	ConsumeBackupCode(ctx context.Context, deviceID int64, tokenHash string) (bool, error)
}

type repoDB interface {
	repoTOTPDevice
	repoBackupCodeDevice

	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	GetUserByID(ctx context.Context, id int64) (*entity.User, error)
	UpdateUserLastLogin(ctx context.Context, id int64, at time.Time) error

	CreateTOTPDevice(ctx context.Context, d entity.TOTPDevice) error
	CreateBackupCodeDevice(ctx context.Context, d entity.BackupCodeDevice, codes []entity.BackupCode) error
	DeleteUserDevices(ctx context.Context, userID int64) (int, error)
}

type repoSession interface {
	Create(ctx context.Context, sess entity.Session, ttl time.Duration) error
	Get(ctx context.Context, sid string) (*entity.Session, error)
	BindDevice(ctx context.Context, sid, persistentID string) error
	// ClearDevice unbinds persistentID and reports whether it was still bound.
	ClearDevice(ctx context.Context, sid, persistentID string) (bool, error)
	Delete(ctx context.Context, sid string) error
}

type repoLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Fail(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

type repoMail interface {
	Send(ctx context.Context, msg mail.Message) error
}

type Usecase struct {
	repoDB          repoDB
	repoSession     repoSession
	repoLimiter     repoLimiter
	repoMessaging   repoMessaging
	repoMail        repoMail
	registry        *Registry
	idemp           idempotency.Idempotency
	validator       validator.Validator
	cfg             config.Config
	hmac            hash.Hash
	password        hash.Hash
	mfaEncryptor    mfa.Encryptor
	mfaRecoveryCode mfa.RecoveryCodeGenerator
	uid             uid.NumberID
	uuid            uid.StringID
	clock           clock.Clocker
	jwt             jwt.JWT
	ins             instrument.Instrumentation
	goroutine       *goroutine.Manager
	verifications   metric.Int64Counter
}

type Dependency struct {
	RepoDB          repoDB
	RepoSession     repoSession
	RepoLimiter     repoLimiter
	RepoMessaging   repoMessaging
	RepoMail        repoMail
	Idempotency     idempotency.Idempotency
	Validator       validator.Validator
	Config          config.Config
	HMAC            hash.Hash
	Password        hash.Hash
	MFAEncryptor    mfa.Encryptor
	MFARecoveryCode mfa.RecoveryCodeGenerator
	UID             uid.NumberID
	UUID            uid.StringID
	Clock           clock.Clocker
	JWT             jwt.JWT
	Instrument      instrument.Instrumentation
	Goroutine       *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	s := &Usecase{
		repoDB:          dep.RepoDB,
		repoSession:     dep.RepoSession,
		repoLimiter:     dep.RepoLimiter,
		repoMessaging:   dep.RepoMessaging,
		repoMail:        dep.RepoMail,
		idemp:           dep.Idempotency,
		validator:       dep.Validator,
		cfg:             dep.Config,
		hmac:            dep.HMAC,
		password:        dep.Password,
		mfaEncryptor:    dep.MFAEncryptor,
		mfaRecoveryCode: dep.MFARecoveryCode,
		uid:             dep.UID,
		uuid:            dep.UUID,
		clock:           dep.Clock,
		jwt:             dep.JWT,
		ins:             dep.Instrument,
		goroutine:       dep.Goroutine,
	}

	s.registry = NewRegistry(
		boolOrDefault(dep.Config, "tfa.optional", true),
		NewTOTPBackend(dep.RepoDB, dep.MFAEncryptor, dep.Clock, boolOrDefault(dep.Config, "tfa.totp.sync", true)),
		NewBackupCodeBackend(dep.RepoDB, dep.HMAC),
	)

	counter, err := dep.Instrument.Meter("tfa.usecase").Int64Counter(
		"tfa.second_factor.verifications",
		metric.WithDescription("Number of second-factor verification attempts by device kind and outcome"),
	)
	if err != nil {
		slog.Error("failed to create second factor verification counter", "error", err)
	}
	s.verifications = counter

	return s
}

// Registry returns the device backend registry.
func (s *Usecase) Registry() *Registry {
	return s.registry
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("tfa.usecase").Start(ctx, name)
}

func (s *Usecase) recordVerification(ctx context.Context, kind entity.DeviceKind, outcome string) {
	if s.verifications == nil {
		return
	}
	s.verifications.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind.String()),
		attribute.String("outcome", outcome),
	))
}

func (s *Usecase) requireAuth(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	return clm, nil
}

func (s *Usecase) intOrDefault(key string, def int) int {
	if v := s.cfg.GetInt(key); v > 0 {
		return v
	}
	return def
}

func boolOrDefault(cfg config.Config, key string, def bool) bool {
	if cfg == nil || !cfg.IsSet(key) {
		return def
	}
	return cfg.GetBool(key)
}

// errInvalidCode is the single answer for every failed second factor so that
// a wrong code cannot be told apart from a missing or foreign device.
func errInvalidCode() error {
	return goerror.NewBusiness("invalid second factor code", goerror.CodeUnauthorized)
}
