package usecase

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
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
	"github.com/shandysiswandi/gotfa/internal/pkg/otp"
	"github.com/shandysiswandi/gotfa/internal/pkg/uid"
	"github.com/shandysiswandi/gotfa/internal/pkg/validator"
	"github.com/shandysiswandi/gotfa/internal/tfa/entity"
	"golang.org/x/crypto/bcrypt"
)

const (
	testPassword = "correct horse battery"
	testEmail    = "alice@example.com"
	// rfcKeyHex is the RFC 4226/6238 test secret "12345678901234567890".
	rfcKeyHex = "3132333435363738393031323334353637383930"
)

// testNow lies inside TOTP step 37037036 of the RFC 6238 vectors.
var testNow = time.Unix(1111111109, 0).UTC()

type fakeDB struct {
	mu        sync.Mutex
	users     map[int64]entity.User
	totp      []entity.TOTPDevice
	backup    []entity.BackupCodeDevice
	codes     []entity.BackupCode
	err       error
	lastLogin map[int64]time.Time
}

func newFakeDB() *fakeDB {
	return &fakeDB{users: map[int64]entity.User{}, lastLogin: map[int64]time.Time{}}
}

func (f *fakeDB) GetUserByEmail(_ context.Context, email string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (f *fakeDB) GetUserByID(_ context.Context, id int64) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &u, nil
}

func (f *fakeDB) UpdateUserLastLogin(_ context.Context, id int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	u, ok := f.users[id]
	if !ok {
		return goerror.ErrNotFound
	}
	u.LastLoginAt = &at
	f.users[id] = u
	f.lastLogin[id] = at
	return nil
}

func (f *fakeDB) ListTOTPDevices(_ context.Context, userID int64) ([]entity.TOTPDevice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []entity.TOTPDevice
	for _, d := range f.totp {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDB) GetTOTPDevice(_ context.Context, id int64) (*entity.TOTPDevice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, d := range f.totp {
		if d.ID == id {
			return &d, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (f *fakeDB) UpdateTOTPDeviceState(_ context.Context, id, previousLastT, lastT, drift int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	for i := range f.totp {
		if f.totp[i].ID == id && f.totp[i].LastT == previousLastT {
			f.totp[i].LastT = lastT
			f.totp[i].Drift = drift
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeDB) ListBackupCodeDevices(_ context.Context, userID int64) ([]entity.BackupCodeDevice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []entity.BackupCodeDevice
	for _, d := range f.backup {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDB) GetBackupCodeDevice(_ context.Context, id int64) (*entity.BackupCodeDevice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, d := range f.backup {
		if d.ID == id {
			return &d, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (f *fakeDB) ConsumeBackupCode(_ context.Context, deviceID int64, tokenHash string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	idx := slices.IndexFunc(f.codes, func(c entity.BackupCode) bool {
		return c.DeviceID == deviceID && c.TokenHash == tokenHash
	})
	if idx < 0 {
		return false, nil
	}
	f.codes = slices.Delete(f.codes, idx, idx+1)
	for i := range f.backup {
		if f.backup[i].ID == deviceID {
			f.backup[i].Remaining--
		}
	}
	return true, nil
}

func (f *fakeDB) CreateTOTPDevice(_ context.Context, d entity.TOTPDevice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.totp = append(f.totp, d)
	return nil
}

func (f *fakeDB) CreateBackupCodeDevice(_ context.Context, d entity.BackupCodeDevice, codes []entity.BackupCode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.backup = append(f.backup, d)
	f.codes = append(f.codes, codes...)
	return nil
}

func (f *fakeDB) DeleteUserDevices(_ context.Context, userID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	before := len(f.totp) + len(f.backup)
	owned := map[int64]bool{}
	f.totp = slices.DeleteFunc(f.totp, func(d entity.TOTPDevice) bool { return d.UserID == userID })
	f.backup = slices.DeleteFunc(f.backup, func(d entity.BackupCodeDevice) bool {
		if d.UserID == userID {
			owned[d.ID] = true
		}
		return d.UserID == userID
	})
	f.codes = slices.DeleteFunc(f.codes, func(c entity.BackupCode) bool { return owned[c.DeviceID] })
	return before - len(f.totp) - len(f.backup), nil
}

func (f *fakeDB) totpDevice(id int64) entity.TOTPDevice {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.totp {
		if d.ID == id {
			return d
		}
	}
	return entity.TOTPDevice{}
}

func (f *fakeDB) remainingCodes(deviceID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.codes {
		if c.DeviceID == deviceID {
			n++
		}
	}
	return n
}

type fakeSession struct {
	mu       sync.Mutex
	sessions map[string]entity.Session
	ttl      time.Duration
	err      error
}

func newFakeSession() *fakeSession {
	return &fakeSession{sessions: map[string]entity.Session{}}
}

func (f *fakeSession) Create(_ context.Context, sess entity.Session, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sessions[sess.ID] = sess
	f.ttl = ttl
	return nil
}

func (f *fakeSession) Get(_ context.Context, sid string) (*entity.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	sess, ok := f.sessions[sid]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &sess, nil
}

func (f *fakeSession) BindDevice(_ context.Context, sid, persistentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	sess, ok := f.sessions[sid]
	if !ok {
		return goerror.ErrNotFound
	}
	sess.DevicePersistentID = persistentID
	f.sessions[sid] = sess
	return nil
}

func (f *fakeSession) ClearDevice(_ context.Context, sid, persistentID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	sess, ok := f.sessions[sid]
	if !ok || sess.DevicePersistentID != persistentID {
		return false, nil
	}
	sess.DevicePersistentID = ""
	f.sessions[sid] = sess
	return true, nil
}

func (f *fakeSession) Delete(_ context.Context, sid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	delete(f.sessions, sid)
	return nil
}

func (f *fakeSession) device(sid string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions[sid].DevicePersistentID
}

type fakeLimiter struct {
	mu    sync.Mutex
	max   int
	fails map[string]int
}

func (f *fakeLimiter) Allow(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fails[key] < f.max, nil
}

func (f *fakeLimiter) Fail(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fails[key]++
	return nil
}

func (f *fakeLimiter) Reset(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.fails, key)
	return nil
}

type fakeMessaging struct {
	mu         sync.Mutex
	successful []TFASuccessfulEvent
	disabled   []TFADisabledEvent
}

func (f *fakeMessaging) PublishTFASuccessful(_ context.Context, msg TFASuccessfulEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.successful = append(f.successful, msg)
	return nil
}

func (f *fakeMessaging) PublishTFADisabled(_ context.Context, msg TFADisabledEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disabled = append(f.disabled, msg)
	return nil
}

type fakeMail struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (f *fakeMail) Send(_ context.Context, msg mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fixture struct {
	uc      *Usecase
	db      *fakeDB
	session *fakeSession
	limiter *fakeLimiter
	mq      *fakeMessaging
	mail    *fakeMail
	enc     mfa.Encryptor
	hmac    hash.Hash
	routine *goroutine.Manager
	jwt     jwt.JWT
}

func newFixture(t *testing.T, yaml string) *fixture {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}
	sf, err := uid.NewSnowflake(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	clk := clock.NewFixed(testNow)
	tokens, err := jwt.NewHS512(jwt.Config{
		Secret:     []byte("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"),
		Issuer:     "gotfa-test",
		TTL:        time.Hour,
		Clock:      clk,
		UUID:       uid.NewUUID(),
	})
	if err != nil {
		t.Fatalf("jwt: %v", err)
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	f := &fixture{
		db:      newFakeDB(),
		session: newFakeSession(),
		limiter: &fakeLimiter{max: 5, fails: map[string]int{}},
		mq:      &fakeMessaging{},
		mail:    &fakeMail{},
		enc:     mfa.NewAESGCMEncryptor(mfa.StaticKeyProvider{KeyBytes: []byte("0123456789abcdef0123456789abcdef")}),
		hmac:    hash.NewHMACSHA256("backup-code-secret"),
		routine: goroutine.NewManager(4),
		jwt:     tokens,
	}

	pw, err := hash.NewBcrypt(bcrypt.MinCost, "").Hash(testPassword)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	f.db.users[1] = entity.User{ID: 1, Email: testEmail, FullName: "Alice", PasswordHash: string(pw), CreatedAt: testNow}
	f.db.users[2] = entity.User{ID: 2, Email: "bob@example.com", FullName: "Bob", PasswordHash: string(pw), CreatedAt: testNow}

	f.uc = New(Dependency{
		RepoDB:          f.db,
		RepoSession:     f.session,
		RepoLimiter:     f.limiter,
		RepoMessaging:   f.mq,
		RepoMail:        f.mail,
		Idempotency:     idempotency.New(rdb),
		Validator:       v,
		Config:          cfg,
		HMAC:            f.hmac,
		Password:        hash.NewBcrypt(bcrypt.MinCost, ""),
		MFAEncryptor:    f.enc,
		MFARecoveryCode: mfa.NewRecoveryCode(),
		UID:             sf,
		UUID:            uid.NewUUID(),
		Clock:           clk,
		JWT:             tokens,
		Instrument:      instrument.NewNoop(),
		Goroutine:       f.routine,
	})

	return f
}

// addTOTP stores a device for userID keyed with the RFC secret.
func (f *fixture) addTOTP(t *testing.T, id, userID int64) entity.TOTPDevice {
	t.Helper()

	key, err := otp.ParseHexKey(rfcKeyHex)
	if err != nil {
		t.Fatalf("parse key: %v", err)
	}
	enc, err := f.enc.Encrypt(key, mfa.Scope{UserID: userID, DeviceID: id, Purpose: mfa.PurposeTOTPKey})
	if err != nil {
		t.Fatalf("encrypt key: %v", err)
	}

	d := entity.TOTPDevice{
		ID:           id,
		UserID:       userID,
		Name:         "phone",
		EncryptedKey: enc,
		Step:         otp.DefaultStep,
		Digits:       otp.DefaultDigits,
		Tolerance:    entity.DefaultTOTPTolerance,
		LastT:        entity.DefaultTOTPLastT,
		CreatedAt:    testNow,
		UpdatedAt:    testNow,
	}
	f.db.totp = append(f.db.totp, d)
	return d
}

// addBackup stores a backup-code device for userID holding codes.
func (f *fixture) addBackup(t *testing.T, id, userID int64, codes ...string) {
	t.Helper()

	f.db.backup = append(f.db.backup, entity.BackupCodeDevice{
		ID: id, UserID: userID, Name: "paper", Remaining: len(codes), CreatedAt: testNow,
	})
	for i, c := range codes {
		h, err := f.hmac.Hash(mfa.NormalizeRecoveryCode(c))
		if err != nil {
			t.Fatalf("hash code: %v", err)
		}
		f.db.codes = append(f.db.codes, entity.BackupCode{ID: id*100 + int64(i), DeviceID: id, TokenHash: string(h)})
	}
}

// login opens a first-factor session for userID and returns a context
// carrying its claims.
func (f *fixture) login(userID int64, sid string) context.Context {
	f.session.sessions[sid] = entity.Session{ID: sid, UserID: userID, CreatedAt: testNow}
	return jwt.SetAuth(context.Background(), jwt.Claims{UserID: userID, UserEmail: f.db.users[userID].Email, SessionID: sid})
}

// codeAt returns the six digit code of the RFC secret at.
func codeAt(t *testing.T, at time.Time) string {
	t.Helper()

	key, err := otp.ParseHexKey(rfcKeyHex)
	if err != nil {
		t.Fatalf("parse key: %v", err)
	}
	return otp.TOTP(key, at, otp.DefaultStep, 0, otp.DefaultDigits, 0)
}

func assertCode(t *testing.T, err error, want goerror.Code) {
	t.Helper()

	var ge *goerror.Error
	if !errors.As(err, &ge) {
		t.Fatalf("expected *goerror.Error with code %s, got %v", want, err)
	}
	if ge.Code() != want {
		t.Fatalf("code = %s, want %s (%v)", ge.Code(), want, err)
	}
}
