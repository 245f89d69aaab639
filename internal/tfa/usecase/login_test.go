package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/shandysiswandi/gotfa/internal/pkg/goerror"
	"github.com/shandysiswandi/gotfa/internal/tfa/entity"
)

func TestFirstFactorLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("OpensFirstFactorSession", func(t *testing.T) {
		// Arrange
		f := newFixture(t, "tfa:\n  session:\n    ttl_minutes: 15\n")

		// Act
		out, err := f.uc.FirstFactorLogin(ctx, LoginInput{Email: "  Alice@Example.com ", Password: testPassword})

		// Assert
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		if out.State != entity.SessionStateFirstFactor || out.AccessToken == "" {
			t.Fatalf("unexpected output %+v", out)
		}
		if out.TFARequired || len(out.AvailableMethods) != 0 {
			t.Fatalf("user without devices must not need a second factor: %+v", out)
		}
		sess, ok := f.session.sessions[out.SessionID]
		if !ok || sess.UserID != 1 || sess.DevicePersistentID != "" {
			t.Fatalf("session not stored: %+v", sess)
		}
		if f.session.ttl != 15*time.Minute {
			t.Fatalf("ttl = %s", f.session.ttl)
		}
		clm, err := f.jwt.Verify(out.AccessToken)
		if err != nil {
			t.Fatalf("verify token: %v", err)
		}
		if clm.SessionID != out.SessionID || clm.UserID != 1 {
			t.Fatalf("claims = %+v", clm)
		}
	})

	t.Run("ListsMethodsWhenEnrolled", func(t *testing.T) {
		f := newFixture(t, "")
		f.addTOTP(t, 10, 1)
		f.addBackup(t, 20, 1, "AAAA-BBBB-CCCC")

		out, err := f.uc.FirstFactorLogin(ctx, LoginInput{Email: testEmail, Password: testPassword})
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		if !out.TFARequired {
			t.Fatalf("expected second factor to be required")
		}
		if len(out.AvailableMethods) != 2 || out.AvailableMethods[0] != "totp" || out.AvailableMethods[1] != "backup_code" {
			t.Fatalf("methods = %v", out.AvailableMethods)
		}
	})

	t.Run("MandatoryWhenNotOptional", func(t *testing.T) {
		f := newFixture(t, "tfa:\n  optional: false\n")

		out, err := f.uc.FirstFactorLogin(ctx, LoginInput{Email: testEmail, Password: testPassword})
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		if !out.TFARequired {
			t.Fatalf("expected second factor to be required for every user")
		}
	})

	t.Run("WrongPasswordAndUnknownEmailLookAlike", func(t *testing.T) {
		f := newFixture(t, "")

		_, errPassword := f.uc.FirstFactorLogin(ctx, LoginInput{Email: testEmail, Password: "nope"})
		_, errEmail := f.uc.FirstFactorLogin(ctx, LoginInput{Email: "nobody@example.com", Password: testPassword})

		assertCode(t, errPassword, goerror.CodeUnauthorized)
		assertCode(t, errEmail, goerror.CodeUnauthorized)
		if errPassword.Error() != errEmail.Error() {
			t.Fatalf("messages differ: %q vs %q", errPassword, errEmail)
		}
		if len(f.session.sessions) != 0 {
			t.Fatalf("no session may be opened on failure")
		}
	})

	t.Run("InvalidInput", func(t *testing.T) {
		f := newFixture(t, "")

		_, err := f.uc.FirstFactorLogin(ctx, LoginInput{Email: "not-an-email"})

		assertCode(t, err, goerror.CodeInvalidInput)
	})
}

func TestSecondFactorLogin(t *testing.T) {
	t.Run("AcceptsCurrentCodeAndBindsDevice", func(t *testing.T) {
		// Arrange
		f := newFixture(t, "")
		f.addTOTP(t, 10, 1)
		ctx := f.login(1, "sid-1")
		f.limiter.fails[attemptKey(1)] = 2

		// Act
		out, err := f.uc.SecondFactorLogin(ctx, SecondFactorLoginInput{Method: "totp", Code: codeAt(t, testNow)})

		// Assert
		if err != nil {
			t.Fatalf("second factor: %v", err)
		}
		if out.State != entity.SessionStateSecondFactor || out.DeviceID != "totp/10" {
			t.Fatalf("output = %+v", out)
		}
		if got := f.session.device("sid-1"); got != "totp/10" {
			t.Fatalf("bound device = %q", got)
		}
		if d := f.db.totpDevice(10); d.LastT != 37037036 || d.Drift != 0 {
			t.Fatalf("device state = last_t %d drift %d", d.LastT, d.Drift)
		}
		if _, ok := f.limiter.fails[attemptKey(1)]; ok {
			t.Fatalf("limiter must be reset on success")
		}
		if err := f.routine.Wait(); err != nil {
			t.Fatalf("wait: %v", err)
		}
		if len(f.mq.successful) != 1 || f.mq.successful[0].UserID != 1 || f.mq.successful[0].DeviceID != "totp/10" {
			t.Fatalf("events = %+v", f.mq.successful)
		}
	})

	t.Run("RejectsReplayedCode", func(t *testing.T) {
		f := newFixture(t, "")
		f.addTOTP(t, 10, 1)
		ctx := f.login(1, "sid-1")
		code := codeAt(t, testNow)

		if _, err := f.uc.SecondFactorLogin(ctx, SecondFactorLoginInput{Method: "totp", Code: code}); err != nil {
			t.Fatalf("first use: %v", err)
		}
		_, err := f.uc.SecondFactorLogin(ctx, SecondFactorLoginInput{Method: "totp", Code: code})

		assertCode(t, err, goerror.CodeUnauthorized)
		if f.limiter.fails[attemptKey(1)] != 1 {
			t.Fatalf("replay must count as a failed attempt")
		}
	})

	t.Run("AcceptsPreviousStepAndStoresDrift", func(t *testing.T) {
		f := newFixture(t, "")
		f.addTOTP(t, 10, 1)
		ctx := f.login(1, "sid-1")

		_, err := f.uc.SecondFactorLogin(ctx, SecondFactorLoginInput{Method: "totp", Code: codeAt(t, testNow.Add(-30*time.Second))})

		if err != nil {
			t.Fatalf("second factor: %v", err)
		}
		if d := f.db.totpDevice(10); d.LastT != 37037035 || d.Drift != -1 {
			t.Fatalf("device state = last_t %d drift %d", d.LastT, d.Drift)
		}
	})

	t.Run("KeepsDriftWithoutSync", func(t *testing.T) {
		f := newFixture(t, "tfa:\n  totp:\n    sync: false\n")
		f.addTOTP(t, 10, 1)
		ctx := f.login(1, "sid-1")

		_, err := f.uc.SecondFactorLogin(ctx, SecondFactorLoginInput{Method: "totp", Code: codeAt(t, testNow.Add(-30*time.Second))})

		if err != nil {
			t.Fatalf("second factor: %v", err)
		}
		if d := f.db.totpDevice(10); d.LastT != 37037035 || d.Drift != 0 {
			t.Fatalf("device state = last_t %d drift %d", d.LastT, d.Drift)
		}
	})

	t.Run("RejectsCodeOutsideTolerance", func(t *testing.T) {
		f := newFixture(t, "")
		f.addTOTP(t, 10, 1)
		ctx := f.login(1, "sid-1")

		_, err := f.uc.SecondFactorLogin(ctx, SecondFactorLoginInput{Method: "totp", Code: codeAt(t, testNow.Add(-90*time.Second))})

		assertCode(t, err, goerror.CodeUnauthorized)
		if f.session.device("sid-1") != "" {
			t.Fatalf("no device may be bound")
		}
	})

	t.Run("BackupCodeWorksOnce", func(t *testing.T) {
		f := newFixture(t, "")
		f.addBackup(t, 20, 1, "AAAA-BBBB-CCCC", "DDDD-EEEE-FFFF")
		ctx := f.login(1, "sid-1")

		out, err := f.uc.SecondFactorLogin(ctx, SecondFactorLoginInput{Method: "backup_code", Code: " aaaa-bbbb-cccc "})
		if err != nil {
			t.Fatalf("first use: %v", err)
		}
		_, errAgain := f.uc.SecondFactorLogin(f.login(1, "sid-2"), SecondFactorLoginInput{Method: "backup_code", Code: "AAAA-BBBB-CCCC"})

		if out.DeviceID != "backup_code/20" {
			t.Fatalf("device = %q", out.DeviceID)
		}
		assertCode(t, errAgain, goerror.CodeUnauthorized)
		if n := f.db.remainingCodes(20); n != 1 {
			t.Fatalf("remaining codes = %d", n)
		}
	})

	t.Run("MethodSelectsBackend", func(t *testing.T) {
		f := newFixture(t, "")
		f.addTOTP(t, 10, 1)
		ctx := f.login(1, "sid-1")

		_, err := f.uc.SecondFactorLogin(ctx, SecondFactorLoginInput{Method: "backup_code", Code: codeAt(t, testNow)})

		assertCode(t, err, goerror.CodeUnauthorized)
		if d := f.db.totpDevice(10); d.LastT != entity.DefaultTOTPLastT {
			t.Fatalf("totp device must be untouched, last_t = %d", d.LastT)
		}
	})

	t.Run("OtherUsersDeviceNeverMatches", func(t *testing.T) {
		f := newFixture(t, "")
		f.addTOTP(t, 10, 2)
		ctx := f.login(1, "sid-1")

		_, err := f.uc.SecondFactorLogin(ctx, SecondFactorLoginInput{Method: "totp", Code: codeAt(t, testNow)})

		assertCode(t, err, goerror.CodeUnauthorized)
	})

	t.Run("LimiterBlocks", func(t *testing.T) {
		f := newFixture(t, "")
		f.addTOTP(t, 10, 1)
		ctx := f.login(1, "sid-1")
		f.limiter.fails[attemptKey(1)] = f.limiter.max

		_, err := f.uc.SecondFactorLogin(ctx, SecondFactorLoginInput{Method: "totp", Code: codeAt(t, testNow)})

		assertCode(t, err, goerror.CodeTooManyRequest)
		if d := f.db.totpDevice(10); d.LastT != entity.DefaultTOTPLastT {
			t.Fatalf("blocked attempt must not verify, last_t = %d", d.LastT)
		}
	})

	t.Run("Anonymous", func(t *testing.T) {
		f := newFixture(t, "")

		_, err := f.uc.SecondFactorLogin(context.Background(), SecondFactorLoginInput{Method: "totp", Code: "123456"})

		assertCode(t, err, goerror.CodeUnauthorized)
	})

	t.Run("StorageErrorIsServerError", func(t *testing.T) {
		f := newFixture(t, "")
		f.addTOTP(t, 10, 1)
		ctx := f.login(1, "sid-1")
		f.db.err = context.DeadlineExceeded

		_, err := f.uc.SecondFactorLogin(ctx, SecondFactorLoginInput{Method: "totp", Code: codeAt(t, testNow)})

		assertCode(t, err, goerror.CodeInternal)
		if f.limiter.fails[attemptKey(1)] != 0 {
			t.Fatalf("storage errors must not count as failed attempts")
		}
	})

	t.Run("InvalidInput", func(t *testing.T) {
		f := newFixture(t, "")
		ctx := f.login(1, "sid-1")

		_, errMethod := f.uc.SecondFactorLogin(ctx, SecondFactorLoginInput{Method: "sms", Code: "123456"})
		_, errCode := f.uc.SecondFactorLogin(ctx, SecondFactorLoginInput{Method: "totp", Code: "12345678901234567"})

		assertCode(t, errMethod, goerror.CodeInvalidInput)
		assertCode(t, errCode, goerror.CodeInvalidInput)
	})
}

func TestLogout(t *testing.T) {
	f := newFixture(t, "")
	ctx := f.login(1, "sid-1")

	if err := f.uc.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, ok := f.session.sessions["sid-1"]; ok {
		t.Fatalf("session must be deleted")
	}

	st, err := f.uc.Session(ctx)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if st.State != entity.SessionStateAnonymous {
		t.Fatalf("state after logout = %s", st.State)
	}

	assertCode(t, f.uc.Logout(context.Background()), goerror.CodeUnauthorized)
}
