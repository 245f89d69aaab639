package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/gotfa/internal/tfa"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.tfa.enabled") {
		if err := tfa.New(tfa.Dependency{
			Ctx:             a.ctx,
			DBConn:          a.dbConn,
			CacheConn:       a.cacheConn,
			Goroutine:       a.goroutine,
			Router:          a.router,
			Idempotency:     a.idemp,
			Messaging:       a.messaging,
			Mail:            a.mail,
			Config:          a.config,
			Instrument:      a.ins,
			UID:             a.uid,
			UUID:            a.uuid,
			HMAC:            a.hmac,
			Password:        a.password,
			MFAEncryptor:    a.mfaEncryptor,
			MFARecoveryCode: a.mfaRecoveryCode,
			Clock:           a.clock,
			Validator:       a.validator,
			JWT:             a.jwt,
		}); err != nil {
			slog.Error("failed to init module tfa", "error", err)
			os.Exit(1)
		}
	}
}
