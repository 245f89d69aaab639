package inbound

import (
	"context"

	"github.com/shandysiswandi/gotfa/internal/pkg/router"
	"github.com/shandysiswandi/gotfa/internal/tfa/usecase"
)

type uc interface {
	FirstFactorLogin(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error)
	SecondFactorLogin(ctx context.Context, in usecase.SecondFactorLoginInput) (*usecase.SecondFactorLoginOutput, error)
	Logout(ctx context.Context) error

	Status(ctx context.Context) (*usecase.StatusOutput, error)
	EnrollTOTP(ctx context.Context, in usecase.EnrollTOTPInput) (*usecase.EnrollTOTPOutput, error)
	EnrollBackupCodes(ctx context.Context, in usecase.EnrollBackupCodesInput) (*usecase.EnrollBackupCodesOutput, error)

	RequireSecondFactor(ctx context.Context) (context.Context, error)
	DisableTFA(ctx context.Context) (*usecase.DisableTFAOutput, error)
	Me(ctx context.Context) (*usecase.MeOutput, error)

	ConsumeTFASuccessful(ctx context.Context, in usecase.ConsumeTFASuccessfulInput) error
	ConsumeTFADisabled(ctx context.Context, in usecase.ConsumeTFADisabledInput) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}
	gate := r.Guard(uc.RequireSecondFactor)

	// Login
	r.POST("/api/v1/tfa/login", end.Login)
	r.POST("/api/v1/tfa/login/second-factor", end.SecondFactorLogin) // need first factor
	r.POST("/api/v1/tfa/logout", end.Logout)

	// Devices (need authenticated)
	r.GET("/api/v1/tfa/status", end.Status)
	r.POST("/api/v1/tfa/devices/totp", end.EnrollTOTP)
	r.POST("/api/v1/tfa/devices/backup-codes", end.EnrollBackupCodes)

	// Protected by the second factor
	r.POST("/api/v1/tfa/disable", end.DisableTFA, gate)
	r.GET("/api/v1/tfa/me", end.Me, gate)
}
