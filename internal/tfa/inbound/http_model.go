package inbound

import (
	"net/http"
	"time"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken      string   `json:"access_token"`
	State            string   `json:"state"`
	TFARequired      bool     `json:"tfa_required"`
	AvailableMethods []string `json:"available_methods,omitempty"`
}

type SecondFactorLoginRequest struct {
	Method string `json:"method"`
	Code   string `json:"code"`
}

type SecondFactorLoginResponse struct {
	State    string `json:"state"`
	DeviceID string `json:"device_id"`
}

func (SecondFactorLoginResponse) Message() string {
	return "Second factor verified"
}

type LogoutResponse struct{}

func (LogoutResponse) Message() string {
	return "Logged out"
}

type DeviceResponse struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Name      string    `json:"name"`
	Remaining *int      `json:"remaining,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type StatusResponse struct {
	State       string           `json:"state"`
	Required    bool             `json:"required"`
	Enabled     bool             `json:"enabled"`
	BoundDevice string           `json:"bound_device,omitempty"`
	Devices     []DeviceResponse `json:"devices"`
}

type EnrollTOTPRequest struct {
	Name      string `json:"name"`
	Key       string `json:"key,omitempty"`
	Digits    int    `json:"digits,omitempty"`
	Step      int64  `json:"step,omitempty"`
	Tolerance *int   `json:"tolerance,omitempty"`
}

type EnrollTOTPResponse struct {
	DeviceID        string `json:"device_id"`
	ProvisioningURI string `json:"provisioning_uri"`
	QRCode          string `json:"qr_code" example:"data:image/png;base64,iVBORw0KGgo..."`
}

func (EnrollTOTPResponse) StatusCode() int { return http.StatusCreated }

func (EnrollTOTPResponse) Message() string {
	return "Scan the QR code with your authenticator app"
}

type EnrollBackupCodesRequest struct {
	Name string `json:"name"`
}

type EnrollBackupCodesResponse struct {
	DeviceID string   `json:"device_id"`
	Codes    []string `json:"codes"`
}

func (EnrollBackupCodesResponse) StatusCode() int { return http.StatusCreated }

func (EnrollBackupCodesResponse) Message() string {
	return "Store these codes somewhere safe. Each one works once and they will not be shown again."
}

type DisableTFAResponse struct {
	DeletedDevices int `json:"deleted_devices"`
}

func (DisableTFAResponse) Message() string {
	return "Two-factor authentication disabled"
}

type MeResponse struct {
	UserID      int64      `json:"user_id"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name"`
	LastLoginAt *time.Time `json:"last_login_at"`
	State       string     `json:"state"`
}
