package inbound

import (
	"encoding/base64"

	"github.com/samber/lo"
	"github.com/shandysiswandi/gotfa/internal/pkg/router"
	"github.com/shandysiswandi/gotfa/internal/tfa/usecase"
)

// HTTPEndpoint exposes HTTP handlers for login and second-factor management.
type HTTPEndpoint struct {
	uc uc
}

// Login checks email and password and opens a first-factor session.
// @Summary Authenticate with password
// @Description Validates credentials and returns a token bound to a new session. When the user has devices the session still needs the second factor.
// @Tags TFA, Authentication
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login payload"
// @Success 200 {object} router.successResponse{data=LoginResponse} "Authentication result"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Invalid credentials"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/tfa/login [post]
func (h *HTTPEndpoint) Login(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.FirstFactorLogin(r.Context(), usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}

	return LoginResponse{
		AccessToken:      resp.AccessToken,
		State:            resp.State.String(),
		TFARequired:      resp.TFARequired,
		AvailableMethods: resp.AvailableMethods,
	}, nil
}

// SecondFactorLogin verifies a code from one of the user's devices.
// @Summary Complete the second factor
// @Description Verifies a TOTP code or backup token and binds the accepting device to the session.
// @Tags TFA, Authentication
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SecondFactorLoginRequest true "Second factor payload"
// @Success 200 {object} router.successResponse{data=SecondFactorLoginResponse} "Verification result"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Invalid code"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Too many attempts"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/tfa/login/second-factor [post]
func (h *HTTPEndpoint) SecondFactorLogin(r *router.Request) (any, error) {
	var req SecondFactorLoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.SecondFactorLogin(r.Context(), usecase.SecondFactorLoginInput{
		Method: req.Method,
		Code:   req.Code,
	})
	if err != nil {
		return nil, err
	}

	return SecondFactorLoginResponse{
		State:    resp.State.String(),
		DeviceID: resp.DeviceID,
	}, nil
}

// Logout ends the current session.
// @Summary Logout
// @Tags TFA, Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} router.successResponse{data=LogoutResponse}
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Router /api/v1/tfa/logout [post]
func (h *HTTPEndpoint) Logout(r *router.Request) (any, error) {
	if err := h.uc.Logout(r.Context()); err != nil {
		return nil, err
	}

	return LogoutResponse{}, nil
}

// Status reports the session state and the user's devices.
// @Summary Second factor status
// @Tags TFA, Devices
// @Produce json
// @Security BearerAuth
// @Success 200 {object} router.successResponse{data=StatusResponse}
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/tfa/status [get]
func (h *HTTPEndpoint) Status(r *router.Request) (any, error) {
	resp, err := h.uc.Status(r.Context())
	if err != nil {
		return nil, err
	}

	return StatusResponse{
		State:       resp.State.String(),
		Required:    resp.Required,
		Enabled:     resp.Enabled,
		BoundDevice: resp.BoundDevice,
		Devices: lo.Map(resp.Devices, func(d usecase.DeviceInfo, _ int) DeviceResponse {
			return DeviceResponse{
				ID:        d.PersistentID,
				Kind:      d.Kind.String(),
				Name:      d.Name,
				Remaining: d.Remaining,
				CreatedAt: d.CreatedAt,
			}
		}),
	}, nil
}

// EnrollTOTP registers a new authenticator app.
// @Summary Enroll a TOTP device
// @Description The first device can be enrolled right after the password; further devices need the second factor.
// @Tags TFA, Devices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body EnrollTOTPRequest true "TOTP device payload"
// @Success 201 {object} router.successResponse{data=EnrollTOTPResponse}
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 403 {object} router.errorResponse "Second factor required"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/tfa/devices/totp [post]
func (h *HTTPEndpoint) EnrollTOTP(r *router.Request) (any, error) {
	var req EnrollTOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.EnrollTOTP(r.Context(), usecase.EnrollTOTPInput{
		Name:      req.Name,
		Key:       req.Key,
		Digits:    req.Digits,
		Step:      req.Step,
		Tolerance: req.Tolerance,
	})
	if err != nil {
		return nil, err
	}

	return EnrollTOTPResponse{
		DeviceID:        resp.DeviceID,
		ProvisioningURI: resp.ProvisioningURI,
		QRCode:          "data:image/png;base64," + base64.StdEncoding.EncodeToString(resp.QRCodePNG),
	}, nil
}

// EnrollBackupCodes issues a fresh sheet of single-use codes.
// @Summary Enroll backup codes
// @Tags TFA, Devices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body EnrollBackupCodesRequest true "Backup code device payload"
// @Success 201 {object} router.successResponse{data=EnrollBackupCodesResponse}
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 403 {object} router.errorResponse "Second factor required"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/tfa/devices/backup-codes [post]
func (h *HTTPEndpoint) EnrollBackupCodes(r *router.Request) (any, error) {
	var req EnrollBackupCodesRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.EnrollBackupCodes(r.Context(), usecase.EnrollBackupCodesInput{Name: req.Name})
	if err != nil {
		return nil, err
	}

	return EnrollBackupCodesResponse{
		DeviceID: resp.DeviceID,
		Codes:    resp.Codes,
	}, nil
}

// DisableTFA removes every device of the user.
// @Summary Disable two-factor authentication
// @Tags TFA, Devices
// @Produce json
// @Security BearerAuth
// @Success 200 {object} router.successResponse{data=DisableTFAResponse}
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 403 {object} router.errorResponse "Second factor required"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/tfa/disable [post]
func (h *HTTPEndpoint) DisableTFA(r *router.Request) (any, error) {
	resp, err := h.uc.DisableTFA(r.Context())
	if err != nil {
		return nil, err
	}

	return DisableTFAResponse{DeletedDevices: resp.DeletedDevices}, nil
}

// Me returns the profile of the authenticated user.
// @Summary Current user
// @Tags TFA
// @Produce json
// @Security BearerAuth
// @Success 200 {object} router.successResponse{data=MeResponse}
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 403 {object} router.errorResponse "Second factor required"
// @Failure 404 {object} router.errorResponse "User not found"
// @Router /api/v1/tfa/me [get]
func (h *HTTPEndpoint) Me(r *router.Request) (any, error) {
	resp, err := h.uc.Me(r.Context())
	if err != nil {
		return nil, err
	}

	return MeResponse{
		UserID:      resp.UserID,
		Email:       resp.Email,
		FullName:    resp.FullName,
		LastLoginAt: resp.LastLoginAt,
		State:       resp.State.String(),
	}, nil
}
