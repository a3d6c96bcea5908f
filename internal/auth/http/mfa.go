package http

import (
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/clubhouse/internal/auth/service"
	"github.com/aussiebroadwan/clubhouse/pkg/authsdk"
	"github.com/aussiebroadwan/clubhouse/pkg/httpx"
	"github.com/aussiebroadwan/clubhouse/pkg/slogx"
)

// MFAHandler handles all MFA-related endpoints.
type MFAHandler struct {
	MFA *service.MFAService
}

// HandleEnroll handles POST /v1/mfa/totp/enroll
//
//	@Summary		Start TOTP enrollment
//	@Description	Generates a secret and provisioning URI. Nothing is stored until the enrollment is confirmed with a code.
//	@Tags			MFA
//	@Produce		json
//	@Param			X-CSRF-Token	header		string	true	"CSRF token from login"
//	@Success		200				{object}	authsdk.TOTPEnrollResponse
//	@Failure		409				{object}	authsdk.ErrorResponse	"TOTP already enabled"
//	@Security		SessionCookie
//	@Router			/v1/mfa/totp/enroll [post].
func (h *MFAHandler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
	rc, _ := RequestContextFrom(r.Context())

	enr, err := h.MFA.Enroll(r.Context(), rc.Identity)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.TOTPEnrollResponse{
		Success:         true,
		Secret:          enr.Secret,
		ProvisioningURI: enr.ProvisioningURI,
		EnrollmentToken: enr.Token,
	})
}

// HandleConfirm handles POST /v1/mfa/totp/confirm
//
//	@Summary		Confirm TOTP enrollment
//	@Description	Enables TOTP once the code matches the enrolled secret. Returns recovery codes, shown once.
//	@Tags			MFA
//	@Accept			json
//	@Produce		json
//	@Param			X-CSRF-Token	header		string						true	"CSRF token from login"
//	@Param			request			body		authsdk.TOTPConfirmRequest	true	"Enrollment token and code"
//	@Success		200				{object}	authsdk.TOTPConfirmResponse
//	@Failure		401				{object}	authsdk.ErrorResponse	"totp_invalid"
//	@Failure		409				{object}	authsdk.ErrorResponse	"TOTP already enabled"
//	@Security		SessionCookie
//	@Router			/v1/mfa/totp/confirm [post].
func (h *MFAHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	rc, _ := RequestContextFrom(r.Context())

	var req authsdk.TOTPConfirmRequest
	if !decode(w, r, &req) {
		return
	}

	codes, err := h.MFA.Confirm(r.Context(), rc.Identity, req.EnrollmentToken, req.Code, rc.Client)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.TOTPConfirmResponse{Success: true, RecoveryCodes: codes})
}

// HandleDisable handles DELETE /v1/mfa/totp
//
//	@Summary		Disable TOTP
//	@Description	Requires a current TOTP code or an unused recovery code. Remaining recovery codes are discarded.
//	@Tags			MFA
//	@Accept			json
//	@Produce		json
//	@Param			X-CSRF-Token	header		string						true	"CSRF token from login"
//	@Param			request			body		authsdk.TOTPDisableRequest	true	"Code"
//	@Success		200				{object}	authsdk.SuccessResponse
//	@Failure		401				{object}	authsdk.ErrorResponse	"totp_invalid"
//	@Failure		409				{object}	authsdk.ErrorResponse	"TOTP not enabled"
//	@Security		SessionCookie
//	@Router			/v1/mfa/totp [delete].
func (h *MFAHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	rc, _ := RequestContextFrom(r.Context())

	var req authsdk.TOTPDisableRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.MFA.Disable(r.Context(), rc.Identity, req.Code, rc.Client); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.SuccessResponse{Success: true})
}

// HandleRegenerateRecoveryCodes handles POST /v1/mfa/recovery-codes
//
//	@Summary		Replace recovery codes
//	@Description	Requires a current TOTP code. Every previous recovery code stops working.
//	@Tags			MFA
//	@Accept			json
//	@Produce		json
//	@Param			X-CSRF-Token	header		string							true	"CSRF token from login"
//	@Param			request			body		authsdk.RecoveryCodesRequest	true	"TOTP code"
//	@Success		200				{object}	authsdk.TOTPConfirmResponse
//	@Failure		401				{object}	authsdk.ErrorResponse	"totp_invalid"
//	@Failure		409				{object}	authsdk.ErrorResponse	"TOTP not enabled"
//	@Security		SessionCookie
//	@Router			/v1/mfa/recovery-codes [post].
func (h *MFAHandler) HandleRegenerateRecoveryCodes(w http.ResponseWriter, r *http.Request) {
	rc, _ := RequestContextFrom(r.Context())

	var req authsdk.RecoveryCodesRequest
	if !decode(w, r, &req) {
		return
	}

	codes, err := h.MFA.RegenerateRecoveryCodes(r.Context(), rc.Identity, req.Code, rc.Client)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slogx.FromContext(r.Context()).Info("recovery codes regenerated", slog.Int("count", len(codes)))
	httpx.WriteJSON(w, http.StatusOK, authsdk.TOTPConfirmResponse{Success: true, RecoveryCodes: codes})
}
