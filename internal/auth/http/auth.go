package http

import (
	"net/http"

	"github.com/aussiebroadwan/clubhouse/internal/auth/service"
	"github.com/aussiebroadwan/clubhouse/pkg/authsdk"
	"github.com/aussiebroadwan/clubhouse/pkg/httpx"
)

// AuthHandler serves the login state machine and the session endpoints.
type AuthHandler struct {
	Sessions    *service.SessionManager
	Permissions service.PermissionModel
	Cookie      SessionCookie
}

// HandleLogin handles POST /v1/auth/login
//
//	@Summary		Sign in with email and password
//	@Description	Checks the credentials. When the identity has TOTP enabled and no totp_code was sent, no session is created and a short-lived challenge_token is returned for /v1/auth/login/totp.
//	@Description	Failures never reveal whether the email exists.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.LoginResponse	"Session established or second factor required"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Malformed request"
//	@Failure		401		{object}	authsdk.ErrorResponse	"invalid_credentials or totp_invalid"
//	@Failure		429		{object}	authsdk.ErrorResponse	"Too many failed attempts, see Retry-After"
//	@Failure		503		{object}	authsdk.ErrorResponse	"Store unavailable"
//	@Router			/v1/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.Sessions.Submit(r.Context(), req.Email, req.Password, req.TOTPCode, clientInfo(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.writeLogin(w, res)
}

// HandleLoginTOTP handles POST /v1/auth/login/totp
//
//	@Summary		Complete a login with a second factor
//	@Description	Exchanges the challenge_token from /v1/auth/login and a TOTP or recovery code for a session.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginTOTPRequest	true	"Challenge and code"
//	@Success		200		{object}	authsdk.LoginResponse		"Session established"
//	@Failure		400		{object}	authsdk.ErrorResponse		"Malformed request"
//	@Failure		401		{object}	authsdk.ErrorResponse		"totp_required or totp_invalid"
//	@Failure		429		{object}	authsdk.ErrorResponse		"Too many failed attempts"
//	@Router			/v1/auth/login/totp [post].
func (h *AuthHandler) HandleLoginTOTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginTOTPRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.Sessions.CompleteSecondFactor(r.Context(), req.ChallengeToken, req.Code, clientInfo(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.writeLogin(w, res)
}

func (h *AuthHandler) writeLogin(w http.ResponseWriter, res service.LoginResult) {
	if res.State == service.LoginNeedsSecondFactor {
		httpx.WriteJSON(w, http.StatusOK, authsdk.LoginResponse{
			Success:        true,
			Message:        "second factor required",
			RequiresTOTP:   true,
			ChallengeToken: res.ChallengeToken,
		})
		return
	}

	h.Cookie.Set(w, res.SessionToken)
	info := identityInfo(res.Identity)
	httpx.WriteJSON(w, http.StatusOK, authsdk.LoginResponse{
		Success:            true,
		Message:            "signed in",
		SessionEstablished: true,
		CSRFToken:          res.CSRFToken,
		Identity:           &info,
	})
}

// HandleLogout handles POST /v1/auth/logout
//
//	@Summary		Sign out
//	@Tags			Auth
//	@Produce		json
//	@Param			X-CSRF-Token	header		string					true	"CSRF token from login"
//	@Success		200				{object}	authsdk.SuccessResponse
//	@Failure		401				{object}	authsdk.ErrorResponse	"No session"
//	@Failure		403				{object}	authsdk.ErrorResponse	"csrf_mismatch"
//	@Security		SessionCookie
//	@Router			/v1/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	rc, _ := RequestContextFrom(r.Context())

	if err := h.Sessions.Logout(r.Context(), rc.SessionToken, rc.Client); err != nil {
		writeError(w, r, err)
		return
	}
	h.Cookie.Clear(w)
	httpx.WriteJSON(w, http.StatusOK, authsdk.SuccessResponse{Success: true})
}

// HandleSession handles GET /v1/auth/session
//
//	@Summary		Current session
//	@Description	Returns the signed-in identity, the permissions it currently holds and when the session lapses if left idle.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	authsdk.SessionResponse
//	@Failure		401	{object}	authsdk.ErrorResponse	"unauthenticated or session_expired"
//	@Security		SessionCookie
//	@Router			/v1/auth/session [get].
func (h *AuthHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	rc, _ := RequestContextFrom(r.Context())

	httpx.WriteJSON(w, http.StatusOK, authsdk.SessionResponse{
		Success:     true,
		Identity:    identityInfo(rc.Identity),
		Permissions: permissionNames(h.Permissions.Effective(rc.Identity)),
		ExpiresAt:   h.Sessions.ExpiresAt(rc.Session),
	})
}
