package http

import (
	"net/http"

	"github.com/aussiebroadwan/clubhouse/internal/auth/domain"
	"github.com/aussiebroadwan/clubhouse/internal/auth/service"
	"github.com/aussiebroadwan/clubhouse/pkg/authsdk"
	"github.com/aussiebroadwan/clubhouse/pkg/httpx"
)

type IdentitiesHandler struct {
	Identities *service.IdentityService
}

// HandleSetRole handles PUT /v1/identities/{id}/role
//
//	@Summary		Change an identity's role
//	@Description	The caller must strictly outrank both the target's current role and the new one, and cannot change their own role.
//	@Tags			Identities
//	@Accept			json
//	@Produce		json
//	@Param			X-CSRF-Token	header		string					true	"CSRF token from login"
//	@Param			id				path		string					true	"Identity ID"
//	@Param			request			body		authsdk.SetRoleRequest	true	"New role"
//	@Success		200				{object}	authsdk.IdentityResponse
//	@Failure		400				{object}	authsdk.ErrorResponse	"Unknown role"
//	@Failure		403				{object}	authsdk.ErrorResponse	"permission_denied"
//	@Failure		404				{object}	authsdk.ErrorResponse	"Unknown identity"
//	@Security		SessionCookie
//	@Router			/v1/identities/{id}/role [put].
func (h *IdentitiesHandler) HandleSetRole(w http.ResponseWriter, r *http.Request) {
	rc, _ := RequestContextFrom(r.Context())

	var req authsdk.SetRoleRequest
	if !decode(w, r, &req) {
		return
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		errInvalidRole.WriteError(w)
		return
	}

	ident, err := h.Identities.SetRole(r.Context(), rc.Identity, r.PathValue("id"), role, rc.Client)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.IdentityResponse{Success: true, Identity: identityInfo(ident)})
}

// HandleUpdateProfile handles PATCH /v1/identities/me
//
//	@Summary		Update own profile
//	@Tags			Identities
//	@Accept			json
//	@Produce		json
//	@Param			X-CSRF-Token	header		string							true	"CSRF token from login"
//	@Param			request			body		authsdk.UpdateProfileRequest	true	"Names"
//	@Success		200				{object}	authsdk.IdentityResponse
//	@Failure		400				{object}	authsdk.ErrorResponse	"validation_failed"
//	@Security		SessionCookie
//	@Router			/v1/identities/me [patch].
func (h *IdentitiesHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	rc, _ := RequestContextFrom(r.Context())

	var req authsdk.UpdateProfileRequest
	if !decode(w, r, &req) {
		return
	}

	ident, err := h.Identities.UpdateProfile(r.Context(), rc.Identity,
		domain.Profile{FirstName: req.FirstName, LastName: req.LastName}, rc.Client)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.IdentityResponse{Success: true, Identity: identityInfo(ident)})
}

// HandleChangePassword handles POST /v1/identities/me/password
//
//	@Summary		Change own password
//	@Description	Requires the current password. Every other session of the identity is signed out.
//	@Tags			Identities
//	@Accept			json
//	@Produce		json
//	@Param			X-CSRF-Token	header		string							true	"CSRF token from login"
//	@Param			request			body		authsdk.ChangePasswordRequest	true	"Passwords"
//	@Success		200				{object}	authsdk.SuccessResponse
//	@Failure		400				{object}	authsdk.ErrorResponse	"validation_failed"
//	@Failure		401				{object}	authsdk.ErrorResponse	"invalid_credentials"
//	@Security		SessionCookie
//	@Router			/v1/identities/me/password [post].
func (h *IdentitiesHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	rc, _ := RequestContextFrom(r.Context())

	var req authsdk.ChangePasswordRequest
	if !decode(w, r, &req) {
		return
	}

	err := h.Identities.ChangePassword(r.Context(), rc.Identity, rc.Session.ID, req.CurrentPassword, req.NewPassword, rc.Client)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.SuccessResponse{Success: true})
}
