package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/clubhouse/internal/auth/domain"
	"github.com/aussiebroadwan/clubhouse/internal/auth/service"
	"github.com/aussiebroadwan/clubhouse/pkg/authsdk"
	"github.com/aussiebroadwan/clubhouse/pkg/httpx"
)

type InvitationsHandler struct {
	Invitations *service.InvitationService
	Now         func() time.Time
}

func (h *InvitationsHandler) now() time.Time {
	if h.Now == nil {
		return time.Now().UTC()
	}
	return h.Now().UTC()
}

// HandleCreate handles POST /v1/invitations
//
//	@Summary		Invite a new member
//	@Description	Creates a single-use invitation and emails the registration link. The raw token is returned once and cannot be retrieved again.
//	@Description	The invited role may not outrank the creator's own role.
//	@Tags			Invitations
//	@Accept			json
//	@Produce		json
//	@Param			X-CSRF-Token	header		string								true	"CSRF token from login"
//	@Param			request			body		authsdk.CreateInvitationRequest		true	"Invitee"
//	@Success		201				{object}	authsdk.CreateInvitationResponse
//	@Failure		400				{object}	authsdk.ErrorResponse	"Invalid email or role"
//	@Failure		403				{object}	authsdk.ErrorResponse	"permission_denied or csrf_mismatch"
//	@Failure		409				{object}	authsdk.ErrorResponse	"invitation_outstanding or conflict"
//	@Security		SessionCookie
//	@Router			/v1/invitations [post].
func (h *InvitationsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	rc, _ := RequestContextFrom(r.Context())

	var req authsdk.CreateInvitationRequest
	if !decode(w, r, &req) {
		return
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		errInvalidRole.WriteError(w)
		return
	}

	inv, token, err := h.Invitations.Create(r.Context(), req.Email, role, rc.Identity, rc.Client)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, authsdk.CreateInvitationResponse{
		Success:    true,
		Token:      token,
		Invitation: invitationInfo(inv, h.now()),
	})
}

// HandleList handles GET /v1/invitations
//
//	@Summary		List pending invitations
//	@Description	Board and admin roles see every pending invitation; other roles see their own.
//	@Tags			Invitations
//	@Produce		json
//	@Success		200	{object}	authsdk.ListInvitationsResponse
//	@Failure		403	{object}	authsdk.ErrorResponse	"permission_denied"
//	@Security		SessionCookie
//	@Router			/v1/invitations [get].
func (h *InvitationsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	rc, _ := RequestContextFrom(r.Context())

	invs, err := h.Invitations.ListPending(r.Context(), rc.Identity)
	if err != nil {
		writeError(w, r, err)
		return
	}

	now := h.now()
	out := make([]authsdk.InvitationInfo, len(invs))
	for i, inv := range invs {
		out[i] = invitationInfo(inv, now)
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.ListInvitationsResponse{Success: true, Invitations: out})
}

// HandleDelete handles DELETE /v1/invitations/{id}
//
//	@Summary		Revoke an invitation
//	@Tags			Invitations
//	@Produce		json
//	@Param			X-CSRF-Token	header		string	true	"CSRF token from login"
//	@Param			id				path		string	true	"Invitation ID"
//	@Success		200				{object}	authsdk.SuccessResponse
//	@Failure		403				{object}	authsdk.ErrorResponse	"Not the creator"
//	@Failure		404				{object}	authsdk.ErrorResponse	"invitation_not_found"
//	@Failure		409				{object}	authsdk.ErrorResponse	"invitation_already_accepted"
//	@Security		SessionCookie
//	@Router			/v1/invitations/{id} [delete].
func (h *InvitationsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	rc, _ := RequestContextFrom(r.Context())

	if err := h.Invitations.Delete(r.Context(), r.PathValue("id"), rc.Identity, rc.Client); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.SuccessResponse{Success: true})
}

// HandleValidate handles GET /v1/invitations/validate
//
//	@Summary		Check an invitation token
//	@Description	Used by the registration page before asking for profile details.
//	@Tags			Invitations
//	@Produce		json
//	@Param			token	query		string	true	"Invitation token"
//	@Success		200		{object}	authsdk.ValidateInvitationResponse
//	@Failure		404		{object}	authsdk.ErrorResponse	"invitation_not_found"
//	@Failure		409		{object}	authsdk.ErrorResponse	"invitation_already_accepted"
//	@Failure		410		{object}	authsdk.ErrorResponse	"invitation_expired"
//	@Router			/v1/invitations/validate [get].
func (h *InvitationsHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	inv, err := h.Invitations.Validate(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.ValidateInvitationResponse{
		Success:   true,
		Email:     inv.Email,
		Role:      inv.Role.String(),
		ExpiresAt: inv.ExpiresAt,
	})
}

// HandleRegister handles POST /v1/register
//
//	@Summary		Register with an invitation
//	@Description	Consumes the invitation and creates the identity with the invited email and role. A token can be used once.
//	@Tags			Invitations
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RegisterRequest		true	"Token and profile"
//	@Success		201		{object}	authsdk.IdentityResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"validation_failed"
//	@Failure		404		{object}	authsdk.ErrorResponse	"invitation_not_found"
//	@Failure		409		{object}	authsdk.ErrorResponse	"invitation_already_accepted"
//	@Failure		410		{object}	authsdk.ErrorResponse	"invitation_expired"
//	@Router			/v1/register [post].
func (h *InvitationsHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RegisterRequest
	if !decode(w, r, &req) {
		return
	}

	ident, err := h.Invitations.Consume(r.Context(),
		req.Token,
		domain.Profile{FirstName: req.FirstName, LastName: req.LastName},
		req.Password,
		clientInfo(r),
	)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, authsdk.IdentityResponse{Success: true, Identity: identityInfo(ident)})
}
