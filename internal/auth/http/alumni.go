package http

import (
	"net/http"

	"github.com/aussiebroadwan/clubhouse/internal/auth/service"
	"github.com/aussiebroadwan/clubhouse/pkg/authsdk"
	"github.com/aussiebroadwan/clubhouse/pkg/httpx"
)

type AlumniHandler struct {
	Alumni *service.AlumniService
}

// HandleRequest handles POST /v1/alumni/request
//
//	@Summary		Request alumni validation
//	@Description	Marks the caller as waiting for a board member to validate their alumni status. Repeating the request changes nothing.
//	@Tags			Alumni
//	@Produce		json
//	@Param			X-CSRF-Token	header		string	true	"CSRF token from login"
//	@Success		200				{object}	authsdk.SuccessResponse
//	@Failure		401				{object}	authsdk.ErrorResponse
//	@Failure		403				{object}	authsdk.ErrorResponse	"csrf_mismatch"
//	@Security		SessionCookie
//	@Router			/v1/alumni/request [post].
func (h *AlumniHandler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	rc, _ := RequestContextFrom(r.Context())

	if err := h.Alumni.RequestStatus(r.Context(), rc.Identity, rc.Client); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.SuccessResponse{Success: true})
}

// HandlePending handles GET /v1/alumni/pending
//
//	@Summary		List pending alumni requests
//	@Tags			Alumni
//	@Produce		json
//	@Success		200	{object}	authsdk.PendingAlumniResponse
//	@Failure		403	{object}	authsdk.ErrorResponse	"permission_denied"
//	@Security		SessionCookie
//	@Router			/v1/alumni/pending [get].
func (h *AlumniHandler) HandlePending(w http.ResponseWriter, r *http.Request) {
	idents, err := h.Alumni.ListPending(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]authsdk.IdentityInfo, len(idents))
	for i, ident := range idents {
		out[i] = identityInfo(ident)
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.PendingAlumniResponse{Success: true, Identities: out})
}

// HandleValidate handles POST /v1/alumni/validate
//
//	@Summary		Approve or reject an alumni request
//	@Description	Board-tier roles only. Nobody can validate themselves.
//	@Tags			Alumni
//	@Accept			json
//	@Produce		json
//	@Param			X-CSRF-Token	header		string							true	"CSRF token from login"
//	@Param			request			body		authsdk.AlumniValidateRequest	true	"Decision"
//	@Success		200				{object}	authsdk.SuccessResponse
//	@Failure		403				{object}	authsdk.ErrorResponse	"permission_denied or csrf_mismatch"
//	@Failure		404				{object}	authsdk.ErrorResponse	"Unknown identity"
//	@Failure		409				{object}	authsdk.ErrorResponse	"No pending request"
//	@Security		SessionCookie
//	@Router			/v1/alumni/validate [post].
func (h *AlumniHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	rc, _ := RequestContextFrom(r.Context())

	var req authsdk.AlumniValidateRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.Alumni.Validate(r.Context(), rc.Identity, req.TargetIdentityID, req.Approve, rc.Client); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.SuccessResponse{Success: true})
}
