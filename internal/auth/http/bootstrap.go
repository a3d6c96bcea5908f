package http

import (
	"net/http"

	"github.com/aussiebroadwan/clubhouse/internal/auth/service"
	"github.com/aussiebroadwan/clubhouse/pkg/authsdk"
	"github.com/aussiebroadwan/clubhouse/pkg/httpx"
	"github.com/aussiebroadwan/clubhouse/pkg/slogx"
)

type BootstrapHandler struct {
	BootstrapService *service.BootstrapService
}

// ServeHTTP handles the bootstrap endpoint for initial system setup.
//
//	@Summary		Bootstrap the authentication system
//	@Description	Creates the first admin identity. Only available when a bootstrap token is configured, and only while no identity exists.
//	@Tags			Bootstrap
//	@Accept			json
//	@Produce		json
//	@Param			X-Bootstrap-Token	header		string						true	"Bootstrap token for authorization"
//	@Param			request				body		authsdk.BootstrapRequest	true	"First admin"
//	@Success		201					{object}	authsdk.IdentityResponse	"The admin identity"
//	@Failure		400					{object}	authsdk.ErrorResponse		"Invalid request body or validation failed"
//	@Failure		401					{object}	authsdk.ErrorResponse		"Missing or invalid bootstrap token"
//	@Failure		404					{object}	authsdk.ErrorResponse		"Bootstrap not enabled (no token configured)"
//	@Failure		409					{object}	authsdk.ErrorResponse		"System already bootstrapped"
//	@Router			/v1/bootstrap [post].
func (h *BootstrapHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	l := slogx.FromContext(r.Context())
	l.Info("Starting to bootstrap")

	// 1. Check if enabled
	if h.BootstrapService.Token == "" {
		errBootstrapDisabled.WriteError(w)
		return
	}

	// 2. Require bootstrap token header
	token := r.Header.Get(authsdk.BootstrapTokenHeader)
	if token == "" {
		authsdk.ErrBootstrapUnauthorized.WriteError(w)
		return
	}

	// 3. Parse request body and validate
	var req authsdk.BootstrapRequest
	if !decode(w, r, &req) {
		return
	}

	// 4. Perform bootstrap
	admin, err := h.BootstrapService.Bootstrap(r.Context(), token, service.AdminRequest{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}, clientInfo(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	// 5. Respond with the created admin
	httpx.WriteJSON(w, http.StatusCreated, authsdk.IdentityResponse{Success: true, Identity: identityInfo(admin)})
}
