package http

import (
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/clubhouse/internal/auth/service"
	"github.com/aussiebroadwan/clubhouse/pkg/authsdk"
	"github.com/aussiebroadwan/clubhouse/pkg/httpx"
)

type AuditHandler struct {
	Audit *service.AuditLogger
}

// ServeHTTP handles GET /v1/audit
//
//	@Summary		Recent audit entries
//	@Description	Newest first. limit defaults to 100 and is capped at 500.
//	@Tags			Audit
//	@Produce		json
//	@Param			limit	query		int	false	"Maximum entries"
//	@Success		200		{object}	authsdk.ListAuditResponse
//	@Failure		403		{object}	authsdk.ErrorResponse	"permission_denied"
//	@Security		SessionCookie
//	@Router			/v1/audit [get].
func (h *AuditHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.Audit.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]authsdk.AuditEntryInfo, len(entries))
	for i, e := range entries {
		out[i] = auditEntryInfo(e)
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.ListAuditResponse{Success: true, Entries: out})
}
