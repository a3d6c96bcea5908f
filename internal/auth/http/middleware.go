package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/clubhouse/internal/auth/domain"
	"github.com/aussiebroadwan/clubhouse/internal/auth/service"
	"github.com/aussiebroadwan/clubhouse/pkg/authsdk"
	"github.com/aussiebroadwan/clubhouse/pkg/httpx"
	"github.com/aussiebroadwan/clubhouse/pkg/slogx"
)

// RequireSession resolves the session cookie into a RequestContext. Expired
// or unknown sessions are rejected and the cookie is cleared.
func RequireSession(sessions *service.SessionManager, cookie SessionCookie) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r)
			if token == "" {
				authsdk.ErrUnauthenticated.WriteError(w)
				return
			}

			sess, ident, err := sessions.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, service.ErrSessionNotFound) || errors.Is(err, service.ErrSessionExpired) {
					cookie.Clear(w)
				}
				writeError(w, r, err)
				return
			}

			ctx := withRequestContext(r.Context(), RequestContext{
				Identity:     ident,
				Session:      sess,
				SessionToken: token,
				Client:       clientInfo(r),
			})
			ctx = httpx.WithUserID(ctx, ident.ID)
			ctx = slogx.With(ctx, slog.String("identity_id", ident.ID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireCSRF rejects a request whose X-CSRF-Token header does not match the
// session before the handler runs. Must follow RequireSession.
func RequireCSRF(sessions *service.SessionManager, audit *service.AuditLogger) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rc, ok := RequestContextFrom(r.Context())
			if !ok {
				authsdk.ErrUnauthenticated.WriteError(w)
				return
			}

			if err := sessions.VerifyCSRF(rc.Session, r.Header.Get(authsdk.CSRFHeader)); err != nil {
				slogx.FromContext(r.Context()).Warn("csrf token mismatch", slog.String("path", r.URL.Path))
				_ = audit.Append(r.Context(), domain.AuditEntry{
					ActorID:    &rc.Identity.ID,
					Action:     domain.AuditCSRFMismatch,
					TargetType: domain.TargetSession,
					TargetID:   rc.Session.ID,
					Detail:     r.Method + " " + r.URL.Path,
					IP:         rc.Client.IP,
				})
				writeError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission checks the caller's role, and alumni validation where
// the permission needs it. Must follow RequireSession.
func RequirePermission(perms service.PermissionModel, audit *service.AuditLogger, perm domain.Permission) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rc, ok := RequestContextFrom(r.Context())
			if !ok {
				authsdk.ErrUnauthenticated.WriteError(w)
				return
			}

			if err := perms.Authorize(rc.Identity, perm); err != nil {
				slogx.FromContext(r.Context()).Warn("permission denied",
					slog.String("permission", perm.String()),
					slog.String("role", rc.Identity.Role.String()),
				)
				_ = audit.Append(r.Context(), domain.AuditEntry{
					ActorID:    &rc.Identity.ID,
					Action:     domain.AuditPermissionDenied,
					TargetType: domain.TargetIdentity,
					TargetID:   rc.Identity.ID,
					Detail:     perm.String(),
					IP:         rc.Client.IP,
				})
				writeError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
