package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/clubhouse/internal/auth/domain"
	"github.com/aussiebroadwan/clubhouse/internal/auth/metrics"
	"github.com/aussiebroadwan/clubhouse/internal/auth/service"
	"github.com/aussiebroadwan/clubhouse/internal/auth/store"
	"github.com/aussiebroadwan/clubhouse/pkg/httpx"
	"github.com/aussiebroadwan/clubhouse/pkg/slogx"

	_ "github.com/aussiebroadwan/clubhouse/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	store    store.Store
	services *service.Services
	metrics  *metrics.Metrics
	cookie   SessionCookie
	logger   *slog.Logger

	// Now is used to derive invitation status in responses.
	Now func() time.Time
}

func NewRouter(
	st store.Store,
	services *service.Services,
	m *metrics.Metrics,
	cookieSecure bool,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:      http.NewServeMux(),
		store:    st,
		services: services,
		metrics:  m,
		cookie: SessionCookie{
			Secure: cookieSecure,
			MaxAge: services.Sessions.MaxLifetime(),
		},
		logger: logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerInvitations()
	r.registerAlumni()
	r.registerIdentities()
	r.registerMFA()
	r.registerAudit()
	r.registerBootstrap()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Clubhouse Authentication Service API
//	@version		0.1.0
//	@description	Session based identity and access control for the clubhouse: password login with optional TOTP, invitations, alumni validation and role management.
//	@description
//	@description				Mutating requests on a session must echo the CSRF token returned at login in the X-CSRF-Token header.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/clubhouse
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	SessionCookie
//	@in							cookie
//	@name						clubhouse_session
//	@description				Opaque session token set by the login endpoints.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// session is the chain for read-only session endpoints.
func (r *Router) session(h http.Handler, mws ...httpx.Middleware) http.Handler {
	chain := append([]httpx.Middleware{RequireSession(r.services.Sessions, r.cookie)}, mws...)
	chain = append(chain, httpx.RateLimitByUser(httpx.ModerateLimit))
	return httpx.Chain(h, chain...)
}

// mutating adds the CSRF check ahead of any permission check, so a forged
// request never reaches the handler.
func (r *Router) mutating(h http.Handler, mws ...httpx.Middleware) http.Handler {
	chain := append([]httpx.Middleware{RequireCSRF(r.services.Sessions, r.services.Audit)}, mws...)
	return r.session(h, chain...)
}

func (r *Router) permission(p domain.Permission) httpx.Middleware {
	return RequirePermission(r.services.Permissions, r.services.Audit, p)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		Sessions:    r.services.Sessions,
		Permissions: r.services.Permissions,
		Cookie:      r.cookie,
	}

	// Login endpoints - strict IP throttle in front of the persistent attempt limiter
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/login/totp",
		httpx.Chain(http.HandlerFunc(h.HandleLoginTOTP),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /v1/auth/logout", r.mutating(http.HandlerFunc(h.HandleLogout)))
	r.Mux.Handle("GET /v1/auth/session", r.session(http.HandlerFunc(h.HandleSession)))
}

func (r *Router) registerInvitations() {
	h := &InvitationsHandler{Invitations: r.services.Invitations, Now: r.Now}
	manage := r.permission(domain.PermManageInvitations)

	r.Mux.Handle("POST /v1/invitations", r.mutating(http.HandlerFunc(h.HandleCreate), manage))
	r.Mux.Handle("GET /v1/invitations", r.session(http.HandlerFunc(h.HandleList), manage))
	r.Mux.Handle("DELETE /v1/invitations/{id}", r.mutating(http.HandlerFunc(h.HandleDelete), manage))

	// Public registration endpoints - strict rate limit by IP (token guessing)
	r.Mux.Handle("GET /v1/invitations/validate",
		httpx.Chain(http.HandlerFunc(h.HandleValidate),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerAlumni() {
	h := &AlumniHandler{Alumni: r.services.Alumni}
	validate := r.permission(domain.PermValidateAlumni)

	r.Mux.Handle("POST /v1/alumni/request", r.mutating(http.HandlerFunc(h.HandleRequest)))
	r.Mux.Handle("GET /v1/alumni/pending", r.session(http.HandlerFunc(h.HandlePending), validate))
	r.Mux.Handle("POST /v1/alumni/validate", r.mutating(http.HandlerFunc(h.HandleValidate), validate))
}

func (r *Router) registerIdentities() {
	h := &IdentitiesHandler{Identities: r.services.Identities}

	r.Mux.Handle("PUT /v1/identities/{id}/role",
		r.mutating(http.HandlerFunc(h.HandleSetRole), r.permission(domain.PermManageIdentities)),
	)
	r.Mux.Handle("PATCH /v1/identities/me", r.mutating(http.HandlerFunc(h.HandleUpdateProfile)))
	r.Mux.Handle("POST /v1/identities/me/password", r.mutating(http.HandlerFunc(h.HandleChangePassword)))
}

func (r *Router) registerMFA() {
	h := &MFAHandler{MFA: r.services.MFA}

	r.Mux.Handle("POST /v1/mfa/totp/enroll", r.mutating(http.HandlerFunc(h.HandleEnroll)))
	r.Mux.Handle("POST /v1/mfa/totp/confirm", r.mutating(http.HandlerFunc(h.HandleConfirm)))
	r.Mux.Handle("DELETE /v1/mfa/totp", r.mutating(http.HandlerFunc(h.HandleDisable)))
	r.Mux.Handle("POST /v1/mfa/recovery-codes", r.mutating(http.HandlerFunc(h.HandleRegenerateRecoveryCodes)))
}

func (r *Router) registerAudit() {
	h := &AuditHandler{Audit: r.services.Audit}
	r.Mux.Handle("GET /v1/audit", r.session(h, r.permission(domain.PermViewAuditLog)))
}

func (r *Router) registerBootstrap() {
	// POST /bootstrap - very strict rate limit by IP (one-time setup endpoint)
	bootstrapHandler := &BootstrapHandler{BootstrapService: r.services.Bootstrap}
	r.Mux.Handle("POST /v1/bootstrap",
		httpx.Chain(bootstrapHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /metrics", r.metrics.Handler())
}
