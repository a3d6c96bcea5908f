package http

import (
	"context"
	"net/http"

	"github.com/aussiebroadwan/clubhouse/internal/auth/domain"
	"github.com/aussiebroadwan/clubhouse/pkg/httpx"
)

// RequestContext is what a handler knows about the caller once the session
// middleware has run.
type RequestContext struct {
	Identity     domain.Identity
	Session      domain.Session
	SessionToken string
	Client       domain.ClientInfo
}

type ctxKey struct{}

func withRequestContext(ctx context.Context, rc RequestContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, rc)
}

// RequestContextFrom returns the caller recorded by the session middleware.
func RequestContextFrom(ctx context.Context) (RequestContext, bool) {
	rc, ok := ctx.Value(ctxKey{}).(RequestContext)
	return rc, ok
}

// clientInfo is the IP and user agent of an unauthenticated request.
func clientInfo(r *http.Request) domain.ClientInfo {
	return domain.ClientInfo{
		IP:        httpx.ClientIP(r),
		UserAgent: r.UserAgent(),
	}
}
