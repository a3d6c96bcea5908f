package authsdk_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aussiebroadwan/clubhouse/pkg/authsdk"
	"github.com/aussiebroadwan/clubhouse/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req authsdk.LoginRequest
		if err := httpx.DecodeJSON(w, r, &req); err != nil {
			authsdk.ErrInvalidRequest.WriteError(w)
			return
		}
		if req.Password != "correct horse" {
			authsdk.ErrInvalidCredentials.WriteError(w)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "clubhouse_session", Value: "opaque", Path: "/"})
		httpx.WriteJSON(w, http.StatusOK, authsdk.LoginResponse{
			Success:            true,
			SessionEstablished: true,
			CSRFToken:          "csrf-123",
			Identity:           &authsdk.IdentityInfo{Email: req.Email, Role: "member"},
		})
	})
	mux.HandleFunc("POST /v1/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie("clubhouse_session"); err != nil {
			authsdk.ErrUnauthenticated.WriteError(w)
			return
		}
		if r.Header.Get(authsdk.CSRFHeader) != "csrf-123" {
			authsdk.ErrCSRFMismatch.WriteError(w)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, authsdk.SuccessResponse{Success: true})
	})
	mux.HandleFunc("POST /v1/register", func(w http.ResponseWriter, r *http.Request) {
		authsdk.NewRateLimitedError(3 * time.Second).WriteError(w)
	})
	mux.HandleFunc("POST /v1/invitations", func(w http.ResponseWriter, r *http.Request) {
		authsdk.NewValidationError(map[string]string{"email": "is required"}).WriteError(w)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestLoginStoresCSRFTokenAndCookie(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	client, err := authsdk.NewSDKClient(srv.URL + "/")
	require.NoError(t, err)

	res, err := client.Login(ctx, authsdk.LoginRequest{Email: "a@example.com", Password: "correct horse"})
	require.NoError(t, err)
	require.True(t, res.SessionEstablished)
	require.Equal(t, "member", res.Identity.Role)

	require.NoError(t, client.Session().Logout(ctx))

	// The token is forgotten after logout.
	err = client.Session().Logout(ctx)
	require.ErrorIs(t, err, authsdk.ErrCSRFMismatch)
}

func TestErrorsAreParsed(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	client, err := authsdk.NewSDKClient(srv.URL)
	require.NoError(t, err)

	_, err = client.Login(ctx, authsdk.LoginRequest{Email: "a@example.com", Password: "nope"})
	var apiErr *authsdk.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Equal(t, authsdk.ErrorCodeInvalidCredentials, apiErr.Code)
	require.ErrorIs(t, err, authsdk.ErrInvalidCredentials)

	_, err = client.Register(ctx, authsdk.RegisterRequest{Token: "t"})
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, authsdk.ErrorCodeRateLimited, apiErr.Code)
	require.Equal(t, 3*time.Second, apiErr.RetryAfter)

	_, err = client.Session().CreateInvitation(ctx, authsdk.CreateInvitationRequest{})
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, authsdk.ErrorCodeValidationFailed, apiErr.Code)
	require.Equal(t, "is required", apiErr.Fields["email"])
}

func TestRateLimitedErrorRoundsRetryAfterUp(t *testing.T) {
	rec := httptest.NewRecorder()
	authsdk.NewRateLimitedError(1500 * time.Millisecond).WriteError(rec)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "2", rec.Header().Get("Retry-After"))
	require.Contains(t, rec.Body.String(), `"success":false`)
	require.Contains(t, rec.Body.String(), `"error":"rate_limited"`)
}
