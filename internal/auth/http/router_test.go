package http_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/clubhouse/internal/auth/domain"
	authhttp "github.com/aussiebroadwan/clubhouse/internal/auth/http"
	"github.com/aussiebroadwan/clubhouse/internal/auth/metrics"
	"github.com/aussiebroadwan/clubhouse/internal/auth/notify"
	"github.com/aussiebroadwan/clubhouse/internal/auth/service"
	"github.com/aussiebroadwan/clubhouse/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/clubhouse/pkg/authsdk"
	"github.com/aussiebroadwan/clubhouse/pkg/cryptox"
	"github.com/aussiebroadwan/clubhouse/pkg/idx"
	"github.com/aussiebroadwan/clubhouse/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const password = "correct-horse-battery"

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "clubhouse-http-test")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

type env struct {
	t     *testing.T
	ctx   context.Context
	store *sqlite.Store
	mail  *notify.Recorder
	svc   *service.Services
	srv   *httptest.Server
}

func newEnv(t *testing.T) *env {
	t.Helper()

	s, err := sqlite.NewStore(sqlite.DSN(filepath.Join(t.TempDir(), "auth.db")))
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })

	box, err := cryptox.NewSecretBox([]byte("test-master-key"))
	require.NoError(t, err)
	tickets, err := jwtx.NewTicketSigner([]byte(strings.Repeat("t", 32)), "clubhouse-test")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mail := &notify.Recorder{}
	m := metrics.New()

	svc := service.New(service.Options{
		Store:           s,
		Box:             box,
		Tickets:         tickets,
		Sender:          mail,
		Metrics:         m,
		Logger:          logger,
		BootstrapToken:  "bootstrap-secret",
		RegistrationURL: "https://club.example/register",
	})

	router := authhttp.NewRouter(s, svc, m, false, logger)
	router.ApplyRoutes()
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &env{t: t, ctx: context.Background(), store: s, mail: mail, svc: svc, srv: srv}
}

func (e *env) seed(email string, role domain.Role) domain.Identity {
	e.t.Helper()

	hash, err := cryptox.HashPassword(password)
	require.NoError(e.t, err)
	now := time.Now().UTC()
	ident := domain.Identity{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		FirstName:    "Test",
		LastName:     "Person",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(e.t, e.store.Identities().CreateIdentity(e.ctx, ident))
	return ident
}

func (e *env) client() *authsdk.SDKClient {
	e.t.Helper()

	c, err := authsdk.NewSDKClient(e.srv.URL)
	require.NoError(e.t, err)
	return c
}

// login returns a client holding a session for email.
func (e *env) login(email string) *authsdk.SDKClient {
	e.t.Helper()

	c := e.client()
	res, err := c.Login(e.ctx, authsdk.LoginRequest{Email: email, Password: password})
	require.NoError(e.t, err)
	require.True(e.t, res.SessionEstablished)
	require.NotEmpty(e.t, res.CSRFToken)
	return c
}

func (e *env) openInvitations() []domain.Invitation {
	e.t.Helper()

	invs, err := e.store.Invitations().ListOpenInvitations(e.ctx, "", time.Now().UTC())
	require.NoError(e.t, err)
	return invs
}

func TestLoginAndSession(t *testing.T) {
	e := newEnv(t)
	e.seed("board@test.com", domain.RoleBoardInternal)

	c := e.login("board@test.com")
	cur, err := c.Session().Current(e.ctx)
	require.NoError(t, err)
	require.Equal(t, "board@test.com", cur.Identity.Email)
	require.Equal(t, "board_internal", cur.Identity.Role)
	require.Contains(t, cur.Permissions, "manage_identities")
	require.True(t, cur.ExpiresAt.After(time.Now()))

	require.NoError(t, c.Session().Logout(e.ctx))
	_, err = c.Session().Current(e.ctx)
	require.ErrorIs(t, err, authsdk.ErrUnauthenticated)
}

func TestLoginFailuresAreGeneric(t *testing.T) {
	e := newEnv(t)
	e.seed("ada@test.com", domain.RoleMember)

	_, err := e.client().Login(e.ctx, authsdk.LoginRequest{Email: "ada@test.com", Password: "wrong-password"})
	require.ErrorIs(t, err, authsdk.ErrInvalidCredentials)
	_, err = e.client().Login(e.ctx, authsdk.LoginRequest{Email: "nobody@test.com", Password: "wrong-password"})
	require.ErrorIs(t, err, authsdk.ErrInvalidCredentials)

	_, err = e.client().Login(e.ctx, authsdk.LoginRequest{Email: "not-an-email", Password: "x"})
	var apiErr *authsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, authsdk.ErrorCodeValidationFailed, apiErr.Code)
	require.Contains(t, apiErr.Fields, "email")
}

func TestLoginRateLimited(t *testing.T) {
	e := newEnv(t)
	e.seed("ada@test.com", domain.RoleMember)

	for range service.DefaultRateLimitThreshold {
		_, err := e.client().Login(e.ctx, authsdk.LoginRequest{Email: "ada@test.com", Password: "wrong-password"})
		require.ErrorIs(t, err, authsdk.ErrInvalidCredentials)
	}

	_, err := e.client().Login(e.ctx, authsdk.LoginRequest{Email: "ada@test.com", Password: password})
	var apiErr *authsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	require.Equal(t, authsdk.ErrorCodeRateLimited, apiErr.Code)
	require.Positive(t, apiErr.RetryAfter)
}

func TestMutationWithoutCSRFHasNoEffect(t *testing.T) {
	e := newEnv(t)
	e.seed("admin@test.com", domain.RoleAdmin)
	c := e.login("admin@test.com")

	req := authsdk.CreateInvitationRequest{Email: "new@test.com", Role: "member"}

	for _, token := range []string{"", "forged-token"} {
		c.SetCSRFToken(token)
		_, err := c.Session().CreateInvitation(e.ctx, req)
		require.ErrorIs(t, err, authsdk.ErrCSRFMismatch)
	}

	require.Empty(t, e.openInvitations())
	require.Empty(t, e.mail.Sent())

	entries, err := e.svc.Audit.Recent(e.ctx, 50)
	require.NoError(t, err)
	var mismatches int
	for _, entry := range entries {
		if entry.Action == domain.AuditCSRFMismatch {
			mismatches++
		}
	}
	require.Equal(t, 2, mismatches)
}

func TestInvitationRoundTrip(t *testing.T) {
	e := newEnv(t)
	e.seed("admin@test.com", domain.RoleAdmin)
	admin := e.login("admin@test.com")

	created, err := admin.Session().CreateInvitation(e.ctx, authsdk.CreateInvitationRequest{Email: "New@Test.com", Role: "member"})
	require.NoError(t, err)
	require.Equal(t, "new@test.com", created.Invitation.Email)
	require.Equal(t, "pending", created.Invitation.Status)
	require.Len(t, e.mail.Sent(), 1)

	list, err := admin.Session().ListInvitations(e.ctx)
	require.NoError(t, err)
	require.Len(t, list.Invitations, 1)

	anon := e.client()
	v, err := anon.ValidateInvitation(e.ctx, created.Token)
	require.NoError(t, err)
	require.Equal(t, "member", v.Role)

	reg, err := anon.Register(e.ctx, authsdk.RegisterRequest{
		Token:     created.Token,
		FirstName: "New",
		LastName:  "Member",
		Password:  password,
	})
	require.NoError(t, err)
	require.Equal(t, "member", reg.Identity.Role)

	_, err = anon.Register(e.ctx, authsdk.RegisterRequest{
		Token:     created.Token,
		FirstName: "New",
		LastName:  "Member",
		Password:  password,
	})
	require.ErrorIs(t, err, authsdk.ErrInvitationAlreadyAccepted)

	e.login("new@test.com")
}

func TestPermissionEnforced(t *testing.T) {
	e := newEnv(t)
	e.seed("member@test.com", domain.RoleMember)
	member := e.login("member@test.com")

	_, err := member.Session().CreateInvitation(e.ctx, authsdk.CreateInvitationRequest{Email: "x@test.com", Role: "member"})
	require.ErrorIs(t, err, authsdk.ErrPermissionDenied)

	_, err = member.Session().PendingAlumni(e.ctx)
	require.ErrorIs(t, err, authsdk.ErrPermissionDenied)

	_, err = member.Session().RecentAudit(e.ctx, 10)
	require.ErrorIs(t, err, authsdk.ErrPermissionDenied)

	require.Empty(t, e.openInvitations())
}

func TestAlumniOverHTTP(t *testing.T) {
	e := newEnv(t)
	alum := e.seed("alum@test.com", domain.RoleAlumni)
	e.seed("board@test.com", domain.RoleBoardAlumni)

	ac := e.login("alum@test.com")
	cur, err := ac.Session().Current(e.ctx)
	require.NoError(t, err)
	require.NotContains(t, cur.Permissions, "contact_alumni")

	require.NoError(t, ac.Session().RequestAlumniStatus(e.ctx))

	bc := e.login("board@test.com")
	pending, err := bc.Session().PendingAlumni(e.ctx)
	require.NoError(t, err)
	require.Len(t, pending.Identities, 1)
	require.Equal(t, alum.ID, pending.Identities[0].ID)

	require.NoError(t, bc.Session().ValidateAlumni(e.ctx, authsdk.AlumniValidateRequest{TargetIdentityID: alum.ID, Approve: true}))

	cur, err = ac.Session().Current(e.ctx)
	require.NoError(t, err)
	require.Contains(t, cur.Permissions, "contact_alumni")
}

func TestSetRoleOverHTTP(t *testing.T) {
	e := newEnv(t)
	e.seed("internal@test.com", domain.RoleBoardInternal)
	member := e.seed("member@test.com", domain.RoleMember)
	c := e.login("internal@test.com")

	res, err := c.Session().SetRole(e.ctx, member.ID, "department_lead")
	require.NoError(t, err)
	require.Equal(t, "department_lead", res.Identity.Role)

	_, err = c.Session().SetRole(e.ctx, member.ID, "admin")
	require.ErrorIs(t, err, authsdk.ErrPermissionDenied)

	_, err = c.Session().SetRole(e.ctx, member.ID, "overlord")
	var apiErr *authsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}

func TestBootstrapOverHTTP(t *testing.T) {
	e := newEnv(t)
	req := authsdk.BootstrapRequest{
		Email:     "root@test.com",
		Password:  password,
		FirstName: "Root",
		LastName:  "Admin",
	}

	_, err := e.client().Bootstrap(e.ctx, "wrong", req)
	require.ErrorIs(t, err, authsdk.ErrBootstrapUnauthorized)

	res, err := e.client().Bootstrap(e.ctx, "bootstrap-secret", req)
	require.NoError(t, err)
	require.Equal(t, "admin", res.Identity.Role)

	_, err = e.client().Bootstrap(e.ctx, "bootstrap-secret", req)
	require.ErrorIs(t, err, authsdk.ErrBootstrapAlreadyCompleted)
}

func TestHealthAndMetrics(t *testing.T) {
	e := newEnv(t)
	c := e.client()

	live, err := c.GetLiveness(e.ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)

	ready, err := c.GetReadiness(e.ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Checks["database"])

	_, _ = c.Login(e.ctx, authsdk.LoginRequest{Email: "nobody@test.com", Password: "wrong-password"})

	resp, err := http.Get(e.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), `clubhouse_auth_login_attempts_total{outcome="failure"} 1`)
}

func TestRequestIDHeader(t *testing.T) {
	e := newEnv(t)

	resp, err := http.Get(e.srv.URL + "/livez")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp2, err := http.Get(e.srv.URL + "/v1/auth/session")
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp2.StatusCode)
}
