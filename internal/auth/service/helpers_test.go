package service

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/clubhouse/internal/auth/domain"
	"github.com/aussiebroadwan/clubhouse/internal/auth/metrics"
	"github.com/aussiebroadwan/clubhouse/internal/auth/notify"
	"github.com/aussiebroadwan/clubhouse/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/clubhouse/pkg/cryptox"
	"github.com/aussiebroadwan/clubhouse/pkg/idx"
	"github.com/aussiebroadwan/clubhouse/pkg/jwtx"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

var client = domain.ClientInfo{IP: "1.2.3.4", UserAgent: "go-test"}

const testPassword = "correct-horse-battery"

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "clubhouse-service-test")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type harness struct {
	t       *testing.T
	ctx     context.Context
	store   *sqlite.Store
	clock   *fakeClock
	mail    *notify.Recorder
	metrics *metrics.Metrics
	svc     *Services
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	s, err := sqlite.NewStore(sqlite.DSN(filepath.Join(t.TempDir(), "auth.db")))
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })

	clock := &fakeClock{t: epoch}

	box, err := cryptox.NewSecretBox([]byte("test-master-key"))
	require.NoError(t, err)

	tickets, err := jwtx.NewTicketSigner([]byte(strings.Repeat("t", 32)), "clubhouse-test")
	require.NoError(t, err)
	tickets.Now = clock.Now

	mail := &notify.Recorder{}
	m := metrics.New()

	svc := New(Options{
		Store:           s,
		Box:             box,
		Tickets:         tickets,
		Sender:          mail,
		Metrics:         m,
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:             clock.Now,
		Issuer:          "Clubhouse Test",
		BootstrapToken:  "bootstrap-secret",
		RegistrationURL: "https://club.example/register",
	})

	return &harness{
		t:       t,
		ctx:     context.Background(),
		store:   s,
		clock:   clock,
		mail:    mail,
		metrics: m,
		svc:     svc,
	}
}

func (h *harness) seed(email string, role domain.Role) domain.Identity {
	h.t.Helper()

	hash, err := cryptox.HashPassword(testPassword)
	require.NoError(h.t, err)

	now := h.clock.Now()
	ident := domain.Identity{
		ID:           idx.New().String(),
		Email:        domain.NormaliseEmail(email),
		PasswordHash: hash,
		Role:         role,
		FirstName:    "Test",
		LastName:     "Person",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(h.t, h.store.Identities().CreateIdentity(h.ctx, ident))
	return ident
}

func (h *harness) reload(id string) domain.Identity {
	h.t.Helper()

	ident, err := h.store.Identities().GetIdentityByID(h.ctx, id)
	require.NoError(h.t, err)
	return ident
}

// enableTOTP turns TOTP on for ident and returns the plaintext secret.
func (h *harness) enableTOTP(ident domain.Identity) (domain.Identity, string) {
	h.t.Helper()

	secret, err := h.svc.TOTP.GenerateSecret()
	require.NoError(h.t, err)
	require.NoError(h.t, h.svc.TOTP.Enable(h.ctx, ident.ID, secret))
	return h.reload(ident.ID), secret
}

func (h *harness) auditActions() []domain.AuditAction {
	h.t.Helper()

	entries, err := h.store.AuditEntries().ListRecentAuditEntries(h.ctx, 500)
	require.NoError(h.t, err)

	out := make([]domain.AuditAction, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Action)
	}
	return out
}

func codeAt(t *testing.T, secret string, at time.Time) string {
	t.Helper()

	code, err := totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
		Period:    30,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	require.NoError(t, err)
	return code
}

// wrongCode returns a six digit code outside the accepted window around at.
func wrongCode(t *testing.T, secret string, at time.Time) string {
	t.Helper()

	accepted := map[string]bool{
		codeAt(t, secret, at.Add(-30*time.Second)): true,
		codeAt(t, secret, at):                      true,
		codeAt(t, secret, at.Add(30*time.Second)):  true,
	}
	for _, c := range []string{"000000", "111111", "222222", "333333"} {
		if !accepted[c] {
			return c
		}
	}
	t.Fatal("no wrong code available")
	return ""
}

func fingerprint(token string) string { return cryptox.FingerprintToken(token) }
