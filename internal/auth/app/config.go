package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	// Issuer is shown in authenticator apps and stamped into ticket claims.
	Issuer string `env:"AUTH_ISSUER,default=Clubhouse"`

	// BootstrapToken enables POST /v1/bootstrap when set.
	BootstrapToken  string `env:"BOOTSTRAP_TOKEN"`
	RegistrationURL string `env:"REGISTRATION_URL"`

	DatabaseFile  string `env:"AUTH_DATABASE_FILE,default=auth.db"`
	PepperFile    string `env:"AUTH_PEPPER_FILE,default=pepper"`
	MasterKeyPath string `env:"AUTH_MASTER_KEY_PATH,default=master.key"` // encrypts TOTP secrets at rest
	TicketKeyFile string `env:"AUTH_TICKET_KEY_FILE,default=ticket.key"` // signs MFA and enrollment tickets

	SessionIdleTimeout time.Duration `env:"AUTH_SESSION_IDLE_TIMEOUT,default=30m"`
	SessionMaxAge      time.Duration `env:"AUTH_SESSION_MAX_AGE,default=12h"`
	CookieSecure       bool          `env:"AUTH_COOKIE_SECURE,default=true"`
	RateLimitThreshold int           `env:"AUTH_RATELIMIT_THRESHOLD,default=5"`
	RateLimitWindow    time.Duration `env:"AUTH_RATELIMIT_WINDOW,default=15m"`
	InvitationTTL      time.Duration `env:"AUTH_INVITATION_TTL,default=168h"`

	Mail MailConfig

	Env                  string        `env:"ENV,default=dev"`         // dev, staging, prod
	LogLevel             string        `env:"LOG_LEVEL,default=info"`  // debug, info, warn, error
	LogFormat            string        `env:"LOG_FORMAT,default=json"` // json, text
	Port                 int           `env:"PORT,default=8080"`
	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD,default=10s"`
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL,default=1h"`
}

// MailConfig selects Mailgun delivery. With no domain configured, outgoing
// mail is written to the log instead.
type MailConfig struct {
	Domain  string `env:"MAILGUN_DOMAIN"`
	APIKey  string `env:"MAILGUN_API_KEY"`
	APIBase string `env:"MAILGUN_API_BASE"`
	From    string `env:"MAIL_FROM,default=Clubhouse <no-reply@localhost>"`
}

func (m MailConfig) Enabled() bool { return m.Domain != "" }

// LoadConfig reads Config from the process environment.
func LoadConfig(ctx context.Context) (Config, error) {
	return loadConfig(ctx, envconfig.OsLookuper())
}

func loadConfig(ctx context.Context, lookuper envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the services cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	if c.SessionIdleTimeout <= 0 {
		errs = append(errs, errors.New("AUTH_SESSION_IDLE_TIMEOUT must be positive"))
	}
	if c.SessionMaxAge < c.SessionIdleTimeout {
		errs = append(errs, errors.New("AUTH_SESSION_MAX_AGE must not be shorter than the idle timeout"))
	}
	if c.RateLimitThreshold <= 0 {
		errs = append(errs, errors.New("AUTH_RATELIMIT_THRESHOLD must be positive"))
	}
	if c.RateLimitWindow <= 0 {
		errs = append(errs, errors.New("AUTH_RATELIMIT_WINDOW must be positive"))
	}
	if c.InvitationTTL <= 0 {
		errs = append(errs, errors.New("AUTH_INVITATION_TTL must be positive"))
	}
	if c.Mail.Enabled() && c.Mail.APIKey == "" {
		errs = append(errs, errors.New("MAILGUN_API_KEY is required when MAILGUN_DOMAIN is set"))
	}
	return errors.Join(errs...)
}
