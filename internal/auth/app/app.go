package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/clubhouse/internal/auth/http"
	"github.com/aussiebroadwan/clubhouse/internal/auth/metrics"
	"github.com/aussiebroadwan/clubhouse/internal/auth/notify"
	"github.com/aussiebroadwan/clubhouse/internal/auth/service"
	"github.com/aussiebroadwan/clubhouse/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/clubhouse/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags.
var BuildVersion = "v0.1.0"

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db      *sqlite.Store
	secrets *Secrets
	metrics *metrics.Metrics
	sender  notify.Sender

	// Services
	services            *service.Services
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "clubhouse-auth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		metrics: metrics.New(),
	}

	secrets, err := LoadSecrets(cfg, app.logger)
	if err != nil {
		return nil, err
	}
	app.secrets = secrets

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initSender()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Services exposes the wired services, mainly for the admin CLI.
func (app *Application) Services() *service.Services { return app.services }

// Housekeeping exposes the cleanup worker so a single pass can be run on demand.
func (app *Application) Housekeeping() *service.HousekeepingService { return app.housekeepingService }

// Handler returns the root HTTP handler.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		app.housekeepingService.Stop()
		_ = app.db.Close()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	return app.Close()
}

// Close releases the database without touching the HTTP server. It is used
// directly by one-shot commands that never call Run.
func (app *Application) Close() error {
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}
	app.logger.Info("auth service stopped")
	return nil
}

// initDatabase opens the database and applies migrations
func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore(sqlite.DSN(app.cfg.DatabaseFile))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "file", app.cfg.DatabaseFile)
	return nil
}

// initSender picks Mailgun when a domain is configured and the log otherwise.
func (app *Application) initSender() {
	if !app.cfg.Mail.Enabled() {
		app.logger.Warn("MAILGUN_DOMAIN not set, outbound mail will be logged")
		app.sender = notify.LogSender{Logger: app.logger}
		return
	}
	app.sender = notify.NewMailgunSender(
		app.cfg.Mail.Domain,
		app.cfg.Mail.APIKey,
		app.cfg.Mail.APIBase,
		app.cfg.Mail.From,
	)
	app.logger.Info("mailgun delivery enabled", "domain", app.cfg.Mail.Domain)
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.services = service.New(service.Options{
		Store:   app.db,
		Box:     app.secrets.Box,
		Tickets: app.secrets.Tickets,
		Sender:  app.sender,
		Metrics: app.metrics,
		Logger:  app.logger,

		Issuer:          app.cfg.Issuer,
		BootstrapToken:  app.cfg.BootstrapToken,
		RegistrationURL: app.cfg.RegistrationURL,

		RateLimitThreshold: app.cfg.RateLimitThreshold,
		RateLimitWindow:    app.cfg.RateLimitWindow,
		SessionIdleTimeout: app.cfg.SessionIdleTimeout,
		SessionMaxAge:      app.cfg.SessionMaxAge,
		InvitationTTL:      app.cfg.InvitationTTL,
	})

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
	app.housekeepingService.Metrics = app.metrics
	app.housekeepingService.SessionIdleTimeout = app.cfg.SessionIdleTimeout
	app.housekeepingService.SessionMaxAge = app.cfg.SessionMaxAge
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.db,
		app.services,
		app.metrics,
		app.cfg.CookieSecure,
		app.logger,
	)
	router.ApplyRoutes()
	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
