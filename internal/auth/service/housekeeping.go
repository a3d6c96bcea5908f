package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/clubhouse/internal/auth/metrics"
	"github.com/aussiebroadwan/clubhouse/internal/auth/store"
)

const DefaultInvitationRetention = 30 * 24 * time.Hour

// HousekeepingService periodically removes stale sessions and long-expired
// invitations. Attempt records are kept.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Interval time.Duration

	SessionIdleTimeout  time.Duration
	SessionMaxAge       time.Duration
	InvitationRetention time.Duration
	Now                 Clock

	stopCh chan struct{}
	doneCh chan struct{}
}

// CleanupResult counts what one pass removed.
type CleanupResult struct {
	Sessions    int64
	Invitations int64
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(s store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &HousekeepingService{
		Store:               s,
		Logger:              logger,
		Interval:            interval,
		SessionIdleTimeout:  DefaultSessionIdleTimeout,
		SessionMaxAge:       DefaultSessionMaxAge,
		InvitationRetention: DefaultInvitationRetention,
		stopCh:              make(chan struct{}),
		doneCh:              make(chan struct{}),
	}
}

// Start begins the background worker. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until the worker has finished any in-progress cleanup.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	_, _ = s.Cleanup(context.Background())

	for {
		select {
		case <-ticker.C:
			_, _ = s.Cleanup(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Cleanup runs one pass. Each deletion is independent; the first error is
// returned after both have been tried.
func (s *HousekeepingService) Cleanup(ctx context.Context) (CleanupResult, error) {
	now := s.Now.now()
	var (
		res      CleanupResult
		firstErr error
	)

	idle := s.SessionIdleTimeout
	if idle <= 0 {
		idle = DefaultSessionIdleTimeout
	}
	maxAge := s.SessionMaxAge
	if maxAge <= 0 {
		maxAge = DefaultSessionMaxAge
	}
	retention := s.InvitationRetention
	if retention <= 0 {
		retention = DefaultInvitationRetention
	}

	n, err := s.Store.Sessions().DeleteStaleSessions(ctx, now.Add(-idle), now.Add(-maxAge))
	if err != nil {
		s.Logger.Error("failed to delete stale sessions", "error", err)
		firstErr = storeErr(err)
	} else {
		res.Sessions = n
		s.Metrics.SessionsPruned(n)
	}

	n, err = s.Store.Invitations().DeleteExpiredBefore(ctx, now.Add(-retention))
	if err != nil {
		s.Logger.Error("failed to delete expired invitations", "error", err)
		if firstErr == nil {
			firstErr = storeErr(err)
		}
	} else {
		res.Invitations = n
	}

	s.Logger.Info("housekeeping cleanup completed",
		"sessions_deleted", res.Sessions,
		"invitations_deleted", res.Invitations,
	)
	return res, firstErr
}
