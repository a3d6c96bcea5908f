package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/clubhouse/internal/auth/domain"
	"github.com/aussiebroadwan/clubhouse/internal/auth/metrics"
	"github.com/aussiebroadwan/clubhouse/internal/auth/store"
	"github.com/aussiebroadwan/clubhouse/pkg/idx"
)

// AuditLogger is the append-only audit sink. Entries that cannot be stored
// are written in full to the fallback logger.
type AuditLogger struct {
	Store    store.Store
	Fallback *slog.Logger
	Metrics  *metrics.Metrics
	Now      Clock
}

func NewAuditLogger(s store.Store, logger *slog.Logger, m *metrics.Metrics, now Clock) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		Store:    s,
		Fallback: logger.With(slog.String("channel", "audit_fallback")),
		Metrics:  m,
		Now:      now,
	}
}

func (a *AuditLogger) Append(ctx context.Context, e domain.AuditEntry) error {
	return a.appendTo(ctx, a.Store, e)
}

// AppendTx writes the entry inside the caller's transaction.
func (a *AuditLogger) AppendTx(ctx context.Context, tx store.Tx, e domain.AuditEntry) error {
	return a.appendTo(ctx, tx, e)
}

// Recent returns the newest entries first.
func (a *AuditLogger) Recent(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	entries, err := a.Store.AuditEntries().ListRecentAuditEntries(ctx, limit)
	return entries, storeErr(err)
}

func (a *AuditLogger) appendTo(ctx context.Context, s store.Store, e domain.AuditEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = a.Now.now()
	}
	if e.ID == "" {
		e.ID = idx.NewAt(e.CreatedAt).String()
	}

	if err := s.AuditEntries().AppendAuditEntry(ctx, e); err != nil {
		a.fallback(ctx, e, err)
		return fmt.Errorf("%w: append audit entry: %w", ErrStoreUnavailable, err)
	}
	return nil
}

func (a *AuditLogger) fallback(ctx context.Context, e domain.AuditEntry, cause error) {
	logger := a.Fallback
	if logger == nil {
		logger = slog.Default().With(slog.String("channel", "audit_fallback"))
	}

	actor := ""
	if e.ActorID != nil {
		actor = *e.ActorID
	}
	logger.ErrorContext(ctx, "audit entry not persisted",
		slog.String("audit_id", e.ID),
		slog.String("actor_id", actor),
		slog.String("action", string(e.Action)),
		slog.String("target_type", e.TargetType),
		slog.String("target_id", e.TargetID),
		slog.String("detail", e.Detail),
		slog.String("ip", e.IP),
		slog.Time("created_at", e.CreatedAt),
		slog.Any("error", cause),
	)
	a.Metrics.AuditFallback()
}

// entry builds an audit entry. An empty actorID records an anonymous actor.
func entry(action domain.AuditAction, actorID, targetType, targetID, ip string) domain.AuditEntry {
	e := domain.AuditEntry{
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		IP:         ip,
	}
	if actorID != "" {
		e.ActorID = &actorID
	}
	return e
}
