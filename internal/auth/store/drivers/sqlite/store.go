package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/clubhouse/internal/auth/domain"
	"github.com/aussiebroadwan/clubhouse/internal/auth/store"
	"github.com/aussiebroadwan/clubhouse/internal/auth/store/drivers/sqlite/gen"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type Store struct {
	db  *sql.DB
	q   *gen.Queries
	dsn string
}

// DSN builds the connection string for a database file. Every connection
// gets foreign keys, WAL and a busy timeout, and write transactions take the
// lock at BEGIN so concurrent check-then-write sequences serialise.
func DSN(path string) string {
	return fmt.Sprintf(
		"file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_txlock=immediate",
		path,
	)
}

func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{
		db:  db,
		q:   gen.New(db),
		dsn: dsn,
	}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Tx starts a write transaction and returns a Tx-scoped Store.
func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return newTx(tx), nil
}

// WithTx executes fn within a transaction, automatically handling commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback() // no-op after commit
	}()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) Identities() store.Identities       { return &identitiesRepo{q: s.q} }
func (s *Store) Attempts() store.Attempts           { return &attemptsRepo{q: s.q} }
func (s *Store) Invitations() store.Invitations     { return &invitationsRepo{q: s.q} }
func (s *Store) Sessions() store.Sessions           { return &sessionsRepo{q: s.q} }
func (s *Store) AuditEntries() store.AuditEntries   { return &auditEntriesRepo{q: s.q} }
func (s *Store) RecoveryCodes() store.RecoveryCodes { return &recoveryCodesRepo{q: s.q} }

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// mapWriteErr turns unique and primary key violations into ErrAlreadyExists.
func mapWriteErr(err error) error {
	var serr *msqlite.Error
	if errors.As(err, &serr) {
		switch serr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %v", store.ErrAlreadyExists, err)
		case sqlite3.SQLITE_CONSTRAINT:
			if strings.Contains(serr.Error(), "UNIQUE constraint failed") {
				return fmt.Errorf("%w: %v", store.ErrAlreadyExists, err)
			}
		}
	}
	return err
}

// rowsOr maps zero affected rows to want.
func rowsOr(n int64, err error, want error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return want
	}
	return nil
}

func toMillis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

func mapNullMillisPtr(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := fromMillis(n.Int64)
	return &t
}

func mapNullStringPtr(ns sql.NullString) *string {
	if ns.Valid {
		val := ns.String
		return &val
	}
	return nil
}

func mapOptionalString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: *s, Valid: true}
}

func mapIdentity(row gen.Identity) (domain.Identity, error) {
	role, err := domain.ParseRole(row.Role)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("identity %s: %w", row.ID, err)
	}

	return domain.Identity{
		ID:                row.ID,
		Email:             row.Email,
		PasswordHash:      row.PasswordHash,
		Role:              role,
		FirstName:         row.FirstName,
		LastName:          row.LastName,
		TOTPSecret:        row.TotpSecret.String,
		TOTPEnabled:       row.TotpEnabled,
		TOTPLastStep:      row.TotpLastStep,
		AlumniValidated:   row.AlumniValidated,
		AlumniRequestedAt: mapNullMillisPtr(row.AlumniRequestedAt),
		CreatedAt:         fromMillis(row.CreatedAt),
		UpdatedAt:         fromMillis(row.UpdatedAt),
	}, nil
}

func mapAttempt(row gen.Attempt) (domain.AttemptRecord, error) {
	outcome, err := domain.ParseAttemptOutcome(row.Outcome)
	if err != nil {
		return domain.AttemptRecord{}, err
	}
	return domain.AttemptRecord{
		ID:         row.ID,
		IP:         row.Ip,
		Identifier: row.Identifier,
		Outcome:    outcome,
		Descriptor: row.Descriptor,
		CreatedAt:  fromMillis(row.CreatedAt),
	}, nil
}

func mapInvitation(row gen.Invitation) (domain.Invitation, error) {
	role, err := domain.ParseRole(row.Role)
	if err != nil {
		return domain.Invitation{}, fmt.Errorf("invitation %s: %w", row.ID, err)
	}
	return domain.Invitation{
		ID:         row.ID,
		Email:      row.Email,
		TokenHash:  row.TokenHash,
		Role:       role,
		CreatedBy:  row.CreatedBy,
		CreatedAt:  fromMillis(row.CreatedAt),
		ExpiresAt:  fromMillis(row.ExpiresAt),
		AcceptedAt: mapNullMillisPtr(row.AcceptedAt),
		AcceptedBy: mapNullStringPtr(row.AcceptedBy),
	}, nil
}

func mapSession(row gen.Session) domain.Session {
	return domain.Session{
		ID:             row.ID,
		IdentityID:     row.IdentityID,
		CSRFHash:       row.CsrfHash,
		IP:             row.Ip,
		UserAgent:      row.UserAgent,
		CreatedAt:      fromMillis(row.CreatedAt),
		LastActivityAt: fromMillis(row.LastActivityAt),
	}
}

func mapAuditEntry(row gen.AuditEntry) domain.AuditEntry {
	return domain.AuditEntry{
		ID:         row.ID,
		ActorID:    mapNullStringPtr(row.ActorID),
		Action:     domain.AuditAction(row.Action),
		TargetType: row.TargetType,
		TargetID:   row.TargetID,
		Detail:     row.Detail,
		IP:         row.Ip,
		CreatedAt:  fromMillis(row.CreatedAt),
	}
}
