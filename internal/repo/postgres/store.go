// Package postgres is the PostgreSQL Store backend. Queries go through
// dbx.DBTX so the same code runs on the pool or inside a transaction.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Murlii-Manohar/StyleTextSwapp/internal/dbx"
	"github.com/Murlii-Manohar/StyleTextSwapp/internal/domain"
	"github.com/Murlii-Manohar/StyleTextSwapp/internal/repo"
)

var _ repo.Store = (*Store)(nil)

const queryTimeout = 3 * time.Second

// Postgres error codes the store translates.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Epoch is empty: rows and their ids outlive the process.
func (s *Store) Epoch() string { return "" }

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateGuest(ctx context.Context, usage domain.GuestUsageDraft, account domain.AccountDraft) (*domain.GuestUsage, *domain.Account, error) {
	if err := usage.Validate(); err != nil {
		return nil, nil, err
	}
	if err := account.Validate(); err != nil {
		return nil, nil, err
	}

	var (
		g *domain.GuestUsage
		a *domain.Account
	)
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		if g, err = insertGuestUsage(ctx, tx, usage); err != nil {
			return err
		}
		a, err = insertAccount(ctx, tx, account)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return g, a, nil
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pgCode(err) == codeUniqueViolation
}

func dbError(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func int64Ptr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	v := ni.Int64
	return &v
}
