package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Murlii-Manohar/StyleTextSwapp/internal/dbx"
	"github.com/Murlii-Manohar/StyleTextSwapp/internal/domain"
)

const accountCols = `id, username, password, guest_id, is_guest, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var (
		a       domain.Account
		guestID sql.NullString
	)
	if err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &guestID, &a.IsGuest, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.GuestID = stringPtr(guestID)
	return &a, nil
}

func (s *Store) GetAccount(ctx context.Context, id int64) (*domain.Account, error) {
	const q = `SELECT ` + accountCols + ` FROM accounts WHERE id = $1`
	return getAccount(ctx, s.db, fmt.Sprintf("account %d", id), q, id)
}

func (s *Store) GetAccountByUsername(ctx context.Context, username string) (*domain.Account, error) {
	const q = `SELECT ` + accountCols + ` FROM accounts WHERE username = $1`
	return getAccount(ctx, s.db, fmt.Sprintf("account %q", username), q, username)
}

func (s *Store) GetAccountByGuestID(ctx context.Context, guestID string) (*domain.Account, error) {
	const q = `SELECT ` + accountCols + ` FROM accounts WHERE guest_id = $1 AND is_guest ORDER BY id LIMIT 1`
	return getAccount(ctx, s.db, fmt.Sprintf("guest account %q", guestID), q, guestID)
}

func getAccount(ctx context.Context, db dbx.DBTX, what, q string, arg any) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	a, err := scanAccount(db.QueryRowContext(ctx, q, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	if err != nil {
		return nil, dbError("get "+what, err)
	}
	return a, nil
}

func (s *Store) CreateAccount(ctx context.Context, d domain.AccountDraft) (*domain.Account, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return insertAccount(ctx, s.db, d)
}

func insertAccount(ctx context.Context, db dbx.DBTX, d domain.AccountDraft) (*domain.Account, error) {
	const q = `
		INSERT INTO accounts (username, password, guest_id, is_guest)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + accountCols

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	a, err := scanAccount(db.QueryRowContext(ctx, q, d.Username, d.PasswordHash, nullString(d.GuestID), d.IsGuest))
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("account %q: %w", d.Username, domain.ErrDuplicateUsername)
	}
	if err != nil {
		return nil, dbError("insert account", err)
	}
	return a, nil
}
