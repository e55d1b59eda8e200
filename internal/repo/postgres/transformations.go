package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Murlii-Manohar/StyleTextSwapp/internal/domain"
)

const transformationCols = `id, account_id, guest_id, original_text, transformed_text, from_style, to_style, created_at`

func scanTransformation(row rowScanner) (*domain.Transformation, error) {
	var (
		t         domain.Transformation
		accountID sql.NullInt64
		guestID   sql.NullString
	)
	err := row.Scan(&t.ID, &accountID, &guestID, &t.OriginalText, &t.TransformedText, &t.FromStyle, &t.ToStyle, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	t.AccountID = int64Ptr(accountID)
	t.GuestID = stringPtr(guestID)
	return &t, nil
}

func (s *Store) CreateTransformation(ctx context.Context, d domain.TransformationDraft) (*domain.Transformation, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	const q = `
		INSERT INTO transformations (account_id, guest_id, original_text, transformed_text, from_style, to_style)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + transformationCols

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	t, err := scanTransformation(s.db.QueryRowContext(ctx, q,
		nullInt64(d.AccountID), nullString(d.GuestID), d.OriginalText, d.TransformedText, d.FromStyle, d.ToStyle,
	))
	if pgCode(err) == codeForeignKeyViolation {
		return nil, fmt.Errorf("account %d: %w", *d.AccountID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, dbError("insert transformation", err)
	}
	return t, nil
}

func (s *Store) ListTransformationsByAccount(ctx context.Context, accountID int64) ([]domain.Transformation, error) {
	const q = `SELECT ` + transformationCols + ` FROM transformations WHERE account_id = $1 ORDER BY id`
	return s.listTransformations(ctx, q, accountID)
}

func (s *Store) ListTransformationsByGuest(ctx context.Context, guestID string) ([]domain.Transformation, error) {
	const q = `SELECT ` + transformationCols + ` FROM transformations WHERE guest_id = $1 ORDER BY id`
	return s.listTransformations(ctx, q, guestID)
}

func (s *Store) listTransformations(ctx context.Context, q string, arg any) ([]domain.Transformation, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, dbError("list transformations", err)
	}
	defer rows.Close()

	out := make([]domain.Transformation, 0)
	for rows.Next() {
		t, err := scanTransformation(rows)
		if err != nil {
			return nil, dbError("scan transformation", err)
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("list transformations", err)
	}
	return out, nil
}
