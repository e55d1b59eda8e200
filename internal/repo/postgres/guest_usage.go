package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Murlii-Manohar/StyleTextSwapp/internal/dbx"
	"github.com/Murlii-Manohar/StyleTextSwapp/internal/domain"
)

const guestUsageCols = `id, guest_id, usage_count, max_usage, created_at`

func scanGuestUsage(row rowScanner) (*domain.GuestUsage, error) {
	var g domain.GuestUsage
	if err := row.Scan(&g.ID, &g.GuestID, &g.UsageCount, &g.MaxUsage, &g.CreatedAt); err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Store) GetGuestUsage(ctx context.Context, guestID string) (*domain.GuestUsage, error) {
	const q = `SELECT ` + guestUsageCols + ` FROM guest_usage WHERE guest_id = $1`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	g, err := scanGuestUsage(s.db.QueryRowContext(ctx, q, guestID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("guest usage %q: %w", guestID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, dbError("get guest usage", err)
	}
	return g, nil
}

func (s *Store) CreateGuestUsage(ctx context.Context, d domain.GuestUsageDraft) (*domain.GuestUsage, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return insertGuestUsage(ctx, s.db, d)
}

func insertGuestUsage(ctx context.Context, db dbx.DBTX, d domain.GuestUsageDraft) (*domain.GuestUsage, error) {
	const q = `
		INSERT INTO guest_usage (guest_id, usage_count, max_usage)
		VALUES ($1, 0, $2)
		RETURNING ` + guestUsageCols

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	g, err := scanGuestUsage(db.QueryRowContext(ctx, q, d.GuestID, d.MaxUsage))
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("guest usage %q: %w", d.GuestID, domain.ErrDuplicateGuestID)
	}
	if err != nil {
		return nil, dbError("insert guest usage", err)
	}
	return g, nil
}

func (s *Store) IncrementGuestUsage(ctx context.Context, guestID string) (*domain.GuestUsage, error) {
	const q = `
		UPDATE guest_usage
		SET usage_count = usage_count + 1
		WHERE guest_id = $1
		RETURNING ` + guestUsageCols

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	g, err := scanGuestUsage(s.db.QueryRowContext(ctx, q, guestID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("guest usage %q: %w", guestID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, dbError("increment guest usage", err)
	}
	return g, nil
}

// IncrementGuestUsageWithin relies on the row lock taken by UPDATE: concurrent
// callers re-evaluate usage_count < max_usage after the first one commits.
func (s *Store) IncrementGuestUsageWithin(ctx context.Context, guestID string) (*domain.GuestUsage, error) {
	const q = `
		UPDATE guest_usage
		SET usage_count = usage_count + 1
		WHERE guest_id = $1 AND usage_count < max_usage
		RETURNING ` + guestUsageCols

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	g, err := scanGuestUsage(s.db.QueryRowContext(ctx, q, guestID))
	if err == nil {
		return g, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, dbError("increment guest usage", err)
	}

	// No row updated: either the guest is unknown or the cap is reached.
	if _, err := s.GetGuestUsage(ctx, guestID); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("guest usage %q: %w", guestID, domain.ErrQuotaExceeded)
}
