// Package repo defines the storage contract shared by the in-memory and
// PostgreSQL backends. Both return copies and report lookup misses and
// uniqueness violations with the sentinel errors from package domain.
package repo

import (
	"context"

	"github.com/Murlii-Manohar/StyleTextSwapp/internal/domain"
)

type AccountStore interface {
	GetAccount(ctx context.Context, id int64) (*domain.Account, error)
	GetAccountByUsername(ctx context.Context, username string) (*domain.Account, error)
	GetAccountByGuestID(ctx context.Context, guestID string) (*domain.Account, error)
	CreateAccount(ctx context.Context, d domain.AccountDraft) (*domain.Account, error)
}

type TransformationStore interface {
	CreateTransformation(ctx context.Context, d domain.TransformationDraft) (*domain.Transformation, error)
	ListTransformationsByAccount(ctx context.Context, accountID int64) ([]domain.Transformation, error)
	ListTransformationsByGuest(ctx context.Context, guestID string) ([]domain.Transformation, error)
}

type GuestUsageStore interface {
	GetGuestUsage(ctx context.Context, guestID string) (*domain.GuestUsage, error)
	CreateGuestUsage(ctx context.Context, d domain.GuestUsageDraft) (*domain.GuestUsage, error)
	// IncrementGuestUsage adds exactly one use regardless of the cap.
	IncrementGuestUsage(ctx context.Context, guestID string) (*domain.GuestUsage, error)
	// IncrementGuestUsageWithin adds one use only while usage_count < max_usage,
	// returning domain.ErrQuotaExceeded otherwise. The check and the write are atomic.
	IncrementGuestUsageWithin(ctx context.Context, guestID string) (*domain.GuestUsage, error)
}

type Store interface {
	AccountStore
	TransformationStore
	GuestUsageStore

	// CreateGuest creates a guest usage record and its synthetic account
	// together; if either insert fails neither is kept.
	CreateGuest(ctx context.Context, usage domain.GuestUsageDraft, account domain.AccountDraft) (*domain.GuestUsage, *domain.Account, error)

	// Epoch identifies the lifetime of the stored data. It changes whenever
	// ids may be reused for different entities; durable stores return "".
	Epoch() string

	Ping(ctx context.Context) error
	Close() error
}
