package service

import (
	"context"

	"github.com/Murlii-Manohar/StyleTextSwapp/internal/domain"
	"github.com/Murlii-Manohar/StyleTextSwapp/internal/repo"
)

// UsageLedger enforces the guest quota.
type UsageLedger interface {
	// CheckAndReserve returns the current record when another use is allowed,
	// a *domain.QuotaError when the cap is reached and domain.ErrNotFound when
	// the guest has no record.
	CheckAndReserve(ctx context.Context, guestID string) (*domain.GuestUsage, error)
	// Increment adds exactly one use.
	Increment(ctx context.Context, guestID string) (*domain.GuestUsage, error)
	// Consume adds one use only if the cap has not been reached, atomically.
	Consume(ctx context.Context, guestID string) (*domain.GuestUsage, error)
	// Lock holds the guest's ledger for the duration of a check-rewrite-consume cycle.
	Lock(ctx context.Context, guestID string) (unlock func(), err error)
}

type usageLedger struct {
	store repo.GuestUsageStore
	locks *keyLock
}

func NewUsageLedger(store repo.GuestUsageStore) UsageLedger {
	return &usageLedger{store: store, locks: newKeyLock()}
}

func (l *usageLedger) CheckAndReserve(ctx context.Context, guestID string) (*domain.GuestUsage, error) {
	g, err := l.store.GetGuestUsage(ctx, guestID)
	if err != nil {
		return nil, err
	}
	if g.Exhausted() {
		return nil, &domain.QuotaError{GuestID: guestID, Usage: g.View()}
	}
	return g, nil
}

func (l *usageLedger) Increment(ctx context.Context, guestID string) (*domain.GuestUsage, error) {
	return l.store.IncrementGuestUsage(ctx, guestID)
}

func (l *usageLedger) Consume(ctx context.Context, guestID string) (*domain.GuestUsage, error) {
	return l.store.IncrementGuestUsageWithin(ctx, guestID)
}

func (l *usageLedger) Lock(ctx context.Context, guestID string) (func(), error) {
	return l.locks.Lock(ctx, guestID)
}
