// Package memory is the process-local Store backend. All state sits behind
// one lock; entities leave the store only as copies. A failed insert still
// consumes an id, the way a database sequence does, so both backends hand
// out the same ids for the same sequence of calls.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Murlii-Manohar/StyleTextSwapp/internal/domain"
	"github.com/Murlii-Manohar/StyleTextSwapp/internal/repo"
)

var _ repo.Store = (*Store)(nil)

type Store struct {
	mu    sync.RWMutex
	now   func() time.Time
	epoch string

	accounts       map[int64]*domain.Account
	usernames      map[string]int64
	accountByGuest map[string]int64

	transformations []domain.Transformation

	usage map[string]*domain.GuestUsage

	nextAccountID        int64
	nextTransformationID int64
	nextUsageID          int64
}

func New() *Store {
	return &Store{
		now:                  time.Now,
		epoch:                uuid.NewString(),
		accounts:             make(map[int64]*domain.Account),
		usernames:            make(map[string]int64),
		accountByGuest:       make(map[string]int64),
		usage:                make(map[string]*domain.GuestUsage),
		nextAccountID:        1,
		nextTransformationID: 1,
		nextUsageID:          1,
	}
}

func (s *Store) GetAccount(_ context.Context, id int64) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account %d: %w", id, domain.ErrNotFound)
	}
	return cloneAccount(a), nil
}

func (s *Store) GetAccountByUsername(_ context.Context, username string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usernames[username]
	if !ok {
		return nil, fmt.Errorf("account %q: %w", username, domain.ErrNotFound)
	}
	return cloneAccount(s.accounts[id]), nil
}

func (s *Store) GetAccountByGuestID(_ context.Context, guestID string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.accountByGuest[guestID]
	if !ok {
		return nil, fmt.Errorf("guest account %q: %w", guestID, domain.ErrNotFound)
	}
	return cloneAccount(s.accounts[id]), nil
}

func (s *Store) CreateAccount(_ context.Context, d domain.AccountDraft) (*domain.Account, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.insertAccountLocked(d)
	if err != nil {
		return nil, err
	}
	return cloneAccount(a), nil
}

func (s *Store) insertAccountLocked(d domain.AccountDraft) (*domain.Account, error) {
	if _, exists := s.usernames[d.Username]; exists {
		s.nextAccountID++
		return nil, fmt.Errorf("account %q: %w", d.Username, domain.ErrDuplicateUsername)
	}

	a := &domain.Account{
		ID:           s.nextAccountID,
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		GuestID:      cloneString(d.GuestID),
		IsGuest:      d.IsGuest,
		CreatedAt:    s.now().UTC(),
	}
	s.nextAccountID++

	s.accounts[a.ID] = a
	s.usernames[a.Username] = a.ID
	// The oldest guest account owns the guest id.
	if a.IsGuest && a.GuestID != nil {
		if _, taken := s.accountByGuest[*a.GuestID]; !taken {
			s.accountByGuest[*a.GuestID] = a.ID
		}
	}
	return a, nil
}

func (s *Store) CreateTransformation(_ context.Context, d domain.TransformationDraft) (*domain.Transformation, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if d.AccountID != nil {
		if _, ok := s.accounts[*d.AccountID]; !ok {
			s.nextTransformationID++
			return nil, fmt.Errorf("account %d: %w", *d.AccountID, domain.ErrNotFound)
		}
	}

	t := domain.Transformation{
		ID:              s.nextTransformationID,
		AccountID:       cloneInt64(d.AccountID),
		GuestID:         cloneString(d.GuestID),
		OriginalText:    d.OriginalText,
		TransformedText: d.TransformedText,
		FromStyle:       d.FromStyle,
		ToStyle:         d.ToStyle,
		CreatedAt:       s.now().UTC(),
	}
	s.nextTransformationID++
	s.transformations = append(s.transformations, t)

	return cloneTransformation(&t), nil
}

func (s *Store) ListTransformationsByAccount(_ context.Context, accountID int64) ([]domain.Transformation, error) {
	return s.listTransformations(func(t *domain.Transformation) bool {
		return t.AccountID != nil && *t.AccountID == accountID
	}), nil
}

func (s *Store) ListTransformationsByGuest(_ context.Context, guestID string) ([]domain.Transformation, error) {
	return s.listTransformations(func(t *domain.Transformation) bool {
		return t.GuestID != nil && *t.GuestID == guestID
	}), nil
}

func (s *Store) listTransformations(match func(*domain.Transformation) bool) []domain.Transformation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Transformation, 0)
	for i := range s.transformations {
		if match(&s.transformations[i]) {
			out = append(out, *cloneTransformation(&s.transformations[i]))
		}
	}
	return out
}

func (s *Store) GetGuestUsage(_ context.Context, guestID string) (*domain.GuestUsage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.usage[guestID]
	if !ok {
		return nil, fmt.Errorf("guest usage %q: %w", guestID, domain.ErrNotFound)
	}
	cp := *g
	return &cp, nil
}

func (s *Store) CreateGuestUsage(_ context.Context, d domain.GuestUsageDraft) (*domain.GuestUsage, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.insertUsageLocked(d)
	if err != nil {
		return nil, err
	}
	cp := *g
	return &cp, nil
}

func (s *Store) insertUsageLocked(d domain.GuestUsageDraft) (*domain.GuestUsage, error) {
	if _, exists := s.usage[d.GuestID]; exists {
		s.nextUsageID++
		return nil, fmt.Errorf("guest usage %q: %w", d.GuestID, domain.ErrDuplicateGuestID)
	}

	g := &domain.GuestUsage{
		ID:         s.nextUsageID,
		GuestID:    d.GuestID,
		UsageCount: 0,
		MaxUsage:   d.MaxUsage,
		CreatedAt:  s.now().UTC(),
	}
	s.nextUsageID++
	s.usage[g.GuestID] = g
	return g, nil
}

func (s *Store) IncrementGuestUsage(_ context.Context, guestID string) (*domain.GuestUsage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.usage[guestID]
	if !ok {
		return nil, fmt.Errorf("guest usage %q: %w", guestID, domain.ErrNotFound)
	}
	g.UsageCount++
	cp := *g
	return &cp, nil
}

func (s *Store) IncrementGuestUsageWithin(_ context.Context, guestID string) (*domain.GuestUsage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.usage[guestID]
	if !ok {
		return nil, fmt.Errorf("guest usage %q: %w", guestID, domain.ErrNotFound)
	}
	if g.Exhausted() {
		return nil, fmt.Errorf("guest usage %q: %w", guestID, domain.ErrQuotaExceeded)
	}
	g.UsageCount++
	cp := *g
	return &cp, nil
}

func (s *Store) CreateGuest(_ context.Context, usage domain.GuestUsageDraft, account domain.AccountDraft) (*domain.GuestUsage, *domain.Account, error) {
	if err := usage.Validate(); err != nil {
		return nil, nil, err
	}
	if err := account.Validate(); err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Check both constraints before writing so a failure leaves nothing behind.
	// The usage row is inserted first, so a username clash burns both ids.
	if _, exists := s.usage[usage.GuestID]; exists {
		s.nextUsageID++
		return nil, nil, fmt.Errorf("guest usage %q: %w", usage.GuestID, domain.ErrDuplicateGuestID)
	}
	if _, exists := s.usernames[account.Username]; exists {
		s.nextUsageID++
		s.nextAccountID++
		return nil, nil, fmt.Errorf("account %q: %w", account.Username, domain.ErrDuplicateUsername)
	}

	g, err := s.insertUsageLocked(usage)
	if err != nil {
		return nil, nil, err
	}
	a, err := s.insertAccountLocked(account)
	if err != nil {
		return nil, nil, err
	}

	gc := *g
	return &gc, cloneAccount(a), nil
}

// Epoch is fresh for every store, since ids restart at 1 with the process.
func (s *Store) Epoch() string { return s.epoch }

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func cloneAccount(a *domain.Account) *domain.Account {
	cp := *a
	cp.GuestID = cloneString(a.GuestID)
	return &cp
}

func cloneTransformation(t *domain.Transformation) *domain.Transformation {
	cp := *t
	cp.AccountID = cloneInt64(t.AccountID)
	cp.GuestID = cloneString(t.GuestID)
	return &cp
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
