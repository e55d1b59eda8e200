package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Murlii-Manohar/StyleTextSwapp/internal/domain"
	"github.com/Murlii-Manohar/StyleTextSwapp/internal/repo"
	"github.com/Murlii-Manohar/StyleTextSwapp/pkg/auth"
	"github.com/Murlii-Manohar/StyleTextSwapp/pkg/events"
	"github.com/Murlii-Manohar/StyleTextSwapp/pkg/logger"
	"github.com/Murlii-Manohar/StyleTextSwapp/pkg/metrics"
)

const mintAttempts = 3

type IdentityService interface {
	// ResolveGuest returns the caller's guest identity, minting a new one when
	// existingGuestID is empty or has no usage record.
	ResolveGuest(ctx context.Context, existingGuestID string) (*domain.GuestView, error)
	GuestUsage(ctx context.Context, guestID string) (*domain.GuestView, error)
}

type identityService struct {
	store    repo.Store
	eventBus events.Publisher
	maxUsage int

	newID        func() string
	hashPassword func(string) (string, error)
}

func NewIdentityService(store repo.Store, eventBus events.Publisher, maxUsage int) IdentityService {
	if maxUsage <= 0 {
		maxUsage = domain.DefaultGuestMaxUsage
	}
	return &identityService{
		store:        store,
		eventBus:     eventBus,
		maxUsage:     maxUsage,
		newID:        uuid.NewString,
		hashPassword: auth.HashPassword,
	}
}

func (s *identityService) ResolveGuest(ctx context.Context, existingGuestID string) (*domain.GuestView, error) {
	if existingGuestID != "" {
		g, err := s.store.GetGuestUsage(ctx, existingGuestID)
		if err == nil {
			return g.GuestView(), nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("lookup guest: %w", err)
		}
		logger.WarnContext(ctx, "Guest id has no usage record, minting a new one", "stale_guest_id", existingGuestID)
	}

	return s.mint(ctx)
}

func (s *identityService) mint(ctx context.Context) (*domain.GuestView, error) {
	// The synthetic account never logs in; its password is random and discarded.
	hash, err := s.hashPassword(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("hash guest password: %w", err)
	}

	for attempt := 1; ; attempt++ {
		guestID := s.newID()
		g, _, err := s.store.CreateGuest(ctx,
			domain.GuestUsageDraft{GuestID: guestID, MaxUsage: s.maxUsage},
			domain.AccountDraft{
				Username:     domain.GuestUsername(guestID),
				PasswordHash: hash,
				GuestID:      &guestID,
				IsGuest:      true,
			},
		)
		if err == nil {
			s.guestCreated(ctx, g)
			return g.GuestView(), nil
		}
		collision := errors.Is(err, domain.ErrDuplicateGuestID) || errors.Is(err, domain.ErrDuplicateUsername)
		if !collision || attempt >= mintAttempts {
			return nil, fmt.Errorf("create guest: %w", err)
		}
		logger.WarnContext(ctx, "Guest id collision, retrying", "guest_id", guestID, "attempt", attempt)
	}
}

func (s *identityService) guestCreated(ctx context.Context, g *domain.GuestUsage) {
	metrics.RecordGuestCreated()
	logger.InfoContext(ctx, "Guest created", "guest_id", g.GuestID, "max_usage", g.MaxUsage)

	err := s.eventBus.Publish(ctx, events.GuestCreated, events.GuestCreatedEvent{
		GuestID:   g.GuestID,
		MaxUsage:  g.MaxUsage,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		logger.WarnContext(ctx, "Failed to publish guest created event", "error", err, "guest_id", g.GuestID)
	}
}

func (s *identityService) GuestUsage(ctx context.Context, guestID string) (*domain.GuestView, error) {
	g, err := s.store.GetGuestUsage(ctx, guestID)
	if err != nil {
		return nil, err
	}
	return g.GuestView(), nil
}
