package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Murlii-Manohar/StyleTextSwapp/internal/domain"
	"github.com/Murlii-Manohar/StyleTextSwapp/internal/repo"
	"github.com/Murlii-Manohar/StyleTextSwapp/internal/rewriter"
	"github.com/Murlii-Manohar/StyleTextSwapp/pkg/events"
	"github.com/Murlii-Manohar/StyleTextSwapp/pkg/logger"
	"github.com/Murlii-Manohar/StyleTextSwapp/pkg/metrics"
)

// Caller is who a request acts for. An account wins over a guest id when both are set.
type Caller struct {
	AccountID int64
	GuestID   string
}

func (c Caller) Authenticated() bool {
	return c.AccountID > 0
}

type TransformService interface {
	Transform(ctx context.Context, caller Caller, req *domain.TransformRequest) (*domain.TransformResult, error)
	History(ctx context.Context, caller Caller) ([]domain.Transformation, error)
}

type transformService struct {
	store    repo.Store
	ledger   UsageLedger
	rewriter rewriter.Rewriter
	eventBus events.Publisher
}

func NewTransformService(store repo.Store, ledger UsageLedger, rw rewriter.Rewriter, eventBus events.Publisher) TransformService {
	return &transformService{
		store:    store,
		ledger:   ledger,
		rewriter: rw,
		eventBus: eventBus,
	}
}

func (s *transformService) Transform(ctx context.Context, caller Caller, req *domain.TransformRequest) (*domain.TransformResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	switch {
	case caller.Authenticated():
		return s.transformForAccount(ctx, caller.AccountID, req)
	case caller.GuestID != "":
		return s.transformForGuest(ctx, caller.GuestID, req)
	default:
		return nil, domain.ErrUnauthenticated
	}
}

func (s *transformService) transformForAccount(ctx context.Context, accountID int64, req *domain.TransformRequest) (*domain.TransformResult, error) {
	text, err := s.rewrite(ctx, req)
	if err != nil {
		return nil, err
	}

	rec, err := s.store.CreateTransformation(ctx, draftFor(req, text, &accountID, nil))
	if err != nil {
		return nil, fmt.Errorf("save transformation: %w", err)
	}

	s.completed(ctx, rec, "account")
	return &domain.TransformResult{TransformedText: text}, nil
}

// transformForGuest holds the guest's ledger lock from the quota check
// through the increment, so concurrent requests from one guest serialize.
func (s *transformService) transformForGuest(ctx context.Context, guestID string, req *domain.TransformRequest) (*domain.TransformResult, error) {
	unlock, err := s.ledger.Lock(ctx, guestID)
	if err != nil {
		return nil, fmt.Errorf("lock guest usage: %w", err)
	}
	defer unlock()

	before, err := s.ledger.CheckAndReserve(ctx, guestID)
	if err != nil {
		if errors.Is(err, domain.ErrQuotaExceeded) {
			metrics.RecordQuotaDenied()
			logger.InfoContext(ctx, "Guest quota exhausted", "guest_id", guestID)
		}
		return nil, err
	}

	// The lock stays held across the rewrite, up to the rewriter timeout, so a
	// second request from this guest cannot pass the check while this one is in flight.
	text, err := s.rewrite(ctx, req)
	if err != nil {
		return nil, err
	}

	rec, err := s.store.CreateTransformation(ctx, draftFor(req, text, nil, &guestID))
	if err != nil {
		return nil, fmt.Errorf("save transformation: %w", err)
	}

	// The transformation is saved; from here on the caller gets the text even
	// if the counter cannot be advanced.
	after, err := s.ledger.Consume(ctx, guestID)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to record guest usage", "error", err, "guest_id", guestID, "transformation_id", rec.ID)
		if after, err = s.store.GetGuestUsage(ctx, guestID); err != nil {
			after = before
		}
	}

	s.completed(ctx, rec, "guest")
	return &domain.TransformResult{TransformedText: text, GuestUsage: usageView(after)}, nil
}

func (s *transformService) rewrite(ctx context.Context, req *domain.TransformRequest) (string, error) {
	text, err := s.rewriter.Rewrite(ctx, rewriter.Request{
		OriginalText:           req.OriginalText,
		FromStyle:              req.FromStyle,
		ToStyle:                req.ToStyle,
		PreservationPercentage: req.Preservation(),
	})
	if err != nil {
		logger.ErrorContext(ctx, "Rewrite failed", "error", err, "provider", s.rewriter.Name())
		return "", fmt.Errorf("%w: %w", domain.ErrRewriteFailed, err)
	}
	return text, nil
}

func (s *transformService) completed(ctx context.Context, rec *domain.Transformation, caller string) {
	metrics.RecordTransformation(caller)

	err := s.eventBus.Publish(ctx, events.TransformationCreated, events.TransformationCreatedEvent{
		TransformationID: rec.ID,
		AccountID:        rec.AccountID,
		GuestID:          rec.GuestID,
		FromStyle:        rec.FromStyle,
		ToStyle:          rec.ToStyle,
		Provider:         s.rewriter.Name(),
		CreatedAt:        time.Now().UTC(),
	})
	if err != nil {
		logger.WarnContext(ctx, "Failed to publish transformation event", "error", err, "transformation_id", rec.ID)
	}
}

func (s *transformService) History(ctx context.Context, caller Caller) ([]domain.Transformation, error) {
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	return s.store.ListTransformationsByAccount(ctx, caller.AccountID)
}

func draftFor(req *domain.TransformRequest, text string, accountID *int64, guestID *string) domain.TransformationDraft {
	return domain.TransformationDraft{
		AccountID:       accountID,
		GuestID:         guestID,
		OriginalText:    req.OriginalText,
		TransformedText: text,
		FromStyle:       req.StoredFromStyle(),
		ToStyle:         req.ToStyle,
	}
}

func usageView(g *domain.GuestUsage) *domain.UsageView {
	if g == nil {
		return nil
	}
	v := g.View()
	return &v
}
