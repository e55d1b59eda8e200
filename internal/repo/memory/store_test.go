package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Murlii-Manohar/StyleTextSwapp/internal/domain"
	"github.com/Murlii-Manohar/StyleTextSwapp/internal/repo"
	"github.com/Murlii-Manohar/StyleTextSwapp/internal/repo/storetest"
)

func TestStoreConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) repo.Store { return New() })
}

func TestStore_IDsStartAtOne(t *testing.T) {
	s := New()
	ctx := context.Background()

	a, err := s.CreateAccount(ctx, domain.AccountDraft{Username: "alice", PasswordHash: "h"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.ID)

	g, err := s.CreateGuestUsage(ctx, domain.GuestUsageDraft{GuestID: "g", MaxUsage: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), g.ID)

	tr, err := s.CreateTransformation(ctx, domain.TransformationDraft{
		AccountID: &a.ID, OriginalText: "a", TransformedText: "b", FromStyle: "default", ToStyle: "c",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), tr.ID)
}

func TestStore_UsesClockInUTC(t *testing.T) {
	s := New()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	s.now = func() time.Time { return fixed }

	g, err := s.CreateGuestUsage(context.Background(), domain.GuestUsageDraft{GuestID: "g", MaxUsage: 1})
	require.NoError(t, err)
	assert.True(t, g.CreatedAt.Equal(fixed))
	assert.Equal(t, time.UTC, g.CreatedAt.Location())
}

func TestStore_TransformationForUnknownAccount(t *testing.T) {
	s := New()
	id := int64(42)
	_, err := s.CreateTransformation(context.Background(), domain.TransformationDraft{
		AccountID: &id, OriginalText: "a", TransformedText: "b", FromStyle: "default", ToStyle: "c",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// IncrementGuestUsage does not enforce the cap; the ledger does.
func TestStore_IncrementIgnoresCap(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, err := s.CreateGuestUsage(ctx, domain.GuestUsageDraft{GuestID: "g", MaxUsage: 1})
	require.NoError(t, err)

	_, err = s.IncrementGuestUsage(ctx, "g")
	require.NoError(t, err)
	g, err := s.IncrementGuestUsage(ctx, "g")
	require.NoError(t, err)
	assert.Equal(t, 2, g.UsageCount)
	assert.Equal(t, -1, g.Remaining())
}
