// Package storetest is a conformance suite run against every repo.Store
// backend so that they stay behaviorally identical.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Murlii-Manohar/StyleTextSwapp/internal/domain"
	"github.com/Murlii-Manohar/StyleTextSwapp/internal/repo"
)

// Factory returns an empty store. Cleanup is the factory's responsibility.
type Factory func(t *testing.T) repo.Store

func Run(t *testing.T, newStore Factory) {
	t.Run("Accounts", func(t *testing.T) { testAccounts(t, newStore(t)) })
	t.Run("ReturnsCopies", func(t *testing.T) { testReturnsCopies(t, newStore(t)) })
	t.Run("GuestUsage", func(t *testing.T) { testGuestUsage(t, newStore(t)) })
	t.Run("IncrementWithinCap", func(t *testing.T) { testIncrementWithin(t, newStore(t)) })
	t.Run("ConcurrentIncrementWithinCap", func(t *testing.T) { testConcurrentIncrementWithin(t, newStore(t)) })
	t.Run("CreateGuest", func(t *testing.T) { testCreateGuest(t, newStore(t)) })
	t.Run("Transformations", func(t *testing.T) { testTransformations(t, newStore(t)) })
	t.Run("ScriptedSequence", func(t *testing.T) { testScriptedSequence(t, newStore(t)) })
	t.Run("FailedInsertsConsumeIDs", func(t *testing.T) { testFailedInsertsConsumeIDs(t, newStore(t)) })
	t.Run("OldestGuestAccountWins", func(t *testing.T) { testOldestGuestAccountWins(t, newStore(t)) })
}

func strPtr(s string) *string { return &s }

func guestAccount(guestID string) domain.AccountDraft {
	return domain.AccountDraft{
		Username:     domain.GuestUsername(guestID),
		PasswordHash: "hash",
		GuestID:      strPtr(guestID),
		IsGuest:      true,
	}
}

func testAccounts(t *testing.T, s repo.Store) {
	ctx := context.Background()

	alice, err := s.CreateAccount(ctx, domain.AccountDraft{Username: "alice", PasswordHash: "h1"})
	require.NoError(t, err)
	assert.Positive(t, alice.ID)
	assert.Equal(t, "alice", alice.Username)
	assert.False(t, alice.IsGuest)
	assert.Nil(t, alice.GuestID)

	bob, err := s.CreateAccount(ctx, domain.AccountDraft{Username: "bob", PasswordHash: "h2"})
	require.NoError(t, err)
	assert.Greater(t, bob.ID, alice.ID, "ids increase")

	_, err = s.CreateAccount(ctx, domain.AccountDraft{Username: "alice", PasswordHash: "other"})
	require.ErrorIs(t, err, domain.ErrDuplicateUsername)

	got, err := s.GetAccount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "h1", got.PasswordHash, "duplicate attempt must not overwrite")

	got, err = s.GetAccountByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, bob.ID, got.ID)

	_, err = s.GetAccount(ctx, 9999)
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.GetAccountByUsername(ctx, "carol")
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.GetAccountByGuestID(ctx, "nobody")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.CreateAccount(ctx, domain.AccountDraft{Username: "ghost", PasswordHash: "h", IsGuest: true})
	require.ErrorIs(t, err, domain.ErrInvalidInput, "guest accounts need a guest id")
}

func testReturnsCopies(t *testing.T, s repo.Store) {
	ctx := context.Background()

	_, created, err := s.CreateGuest(ctx, domain.GuestUsageDraft{GuestID: "g-copy", MaxUsage: 3}, guestAccount("g-copy"))
	require.NoError(t, err)

	created.Username = "mutated"
	*created.GuestID = "mutated"

	got, err := s.GetAccountByGuestID(ctx, "g-copy")
	require.NoError(t, err)
	assert.Equal(t, domain.GuestUsername("g-copy"), got.Username)
	assert.Equal(t, "g-copy", *got.GuestID)

	usage, err := s.GetGuestUsage(ctx, "g-copy")
	require.NoError(t, err)
	usage.UsageCount = 99

	again, err := s.GetGuestUsage(ctx, "g-copy")
	require.NoError(t, err)
	assert.Equal(t, 0, again.UsageCount)
}

func testGuestUsage(t *testing.T, s repo.Store) {
	ctx := context.Background()

	g, err := s.CreateGuestUsage(ctx, domain.GuestUsageDraft{GuestID: "g1", MaxUsage: 10})
	require.NoError(t, err)
	assert.Equal(t, "g1", g.GuestID)
	assert.Equal(t, 0, g.UsageCount)
	assert.Equal(t, 10, g.MaxUsage)
	assert.False(t, g.CreatedAt.IsZero())

	_, err = s.CreateGuestUsage(ctx, domain.GuestUsageDraft{GuestID: "g1", MaxUsage: 5})
	require.ErrorIs(t, err, domain.ErrDuplicateGuestID)

	for i := 1; i <= 3; i++ {
		g, err = s.IncrementGuestUsage(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, i, g.UsageCount)
	}

	_, err = s.IncrementGuestUsage(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.GetGuestUsage(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.CreateGuestUsage(ctx, domain.GuestUsageDraft{GuestID: "g2", MaxUsage: 0})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func testIncrementWithin(t *testing.T, s repo.Store) {
	ctx := context.Background()

	_, err := s.CreateGuestUsage(ctx, domain.GuestUsageDraft{GuestID: "cap2", MaxUsage: 2})
	require.NoError(t, err)

	g, err := s.IncrementGuestUsageWithin(ctx, "cap2")
	require.NoError(t, err)
	assert.Equal(t, 1, g.UsageCount)
	g, err = s.IncrementGuestUsageWithin(ctx, "cap2")
	require.NoError(t, err)
	assert.Equal(t, 2, g.UsageCount)

	_, err = s.IncrementGuestUsageWithin(ctx, "cap2")
	require.ErrorIs(t, err, domain.ErrQuotaExceeded)

	g, err = s.GetGuestUsage(ctx, "cap2")
	require.NoError(t, err)
	assert.Equal(t, 2, g.UsageCount, "a denied increment leaves the counter alone")

	_, err = s.IncrementGuestUsageWithin(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func testConcurrentIncrementWithin(t *testing.T, s repo.Store) {
	ctx := context.Background()
	const maxUsage, workers = 5, 20

	_, err := s.CreateGuestUsage(ctx, domain.GuestUsageDraft{GuestID: "race", MaxUsage: maxUsage})
	require.NoError(t, err)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, deny int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.IncrementGuestUsageWithin(ctx, "race")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrQuotaExceeded):
				deny++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, maxUsage, ok)
	assert.Equal(t, workers-maxUsage, deny)

	g, err := s.GetGuestUsage(ctx, "race")
	require.NoError(t, err)
	assert.Equal(t, maxUsage, g.UsageCount)
}

func testCreateGuest(t *testing.T, s repo.Store) {
	ctx := context.Background()

	usage, account, err := s.CreateGuest(ctx, domain.GuestUsageDraft{GuestID: "g1", MaxUsage: 10}, guestAccount("g1"))
	require.NoError(t, err)
	assert.Equal(t, 0, usage.UsageCount)
	assert.True(t, account.IsGuest)
	require.NotNil(t, account.GuestID)
	assert.Equal(t, "g1", *account.GuestID)

	byGuest, err := s.GetAccountByGuestID(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, account.ID, byGuest.ID)

	_, _, err = s.CreateGuest(ctx, domain.GuestUsageDraft{GuestID: "g1", MaxUsage: 10}, guestAccount("g1"))
	require.ErrorIs(t, err, domain.ErrDuplicateGuestID)

	// The account insert fails here, so the usage record must not survive either.
	_, err = s.CreateAccount(ctx, domain.AccountDraft{Username: domain.GuestUsername("g2"), PasswordHash: "h"})
	require.NoError(t, err)
	_, _, err = s.CreateGuest(ctx, domain.GuestUsageDraft{GuestID: "g2", MaxUsage: 10}, guestAccount("g2"))
	require.ErrorIs(t, err, domain.ErrDuplicateUsername)
	_, err = s.GetGuestUsage(ctx, "g2")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func testTransformations(t *testing.T, s repo.Store) {
	ctx := context.Background()

	alice, err := s.CreateAccount(ctx, domain.AccountDraft{Username: "alice", PasswordHash: "h"})
	require.NoError(t, err)
	_, err = s.CreateGuestUsage(ctx, domain.GuestUsageDraft{GuestID: "g1", MaxUsage: 10})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		tr, err := s.CreateTransformation(ctx, domain.TransformationDraft{
			AccountID:       &alice.ID,
			OriginalText:    fmt.Sprintf("text %d", i),
			TransformedText: fmt.Sprintf("TEXT %d", i),
			FromStyle:       domain.DefaultFromStyle,
			ToStyle:         "shouty",
		})
		require.NoError(t, err)
		require.NotNil(t, tr.AccountID)
		assert.Nil(t, tr.GuestID)
	}

	gt, err := s.CreateTransformation(ctx, domain.TransformationDraft{
		GuestID:         strPtr("g1"),
		OriginalText:    "hello",
		TransformedText: "howdy",
		FromStyle:       "formal",
		ToStyle:         "casual",
	})
	require.NoError(t, err)
	assert.Nil(t, gt.AccountID)
	require.NotNil(t, gt.GuestID)
	assert.Equal(t, "g1", *gt.GuestID)

	_, err = s.CreateTransformation(ctx, domain.TransformationDraft{
		AccountID:       &alice.ID,
		GuestID:         strPtr("g1"),
		OriginalText:    "x",
		TransformedText: "y",
		ToStyle:         "z",
	})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	list, err := s.ListTransformationsByAccount(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, tr := range list {
		assert.Equal(t, fmt.Sprintf("text %d", i), tr.OriginalText, "insertion order")
		assert.Nil(t, tr.GuestID)
	}

	list, err = s.ListTransformationsByGuest(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "howdy", list[0].TransformedText)

	list, err = s.ListTransformationsByAccount(ctx, 9999)
	require.NoError(t, err)
	assert.Empty(t, list)
}

// testFailedInsertsConsumeIDs pins exact ids: a rejected insert uses up an
// id, so every backend numbers the next entity the same way.
func testFailedInsertsConsumeIDs(t *testing.T, s repo.Store) {
	ctx := context.Background()

	alice, err := s.CreateAccount(ctx, domain.AccountDraft{Username: "alice", PasswordHash: "h"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), alice.ID)
	bob, err := s.CreateAccount(ctx, domain.AccountDraft{Username: "bob", PasswordHash: "h"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), bob.ID)
	_, err = s.CreateAccount(ctx, domain.AccountDraft{Username: "alice", PasswordHash: "h"})
	require.ErrorIs(t, err, domain.ErrDuplicateUsername)
	carol, err := s.CreateAccount(ctx, domain.AccountDraft{Username: "carol", PasswordHash: "h"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), carol.ID)

	g1, err := s.CreateGuestUsage(ctx, domain.GuestUsageDraft{GuestID: "g1", MaxUsage: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), g1.ID)
	_, err = s.CreateGuestUsage(ctx, domain.GuestUsageDraft{GuestID: "g1", MaxUsage: 10})
	require.ErrorIs(t, err, domain.ErrDuplicateGuestID)
	g2, err := s.CreateGuestUsage(ctx, domain.GuestUsageDraft{GuestID: "g2", MaxUsage: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3), g2.ID)

	// Username clash: the usage row was attempted first, so both ids are spent.
	clash := guestAccount("g3")
	clash.Username = "carol"
	_, _, err = s.CreateGuest(ctx, domain.GuestUsageDraft{GuestID: "g3", MaxUsage: 10}, clash)
	require.ErrorIs(t, err, domain.ErrDuplicateUsername)

	// Guest id clash: only the usage id is spent.
	_, _, err = s.CreateGuest(ctx, domain.GuestUsageDraft{GuestID: "g1", MaxUsage: 10}, guestAccount("g1"))
	require.ErrorIs(t, err, domain.ErrDuplicateGuestID)

	usage, account, err := s.CreateGuest(ctx, domain.GuestUsageDraft{GuestID: "g4", MaxUsage: 10}, guestAccount("g4"))
	require.NoError(t, err)
	assert.Equal(t, int64(6), usage.ID)
	assert.Equal(t, int64(6), account.ID)

	missing := int64(999)
	_, err = s.CreateTransformation(ctx, domain.TransformationDraft{
		AccountID: &missing, OriginalText: "o", TransformedText: "t", FromStyle: "default", ToStyle: "casual",
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
	tr, err := s.CreateTransformation(ctx, domain.TransformationDraft{
		AccountID: &alice.ID, OriginalText: "o", TransformedText: "t", FromStyle: "default", ToStyle: "casual",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), tr.ID)
}

func testOldestGuestAccountWins(t *testing.T, s repo.Store) {
	ctx := context.Background()

	_, first, err := s.CreateGuest(ctx, domain.GuestUsageDraft{GuestID: "shared", MaxUsage: 10}, guestAccount("shared"))
	require.NoError(t, err)

	second := guestAccount("shared")
	second.Username = "second-shared"
	later, err := s.CreateAccount(ctx, second)
	require.NoError(t, err)
	require.Greater(t, later.ID, first.ID)

	got, err := s.GetAccountByGuestID(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, domain.GuestUsername("shared"), got.Username)
}

// testScriptedSequence drives the same operations through any backend and
// compares the observable trace against one expected sequence.
func testScriptedSequence(t *testing.T, s repo.Store) {
	ctx := context.Background()
	var trace []string

	a, err := s.CreateAccount(ctx, domain.AccountDraft{Username: "alice", PasswordHash: "h"})
	trace = append(trace, describe("account", err, func() string { return a.Username }))

	g, err := s.CreateGuestUsage(ctx, domain.GuestUsageDraft{GuestID: "g1", MaxUsage: 3})
	trace = append(trace, describe("guest", err, func() string { return fmt.Sprintf("%s %d/%d", g.GuestID, g.UsageCount, g.MaxUsage) }))

	for i := 0; i < 4; i++ {
		u, err := s.IncrementGuestUsageWithin(ctx, "g1")
		if err == nil {
			_, err = s.CreateTransformation(ctx, domain.TransformationDraft{
				GuestID: strPtr("g1"), OriginalText: "o", TransformedText: "t", FromStyle: "default", ToStyle: "casual",
			})
		}
		trace = append(trace, describe("transform", err, func() string { return fmt.Sprintf("%d/%d", u.UsageCount, u.MaxUsage) }))
	}

	list, err := s.ListTransformationsByGuest(ctx, "g1")
	trace = append(trace, describe("history", err, func() string { return fmt.Sprintf("%d", len(list)) }))

	assert.Equal(t, []string{
		"account ok alice",
		"guest ok g1 0/3",
		"transform ok 1/3",
		"transform ok 2/3",
		"transform ok 3/3",
		"transform err quota",
		"history ok 3",
	}, trace)
}

func describe(op string, err error, ok func() string) string {
	if err == nil {
		return op + " ok " + ok()
	}
	kind := "other"
	switch {
	case errors.Is(err, domain.ErrQuotaExceeded):
		kind = "quota"
	case errors.Is(err, domain.ErrNotFound):
		kind = "not_found"
	case errors.Is(err, domain.ErrDuplicateUsername):
		kind = "duplicate_username"
	case errors.Is(err, domain.ErrDuplicateGuestID):
		kind = "duplicate_guest"
	case errors.Is(err, domain.ErrInvalidInput):
		kind = "invalid"
	}
	return op + " err " + kind
}
