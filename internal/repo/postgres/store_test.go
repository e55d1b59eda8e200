package postgres

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"os"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Murlii-Manohar/StyleTextSwapp/internal/domain"
	"github.com/Murlii-Manohar/StyleTextSwapp/internal/repo"
	"github.com/Murlii-Manohar/StyleTextSwapp/internal/repo/storetest"
)

func newStoreWithMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db), mock
}

var (
	accountColumns   = []string{"id", "username", "password", "guest_id", "is_guest", "created_at"}
	usageColumns     = []string{"id", "guest_id", "usage_count", "max_usage", "created_at"}
	transformColumns = []string{"id", "account_id", "guest_id", "original_text", "transformed_text", "from_style", "to_style", "created_at"}
)

func q(s string) string { return regexp.QuoteMeta(s) }

func TestCreateAccount_Success(t *testing.T) {
	s, mock := newStoreWithMock(t)
	now := time.Now()

	mock.ExpectQuery(q("INSERT INTO accounts (username, password, guest_id, is_guest)")).
		WithArgs("alice", "hash", nil, false).
		WillReturnRows(sqlmock.NewRows(accountColumns).AddRow(int64(1), "alice", "hash", nil, false, now))

	a, err := s.CreateAccount(context.Background(), domain.AccountDraft{Username: "alice", PasswordHash: "hash"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.ID)
	assert.Nil(t, a.GuestID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAccount_Duplicate(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectQuery(q("INSERT INTO accounts")).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "accounts_username_key"})

	_, err := s.CreateAccount(context.Background(), domain.AccountDraft{Username: "alice", PasswordHash: "hash"})
	require.ErrorIs(t, err, domain.ErrDuplicateUsername)
}

func TestCreateAccount_InvalidDraftNeverHitsDB(t *testing.T) {
	s, mock := newStoreWithMock(t)

	_, err := s.CreateAccount(context.Background(), domain.AccountDraft{Username: "", PasswordHash: "hash"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAccount_NotFound(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectQuery(q("FROM accounts WHERE id = $1")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(accountColumns))

	_, err := s.GetAccount(context.Background(), 7)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetAccount_DBError(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectQuery(q("FROM accounts WHERE username = $1")).
		WillReturnError(errors.New("db down"))

	_, err := s.GetAccountByUsername(context.Background(), "alice")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "db down")
}

func TestGetAccountByGuestID(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectQuery(q("FROM accounts WHERE guest_id = $1 AND is_guest")).
		WithArgs("g1").
		WillReturnRows(sqlmock.NewRows(accountColumns).AddRow(int64(3), "guest-g1", "h", "g1", true, time.Now()))

	a, err := s.GetAccountByGuestID(context.Background(), "g1")
	require.NoError(t, err)
	require.NotNil(t, a.GuestID)
	assert.Equal(t, "g1", *a.GuestID)
	assert.True(t, a.IsGuest)
}

func TestIncrementGuestUsageWithin(t *testing.T) {
	t.Run("incremented", func(t *testing.T) {
		s, mock := newStoreWithMock(t)
		mock.ExpectQuery(q("WHERE guest_id = $1 AND usage_count < max_usage")).
			WithArgs("g1").
			WillReturnRows(sqlmock.NewRows(usageColumns).AddRow(int64(1), "g1", 4, 10, time.Now()))

		g, err := s.IncrementGuestUsageWithin(context.Background(), "g1")
		require.NoError(t, err)
		assert.Equal(t, 4, g.UsageCount)
	})

	t.Run("quota exceeded", func(t *testing.T) {
		s, mock := newStoreWithMock(t)
		mock.ExpectQuery(q("WHERE guest_id = $1 AND usage_count < max_usage")).
			WithArgs("g1").
			WillReturnRows(sqlmock.NewRows(usageColumns))
		mock.ExpectQuery(q("FROM guest_usage WHERE guest_id = $1")).
			WithArgs("g1").
			WillReturnRows(sqlmock.NewRows(usageColumns).AddRow(int64(1), "g1", 10, 10, time.Now()))

		_, err := s.IncrementGuestUsageWithin(context.Background(), "g1")
		require.ErrorIs(t, err, domain.ErrQuotaExceeded)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown guest", func(t *testing.T) {
		s, mock := newStoreWithMock(t)
		mock.ExpectQuery(q("WHERE guest_id = $1 AND usage_count < max_usage")).
			WillReturnRows(sqlmock.NewRows(usageColumns))
		mock.ExpectQuery(q("FROM guest_usage WHERE guest_id = $1")).
			WillReturnRows(sqlmock.NewRows(usageColumns))

		_, err := s.IncrementGuestUsageWithin(context.Background(), "nope")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestIncrementGuestUsage_NotFound(t *testing.T) {
	s, mock := newStoreWithMock(t)
	mock.ExpectQuery(q("SET usage_count = usage_count + 1")).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(usageColumns))

	_, err := s.IncrementGuestUsage(context.Background(), "nope")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateGuestUsage_Duplicate(t *testing.T) {
	s, mock := newStoreWithMock(t)
	mock.ExpectQuery(q("INSERT INTO guest_usage")).
		WithArgs("g1", 10).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := s.CreateGuestUsage(context.Background(), domain.GuestUsageDraft{GuestID: "g1", MaxUsage: 10})
	require.ErrorIs(t, err, domain.ErrDuplicateGuestID)
}

func guestDraft(id string) domain.AccountDraft {
	return domain.AccountDraft{Username: domain.GuestUsername(id), PasswordHash: "h", GuestID: &id, IsGuest: true}
}

func TestCreateGuest_CommitsBoth(t *testing.T) {
	s, mock := newStoreWithMock(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(q("INSERT INTO guest_usage")).
		WithArgs("g1", 10).
		WillReturnRows(sqlmock.NewRows(usageColumns).AddRow(int64(1), "g1", 0, 10, now))
	mock.ExpectQuery(q("INSERT INTO accounts")).
		WithArgs("guest-g1", "h", "g1", true).
		WillReturnRows(sqlmock.NewRows(accountColumns).AddRow(int64(5), "guest-g1", "h", "g1", true, now))
	mock.ExpectCommit()

	g, a, err := s.CreateGuest(context.Background(), domain.GuestUsageDraft{GuestID: "g1", MaxUsage: 10}, guestDraft("g1"))
	require.NoError(t, err)
	assert.Equal(t, "g1", g.GuestID)
	assert.Equal(t, int64(5), a.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateGuest_RollsBackOnAccountConflict(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(q("INSERT INTO guest_usage")).
		WillReturnRows(sqlmock.NewRows(usageColumns).AddRow(int64(1), "g1", 0, 10, time.Now()))
	mock.ExpectQuery(q("INSERT INTO accounts")).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	_, _, err := s.CreateGuest(context.Background(), domain.GuestUsageDraft{GuestID: "g1", MaxUsage: 10}, guestDraft("g1"))
	require.ErrorIs(t, err, domain.ErrDuplicateUsername)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTransformation_UnknownAccount(t *testing.T) {
	s, mock := newStoreWithMock(t)
	id := int64(99)

	mock.ExpectQuery(q("INSERT INTO transformations")).
		WithArgs(id, nil, "a", "b", "default", "c").
		WillReturnError(&pgconn.PgError{Code: "23503"})

	_, err := s.CreateTransformation(context.Background(), domain.TransformationDraft{
		AccountID: &id, OriginalText: "a", TransformedText: "b", FromStyle: "default", ToStyle: "c",
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListTransformationsByGuest(t *testing.T) {
	s, mock := newStoreWithMock(t)
	now := time.Now()

	mock.ExpectQuery(q("FROM transformations WHERE guest_id = $1 ORDER BY id")).
		WithArgs("g1").
		WillReturnRows(sqlmock.NewRows(transformColumns).
			AddRow(int64(1), nil, "g1", "hi", "hey", "default", "casual", now).
			AddRow(int64(2), nil, "g1", "bye", "cya", "formal", "casual", now))

	list, err := s.ListTransformationsByGuest(context.Background(), "g1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Nil(t, list[0].AccountID)
	assert.Equal(t, "g1", *list[0].GuestID)
	assert.Equal(t, "cya", list[1].TransformedText)
}

func TestListTransformations_EmptyIsNotNil(t *testing.T) {
	s, mock := newStoreWithMock(t)
	mock.ExpectQuery(q("FROM transformations WHERE account_id = $1")).
		WillReturnRows(sqlmock.NewRows(transformColumns))

	list, err := s.ListTransformationsByAccount(context.Background(), 1)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestMigrate_UsesEmbeddedDir(t *testing.T) {
	orig := gooseUp
	t.Cleanup(func() { gooseUp = orig })

	var gotDir string
	gooseUp = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}

	require.NoError(t, Migrate(context.Background(), nil))
	assert.Equal(t, "migrations", gotDir)

	entries, err := fs.ReadDir(migrations, "migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "00001_init.sql", entries[0].Name())
}

// TestStoreConformance runs the shared suite against a real database when
// TEST_DATABASE_URL is set.
func TestStoreConformance(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(context.Background(), db))

	storetest.Run(t, func(t *testing.T) repo.Store {
		_, err := db.Exec(`TRUNCATE transformations, guest_usage, accounts RESTART IDENTITY CASCADE`)
		require.NoError(t, err)
		return New(db)
	})
}
