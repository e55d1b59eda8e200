package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Murlii-Manohar/StyleTextSwapp/pkg/auth"
	"github.com/Murlii-Manohar/StyleTextSwapp/pkg/config"
	"github.com/Murlii-Manohar/StyleTextSwapp/pkg/logger"
)

const secret = "test-secret"

func newSessions() *Sessions {
	return NewSessions(config.AuthConfig{SessionSecret: secret, SessionTTL: time.Hour})
}

// capture serves req through s.Load and reports what the next handler saw.
func capture(t *testing.T, s *Sessions, req *http.Request) (accountID int64, guestID string, ctxGuest interface{}) {
	t.Helper()
	s.Load(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accountID = AccountID(r)
		guestID = GuestID(r)
		ctxGuest = r.Context().Value(logger.GuestIDKey)
	})).ServeHTTP(httptest.NewRecorder(), req)
	return
}

func TestLoad_Cookie(t *testing.T) {
	s := newSessions()
	tok, err := auth.NewSessionToken(3, "g-1", secret, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tok})

	accountID, guestID, ctxGuest := capture(t, s, req)
	assert.Equal(t, int64(3), accountID)
	assert.Equal(t, "g-1", guestID)
	assert.Equal(t, "g-1", ctxGuest)
}

func TestLoad_BearerWinsOverCookie(t *testing.T) {
	s := newSessions()
	cookieTok, _ := auth.NewSessionToken(0, "from-cookie", secret, time.Hour)
	bearerTok, _ := auth.NewSessionToken(0, "from-header", secret, time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: cookieTok})
	req.Header.Set("Authorization", "Bearer "+bearerTok)

	_, guestID, _ := capture(t, s, req)
	assert.Equal(t, "from-header", guestID)
}

func TestLoad_InvalidTokensAreAnonymous(t *testing.T) {
	s := newSessions()
	expired, _ := auth.NewSessionToken(1, "g", secret, -time.Minute)
	forged, _ := auth.NewSessionToken(1, "g", "wrong", time.Hour)

	for name, tok := range map[string]string{"expired": expired, "forged": forged, "garbage": "abc.def.ghi"} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tok})

			accountID, guestID, ctxGuest := capture(t, s, req)
			assert.Zero(t, accountID)
			assert.Empty(t, guestID)
			assert.Nil(t, ctxGuest)
		})
	}
}

func TestLoad_EpochMismatchIsAnonymous(t *testing.T) {
	s := newSessions().BoundTo("epoch-2")

	stale, _ := auth.NewEpochSessionToken(1, "g-old", "epoch-1", secret, time.Hour)
	unbound, _ := auth.NewSessionToken(1, "g-old", secret, time.Hour)
	current, _ := auth.NewEpochSessionToken(1, "g-new", "epoch-2", secret, time.Hour)

	for name, tc := range map[string]struct {
		tok       string
		wantID    int64
		wantGuest string
	}{
		"other epoch": {stale, 0, ""},
		"no epoch":    {unbound, 0, ""},
		"same epoch":  {current, 1, "g-new"},
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tc.tok})

			accountID, guestID, _ := capture(t, s, req)
			assert.Equal(t, tc.wantID, accountID)
			assert.Equal(t, tc.wantGuest, guestID)
		})
	}
}

func TestIssue_CarriesEpoch(t *testing.T) {
	s := newSessions().BoundTo("epoch-7")

	rec := httptest.NewRecorder()
	require.NoError(t, s.Issue(rec, 2, "g"))

	claims, err := auth.Parse(rec.Result().Cookies()[0].Value, secret)
	require.NoError(t, err)
	assert.Equal(t, "epoch-7", claims.Epoch)

	// BoundTo returns a copy; the receiver stays unbound.
	rec = httptest.NewRecorder()
	require.NoError(t, newSessions().Issue(rec, 2, "g"))
	claims, err = auth.Parse(rec.Result().Cookies()[0].Value, secret)
	require.NoError(t, err)
	assert.Empty(t, claims.Epoch)
}

func TestRequireAccount(t *testing.T) {
	s := newSessions()
	h := s.Load(RequireAccount(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	guestOnly, _ := auth.NewSessionToken(0, "g", secret, time.Hour)
	account, _ := auth.NewSessionToken(8, "", secret, time.Hour)

	for tok, want := range map[string]int{"": http.StatusUnauthorized, guestOnly: http.StatusUnauthorized, account: http.StatusNoContent} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code)
	}
}

func TestIssueAndClear(t *testing.T) {
	s := NewSessions(config.AuthConfig{SessionSecret: secret, SessionTTL: 30 * 24 * time.Hour, CookieSecure: true})

	rec := httptest.NewRecorder()
	require.NoError(t, s.Issue(rec, 4, "g-4"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, SessionCookie, c.Name)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, 30*24*60*60, c.MaxAge)

	claims, err := auth.Parse(c.Value, secret)
	require.NoError(t, err)
	assert.Equal(t, int64(4), claims.Sub)
	assert.Equal(t, "g-4", claims.GuestID)

	rec = httptest.NewRecorder()
	s.Clear(rec)
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Empty(t, cleared[0].Value)
	assert.Less(t, cleared[0].MaxAge, 0)
}
