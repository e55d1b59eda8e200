package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Murlii-Manohar/StyleTextSwapp/internal/http/response"
	"github.com/Murlii-Manohar/StyleTextSwapp/pkg/auth"
	"github.com/Murlii-Manohar/StyleTextSwapp/pkg/config"
	"github.com/Murlii-Manohar/StyleTextSwapp/pkg/logger"
)

type ctxKey string

const CtxClaims ctxKey = "claims"

// SessionCookie holds the signed session token.
const SessionCookie = "sts_session"

// Sessions reads and writes the signed session that carries the account id
// and the guest id.
type Sessions struct {
	secret string
	ttl    time.Duration
	secure bool
	epoch  string
}

func NewSessions(cfg config.AuthConfig) *Sessions {
	return &Sessions{secret: cfg.SessionSecret, ttl: cfg.SessionTTL, secure: cfg.CookieSecure}
}

// BoundTo ties sessions to a store epoch. Tokens issued under another epoch
// refer to ids that no longer exist, or now belong to someone else, and are
// treated as anonymous.
func (s *Sessions) BoundTo(epoch string) *Sessions {
	cp := *s
	cp.epoch = epoch
	return &cp
}

// Load attaches the session claims to the request. A missing, expired or
// tampered token leaves the request anonymous.
func (s *Sessions) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := tokenFrom(r)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := auth.Parse(raw, s.secret)
		if err != nil {
			logger.DebugContext(r.Context(), "Ignoring invalid session token", "error", err)
			next.ServeHTTP(w, r)
			return
		}
		if claims.Epoch != s.epoch {
			logger.DebugContext(r.Context(), "Ignoring session from another store epoch")
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), CtxClaims, claims)
		if claims.Authenticated() {
			ctx = context.WithValue(ctx, logger.UserIDKey, claims.Sub)
		}
		if claims.GuestID != "" {
			ctx = context.WithValue(ctx, logger.GuestIDKey, claims.GuestID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAccount rejects requests without a signed-in account.
func RequireAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !Claims(r).Authenticated() {
			response.Unauthorized(w, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Issue signs a new session and sets it as a cookie. API clients can send the
// same value back as a Bearer token.
func (s *Sessions) Issue(w http.ResponseWriter, accountID int64, guestID string) error {
	tok, err := auth.NewEpochSessionToken(accountID, guestID, s.epoch, s.secret, s.ttl)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    tok,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear removes the session cookie.
func (s *Sessions) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Claims returns the session claims, or nil for an anonymous request.
func Claims(r *http.Request) *auth.Claims {
	if v := r.Context().Value(CtxClaims); v != nil {
		if c, ok := v.(*auth.Claims); ok {
			return c
		}
	}
	return nil
}

// GuestID returns the session's guest id, if any.
func GuestID(r *http.Request) string {
	if c := Claims(r); c != nil {
		return c.GuestID
	}
	return ""
}

// AccountID returns the signed-in account id, or 0.
func AccountID(r *http.Request) int64 {
	if c := Claims(r); c.Authenticated() {
		return c.Sub
	}
	return 0
}

func tokenFrom(r *http.Request) string {
	if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimPrefix(authz, "Bearer ")
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}
