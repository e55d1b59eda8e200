package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const audience = "styletext-api"

// Claims carries both identities a browser session can hold at once:
// the signed-in account (Sub, 0 when anonymous) and the guest identifier.
// Epoch names the store instance the identities belong to.
type Claims struct {
	Sub     int64  `json:"sub"`
	GuestID string `json:"gid,omitempty"`
	Epoch   string `json:"ep,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) Authenticated() bool {
	return c != nil && c.Sub > 0
}

func NewSessionToken(sub int64, guestID, secret string, ttl time.Duration) (string, error) {
	return NewEpochSessionToken(sub, guestID, "", secret, ttl)
}

// NewEpochSessionToken is NewSessionToken for a session bound to one store epoch.
func NewEpochSessionToken(sub int64, guestID, epoch, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Sub:     sub,
		GuestID: guestID,
		Epoch:   epoch,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Audience:  []string{audience},
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func Parse(tokenString, secret string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithAudience(audience))
	if err != nil {
		return nil, err
	}
	if claims, ok := tok.Claims.(*Claims); ok && tok.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
