package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// GuestUsernamePrefix marks the synthetic accounts minted for guests.
const GuestUsernamePrefix = "guest-"

const (
	minUsernameLen = 3
	maxUsernameLen = 64
	minPasswordLen = 6
)

type Account struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	GuestID      *string   `json:"guestId,omitempty"`
	IsGuest      bool      `json:"isGuest"`
	CreatedAt    time.Time `json:"createdAt"`
}

type AccountDraft struct {
	Username     string
	PasswordHash string
	GuestID      *string
	IsGuest      bool
}

// Validate enforces the storage-level invariants: a non-empty username and a
// guest id on every guest-flagged account.
func (d AccountDraft) Validate() error {
	if strings.TrimSpace(d.Username) == "" {
		return invalid("username", "is required")
	}
	if d.PasswordHash == "" {
		return invalid("password", "is required")
	}
	if d.IsGuest && (d.GuestID == nil || *d.GuestID == "") {
		return invalid("guestId", "is required for guest accounts")
	}
	return nil
}

func GuestUsername(guestID string) string {
	return GuestUsernamePrefix + guestID
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AccountInfo is the public view of an Account.
type AccountInfo struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	IsGuest  bool   `json:"isGuest"`
}

func (r *RegisterRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
}

func (r *RegisterRequest) Validate() error {
	n := utf8.RuneCountInString(r.Username)
	if n == 0 {
		return invalid("username", "is required")
	}
	if n < minUsernameLen {
		return invalid("username", "must be at least 3 characters")
	}
	if n > maxUsernameLen {
		return invalid("username", "must be at most 64 characters")
	}
	if strings.HasPrefix(strings.ToLower(r.Username), GuestUsernamePrefix) {
		return invalid("username", "is reserved")
	}
	if utf8.RuneCountInString(r.Password) < minPasswordLen {
		return invalid("password", "must be at least 6 characters")
	}
	return nil
}

func (r *LoginRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
}

func (r *LoginRequest) Validate() error {
	if r.Username == "" {
		return invalid("username", "is required")
	}
	if r.Password == "" {
		return invalid("password", "is required")
	}
	return nil
}

// ToAccountInfo converts Account to AccountInfo (without sensitive data)
func (a *Account) ToAccountInfo() *AccountInfo {
	return &AccountInfo{
		ID:       a.ID,
		Username: a.Username,
		IsGuest:  a.IsGuest,
	}
}
