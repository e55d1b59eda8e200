package domain

import "time"

// DefaultGuestMaxUsage is the cap given to a fresh guest when none is configured.
const DefaultGuestMaxUsage = 10

type GuestUsage struct {
	ID         int64     `json:"id"`
	GuestID    string    `json:"guestId"`
	UsageCount int       `json:"usageCount"`
	MaxUsage   int       `json:"maxUsage"`
	CreatedAt  time.Time `json:"createdAt"`
}

type GuestUsageDraft struct {
	GuestID  string
	MaxUsage int
}

func (d GuestUsageDraft) Validate() error {
	if d.GuestID == "" {
		return invalid("guestId", "is required")
	}
	if d.MaxUsage <= 0 {
		return invalid("maxUsage", "must be positive")
	}
	return nil
}

// Remaining is not clamped: a counter past the cap shows up as a negative value.
func (g *GuestUsage) Remaining() int {
	return g.MaxUsage - g.UsageCount
}

func (g *GuestUsage) Exhausted() bool {
	return g.UsageCount >= g.MaxUsage
}

// UsageView is the usage summary embedded in transform responses.
type UsageView struct {
	UsageCount    int `json:"usageCount"`
	MaxUsage      int `json:"maxUsage"`
	RemainingUses int `json:"remainingUses"`
}

// GuestView is returned by guest init and guest usage lookups.
type GuestView struct {
	GuestID string `json:"guestId"`
	UsageView
}

func (g *GuestUsage) View() UsageView {
	return UsageView{
		UsageCount:    g.UsageCount,
		MaxUsage:      g.MaxUsage,
		RemainingUses: g.Remaining(),
	}
}

func (g *GuestUsage) GuestView() *GuestView {
	return &GuestView{GuestID: g.GuestID, UsageView: g.View()}
}
