package domain

import (
	"math"
	"strings"
	"time"
)

// DefaultFromStyle is stored when the caller leaves the source style blank.
const DefaultFromStyle = "default"

const DefaultPreservation = 50

type Transformation struct {
	ID              int64     `json:"id"`
	AccountID       *int64    `json:"accountId"`
	GuestID         *string   `json:"guestId"`
	OriginalText    string    `json:"originalText"`
	TransformedText string    `json:"transformedText"`
	FromStyle       string    `json:"fromStyle"`
	ToStyle         string    `json:"toStyle"`
	CreatedAt       time.Time `json:"createdAt"`
}

type TransformationDraft struct {
	AccountID       *int64
	GuestID         *string
	OriginalText    string
	TransformedText string
	FromStyle       string
	ToStyle         string
}

// Validate enforces that exactly one owner is set.
func (d TransformationDraft) Validate() error {
	hasAccount := d.AccountID != nil
	hasGuest := d.GuestID != nil && *d.GuestID != ""
	if hasAccount == hasGuest {
		return invalid("owner", "exactly one of accountId or guestId must be set")
	}
	if d.ToStyle == "" {
		return invalid("toStyle", "is required")
	}
	return nil
}

// TransformRequest is the body of POST /api/transform.
type TransformRequest struct {
	OriginalText           string   `json:"originalText"`
	FromStyle              string   `json:"fromStyle,omitempty"`
	ToStyle                string   `json:"toStyle"`
	PreservationPercentage *float64 `json:"preservationPercentage,omitempty"`
}

func (r *TransformRequest) Normalize() {
	r.FromStyle = strings.TrimSpace(r.FromStyle)
	r.ToStyle = strings.TrimSpace(r.ToStyle)
}

func (r *TransformRequest) Validate() error {
	if strings.TrimSpace(r.OriginalText) == "" {
		return invalid("originalText", "is required")
	}
	if r.ToStyle == "" {
		return invalid("toStyle", "is required")
	}
	if p := r.PreservationPercentage; p != nil && (*p < 0 || *p > 100) {
		return invalid("preservationPercentage", "must be between 0 and 100")
	}
	return nil
}

// Preservation returns the requested percentage rounded to a whole number,
// defaulting to 50.
func (r *TransformRequest) Preservation() int {
	if r.PreservationPercentage == nil {
		return DefaultPreservation
	}
	return int(math.Round(*r.PreservationPercentage))
}

// StoredFromStyle is the source style as persisted.
func (r *TransformRequest) StoredFromStyle() string {
	if r.FromStyle == "" {
		return DefaultFromStyle
	}
	return r.FromStyle
}

type TransformResult struct {
	TransformedText string     `json:"transformedText"`
	GuestUsage      *UsageView `json:"guestUsage"`
}
