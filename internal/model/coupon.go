package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CouponStatus represents the stored lifecycle state of a coupon.
type CouponStatus string

const (
	StatusActive  CouponStatus = "active"
	StatusUsed    CouponStatus = "used"
	StatusExpired CouponStatus = "expired"
)

// ValidityWindow is how long a coupon stays redeemable after issue.
const ValidityWindow = 2 * time.Hour

// Coupon is a single-use, time-bound redemption token linking a user to a
// partner benefit.
type Coupon struct {
	ID          uuid.UUID    `json:"id"`
	Code        string       `json:"code"`
	UserID      string       `json:"userId"`
	UserName    string       `json:"userName"`
	PartnerID   string       `json:"partnerId"`
	PartnerName string       `json:"partnerName"`
	Benefit     string       `json:"benefit"`
	Status      CouponStatus `json:"status"`
	CreatedAt   time.Time    `json:"createdAt"`
	ExpiresAt   time.Time    `json:"expiresAt"`
	UsedAt      *time.Time   `json:"usedAt,omitempty"`
}

// IsExpired reports whether the coupon's validity window has elapsed.
// Expiry is never persisted by a background process; every read path must
// apply this same check.
func (c *Coupon) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// EffectiveStatus returns the status a reader should act on: a stored
// "active" coupon whose window has elapsed is reported as expired.
func (c *Coupon) EffectiveStatus(now time.Time) CouponStatus {
	if c.Status == StatusActive && c.IsExpired(now) {
		return StatusExpired
	}
	return c.Status
}

// RemainingTime formats the time left until expiresAt for display.
// Returns "Expirado" once the window has elapsed, "{h}h {m}min" while an
// hour or more remains, and "{m}min {s}s" below that.
func RemainingTime(expiresAt, now time.Time) string {
	remaining := expiresAt.Sub(now)
	if remaining <= 0 {
		return "Expirado"
	}

	hours := int(remaining.Hours())
	minutes := int(remaining.Minutes()) % 60
	if hours >= 1 {
		return fmt.Sprintf("%dh %dmin", hours, minutes)
	}

	seconds := int(remaining.Seconds()) % 60
	return fmt.Sprintf("%dmin %ds", minutes, seconds)
}

// IssueRequest is the DTO for issuing a coupon for a partner benefit.
type IssueRequest struct {
	UserID      string `json:"userId"`
	UserName    string `json:"userName"`
	PartnerID   string `json:"partnerId"`
	PartnerName string `json:"partnerName"`
	Benefit     string `json:"benefit"`
}

// IssueResponse is the API response for a freshly issued coupon.
type IssueResponse struct {
	Coupon    *Coupon `json:"coupon"`
	QRPayload string  `json:"qrPayload"`
}

/// CouponView is the list/display projection of a coupon: stored fields plus
// the lazily recomputed status and the remaining-time string.
type CouponView struct {
	Coupon
	EffectiveStatus CouponStatus `json:"effectiveStatus"`
	RemainingTime   string       `json:"remainingTime"`
}

// ValidationResult is the outcome of a read-only coupon validation.
// Reason is set (to a DomainError code) when Valid is false.
type ValidationResult struct {
	Valid  bool    `json:"valid"`
	Coupon *Coupon `json:"coupon,omitempty"`
	Reason string  `json:"reason,omitempty"`
}

// ValidateRequest is the body of POST /partner/validate.
type ValidateRequest struct {
	Code string `json:"code"`
}
