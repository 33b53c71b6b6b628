package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var base = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func TestCoupon_IsExpired(t *testing.T) {
	c := &Coupon{ExpiresAt: base}

	tests := []struct {
		name     string
		now      time.Time
		expected bool
	}{
		{name: "Before expiry", now: base.Add(-time.Minute), expected: false},
		{name: "Exactly at expiry", now: base, expected: true},
		{name: "After expiry", now: base.Add(time.Second), expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, c.IsExpired(tt.now))
		})
	}
}

func TestCoupon_EffectiveStatus(t *testing.T) {
	tests := []struct {
		name     string
		coupon   Coupon
		now      time.Time
		expected CouponStatus
	}{
		{
			name:     "Active within window",
			coupon:   Coupon{Status: StatusActive, ExpiresAt: base.Add(time.Hour)},
			now:      base,
			expected: StatusActive,
		},
		{
			name:     "Stored active but window elapsed",
			coupon:   Coupon{Status: StatusActive, ExpiresAt: base.Add(-time.Hour)},
			now:      base,
			expected: StatusExpired,
		},
		{
			name:     "Used stays used even past expiry",
			coupon:   Coupon{Status: StatusUsed, ExpiresAt: base.Add(-time.Hour)},
			now:      base,
			expected: StatusUsed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.coupon.EffectiveStatus(tt.now))
		})
	}
}

func TestRemainingTime(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		expected  string
	}{
		{
			name:      "Already expired",
			expiresAt: base.Add(-time.Minute),
			expected:  "Expirado",
		},
		{
			name:      "Exactly at expiry",
			expiresAt: base,
			expected:  "Expirado",
		},
		{
			name:      "Hours and minutes",
			expiresAt: base.Add(1*time.Hour + 30*time.Minute),
			expected:  "1h 30min",
		},
		{
			name:      "Exactly one hour",
			expiresAt: base.Add(time.Hour),
			expected:  "1h 0min",
		},
		{
			name:      "Under an hour shows minutes and seconds",
			expiresAt: base.Add(35*time.Minute + 12*time.Second),
			expected:  "35min 12s",
		},
		{
			name:      "Final seconds",
			expiresAt: base.Add(42 * time.Second),
			expected:  "0min 42s",
		},
		{
			name:      "Full validity window",
			expiresAt: base.Add(ValidityWindow),
			expected:  "2h 0min",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RemainingTime(tt.expiresAt, base))
		})
	}
}
