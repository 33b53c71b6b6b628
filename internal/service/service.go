package service

import (
	"context"

	"tavares-club/internal/model"

	"github.com/google/uuid"
)

// CouponService defines the coupon lifecycle operations: issuing, validating,
// consuming, and listing coupons.
type CouponService interface {
	// Issue creates and persists a fresh active coupon for a partner benefit.
	Issue(ctx context.Context, req *model.IssueRequest) (*model.Coupon, error)

	// Validate checks whether a code identifies a redeemable coupon. It is
	// read-only: callers can inspect the result before committing to Consume.
	Validate(ctx context.Context, code string) (*model.ValidationResult, error)

	// Consume transitions a coupon to used, at most once. A coupon that was
	// already used or has expired yields model.ErrAlreadyConsumedOrExpired.
	Consume(ctx context.Context, id uuid.UUID) error

	// ListForUser returns a user's coupons, newest first, with expiry
	// recomputed for display.
	ListForUser(ctx context.Context, userID string) ([]model.CouponView, error)
}
