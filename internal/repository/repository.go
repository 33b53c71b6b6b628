package repository

import (
	"context"
	"time"

	"tavares-club/internal/model"

	"github.com/google/uuid"
)

// ErrDuplicateCode is returned by Create when the generated code collides
// with an existing coupon. The unique constraint on code is the
// authoritative uniqueness check; callers retry with a fresh code.
var ErrDuplicateCode = model.NewDomainError(model.ErrCodePersistence, "coupon code already exists")

// CouponRepository defines the interface for coupon data access operations.
// Implementations are selected once at startup (authoritative Postgres in
// production, in-memory stub for local development); there is no automatic
// call-time fallback between them.
type CouponRepository interface {
	// Create inserts a new coupon record. Returns ErrDuplicateCode when the
	// code collides with an existing coupon.
	Create(ctx context.Context, coupon *model.Coupon) error

	// GetByCode retrieves a coupon by its exact (upper-cased) code.
	// Returns (nil, nil) when no coupon matches.
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)

	// ListByUser retrieves all coupons owned by a user, newest first.
	ListByUser(ctx context.Context, userID string) ([]model.Coupon, error)

	// Consume atomically transitions the coupon to used, only if it is
	// still active and not expired as of now. Returns true when exactly one
	// record was affected; false means the coupon was already consumed or
	// expired, which callers must treat as a hard failure, never success.
	Consume(ctx context.Context, id uuid.UUID, usedAt, now time.Time) (bool, error)
}
