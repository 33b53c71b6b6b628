package repository

import (
	"context"
	"sync"
	"time"

	"tavares-club/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// memoryCouponRepository is a mutex-guarded in-memory CouponRepository for
// local development. It is non-authoritative: config validation refuses to
// select it in a production environment, so a production deployment fails
// closed instead of trusting forgeable local records.
type memoryCouponRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*model.Coupon
	byCode  map[string]uuid.UUID
	logger  zerolog.Logger
}

// NewMemoryCouponRepository creates an in-memory coupon repository.
func NewMemoryCouponRepository(logger zerolog.Logger) CouponRepository {
	return &memoryCouponRepository{
		byID:   make(map[uuid.UUID]*model.Coupon),
		byCode: make(map[string]uuid.UUID),
		logger: logger.With().Str("repository", "coupon-memory").Logger(),
	}
}

// Create inserts a new coupon record.
func (r *memoryCouponRepository) Create(ctx context.Context, coupon *model.Coupon) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byCode[coupon.Code]; exists {
		r.logger.Warn().Str("code", coupon.Code).Msg("coupon code collision on insert")
		return ErrDuplicateCode
	}

	stored := *coupon
	r.byID[stored.ID] = &stored
	r.byCode[stored.Code] = stored.ID

	r.logger.Debug().
		Str("coupon_id", stored.ID.String()).
		Str("code", stored.Code).
		Msg("coupon created in memory store")

	return nil
}

// GetByCode retrieves a coupon by its exact code.
func (r *memoryCouponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byCode[code]
	if !ok {
		return nil, nil
	}

	copied := *r.byID[id]
	return &copied, nil
}

// ListByUser retrieves all coupons owned by a user, newest first.
func (r *memoryCouponRepository) ListByUser(ctx context.Context, userID string) ([]model.Coupon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var coupons []model.Coupon
	for _, c := range r.byID {
		if c.UserID == userID {
			coupons = append(coupons, *c)
		}
	}

	// Newest first by creation time.
	for i := 1; i < len(coupons); i++ {
		for j := i; j > 0 && coupons[j].CreatedAt.After(coupons[j-1].CreatedAt); j-- {
			coupons[j], coupons[j-1] = coupons[j-1], coupons[j]
		}
	}

	return coupons, nil
}

// Consume atomically transitions the coupon to used under the write lock,
// mirroring the conditional-update semantics of the Postgres implementation.
func (r *memoryCouponRepository) Consume(ctx context.Context, id uuid.UUID, usedAt, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byID[id]
	if !ok {
		return false, nil
	}

	if c.Status != model.StatusActive || !now.Before(c.ExpiresAt) {
		return false, nil
	}

	c.Status = model.StatusUsed
	used := usedAt
	c.UsedAt = &used

	return true, nil
}
