package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tavares-club/internal/coupon"
	"tavares-club/internal/model"
	"tavares-club/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// issueRetries is how many fresh codes Issue tries after a duplicate-key
// collision before giving up. Collisions are negligible-probability, so a
// second collision in a row points at a store problem, not bad luck.
const issueRetries = 3

// couponService implements CouponService.
type couponService struct {
	repo      repository.CouponRepository
	generator coupon.Generator
	validity  time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

// NewCouponService creates a new coupon lifecycle service. A non-positive
// validity falls back to the standard window.
func NewCouponService(
	repo repository.CouponRepository,
	generator coupon.Generator,
	validity time.Duration,
	logger zerolog.Logger,
) CouponService {
	if validity <= 0 {
		validity = model.ValidityWindow
	}
	return &couponService{
		repo:      repo,
		generator: generator,
		validity:  validity,
		logger:    logger.With().Str("service", "coupon").Logger(),
		now:       time.Now,
	}
}

// Issue creates and persists a fresh active coupon.
func (s *couponService) Issue(ctx context.Context, req *model.IssueRequest) (*model.Coupon, error) {
	if err := validateIssueRequest(req); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < issueRetries; attempt++ {
		now := s.now()
		c := &model.Coupon{
			ID:          uuid.New(),
			Code:        s.generator.Generate(),
			UserID:      req.UserID,
			UserName:    req.UserName,
			PartnerID:   req.PartnerID,
			PartnerName: req.PartnerName,
			Benefit:     req.Benefit,
			Status:      model.StatusActive,
			CreatedAt:   now,
			ExpiresAt:   now.Add(s.validity),
		}

		err := s.repo.Create(ctx, c)
		if err == nil {
			s.logger.Info().
				Str("coupon_id", c.ID.String()).
				Str("code", c.Code).
				Str("user_id", c.UserID).
				Str("partner_id", c.PartnerID).
				Time("expires_at", c.ExpiresAt).
				Msg("coupon issued")
			return c, nil
		}

		if errors.Is(err, repository.ErrDuplicateCode) {
			s.logger.Warn().
				Str("code", c.Code).
				Int("attempt", attempt+1).
				Msg("code collision, regenerating")
			lastErr = err
			continue
		}

		s.logger.Error().Err(err).Msg("failed to persist coupon")
		return nil, fmt.Errorf("%w: %v", model.ErrPersistence, err)
	}

	return nil, fmt.Errorf("%w: %v", model.ErrPersistence, lastErr)
}

// Validate checks whether a code identifies a redeemable coupon. The check
// is read-only; lazy expiry is applied here regardless of the stored status.
func (s *couponService) Validate(ctx context.Context, code string) (*model.ValidationResult, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))

	c, err := s.repo.GetByCode(ctx, normalized)
	if err != nil {
		s.logger.Error().Err(err).Str("code", normalized).Msg("failed to look up coupon")
		return nil, fmt.Errorf("%w: %v", model.ErrPersistence, err)
	}

	if c == nil {
		s.logger.Debug().Str("code", normalized).Msg("validation: coupon not found")
		return &model.ValidationResult{Valid: false, Reason: model.ErrCodeNotFound}, nil
	}

	if c.IsExpired(s.now()) {
		s.logger.Debug().Str("code", normalized).Msg("validation: coupon expired")
		return &model.ValidationResult{Valid: false, Reason: model.ErrCodeExpired}, nil
	}

	if c.Status == model.StatusUsed {
		s.logger.Debug().Str("code", normalized).Msg("validation: coupon already used")
		return &model.ValidationResult{Valid: false, Reason: model.ErrCodeAlreadyUsed}, nil
	}

	return &model.ValidationResult{Valid: true, Coupon: c}, nil
}

// Consume transitions a coupon to used, at most once. The repository's
// conditional update is the sole source of truth for success: zero affected
// records is always a failure, even right after a passing Validate.
func (s *couponService) Consume(ctx context.Context, id uuid.UUID) error {
	now := s.now()

	consumed, err := s.repo.Consume(ctx, id, now, now)
	if err != nil {
		s.logger.Error().Err(err).Str("coupon_id", id.String()).Msg("failed to consume coupon")
		return fmt.Errorf("%w: %v", model.ErrPersistence, err)
	}

	if !consumed {
		s.logger.Info().
			Str("coupon_id", id.String()).
			Msg("consume rejected; coupon already used or expired")
		return model.ErrAlreadyConsumedOrExpired
	}

	s.logger.Info().Str("coupon_id", id.String()).Msg("coupon consumed")
	return nil
}

// ListForUser returns a user's coupons, newest first. Effective status and
// remaining time are recomputed for display and never written back.
func (s *couponService) ListForUser(ctx context.Context, userID string) ([]model.CouponView, error) {
	coupons, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to list user coupons")
		return nil, fmt.Errorf("%w: %v", model.ErrPersistence, err)
	}

	now := s.now()
	views := make([]model.CouponView, len(coupons))
	for i, c := range coupons {
		views[i] = model.CouponView{
			Coupon:          c,
			EffectiveStatus: c.EffectiveStatus(now),
			RemainingTime:   model.RemainingTime(c.ExpiresAt, now),
		}
	}

	return views, nil
}

// validateIssueRequest checks required fields on an issue request.
func validateIssueRequest(req *model.IssueRequest) error {
	if req == nil {
		return fmt.Errorf("issue request is nil")
	}
	if req.UserID == "" {
		return fmt.Errorf("user ID is required")
	}
	if req.PartnerID == "" {
		return fmt.Errorf("partner ID is required")
	}
	if req.Benefit == "" {
		return fmt.Errorf("benefit is required")
	}
	return nil
}
