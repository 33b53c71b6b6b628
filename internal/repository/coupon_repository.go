package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tavares-club/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// uniqueViolation is the Postgres error code for a unique constraint breach.
const uniqueViolation = "23505"

// couponRepository implements the CouponRepository interface using PostgreSQL.
type couponRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCouponRepository creates a new PostgreSQL-backed coupon repository.
func NewCouponRepository(pool *pgxpool.Pool, logger zerolog.Logger) CouponRepository {
	return &couponRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "coupon").Logger(),
	}
}

// Create inserts a new coupon record.
func (r *couponRepository) Create(ctx context.Context, coupon *model.Coupon) error {
	query := `
		INSERT INTO coupons (id, code, user_id, user_name, partner_id, partner_name, benefit, status, created_at, expires_at, used_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.pool.Exec(ctx, query,
		coupon.ID,
		coupon.Code,
		coupon.UserID,
		coupon.UserName,
		coupon.PartnerID,
		coupon.PartnerName,
		coupon.Benefit,
		coupon.Status,
		coupon.CreatedAt,
		coupon.ExpiresAt,
		coupon.UsedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			r.logger.Warn().
				Str("code", coupon.Code).
				Msg("coupon code collision on insert")
			return ErrDuplicateCode
		}
		r.logger.Error().
			Err(err).
			Str("coupon_id", coupon.ID.String()).
			Msg("failed to create coupon")
		return fmt.Errorf("failed to create coupon: %w", err)
	}

	r.logger.Debug().
		Str("coupon_id", coupon.ID.String()).
		Str("code", coupon.Code).
		Msg("coupon created successfully")

	return nil
}

// GetByCode retrieves a coupon by its exact code.
func (r *couponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	query := `
		SELECT id, code, user_id, user_name, partner_id, partner_name, benefit, status, created_at, expires_at, used_at
		FROM coupons
		WHERE code = $1
	`

	var c model.Coupon
	err := r.pool.QueryRow(ctx, query, code).Scan(
		&c.ID,
		&c.Code,
		&c.UserID,
		&c.UserName,
		&c.PartnerID,
		&c.PartnerName,
		&c.Benefit,
		&c.Status,
		&c.CreatedAt,
		&c.ExpiresAt,
		&c.UsedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("code", code).Msg("coupon not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("code", code).Msg("failed to query coupon")
		return nil, fmt.Errorf("failed to query coupon: %w", err)
	}

	return &c, nil
}

// ListByUser retrieves all coupons owned by a user, newest first.
func (r *couponRepository) ListByUser(ctx context.Context, userID string) ([]model.Coupon, error) {
	query := `
		SELECT id, code, user_id, user_name, partner_id, partner_name, benefit, status, created_at, expires_at, used_at
		FROM coupons
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("failed to query user coupons")
		return nil, fmt.Errorf("failed to query user coupons: %w", err)
	}
	defer rows.Close()

	var coupons []model.Coupon
	for rows.Next() {
		var c model.Coupon
		err := rows.Scan(
			&c.ID,
			&c.Code,
			&c.UserID,
			&c.UserName,
			&c.PartnerID,
			&c.PartnerName,
			&c.Benefit,
			&c.Status,
			&c.CreatedAt,
			&c.ExpiresAt,
			&c.UsedAt,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan coupon row")
			return nil, fmt.Errorf("failed to scan coupon: %w", err)
		}
		coupons = append(coupons, c)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating coupon rows")
		return nil, fmt.Errorf("error iterating coupons: %w", err)
	}

	return coupons, nil
}

// Consume atomically transitions the coupon to used. The conditional WHERE
// clause is the at-most-once guarantee: under concurrent attempts exactly
// one update affects a row, every other attempt sees zero rows affected.
func (r *couponRepository) Consume(ctx context.Context, id uuid.UUID, usedAt, now time.Time) (bool, error) {
	query := `
		UPDATE coupons
		SET status = $1, used_at = $2
		WHERE id = $3 AND status = $4 AND expires_at > $5
	`

	tag, err := r.pool.Exec(ctx, query, model.StatusUsed, usedAt, id, model.StatusActive, now)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("coupon_id", id.String()).
			Msg("failed to consume coupon")
		return false, fmt.Errorf("failed to consume coupon: %w", err)
	}

	affected := tag.RowsAffected()
	if affected == 0 {
		r.logger.Debug().
			Str("coupon_id", id.String()).
			Msg("consume affected zero rows; coupon already used or expired")
		return false, nil
	}

	r.logger.Debug().
		Str("coupon_id", id.String()).
		Msg("coupon consumed successfully")

	return true, nil
}
