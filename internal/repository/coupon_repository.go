package repository

import (
	"context"
	"fmt"
	"time"

	"doudou-shop/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

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

// ListValid retrieves active coupons whose validity window contains now.
func (r *couponRepository) ListValid(ctx context.Context, now time.Time) ([]model.Coupon, error) {
	query := `
		SELECT id, code, discount_percent, active, valid_from, valid_until, created_at
		FROM coupons
		WHERE active = TRUE AND valid_from <= $1 AND valid_until >= $1
		ORDER BY valid_until, code
	`

	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query coupons")
		return nil, fmt.Errorf("failed to query coupons: %w", err)
	}
	defer rows.Close()

	var coupons []model.Coupon
	for rows.Next() {
		var c model.Coupon
		if err := rows.Scan(&c.ID, &c.Code, &c.DiscountPercent, &c.Active, &c.ValidFrom, &c.ValidUntil, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan coupon: %w", err)
		}
		coupons = append(coupons, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating coupons: %w", err)
	}

	return coupons, nil
}

// Create inserts a coupon.
func (r *couponRepository) Create(ctx context.Context, c *model.Coupon) error {
	query := `
		INSERT INTO coupons (code, discount_percent, active, valid_from, valid_until)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(ctx, query, c.Code, c.DiscountPercent, c.Active, c.ValidFrom, c.ValidUntil).
		Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.NewDomainError(model.ErrCodeConflict, "Coupon code already exists")
		}
		r.logger.Error().Err(err).Str("code", c.Code).Msg("failed to create coupon")
		return fmt.Errorf("failed to create coupon: %w", err)
	}

	return nil
}
