package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"doudou-shop/internal/model"
	"doudou-shop/internal/repository"

	"github.com/rs/zerolog"
)

// couponService implements CouponService.
type couponService struct {
	couponRepo repository.CouponRepository
	logger     zerolog.Logger
	now        func() time.Time
}

// NewCouponService creates a new coupon service.
func NewCouponService(couponRepo repository.CouponRepository, logger zerolog.Logger) CouponService {
	return &couponService{
		couponRepo: couponRepo,
		logger:     logger.With().Str("service", "coupon").Logger(),
		now:        time.Now,
	}
}

// ListValid retrieves active coupons currently inside their validity window.
func (s *couponService) ListValid(ctx context.Context) ([]model.Coupon, error) {
	coupons, err := s.couponRepo.ListValid(ctx, s.now())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list coupons")
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	if coupons == nil {
		coupons = []model.Coupon{}
	}
	return coupons, nil
}

// Create creates a coupon. Codes are stored uppercased so lookups are
// case-insensitive.
func (s *couponService) Create(ctx context.Context, req *model.CreateCouponRequest) (*model.Coupon, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return nil, model.ValidationError("Coupon code is required")
	}
	if !req.ValidUntil.After(req.ValidFrom) {
		return nil, model.ValidationError("Coupon validity window must end after it starts")
	}

	coupon := &model.Coupon{
		Code:            code,
		DiscountPercent: req.DiscountPercent,
		Active:          req.Active,
		ValidFrom:       req.ValidFrom,
		ValidUntil:      req.ValidUntil,
	}

	if err := s.couponRepo.Create(ctx, coupon); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("coupon_id", coupon.ID).
		Str("code", coupon.Code).
		Msg("coupon created")

	return coupon, nil
}
