package model

import "time"

// Coupon is a standalone discount code. Coupons are validated and listed but
// never linked to an order.
type Coupon struct {
	ID              int64     `json:"id" db:"id"`
	Code            string    `json:"code" db:"code"`
	DiscountPercent int       `json:"discountPercent" db:"discount_percent"`
	Active          bool      `json:"active" db:"active"`
	ValidFrom       time.Time `json:"validFrom" db:"valid_from"`
	ValidUntil      time.Time `json:"validUntil" db:"valid_until"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
}

// IsValid reports whether the coupon is active and inside its validity window.
func (c *Coupon) IsValid(now time.Time) bool {
	return c.Active && !now.Before(c.ValidFrom) && !now.After(c.ValidUntil)
}

// StatusDisplay mirrors the admin UI status label.
func (c *Coupon) StatusDisplay(now time.Time) string {
	switch {
	case !c.Active:
		return "Inactive"
	case now.Before(c.ValidFrom):
		return "Not started"
	case now.After(c.ValidUntil):
		return "Expired"
	default:
		return "Active"
	}
}

// CreateCouponRequest is the admin payload for creating a coupon.
type CreateCouponRequest struct {
	Code            string    `json:"code" validate:"required,max=20"`
	DiscountPercent int       `json:"discountPercent" validate:"gte=0,lte=100"`
	Active          bool      `json:"active"`
	ValidFrom       time.Time `json:"validFrom" validate:"required"`
	ValidUntil      time.Time `json:"validUntil" validate:"required,gtfield=ValidFrom"`
}
