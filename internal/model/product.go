package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductStatus controls whether a product is purchasable and publicly visible.
type ProductStatus string

const (
	ProductStatusDraft  ProductStatus = "draft"
	ProductStatusActive ProductStatus = "active"
	ProductStatusHidden ProductStatus = "hidden"
)

// Stock status buckets derived from the on-hand quantity.
const (
	StockStatusOut     = "out-of-stock"
	StockStatusLimited = "limited"
	StockStatusIn      = "in-stock"

	// limitedStockThreshold is the quantity below which a product is
	// reported as "limited".
	limitedStockThreshold = 10
)

// Category groups products in the catalogue.
type Category struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Slug      string    `json:"slug" db:"slug"`
	IsActive  bool      `json:"isActive" db:"is_active"`
	Ordering  int       `json:"ordering" db:"ordering"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Product represents a catalogue product with pricing, an optional
// promotional price window and an on-hand stock quantity.
type Product struct {
	ID            int64           `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	Slug          string          `json:"slug" db:"slug"`
	Description   string          `json:"description" db:"description"`
	CategoryID    *int64          `json:"categoryId,omitempty" db:"category_id"`
	Price         decimal.Decimal `json:"price" db:"price"`
	PromoPrice    *decimal.Decimal `json:"promoPrice,omitempty" db:"promo_price"`
	PromoStart    *time.Time      `json:"promoStart,omitempty" db:"promo_start"`
	PromoEnd      *time.Time      `json:"promoEnd,omitempty" db:"promo_end"`
	StockQuantity int             `json:"stockQuantity" db:"stock_quantity"`
	Status        ProductStatus   `json:"status" db:"status"`
	IsNew         bool            `json:"isNew" db:"is_new"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time       `json:"updatedAt" db:"updated_at"`
}

// CurrentPrice returns the effective price at the given instant: the promo
// price while now falls within [PromoStart, PromoEnd], the base price
// otherwise.
func (p *Product) CurrentPrice(now time.Time) decimal.Decimal {
	if p.PromoPrice != nil && p.PromoStart != nil && p.PromoEnd != nil {
		if !now.Before(*p.PromoStart) && !now.After(*p.PromoEnd) {
			return *p.PromoPrice
		}
	}
	return p.Price
}

// IsInStock reports whether any stock is on hand.
func (p *Product) IsInStock() bool {
	return p.StockQuantity > 0
}

// StockStatus buckets the stock quantity for display.
func (p *Product) StockStatus() string {
	switch {
	case p.StockQuantity == 0:
		return StockStatusOut
	case p.StockQuantity < limitedStockThreshold:
		return StockStatusLimited
	default:
		return StockStatusIn
	}
}

// IsPurchasable reports whether the product may appear on a new order line.
func (p *Product) IsPurchasable() bool {
	return p.Status == ProductStatusActive
}

// ProductImage is an image attached to a product, ordered for display.
type ProductImage struct {
	ID        int64     `json:"id" db:"id"`
	ProductID int64     `json:"-" db:"product_id"`
	URL       string    `json:"url" db:"url"`
	Ordering  int       `json:"ordering" db:"ordering"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// ProductDetail is the full public representation of a product, including
// derived pricing and stock fields.
type ProductDetail struct {
	Product
	Category     *Category       `json:"category,omitempty"`
	Images       []ProductImage  `json:"images"`
	CurrentPrice decimal.Decimal `json:"currentPrice"`
	StockStatus  string          `json:"stockStatus"`
	IsInStock    bool            `json:"isInStock"`
}

// NewProductDetail builds the detail view of a product at the given instant.
func NewProductDetail(p Product, category *Category, images []ProductImage, now time.Time) ProductDetail {
	if images == nil {
		images = []ProductImage{}
	}
	return ProductDetail{
		Product:      p,
		Category:     category,
		Images:       images,
		CurrentPrice: p.CurrentPrice(now),
		StockStatus:  p.StockStatus(),
		IsInStock:    p.IsInStock(),
	}
}

// CreateProductRequest is the admin payload for creating a product. Slug is
// derived from the name when absent.
type CreateProductRequest struct {
	Name          string           `json:"name" validate:"required,max=200"`
	Slug          string           `json:"slug" validate:"omitempty,max=200"`
	Description   string           `json:"description"`
	CategoryID    *int64           `json:"categoryId" validate:"omitempty,gt=0"`
	Price         decimal.Decimal  `json:"price"`
	PromoPrice    *decimal.Decimal `json:"promoPrice"`
	PromoStart    *time.Time       `json:"promoStart"`
	PromoEnd      *time.Time       `json:"promoEnd"`
	StockQuantity int              `json:"stockQuantity" validate:"gte=0"`
	Status        ProductStatus    `json:"status" validate:"omitempty,oneof=draft active hidden"`
	IsNew         bool             `json:"isNew"`
}

// UpdateProductRequest mirrors CreateProductRequest for full updates.
type UpdateProductRequest = CreateProductRequest

// CreateCategoryRequest is the admin payload for creating a category.
type CreateCategoryRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Slug     string `json:"slug" validate:"omitempty,max=200"`
	IsActive *bool  `json:"isActive"`
	Ordering int    `json:"ordering"`
}

// ProductFilter narrows the public product listing.
type ProductFilter struct {
	CategorySlug string
	IsNew        *bool
	Search       string
	Ordering     string // created_at | price | name, "-" prefix for descending
	Limit        int
	Offset       int
}
