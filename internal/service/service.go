package service

import (
	"context"

	"doudou-shop/internal/model"
)

// CatalogService defines operations over products and categories.
type CatalogService interface {
	// ListProducts retrieves active products matching the filter.
	ListProducts(ctx context.Context, filter model.ProductFilter) ([]model.ProductDetail, error)

	// GetProduct retrieves a product detail by numeric id or slug. Inactive
	// products are only visible to staff.
	GetProduct(ctx context.Context, idOrSlug string, staff bool) (*model.ProductDetail, error)

	// CreateProduct creates a product, deriving the slug from the name when
	// absent. Admin operation.
	CreateProduct(ctx context.Context, req *model.CreateProductRequest) (*model.ProductDetail, error)

	// UpdateProduct replaces a product's attributes. Admin operation.
	UpdateProduct(ctx context.Context, id int64, req *model.UpdateProductRequest) (*model.ProductDetail, error)

	// DeleteProduct removes a product unless order items reference it. Admin operation.
	DeleteProduct(ctx context.Context, id int64) error

	// ListCategories retrieves active categories.
	ListCategories(ctx context.Context) ([]model.Category, error)

	// CreateCategory creates a category. Admin operation.
	CreateCategory(ctx context.Context, req *model.CreateCategoryRequest) (*model.Category, error)
}

// CouponService defines operations over coupons.
type CouponService interface {
	// ListValid retrieves active coupons currently inside their validity window.
	ListValid(ctx context.Context) ([]model.Coupon, error)

	// Create creates a coupon. Admin operation.
	Create(ctx context.Context, req *model.CreateCouponRequest) (*model.Coupon, error)
}

// OrderService defines the order creation workflow and lifecycle management.
type OrderService interface {
	// Create runs the checkout workflow: validates the request, reserves
	// stock with a price snapshot per line and persists the order with its
	// items and computed total in one transaction.
	Create(ctx context.Context, req *model.CreateOrderRequest) (*model.Order, error)

	// Get retrieves an order visible to the given viewer.
	Get(ctx context.Context, id int64, viewer *model.User) (*model.Order, error)

	// List retrieves orders visible to the given viewer.
	List(ctx context.Context, viewer *model.User, filter model.OrderFilter) ([]model.Order, error)

	// UpdateStatus transitions an order through its lifecycle. Admin operation.
	UpdateStatus(ctx context.Context, id int64, status model.OrderStatus) (*model.Order, error)

	// AddItem adds a line to a non-terminal order, reserving stock and
	// recomputing the total. Admin operation.
	AddItem(ctx context.Context, orderID int64, req *model.AddOrderItemRequest) (*model.Order, error)

	// RemoveItem removes a line from a non-terminal order and recomputes the
	// total. Admin operation.
	RemoveItem(ctx context.Context, orderID, itemID int64) (*model.Order, error)
}

// AuthService defines staff authentication and dashboard aggregation.
type AuthService interface {
	// Login checks credentials and issues a bearer token for staff accounts.
	Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error)

	// Authenticate resolves a bearer token to its user. Returns (nil, nil)
	// for unknown tokens.
	Authenticate(ctx context.Context, token string) (*model.User, error)

	// DashboardStats aggregates counts for the admin dashboard.
	DashboardStats(ctx context.Context) (*model.DashboardStats, error)
}
