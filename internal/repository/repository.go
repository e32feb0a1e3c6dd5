package repository

import (
	"context"
	"time"

	"doudou-shop/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ProductRepository defines data access for the product catalogue and the
// checkout-facing product store.
type ProductRepository interface {
	// List retrieves active products matching the filter.
	List(ctx context.Context, filter model.ProductFilter) ([]model.Product, error)

	// GetByID retrieves a product by id regardless of status.
	GetByID(ctx context.Context, id int64) (*model.Product, error)

	// GetBySlug retrieves a product by slug regardless of status.
	GetBySlug(ctx context.Context, slug string) (*model.Product, error)

	// GetImages retrieves a product's images ordered for display.
	GetImages(ctx context.Context, productID int64) ([]model.ProductImage, error)

	// Create inserts a product. Returns model.ErrSlugTaken on slug conflict.
	Create(ctx context.Context, p *model.Product) error

	// Update replaces a product's attributes. Returns model.ErrProductNotFound
	// if the id is unknown and model.ErrSlugTaken on slug conflict.
	Update(ctx context.Context, p *model.Product) error

	// Delete removes a product. Returns model.ErrProductReferenced when order
	// items still reference it, model.ErrProductNotFound when absent.
	Delete(ctx context.Context, id int64) error

	// CountAll returns total and active product counts.
	CountAll(ctx context.Context) (total, active int64, err error)

	// GetForCheckout fetches a product by id inside the order transaction.
	// Returns (nil, nil) when the product does not exist.
	GetForCheckout(ctx context.Context, tx pgx.Tx, id int64) (*model.Product, error)

	// ReserveStock atomically verifies quantity <= stock, decrements stock and
	// returns the current price evaluated in the same statement. Returns
	// model.ErrInsufficientStock when the guarded update matches no row.
	ReserveStock(ctx context.Context, tx pgx.Tx, id int64, quantity int) (decimal.Decimal, error)
}

// CategoryRepository defines data access for categories.
type CategoryRepository interface {
	// ListActive retrieves active categories in display order.
	ListActive(ctx context.Context) ([]model.Category, error)

	// GetByID retrieves a category by id. Returns (nil, nil) when absent.
	GetByID(ctx context.Context, id int64) (*model.Category, error)

	// Create inserts a category. Returns model.ErrSlugTaken on slug conflict.
	Create(ctx context.Context, c *model.Category) error

	// Count returns the number of categories.
	Count(ctx context.Context) (int64, error)
}

// CouponRepository defines data access for coupons.
type CouponRepository interface {
	// ListValid retrieves active coupons whose validity window contains now.
	ListValid(ctx context.Context, now time.Time) ([]model.Coupon, error)

	// Create inserts a coupon. Returns a CONFLICT domain error on duplicate code.
	Create(ctx context.Context, c *model.Coupon) error
}

// OrderRepository defines data access for orders and their items. Mutating
// operations that must be atomic with stock reservation take an explicit
// transaction handle.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction and
	// fills in its id and timestamps.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves an order with its items. Returns (nil, nil) when absent.
	GetByID(ctx context.Context, id int64) (*model.Order, error)

	// GetByIDForUpdate retrieves and row-locks an order (without items) within
	// the provided transaction. Returns (nil, nil) when absent.
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*model.Order, error)

	// List retrieves orders matching the filter, items included.
	List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error)

	// UpdateStatus transitions an order from one status to another. Returns
	// false when the order no longer has the expected from status.
	UpdateStatus(ctx context.Context, id int64, from, to model.OrderStatus) (bool, error)

	// GetItems retrieves an order's items within the provided transaction.
	GetItems(ctx context.Context, tx pgx.Tx, orderID int64) ([]model.OrderItem, error)

	// AddItem inserts a single item within the provided transaction. Returns
	// model.ErrDuplicateLine when the order already carries the product.
	AddItem(ctx context.Context, tx pgx.Tx, item *model.OrderItem) error

	// DeleteItem removes an item within the provided transaction. Returns
	// false when no such item belongs to the order.
	DeleteItem(ctx context.Context, tx pgx.Tx, orderID, itemID int64) (bool, error)

	// UpdateTotal persists a recomputed order total within the transaction.
	UpdateTotal(ctx context.Context, tx pgx.Tx, orderID int64, total decimal.Decimal) error

	// Count returns the number of orders.
	Count(ctx context.Context) (int64, error)

	// CountByStatus returns order counts per status.
	CountByStatus(ctx context.Context) (map[model.OrderStatus]int64, error)

	// CompletedRevenue sums the totals of COMPLETED orders.
	CompletedRevenue(ctx context.Context) (decimal.Decimal, error)
}

// UserRepository defines data access for accounts and bearer tokens.
type UserRepository interface {
	// GetByEmail retrieves a user by email. Returns (nil, nil) when absent.
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// Create inserts a user and fills in its id and timestamps.
	Create(ctx context.Context, u *model.User) error

	// SaveToken persists an issued bearer token for a user.
	SaveToken(ctx context.Context, token string, userID int64) error

	// GetByToken resolves a bearer token to its user. Returns (nil, nil) for
	// unknown tokens.
	GetByToken(ctx context.Context, token string) (*model.User, error)
}
