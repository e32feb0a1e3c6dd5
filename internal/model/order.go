package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// allowedTransitions encodes the status machine:
// PENDING -> PROCESSING -> COMPLETED, PENDING|PROCESSING -> CANCELLED.
// COMPLETED and CANCELLED are terminal.
var allowedTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusCompleted, OrderStatusCancelled},
}

// ValidOrderStatus reports whether s is one of the known statuses.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Order is a customer order. Either UserID or GuestEmail identifies the
// buyer; Total is derived from the items and never set by callers.
type Order struct {
	ID         int64           `json:"id" db:"id"`
	UserID     *int64          `json:"userId,omitempty" db:"user_id"`
	GuestEmail string          `json:"guestEmail,omitempty" db:"guest_email"`
	GuestName  string          `json:"guestName,omitempty" db:"guest_name"`
	Status     OrderStatus     `json:"status" db:"status"`
	Total      decimal.Decimal `json:"total" db:"total"`
	Items      []OrderItem     `json:"items"`
	CreatedAt  time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time       `json:"updatedAt" db:"updated_at"`
}

// IsTerminal reports whether the order has reached a final status.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusCompleted || o.Status == OrderStatusCancelled
}

// CanModifyItems reports whether line items may still be added or removed.
func (o *Order) CanModifyItems() bool {
	return !o.IsTerminal()
}

// CalculateTotal recomputes the order total as the sum of item subtotals.
// It is the single source of truth for the Total field and is idempotent.
func (o *Order) CalculateTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// OrderItem is a line on an order. PriceAtPurchase is a snapshot taken at
// reservation time and never recomputed from the live product price.
type OrderItem struct {
	ID              int64           `json:"id" db:"id"`
	OrderID         int64           `json:"-" db:"order_id"`
	ProductID       int64           `json:"productId" db:"product_id"`
	ProductName     string          `json:"productName,omitempty" db:"product_name"`
	Quantity        int             `json:"quantity" db:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"priceAtPurchase" db:"price_at_purchase"`
}

// Subtotal is quantity times the snapshot price.
func (i *OrderItem) Subtotal() decimal.Decimal {
	return i.PriceAtPurchase.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderLine is one requested (product, quantity) pair at checkout.
type OrderLine struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

// CreateOrderRequest is the checkout payload. The authenticated user, when
// present, takes precedence over the guest fields.
type CreateOrderRequest struct {
	UserID     *int64      `json:"-"`
	GuestEmail string      `json:"guestEmail" validate:"omitempty,email"`
	GuestName  string      `json:"guestName" validate:"omitempty,max=100"`
	Items      []OrderLine `json:"items" validate:"dive"`
}

// UpdateOrderStatusRequest asks for a lifecycle transition.
type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" validate:"required"`
}

// AddOrderItemRequest adds a line to an existing, non-terminal order.
type AddOrderItemRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	UserID *int64 // nil lists all orders (admin)
	Status *OrderStatus
	Limit  int
	Offset int
}
