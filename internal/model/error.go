package model

import (
	"fmt"
	"net/http"
)

// Standard error codes for API responses
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeProductUnavail    = "PRODUCT_UNAVAILABLE"
	ErrCodeInsufficientStock = "INSUFFICIENT_STOCK"
	ErrCodeOrderLocked       = "ORDER_LOCKED"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeUnauthenticated   = "UNAUTHENTICATED"
	ErrCodePermissionDenied  = "PERMISSION_DENIED"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardised error response body.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Detail  map[string]any `json:"detail,omitempty"`
}

// DomainError is a business-logic error with a machine-readable code and an
// optional structured detail payload (e.g. available vs requested stock).
type DomainError struct {
	Code    string
	Message string
	Detail  map[string]any
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is makes sentinel comparisons with errors.Is work on the code alone, so
// detail-carrying instances still match their sentinel.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

// HTTPStatus maps the error code to an HTTP status.
func (e *DomainError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeValidation, ErrCodeProductUnavail, ErrCodeInsufficientStock:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthenticated:
		return http.StatusUnauthorized
	case ErrCodePermissionDenied:
		return http.StatusForbidden
	case ErrCodeOrderLocked, ErrCodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// NewDomainError creates a new domain error.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrEmptyOrder         = NewDomainError(ErrCodeValidation, "Order must contain at least one item")
	ErrMissingIdentity    = NewDomainError(ErrCodeValidation, "Either an authenticated user or a guest email is required")
	ErrInvalidQuantity    = NewDomainError(ErrCodeValidation, "Quantity must be greater than zero")
	ErrDuplicateLine      = NewDomainError(ErrCodeValidation, "An order may contain each product at most once")
	ErrProductUnavailable = NewDomainError(ErrCodeProductUnavail, "Product is unavailable for purchase")
	ErrInsufficientStock  = NewDomainError(ErrCodeInsufficientStock, "Insufficient stock")
	ErrOrderNotFound      = NewDomainError(ErrCodeNotFound, "Order not found")
	ErrProductNotFound    = NewDomainError(ErrCodeNotFound, "Product not found")
	ErrCategoryNotFound   = NewDomainError(ErrCodeNotFound, "Category not found")
	ErrOrderItemNotFound  = NewDomainError(ErrCodeNotFound, "Order item not found")
	ErrOrderLocked        = NewDomainError(ErrCodeOrderLocked, "Order is completed or cancelled and can no longer be modified")
	ErrProductReferenced  = NewDomainError(ErrCodeConflict, "Product is referenced by existing orders and cannot be deleted")
	ErrSlugTaken          = NewDomainError(ErrCodeConflict, "Slug is already in use")
	ErrUnauthenticated    = NewDomainError(ErrCodeUnauthenticated, "Authentication required")
	ErrInvalidCredentials = NewDomainError(ErrCodeUnauthenticated, "Invalid email or password")
	ErrPermissionDenied   = NewDomainError(ErrCodePermissionDenied, "You do not have permission to perform this action")
)

// ProductUnavailableError returns a PRODUCT_UNAVAILABLE error naming the product.
func ProductUnavailableError(productID int64) *DomainError {
	return &DomainError{
		Code:    ErrCodeProductUnavail,
		Message: fmt.Sprintf("Product %d is unavailable for purchase", productID),
		Detail:  map[string]any{"product_id": productID},
	}
}

// InsufficientStockError returns an INSUFFICIENT_STOCK error carrying the
// available-vs-requested detail for the failing product.
func InsufficientStockError(productID int64, available, requested int) *DomainError {
	return &DomainError{
		Code:    ErrCodeInsufficientStock,
		Message: fmt.Sprintf("Insufficient stock for product %d: %d available, %d requested", productID, available, requested),
		Detail: map[string]any{
			"product_id": productID,
			"available":  available,
			"requested":  requested,
		},
	}
}

// ValidationError returns a VALIDATION_ERROR with a custom message.
func ValidationError(message string) *DomainError {
	return NewDomainError(ErrCodeValidation, message)
}

// InvalidTransitionError reports a disallowed order status transition.
func InvalidTransitionError(from, to OrderStatus) *DomainError {
	return &DomainError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf("Cannot transition order from %s to %s", from, to),
		Detail:  map[string]any{"from": string(from), "to": string(to)},
	}
}
