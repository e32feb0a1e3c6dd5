package handler

import (
	"net/http"

	"doudou-shop/internal/middleware"
	"doudou-shop/internal/model"
	"doudou-shop/internal/service"

	"github.com/rs/zerolog"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// Create handles POST /api/orders requests. Checkout is open to guests; an
// authenticated caller becomes the order's owner regardless of guest fields.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	if viewer := middleware.UserFrom(r.Context()); viewer != nil {
		req.UserID = &viewer.ID
	}

	order, err := h.service.Create(r.Context(), &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

// List handles GET /api/orders requests.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var filter model.OrderFilter
	if v := q.Get("status"); v != "" {
		status := model.OrderStatus(v)
		filter.Status = &status
	}
	filter.Limit, filter.Offset = pageParams(q)

	orders, err := h.service.List(r.Context(), middleware.UserFrom(r.Context()), filter)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

// Get handles GET /api/orders/{id} requests.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	order, err := h.service.Get(r.Context(), id, middleware.UserFrom(r.Context()))
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// UpdateStatus handles PATCH /api/orders/{id}/status requests.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var req model.UpdateOrderStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// AddItem handles POST /api/orders/{id}/items requests.
func (h *OrderHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var req model.AddOrderItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	order, err := h.service.AddItem(r.Context(), id, &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// RemoveItem handles DELETE /api/orders/{id}/items/{itemID} requests.
func (h *OrderHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	itemID, err := pathID(r, "itemID")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	order, err := h.service.RemoveItem(r.Context(), id, itemID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}
