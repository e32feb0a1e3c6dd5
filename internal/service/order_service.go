package service

import (
	"context"
	"errors"
	"fmt"

	"doudou-shop/internal/model"
	"doudou-shop/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	logger      zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// Create runs the checkout workflow. Every product lookup, stock reservation
// and insert happens inside a single transaction so an order is either
// persisted with all its stock reserved or not at all.
func (s *orderService) Create(ctx context.Context, req *model.CreateOrderRequest) (*model.Order, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, err
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	// Reserve stock per line, in request order, failing fast on the first
	// unavailable product or short line. PriceAtPurchase comes out of the
	// same statement that decrements the stock.
	items := make([]model.OrderItem, len(req.Items))
	for i, line := range req.Items {
		var item *model.OrderItem
		item, err = s.reserveLine(ctx, tx, line.ProductID, line.Quantity)
		if err != nil {
			return nil, err
		}
		items[i] = *item
	}

	order := &model.Order{
		UserID:     req.UserID,
		GuestEmail: req.GuestEmail,
		GuestName:  req.GuestName,
		Status:     model.OrderStatusPending,
		Items:      items,
	}
	order.Total = order.CalculateTotal()

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		s.logger.Error().Err(err).Msg("failed to create order")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}
	if err = s.orderRepo.CreateOrderItems(ctx, tx, order.Items); err != nil {
		s.logger.Error().
			Err(err).
			Int64("order_id", order.ID).
			Int("item_count", len(order.Items)).
			Msg("failed to create order items")
		return nil, fmt.Errorf("failed to create order items: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Int64("order_id", order.ID).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Info().
		Int64("order_id", order.ID).
		Int("item_count", len(order.Items)).
		Str("total", order.Total.String()).
		Msg("order created")

	return order, nil
}

// reserveLine checks purchasability and atomically reserves stock for one
// requested line, returning the item with its snapshot price.
func (s *orderService) reserveLine(ctx context.Context, tx pgx.Tx, productID int64, quantity int) (*model.OrderItem, error) {
	product, err := s.productRepo.GetForCheckout(ctx, tx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product %d: %w", productID, err)
	}
	if product == nil || !product.IsPurchasable() {
		s.logger.Warn().Int64("product_id", productID).Msg("product unavailable for purchase")
		return nil, model.ProductUnavailableError(productID)
	}

	price, err := s.productRepo.ReserveStock(ctx, tx, productID, quantity)
	if err != nil {
		if errors.Is(err, model.ErrInsufficientStock) {
			// The guarded update matched no row. Re-read inside the
			// transaction so the reported availability is current.
			available := product.StockQuantity
			if fresh, rerr := s.productRepo.GetForCheckout(ctx, tx, productID); rerr == nil && fresh != nil {
				available = fresh.StockQuantity
			}
			s.logger.Warn().
				Int64("product_id", productID).
				Int("available", available).
				Int("requested", quantity).
				Msg("insufficient stock")
			return nil, model.InsufficientStockError(productID, available, quantity)
		}
		return nil, fmt.Errorf("failed to reserve stock for product %d: %w", productID, err)
	}

	return &model.OrderItem{
		ProductID:       productID,
		ProductName:     product.Name,
		Quantity:        quantity,
		PriceAtPurchase: price,
	}, nil
}

// Get retrieves an order visible to the viewer. Non-staff viewers only see
// their own orders; everything else reads as not found.
func (s *orderService) Get(ctx context.Context, id int64, viewer *model.User) (*model.Order, error) {
	if viewer == nil {
		return nil, model.ErrUnauthenticated
	}

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int64("order_id", id).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	if !viewer.IsStaff() && (order.UserID == nil || *order.UserID != viewer.ID) {
		return nil, model.ErrOrderNotFound
	}

	return order, nil
}

// List retrieves orders visible to the viewer. Staff see all orders, other
// users are constrained to their own.
func (s *orderService) List(ctx context.Context, viewer *model.User, filter model.OrderFilter) ([]model.Order, error) {
	if viewer == nil {
		return nil, model.ErrUnauthenticated
	}
	if !viewer.IsStaff() {
		filter.UserID = &viewer.ID
	}
	if filter.Status != nil && !model.ValidOrderStatus(*filter.Status) {
		return nil, model.ValidationError(fmt.Sprintf("Unknown order status %q", *filter.Status))
	}
	normalizePage(&filter.Limit, &filter.Offset)

	orders, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return orders, nil
}

// UpdateStatus transitions an order through its lifecycle. The update is
// guarded on the status the transition was decided against, so concurrent
// transitions cannot both win.
func (s *orderService) UpdateStatus(ctx context.Context, id int64, status model.OrderStatus) (*model.Order, error) {
	if !model.ValidOrderStatus(status) {
		return nil, model.ValidationError(fmt.Sprintf("Unknown order status %q", status))
	}

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int64("order_id", id).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	if order.IsTerminal() {
		return nil, model.ErrOrderLocked
	}
	if !model.CanTransition(order.Status, status) {
		return nil, model.InvalidTransitionError(order.Status, status)
	}

	ok, err := s.orderRepo.UpdateStatus(ctx, id, order.Status, status)
	if err != nil {
		s.logger.Error().Err(err).Int64("order_id", id).Msg("failed to update order status")
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	if !ok {
		// Lost a race against another transition.
		return nil, model.NewDomainError(model.ErrCodeConflict, "Order status changed concurrently, retry")
	}

	s.logger.Info().
		Int64("order_id", id).
		Str("from", string(order.Status)).
		Str("to", string(status)).
		Msg("order status updated")

	order.Status = status
	return order, nil
}

// AddItem adds a line to a non-terminal order, reserving stock for it and
// recomputing the stored total in the same transaction.
func (s *orderService) AddItem(ctx context.Context, orderID int64, req *model.AddOrderItemRequest) (*model.Order, error) {
	if req.Quantity <= 0 {
		return nil, model.ErrInvalidQuantity
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to add order item: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	order, err := s.lockModifiableOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	var item *model.OrderItem
	item, err = s.reserveLine(ctx, tx, req.ProductID, req.Quantity)
	if err != nil {
		return nil, err
	}
	item.OrderID = order.ID

	if err = s.orderRepo.AddItem(ctx, tx, item); err != nil {
		if errors.Is(err, model.ErrDuplicateLine) {
			return nil, model.ErrDuplicateLine
		}
		s.logger.Error().Err(err).Int64("order_id", orderID).Msg("failed to add order item")
		return nil, fmt.Errorf("failed to add order item: %w", err)
	}

	if err = s.refreshTotal(ctx, tx, order); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Int64("order_id", orderID).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to add order item: %w", err)
	}

	s.logger.Info().
		Int64("order_id", orderID).
		Int64("product_id", req.ProductID).
		Int("quantity", req.Quantity).
		Msg("order item added")

	return order, nil
}

// RemoveItem removes a line from a non-terminal order and recomputes the
// stored total. Stock reserved by the removed line is not returned.
func (s *orderService) RemoveItem(ctx context.Context, orderID, itemID int64) (*model.Order, error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to remove order item: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	order, err := s.lockModifiableOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	var deleted bool
	deleted, err = s.orderRepo.DeleteItem(ctx, tx, orderID, itemID)
	if err != nil {
		s.logger.Error().Err(err).Int64("order_id", orderID).Int64("item_id", itemID).Msg("failed to delete order item")
		return nil, fmt.Errorf("failed to remove order item: %w", err)
	}
	if !deleted {
		err = model.ErrOrderItemNotFound
		return nil, err
	}

	if err = s.refreshTotal(ctx, tx, order); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Int64("order_id", orderID).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to remove order item: %w", err)
	}

	s.logger.Info().
		Int64("order_id", orderID).
		Int64("item_id", itemID).
		Msg("order item removed")

	return order, nil
}

// lockModifiableOrder row-locks the order and rejects terminal orders.
func (s *orderService) lockModifiableOrder(ctx context.Context, tx pgx.Tx, orderID int64) (*model.Order, error) {
	order, err := s.orderRepo.GetByIDForUpdate(ctx, tx, orderID)
	if err != nil {
		s.logger.Error().Err(err).Int64("order_id", orderID).Msg("failed to lock order")
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	if !order.CanModifyItems() {
		return nil, model.ErrOrderLocked
	}
	return order, nil
}

// refreshTotal re-reads the order's items inside the transaction, recomputes
// the total and persists it on the locked order row.
func (s *orderService) refreshTotal(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	items, err := s.orderRepo.GetItems(ctx, tx, order.ID)
	if err != nil {
		s.logger.Error().Err(err).Int64("order_id", order.ID).Msg("failed to load order items")
		return fmt.Errorf("failed to load order items: %w", err)
	}

	order.Items = items
	order.Total = order.CalculateTotal()

	if err := s.orderRepo.UpdateTotal(ctx, tx, order.ID, order.Total); err != nil {
		s.logger.Error().Err(err).Int64("order_id", order.ID).Msg("failed to update order total")
		return fmt.Errorf("failed to update order total: %w", err)
	}
	return nil
}

// validateCreateRequest enforces the checkout preconditions before any
// database work starts.
func (s *orderService) validateCreateRequest(req *model.CreateOrderRequest) error {
	if req == nil || len(req.Items) == 0 {
		return model.ErrEmptyOrder
	}
	if req.UserID == nil && req.GuestEmail == "" {
		return model.ErrMissingIdentity
	}

	seen := make(map[int64]struct{}, len(req.Items))
	for i, line := range req.Items {
		if line.ProductID <= 0 {
			return model.ValidationError(fmt.Sprintf("Item %d: a product id is required", i))
		}
		if line.Quantity <= 0 {
			s.logger.Warn().
				Int("item_index", i).
				Int64("product_id", line.ProductID).
				Int("quantity", line.Quantity).
				Msg("invalid quantity")
			return model.ErrInvalidQuantity
		}
		if _, dup := seen[line.ProductID]; dup {
			return model.ErrDuplicateLine
		}
		seen[line.ProductID] = struct{}{}
	}

	return nil
}

// normalizePage clamps paging parameters to sane bounds.
func normalizePage(limit, offset *int) {
	if *limit <= 0 {
		*limit = defaultPageSize
	}
	if *limit > maxPageSize {
		*limit = maxPageSize
	}
	if *offset < 0 {
		*offset = 0
	}
}
