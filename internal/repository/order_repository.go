package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"doudou-shop/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (user_id, guest_email, guest_name, status, total)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := tx.QueryRow(ctx, query,
		order.UserID, order.GuestEmail, order.GuestName, order.Status, order.Total,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().Int64("order_id", order.ID).Msg("order created")

	return nil
}

// CreateOrderItems inserts multiple order items within the provided transaction.
func (r *orderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (order_id, product_id, quantity, price_at_purchase)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	batch := &pgx.Batch{}
	for i := range items {
		batch.Queue(query, items[i].OrderID, items[i].ProductID, items[i].Quantity, items[i].PriceAtPurchase)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := range items {
		if err := results.QueryRow().Scan(&items[i].ID); err != nil {
			r.logger.Error().
				Err(err).
				Int64("order_id", items[i].OrderID).
				Int64("product_id", items[i].ProductID).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	r.logger.Debug().Int("count", len(items)).Msg("order items created")

	return nil
}

const orderColumns = `id, user_id, guest_email, guest_name, status, total, created_at, updated_at`

func scanOrder(row pgx.Row, o *model.Order) error {
	return row.Scan(&o.ID, &o.UserID, &o.GuestEmail, &o.GuestName, &o.Status, &o.Total, &o.CreatedAt, &o.UpdatedAt)
}

// GetByID retrieves an order by its ID along with its items.
func (r *orderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1`, orderColumns)

	var order model.Order
	err := scanOrder(r.pool.QueryRow(ctx, query, id), &order)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("order_id", id).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("order_id", id).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	items, err := r.queryItems(ctx, r.pool, []int64{id})
	if err != nil {
		return nil, err
	}
	order.Items = items[id]
	if order.Items == nil {
		order.Items = []model.OrderItem{}
	}

	return &order, nil
}

// GetByIDForUpdate retrieves and row-locks an order within the transaction.
func (r *orderRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*model.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1 FOR UPDATE`, orderColumns)

	var order model.Order
	err := scanOrder(tx.QueryRow(ctx, query, id), &order)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("order_id", id).Msg("failed to lock order")
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}

	return &order, nil
}

// List retrieves orders matching the filter, items included.
func (r *orderRepository) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	var (
		conds []string
		args  []any
	)

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit)
	limitPos := len(args)
	args = append(args, filter.Offset)
	offsetPos := len(args)

	query := fmt.Sprintf(`
		SELECT %s
		FROM orders
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, orderColumns, where, limitPos, offsetPos)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var (
		orders []model.Order
		ids    []int64
	)
	for rows.Next() {
		var o model.Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		o.Items = []model.OrderItem{}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	if len(ids) > 0 {
		itemsByOrder, err := r.queryItems(ctx, r.pool, ids)
		if err != nil {
			return nil, err
		}
		for i := range orders {
			if items, ok := itemsByOrder[orders[i].ID]; ok {
				orders[i].Items = items
			}
		}
	}

	return orders, nil
}

// querier is the subset of pgxpool.Pool and pgx.Tx used for reads.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// queryItems loads items for a set of orders, keyed by order id. Product
// names are joined in for display.
func (r *orderRepository) queryItems(ctx context.Context, q querier, orderIDs []int64) (map[int64][]model.OrderItem, error) {
	query := `
		SELECT i.id, i.order_id, i.product_id, p.name, i.quantity, i.price_at_purchase
		FROM order_items i
		JOIN products p ON p.id = i.product_id
		WHERE i.order_id = ANY($1)
		ORDER BY i.id
	`

	rows, err := q.Query(ctx, query, orderIDs)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query order items")
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	itemsByOrder := make(map[int64][]model.OrderItem)
	for rows.Next() {
		var item model.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.Quantity, &item.PriceAtPurchase); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		itemsByOrder[item.OrderID] = append(itemsByOrder[item.OrderID], item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return itemsByOrder, nil
}

// GetItems retrieves an order's items within the provided transaction.
func (r *orderRepository) GetItems(ctx context.Context, tx pgx.Tx, orderID int64) ([]model.OrderItem, error) {
	itemsByOrder, err := r.queryItems(ctx, tx, []int64{orderID})
	if err != nil {
		return nil, err
	}
	items := itemsByOrder[orderID]
	if items == nil {
		items = []model.OrderItem{}
	}
	return items, nil
}

// UpdateStatus transitions an order between statuses. The from-status guard
// makes the transition check atomic with the write.
func (r *orderRepository) UpdateStatus(ctx context.Context, id int64, from, to model.OrderStatus) (bool, error) {
	query := `
		UPDATE orders
		SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2
	`

	tag, err := r.pool.Exec(ctx, query, id, from, to)
	if err != nil {
		r.logger.Error().Err(err).Int64("order_id", id).Msg("failed to update order status")
		return false, fmt.Errorf("failed to update order status: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// AddItem inserts a single item within the provided transaction.
func (r *orderRepository) AddItem(ctx context.Context, tx pgx.Tx, item *model.OrderItem) error {
	query := `
		INSERT INTO order_items (order_id, product_id, quantity, price_at_purchase)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := tx.QueryRow(ctx, query, item.OrderID, item.ProductID, item.Quantity, item.PriceAtPurchase).
		Scan(&item.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrDuplicateLine
		}
		r.logger.Error().
			Err(err).
			Int64("order_id", item.OrderID).
			Int64("product_id", item.ProductID).
			Msg("failed to add order item")
		return fmt.Errorf("failed to add order item: %w", err)
	}

	return nil
}

// DeleteItem removes an item within the provided transaction.
func (r *orderRepository) DeleteItem(ctx context.Context, tx pgx.Tx, orderID, itemID int64) (bool, error) {
	tag, err := tx.Exec(ctx, `DELETE FROM order_items WHERE id = $1 AND order_id = $2`, itemID, orderID)
	if err != nil {
		r.logger.Error().Err(err).Int64("order_id", orderID).Int64("item_id", itemID).Msg("failed to delete order item")
		return false, fmt.Errorf("failed to delete order item: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// UpdateTotal persists a recomputed order total within the transaction.
func (r *orderRepository) UpdateTotal(ctx context.Context, tx pgx.Tx, orderID int64, total decimal.Decimal) error {
	_, err := tx.Exec(ctx, `UPDATE orders SET total = $2, updated_at = now() WHERE id = $1`, orderID, total)
	if err != nil {
		r.logger.Error().Err(err).Int64("order_id", orderID).Msg("failed to update order total")
		return fmt.Errorf("failed to update order total: %w", err)
	}
	return nil
}

// Count returns the number of orders.
func (r *orderRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM orders`).Scan(&count); err != nil {
		r.logger.Error().Err(err).Msg("failed to count orders")
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}

// CountByStatus returns order counts per status. Statuses without orders are
// present with a zero count.
func (r *orderRepository) CountByStatus(ctx context.Context) (map[model.OrderStatus]int64, error) {
	counts := map[model.OrderStatus]int64{
		model.OrderStatusPending:    0,
		model.OrderStatusProcessing: 0,
		model.OrderStatusCompleted:  0,
		model.OrderStatusCancelled:  0,
	}

	rows, err := r.pool.Query(ctx, `SELECT status, count(*) FROM orders GROUP BY status`)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to count orders by status")
		return nil, fmt.Errorf("failed to count orders by status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status model.OrderStatus
			count  int64
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status counts: %w", err)
	}

	return counts, nil
}

// CompletedRevenue sums the totals of COMPLETED orders.
func (r *orderRepository) CompletedRevenue(ctx context.Context) (decimal.Decimal, error) {
	var revenue decimal.Decimal
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(sum(total), 0) FROM orders WHERE status = $1`,
		model.OrderStatusCompleted,
	).Scan(&revenue)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to sum completed revenue")
		return decimal.Zero, fmt.Errorf("failed to sum completed revenue: %w", err)
	}

	return revenue, nil
}
