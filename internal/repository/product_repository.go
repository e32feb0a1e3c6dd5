package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"doudou-shop/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const productColumns = `id, name, slug, description, category_id, price, promo_price,
		promo_start, promo_end, stock_quantity, status, is_new, created_at, updated_at`

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

func scanProduct(row pgx.Row, p *model.Product) error {
	return row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.CategoryID,
		&p.Price, &p.PromoPrice, &p.PromoStart, &p.PromoEnd,
		&p.StockQuantity, &p.Status, &p.IsNew, &p.CreatedAt, &p.UpdatedAt,
	)
}

// orderingColumns maps the public ordering parameter to SQL. Anything not in
// the map falls back to newest-first.
var orderingColumns = map[string]string{
	"created_at":  "created_at ASC",
	"-created_at": "created_at DESC",
	"price":       "price ASC",
	"-price":      "price DESC",
	"name":        "name ASC",
	"-name":       "name DESC",
}

// List retrieves active products matching the filter.
func (r *productRepository) List(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	var (
		conds = []string{"p.status = 'active'"}
		args  []any
	)

	if filter.CategorySlug != "" {
		args = append(args, filter.CategorySlug)
		conds = append(conds, fmt.Sprintf("p.category_id = (SELECT id FROM categories WHERE slug = $%d)", len(args)))
	}
	if filter.IsNew != nil {
		args = append(args, *filter.IsNew)
		conds = append(conds, fmt.Sprintf("p.is_new = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conds = append(conds, fmt.Sprintf("(p.name ILIKE $%d OR p.description ILIKE $%d)", len(args), len(args)))
	}

	orderBy, ok := orderingColumns[filter.Ordering]
	if !ok {
		orderBy = "created_at DESC"
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
		FROM products p
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, productColumns, strings.Join(conds, " AND "), orderBy, limitPos, offsetPos)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := scanProduct(rows, &p); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// GetByID retrieves a single product by its ID.
func (r *productRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)

	var p model.Product
	err := scanProduct(r.pool.QueryRow(ctx, query, id), &p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("product_id", id).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return &p, nil
}

// GetBySlug retrieves a single product by its slug.
func (r *productRepository) GetBySlug(ctx context.Context, slug string) (*model.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE slug = $1`, productColumns)

	var p model.Product
	err := scanProduct(r.pool.QueryRow(ctx, query, slug), &p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("slug", slug).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("slug", slug).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return &p, nil
}

// GetImages retrieves a product's images ordered for display.
func (r *productRepository) GetImages(ctx context.Context, productID int64) ([]model.ProductImage, error) {
	query := `
		SELECT id, product_id, url, ordering, created_at
		FROM product_images
		WHERE product_id = $1
		ORDER BY ordering, created_at
	`

	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		r.logger.Error().Err(err).Int64("product_id", productID).Msg("failed to query product images")
		return nil, fmt.Errorf("failed to query product images: %w", err)
	}
	defer rows.Close()

	var images []model.ProductImage
	for rows.Next() {
		var img model.ProductImage
		if err := rows.Scan(&img.ID, &img.ProductID, &img.URL, &img.Ordering, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product image: %w", err)
		}
		images = append(images, img)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product images: %w", err)
	}

	return images, nil
}

// Create inserts a product.
func (r *productRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
		INSERT INTO products (name, slug, description, category_id, price, promo_price,
			promo_start, promo_end, stock_quantity, status, is_new)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		p.Name, p.Slug, p.Description, p.CategoryID, p.Price, p.PromoPrice,
		p.PromoStart, p.PromoEnd, p.StockQuantity, p.Status, p.IsNew,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrSlugTaken
		}
		r.logger.Error().Err(err).Str("slug", p.Slug).Msg("failed to create product")
		return fmt.Errorf("failed to create product: %w", err)
	}

	r.logger.Debug().Int64("product_id", p.ID).Str("slug", p.Slug).Msg("product created")

	return nil
}

// Update replaces a product's attributes.
func (r *productRepository) Update(ctx context.Context, p *model.Product) error {
	query := `
		UPDATE products
		SET name = $2, slug = $3, description = $4, category_id = $5, price = $6,
			promo_price = $7, promo_start = $8, promo_end = $9, stock_quantity = $10,
			status = $11, is_new = $12, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		p.ID, p.Name, p.Slug, p.Description, p.CategoryID, p.Price,
		p.PromoPrice, p.PromoStart, p.PromoEnd, p.StockQuantity, p.Status, p.IsNew,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrProductNotFound
		}
		if isUniqueViolation(err) {
			return model.ErrSlugTaken
		}
		r.logger.Error().Err(err).Int64("product_id", p.ID).Msg("failed to update product")
		return fmt.Errorf("failed to update product: %w", err)
	}

	return nil
}

// Delete removes a product unless order items still reference it.
func (r *productRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			r.logger.Warn().Int64("product_id", id).Msg("delete blocked: product referenced by order items")
			return model.ErrProductReferenced
		}
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to delete product")
		return fmt.Errorf("failed to delete product: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}

	return nil
}

// CountAll returns total and active product counts.
func (r *productRepository) CountAll(ctx context.Context) (int64, int64, error) {
	query := `SELECT count(*), count(*) FILTER (WHERE status = 'active') FROM products`

	var total, active int64
	if err := r.pool.QueryRow(ctx, query).Scan(&total, &active); err != nil {
		r.logger.Error().Err(err).Msg("failed to count products")
		return 0, 0, fmt.Errorf("failed to count products: %w", err)
	}

	return total, active, nil
}

// GetForCheckout fetches a product by id inside the order transaction.
func (r *productRepository) GetForCheckout(ctx context.Context, tx pgx.Tx, id int64) (*model.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)

	var p model.Product
	err := scanProduct(tx.QueryRow(ctx, query, id), &p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to query product for checkout")
		return nil, fmt.Errorf("failed to query product for checkout: %w", err)
	}

	return &p, nil
}

// ReserveStock atomically decrements stock and returns the price snapshot.
// The guard `stock_quantity >= $2` makes concurrent reservations for the same
// product serialize on the row: the losing transaction matches no row and the
// stock never goes negative.
func (r *productRepository) ReserveStock(ctx context.Context, tx pgx.Tx, id int64, quantity int) (decimal.Decimal, error) {
	query := `
		UPDATE products
		SET stock_quantity = stock_quantity - $2, updated_at = now()
		WHERE id = $1 AND stock_quantity >= $2
		RETURNING CASE
			WHEN promo_price IS NOT NULL
				AND promo_start IS NOT NULL
				AND promo_end IS NOT NULL
				AND now() BETWEEN promo_start AND promo_end
			THEN promo_price
			ELSE price
		END
	`

	var snapshot decimal.Decimal
	err := tx.QueryRow(ctx, query, id, quantity).Scan(&snapshot)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().
				Int64("product_id", id).
				Int("requested", quantity).
				Msg("stock reservation refused")
			return decimal.Zero, model.ErrInsufficientStock
		}
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to reserve stock")
		return decimal.Zero, fmt.Errorf("failed to reserve stock: %w", err)
	}

	return snapshot, nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint error.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
