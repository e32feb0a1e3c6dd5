package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"doudou-shop/internal/database"
	"doudou-shop/internal/model"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container, connects a pool with the
// decimal codec registered and applies the embedded migrations.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		t.Fatalf("failed to parse connection string: %v", err)
	}
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	if err := database.Migrate(pool, zerolog.Nop()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// SeedCatalog inserts a category and a handful of products and returns the
// product ids keyed by slug.
func SeedCatalog(t *testing.T, pool *pgxpool.Pool) map[string]int64 {
	t.Helper()

	ctx := context.Background()

	var categoryID int64
	err := pool.QueryRow(ctx,
		`INSERT INTO categories (name, slug, is_active, ordering) VALUES ('Plush Toys', 'plush-toys', TRUE, 1) RETURNING id`,
	).Scan(&categoryID)
	if err != nil {
		t.Fatalf("failed to seed category: %v", err)
	}

	products := []struct {
		name   string
		slug   string
		price  string
		stock  int
		status model.ProductStatus
	}{
		{"Plush Bear", "plush-bear", "10.00", 50, model.ProductStatusActive},
		{"Plush Cat", "plush-cat", "20.00", 5, model.ProductStatusActive},
		{"Plush Fox", "plush-fox", "12.00", 0, model.ProductStatusActive},
		{"Unreleased Owl", "unreleased-owl", "15.00", 10, model.ProductStatusDraft},
	}

	ids := make(map[string]int64, len(products))
	for _, p := range products {
		var id int64
		err := pool.QueryRow(ctx,
			`INSERT INTO products (name, slug, description, category_id, price, stock_quantity, status, is_new)
			 VALUES ($1, $2, '', $3, $4, $5, $6, FALSE)
			 RETURNING id`,
			p.name, p.slug, categoryID, decimal.RequireFromString(p.price), p.stock, p.status,
		).Scan(&id)
		if err != nil {
			t.Fatalf("failed to seed product %s: %v", p.slug, err)
		}
		ids[p.slug] = id
	}

	return ids
}

// SetPromo puts a product inside an active promo window.
func SetPromo(t *testing.T, pool *pgxpool.Pool, productID int64, promoPrice string) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		`UPDATE products
		 SET promo_price = $2, promo_start = now() - interval '1 hour', promo_end = now() + interval '1 hour'
		 WHERE id = $1`,
		productID, decimal.RequireFromString(promoPrice),
	)
	if err != nil {
		t.Fatalf("failed to set promo: %v", err)
	}
}

// StockOf reads a product's current stock quantity.
func StockOf(t *testing.T, pool *pgxpool.Pool, productID int64) int {
	t.Helper()

	var stock int
	if err := pool.QueryRow(context.Background(),
		`SELECT stock_quantity FROM products WHERE id = $1`, productID,
	).Scan(&stock); err != nil {
		t.Fatalf("failed to read stock: %v", err)
	}
	return stock
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"order_items", "orders", "auth_tokens", "users", "product_images", "products", "coupons", "categories"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}
