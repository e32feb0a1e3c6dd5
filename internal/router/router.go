package router

import (
	"net/http"

	"doudou-shop/internal/handler"
	"doudou-shop/internal/middleware"
	"doudou-shop/internal/service"

	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	catalogHandler *handler.CatalogHandler,
	couponHandler *handler.CouponHandler,
	orderHandler *handler.OrderHandler,
	authHandler *handler.AuthHandler,
	authService service.AuthService,
	metrics *middleware.Metrics,
	logger zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})
	mux.Handle("GET /metrics", metrics.Handler())

	staff := middleware.RequireStaff(logger)

	// Public catalogue
	mux.HandleFunc("GET /api/products", catalogHandler.ListProducts)
	mux.HandleFunc("GET /api/products/{id}", catalogHandler.GetProduct)
	mux.HandleFunc("GET /api/categories", catalogHandler.ListCategories)
	mux.HandleFunc("GET /api/coupons", couponHandler.List)

	// Checkout and order access
	mux.HandleFunc("POST /api/orders", orderHandler.Create)
	mux.HandleFunc("GET /api/orders", orderHandler.List)
	mux.HandleFunc("GET /api/orders/{id}", orderHandler.Get)

	// Authentication
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Staff-only management
	mux.Handle("POST /api/products", staff(http.HandlerFunc(catalogHandler.CreateProduct)))
	mux.Handle("PUT /api/products/{id}", staff(http.HandlerFunc(catalogHandler.UpdateProduct)))
	mux.Handle("DELETE /api/products/{id}", staff(http.HandlerFunc(catalogHandler.DeleteProduct)))
	mux.Handle("POST /api/categories", staff(http.HandlerFunc(catalogHandler.CreateCategory)))
	mux.Handle("POST /api/coupons", staff(http.HandlerFunc(couponHandler.Create)))
	mux.Handle("PATCH /api/orders/{id}/status", staff(http.HandlerFunc(orderHandler.UpdateStatus)))
	mux.Handle("POST /api/orders/{id}/items", staff(http.HandlerFunc(orderHandler.AddItem)))
	mux.Handle("DELETE /api/orders/{id}/items/{itemID}", staff(http.HandlerFunc(orderHandler.RemoveItem)))
	mux.Handle("GET /api/admin/dashboard", staff(http.HandlerFunc(authHandler.Dashboard)))

	// Apply middleware in order: Recovery -> RequestID -> Logging -> Metrics -> CORS -> Authenticate
	var h http.Handler = mux
	h = middleware.Authenticate(authService, logger)(h)
	h = middleware.CORS(h)
	h = metrics.Middleware(h)
	h = middleware.Logging(logger)(h)
	h = middleware.RequestID(h)
	h = middleware.Recovery(logger)(h)

	return h
}
