package handler

import (
	"net/http"
	"strconv"

	"doudou-shop/internal/middleware"
	"doudou-shop/internal/model"
	"doudou-shop/internal/service"

	"github.com/rs/zerolog"
)

// CatalogHandler handles product and category HTTP requests.
type CatalogHandler struct {
	service service.CatalogService
	logger  zerolog.Logger
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(service service.CatalogService, logger zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		logger:  logger.With().Str("handler", "catalog").Logger(),
	}
}

// ListProducts handles GET /api/products requests.
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := model.ProductFilter{
		CategorySlug: q.Get("category"),
		Search:       q.Get("search"),
		Ordering:     q.Get("ordering"),
	}
	if v := q.Get("is_new"); v != "" {
		isNew, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, model.ValidationError("Invalid is_new parameter"), h.logger)
			return
		}
		filter.IsNew = &isNew
	}
	filter.Limit, filter.Offset = pageParams(q)

	products, err := h.service.ListProducts(r.Context(), filter)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, products)
}

// GetProduct handles GET /api/products/{id} requests. The path segment may
// be a numeric id or a slug.
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	idOrSlug := r.PathValue("id")
	if idOrSlug == "" {
		writeError(w, model.ErrProductNotFound, h.logger)
		return
	}

	viewer := middleware.UserFrom(r.Context())
	staff := viewer != nil && viewer.IsStaff()

	product, err := h.service.GetProduct(r.Context(), idOrSlug, staff)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// CreateProduct handles POST /api/products requests.
func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req model.CreateProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	product, err := h.service.CreateProduct(r.Context(), &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/products/{id} requests.
func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var req model.UpdateProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), id, &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/products/{id} requests.
func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		writeError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListCategories handles GET /api/categories requests.
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, categories)
}

// CreateCategory handles POST /api/categories requests.
func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req model.CreateCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	category, err := h.service.CreateCategory(r.Context(), &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, category)
}

// pageParams parses limit and offset query parameters, tolerating absence.
func pageParams(q map[string][]string) (limit, offset int) {
	if vs := q["limit"]; len(vs) > 0 {
		limit, _ = strconv.Atoi(vs[0])
	}
	if vs := q["offset"]; len(vs) > 0 {
		offset, _ = strconv.Atoi(vs[0])
	}
	return limit, offset
}
