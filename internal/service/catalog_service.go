package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"doudou-shop/internal/model"
	"doudou-shop/internal/repository"

	"github.com/gosimple/slug"
	"github.com/rs/zerolog"
)

// catalogService implements CatalogService.
type catalogService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	logger       zerolog.Logger
	now          func() time.Time
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	logger zerolog.Logger,
) CatalogService {
	return &catalogService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		logger:       logger.With().Str("service", "catalog").Logger(),
		now:          time.Now,
	}
}

// ListProducts retrieves active products matching the filter. Derived pricing
// and stock fields are evaluated at a single instant for the whole page.
func (s *catalogService) ListProducts(ctx context.Context, filter model.ProductFilter) ([]model.ProductDetail, error) {
	normalizePage(&filter.Limit, &filter.Offset)

	products, err := s.productRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list products")
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	categories, err := s.categoriesByID(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	details := make([]model.ProductDetail, len(products))
	for i, p := range products {
		var category *model.Category
		if p.CategoryID != nil {
			category = categories[*p.CategoryID]
		}
		details[i] = model.NewProductDetail(p, category, nil, now)
	}

	return details, nil
}

// categoriesByID loads active categories keyed by id for joining onto
// product listings.
func (s *catalogService) categoriesByID(ctx context.Context) (map[int64]*model.Category, error) {
	categories, err := s.categoryRepo.ListActive(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list categories")
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	byID := make(map[int64]*model.Category, len(categories))
	for i := range categories {
		byID[categories[i].ID] = &categories[i]
	}
	return byID, nil
}

// GetProduct retrieves a product detail by numeric id or slug. Non-staff
// viewers only see active products; anything else reads as not found.
func (s *catalogService) GetProduct(ctx context.Context, idOrSlug string, staff bool) (*model.ProductDetail, error) {
	var (
		product *model.Product
		err     error
	)
	if id, perr := strconv.ParseInt(idOrSlug, 10, 64); perr == nil {
		product, err = s.productRepo.GetByID(ctx, id)
	} else {
		product, err = s.productRepo.GetBySlug(ctx, idOrSlug)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("product", idOrSlug).Msg("failed to get product")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}
	if !staff && product.Status != model.ProductStatusActive {
		return nil, model.ErrProductNotFound
	}

	var category *model.Category
	if product.CategoryID != nil {
		category, err = s.categoryRepo.GetByID(ctx, *product.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("failed to get category: %w", err)
		}
	}

	images, err := s.productRepo.GetImages(ctx, product.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get product images: %w", err)
	}

	detail := model.NewProductDetail(*product, category, images, s.now())
	return &detail, nil
}

// CreateProduct creates a product from the admin payload.
func (s *catalogService) CreateProduct(ctx context.Context, req *model.CreateProductRequest) (*model.ProductDetail, error) {
	product, err := s.productFromRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("product_id", product.ID).
		Str("slug", product.Slug).
		Msg("product created")

	detail := model.NewProductDetail(*product, nil, nil, s.now())
	return &detail, nil
}

// UpdateProduct replaces a product's attributes.
func (s *catalogService) UpdateProduct(ctx context.Context, id int64, req *model.UpdateProductRequest) (*model.ProductDetail, error) {
	existing, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if existing == nil {
		return nil, model.ErrProductNotFound
	}

	product, err := s.productFromRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	product.ID = id

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("product_id", id).Msg("product updated")

	detail := model.NewProductDetail(*product, nil, nil, s.now())
	return &detail, nil
}

// DeleteProduct removes a product unless order items reference it.
func (s *catalogService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("product_id", id).Msg("product deleted")
	return nil
}

// ListCategories retrieves active categories.
func (s *catalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories, err := s.categoryRepo.ListActive(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list categories")
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	if categories == nil {
		categories = []model.Category{}
	}
	return categories, nil
}

// CreateCategory creates a category, deriving the slug from the name when
// absent. New categories default to active.
func (s *catalogService) CreateCategory(ctx context.Context, req *model.CreateCategoryRequest) (*model.Category, error) {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	category := &model.Category{
		Name:     req.Name,
		Slug:     deriveSlug(req.Slug, req.Name),
		IsActive: active,
		Ordering: req.Ordering,
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("category_id", category.ID).
		Str("slug", category.Slug).
		Msg("category created")

	return category, nil
}

// productFromRequest validates the payload and builds the product to persist.
func (s *catalogService) productFromRequest(ctx context.Context, req *model.CreateProductRequest) (*model.Product, error) {
	if !req.Price.IsPositive() {
		return nil, model.ValidationError("Price must be greater than zero")
	}
	if err := validatePromo(req); err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = model.ProductStatusDraft
	}

	if req.CategoryID != nil {
		category, err := s.categoryRepo.GetByID(ctx, *req.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("failed to get category: %w", err)
		}
		if category == nil {
			return nil, model.ErrCategoryNotFound
		}
	}

	return &model.Product{
		Name:          req.Name,
		Slug:          deriveSlug(req.Slug, req.Name),
		Description:   req.Description,
		CategoryID:    req.CategoryID,
		Price:         req.Price,
		PromoPrice:    req.PromoPrice,
		PromoStart:    req.PromoStart,
		PromoEnd:      req.PromoEnd,
		StockQuantity: req.StockQuantity,
		Status:        status,
		IsNew:         req.IsNew,
	}, nil
}

// validatePromo enforces that the promo price and its window are either fully
// specified and coherent, or fully absent.
func validatePromo(req *model.CreateProductRequest) error {
	if req.PromoPrice == nil && req.PromoStart == nil && req.PromoEnd == nil {
		return nil
	}
	if req.PromoPrice == nil || req.PromoStart == nil || req.PromoEnd == nil {
		return model.ValidationError("Promo price, start and end must be set together")
	}
	if !req.PromoPrice.IsPositive() {
		return model.ValidationError("Promo price must be greater than zero")
	}
	if req.PromoPrice.Cmp(req.Price) >= 0 {
		return model.ValidationError("Promo price must be lower than the base price")
	}
	if !req.PromoEnd.After(*req.PromoStart) {
		return model.ValidationError("Promo end must be after promo start")
	}
	return nil
}

// deriveSlug uses the explicit slug when given, otherwise derives one from
// the name.
func deriveSlug(explicit, name string) string {
	if explicit != "" {
		return slug.Make(explicit)
	}
	return slug.Make(name)
}
