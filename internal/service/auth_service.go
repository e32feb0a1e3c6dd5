package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"doudou-shop/internal/auth"
	"doudou-shop/internal/model"
	"doudou-shop/internal/repository"

	"github.com/rs/zerolog"
)

// authService implements AuthService.
type authService struct {
	userRepo     repository.UserRepository
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	orderRepo    repository.OrderRepository
	logger       zerolog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(
	userRepo repository.UserRepository,
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	orderRepo repository.OrderRepository,
	logger zerolog.Logger,
) AuthService {
	return &authService{
		userRepo:     userRepo,
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		orderRepo:    orderRepo,
		logger:       logger.With().Str("service", "auth").Logger(),
	}
}

// Login checks credentials and issues a bearer token. Only staff accounts
// may obtain tokens; a correct password on a non-staff account is refused
// with PermissionDenied.
func (s *authService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to look up user")
		return nil, fmt.Errorf("failed to log in: %w", err)
	}
	if user == nil {
		return nil, model.ErrInvalidCredentials
	}

	if err := auth.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Warn().Str("email", email).Msg("failed login attempt")
			return nil, model.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to log in: %w", err)
	}

	if !user.IsStaff() {
		s.logger.Warn().Str("email", email).Msg("non-staff login rejected")
		return nil, model.ErrPermissionDenied
	}

	token := auth.NewToken()
	if err := s.userRepo.SaveToken(ctx, token, user.ID); err != nil {
		return nil, fmt.Errorf("failed to log in: %w", err)
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("staff login")

	return &model.LoginResponse{
		Token: token,
		User: model.UserBrief{
			Email: user.Email,
			Role:  user.Role,
		},
	}, nil
}

// Authenticate resolves a bearer token to its user.
func (s *authService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, nil
	}

	user, err := s.userRepo.GetByToken(ctx, token)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to resolve token")
		return nil, fmt.Errorf("failed to resolve token: %w", err)
	}
	return user, nil
}

// DashboardStats aggregates counts for the admin dashboard.
func (s *authService) DashboardStats(ctx context.Context) (*model.DashboardStats, error) {
	totalProducts, activeProducts, err := s.productRepo.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate dashboard stats: %w", err)
	}

	totalCategories, err := s.categoryRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate dashboard stats: %w", err)
	}

	totalOrders, err := s.orderRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate dashboard stats: %w", err)
	}

	byStatus, err := s.orderRepo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate dashboard stats: %w", err)
	}

	revenue, err := s.orderRepo.CompletedRevenue(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate dashboard stats: %w", err)
	}

	return &model.DashboardStats{
		TotalProducts:   totalProducts,
		ActiveProducts:  activeProducts,
		TotalCategories: totalCategories,
		TotalOrders:     totalOrders,
		OrdersByStatus:  byStatus,
		TotalRevenue:    revenue,
	}, nil
}
