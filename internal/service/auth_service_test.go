package service

import (
	"context"
	"testing"

	"doudou-shop/internal/auth"
	"doudou-shop/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestAuthService(
	userRepo *MockUserRepository,
	productRepo *MockProductRepository,
	categoryRepo *MockCategoryRepository,
	orderRepo *MockOrderRepository,
) AuthService {
	return NewAuthService(userRepo, productRepo, categoryRepo, orderRepo, zerolog.Nop())
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	hash, err := auth.HashPassword("correct-horse")
	require.NoError(t, err)

	admin := &model.User{ID: 1, Email: "admin@example.com", PasswordHash: hash, Role: model.RoleAdmin}
	customer := &model.User{ID: 2, Email: "customer@example.com", PasswordHash: hash, Role: model.RoleCustomer}

	t.Run("staff login succeeds", func(t *testing.T) {
		mockUserRepo := new(MockUserRepository)
		svc := newTestAuthService(mockUserRepo, new(MockProductRepository), new(MockCategoryRepository), new(MockOrderRepository))

		mockUserRepo.On("GetByEmail", ctx, "admin@example.com").Return(admin, nil)
		mockUserRepo.On("SaveToken", ctx, mock.AnythingOfType("string"), int64(1)).Return(nil)

		resp, err := svc.Login(ctx, &model.LoginRequest{Email: "Admin@Example.com", Password: "correct-horse"})

		require.NoError(t, err)
		require.NotNil(t, resp)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, model.RoleAdmin, resp.User.Role)
		mockUserRepo.AssertExpectations(t)
	})

	t.Run("wrong password", func(t *testing.T) {
		mockUserRepo := new(MockUserRepository)
		svc := newTestAuthService(mockUserRepo, new(MockProductRepository), new(MockCategoryRepository), new(MockOrderRepository))

		mockUserRepo.On("GetByEmail", ctx, "admin@example.com").Return(admin, nil)

		resp, err := svc.Login(ctx, &model.LoginRequest{Email: "admin@example.com", Password: "wrong"})

		require.Error(t, err)
		assert.Nil(t, resp)
		assert.ErrorIs(t, err, model.ErrInvalidCredentials)
		mockUserRepo.AssertNotCalled(t, "SaveToken")
	})

	t.Run("unknown email", func(t *testing.T) {
		mockUserRepo := new(MockUserRepository)
		svc := newTestAuthService(mockUserRepo, new(MockProductRepository), new(MockCategoryRepository), new(MockOrderRepository))

		mockUserRepo.On("GetByEmail", ctx, "nobody@example.com").Return(nil, nil)

		resp, err := svc.Login(ctx, &model.LoginRequest{Email: "nobody@example.com", Password: "whatever"})

		require.Error(t, err)
		assert.Nil(t, resp)
		assert.ErrorIs(t, err, model.ErrInvalidCredentials)
	})

	t.Run("non-staff account is forbidden", func(t *testing.T) {
		mockUserRepo := new(MockUserRepository)
		svc := newTestAuthService(mockUserRepo, new(MockProductRepository), new(MockCategoryRepository), new(MockOrderRepository))

		mockUserRepo.On("GetByEmail", ctx, "customer@example.com").Return(customer, nil)

		resp, err := svc.Login(ctx, &model.LoginRequest{Email: "customer@example.com", Password: "correct-horse"})

		require.Error(t, err)
		assert.Nil(t, resp)
		assert.ErrorIs(t, err, model.ErrPermissionDenied)
		mockUserRepo.AssertNotCalled(t, "SaveToken")
	})
}

func TestAuthService_Authenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("empty token is anonymous", func(t *testing.T) {
		mockUserRepo := new(MockUserRepository)
		svc := newTestAuthService(mockUserRepo, new(MockProductRepository), new(MockCategoryRepository), new(MockOrderRepository))

		user, err := svc.Authenticate(ctx, "")

		require.NoError(t, err)
		assert.Nil(t, user)
		mockUserRepo.AssertNotCalled(t, "GetByToken")
	})

	t.Run("unknown token resolves to nil", func(t *testing.T) {
		mockUserRepo := new(MockUserRepository)
		svc := newTestAuthService(mockUserRepo, new(MockProductRepository), new(MockCategoryRepository), new(MockOrderRepository))

		mockUserRepo.On("GetByToken", ctx, "bogus").Return(nil, nil)

		user, err := svc.Authenticate(ctx, "bogus")

		require.NoError(t, err)
		assert.Nil(t, user)
	})
}

func TestAuthService_DashboardStats(t *testing.T) {
	ctx := context.Background()

	mockUserRepo := new(MockUserRepository)
	mockProductRepo := new(MockProductRepository)
	mockCategoryRepo := new(MockCategoryRepository)
	mockOrderRepo := new(MockOrderRepository)

	svc := newTestAuthService(mockUserRepo, mockProductRepo, mockCategoryRepo, mockOrderRepo)

	mockProductRepo.On("CountAll", ctx).Return(int64(12), int64(9), nil)
	mockCategoryRepo.On("Count", ctx).Return(int64(3), nil)
	mockOrderRepo.On("Count", ctx).Return(int64(40), nil)
	mockOrderRepo.On("CountByStatus", ctx).Return(map[model.OrderStatus]int64{
		model.OrderStatusPending:    5,
		model.OrderStatusProcessing: 10,
		model.OrderStatusCompleted:  20,
		model.OrderStatusCancelled:  5,
	}, nil)
	mockOrderRepo.On("CompletedRevenue", ctx).Return(decimal.RequireFromString("1234.56"), nil)

	stats, err := svc.DashboardStats(ctx)

	require.NoError(t, err)
	assert.Equal(t, int64(12), stats.TotalProducts)
	assert.Equal(t, int64(9), stats.ActiveProducts)
	assert.Equal(t, int64(3), stats.TotalCategories)
	assert.Equal(t, int64(40), stats.TotalOrders)
	assert.Equal(t, int64(20), stats.OrdersByStatus[model.OrderStatusCompleted])
	assert.True(t, stats.TotalRevenue.Equal(decimal.RequireFromString("1234.56")))
}
