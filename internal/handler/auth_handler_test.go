package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"doudou-shop/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler_Login(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("success", func(t *testing.T) {
		mockService := new(MockAuthService)
		h := NewAuthHandler(mockService, logger)

		resp := &model.LoginResponse{
			Token: "token-value",
			User:  model.UserBrief{Email: "admin@example.com", Role: model.RoleAdmin},
		}
		mockService.On("Login", mock.Anything, mock.AnythingOfType("*model.LoginRequest")).Return(resp, nil)

		body := bytes.NewBufferString(`{"email": "admin@example.com", "password": "supersecret"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
		rec := httptest.NewRecorder()

		h.Login(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var got model.LoginResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, "token-value", got.Token)
		assert.Equal(t, model.RoleAdmin, got.User.Role)
	})

	t.Run("bad credentials", func(t *testing.T) {
		mockService := new(MockAuthService)
		h := NewAuthHandler(mockService, logger)

		mockService.On("Login", mock.Anything, mock.AnythingOfType("*model.LoginRequest")).Return(nil, model.ErrInvalidCredentials)

		body := bytes.NewBufferString(`{"email": "admin@example.com", "password": "wrong"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
		rec := httptest.NewRecorder()

		h.Login(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid email format", func(t *testing.T) {
		mockService := new(MockAuthService)
		h := NewAuthHandler(mockService, logger)

		body := bytes.NewBufferString(`{"email": "not-an-email", "password": "supersecret"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
		rec := httptest.NewRecorder()

		h.Login(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "Login")
	})
}

func TestAuthHandler_Dashboard(t *testing.T) {
	logger := zerolog.Nop()

	mockService := new(MockAuthService)
	h := NewAuthHandler(mockService, logger)

	stats := &model.DashboardStats{
		TotalProducts:  12,
		ActiveProducts: 9,
		TotalOrders:    40,
		OrdersByStatus: map[model.OrderStatus]int64{model.OrderStatusCompleted: 20},
		TotalRevenue:   decimal.RequireFromString("1234.56"),
	}
	mockService.On("DashboardStats", mock.Anything).Return(stats, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
	rec := httptest.NewRecorder()

	h.Dashboard(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var got model.DashboardStats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, int64(12), got.TotalProducts)
}
