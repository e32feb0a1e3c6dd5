package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"doudou-shop/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCouponHandler_List(t *testing.T) {
	logger := zerolog.Nop()

	mockService := new(MockCouponService)
	h := NewCouponHandler(mockService, logger)

	now := time.Now()
	coupons := []model.Coupon{
		{ID: 1, Code: "SPRING10", DiscountPercent: 10, Active: true, ValidFrom: now.Add(-time.Hour), ValidUntil: now.Add(time.Hour)},
	}
	mockService.On("ListValid", mock.Anything).Return(coupons, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/coupons", nil)
	rec := httptest.NewRecorder()

	h.List(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var got []model.Coupon
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, "SPRING10", got[0].Code)
}

func TestCouponHandler_Create(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("success", func(t *testing.T) {
		mockService := new(MockCouponService)
		h := NewCouponHandler(mockService, logger)

		coupon := &model.Coupon{ID: 1, Code: "SPRING10", DiscountPercent: 10, Active: true}
		mockService.On("Create", mock.Anything, mock.AnythingOfType("*model.CreateCouponRequest")).Return(coupon, nil)

		body := bytes.NewBufferString(`{
			"code": "SPRING10",
			"discountPercent": 10,
			"active": true,
			"validFrom": "2026-03-01T00:00:00Z",
			"validUntil": "2026-04-01T00:00:00Z"
		}`)
		req := httptest.NewRequest(http.MethodPost, "/api/coupons", body)
		rec := httptest.NewRecorder()

		h.Create(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("window must end after start", func(t *testing.T) {
		mockService := new(MockCouponService)
		h := NewCouponHandler(mockService, logger)

		body := bytes.NewBufferString(`{
			"code": "BACKWARDS",
			"discountPercent": 10,
			"validFrom": "2026-04-01T00:00:00Z",
			"validUntil": "2026-03-01T00:00:00Z"
		}`)
		req := httptest.NewRequest(http.MethodPost, "/api/coupons", body)
		rec := httptest.NewRecorder()

		h.Create(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "Create")
	})

	t.Run("duplicate code", func(t *testing.T) {
		mockService := new(MockCouponService)
		h := NewCouponHandler(mockService, logger)

		mockService.On("Create", mock.Anything, mock.AnythingOfType("*model.CreateCouponRequest")).
			Return(nil, model.NewDomainError(model.ErrCodeConflict, "Coupon code already exists"))

		body := bytes.NewBufferString(`{
			"code": "SPRING10",
			"discountPercent": 10,
			"validFrom": "2026-03-01T00:00:00Z",
			"validUntil": "2026-04-01T00:00:00Z"
		}`)
		req := httptest.NewRequest(http.MethodPost, "/api/coupons", body)
		rec := httptest.NewRecorder()

		h.Create(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}
