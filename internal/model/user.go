package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role of an account.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleCustomer Role = "CUSTOMER"
)

// User is an account. Staff accounts (ADMIN role) may obtain API tokens.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         Role      `json:"role" db:"role"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// IsStaff reports whether the user may access admin endpoints.
func (u *User) IsStaff() bool {
	return u.Role == RoleAdmin
}

// LoginRequest is the staff login payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued bearer token and the account summary.
type LoginResponse struct {
	Token string    `json:"token"`
	User  UserBrief `json:"user"`
}

// UserBrief is the public projection of a user.
type UserBrief struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// DashboardStats aggregates counts for the admin dashboard.
type DashboardStats struct {
	TotalProducts   int64               `json:"totalProducts"`
	ActiveProducts  int64               `json:"activeProducts"`
	TotalCategories int64               `json:"totalCategories"`
	TotalOrders     int64               `json:"totalOrders"`
	OrdersByStatus  map[OrderStatus]int64 `json:"ordersByStatus"`
	TotalRevenue    decimal.Decimal     `json:"totalRevenue"`
}
