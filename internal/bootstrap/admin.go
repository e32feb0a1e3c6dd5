package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"doudou-shop/internal/auth"
	"doudou-shop/internal/config"
	"doudou-shop/internal/model"
	"doudou-shop/internal/repository"

	"github.com/rs/zerolog"
)

// EnsureAdminUser creates the configured admin account when it does not
// exist yet. Called on startup so a fresh deployment has a staff login.
func EnsureAdminUser(ctx context.Context, userRepo repository.UserRepository, cfg config.AdminConfig, logger zerolog.Logger) error {
	if cfg.Email == "" {
		logger.Debug().Msg("admin bootstrap disabled")
		return nil
	}

	email := strings.ToLower(strings.TrimSpace(cfg.Email))

	existing, err := userRepo.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check admin user: %w", err)
	}
	if existing != nil {
		logger.Debug().Str("email", email).Msg("admin user already exists")
		return nil
	}

	hash, err := auth.HashPassword(cfg.Password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	user := &model.User{
		Email:        email,
		Role:         model.RoleAdmin,
		PasswordHash: hash,
	}
	if err := userRepo.Create(ctx, user); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info().Str("email", email).Int64("user_id", user.ID).Msg("admin user created")
	return nil
}
