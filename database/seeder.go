package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fixitnow-backend/app/model"
	"fixitnow-backend/app/repository"
	"fixitnow-backend/config"
	"fixitnow-backend/utils"
)

// SeedAdmin makes sure the bootstrap admin account exists. An existing
// account with the configured email is promoted back to admin and
// reactivated; its password is left alone. Without ADMIN_EMAIL and
// ADMIN_PASSWORD nothing is seeded.
func SeedAdmin(ctx context.Context, users repository.UserRepository, seed config.SeedConfig) error {
	if seed.AdminEmail == "" || seed.AdminPassword == "" {
		slog.Info("seeder: ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}

	existing, err := users.FindByEmail(ctx, seed.AdminEmail)
	switch {
	case err == nil:
		if existing.Role != model.RoleAdmin {
			if _, err := users.UpdateRole(ctx, existing.ID, model.RoleAdmin); err != nil {
				return fmt.Errorf("seeder: promote admin: %w", err)
			}
			slog.Info("seeder: promoted existing account to admin", "email", existing.Email)
		}
		if !existing.IsActive {
			if _, err := users.SetActive(ctx, existing.ID, true); err != nil {
				return fmt.Errorf("seeder: reactivate admin: %w", err)
			}
		}
		return nil
	case !errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("seeder: find admin: %w", err)
	}

	hash, err := utils.HashPassword(seed.AdminPassword)
	if err != nil {
		return fmt.Errorf("seeder: hash password: %w", err)
	}
	admin := &model.User{
		Name:         seed.AdminName,
		Email:        seed.AdminEmail,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		IsActive:     true,
	}
	if err := users.Create(ctx, admin); err != nil {
		return fmt.Errorf("seeder: create admin: %w", err)
	}
	slog.Info("seeder: admin account created", "email", admin.Email)
	return nil
}
