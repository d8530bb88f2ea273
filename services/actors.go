package services

import (
	"context"
	"errors"

	"propmarket-go/models"
	"propmarket-go/repositories"
	"propmarket-go/utils"
)

// loadActor resolves the identity behind a session. Authorization always
// reads the directory, never the token claims.
func loadActor(ctx context.Context, users repositories.UserRepository, id string) (*models.User, error) {
	if id == "" {
		return nil, utils.NewAuthenticationError("Authentication required")
	}
	user, err := users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, utils.NewAuthenticationError("Account no longer exists")
		}
		return nil, utils.NewInternalError("Database error", err)
	}
	if !user.IsActive {
		return nil, ErrAccountSuspended
	}
	return user, nil
}

func requireAdmin(ctx context.Context, users repositories.UserRepository, id string) (*models.User, error) {
	user, err := loadActor(ctx, users, id)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, utils.NewAuthorizationError("Admin access required")
	}
	return user, nil
}

func canManageListing(actor *models.User, property *models.Property) bool {
	return actor.IsAdmin() || property.IsOwnedBy(actor.ID)
}

func normalizePage(page, limit, defaultLimit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
