package services

import (
	"context"

	"propmarket-go/models"
	"propmarket-go/repositories"
	"propmarket-go/utils"
)

type FavoriteService struct {
	favorites repositories.FavoriteRepository
	props     repositories.PropertyRepository
	users     repositories.UserRepository
}

func NewFavoriteService(
	favorites repositories.FavoriteRepository,
	props repositories.PropertyRepository,
	users repositories.UserRepository,
) *FavoriteService {
	return &FavoriteService{favorites: favorites, props: props, users: users}
}

func (s *FavoriteService) Add(ctx context.Context, userID, propertyID string) error {
	if _, err := loadActor(ctx, s.users, userID); err != nil {
		return err
	}
	if propertyID == "" {
		return utils.NewValidationError("propertyId is required")
	}
	if _, err := s.props.GetByID(ctx, propertyID); err != nil {
		return notFoundOr(err, "Property not found")
	}
	if err := s.favorites.Add(ctx, userID, propertyID); err != nil {
		return utils.NewInternalError("Failed to save favorite", err)
	}
	return nil
}

func (s *FavoriteService) Remove(ctx context.Context, userID, propertyID string) error {
	if _, err := loadActor(ctx, s.users, userID); err != nil {
		return err
	}
	if err := s.favorites.Remove(ctx, userID, propertyID); err != nil {
		return notFoundOr(err, "Favorite not found")
	}
	return nil
}

func (s *FavoriteService) List(ctx context.Context, userID string) ([]models.Property, error) {
	if _, err := loadActor(ctx, s.users, userID); err != nil {
		return nil, err
	}
	properties, err := s.favorites.ListProperties(ctx, userID)
	if err != nil {
		return nil, utils.NewInternalError("Failed to fetch favorites", err)
	}
	return properties, nil
}
