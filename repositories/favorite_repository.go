package repositories

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"propmarket-go/models"
)

type FavoriteRepository interface {
	// Add is idempotent for an existing (user, property) pair.
	Add(ctx context.Context, userID, propertyID string) error
	Remove(ctx context.Context, userID, propertyID string) error
	ListProperties(ctx context.Context, userID string) ([]models.Property, error)
}

type favoriteRepository struct {
	db *gorm.DB
}

func NewFavoriteRepository(db *gorm.DB) FavoriteRepository {
	return &favoriteRepository{db: db}
}

func (r *favoriteRepository) Add(ctx context.Context, userID, propertyID string) error {
	fav := models.Favorite{UserID: userID, PropertyID: propertyID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&fav).Error
}

func (r *favoriteRepository) Remove(ctx context.Context, userID, propertyID string) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND property_id = ?", userID, propertyID).
		Delete(&models.Favorite{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *favoriteRepository) ListProperties(ctx context.Context, userID string) ([]models.Property, error) {
	var properties []models.Property
	err := r.db.WithContext(ctx).
		Joins("JOIN favorites ON favorites.property_id = properties.id").
		Where("favorites.user_id = ?", userID).
		Order("favorites.created_at DESC").
		Find(&properties).Error
	return properties, err
}
