package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Favorite struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID     string    `json:"userId" gorm:"type:varchar(36);not null;uniqueIndex:idx_favorite_user_property"`
	PropertyID string    `json:"propertyId" gorm:"type:varchar(36);not null;uniqueIndex:idx_favorite_user_property"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (f *Favorite) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

type AddFavoriteRequest struct {
	PropertyID string `json:"propertyId" validate:"required"`
}
