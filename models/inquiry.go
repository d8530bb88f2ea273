package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Inquiry struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	PropertyID string    `json:"propertyId" gorm:"type:varchar(36);index;not null"`
	BuyerID    string    `json:"buyerId" gorm:"type:varchar(36);index;not null"`
	SellerID   string    `json:"sellerId" gorm:"type:varchar(36);index;not null"`
	Name       string    `json:"name" gorm:"not null"`
	Email      string    `json:"email" gorm:"not null"`
	Phone      *string   `json:"phone"`
	Message    string    `json:"message" gorm:"type:text;not null"`
	IsRead     bool      `json:"isRead" gorm:"not null;default:false"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (i *Inquiry) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

type InquiryWithProperty struct {
	Inquiry
	PropertyTitle string `json:"propertyTitle"`
}

type CreateInquiryRequest struct {
	PropertyID string `json:"propertyId" validate:"required"`
	Name       string `json:"name" validate:"required,min=2,max=100"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"omitempty,min=10,max=20"`
	Message    string `json:"message" validate:"required,min=10,max=2000"`
}
