package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OTPCredential is a one-time login code issued to an email address.
// Only the bcrypt hash of the code is stored.
type OTPCredential struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email     string    `json:"email" gorm:"index;not null"`
	CodeHash  string    `json:"-" gorm:"not null"`
	ExpiresAt time.Time `json:"expiresAt" gorm:"index;not null"`
	Attempts  int       `json:"attempts" gorm:"not null;default:0"`
	Consumed  bool      `json:"consumed" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"createdAt"`
}

func (OTPCredential) TableName() string {
	return "otp_credentials"
}

func (c *OTPCredential) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Usable reports whether the credential may still be matched against.
func (c *OTPCredential) Usable(now time.Time, maxAttempts int) bool {
	return !c.Consumed && c.Attempts < maxAttempts && now.Before(c.ExpiresAt)
}
