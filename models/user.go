package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
	RoleAgent  = "agent"
	RoleAdmin  = "admin"
)

type User struct {
	ID                 string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email              string     `json:"email" gorm:"uniqueIndex;not null"`
	FullName           *string    `json:"fullName"`
	Phone              *string    `json:"phone"`
	Role               string     `json:"role" gorm:"not null;default:buyer"`
	IsActive           bool       `json:"isActive" gorm:"not null"`
	IsSuperAdmin       bool       `json:"isSuperAdmin" gorm:"not null;default:false"`
	OnboardingComplete bool       `json:"onboardingComplete" gorm:"not null;default:false"`
	LastLoginAt        *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanOwnListings reports whether the user may create listings.
func (u *User) CanOwnListings() bool {
	return u.Role == RoleSeller || u.Role == RoleAgent
}

// OwnerSummary is the public view of a listing owner.
type OwnerSummary struct {
	ID       string  `json:"id"`
	FullName *string `json:"fullName"`
	Email    string  `json:"email"`
	Phone    *string `json:"phone"`
	Role     string  `json:"role"`
}

func (u *User) Summary() OwnerSummary {
	return OwnerSummary{ID: u.ID, FullName: u.FullName, Email: u.Email, Phone: u.Phone, Role: u.Role}
}

type RequestOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

type VerifyOTPResponse struct {
	User      User   `json:"user"`
	IsNewUser bool   `json:"isNewUser"`
	Token     string `json:"token"`
}

type CompleteProfileRequest struct {
	FullName string `json:"fullName" validate:"required,min=2,max=100"`
	Phone    string `json:"phone" validate:"required,min=10,max=20"`
	Role     string `json:"role" validate:"required,oneof=buyer seller agent"`
}

type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

type UpdateProfileRequest struct {
	FullName string `json:"fullName" validate:"required,min=2,max=100"`
	Phone    string `json:"phone" validate:"required,min=10,max=20"`
}

type CreateAdminRequest struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"fullName" validate:"required,min=2,max=100"`
	Phone    string `json:"phone" validate:"required,min=10,max=20"`
}

type UserStatusRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}
