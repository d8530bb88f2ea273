package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ListingTypeSale  = "sale"
	ListingTypeLease = "lease"
)

// Lifecycle status of a listing.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
	StatusSold     = "sold"
	StatusLeased   = "leased"
)

// Verification status of a listing. Independent of the lifecycle status.
const (
	VerificationUnverified = "unverified"
	VerificationPending    = "pending"
	VerificationVerified   = "verified"
	VerificationRejected   = "rejected"
)

var PropertyTypes = []string{"house", "apartment", "condo", "townhouse", "villa", "land", "commercial"}

type Property struct {
	ID                 string                      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title              string                      `json:"title" gorm:"not null"`
	Description        string                      `json:"description" gorm:"type:text;not null"`
	Address            string                      `json:"address" gorm:"not null"`
	City               string                      `json:"city" gorm:"index;not null"`
	State              string                      `json:"state" gorm:"not null"`
	ZipCode            string                      `json:"zipCode" gorm:"not null"`
	ListingType        string                      `json:"listingType" gorm:"index;not null"`
	PropertyType       string                      `json:"propertyType" gorm:"index;not null"`
	Price              float64                     `json:"price" gorm:"not null"`
	Bedrooms           int                         `json:"bedrooms" gorm:"not null;default:0"`
	Bathrooms          int                         `json:"bathrooms" gorm:"not null;default:0"`
	SquareFeet         int                         `json:"squareFeet" gorm:"not null"`
	YearBuilt          *int                        `json:"yearBuilt"`
	Images             datatypes.JSONSlice[string] `json:"images"`
	Amenities          datatypes.JSONSlice[string] `json:"amenities"`
	OwnerID            string                      `json:"ownerId" gorm:"type:varchar(36);index;not null"`
	OwnerType          string                      `json:"ownerType" gorm:"not null"`
	Views              int                         `json:"views" gorm:"not null;default:0"`
	IsFeatured         bool                        `json:"isFeatured" gorm:"not null;default:false"`
	Status             string                      `json:"status" gorm:"index;not null;default:pending"`
	RejectionReason    *string                     `json:"rejectionReason,omitempty"`
	VerificationStatus string                      `json:"verificationStatus" gorm:"index;not null;default:unverified"`
	VerificationNotes  *string                     `json:"verificationNotes"`
	VerifiedBy         *string                     `json:"verifiedBy" gorm:"type:varchar(36)"`
	VerifiedAt         *time.Time                  `json:"verifiedAt"`
	CreatedAt          time.Time                   `json:"createdAt"`
	UpdatedAt          time.Time                   `json:"updatedAt"`
}

func (p *Property) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

func (p *Property) IsOwnedBy(userID string) bool {
	return p.OwnerID == userID
}

// PropertyWithOwner is the detail view of a listing.
type PropertyWithOwner struct {
	Property
	Owner *OwnerSummary `json:"owner"`
}

type PropertyInput struct {
	Title        string   `json:"title" validate:"required,min=5,max=200"`
	Description  string   `json:"description" validate:"required,min=20"`
	ListingType  string   `json:"listingType" validate:"required,oneof=sale lease"`
	PropertyType string   `json:"propertyType" validate:"required,oneof=house apartment condo townhouse villa land commercial"`
	Price        float64  `json:"price" validate:"gt=0"`
	Address      string   `json:"address" validate:"required,min=5"`
	City         string   `json:"city" validate:"required,min=2"`
	State        string   `json:"state" validate:"required,min=2"`
	ZipCode      string   `json:"zipCode" validate:"required,min=5,max=10"`
	Bedrooms     int      `json:"bedrooms" validate:"gte=0,lte=100"`
	Bathrooms    int      `json:"bathrooms" validate:"gte=0,lte=100"`
	SquareFeet   int      `json:"squareFeet" validate:"gte=1"`
	YearBuilt    *int     `json:"yearBuilt" validate:"omitempty,gte=1800,lte=2100"`
	Images       []string `json:"images" validate:"omitempty,max=30,dive,url"`
	Amenities    []string `json:"amenities" validate:"omitempty,max=50,dive,min=1,max=50"`
}

// Apply copies the descriptive fields of the input onto p.
func (in *PropertyInput) Apply(p *Property) {
	p.Title = in.Title
	p.Description = in.Description
	p.ListingType = in.ListingType
	p.PropertyType = in.PropertyType
	p.Price = in.Price
	p.Address = in.Address
	p.City = in.City
	p.State = in.State
	p.ZipCode = in.ZipCode
	p.Bedrooms = in.Bedrooms
	p.Bathrooms = in.Bathrooms
	p.SquareFeet = in.SquareFeet
	p.YearBuilt = in.YearBuilt
	p.Images = datatypes.JSONSlice[string](nonNil(in.Images))
	p.Amenities = datatypes.JSONSlice[string](nonNil(in.Amenities))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

type PropertyFilter struct {
	Search       string   `json:"search,omitempty"`
	City         string   `json:"city,omitempty"`
	ListingType  string   `json:"listingType,omitempty" validate:"omitempty,oneof=sale lease"`
	PropertyType string   `json:"propertyType,omitempty" validate:"omitempty,oneof=house apartment condo townhouse villa land commercial"`
	MinPrice     *float64 `json:"minPrice,omitempty" validate:"omitempty,gte=0"`
	MaxPrice     *float64 `json:"maxPrice,omitempty" validate:"omitempty,gte=0"`
	Bedrooms     *int     `json:"bedrooms,omitempty" validate:"omitempty,gte=0"`
	Bathrooms    *int     `json:"bathrooms,omitempty" validate:"omitempty,gte=0"`
	Sort         string   `json:"sort,omitempty" validate:"omitempty,oneof=newest price_asc price_desc views"`
	Page         int      `json:"page"`
	Limit        int      `json:"limit"`
}

type PropertyPage struct {
	Properties []Property `json:"properties"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
}

type RejectPropertyRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

type VerifyPropertyRequest struct {
	Status string `json:"status" validate:"required,oneof=verified rejected"`
	Notes  string `json:"notes" validate:"omitempty,max=2000"`
}

type FeaturePropertyRequest struct {
	IsFeatured bool `json:"isFeatured"`
}

type PropertyStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=sold leased"`
}

type AdminStats struct {
	TotalProperties      int64 `json:"totalProperties"`
	PendingApprovals     int64 `json:"pendingApprovals"`
	PendingVerifications int64 `json:"pendingVerifications"`
	ActiveListings       int64 `json:"activeListings"`
	TotalUsers           int64 `json:"totalUsers"`
}
