package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var saleDocumentTypes = map[string]bool{
	"sale_deed":                 true,
	"title_deed":                true,
	"encumbrance_certificate":   true,
	"property_tax_receipt":      true,
	"mutation_certificate":      true,
	"noc":                       true,
	"owner_id_proof":            true,
	"allotment_letter":          true,
	"possession_letter":         true,
	"occupancy_certificate":     true,
	"completion_certificate":    true,
	"society_share_certificate": true,
	"survey_plan":               true,
	"conversion_certificate":    true,
	"patta_khata":               true,
}

var leaseDocumentTypes = map[string]bool{
	"ownership_proof":      true,
	"property_tax_receipt": true,
	"owner_id_proof":       true,
	"noc_society":          true,
}

// ValidDocumentType reports whether docType belongs to the closed set for
// the given listing type.
func ValidDocumentType(listingType, docType string) bool {
	switch listingType {
	case ListingTypeSale:
		return saleDocumentTypes[docType]
	case ListingTypeLease:
		return leaseDocumentTypes[docType]
	}
	return false
}

type PropertyDocument struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	PropertyID   string    `json:"propertyId" gorm:"type:varchar(36);index;not null"`
	DocumentType string    `json:"documentType" gorm:"not null"`
	FileName     string    `json:"fileName" gorm:"not null"`
	StorageKey   string    `json:"-" gorm:"not null"`
	FileURL      string    `json:"fileUrl" gorm:"not null"`
	FileSize     int64     `json:"fileSize" gorm:"not null"`
	MimeType     string    `json:"mimeType" gorm:"not null"`
	UploadedBy   string    `json:"uploadedBy" gorm:"type:varchar(36);not null"`
	UploadedAt   time.Time `json:"uploadedAt" gorm:"autoCreateTime"`
}

func (d *PropertyDocument) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// DocumentUpload is a file received for attachment to a listing.
type DocumentUpload struct {
	DocumentType string
	FileName     string
	Data         []byte
}
