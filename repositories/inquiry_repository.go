package repositories

import (
	"context"

	"gorm.io/gorm"

	"propmarket-go/models"
)

type InquiryRepository interface {
	Create(ctx context.Context, inquiry *models.Inquiry) error
	GetByID(ctx context.Context, id string) (*models.Inquiry, error)
	ListBySeller(ctx context.Context, sellerID string) ([]models.InquiryWithProperty, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]models.InquiryWithProperty, error)
	MarkRead(ctx context.Context, id string) error
}

type inquiryRepository struct {
	db *gorm.DB
}

func NewInquiryRepository(db *gorm.DB) InquiryRepository {
	return &inquiryRepository{db: db}
}

func (r *inquiryRepository) Create(ctx context.Context, inquiry *models.Inquiry) error {
	return translate(r.db.WithContext(ctx).Create(inquiry).Error)
}

func (r *inquiryRepository) GetByID(ctx context.Context, id string) (*models.Inquiry, error) {
	var inquiry models.Inquiry
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&inquiry).Error; err != nil {
		return nil, translate(err)
	}
	return &inquiry, nil
}

func (r *inquiryRepository) ListBySeller(ctx context.Context, sellerID string) ([]models.InquiryWithProperty, error) {
	return r.listWithTitle(ctx, "inquiries.seller_id = ?", sellerID)
}

func (r *inquiryRepository) ListByBuyer(ctx context.Context, buyerID string) ([]models.InquiryWithProperty, error) {
	return r.listWithTitle(ctx, "inquiries.buyer_id = ?", buyerID)
}

func (r *inquiryRepository) listWithTitle(ctx context.Context, cond string, arg string) ([]models.InquiryWithProperty, error) {
	var out []models.InquiryWithProperty
	err := r.db.WithContext(ctx).
		Table("inquiries").
		Select("inquiries.*, properties.title AS property_title").
		Joins("LEFT JOIN properties ON properties.id = inquiries.property_id").
		Where(cond, arg).
		Order("inquiries.created_at DESC").
		Scan(&out).Error
	return out, err
}

func (r *inquiryRepository) MarkRead(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&models.Inquiry{}).Where("id = ?", id).Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
