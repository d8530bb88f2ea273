package repositories

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"propmarket-go/models"
)

type PropertyRepository interface {
	Create(ctx context.Context, property *models.Property) error
	GetByID(ctx context.Context, id string) (*models.Property, error)
	// UpdateFields applies a partial update and returns the stored row.
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) (*models.Property, error)
	IncrementViews(ctx context.Context, id string) error
	// Delete removes the listing together with its documents, favorites
	// and inquiries.
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, filter models.PropertyFilter) ([]models.Property, int64, error)
	ListFeatured(ctx context.Context, limit int) ([]models.Property, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Property, error)
	ListByStatus(ctx context.Context, status string) ([]models.Property, error)
	ListByVerificationStatus(ctx context.Context, status string) ([]models.Property, error)
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
	CountByVerificationStatus(ctx context.Context, status string) (int64, error)
}

type propertyRepository struct {
	db *gorm.DB
}

func NewPropertyRepository(db *gorm.DB) PropertyRepository {
	return &propertyRepository{db: db}
}

func (r *propertyRepository) Create(ctx context.Context, property *models.Property) error {
	return translate(r.db.WithContext(ctx).Create(property).Error)
}

func (r *propertyRepository) GetByID(ctx context.Context, id string) (*models.Property, error) {
	var property models.Property
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&property).Error; err != nil {
		return nil, translate(err)
	}
	return &property, nil
}

func (r *propertyRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) (*models.Property, error) {
	res := r.db.WithContext(ctx).Model(&models.Property{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *propertyRepository) IncrementViews(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&models.Property{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *propertyRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("property_id = ?", id).Delete(&models.PropertyDocument{}).Error; err != nil {
			return err
		}
		if err := tx.Where("property_id = ?", id).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("property_id = ?", id).Delete(&models.Inquiry{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Property{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// Search lists approved listings matching the filter. Page and Limit must
// already be normalized.
func (r *propertyRepository) Search(ctx context.Context, filter models.PropertyFilter) ([]models.Property, int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var properties []models.Property
	err := r.filtered(ctx, filter).
		Order(orderFor(filter.Sort)).
		Limit(filter.Limit).
		Offset((filter.Page - 1) * filter.Limit).
		Find(&properties).Error
	return properties, total, err
}

func (r *propertyRepository) filtered(ctx context.Context, f models.PropertyFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Property{}).Where("status = ?", models.StatusApproved)

	if f.City != "" {
		q = q.Where("LOWER(city) = ?", strings.ToLower(f.City))
	}
	if f.ListingType != "" {
		q = q.Where("listing_type = ?", f.ListingType)
	}
	if f.PropertyType != "" {
		q = q.Where("property_type = ?", f.PropertyType)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	if f.Bedrooms != nil {
		q = q.Where("bedrooms >= ?", *f.Bedrooms)
	}
	if f.Bathrooms != nil {
		q = q.Where("bathrooms >= ?", *f.Bathrooms)
	}
	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		q = q.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(address) LIKE ? OR LOWER(city) LIKE ?)",
			like, like, like, like)
	}
	return q
}

func orderFor(sort string) string {
	switch sort {
	case "price_asc":
		return "price ASC"
	case "price_desc":
		return "price DESC"
	case "views":
		return "views DESC"
	default:
		return "created_at DESC"
	}
}

func (r *propertyRepository) ListFeatured(ctx context.Context, limit int) ([]models.Property, error) {
	var properties []models.Property
	err := r.db.WithContext(ctx).
		Where("status = ? AND is_featured = ?", models.StatusApproved, true).
		Order("views DESC").
		Limit(limit).
		Find(&properties).Error
	return properties, err
}

func (r *propertyRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Property, error) {
	var properties []models.Property
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&properties).Error
	return properties, err
}

func (r *propertyRepository) ListByStatus(ctx context.Context, status string) ([]models.Property, error) {
	var properties []models.Property
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&properties).Error
	return properties, err
}

func (r *propertyRepository) ListByVerificationStatus(ctx context.Context, status string) ([]models.Property, error) {
	var properties []models.Property
	err := r.db.WithContext(ctx).
		Where("verification_status = ?", status).
		Order("updated_at ASC").
		Find(&properties).Error
	return properties, err
}

func (r *propertyRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Property{}).Count(&total).Error
	return total, err
}

func (r *propertyRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Property{}).Where("status = ?", status).Count(&total).Error
	return total, err
}

func (r *propertyRepository) CountByVerificationStatus(ctx context.Context, status string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Property{}).Where("verification_status = ?", status).Count(&total).Error
	return total, err
}
