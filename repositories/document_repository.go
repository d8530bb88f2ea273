package repositories

import (
	"context"

	"gorm.io/gorm"

	"propmarket-go/models"
)

type DocumentRepository interface {
	Create(ctx context.Context, doc *models.PropertyDocument) error
	GetByID(ctx context.Context, id string) (*models.PropertyDocument, error)
	ListByProperty(ctx context.Context, propertyID string) ([]models.PropertyDocument, error)
	CountByProperty(ctx context.Context, propertyID string) (int64, error)
	Delete(ctx context.Context, id string) error
}

type documentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, doc *models.PropertyDocument) error {
	return translate(r.db.WithContext(ctx).Create(doc).Error)
}

func (r *documentRepository) GetByID(ctx context.Context, id string) (*models.PropertyDocument, error) {
	var doc models.PropertyDocument
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error; err != nil {
		return nil, translate(err)
	}
	return &doc, nil
}

func (r *documentRepository) ListByProperty(ctx context.Context, propertyID string) ([]models.PropertyDocument, error) {
	var docs []models.PropertyDocument
	err := r.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Order("uploaded_at ASC").
		Find(&docs).Error
	return docs, err
}

func (r *documentRepository) CountByProperty(ctx context.Context, propertyID string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.PropertyDocument{}).
		Where("property_id = ?", propertyID).
		Count(&total).Error
	return total, err
}

func (r *documentRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.PropertyDocument{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
