package services

import (
	"context"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"

	"propmarket-go/events"
	"propmarket-go/metrics"
	"propmarket-go/models"
	"propmarket-go/repositories"
	"propmarket-go/storage"
	"propmarket-go/utils"
)

// DocumentStorage keeps uploaded document files.
type DocumentStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

var allowedDocumentMimeTypes = []string{
	"application/pdf",
	"image/jpeg",
	"image/png",
	"image/webp",
}

const documentURLExpiry = 15 * time.Minute

// VerificationService runs the ownership-document workflow of a listing:
// unverified -> pending -> verified | rejected, with owners free to add
// documents and request review again.
type VerificationService struct {
	props          repositories.PropertyRepository
	docs           repositories.DocumentRepository
	users          repositories.UserRepository
	storage        DocumentStorage
	cache          SearchCache
	publisher      events.Publisher
	metrics        *metrics.Manager
	maxUploadBytes int64
	now            func() time.Time
}

// NewVerificationService wires the workflow. A nil storage disables uploads.
func NewVerificationService(
	props repositories.PropertyRepository,
	docs repositories.DocumentRepository,
	users repositories.UserRepository,
	store DocumentStorage,
	cache SearchCache,
	publisher events.Publisher,
	m *metrics.Manager,
	maxUploadBytes int64,
) *VerificationService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &VerificationService{
		props:          props,
		docs:           docs,
		users:          users,
		storage:        store,
		cache:          cache,
		publisher:      publisher,
		metrics:        m,
		maxUploadBytes: maxUploadBytes,
		now:            time.Now,
	}
}

func (s *VerificationService) StorageConfigured() bool {
	return s.storage != nil
}

// AttachDocument stores a file against a listing. The first document moves
// an unverified listing to pending review.
func (s *VerificationService) AttachDocument(ctx context.Context, propertyID, requesterID string, upload models.DocumentUpload) (*models.PropertyDocument, error) {
	property, err := s.props.GetByID(ctx, propertyID)
	if err != nil {
		return nil, notFoundOr(err, "Property not found")
	}
	actor, err := loadActor(ctx, s.users, requesterID)
	if err != nil {
		return nil, err
	}
	if !canManageListing(actor, property) {
		return nil, utils.NewAuthorizationError("Only the listing owner or an admin can upload documents")
	}
	if s.storage == nil {
		return nil, ErrStorageUnavailable
	}

	upload.DocumentType = strings.TrimSpace(upload.DocumentType)
	if upload.DocumentType == "" {
		return nil, utils.NewValidationError("documentType is required")
	}
	if !models.ValidDocumentType(property.ListingType, upload.DocumentType) {
		return nil, utils.NewValidationError("documentType is not valid for a " + property.ListingType + " listing")
	}
	if len(upload.Data) == 0 {
		return nil, utils.NewValidationError("file is required")
	}
	if int64(len(upload.Data)) > s.maxUploadBytes {
		return nil, utils.NewValidationError("file is too large")
	}
	mime := mimetype.Detect(upload.Data)
	if !mimetype.EqualsAny(mime.String(), allowedDocumentMimeTypes...) {
		return nil, utils.NewValidationError("file must be a PDF or an image")
	}

	key := storage.DocumentKey(property.ID, upload.FileName, s.now())
	fileURL, err := s.storage.Upload(ctx, key, upload.Data, mime.String())
	if err != nil {
		return nil, utils.NewDependencyUnavailableError("Failed to store document", err)
	}

	doc := &models.PropertyDocument{
		PropertyID:   property.ID,
		DocumentType: upload.DocumentType,
		FileName:     upload.FileName,
		StorageKey:   key,
		FileURL:      fileURL,
		FileSize:     int64(len(upload.Data)),
		MimeType:     mime.String(),
		UploadedBy:   actor.ID,
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			utils.Logger.WithError(delErr).WithField("key", key).Warn("Failed to remove orphaned document")
		}
		return nil, utils.NewInternalError("Failed to save document", err)
	}

	if property.VerificationStatus == models.VerificationUnverified {
		if _, err := s.props.UpdateFields(ctx, property.ID, map[string]interface{}{
			"verification_status": models.VerificationPending,
		}); err != nil {
			return nil, utils.NewInternalError("Failed to update verification status", err)
		}
		s.invalidate(ctx)
	}

	if s.metrics != nil {
		s.metrics.DocumentUploadsTotal.Inc()
	}
	utils.Logger.WithFields(logrus.Fields{
		"property_id":   property.ID,
		"document_id":   doc.ID,
		"document_type": doc.DocumentType,
	}).Info("Document attached")
	return doc, nil
}

func (s *VerificationService) ListDocuments(ctx context.Context, propertyID, requesterID string) ([]models.PropertyDocument, error) {
	if _, err := s.loadManaged(ctx, propertyID, requesterID); err != nil {
		return nil, err
	}
	docs, err := s.docs.ListByProperty(ctx, propertyID)
	if err != nil {
		return nil, utils.NewInternalError("Failed to fetch documents", err)
	}
	return docs, nil
}

// DocumentURL returns a short-lived download link for a document.
func (s *VerificationService) DocumentURL(ctx context.Context, documentID, requesterID string) (string, error) {
	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return "", notFoundOr(err, "Document not found")
	}
	if _, err := s.loadManaged(ctx, doc.PropertyID, requesterID); err != nil {
		return "", err
	}
	if s.storage == nil {
		return "", ErrStorageUnavailable
	}
	link, err := s.storage.PresignedURL(ctx, doc.StorageKey, documentURLExpiry)
	if err != nil {
		return "", utils.NewDependencyUnavailableError("Failed to sign document link", err)
	}
	return link, nil
}

// RequestVerification puts the listing in the review queue. Only the owner
// may ask, and only once a document is attached.
func (s *VerificationService) RequestVerification(ctx context.Context, propertyID, requesterID string) (*models.Property, error) {
	property, err := s.props.GetByID(ctx, propertyID)
	if err != nil {
		return nil, notFoundOr(err, "Property not found")
	}
	actor, err := loadActor(ctx, s.users, requesterID)
	if err != nil {
		return nil, err
	}
	if !property.IsOwnedBy(actor.ID) {
		return nil, utils.NewAuthorizationError("Only the listing owner can request verification")
	}

	count, err := s.docs.CountByProperty(ctx, propertyID)
	if err != nil {
		return nil, utils.NewInternalError("Database error", err)
	}
	if count == 0 {
		return nil, utils.NewPreconditionFailedError("Upload at least one document before requesting verification")
	}

	updated, err := s.props.UpdateFields(ctx, propertyID, map[string]interface{}{
		"verification_status": models.VerificationPending,
		"verification_notes":  nil,
		"verified_by":         nil,
		"verified_at":         nil,
	})
	if err != nil {
		return nil, notFoundOr(err, "Property not found")
	}
	s.invalidate(ctx)
	s.publish(ctx, events.SubjectVerificationRequested, map[string]interface{}{
		"propertyId": propertyID,
		"ownerId":    actor.ID,
	})
	return updated, nil
}

// DecideVerification records an admin's verdict on a listing's documents.
func (s *VerificationService) DecideVerification(ctx context.Context, propertyID, adminID string, req models.VerifyPropertyRequest) (*models.Property, error) {
	admin, err := requireAdmin(ctx, s.users, adminID)
	if err != nil {
		return nil, err
	}
	req.Notes = strings.TrimSpace(req.Notes)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}
	property, err := s.props.GetByID(ctx, propertyID)
	if err != nil {
		return nil, notFoundOr(err, "Property not found")
	}
	if property.VerificationStatus != models.VerificationPending {
		return nil, utils.NewPreconditionFailedError("Verification has not been requested for this property")
	}

	now := s.now()
	var notes interface{}
	if req.Notes != "" {
		notes = req.Notes
	}
	updated, err := s.props.UpdateFields(ctx, propertyID, map[string]interface{}{
		"verification_status": req.Status,
		"verification_notes":  notes,
		"verified_by":         admin.ID,
		"verified_at":         now,
	})
	if err != nil {
		return nil, notFoundOr(err, "Property not found")
	}
	s.invalidate(ctx)

	s.publish(ctx, events.SubjectVerificationDecided, map[string]interface{}{
		"propertyId": propertyID,
		"ownerId":    updated.OwnerID,
		"status":     req.Status,
		"adminId":    admin.ID,
	})
	utils.Logger.WithFields(logrus.Fields{
		"property_id": propertyID,
		"admin_id":    admin.ID,
		"status":      req.Status,
	}).Info("Verification decided")
	return updated, nil
}

// RemoveDocument deletes a document record and its stored file.
func (s *VerificationService) RemoveDocument(ctx context.Context, documentID, requesterID string) error {
	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return notFoundOr(err, "Document not found")
	}
	if _, err := s.loadManaged(ctx, doc.PropertyID, requesterID); err != nil {
		return err
	}

	if err := s.docs.Delete(ctx, documentID); err != nil {
		return notFoundOr(err, "Document not found")
	}
	if s.storage != nil {
		if err := s.storage.Delete(ctx, doc.StorageKey); err != nil {
			utils.Logger.WithError(err).WithField("key", doc.StorageKey).Warn("Failed to delete stored document")
		}
	}
	return nil
}

func (s *VerificationService) PendingVerifications(ctx context.Context, adminID string) ([]models.Property, error) {
	if _, err := requireAdmin(ctx, s.users, adminID); err != nil {
		return nil, err
	}
	properties, err := s.props.ListByVerificationStatus(ctx, models.VerificationPending)
	if err != nil {
		return nil, utils.NewInternalError("Failed to fetch listings", err)
	}
	return properties, nil
}

func (s *VerificationService) loadManaged(ctx context.Context, propertyID, requesterID string) (*models.Property, error) {
	actor, err := loadActor(ctx, s.users, requesterID)
	if err != nil {
		return nil, err
	}
	property, err := s.props.GetByID(ctx, propertyID)
	if err != nil {
		return nil, notFoundOr(err, "Property not found")
	}
	if !canManageListing(actor, property) {
		return nil, utils.NewAuthorizationError("Only the listing owner or an admin can access documents")
	}
	return property, nil
}

func (s *VerificationService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateSearch(ctx); err != nil {
		utils.Logger.WithError(err).Warn("Search cache invalidation failed")
	}
}

func (s *VerificationService) publish(ctx context.Context, subject string, payload interface{}) {
	if err := s.publisher.Publish(ctx, subject, payload); err != nil {
		utils.Logger.WithError(err).WithField("subject", subject).Warn("Failed to publish event")
	}
}
