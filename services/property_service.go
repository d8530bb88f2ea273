package services

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"propmarket-go/events"
	"propmarket-go/models"
	"propmarket-go/repositories"
	"propmarket-go/utils"
)

// SearchCache stores public search result pages.
type SearchCache interface {
	GetSearch(ctx context.Context, filter models.PropertyFilter) (*models.PropertyPage, bool, error)
	SetSearch(ctx context.Context, filter models.PropertyFilter, page *models.PropertyPage) error
	InvalidateSearch(ctx context.Context) error
}

type PropertyService struct {
	props     repositories.PropertyRepository
	docs      repositories.DocumentRepository
	users     repositories.UserRepository
	storage   DocumentStorage
	cache     SearchCache
	publisher events.Publisher
}

// NewPropertyService wires listing management. storage and cache may be nil.
func NewPropertyService(
	props repositories.PropertyRepository,
	docs repositories.DocumentRepository,
	users repositories.UserRepository,
	store DocumentStorage,
	cache SearchCache,
	publisher events.Publisher,
) *PropertyService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &PropertyService{
		props:     props,
		docs:      docs,
		users:     users,
		storage:   store,
		cache:     cache,
		publisher: publisher,
	}
}

func (s *PropertyService) Create(ctx context.Context, ownerID string, in models.PropertyInput) (*models.Property, error) {
	owner, err := loadActor(ctx, s.users, ownerID)
	if err != nil {
		return nil, err
	}
	if !owner.CanOwnListings() {
		return nil, utils.NewAuthorizationError("Only sellers and agents can create listings")
	}

	sanitizeInput(&in)
	if err := utils.ValidateStruct(in); err != nil {
		return nil, validationError(err)
	}

	property := &models.Property{
		OwnerID:            owner.ID,
		OwnerType:          owner.Role,
		Status:             models.StatusPending,
		VerificationStatus: models.VerificationUnverified,
	}
	in.Apply(property)
	if err := s.props.Create(ctx, property); err != nil {
		return nil, utils.NewInternalError("Failed to create listing", err)
	}

	utils.Logger.WithFields(logrus.Fields{
		"property_id": property.ID,
		"owner_id":    owner.ID,
	}).Info("Listing created")
	return property, nil
}

func sanitizeInput(in *models.PropertyInput) {
	in.Title = utils.SanitizeString(in.Title)
	in.Description = utils.SanitizeString(in.Description)
	in.Address = utils.SanitizeString(in.Address)
	in.City = utils.SanitizeString(in.City)
	in.State = utils.SanitizeString(in.State)
	in.ZipCode = utils.SanitizeString(in.ZipCode)
}

// Get returns the listing with its owner and counts the view.
func (s *PropertyService) Get(ctx context.Context, id string) (*models.PropertyWithOwner, error) {
	if err := s.props.IncrementViews(ctx, id); err != nil {
		return nil, notFoundOr(err, "Property not found")
	}
	property, err := s.props.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Property not found")
	}

	out := &models.PropertyWithOwner{Property: *property}
	if owner, err := s.users.GetByID(ctx, property.OwnerID); err == nil {
		summary := owner.Summary()
		out.Owner = &summary
	}
	return out, nil
}

// Search lists approved listings. Pages are served from the cache when one
// is configured.
func (s *PropertyService) Search(ctx context.Context, filter models.PropertyFilter) (*models.PropertyPage, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	filter.City = strings.ToLower(strings.TrimSpace(filter.City))
	filter.Page, filter.Limit = normalizePage(filter.Page, filter.Limit, 20)
	if err := utils.ValidateStruct(filter); err != nil {
		return nil, validationError(err)
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return nil, utils.NewValidationError("minPrice must not exceed maxPrice")
	}

	if s.cache != nil {
		page, ok, err := s.cache.GetSearch(ctx, filter)
		if err != nil {
			utils.Logger.WithError(err).Warn("Search cache read failed")
		} else if ok {
			return page, nil
		}
	}

	properties, total, err := s.props.Search(ctx, filter)
	if err != nil {
		return nil, utils.NewInternalError("Failed to search listings", err)
	}
	page := &models.PropertyPage{Properties: properties, Total: total, Page: filter.Page, Limit: filter.Limit}

	if s.cache != nil {
		if err := s.cache.SetSearch(ctx, filter, page); err != nil {
			utils.Logger.WithError(err).Warn("Search cache write failed")
		}
	}
	return page, nil
}

func (s *PropertyService) Featured(ctx context.Context, limit int) ([]models.Property, error) {
	_, limit = normalizePage(1, limit, 6)
	properties, err := s.props.ListFeatured(ctx, limit)
	if err != nil {
		return nil, utils.NewInternalError("Failed to fetch featured listings", err)
	}
	return properties, nil
}

func (s *PropertyService) MyListings(ctx context.Context, ownerID string) ([]models.Property, error) {
	if _, err := loadActor(ctx, s.users, ownerID); err != nil {
		return nil, err
	}
	properties, err := s.props.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, utils.NewInternalError("Failed to fetch listings", err)
	}
	return properties, nil
}

// Update replaces the descriptive fields of a listing. Moderation and
// verification state are not touched.
func (s *PropertyService) Update(ctx context.Context, id, requesterID string, in models.PropertyInput) (*models.Property, error) {
	property, _, err := s.loadManaged(ctx, id, requesterID)
	if err != nil {
		return nil, err
	}

	sanitizeInput(&in)
	if err := utils.ValidateStruct(in); err != nil {
		return nil, validationError(err)
	}
	if in.ListingType != property.ListingType {
		count, err := s.docs.CountByProperty(ctx, id)
		if err != nil {
			return nil, utils.NewInternalError("Database error", err)
		}
		if count > 0 {
			return nil, utils.NewPreconditionFailedError("Listing type cannot change once documents are attached")
		}
	}

	in.Apply(property)
	updated, err := s.props.UpdateFields(ctx, id, map[string]interface{}{
		"title":         property.Title,
		"description":   property.Description,
		"listing_type":  property.ListingType,
		"property_type": property.PropertyType,
		"price":         property.Price,
		"address":       property.Address,
		"city":          property.City,
		"state":         property.State,
		"zip_code":      property.ZipCode,
		"bedrooms":      property.Bedrooms,
		"bathrooms":     property.Bathrooms,
		"square_feet":   property.SquareFeet,
		"year_built":    property.YearBuilt,
		"images":        property.Images,
		"amenities":     property.Amenities,
	})
	if err != nil {
		return nil, notFoundOr(err, "Property not found")
	}
	s.invalidate(ctx)
	return updated, nil
}

// MarkClosed records a completed sale or lease on an approved listing.
func (s *PropertyService) MarkClosed(ctx context.Context, id, requesterID, status string) (*models.Property, error) {
	property, _, err := s.loadManaged(ctx, id, requesterID)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(models.PropertyStatusRequest{Status: status}); err != nil {
		return nil, validationError(err)
	}
	if (status == models.StatusSold) != (property.ListingType == models.ListingTypeSale) {
		return nil, utils.NewValidationError("Sale listings close as sold and lease listings as leased")
	}
	if property.Status != models.StatusApproved {
		return nil, utils.NewPreconditionFailedError("Only approved listings can be closed")
	}

	updated, err := s.props.UpdateFields(ctx, id, map[string]interface{}{"status": status})
	if err != nil {
		return nil, notFoundOr(err, "Property not found")
	}
	s.invalidate(ctx)
	return updated, nil
}

// Delete removes a listing with its documents. Stored files are removed
// after the records; failures there are only logged.
func (s *PropertyService) Delete(ctx context.Context, id, requesterID string) error {
	if _, _, err := s.loadManaged(ctx, id, requesterID); err != nil {
		return err
	}

	docs, err := s.docs.ListByProperty(ctx, id)
	if err != nil {
		return utils.NewInternalError("Database error", err)
	}
	if err := s.props.Delete(ctx, id); err != nil {
		return notFoundOr(err, "Property not found")
	}

	if s.storage != nil {
		for _, doc := range docs {
			if err := s.storage.Delete(ctx, doc.StorageKey); err != nil {
				utils.Logger.WithError(err).WithField("key", doc.StorageKey).Warn("Failed to delete stored document")
			}
		}
	}
	s.invalidate(ctx)

	utils.Logger.WithFields(logrus.Fields{
		"property_id":  id,
		"requester_id": requesterID,
	}).Info("Listing deleted")
	return nil
}

func (s *PropertyService) Approve(ctx context.Context, id, adminID string) (*models.Property, error) {
	return s.moderate(ctx, id, adminID, models.StatusApproved, "")
}

func (s *PropertyService) Reject(ctx context.Context, id, adminID, reason string) (*models.Property, error) {
	if err := utils.ValidateStruct(models.RejectPropertyRequest{Reason: reason}); err != nil {
		return nil, validationError(err)
	}
	return s.moderate(ctx, id, adminID, models.StatusRejected, strings.TrimSpace(reason))
}

// moderate moves a listing between pending, approved and rejected. Closed
// listings stay closed.
func (s *PropertyService) moderate(ctx context.Context, id, adminID, status, reason string) (*models.Property, error) {
	admin, err := requireAdmin(ctx, s.users, adminID)
	if err != nil {
		return nil, err
	}
	property, err := s.props.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Property not found")
	}
	if property.Status == models.StatusSold || property.Status == models.StatusLeased {
		return nil, utils.NewPreconditionFailedError("Closed listings cannot be moderated")
	}

	fields := map[string]interface{}{"status": status, "rejection_reason": nil}
	if status == models.StatusRejected && reason != "" {
		fields["rejection_reason"] = reason
	}
	updated, err := s.props.UpdateFields(ctx, id, fields)
	if err != nil {
		return nil, notFoundOr(err, "Property not found")
	}
	s.invalidate(ctx)

	subject := events.SubjectPropertyApproved
	if status == models.StatusRejected {
		subject = events.SubjectPropertyRejected
	}
	s.publish(ctx, subject, map[string]interface{}{
		"propertyId": id,
		"ownerId":    updated.OwnerID,
		"adminId":    admin.ID,
		"reason":     reason,
	})
	return updated, nil
}

func (s *PropertyService) SetFeatured(ctx context.Context, id, adminID string, featured bool) (*models.Property, error) {
	if _, err := requireAdmin(ctx, s.users, adminID); err != nil {
		return nil, err
	}
	updated, err := s.props.UpdateFields(ctx, id, map[string]interface{}{"is_featured": featured})
	if err != nil {
		return nil, notFoundOr(err, "Property not found")
	}
	s.invalidate(ctx)
	return updated, nil
}

func (s *PropertyService) PendingListings(ctx context.Context, adminID string) ([]models.Property, error) {
	if _, err := requireAdmin(ctx, s.users, adminID); err != nil {
		return nil, err
	}
	properties, err := s.props.ListByStatus(ctx, models.StatusPending)
	if err != nil {
		return nil, utils.NewInternalError("Failed to fetch listings", err)
	}
	return properties, nil
}

func (s *PropertyService) Stats(ctx context.Context, adminID string) (*models.AdminStats, error) {
	if _, err := requireAdmin(ctx, s.users, adminID); err != nil {
		return nil, err
	}

	var stats models.AdminStats
	var err error
	if stats.TotalProperties, err = s.props.Count(ctx); err != nil {
		return nil, utils.NewInternalError("Failed to compute stats", err)
	}
	if stats.PendingApprovals, err = s.props.CountByStatus(ctx, models.StatusPending); err != nil {
		return nil, utils.NewInternalError("Failed to compute stats", err)
	}
	if stats.ActiveListings, err = s.props.CountByStatus(ctx, models.StatusApproved); err != nil {
		return nil, utils.NewInternalError("Failed to compute stats", err)
	}
	if stats.PendingVerifications, err = s.props.CountByVerificationStatus(ctx, models.VerificationPending); err != nil {
		return nil, utils.NewInternalError("Failed to compute stats", err)
	}
	if stats.TotalUsers, err = s.users.Count(ctx); err != nil {
		return nil, utils.NewInternalError("Failed to compute stats", err)
	}
	return &stats, nil
}

// loadManaged returns a listing the requester owns or administers.
func (s *PropertyService) loadManaged(ctx context.Context, id, requesterID string) (*models.Property, *models.User, error) {
	actor, err := loadActor(ctx, s.users, requesterID)
	if err != nil {
		return nil, nil, err
	}
	property, err := s.props.GetByID(ctx, id)
	if err != nil {
		return nil, nil, notFoundOr(err, "Property not found")
	}
	if !canManageListing(actor, property) {
		return nil, nil, utils.NewAuthorizationError("You do not have permission to modify this listing")
	}
	return property, actor, nil
}

func (s *PropertyService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateSearch(ctx); err != nil {
		utils.Logger.WithError(err).Warn("Search cache invalidation failed")
	}
}

func (s *PropertyService) publish(ctx context.Context, subject string, payload interface{}) {
	if err := s.publisher.Publish(ctx, subject, payload); err != nil {
		utils.Logger.WithError(err).WithField("subject", subject).Warn("Failed to publish event")
	}
}
