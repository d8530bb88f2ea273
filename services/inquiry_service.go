package services

import (
	"context"

	"propmarket-go/events"
	"propmarket-go/models"
	"propmarket-go/repositories"
	"propmarket-go/utils"
)

type InquiryService struct {
	inquiries repositories.InquiryRepository
	props     repositories.PropertyRepository
	users     repositories.UserRepository
	publisher events.Publisher
}

func NewInquiryService(
	inquiries repositories.InquiryRepository,
	props repositories.PropertyRepository,
	users repositories.UserRepository,
	publisher events.Publisher,
) *InquiryService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &InquiryService{inquiries: inquiries, props: props, users: users, publisher: publisher}
}

// Create sends a buyer's message to the owner of an approved listing.
func (s *InquiryService) Create(ctx context.Context, buyerID string, req models.CreateInquiryRequest) (*models.Inquiry, error) {
	buyer, err := loadActor(ctx, s.users, buyerID)
	if err != nil {
		return nil, err
	}

	req.Name = utils.SanitizeString(req.Name)
	req.Email = utils.NormalizeEmail(req.Email)
	req.Phone = utils.SanitizeString(req.Phone)
	req.Message = utils.SanitizeString(req.Message)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}

	property, err := s.props.GetByID(ctx, req.PropertyID)
	if err != nil {
		return nil, notFoundOr(err, "Property not found")
	}
	if property.Status != models.StatusApproved {
		return nil, utils.NewPreconditionFailedError("This listing is not accepting inquiries")
	}
	if property.IsOwnedBy(buyer.ID) {
		return nil, utils.NewValidationError("You cannot send an inquiry about your own listing")
	}

	inquiry := &models.Inquiry{
		PropertyID: property.ID,
		BuyerID:    buyer.ID,
		SellerID:   property.OwnerID,
		Name:       req.Name,
		Email:      req.Email,
		Message:    req.Message,
	}
	if req.Phone != "" {
		inquiry.Phone = &req.Phone
	}
	if err := s.inquiries.Create(ctx, inquiry); err != nil {
		return nil, utils.NewInternalError("Failed to send inquiry", err)
	}

	if err := s.publisher.Publish(ctx, events.SubjectInquiryCreated, map[string]interface{}{
		"inquiryId":  inquiry.ID,
		"propertyId": property.ID,
		"sellerId":   property.OwnerID,
	}); err != nil {
		utils.Logger.WithError(err).Warn("Failed to publish inquiry event")
	}
	return inquiry, nil
}

func (s *InquiryService) Received(ctx context.Context, sellerID string) ([]models.InquiryWithProperty, error) {
	if _, err := loadActor(ctx, s.users, sellerID); err != nil {
		return nil, err
	}
	out, err := s.inquiries.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, utils.NewInternalError("Failed to fetch inquiries", err)
	}
	return out, nil
}

func (s *InquiryService) Sent(ctx context.Context, buyerID string) ([]models.InquiryWithProperty, error) {
	if _, err := loadActor(ctx, s.users, buyerID); err != nil {
		return nil, err
	}
	out, err := s.inquiries.ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, utils.NewInternalError("Failed to fetch inquiries", err)
	}
	return out, nil
}

// MarkRead is allowed only for the receiving seller.
func (s *InquiryService) MarkRead(ctx context.Context, inquiryID, requesterID string) error {
	actor, err := loadActor(ctx, s.users, requesterID)
	if err != nil {
		return err
	}
	inquiry, err := s.inquiries.GetByID(ctx, inquiryID)
	if err != nil {
		return notFoundOr(err, "Inquiry not found")
	}
	if inquiry.SellerID != actor.ID {
		return utils.NewAuthorizationError("Only the recipient can mark an inquiry as read")
	}
	if err := s.inquiries.MarkRead(ctx, inquiryID); err != nil {
		return notFoundOr(err, "Inquiry not found")
	}
	return nil
}
