package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"propmarket-go/models"
	"propmarket-go/repositories"
	"propmarket-go/utils"
)

type UserPage struct {
	Users []models.User `json:"users"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

type UserService struct {
	users repositories.UserRepository
}

func NewUserService(users repositories.UserRepository) *UserService {
	return &UserService{users: users}
}

// RequireAdmin resolves id to an active admin account.
func (s *UserService) RequireAdmin(ctx context.Context, id string) (*models.User, error) {
	return requireAdmin(ctx, s.users, id)
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "User not found")
	}
	return user, nil
}

// UpdateProfile lets a user edit their own profile and admins edit any.
func (s *UserService) UpdateProfile(ctx context.Context, targetID, requesterID string, req models.UpdateProfileRequest) (*models.User, error) {
	actor, err := loadActor(ctx, s.users, requesterID)
	if err != nil {
		return nil, err
	}
	if actor.ID != targetID && !actor.IsAdmin() {
		return nil, utils.NewAuthorizationError("You can only edit your own profile")
	}

	req.FullName = utils.SanitizeString(req.FullName)
	req.Phone = utils.SanitizeString(req.Phone)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}

	user, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, notFoundOr(err, "User not found")
	}
	user.FullName = &req.FullName
	user.Phone = &req.Phone
	if err := s.users.Update(ctx, user); err != nil {
		return nil, utils.NewInternalError("Failed to update user", err)
	}
	return user, nil
}

// CreateAdmin provisions another admin account. Only the super-admin may
// do this.
func (s *UserService) CreateAdmin(ctx context.Context, requesterID string, req models.CreateAdminRequest) (*models.User, error) {
	actor, err := loadActor(ctx, s.users, requesterID)
	if err != nil {
		return nil, err
	}
	if !actor.IsSuperAdmin {
		return nil, utils.NewAuthorizationError("Only the super-admin can create admins")
	}

	req.Email = utils.NormalizeEmail(req.Email)
	req.FullName = utils.SanitizeString(req.FullName)
	req.Phone = utils.SanitizeString(req.Phone)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}

	user := &models.User{
		Email:              req.Email,
		FullName:           &req.FullName,
		Phone:              &req.Phone,
		Role:               models.RoleAdmin,
		IsActive:           true,
		OnboardingComplete: true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, utils.NewConflictError("A user with this email already exists")
		}
		return nil, utils.NewInternalError("Failed to create admin", err)
	}

	utils.Logger.WithFields(logrus.Fields{
		"admin_id":   user.ID,
		"created_by": actor.ID,
	}).Info("Admin account created")
	return user, nil
}

func (s *UserService) List(ctx context.Context, adminID string, page, limit int) (*UserPage, error) {
	if _, err := requireAdmin(ctx, s.users, adminID); err != nil {
		return nil, err
	}
	page, limit = normalizePage(page, limit, 20)
	users, total, err := s.users.List(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, utils.NewInternalError("Failed to fetch users", err)
	}
	return &UserPage{Users: users, Total: total, Page: page, Limit: limit}, nil
}

func (s *UserService) Recent(ctx context.Context, adminID string, limit int) ([]models.User, error) {
	if _, err := requireAdmin(ctx, s.users, adminID); err != nil {
		return nil, err
	}
	_, limit = normalizePage(1, limit, 5)
	users, _, err := s.users.List(ctx, 0, limit)
	if err != nil {
		return nil, utils.NewInternalError("Failed to fetch users", err)
	}
	return users, nil
}

// SetActive suspends or reactivates an account. The super-admin cannot be
// suspended.
func (s *UserService) SetActive(ctx context.Context, targetID, adminID string, active bool) (*models.User, error) {
	if _, err := requireAdmin(ctx, s.users, adminID); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, notFoundOr(err, "User not found")
	}
	if user.IsSuperAdmin && !active {
		return nil, utils.NewAuthorizationError("The super-admin account cannot be suspended")
	}

	user.IsActive = active
	if err := s.users.Update(ctx, user); err != nil {
		return nil, utils.NewInternalError("Failed to update user", err)
	}
	return user, nil
}

// Delete removes an account. The super-admin cannot be deleted.
func (s *UserService) Delete(ctx context.Context, targetID, adminID string) error {
	if _, err := requireAdmin(ctx, s.users, adminID); err != nil {
		return err
	}
	user, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return notFoundOr(err, "User not found")
	}
	if user.IsSuperAdmin {
		return utils.NewAuthorizationError("The super-admin account cannot be deleted")
	}
	if err := s.users.Delete(ctx, targetID); err != nil {
		return notFoundOr(err, "User not found")
	}
	return nil
}
