package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yigit/schooladmin/internal/app/models"
	"github.com/yigit/schooladmin/internal/app/models/dto"
	"github.com/yigit/schooladmin/internal/pkg/apperrors"
	"github.com/yigit/schooladmin/internal/pkg/auth"
	"github.com/yigit/schooladmin/internal/pkg/helpers"
	"github.com/yigit/schooladmin/internal/pkg/validation"
)

// AdminService manages admin profiles together with their login accounts.
// Routes restrict it to super-admins.
type AdminService interface {
	List(ctx context.Context) ([]*models.Admin, error)
	Get(ctx context.Context, id int64) (*models.Admin, error)
	Create(ctx context.Context, req *dto.AdminRequest) (*models.Admin, error)
	Update(ctx context.Context, id int64, req *dto.AdminRequest) (*models.Admin, error)
	Delete(ctx context.Context, callerID, id int64) error
}

type adminService struct {
	admins AdminStore
	users  UserStore
	tx     Transactor
}

// NewAdminService creates a new AdminService
func NewAdminService(admins AdminStore, users UserStore, tx Transactor) AdminService {
	return &adminService{admins: admins, users: users, tx: tx}
}

func adminRole(superAdmin bool) models.RoleType {
	if superAdmin {
		return models.RoleSuperAdmin
	}
	return models.RoleAdmin
}

func validateAdminRequest(req *dto.AdminRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: name is required", apperrors.ErrValidationFailed)
	}
	if req.Mobile != "" && !validation.IsMobile(req.Mobile) {
		return fmt.Errorf("%w: invalid mobile number", apperrors.ErrValidationFailed)
	}
	return nil
}

func (s *adminService) List(ctx context.Context) ([]*models.Admin, error) {
	return s.admins.List(ctx)
}

func (s *adminService) Get(ctx context.Context, id int64) (*models.Admin, error) {
	return s.admins.GetByID(ctx, id)
}

// Create inserts the user row and the profile in one transaction
func (s *adminService) Create(ctx context.Context, req *dto.AdminRequest) (*models.Admin, error) {
	if err := validateAdminRequest(req); err != nil {
		return nil, err
	}
	if len(req.Password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", apperrors.ErrValidationFailed, MinPasswordLength)
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	email := strings.TrimSpace(req.Email)
	user := &models.User{
		UserID:      strings.TrimSpace(req.UserID),
		Email:       helpers.NilIfBlank(&email),
		Password:    hash,
		Role:        adminRole(req.SuperAdmin),
		DisplayName: strings.TrimSpace(req.Name),
		IsActive:    true,
	}
	admin := &models.Admin{
		Name:        strings.TrimSpace(req.Name),
		Email:       email,
		Mobile:      req.Mobile,
		Designation: strings.TrimSpace(req.Designation),
	}

	err = s.tx.InTx(ctx, func(ctx context.Context, stores TxStores) error {
		if err := stores.Users.Create(ctx, user); err != nil {
			return err
		}
		admin.UserRef = user.ID
		return stores.Admins.Create(ctx, admin)
	})
	if err != nil {
		return nil, err
	}
	admin.User = user
	return admin, nil
}

// Update writes the profile and the linked account. The login name is
// fixed at creation; a non-empty password replaces the current one.
func (s *adminService) Update(ctx context.Context, id int64, req *dto.AdminRequest) (*models.Admin, error) {
	if err := validateAdminRequest(req); err != nil {
		return nil, err
	}
	if req.Password != "" && len(req.Password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", apperrors.ErrValidationFailed, MinPasswordLength)
	}

	admin, err := s.admins.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, admin.UserRef)
	if err != nil {
		return nil, err
	}

	var hash string
	if req.Password != "" {
		if hash, err = auth.HashPassword(req.Password); err != nil {
			return nil, fmt.Errorf("error hashing password: %w", err)
		}
	}

	email := strings.TrimSpace(req.Email)
	admin.Name = strings.TrimSpace(req.Name)
	admin.Email = email
	admin.Mobile = req.Mobile
	admin.Designation = strings.TrimSpace(req.Designation)
	user.Email = helpers.NilIfBlank(&email)
	user.DisplayName = admin.Name
	user.Role = adminRole(req.SuperAdmin)

	err = s.tx.InTx(ctx, func(ctx context.Context, stores TxStores) error {
		if err := stores.Users.Update(ctx, user); err != nil {
			return err
		}
		if hash != "" {
			if err := stores.Users.UpdatePassword(ctx, user.ID, hash); err != nil {
				return err
			}
		}
		return stores.Admins.Update(ctx, admin)
	})
	if err != nil {
		return nil, err
	}
	admin.User = user
	return admin, nil
}

// Delete removes the admin's user row; the profile goes with it
func (s *adminService) Delete(ctx context.Context, callerID, id int64) error {
	admin, err := s.admins.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if admin.UserRef == callerID {
		return apperrors.NewForbiddenError("you cannot delete your own admin account")
	}
	return s.users.Delete(ctx, admin.UserRef)
}
