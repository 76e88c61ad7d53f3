package services

import (
	"context"
	"fmt"
	"strings"

	appAuth "github.com/yigit/schooladmin/internal/app/auth"
	"github.com/yigit/schooladmin/internal/app/models"
	"github.com/yigit/schooladmin/internal/app/models/dto"
	"github.com/yigit/schooladmin/internal/pkg/apperrors"
	"github.com/yigit/schooladmin/internal/pkg/auth"
	"github.com/yigit/schooladmin/internal/pkg/helpers"
)

// UserService manages login accounts of every role
type UserService interface {
	List(ctx context.Context, role string, page, size int) ([]*models.User, int64, error)
	Get(ctx context.Context, id int64) (*models.User, error)
	Create(ctx context.Context, p appAuth.Principal, req *dto.CreateUserRequest) (*models.User, error)
	Update(ctx context.Context, p appAuth.Principal, id int64, req *dto.UpdateUserRequest) (*models.User, error)
	SetPassword(ctx context.Context, p appAuth.Principal, id int64, password string) error
	Delete(ctx context.Context, p appAuth.Principal, id int64) error
}

type userService struct {
	users UserStore
	authz *appAuth.AuthorizationService
}

// NewUserService creates a new UserService
func NewUserService(users UserStore, authz *appAuth.AuthorizationService) UserService {
	return &userService{users: users, authz: authz}
}

func (s *userService) List(ctx context.Context, role string, page, size int) ([]*models.User, int64, error) {
	if role != "" && !models.RoleType(role).Valid() {
		return nil, 0, fmt.Errorf("%w: unknown role %q", apperrors.ErrValidationFailed, role)
	}
	page, size = helpers.NormalizePage(page, size)
	return s.users.List(ctx, role, page, size)
}

func (s *userService) Get(ctx context.Context, id int64) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// canManage rejects changes to administrative accounts by anyone but a super-admin
func (s *userService) canManage(p appAuth.Principal, target *models.User) error {
	if target.Role.IsAdministrative() && p.Role != models.RoleSuperAdmin {
		return apperrors.NewForbiddenError("only a super-admin can manage admin accounts")
	}
	return nil
}

// Create adds an account. Student and parent accounts must name the
// student they belong to.
func (s *userService) Create(ctx context.Context, p appAuth.Principal, req *dto.CreateUserRequest) (*models.User, error) {
	if err := s.authz.CanAssignRole(p, req.Role); err != nil {
		return nil, err
	}
	if len(req.Password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", apperrors.ErrValidationFailed, MinPasswordLength)
	}

	studentRef := helpers.NilIfBlank(req.StudentRef)
	if (req.Role == models.RoleStudent || req.Role == models.RoleParent) && studentRef == nil {
		return nil, fmt.Errorf("%w: studentRef is required for %s accounts", apperrors.ErrValidationFailed, req.Role)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		UserID:      strings.TrimSpace(req.UserID),
		Email:       helpers.NilIfBlank(req.Email),
		Password:    hash,
		Role:        req.Role,
		DisplayName: strings.TrimSpace(req.DisplayName),
		StudentRef:  studentRef,
		IsActive:    true,
	}
	if user.DisplayName == "" {
		user.DisplayName = user.UserID
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Update applies the fields present in req
func (s *userService) Update(ctx context.Context, p appAuth.Principal, id int64, req *dto.UpdateUserRequest) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.canManage(p, user); err != nil {
		return nil, err
	}

	if req.Role != nil && *req.Role != user.Role {
		if err := s.authz.CanAssignRole(p, *req.Role); err != nil {
			return nil, err
		}
		if user.ID == p.UserID {
			return nil, apperrors.NewForbiddenError("you cannot change your own role")
		}
		user.Role = *req.Role
	}
	if req.IsActive != nil {
		if !*req.IsActive && user.ID == p.UserID {
			return nil, apperrors.NewForbiddenError("you cannot disable your own account")
		}
		user.IsActive = *req.IsActive
	}
	if req.DisplayName != nil {
		user.DisplayName = strings.TrimSpace(*req.DisplayName)
	}
	if req.Email != nil {
		user.Email = helpers.NilIfBlank(req.Email)
	}
	if req.StudentRef != nil {
		user.StudentRef = helpers.NilIfBlank(req.StudentRef)
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetPassword is an administrative reset
func (s *userService) SetPassword(ctx context.Context, p appAuth.Principal, id int64, password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", apperrors.ErrValidationFailed, MinPasswordLength)
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.canManage(p, user); err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}
	return s.users.UpdatePassword(ctx, user.ID, hash)
}

func (s *userService) Delete(ctx context.Context, p appAuth.Principal, id int64) error {
	if id == p.UserID {
		return apperrors.NewForbiddenError("you cannot delete your own account")
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.canManage(p, user); err != nil {
		return err
	}
	return s.users.Delete(ctx, id)
}
