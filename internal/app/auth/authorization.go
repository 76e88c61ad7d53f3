package auth

import (
	"fmt"

	"github.com/yigit/schooladmin/internal/app/models"
	"github.com/yigit/schooladmin/internal/pkg/apperrors"
)

// Principal is the signed-in caller as carried by the session token
type Principal struct {
	UserID     int64
	UserRef    string
	Role       models.RoleType
	StudentRef string
}

// IsScoped reports whether the caller is limited to one linked student
func (p Principal) IsScoped() bool {
	return p.Role == models.RoleStudent || p.Role == models.RoleParent
}

// AuthorizationService answers ownership questions that a route
// allow-list alone cannot
type AuthorizationService struct{}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService() *AuthorizationService {
	return &AuthorizationService{}
}

// CanAccessStudent returns ErrPermissionDenied when a student or parent
// asks for a student other than the one linked to their account
func (s *AuthorizationService) CanAccessStudent(p Principal, studentID string) error {
	if !p.IsScoped() {
		return nil
	}
	if p.StudentRef == "" || p.StudentRef != studentID {
		return apperrors.NewForbiddenError("you can only access your own student record")
	}
	return nil
}

// ScopeStudentID resolves the student a listing is restricted to. Scoped
// callers are pinned to their linked student; requesting another is denied.
func (s *AuthorizationService) ScopeStudentID(p Principal, requested string) (string, error) {
	if !p.IsScoped() {
		return requested, nil
	}
	if requested != "" && requested != p.StudentRef {
		return "", apperrors.NewForbiddenError("you can only access your own student record")
	}
	if p.StudentRef == "" {
		return "", apperrors.NewForbiddenError("no student is linked to this account")
	}
	return p.StudentRef, nil
}

// CanSeeUnpublishedResults lets staff who enter marks review them before publishing
func (s *AuthorizationService) CanSeeUnpublishedResults(p Principal) bool {
	switch p.Role {
	case models.RoleAdmin, models.RoleSuperAdmin, models.RoleTeacher:
		return true
	}
	return false
}

// CanAssignRole checks whether the caller may create or promote a user to role.
// Administrative roles are reserved to super-admins.
func (s *AuthorizationService) CanAssignRole(p Principal, role models.RoleType) error {
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role %q", apperrors.ErrValidationFailed, role)
	}
	if role.IsAdministrative() && p.Role != models.RoleSuperAdmin {
		return apperrors.NewForbiddenError("only a super-admin can assign admin roles")
	}
	return nil
}
