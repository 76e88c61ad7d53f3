package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/schooladmin/internal/app/models"
	"github.com/yigit/schooladmin/internal/pkg/apperrors"
)

func TestCanAccessStudent(t *testing.T) {
	svc := NewAuthorizationService()
	tests := []struct {
		name      string
		principal Principal
		studentID string
		allowed   bool
	}{
		{name: "admin any", principal: Principal{Role: models.RoleAdmin}, studentID: "S2", allowed: true},
		{name: "teacher any", principal: Principal{Role: models.RoleTeacher}, studentID: "S2", allowed: true},
		{name: "student own", principal: Principal{Role: models.RoleStudent, StudentRef: "S1"}, studentID: "S1", allowed: true},
		{name: "student other", principal: Principal{Role: models.RoleStudent, StudentRef: "S1"}, studentID: "S2", allowed: false},
		{name: "parent own", principal: Principal{Role: models.RoleParent, StudentRef: "S1"}, studentID: "S1", allowed: true},
		{name: "parent other", principal: Principal{Role: models.RoleParent, StudentRef: "S1"}, studentID: "S2", allowed: false},
		{name: "parent unlinked", principal: Principal{Role: models.RoleParent}, studentID: "", allowed: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.CanAccessStudent(tt.principal, tt.studentID)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
			}
		})
	}
}

func TestScopeStudentID(t *testing.T) {
	svc := NewAuthorizationService()

	id, err := svc.ScopeStudentID(Principal{Role: models.RoleStaff}, "")
	require.NoError(t, err)
	assert.Equal(t, "", id)

	id, err = svc.ScopeStudentID(Principal{Role: models.RoleParent, StudentRef: "S1"}, "")
	require.NoError(t, err)
	assert.Equal(t, "S1", id)

	_, err = svc.ScopeStudentID(Principal{Role: models.RoleParent, StudentRef: "S1"}, "S9")
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, err = svc.ScopeStudentID(Principal{Role: models.RoleStudent}, "")
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestCanSeeUnpublishedResults(t *testing.T) {
	svc := NewAuthorizationService()
	assert.True(t, svc.CanSeeUnpublishedResults(Principal{Role: models.RoleTeacher}))
	assert.True(t, svc.CanSeeUnpublishedResults(Principal{Role: models.RoleSuperAdmin}))
	assert.False(t, svc.CanSeeUnpublishedResults(Principal{Role: models.RoleStaff}))
	assert.False(t, svc.CanSeeUnpublishedResults(Principal{Role: models.RoleParent}))
}

func TestCanAssignRole(t *testing.T) {
	svc := NewAuthorizationService()
	admin := Principal{Role: models.RoleAdmin}
	super := Principal{Role: models.RoleSuperAdmin}

	assert.NoError(t, svc.CanAssignRole(admin, models.RoleTeacher))
	assert.ErrorIs(t, svc.CanAssignRole(admin, models.RoleAdmin), apperrors.ErrPermissionDenied)
	assert.ErrorIs(t, svc.CanAssignRole(admin, models.RoleSuperAdmin), apperrors.ErrPermissionDenied)
	assert.NoError(t, svc.CanAssignRole(super, models.RoleSuperAdmin))
	assert.ErrorIs(t, svc.CanAssignRole(super, models.RoleType("janitor")), apperrors.ErrValidationFailed)
}
