package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	appAuth "github.com/yigit/schooladmin/internal/app/auth"
	"github.com/yigit/schooladmin/internal/app/models"
	"github.com/yigit/schooladmin/internal/app/models/dto"
	"github.com/yigit/schooladmin/internal/pkg/auth"
)

var (
	superAdmin = appAuth.Principal{UserID: 1, UserRef: "root", Role: models.RoleSuperAdmin}
	admin      = appAuth.Principal{UserID: 2, UserRef: "office", Role: models.RoleAdmin}
	teacher    = appAuth.Principal{UserID: 3, UserRef: "teacher", Role: models.RoleTeacher}
)

func studentPrincipal(studentID string) appAuth.Principal {
	return appAuth.Principal{UserID: 100, UserRef: studentID, Role: models.RoleStudent, StudentRef: studentID}
}

func parentPrincipal(studentID string) appAuth.Principal {
	return appAuth.Principal{UserID: 101, UserRef: "parent-" + studentID, Role: models.RoleParent, StudentRef: studentID}
}

func strPtr(s string) *string { return &s }

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// seedUser stores an account with the given password
func seedUser(t *testing.T, w *world, userID, password string, role models.RoleType, mutate ...func(*models.User)) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	u := &models.User{UserID: userID, Password: hash, Role: role, DisplayName: userID, IsActive: true}
	for _, m := range mutate {
		m(u)
	}
	require.NoError(t, w.users.Create(context.Background(), u))
	return u
}

// seedStudent stores a student directly, bypassing admission
func seedStudent(t *testing.T, w *world, studentID, class, rollNo string) *models.Student {
	t.Helper()
	s := &models.Student{
		StudentID:         studentID,
		RollNo:            rollNo,
		FirstName:         "Asha",
		LastName:          studentID,
		Gender:            "female",
		DateOfBirth:       time.Date(2015, 8, 15, 0, 0, 0, 0, time.UTC),
		AdmissionYear:     2025,
		CurrentStudyClass: class,
		CurrentSection:    "A",
	}
	require.NoError(t, w.students.Create(context.Background(), s))
	return s
}

func admissionRequest(studentID, rollNo string) *dto.StudentRequest {
	return &dto.StudentRequest{
		StudentID:         studentID,
		RollNo:            rollNo,
		FirstName:         "Ravi",
		LastName:          "Kumar",
		Gender:            "male",
		DateOfBirth:       "2015-08-15",
		AdmissionYear:     2025,
		CurrentStudyClass: "5",
		CurrentSection:    "A",
	}
}

func newTestStudentService(w *world) *studentService {
	return NewStudentService(w.students, w.users, w.fees, w.transactions, w.tx,
		appAuth.NewAuthorizationService(), zerolog.Nop()).(*studentService)
}

func newTestExaminationService(w *world) *examinationService {
	return NewExaminationService(w.exams, w.students, w.users, w.tx,
		appAuth.NewAuthorizationService(), w.notifier, zerolog.Nop()).(*examinationService)
}
