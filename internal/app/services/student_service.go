package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	appAuth "github.com/yigit/schooladmin/internal/app/auth"
	"github.com/yigit/schooladmin/internal/app/models"
	"github.com/yigit/schooladmin/internal/app/models/dto"
	"github.com/yigit/schooladmin/internal/domain/fees"
	"github.com/yigit/schooladmin/internal/pkg/apperrors"
	"github.com/yigit/schooladmin/internal/pkg/auth"
	"github.com/yigit/schooladmin/internal/pkg/helpers"
	"github.com/yigit/schooladmin/internal/pkg/validation"
)

// RollNoQuery is the roll number availability pre-check
type RollNoQuery struct {
	Class            string
	Section          string
	Year             int
	RollNo           string
	ExcludeStudentID string
}

// StudentService handles admissions and student records
type StudentService interface {
	Admit(ctx context.Context, req *dto.StudentRequest) (*dto.AdmissionResponse, error)
	List(ctx context.Context, filter models.StudentFilter, page, size int) ([]*models.Student, int64, error)
	RollNoAvailable(ctx context.Context, q RollNoQuery) (bool, error)
	Get(ctx context.Context, p appAuth.Principal, studentID string) (*models.Student, error)
	Update(ctx context.Context, studentID string, req *dto.StudentRequest) (*models.Student, error)
	Delete(ctx context.Context, studentID string) error
	FeeSummary(ctx context.Context, p appAuth.Principal, studentID, sessionYear string) (*fees.Summary, error)
}

type studentService struct {
	students     StudentStore
	users        UserStore
	feeStructs   FeeStructureStore
	transactions TransactionStore
	tx           Transactor
	authz        *appAuth.AuthorizationService
	logger       zerolog.Logger
	now          func() time.Time
}

// NewStudentService creates a new StudentService
func NewStudentService(
	students StudentStore,
	users UserStore,
	feeStructs FeeStructureStore,
	transactions TransactionStore,
	tx Transactor,
	authz *appAuth.AuthorizationService,
	logger zerolog.Logger,
) StudentService {
	return &studentService{
		students:     students,
		users:        users,
		feeStructs:   feeStructs,
		transactions: transactions,
		tx:           tx,
		authz:        authz,
		logger:       logger,
		now:          time.Now,
	}
}

// studentFromRequest validates the form and maps it onto a model
func studentFromRequest(req *dto.StudentRequest) (*models.Student, error) {
	studentID := strings.TrimSpace(req.StudentID)
	if !validation.NewStringValidation(studentID).WithPattern(validation.CompiledPatterns.StudentID).Validate() {
		return nil, fmt.Errorf("%w: studentId must be 2-32 letters, digits, '-' or '/'", apperrors.ErrValidationFailed)
	}
	rollNo := strings.TrimSpace(req.RollNo)
	if !validation.NewStringValidation(rollNo).WithPattern(validation.CompiledPatterns.RollNo).Validate() {
		return nil, fmt.Errorf("%w: rollNo is invalid", apperrors.ErrValidationFailed)
	}
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return nil, fmt.Errorf("%w: firstName and lastName are required", apperrors.ErrValidationFailed)
	}
	if strings.TrimSpace(req.CurrentStudyClass) == "" || strings.TrimSpace(req.CurrentSection) == "" {
		return nil, fmt.Errorf("%w: currentStudyClass and currentSection are required", apperrors.ErrValidationFailed)
	}
	if !validation.NewNumericValidation(req.ConcessionPercentage).WithMin(0).WithMax(100).Validate() {
		return nil, fmt.Errorf("%w: concessionPercentage must be between 0 and 100", apperrors.ErrValidationFailed)
	}
	for _, m := range []*string{req.FatherMobile, req.MotherMobile, req.Mobile} {
		if v := helpers.StringValue(helpers.NilIfBlank(m)); v != "" && !validation.IsMobile(v) {
			return nil, fmt.Errorf("%w: invalid mobile number %q", apperrors.ErrValidationFailed, v)
		}
	}

	dob, err := helpers.ParseDate(req.DateOfBirth)
	if err != nil {
		return nil, fmt.Errorf("%w: dateOfBirth: %v", apperrors.ErrValidationFailed, err)
	}

	return &models.Student{
		StudentID:            studentID,
		RollNo:               rollNo,
		GovtProvidedID:       helpers.NilIfBlank(req.GovtProvidedID),
		FirstName:            strings.TrimSpace(req.FirstName),
		MiddleName:           helpers.NilIfBlank(req.MiddleName),
		LastName:             strings.TrimSpace(req.LastName),
		FatherFirstName:      helpers.NilIfBlank(req.FatherFirstName),
		FatherLastName:       helpers.NilIfBlank(req.FatherLastName),
		FatherMobile:         helpers.NilIfBlank(req.FatherMobile),
		MotherFirstName:      helpers.NilIfBlank(req.MotherFirstName),
		MotherLastName:       helpers.NilIfBlank(req.MotherLastName),
		MotherMobile:         helpers.NilIfBlank(req.MotherMobile),
		ParentID:             helpers.NilIfBlank(req.ParentID),
		ParentRelation:       helpers.NilIfBlank(req.ParentRelation),
		Gender:               req.Gender,
		DateOfBirth:          dob,
		Category:             helpers.NilIfBlank(req.Category),
		Community:            helpers.NilIfBlank(req.Community),
		Nationality:          helpers.NilIfBlank(req.Nationality),
		BloodGroup:           helpers.NilIfBlank(req.BloodGroup),
		Email:                helpers.NilIfBlank(req.Email),
		Mobile:               helpers.NilIfBlank(req.Mobile),
		Address:              helpers.NilIfBlank(req.Address),
		AdmissionYear:        req.AdmissionYear,
		CurrentStudyClass:    strings.TrimSpace(req.CurrentStudyClass),
		CurrentSection:       strings.TrimSpace(req.CurrentSection),
		Medium:               helpers.NilIfBlank(req.Medium),
		ConcessionPercentage: req.ConcessionPercentage,
		ConcessionReason:     helpers.NilIfBlank(req.ConcessionReason),
	}, nil
}

// InitialPassword is the password given to accounts created at admission
// when none is supplied: the date of birth as DDMMYYYY.
func InitialPassword(dob time.Time) string {
	return dob.Format("02012006")
}

// Admit creates the student, its login account and, when guardian details
// allow, a parent account. All rows are written in one transaction.
func (s *studentService) Admit(ctx context.Context, req *dto.StudentRequest) (*dto.AdmissionResponse, error) {
	student, err := studentFromRequest(req)
	if err != nil {
		return nil, err
	}

	password := InitialPassword(student.DateOfBirth)
	if p := helpers.StringValue(req.InitialPassword); p != "" {
		if len(p) < MinPasswordLength {
			return nil, fmt.Errorf("%w: initialPassword must be at least %d characters", apperrors.ErrValidationFailed, MinPasswordLength)
		}
		password = p
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	resp := &dto.AdmissionResponse{Student: student, UserID: student.StudentID}
	studentRef := student.StudentID

	err = s.tx.InTx(ctx, func(ctx context.Context, stores TxStores) error {
		if err := stores.Students.Create(ctx, student); err != nil {
			return err
		}

		account := &models.User{
			UserID:      student.StudentID,
			Email:       student.Email,
			Password:    hash,
			Role:        models.RoleStudent,
			DisplayName: student.FullName(),
			StudentRef:  &studentRef,
			IsActive:    true,
		}
		if err := stores.Users.Create(ctx, account); err != nil {
			if errors.Is(err, apperrors.ErrUserIDExists) {
				return apperrors.ErrStudentIDAlreadyExists
			}
			return err
		}

		parent := parentAccount(student, hash)
		if parent == nil {
			return nil
		}
		if err := stores.Users.Create(ctx, parent); err != nil {
			if errors.Is(err, apperrors.ErrUserIDExists) {
				return apperrors.NewConflictError("parentId is already used by another account")
			}
			return err
		}
		resp.ParentUserID = &parent.UserID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("studentID", student.StudentID).
		Str("class", student.CurrentStudyClass).
		Bool("parentAccount", resp.ParentUserID != nil).
		Msg("Student admitted")
	return resp, nil
}

// parentAccount returns the guardian login to create with a student, or nil
// when no parentId or guardian mobile was given.
func parentAccount(student *models.Student, passwordHash string) *models.User {
	if student.ParentID == nil {
		return nil
	}
	if student.FatherMobile == nil && student.MotherMobile == nil {
		return nil
	}

	name := "Parent of " + student.FullName()
	switch {
	case student.FatherFirstName != nil && student.FatherMobile != nil:
		name = strings.TrimSpace(*student.FatherFirstName + " " + helpers.StringValue(student.FatherLastName))
	case student.MotherFirstName != nil && student.MotherMobile != nil:
		name = strings.TrimSpace(*student.MotherFirstName + " " + helpers.StringValue(student.MotherLastName))
	}

	ref := student.StudentID
	return &models.User{
		UserID:      *student.ParentID,
		Password:    passwordHash,
		Role:        models.RoleParent,
		DisplayName: name,
		StudentRef:  &ref,
		IsActive:    true,
	}
}

// List returns a filtered page of students
func (s *studentService) List(ctx context.Context, filter models.StudentFilter, page, size int) ([]*models.Student, int64, error) {
	page, size = helpers.NormalizePage(page, size)
	return s.students.List(ctx, filter, page, size)
}

// RollNoAvailable reports whether a roll number is free. The answer is a
// hint only; the unique index decides on write.
func (s *studentService) RollNoAvailable(ctx context.Context, q RollNoQuery) (bool, error) {
	if q.Class == "" || q.Section == "" || q.Year == 0 || q.RollNo == "" {
		return false, fmt.Errorf("%w: class, section, year and rollNo are required", apperrors.ErrValidationFailed)
	}
	taken, err := s.students.RollNoTaken(ctx, q.Class, q.Section, q.Year, q.RollNo, q.ExcludeStudentID)
	if err != nil {
		return false, err
	}
	return !taken, nil
}

// Get returns one student, enforcing ownership for students and parents
func (s *studentService) Get(ctx context.Context, p appAuth.Principal, studentID string) (*models.Student, error) {
	if err := s.authz.CanAccessStudent(p, studentID); err != nil {
		return nil, err
	}
	return s.students.GetByStudentID(ctx, studentID)
}

// Update replaces a student's record. The studentId itself is immutable.
func (s *studentService) Update(ctx context.Context, studentID string, req *dto.StudentRequest) (*models.Student, error) {
	existing, err := s.students.GetByStudentID(ctx, studentID)
	if err != nil {
		return nil, err
	}

	req.StudentID = existing.StudentID
	student, err := studentFromRequest(req)
	if err != nil {
		return nil, err
	}
	student.ID = existing.ID
	student.CreatedAt = existing.CreatedAt

	if err := s.students.Update(ctx, student); err != nil {
		return nil, err
	}
	return student, nil
}

// Delete removes a student with its student and parent accounts. Payment
// history is kept.
func (s *studentService) Delete(ctx context.Context, studentID string) error {
	return s.tx.InTx(ctx, func(ctx context.Context, stores TxStores) error {
		if err := stores.Users.DeleteByStudentRef(ctx, studentID); err != nil {
			return err
		}
		return stores.Students.Delete(ctx, studentID)
	})
}

// FeeSummary computes the fee position of a student. An empty sessionYear
// uses the latest structure defined for the student's class. Only payments
// made inside that session's window count.
func (s *studentService) FeeSummary(ctx context.Context, p appAuth.Principal, studentID, sessionYear string) (*fees.Summary, error) {
	if err := s.authz.CanAccessStudent(p, studentID); err != nil {
		return nil, err
	}
	student, err := s.students.GetByStudentID(ctx, studentID)
	if err != nil {
		return nil, err
	}

	structure, err := s.feeStructs.GetForClass(ctx, sessionYear, student.CurrentStudyClass)
	if err != nil {
		return nil, err
	}
	txs, err := s.transactions.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	txs = fees.PaymentsInSession(txs, structure.SessionYear)

	summary := fees.Calculate(structure, student.ConcessionPercentage, txs, s.now())
	return &summary, nil
}
