package services

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/yigit/schooladmin/internal/app/models"
	"github.com/yigit/schooladmin/internal/app/repositories"
	"github.com/yigit/schooladmin/internal/db"
)

// UserStore is the persistence a service needs for login accounts
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUserID(ctx context.Context, userID string) (*models.User, error)
	GetByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	List(ctx context.Context, role string, page, size int) ([]*models.User, int64, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	Delete(ctx context.Context, id int64) error
	DeleteByStudentRef(ctx context.Context, studentID string) error
	IDsByStudentRef(ctx context.Context, studentID string) ([]int64, error)
	CountByRole(ctx context.Context) (map[string]int64, error)
}

// AdminStore persists admin profiles
type AdminStore interface {
	Create(ctx context.Context, admin *models.Admin) error
	GetByID(ctx context.Context, id int64) (*models.Admin, error)
	GetByUserRef(ctx context.Context, userRef int64) (*models.Admin, error)
	List(ctx context.Context) ([]*models.Admin, error)
	Update(ctx context.Context, admin *models.Admin) error
}

// StudentStore persists students
type StudentStore interface {
	Create(ctx context.Context, s *models.Student) error
	GetByStudentID(ctx context.Context, studentID string) (*models.Student, error)
	Exists(ctx context.Context, studentID string) (bool, error)
	List(ctx context.Context, f models.StudentFilter, page, size int) ([]*models.Student, int64, error)
	ListByClass(ctx context.Context, class string) ([]*models.Student, error)
	GetByStudentIDs(ctx context.Context, ids []string) (map[string]*models.Student, error)
	RollNoTaken(ctx context.Context, class, section string, year int, rollNo, excludeStudentID string) (bool, error)
	Update(ctx context.Context, s *models.Student) error
	Delete(ctx context.Context, studentID string) error
	Count(ctx context.Context) (int64, error)
}

// FeeStructureStore persists fee structures
type FeeStructureStore interface {
	Create(ctx context.Context, fs *models.FeeStructure) error
	GetByID(ctx context.Context, id int64) (*models.FeeStructure, error)
	GetForClass(ctx context.Context, sessionYear, class string) (*models.FeeStructure, error)
	List(ctx context.Context, sessionYear, class string) ([]*models.FeeStructure, error)
	Update(ctx context.Context, fs *models.FeeStructure) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

// TransactionStore appends and reads payments
type TransactionStore interface {
	Create(ctx context.Context, t *models.Transaction) error
	List(ctx context.Context, f models.TransactionFilter, page, size int) ([]*models.Transaction, int64, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Transaction, error)
	Recent(ctx context.Context, n int) ([]*models.Transaction, error)
	SumSince(ctx context.Context, since *time.Time) (float64, error)
}

// ExaminationStore persists examinations and marks
type ExaminationStore interface {
	Create(ctx context.Context, e *models.Examination) error
	GetByID(ctx context.Context, id int64) (*models.Examination, error)
	List(ctx context.Context, f models.ExamFilter) ([]*models.Examination, error)
	Update(ctx context.Context, e *models.Examination) error
	SetPublished(ctx context.Context, id int64, published bool, at time.Time) error
	Delete(ctx context.Context, id int64) error
	CountByPublished(ctx context.Context) (int64, int64, error)
	UpsertMark(ctx context.Context, m *models.ExamMark) error
	MarksForExam(ctx context.Context, examID int64) ([]models.ExamMark, error)
	MarksForStudent(ctx context.Context, studentID string, examIDs []int64) ([]models.ExamMark, error)
}

// TxStores are the stores bound to one open transaction
type TxStores struct {
	Users    UserStore
	Admins   AdminStore
	Students StudentStore
	Exams    ExaminationStore
}

// Transactor runs a unit of work atomically
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context, stores TxStores) error) error
}

type pgTransactor struct {
	db    db.TxRunner
	repos *repositories.Repositories
}

// NewTransactor binds repositories to transactions opened by runner
func NewTransactor(runner db.TxRunner, repos *repositories.Repositories) Transactor {
	return &pgTransactor{db: runner, repos: repos}
}

func (t *pgTransactor) InTx(ctx context.Context, fn func(ctx context.Context, stores TxStores) error) error {
	return t.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, TxStores{
			Users:    t.repos.UserRepository.WithTx(tx),
			Admins:   t.repos.AdminRepository.WithTx(tx),
			Students: t.repos.StudentRepository.WithTx(tx),
			Exams:    t.repos.ExaminationRepository.WithTx(tx),
		})
	})
}
