package repositories

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository         *UserRepository
	AdminRepository        *AdminRepository
	StudentRepository      *StudentRepository
	FeeStructureRepository *FeeStructureRepository
	TransactionRepository  *TransactionRepository
	ExaminationRepository  *ExaminationRepository
	OTPStore               OTPStore
}

// NewRepositories initializes all Postgres repositories. otpStore may be
// nil, in which case codes are kept in Postgres.
func NewRepositories(pool *pgxpool.Pool, otpStore OTPStore) *Repositories {
	if otpStore == nil {
		otpStore = NewPostgresOTPStore(pool)
	}
	return &Repositories{
		UserRepository:         NewUserRepository(pool),
		AdminRepository:        NewAdminRepository(pool),
		StudentRepository:      NewStudentRepository(pool),
		FeeStructureRepository: NewFeeStructureRepository(pool),
		TransactionRepository:  NewTransactionRepository(pool),
		ExaminationRepository:  NewExaminationRepository(pool),
		OTPStore:               otpStore,
	}
}
