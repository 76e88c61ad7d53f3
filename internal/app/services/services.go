package services

import (
	"time"

	"github.com/rs/zerolog"
	appAuth "github.com/yigit/schooladmin/internal/app/auth"
	"github.com/yigit/schooladmin/internal/app/repositories"
	"github.com/yigit/schooladmin/internal/pkg/auth"
	"github.com/yigit/schooladmin/internal/pkg/email"
	"github.com/yigit/schooladmin/internal/pkg/websocket"
)

// Services groups every application service
type Services struct {
	Auth        AuthService
	OTP         OTPService
	Student     StudentService
	User        UserService
	Admin       AdminService
	Fee         FeeService
	Transaction TransactionService
	Examination ExaminationService
	Dashboard   DashboardService
	Authz       *appAuth.AuthorizationService
	JWT         *auth.JWTService
}

// Options carries the collaborators that are not repositories
type Options struct {
	JWT       *auth.JWTService
	Mailer    email.EmailService
	Notifier  websocket.Notifier
	OTPTTL    time.Duration
	OTPLength int
	Logger    zerolog.Logger
}

// NewServices wires every service over the given repositories
func NewServices(repos *repositories.Repositories, tx Transactor, opts Options) *Services {
	authz := appAuth.NewAuthorizationService()
	notifier := opts.Notifier
	if notifier == nil {
		notifier = websocket.NopNotifier{}
	}

	students := NewStudentService(repos.StudentRepository, repos.UserRepository,
		repos.FeeStructureRepository, repos.TransactionRepository, tx, authz, opts.Logger)
	exams := NewExaminationService(repos.ExaminationRepository, repos.StudentRepository,
		repos.UserRepository, tx, authz, notifier, opts.Logger)
	transactions := NewTransactionService(repos.TransactionRepository, repos.StudentRepository,
		repos.UserRepository, authz, notifier, opts.Logger)
	dashboard := NewDashboardService(repos.StudentRepository, repos.UserRepository,
		repos.FeeStructureRepository, repos.TransactionRepository, repos.ExaminationRepository, students)

	return &Services{
		Auth:        NewAuthService(repos.UserRepository, opts.JWT, opts.Logger),
		OTP:         NewOTPService(repos.UserRepository, repos.OTPStore, opts.Mailer, opts.OTPTTL, opts.OTPLength, opts.Logger),
		Student:     students,
		User:        NewUserService(repos.UserRepository, authz),
		Admin:       NewAdminService(repos.AdminRepository, repos.UserRepository, tx),
		Fee:         NewFeeService(repos.FeeStructureRepository),
		Transaction: transactions,
		Examination: exams,
		Dashboard:   dashboard,
		Authz:       authz,
		JWT:         opts.JWT,
	}
}
