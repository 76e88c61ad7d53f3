package services

import (
	"context"
	"errors"
	"time"

	appAuth "github.com/yigit/schooladmin/internal/app/auth"
	"github.com/yigit/schooladmin/internal/app/models"
	"github.com/yigit/schooladmin/internal/app/models/dto"
	"github.com/yigit/schooladmin/internal/pkg/apperrors"
	"github.com/yigit/schooladmin/internal/pkg/helpers"
)

// RecentTransactionsLimit is how many payments the admin dashboard lists
const RecentTransactionsLimit = 10

// DashboardService aggregates the figures shown on the landing pages
type DashboardService interface {
	Admin(ctx context.Context) (*dto.AdminDashboard, error)
	LinkedStudent(ctx context.Context, p appAuth.Principal) (*dto.StudentDashboard, error)
}

type dashboardService struct {
	students     StudentStore
	users        UserStore
	feeStructs   FeeStructureStore
	transactions TransactionStore
	exams        ExaminationStore
	studentSvc   StudentService
	now          func() time.Time
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(
	students StudentStore,
	users UserStore,
	feeStructs FeeStructureStore,
	transactions TransactionStore,
	exams ExaminationStore,
	studentSvc StudentService,
) DashboardService {
	return &dashboardService{
		students:     students,
		users:        users,
		feeStructs:   feeStructs,
		transactions: transactions,
		exams:        exams,
		studentSvc:   studentSvc,
		now:          time.Now,
	}
}

// Admin returns school-wide counters
func (s *dashboardService) Admin(ctx context.Context) (*dto.AdminDashboard, error) {
	var (
		d   dto.AdminDashboard
		err error
	)
	if d.Students, err = s.students.Count(ctx); err != nil {
		return nil, err
	}
	if d.UsersByRole, err = s.users.CountByRole(ctx); err != nil {
		return nil, err
	}
	if d.FeeStructures, err = s.feeStructs.Count(ctx); err != nil {
		return nil, err
	}
	if d.CollectedTotal, err = s.transactions.SumSince(ctx, nil); err != nil {
		return nil, err
	}
	monthStart := helpers.MonthStart(s.now())
	if d.CollectedThisMonth, err = s.transactions.SumSince(ctx, &monthStart); err != nil {
		return nil, err
	}
	if d.PublishedExams, d.DraftExams, err = s.exams.CountByPublished(ctx); err != nil {
		return nil, err
	}

	recent, err := s.transactions.Recent(ctx, RecentTransactionsLimit)
	if err != nil {
		return nil, err
	}
	d.RecentTransactions = make([]models.Transaction, 0, len(recent))
	for _, t := range recent {
		d.RecentTransactions = append(d.RecentTransactions, *t)
	}
	return &d, nil
}

// LinkedStudent is the student dashboard, served to the student or to a
// parent on their behalf. Missing fee structures or results leave those
// sections empty.
func (s *dashboardService) LinkedStudent(ctx context.Context, p appAuth.Principal) (*dto.StudentDashboard, error) {
	if p.StudentRef == "" {
		return nil, apperrors.NewForbiddenError("no student is linked to this account")
	}

	student, err := s.studentSvc.Get(ctx, p, p.StudentRef)
	if err != nil {
		return nil, err
	}
	d := &dto.StudentDashboard{Student: student}

	summary, err := s.studentSvc.FeeSummary(ctx, p, student.StudentID, "")
	switch {
	case err == nil:
		d.FeeSummary = summary
	case !errors.Is(err, apperrors.ErrFeeStructureNotFound):
		return nil, err
	}

	if d.LatestResult, err = latestPublishedResult(ctx, s.exams, student.StudentID); err != nil {
		return nil, err
	}
	return d, nil
}
