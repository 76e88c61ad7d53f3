package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	appAuth "github.com/yigit/schooladmin/internal/app/auth"
	"github.com/yigit/schooladmin/internal/app/models"
	"github.com/yigit/schooladmin/internal/app/models/dto"
	"github.com/yigit/schooladmin/internal/domain/fees"
	"github.com/yigit/schooladmin/internal/pkg/apperrors"
	"github.com/yigit/schooladmin/internal/pkg/helpers"
	"github.com/yigit/schooladmin/internal/pkg/websocket"
)

// ReceiptPrefix starts every generated receipt id
const ReceiptPrefix = "RCPT-"

// TransactionService records and lists fee payments. Payments are never
// edited or removed once recorded.
type TransactionService interface {
	Record(ctx context.Context, p appAuth.Principal, req *dto.TransactionRequest) (*models.Transaction, error)
	List(ctx context.Context, p appAuth.Principal, filter models.TransactionFilter, page, size int) ([]*models.Transaction, int64, error)
}

type transactionService struct {
	transactions TransactionStore
	students     StudentStore
	users        UserStore
	authz        *appAuth.AuthorizationService
	notifier     websocket.Notifier
	logger       zerolog.Logger
	now          func() time.Time
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(
	transactions TransactionStore,
	students StudentStore,
	users UserStore,
	authz *appAuth.AuthorizationService,
	notifier websocket.Notifier,
	logger zerolog.Logger,
) TransactionService {
	return &transactionService{
		transactions: transactions,
		students:     students,
		users:        users,
		authz:        authz,
		notifier:     notifier,
		logger:       logger,
		now:          time.Now,
	}
}

// Record stores a payment and notifies the student's and parents' sessions
func (s *transactionService) Record(ctx context.Context, p appAuth.Principal, req *dto.TransactionRequest) (*models.Transaction, error) {
	studentID := strings.TrimSpace(req.StudentID)
	if studentID == "" {
		return nil, fmt.Errorf("%w: studentId is required", apperrors.ErrValidationFailed)
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be greater than 0", apperrors.ErrValidationFailed)
	}
	label := strings.TrimSpace(req.FeesType)
	if label == "" {
		return nil, fmt.Errorf("%w: feesType is required", apperrors.ErrValidationFailed)
	}
	mode := models.PaymentMode(strings.ToLower(req.Mode))
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: unknown payment mode %q", apperrors.ErrValidationFailed, req.Mode)
	}

	paidAt := s.now().UTC()
	if strings.TrimSpace(req.PaidAt) != "" {
		t, err := helpers.ParseDate(req.PaidAt)
		if err != nil {
			return nil, fmt.Errorf("%w: paidAt: %v", apperrors.ErrValidationFailed, err)
		}
		paidAt = t
	}

	exists, err := s.students.Exists(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.ErrStudentNotFound
	}

	key := fees.NormalizeKey(req.FeeTypeKey)
	if key == "" {
		key = fees.NormalizeKey(label)
	}
	receipt := helpers.StringValue(helpers.NilIfBlank(req.ReceiptID))
	if receipt == "" {
		receipt = ReceiptPrefix + uuid.NewString()
	}

	t := &models.Transaction{
		StudentID:     studentID,
		FeeTypeKey:    key,
		FeesType:      label,
		Amount:        req.Amount,
		Mode:          mode,
		PaidAt:        paidAt,
		TransactionID: helpers.NilIfBlank(req.TransactionID),
		ReceiptID:     receipt,
		Installment:   helpers.NilIfBlank(req.Installment),
		Remarks:       helpers.NilIfBlank(req.Remarks),
	}
	if p.UserID > 0 {
		recordedBy := p.UserID
		t.RecordedBy = &recordedBy
	}

	if err := s.transactions.Create(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("studentID", t.StudentID).
		Str("receiptID", t.ReceiptID).
		Float64("amount", t.Amount).
		Msg("Payment recorded")

	s.notify(ctx, t)
	return t, nil
}

// notify is best effort; a failed lookup never fails the payment
func (s *transactionService) notify(ctx context.Context, t *models.Transaction) {
	recipients, err := s.users.IDsByStudentRef(ctx, t.StudentID)
	if err != nil {
		s.logger.Warn().Err(err).Str("studentID", t.StudentID).Msg("Failed to resolve payment notification recipients")
		return
	}
	websocket.NotifyPaymentRecorded(s.notifier, recipients, websocket.PaymentRecorded{
		StudentID: t.StudentID,
		ReceiptID: t.ReceiptID,
		FeesType:  t.FeesType,
		Amount:    t.Amount,
		PaidAt:    t.PaidAt,
	})
}

// List returns a page of payments. Students and parents only see their
// linked student's payments.
func (s *transactionService) List(ctx context.Context, p appAuth.Principal, filter models.TransactionFilter, page, size int) ([]*models.Transaction, int64, error) {
	studentID, err := s.authz.ScopeStudentID(p, strings.TrimSpace(filter.StudentID))
	if err != nil {
		return nil, 0, err
	}
	filter.StudentID = studentID
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, 0, fmt.Errorf("%w: to must not be before from", apperrors.ErrValidationFailed)
	}
	page, size = helpers.NormalizePage(page, size)
	return s.transactions.List(ctx, filter, page, size)
}
