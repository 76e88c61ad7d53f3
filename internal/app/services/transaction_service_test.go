package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appAuth "github.com/yigit/schooladmin/internal/app/auth"
	"github.com/yigit/schooladmin/internal/app/models"
	"github.com/yigit/schooladmin/internal/app/models/dto"
	"github.com/yigit/schooladmin/internal/pkg/apperrors"
	"github.com/yigit/schooladmin/internal/pkg/websocket"
)

func newTestTransactionService(w *world) *transactionService {
	return NewTransactionService(w.transactions, w.students, w.users,
		appAuth.NewAuthorizationService(), w.notifier, zerolog.Nop()).(*transactionService)
}

func TestRecordPayment(t *testing.T) {
	w := newWorld()
	seedStudent(t, w, "S1", "5", "1")
	student := seedUser(t, w, "S1", "password1", models.RoleStudent, func(u *models.User) { u.StudentRef = strPtr("S1") })
	parent := seedUser(t, w, "p1", "password1", models.RoleParent, func(u *models.User) { u.StudentRef = strPtr("S1") })
	seedUser(t, w, "p-old", "password1", models.RoleParent, func(u *models.User) {
		u.StudentRef = strPtr("S1")
		u.IsActive = false
	})

	svc := newTestTransactionService(w)
	now := time.Date(2025, 7, 1, 9, 30, 0, 0, time.UTC)
	svc.now = fixedClock(now)

	tx, err := svc.Record(context.Background(), admin, &dto.TransactionRequest{
		StudentID: "S1",
		FeesType:  "Tuition Fees",
		Amount:    25000,
		Mode:      "UPI",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(tx.ReceiptID, ReceiptPrefix))
	assert.Equal(t, "tuition-fee", tx.FeeTypeKey)
	assert.Equal(t, models.PaymentModeUPI, tx.Mode)
	assert.Equal(t, now, tx.PaidAt, "paidAt defaults to now")
	require.NotNil(t, tx.RecordedBy)
	assert.Equal(t, admin.UserID, *tx.RecordedBy)

	assert.ElementsMatch(t, []sentNotification{
		{UserID: student.ID, Type: websocket.TypePaymentRecorded},
		{UserID: parent.ID, Type: websocket.TypePaymentRecorded},
	}, w.notifier.sent)
}

func TestRecordPaymentRejections(t *testing.T) {
	w := newWorld()
	seedStudent(t, w, "S1", "5", "1")
	svc := newTestTransactionService(w)
	ctx := context.Background()

	_, err := svc.Record(ctx, admin, &dto.TransactionRequest{StudentID: "S1", FeesType: "Exam Fee", Amount: 500, Mode: "cash", ReceiptID: strPtr("R-1")})
	require.NoError(t, err)

	tests := []struct {
		name    string
		req     dto.TransactionRequest
		wantErr error
	}{
		{name: "unknown student", req: dto.TransactionRequest{StudentID: "S9", FeesType: "Exam Fee", Amount: 10, Mode: "cash"}, wantErr: apperrors.ErrStudentNotFound},
		{name: "zero amount", req: dto.TransactionRequest{StudentID: "S1", FeesType: "Exam Fee", Amount: 0, Mode: "cash"}, wantErr: apperrors.ErrValidationFailed},
		{name: "unknown mode", req: dto.TransactionRequest{StudentID: "S1", FeesType: "Exam Fee", Amount: 10, Mode: "barter"}, wantErr: apperrors.ErrValidationFailed},
		{name: "bad date", req: dto.TransactionRequest{StudentID: "S1", FeesType: "Exam Fee", Amount: 10, Mode: "cash", PaidAt: "yesterday"}, wantErr: apperrors.ErrValidationFailed},
		{name: "duplicate receipt", req: dto.TransactionRequest{StudentID: "S1", FeesType: "Exam Fee", Amount: 10, Mode: "cash", ReceiptID: strPtr("R-1")}, wantErr: apperrors.ErrReceiptIDExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := svc.Record(ctx, admin, &req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestListTransactionsIsScoped(t *testing.T) {
	w := newWorld()
	ctx := context.Background()
	for _, id := range []string{"S1", "S2"} {
		require.NoError(t, w.transactions.Create(ctx, &models.Transaction{
			StudentID: id, FeesType: "Tuition Fee", Amount: 100, Mode: models.PaymentModeCash,
			PaidAt: time.Now(), ReceiptID: "R-" + id,
		}))
	}
	svc := newTestTransactionService(w)

	items, total, err := svc.List(ctx, parentPrincipal("S1"), models.TransactionFilter{}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "S1", items[0].StudentID)

	_, _, err = svc.List(ctx, studentPrincipal("S1"), models.TransactionFilter{StudentID: "S2"}, 1, 20)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, total, err = svc.List(ctx, admin, models.TransactionFilter{}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	from := time.Now()
	to := from.Add(-time.Hour)
	_, _, err = svc.List(ctx, admin, models.TransactionFilter{From: &from, To: &to}, 1, 20)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}
