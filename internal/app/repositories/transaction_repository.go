package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/schooladmin/internal/app/models"
	"github.com/yigit/schooladmin/internal/db"
	"github.com/yigit/schooladmin/internal/pkg/apperrors"
	"github.com/yigit/schooladmin/internal/pkg/dberrors"
	"github.com/yigit/schooladmin/internal/pkg/logger"
)

var transactionColumns = []string{
	"id", "student_id", "fee_type_key", "fees_type", "amount", "mode", "paid_at",
	"transaction_id", "receipt_id", "installment", "remarks", "recorded_by", "created_at",
}

// TransactionRepository records fee payments. It only inserts and reads;
// payments are never modified once written.
type TransactionRepository struct {
	db db.DBTX
	sb squirrel.StatementBuilderType
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(conn db.DBTX) *TransactionRepository {
	return &TransactionRepository{
		db: conn,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(
		&t.ID, &t.StudentID, &t.FeeTypeKey, &t.FeesType, &t.Amount, &t.Mode, &t.PaidAt,
		&t.TransactionID, &t.ReceiptID, &t.Installment, &t.Remarks, &t.RecordedBy, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create appends a payment
func (r *TransactionRepository) Create(ctx context.Context, t *models.Transaction) error {
	sql, args, err := r.sb.Insert("transactions").
		Columns("student_id", "fee_type_key", "fees_type", "amount", "mode", "paid_at",
			"transaction_id", "receipt_id", "installment", "remarks", "recorded_by").
		Values(t.StudentID, t.FeeTypeKey, t.FeesType, t.Amount, t.Mode, t.PaidAt,
			t.TransactionID, t.ReceiptID, t.Installment, t.Remarks, t.RecordedBy).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create transaction SQL")
		return err
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&t.ID, &t.CreatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, dberrors.TransactionsReceiptKey) {
			return apperrors.ErrReceiptIDExists
		}
		logger.Error().Err(err).Str("studentID", t.StudentID).Msg("Error creating transaction")
		return fmt.Errorf("error creating transaction: %w", err)
	}
	return nil
}

func transactionFilterClause(f models.TransactionFilter) squirrel.And {
	where := squirrel.And{}
	if f.StudentID != "" {
		where = append(where, squirrel.Eq{"student_id": f.StudentID})
	}
	if f.From != nil {
		where = append(where, squirrel.GtOrEq{"paid_at": *f.From})
	}
	if f.To != nil {
		where = append(where, squirrel.Lt{"paid_at": *f.To})
	}
	return where
}

// List returns a page of payments, newest first, with the total match count
func (r *TransactionRepository) List(ctx context.Context, f models.TransactionFilter, page, size int) ([]*models.Transaction, int64, error) {
	where := transactionFilterClause(f)

	countSQL, countArgs, err := r.sb.Select("COUNT(*)").From("transactions").Where(where).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building count transactions SQL")
		return nil, 0, err
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting transactions: %w", err)
	}

	sql, args, err := r.sb.Select(transactionColumns...).From("transactions").Where(where).
		OrderBy("paid_at DESC", "id DESC").
		Limit(uint64(size)).Offset(uint64((page - 1) * size)).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list transactions SQL")
		return nil, 0, err
	}
	txs, err := r.query(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}

// ListByStudent returns all payments of a student in payment order
func (r *TransactionRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Transaction, error) {
	sql, args, err := r.sb.Select(transactionColumns...).From("transactions").
		Where(squirrel.Eq{"student_id": studentID}).
		OrderBy("paid_at", "id").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list student transactions SQL")
		return nil, err
	}
	ptrs, err := r.query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	out := make([]models.Transaction, len(ptrs))
	for i, t := range ptrs {
		out[i] = *t
	}
	return out, nil
}

// Recent returns the latest n payments
func (r *TransactionRepository) Recent(ctx context.Context, n int) ([]*models.Transaction, error) {
	sql, args, err := r.sb.Select(transactionColumns...).From("transactions").
		OrderBy("paid_at DESC", "id DESC").Limit(uint64(n)).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building recent transactions SQL")
		return nil, err
	}
	return r.query(ctx, sql, args...)
}

// SumSince totals payments made at or after since. A nil since totals everything.
func (r *TransactionRepository) SumSince(ctx context.Context, since *time.Time) (float64, error) {
	q := r.sb.Select("COALESCE(SUM(amount), 0)::float8").From("transactions")
	if since != nil {
		q = q.Where(squirrel.GtOrEq{"paid_at": *since})
	}
	sql, args, err := q.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building sum transactions SQL")
		return 0, err
	}
	var total float64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("error summing transactions: %w", err)
	}
	return total, nil
}

func (r *TransactionRepository) query(ctx context.Context, sql string, args ...interface{}) ([]*models.Transaction, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error querying transactions")
		return nil, fmt.Errorf("error querying transactions: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
